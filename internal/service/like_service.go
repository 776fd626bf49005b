package service

import (
	"context"
	"errors"

	"pulse/internal/models"
	"pulse/internal/observability"
	"pulse/internal/repository"
)

type LikeService struct {
	likeRepo repository.LikeRepository
	postRepo repository.PostRepository
	userRepo repository.UserRepository
}

func NewLikeService(
	likeRepo repository.LikeRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
) *LikeService {
	return &LikeService{
		likeRepo: likeRepo,
		postRepo: postRepo,
		userRepo: userRepo,
	}
}

// Toggle removes the like if it exists and creates it otherwise. It reports
// whether the post is liked afterwards.
func (s *LikeService) Toggle(ctx context.Context, userID, postID uint) (bool, error) {
	if userID == 0 || postID == 0 {
		return false, models.NewValidationError("User ID and post ID are required")
	}
	if err := s.requireTargets(ctx, userID, postID); err != nil {
		return false, err
	}

	removed, err := s.likeRepo.Delete(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if removed {
		observability.LikeToggles.WithLabelValues("unlike").Inc()
		return false, nil
	}

	if err := s.likeRepo.Create(ctx, userID, postID); err != nil {
		var appErr *models.AppError
		if !errors.As(err, &appErr) || appErr.Code != models.CodeConflict {
			return false, err
		}
		// A concurrent request liked first; this one toggles it off.
		if _, err := s.likeRepo.Delete(ctx, userID, postID); err != nil {
			return false, err
		}
		observability.LikeToggles.WithLabelValues("unlike").Inc()
		return false, nil
	}

	observability.LikeToggles.WithLabelValues("like").Inc()
	return true, nil
}

// Status reports whether userID likes postID.
func (s *LikeService) Status(ctx context.Context, userID, postID uint) (bool, error) {
	return s.likeRepo.Exists(ctx, userID, postID)
}

func (s *LikeService) requireTargets(ctx context.Context, userID, postID uint) error {
	ok, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("Post")
	}
	ok, err = s.userRepo.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("User")
	}
	return nil
}
