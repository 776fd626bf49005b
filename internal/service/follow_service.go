package service

import (
	"context"

	"pulse/internal/models"
	"pulse/internal/observability"
	"pulse/internal/repository"
)

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

func requireEdge(followerID, followingID uint) error {
	if followerID == 0 || followingID == 0 {
		return models.NewValidationError("Follower ID and following ID are required")
	}
	return nil
}

// Follow creates the edge. Self-follows and duplicates are rejected.
func (s *FollowService) Follow(ctx context.Context, followerID, followingID uint) error {
	if err := requireEdge(followerID, followingID); err != nil {
		return err
	}
	if followerID == followingID {
		return models.NewValidationError("Cannot follow yourself")
	}

	for _, id := range []uint{followerID, followingID} {
		ok, err := s.userRepo.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewNotFoundError("User")
		}
	}

	if err := s.followRepo.Create(ctx, followerID, followingID); err != nil {
		return err
	}
	observability.Follows.WithLabelValues("follow").Inc()
	return nil
}

// Unfollow removes the edge. Removing a missing edge is not an error.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followingID uint) error {
	if err := requireEdge(followerID, followingID); err != nil {
		return err
	}
	removed, err := s.followRepo.Delete(ctx, followerID, followingID)
	if err != nil {
		return err
	}
	if removed {
		observability.Follows.WithLabelValues("unfollow").Inc()
	}
	return nil
}

// IsFollowing reports whether followerID follows followingID.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.followRepo.Exists(ctx, followerID, followingID)
}
