package service

import (
	"context"
	"errors"
	"strings"

	"pulse/internal/media"
	"pulse/internal/middleware"
	"pulse/internal/models"
	"pulse/internal/observability"
	"pulse/internal/repository"
	"pulse/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

type PostService struct {
	postRepo      repository.PostRepository
	userRepo      repository.UserRepository
	followRepo    repository.FollowRepository
	uploader      media.Uploader
	maxImageBytes int64
}

type CreatePostInput struct {
	UserID  uint
	Content string
	Type    string
	Image   *media.File
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	uploader media.Uploader,
	maxImageBytes int64,
) *PostService {
	return &PostService{
		postRepo:      postRepo,
		userRepo:      userRepo,
		followRepo:    followRepo,
		uploader:      uploader,
		maxImageBytes: maxImageBytes,
	}
}

// normalizeType resolves the stored post type. An attached image always
// makes an image post and a missing one a text post.
func normalizeType(requested string, hasImage bool) (models.PostType, error) {
	t := models.PostType(strings.ToLower(strings.TrimSpace(requested)))
	if t == "" {
		t = models.PostTypeText
	}
	if !t.Valid() {
		return "", models.NewValidationError("Post type must be text or image")
	}
	if hasImage {
		return models.PostTypeImage, nil
	}
	return models.PostTypeText, nil
}

// CreatePost validates the input, uploads the image if any, then writes the
// post. When the write fails the uploaded asset is deleted again.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.UserID == 0 || validation.Blank(in.Content) {
		return nil, models.NewValidationError("User ID and content are required")
	}
	if err := validation.ValidateContent("content", in.Content, validation.MaxPostLength); err != nil {
		return nil, invalid(err)
	}

	postType, err := normalizeType(in.Type, in.Image != nil)
	if err != nil {
		return nil, err
	}
	if in.Image != nil {
		if err := media.ValidateImage(*in.Image, s.maxImageBytes); err != nil {
			return nil, err
		}
	}

	exists, err := s.userRepo.Exists(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError("User")
	}

	post := &models.Post{
		UserID:  in.UserID,
		Content: in.Content,
		Type:    postType,
	}

	var upload *media.Upload
	if in.Image != nil {
		upload, err = s.uploadImage(ctx, *in.Image)
		if err != nil {
			return nil, err
		}
		post.Image = &upload.URL
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		if upload != nil {
			s.discardUpload(ctx, upload)
		}
		return nil, err
	}

	observability.PostsCreated.WithLabelValues(string(postType)).Inc()

	created, err := s.postRepo.GetByID(ctx, post.ID, in.UserID)
	if err != nil {
		// The post is stored; answer with what was written.
		middleware.Logger.WarnContext(ctx, "reload of created post failed", "post_id", post.ID, "error", err)
		if author, uerr := s.userRepo.GetByID(ctx, in.UserID); uerr == nil && author != nil {
			post.User = &models.Author{ID: author.ID, Username: author.Username, Avatar: author.Avatar}
		}
		return post, nil
	}
	return created, nil
}

func (s *PostService) uploadImage(ctx context.Context, f media.File) (*media.Upload, error) {
	ctx, span := observability.StartSpan(ctx, "PostService.uploadImage",
		attribute.String("image.filename", f.Filename),
		attribute.Int("image.bytes", len(f.Content)),
	)
	defer span.End()

	if s.uploader == nil {
		err := errors.New("no image store configured")
		span.SetError(err)
		observability.ImageUploads.WithLabelValues("failure").Inc()
		return nil, models.NewUpstreamError("Image upload failed", err)
	}

	upload, err := s.uploader.Upload(ctx, f)
	if err != nil {
		span.SetError(err)
		observability.ImageUploads.WithLabelValues("failure").Inc()
		middleware.Logger.ErrorContext(ctx, "image upload failed", "error", err)
		return nil, models.NewUpstreamError("Image upload failed", err)
	}

	span.AddAttributes(attribute.String("image.public_id", upload.PublicID))
	observability.ImageUploads.WithLabelValues("success").Inc()
	return upload, nil
}

// discardUpload is best effort. It runs on a context detached from the
// request so a cancelled request still cleans up.
func (s *PostService) discardUpload(ctx context.Context, upload *media.Upload) {
	observability.ImageUploads.WithLabelValues("rollback").Inc()
	if err := s.uploader.Delete(context.WithoutCancel(ctx), upload.PublicID); err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to delete orphaned upload",
			"public_id", upload.PublicID, "error", err)
	}
}

// Feed returns posts by userID and everyone userID follows, newest first.
func (s *PostService) Feed(ctx context.Context, userID uint) ([]*models.Post, error) {
	ctx, span := observability.StartSpan(ctx, "PostService.Feed",
		attribute.Int64("user.id", int64(userID)),
	)
	defer span.End()

	authors, err := s.followRepo.FollowingIDs(ctx, userID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	authors = append(authors, userID)

	posts, err := s.postRepo.ListByAuthors(ctx, authors, userID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	span.AddAttributes(
		attribute.Int("feed.authors", len(authors)),
		attribute.Int("feed.posts", len(posts)),
	)
	return posts, nil
}
