package service

import (
	"context"
	"errors"
	"testing"

	"pulse/internal/models"
	"pulse/internal/repository"
	"pulse/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type services struct {
	db       *gorm.DB
	users    *UserService
	posts    *PostService
	likes    *LikeService
	follows  *FollowService
	comments *CommentService
	uploader *testutil.UploaderStub
}

const testMaxImageBytes = 5 * 1024 * 1024

func newServices(t *testing.T) *services {
	t.Helper()
	db := testutil.NewTestDB(t)
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	followRepo := repository.NewFollowRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	uploader := &testutil.UploaderStub{}

	users := NewUserService(userRepo, postRepo, followRepo)
	users.hashCost = bcrypt.MinCost

	return &services{
		db:       db,
		users:    users,
		posts:    NewPostService(postRepo, userRepo, followRepo, uploader, testMaxImageBytes),
		likes:    NewLikeService(likeRepo, postRepo, userRepo),
		follows:  NewFollowService(followRepo, userRepo),
		comments: NewCommentService(commentRepo, postRepo, userRepo),
		uploader: uploader,
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

// postRepoStub overrides Create and GetByID on top of a real repository.
type postRepoStub struct {
	repository.PostRepository
	createFn  func(ctx context.Context, post *models.Post) error
	getByIDFn func(ctx context.Context, id, viewerID uint) (*models.Post, error)
}

func (s *postRepoStub) GetByID(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id, viewerID)
	}
	return s.PostRepository.GetByID(ctx, id, viewerID)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	if s.createFn != nil {
		return s.createFn(ctx, post)
	}
	return s.PostRepository.Create(ctx, post)
}

var errStore = errors.New("store unavailable")
