package service

import (
	"context"
	"strings"

	"pulse/internal/models"
	"pulse/internal/observability"
	"pulse/internal/repository"
	"pulse/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo   repository.UserRepository
	postRepo   repository.PostRepository
	followRepo repository.FollowRepository
	hashCost   int
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

func NewUserService(
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	followRepo repository.FollowRepository,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		postRepo:   postRepo,
		followRepo: followRepo,
		hashCost:   bcrypt.DefaultCost,
	}
}

// Register creates an account. Email is stored lower-cased so that lookups
// and the unique index agree.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if validation.AnyBlank(in.Username, in.Email, in.Password) {
		return nil, models.NewValidationError("All fields are required")
	}

	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if err := validation.ValidateUsername(username); err != nil {
		return nil, invalid(err)
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, invalid(err)
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, invalid(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	observability.Registrations.Inc()
	return user, nil
}

// Login verifies the password against the stored bcrypt hash. Unknown email
// and wrong password produce the same error.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	if validation.AnyBlank(in.Email, in.Password) {
		return nil, models.NewValidationError("Email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, err
	}
	// bcrypt only keys on the first 72 bytes, so a longer password could
	// match a stored one it merely starts with.
	if user == nil || len(in.Password) > validation.MaxPasswordBytes ||
		bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		observability.Logins.WithLabelValues("failure").Inc()
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	observability.Logins.WithLabelValues("success").Inc()
	return user, nil
}

// Search returns users whose username contains query, ignoring case.
func (s *UserService) Search(ctx context.Context, query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.User{}, nil
	}
	return s.userRepo.Search(ctx, query)
}

// Profile assembles a user's public page. viewerID (0 for anonymous)
// decides the isLiked flag on each post.
func (s *UserService) Profile(ctx context.Context, userID, viewerID uint) (*models.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.ListByUser(ctx, userID, viewerID)
	if err != nil {
		return nil, err
	}
	followers, err := s.followRepo.CountFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.followRepo.CountFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.Profile{
		User:           *user,
		PostsCount:     int64(len(posts)),
		FollowersCount: followers,
		FollowingCount: following,
		Posts:          posts,
	}, nil
}
