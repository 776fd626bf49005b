package service

import (
	"context"
	"strings"
	"testing"

	"pulse/internal/models"
	"pulse/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Register(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	user, err := s.users.Register(ctx, RegisterInput{Username: " ada ", Email: "Ada@Example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "ada", user.Username)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEqual(t, "pw", user.Password)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := s.users.Register(ctx, RegisterInput{Username: "other", Email: "ADA@example.com", Password: "pw"})
		assertCode(t, err, models.CodeConflict)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := s.users.Register(ctx, RegisterInput{Username: "ada", Email: "new@example.com", Password: "pw"})
		assertCode(t, err, models.CodeConflict)
	})

	t.Run("validation", func(t *testing.T) {
		cases := []RegisterInput{
			{Username: "", Email: "a@b.co", Password: "pw"},
			{Username: "bob", Email: "   ", Password: "pw"},
			{Username: "bob", Email: "b@b.co", Password: ""},
			{Username: "b!", Email: "b@b.co", Password: "pw"},
			{Username: "bob", Email: "not-an-email", Password: "pw"},
			{Username: "bob", Email: "b@b.co", Password: strings.Repeat("x", 73)},
		}
		for _, in := range cases {
			_, err := s.users.Register(ctx, in)
			assertCode(t, err, models.CodeValidation)
		}
	})

	t.Run("missing fields message", func(t *testing.T) {
		_, err := s.users.Register(ctx, RegisterInput{})
		require.Error(t, err)
		assert.Equal(t, "All fields are required", err.Error())
	})
}

func TestUserService_Login(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	_, err := s.users.Register(ctx, RegisterInput{Username: "grace", Email: "grace@example.com", Password: "Secret pw"})
	require.NoError(t, err)

	user, err := s.users.Login(ctx, LoginInput{Email: "grace@example.com", Password: "Secret pw"})
	require.NoError(t, err)
	assert.Equal(t, "grace", user.Username)

	for _, pw := range []string{"secret pw", "Secret pw ", "Secret"} {
		_, err := s.users.Login(ctx, LoginInput{Email: "grace@example.com", Password: pw})
		assertCode(t, err, models.CodeUnauthorized)
	}

	_, err = s.users.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "Secret pw"})
	assertCode(t, err, models.CodeUnauthorized)
	assert.Equal(t, "Invalid credentials", err.Error())

	_, err = s.users.Login(ctx, LoginInput{Email: "grace@example.com"})
	assertCode(t, err, models.CodeValidation)
}

func TestUserService_LoginRejectsBytesPastBcryptLimit(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	pw := strings.Repeat("a", validation.MaxPasswordBytes)
	_, err := s.users.Register(ctx, RegisterInput{Username: "long", Email: "long@example.com", Password: pw})
	require.NoError(t, err)

	_, err = s.users.Login(ctx, LoginInput{Email: "long@example.com", Password: pw})
	require.NoError(t, err)

	_, err = s.users.Login(ctx, LoginInput{Email: "long@example.com", Password: pw + "EXTRA"})
	assertCode(t, err, models.CodeUnauthorized)
}

func TestUserService_SearchAndProfile(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	ada, err := s.users.Register(ctx, RegisterInput{Username: "ada", Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	bob, err := s.users.Register(ctx, RegisterInput{Username: "bob", Email: "bob@example.com", Password: "pw"})
	require.NoError(t, err)

	found, err := s.users.Search(ctx, "AD")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, ada.ID, found[0].ID)

	empty, err := s.users.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, s.follows.Follow(ctx, bob.ID, ada.ID))
	post, err := s.posts.CreatePost(ctx, CreatePostInput{UserID: ada.ID, Content: "hello"})
	require.NoError(t, err)
	_, err = s.likes.Toggle(ctx, bob.ID, post.ID)
	require.NoError(t, err)

	profile, err := s.users.Profile(ctx, ada.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", profile.Username)
	assert.Equal(t, int64(1), profile.PostsCount)
	assert.Equal(t, int64(1), profile.FollowersCount)
	assert.Equal(t, int64(0), profile.FollowingCount)
	require.Len(t, profile.Posts, 1)
	assert.True(t, profile.Posts[0].IsLiked)
	assert.Equal(t, int64(1), profile.Posts[0].Likes)

	anon, err := s.users.Profile(ctx, ada.ID, 0)
	require.NoError(t, err)
	assert.False(t, anon.Posts[0].IsLiked)

	_, err = s.users.Profile(ctx, 9999, 0)
	assertCode(t, err, models.CodeNotFound)
}
