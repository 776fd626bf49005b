package service

import (
	"context"
	"strings"
	"testing"

	"pulse/internal/models"
	"pulse/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, s.db, "talker")
	p := &models.Post{UserID: u.ID, Content: "x", Type: models.PostTypeText}
	require.NoError(t, s.db.Create(p).Error)

	c, err := s.comments.CreateComment(ctx, CreateCommentInput{UserID: u.ID, PostID: p.ID, Content: "first!"})
	require.NoError(t, err)
	require.NotNil(t, c.User)
	assert.Equal(t, "talker", c.User.Username)

	_, err = s.comments.CreateComment(ctx, CreateCommentInput{UserID: u.ID, PostID: p.ID, Content: "second"})
	require.NoError(t, err)

	list, err := s.comments.ListComments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first!", list[0].Content)

	post, err := s.posts.postRepo.GetByID(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), post.Comments)

	t.Run("validation", func(t *testing.T) {
		_, err := s.comments.CreateComment(ctx, CreateCommentInput{UserID: u.ID, PostID: p.ID, Content: " "})
		assertCode(t, err, models.CodeValidation)

		_, err = s.comments.CreateComment(ctx, CreateCommentInput{UserID: u.ID, PostID: p.ID, Content: strings.Repeat("c", 2001)})
		assertCode(t, err, models.CodeValidation)

		_, err = s.comments.CreateComment(ctx, CreateCommentInput{UserID: u.ID, PostID: 999, Content: "hi"})
		assertCode(t, err, models.CodeNotFound)
	})
}
