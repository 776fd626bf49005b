package server

import (
	"pulse/internal/media"
	"pulse/internal/models"
	"pulse/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts. The body is either a multipart form
// (userId, content, type, image) or JSON without an image.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		UserID  bodyID `json:"userId"`
		Content string `json:"content"`
		Type    string `json:"type"`
	}

	if isMultipart(c) {
		userID, err := parseFormID(c.FormValue("userId"))
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid user ID format"))
		}
		req.UserID = bodyID(userID)
		req.Content = c.FormValue("content")
		req.Type = c.FormValue("type")
	} else if err := parseBody(c, &req); err != nil {
		return nil
	}

	image, _ := c.Locals(imageLocalsKey).(*media.File)

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:  uint(req.UserID),
		Content: req.Content,
		Type:    req.Type,
		Image:   image,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetFeed handles GET /api/posts/feed/:userId
func (s *Server) GetFeed(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	posts, err := s.postService.Feed(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}

	return c.JSON(posts)
}
