package server

import (
	"github.com/gofiber/fiber/v2"
)

// ToggleLike handles POST /api/likes
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	var req struct {
		UserID bodyID `json:"userId"`
		PostID bodyID `json:"postId"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	liked, err := s.likeService.Toggle(c.UserContext(), uint(req.UserID), uint(req.PostID))
	if err != nil {
		return respondServiceError(c, err)
	}

	if liked {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Post liked",
			"liked":   true,
		})
	}
	return c.JSON(fiber.Map{
		"message": "Post unliked",
		"liked":   false,
	})
}

// GetLikeStatus handles GET /api/likes/status/:userId/:postId
func (s *Server) GetLikeStatus(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	liked, err := s.likeService.Status(c.UserContext(), userID, postID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"isLiked": liked})
}
