package server

import (
	"github.com/gofiber/fiber/v2"
)

type followRequest struct {
	FollowerID  bodyID `json:"followerId"`
	FollowingID bodyID `json:"followingId"`
}

// Follow handles POST /api/follow
func (s *Server) Follow(c *fiber.Ctx) error {
	var req followRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.followService.Follow(c.UserContext(), uint(req.FollowerID), uint(req.FollowingID)); err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Followed successfully"})
}

// Unfollow handles DELETE /api/follow
func (s *Server) Unfollow(c *fiber.Ctx) error {
	var req followRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.followService.Unfollow(c.UserContext(), uint(req.FollowerID), uint(req.FollowingID)); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Unfollowed successfully"})
}

// GetFollowStatus handles GET /api/follow/status/:followerId/:followingId
func (s *Server) GetFollowStatus(c *fiber.Ctx) error {
	followerID, err := s.parseID(c, "followerId")
	if err != nil {
		return nil
	}
	followingID, err := s.parseID(c, "followingId")
	if err != nil {
		return nil
	}

	following, err := s.followService.IsFollowing(c.UserContext(), followerID, followingID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"isFollowing": following})
}
