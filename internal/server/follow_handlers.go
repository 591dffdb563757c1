package server

import (
	"github.com/gofiber/fiber/v2"
)

// FollowUser handles POST /api/follow/:userId
// @Summary Follow a user
// @Tags follow
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User to follow"
// @Success 201 {object} models.Follow
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /follow/{userId} [post]
func (s *Server) FollowUser(c *fiber.Ctx) error {
	targetID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}

	follow, err := s.follows.FollowUser(c.UserContext(), currentUserID(c), targetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(follow)
}

// UnfollowUser handles DELETE /api/follow/:userId
// @Summary Unfollow a user
// @Tags follow
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User to unfollow"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /follow/{userId} [delete]
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	targetID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.follows.UnfollowUser(c.UserContext(), currentUserID(c), targetID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Unfollowed"})
}

// GetFollowers handles GET /api/follow/followers/:userId
// @Summary List followers
// @Tags follow
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} models.FollowPage
// @Router /follow/followers/{userId} [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}

	page, limit := pageQuery(c)
	result, err := s.follows.GetFollowers(c.UserContext(), userID, page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetFollowing handles GET /api/follow/following/:userId
// @Summary List followed users
// @Tags follow
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} models.FollowPage
// @Router /follow/following/{userId} [get]
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}

	page, limit := pageQuery(c)
	result, err := s.follows.GetFollowing(c.UserContext(), userID, page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetFollowStats handles GET /api/follow/stats/:userId
// @Summary Follower and following counts
// @Tags follow
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {object} models.FollowStats
// @Router /follow/stats/{userId} [get]
func (s *Server) GetFollowStats(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}

	caller := currentUserID(c)
	stats, err := s.follows.GetFollowStats(c.UserContext(), userID, &caller)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
