package server

import (
	"github.com/babbageLabs/insta-lite/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/feed
// @Summary Home feed
// @Description Photos from the caller and followed users, newest first. Page with next_cursor.
// @Description next_cursor is an opaque base64url token of the last item's createdAt and id, so rows
// @Description sharing a timestamp are not skipped. A bare ISO-8601 createdAt is still accepted as cursor.
// @Tags feed
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (default 20, max 100)"
// @Param cursor query string false "next_cursor from the previous page"
// @Param page query int false "Accepted for compatibility, ignored"
// @Success 200 {object} models.FeedPage
// @Failure 400 {object} models.ErrorResponse
// @Router /feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	_, limit := pageQuery(c)
	feed, err := s.feed.GetFeed(c.UserContext(), currentUserID(c), service.FeedQuery{
		Limit:  limit,
		Cursor: c.Query("cursor"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(feed)
}
