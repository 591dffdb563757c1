package server

import (
	"github.com/babbageLabs/insta-lite/internal/featureflags"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags returns the configured flags, their evaluation for the
// caller and the catalogue of flags the server reads.
// @Summary Feature flags
// @Tags flags
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{raw=map[string]string,evaluated=map[string]bool,known=[]featureflags.Definition}
// @Router /feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(currentUserID(c)),
		"known":     featureflags.Known,
	})
}
