package server

import (
	"github.com/babbageLabs/insta-lite/internal/models"
	"github.com/babbageLabs/insta-lite/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateProfile handles POST /api/profile
// @Summary Create profile
// @Description Create the caller's profile when signup did not
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateProfileInput true "Profile"
// @Success 201 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /profile [post]
func (s *Server) CreateProfile(c *fiber.Ctx) error {
	var req service.CreateProfileInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	profile, err := s.profiles.Create(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}

// GetMyProfile handles GET /api/profile/me
// @Summary Current profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.profiles.GetMe(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile handles PUT /api/profile/me
// @Summary Update current profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UpdateProfileInput true "Fields to change"
// @Success 200 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /profile/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	profile, err := s.profiles.Update(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetProfile handles GET /api/profile/:userId
// @Summary Profile by user id
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{userId} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}

	profile, err := s.profiles.Get(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}
