package server

import (
	"github.com/babbageLabs/insta-lite/internal/models"

	"github.com/gofiber/fiber/v2"
)

// LikePhoto handles POST /api/photos/:id/like
// @Summary Like a photo
// @Description Idempotent.
// @Tags interactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Photo ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /photos/{id}/like [post]
func (s *Server) LikePhoto(c *fiber.Ctx) error {
	photoID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.interactions.LikePhoto(c.UserContext(), photoID, currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Photo liked"})
}

// UnlikePhoto handles DELETE /api/photos/:id/like
// @Summary Remove a like
// @Tags interactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Photo ID"
// @Success 200 {object} object{message=string}
// @Router /photos/{id}/like [delete]
func (s *Server) UnlikePhoto(c *fiber.Ctx) error {
	photoID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.interactions.UnlikePhoto(c.UserContext(), photoID, currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Photo unliked"})
}

// AddComment handles POST /api/photos/:id/comments
// @Summary Comment on a photo
// @Tags interactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Photo ID"
// @Param request body object{content=string} true "Comment"
// @Success 201 {object} models.PhotoComment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /photos/{id}/comments [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	photoID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.interactions.AddComment(c.UserContext(), photoID, currentUserID(c), req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetPhotoInteractions handles GET /api/photos/:id/interactions
// @Summary Likes and comments of a photo
// @Tags interactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Photo ID"
// @Success 200 {object} models.PhotoInteractions
// @Failure 404 {object} models.ErrorResponse
// @Router /photos/{id}/interactions [get]
func (s *Server) GetPhotoInteractions(c *fiber.Ctx) error {
	photoID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	caller := currentUserID(c)
	result, err := s.interactions.GetPhotoInteractions(c.UserContext(), photoID, &caller)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetInteractionsForPhotos handles POST /api/photos/interactions
// @Summary Interaction counts for many photos
// @Description Unknown ids map to zero counts. At most 100 ids.
// @Tags interactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{photo_ids=[]int} true "Photo ids"
// @Success 200 {object} map[string]models.InteractionSummary
// @Failure 400 {object} models.ErrorResponse
// @Router /photos/interactions [post]
func (s *Server) GetInteractionsForPhotos(c *fiber.Ctx) error {
	var req struct {
		PhotoIDs []uint `json:"photo_ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	caller := currentUserID(c)
	result, err := s.interactions.GetInteractionsForPhotos(c.UserContext(), req.PhotoIDs, &caller)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
