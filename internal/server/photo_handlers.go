package server

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/babbageLabs/insta-lite/internal/middleware"
	"github.com/babbageLabs/insta-lite/internal/models"
	"github.com/babbageLabs/insta-lite/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadPhoto handles POST /api/photos/upload
// @Summary Upload a photo
// @Description Stores the image with a thumbnail and a webp preview, then fans it out to followers' feeds.
// @Tags photos
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param photo formData file true "JPEG or PNG image"
// @Param description formData string false "Caption, #hashtags are extracted"
// @Success 201 {object} models.Photo
// @Failure 400 {object} models.ErrorResponse
// @Router /photos/upload [post]
func (s *Server) UploadPhoto(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("photo file is required"))
	}

	maxBytes := s.photos.MaxUploadSizeBytes()
	if fileHeader.Size > maxBytes {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(fmt.Sprintf("photo exceeds %d MB limit", maxBytes/(1024*1024))))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "failed to read upload", slog.String("error", err.Error()))
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("could not read photo"))
	}

	photo, err := s.photos.Upload(c.UserContext(), service.UploadPhotoInput{
		UserID:      currentUserID(c),
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     content,
		Description: c.FormValue("description"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(photo)
}

// ListPhotos handles GET /api/photos
// @Summary Caller's photos
// @Tags photos
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Photo
// @Router /photos [get]
func (s *Server) ListPhotos(c *fiber.Ctx) error {
	photos, err := s.photos.List(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(photos)
}

// GetPhoto handles GET /api/photos/:id
// @Summary Photo by id
// @Tags photos
// @Produce json
// @Security BearerAuth
// @Param id path int true "Photo ID"
// @Success 200 {object} models.Photo
// @Failure 404 {object} models.ErrorResponse
// @Router /photos/{id} [get]
func (s *Server) GetPhoto(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	photo, err := s.photos.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(photo)
}

// DeletePhoto handles DELETE /api/photos/:id
// @Summary Delete own photo
// @Description Removes the stored objects, likes, comments and feed rows. Other users' photos read as not found.
// @Tags photos
// @Produce json
// @Security BearerAuth
// @Param id path int true "Photo ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /photos/{id} [delete]
func (s *Server) DeletePhoto(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.photos.Delete(c.UserContext(), id, currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Photo deleted"})
}

// SearchPhotos handles GET /api/photos/search
// @Summary Search photos
// @Description Case-insensitive match on description or file name; every listed hashtag must be present.
// @Tags photos
// @Produce json
// @Security BearerAuth
// @Param query query string false "Text to match"
// @Param hashtags query string false "Comma separated hashtags"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Success 200 {object} models.PhotoSearchPage
// @Router /photos/search [get]
func (s *Server) SearchPhotos(c *fiber.Ctx) error {
	page, limit := pageQuery(c)
	result, err := s.search.SearchPhotos(c.UserContext(), service.SearchPhotosInput{
		Query:    c.Query("query"),
		Hashtags: service.ParseHashtags(c.Query("hashtags")),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// PopularHashtags handles GET /api/photos/hashtags/popular
// @Summary Most used hashtags
// @Tags photos
// @Produce json
// @Security BearerAuth
// @Param limit query int false "How many (default 10)"
// @Success 200 {array} models.HashtagCount
// @Router /photos/hashtags/popular [get]
func (s *Server) PopularHashtags(c *fiber.Ctx) error {
	tags, err := s.search.PopularHashtags(c.UserContext(), c.QueryInt("limit", service.DefaultPopularHashtags))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tags)
}
