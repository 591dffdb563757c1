// Package server contains the HTTP and WebSocket handlers of the API.
package server

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/babbageLabs/insta-lite/internal/middleware"
	"github.com/babbageLabs/insta-lite/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// mapServiceError picks the HTTP status for an error coming out of a service.
func mapServiceError(err error) int {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeConflict:
		return fiber.StatusConflict
	case models.CodeInvalidOperation, models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Unclassified errors are
// logged and replaced by a generic internal error.
func respondError(c *fiber.Ctx, err error) error {
	status := mapServiceError(err)
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		middleware.Logger.ErrorContext(c.UserContext(), "unhandled service error",
			slog.String("path", c.Path()), slog.String("error", err.Error()))
		err = models.NewInternalError(err)
	}
	return models.RespondWithError(c, status, err)
}

// respondNotFound is used where a service returns a nil row instead of an error.
func respondNotFound(c *fiber.Ctx, resource string, id uint) error {
	return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError(resource, id))
}

// currentUserID returns the id AuthRequired stored in locals.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "userId" -> "Invalid user ID").
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseOptionalUintQuery reads a positive integer query parameter. Absent
// yields (0, false, nil).
func parseOptionalUintQuery(c *fiber.Ctx, key string) (uint, bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || v == 0 {
		return 0, false, models.NewValidationError("Invalid " + humanizeParam(key))
	}
	return uint(v), true, nil
}

// pageQuery reads page and limit; the service layer applies defaults and caps.
func pageQuery(c *fiber.Ctx) (page, limit int) {
	return c.QueryInt("page", 1), c.QueryInt("limit", 0)
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "photoId" -> "photo ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		prefix := param[:len(param)-2]
		words := splitCamel(prefix)
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}
