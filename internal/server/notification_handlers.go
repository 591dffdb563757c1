package server

import (
	"github.com/babbageLabs/insta-lite/internal/models"
	"github.com/babbageLabs/insta-lite/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateNotification handles POST /api/notifications
// @Summary Create a notification
// @Description A missing user_id addresses every connected user.
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateNotificationInput true "Notification"
// @Success 201 {object} models.Notification
// @Failure 400 {object} models.ErrorResponse
// @Router /notifications [post]
func (s *Server) CreateNotification(c *fiber.Ctx) error {
	var req service.CreateNotificationInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	n, err := s.notifications.Create(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}

// ListNotifications handles GET /api/notifications
// @Summary All notifications, newest first
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Notification
// @Router /notifications [get]
func (s *Server) ListNotifications(c *fiber.Ctx) error {
	list, err := s.notifications.FindAll(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// ListUnreadNotifications handles GET /api/notifications/unread
// @Summary Unread notifications of a user
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param userId query int false "Defaults to the caller"
// @Success 200 {array} models.Notification
// @Failure 400 {object} models.ErrorResponse
// @Router /notifications/unread [get]
func (s *Server) ListUnreadNotifications(c *fiber.Ctx) error {
	userID, ok, err := parseOptionalUintQuery(c, "userId")
	if err != nil {
		return respondError(c, err)
	}
	if !ok {
		userID = currentUserID(c)
	}

	list, err := s.notifications.FindUnreadByUser(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// GetNotification handles GET /api/notifications/:id
// @Summary Notification by id
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} models.Notification
// @Failure 404 {object} models.ErrorResponse
// @Router /notifications/{id} [get]
func (s *Server) GetNotification(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	n, err := s.notifications.FindOne(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	if n == nil {
		return respondNotFound(c, "Notification", id)
	}
	return c.JSON(n)
}

// MarkNotificationRead handles PATCH /api/notifications/:id/read
// @Summary Mark one notification read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} models.Notification
// @Failure 404 {object} models.ErrorResponse
// @Router /notifications/{id}/read [patch]
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	n, err := s.notifications.MarkAsRead(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	if n == nil {
		return respondNotFound(c, "Notification", id)
	}
	return c.JSON(n)
}

// MarkAllNotificationsRead handles PATCH /api/notifications/mark-all-read
// @Summary Mark every notification read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Notification
// @Router /notifications/mark-all-read [patch]
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	list, err := s.notifications.MarkAllAsRead(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// UpdateNotification handles PATCH /api/notifications/:id
// @Summary Patch a notification
// @Description read only moves from false to true.
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Param request body service.UpdateNotificationInput true "Fields to change"
// @Success 200 {object} models.Notification
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /notifications/{id} [patch]
func (s *Server) UpdateNotification(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var req service.UpdateNotificationInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	n, err := s.notifications.Update(c.UserContext(), id, req)
	if err != nil {
		return respondError(c, err)
	}
	if n == nil {
		return respondNotFound(c, "Notification", id)
	}
	return c.JSON(n)
}

// DeleteNotification handles DELETE /api/notifications/:id
// @Summary Delete a notification
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} models.Notification
// @Failure 404 {object} models.ErrorResponse
// @Router /notifications/{id} [delete]
func (s *Server) DeleteNotification(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	n, err := s.notifications.Remove(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	if n == nil {
		return respondNotFound(c, "Notification", id)
	}
	return c.JSON(n)
}
