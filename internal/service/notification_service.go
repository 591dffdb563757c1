package service

import (
	"context"
	"strings"

	"github.com/babbageLabs/insta-lite/internal/models"
	"github.com/babbageLabs/insta-lite/internal/notifications"
	"github.com/babbageLabs/insta-lite/internal/repository"
	"github.com/babbageLabs/insta-lite/internal/validation"
)

// CreateNotificationInput is the body of POST /api/notifications.
// A nil UserID addresses everyone.
type CreateNotificationInput struct {
	Title   string                  `json:"title" validate:"required,max=255"`
	Message string                  `json:"message" validate:"required,max=5000"`
	Type    models.NotificationType `json:"type" validate:"omitempty,oneof=info success warning error"`
	UserID  *uint                   `json:"user_id"`
}

// UpdateNotificationInput is a partial patch.
type UpdateNotificationInput struct {
	Title   *string                  `json:"title" validate:"omitempty,max=255"`
	Message *string                  `json:"message" validate:"omitempty,max=5000"`
	Type    *models.NotificationType `json:"type" validate:"omitempty,oneof=info success warning error"`
	Read    *bool                    `json:"read"`
}

// NotificationService stores notifications and pushes them to connected users.
//
// Lookups by id follow a nil-result contract: a missing row yields (nil, nil)
// rather than an error, and callers translate nil into 404.
type NotificationService struct {
	repo      repository.NotificationRepository
	publisher notifications.Publisher
}

// NewNotificationService returns a NotificationService. publisher may be nil.
func NewNotificationService(repo repository.NotificationRepository, publisher notifications.Publisher) *NotificationService {
	if publisher == nil {
		publisher = notifications.NopPublisher{}
	}
	return &NotificationService{repo: repo, publisher: publisher}
}

// Create stores an unread notification and pushes it.
func (s *NotificationService) Create(ctx context.Context, in CreateNotificationInput) (*models.Notification, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.Type == "" {
		in.Type = models.NotificationInfo
	}

	n := &models.Notification{
		Title:   in.Title,
		Message: in.Message,
		Type:    in.Type,
		UserID:  in.UserID,
		Read:    false,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	if n.UserID != nil {
		s.publisher.PublishUser(ctx, *n.UserID, notifications.EventNotification, n)
	} else {
		s.publisher.PublishAll(ctx, notifications.EventNotification, n)
	}
	return n, nil
}

// FindAll returns every notification, newest first.
func (s *NotificationService) FindAll(ctx context.Context) ([]models.Notification, error) {
	return s.repo.FindAll(ctx)
}

// FindOne returns nil when the notification does not exist.
func (s *NotificationService) FindOne(ctx context.Context, id uint) (*models.Notification, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *NotificationService) FindUnreadByUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	return s.repo.FindUnreadByUser(ctx, userID)
}

// MarkAsRead returns nil when the notification does not exist.
func (s *NotificationService) MarkAsRead(ctx context.Context, id uint) (*models.Notification, error) {
	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks every notification read and returns the full list.
func (s *NotificationService) MarkAllAsRead(ctx context.Context) ([]models.Notification, error) {
	return s.repo.MarkAllAsRead(ctx)
}

// Update patches a notification. Read only moves from false to true; a
// read:false patch on a read row is ignored. Returns nil when missing.
func (s *NotificationService) Update(ctx context.Context, id uint, in UpdateNotificationInput) (*models.Notification, error) {
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}

	patch := map[string]any{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, models.NewValidationError("title cannot be empty")
		}
		patch["title"] = title
	}
	if in.Message != nil {
		message := strings.TrimSpace(*in.Message)
		if message == "" {
			return nil, models.NewValidationError("message cannot be empty")
		}
		patch["message"] = message
	}
	if in.Type != nil {
		patch["type"] = *in.Type
	}
	if in.Read != nil && *in.Read && !current.Read {
		patch["read"] = true
	}

	if len(patch) == 0 {
		return current, nil
	}
	return s.repo.Update(ctx, id, patch)
}

// Remove deletes a notification and returns it, or nil when missing.
func (s *NotificationService) Remove(ctx context.Context, id uint) (*models.Notification, error) {
	return s.repo.Delete(ctx, id)
}
