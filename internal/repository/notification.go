package repository

import (
	"context"
	"errors"
	"time"

	"github.com/babbageLabs/insta-lite/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository persists notifications. Lookups of a missing row
// return (nil, nil) rather than a NOT_FOUND error.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	FindAll(ctx context.Context) ([]models.Notification, error)
	FindByID(ctx context.Context, id uint) (*models.Notification, error)
	FindUnreadByUser(ctx context.Context, userID uint) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id uint) (*models.Notification, error)
	MarkAllAsRead(ctx context.Context) ([]models.Notification, error)
	// Update applies the non-empty fields of patch to the row.
	Update(ctx context.Context, id uint, patch map[string]any) (*models.Notification, error)
	Delete(ctx context.Context, id uint) (*models.Notification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository returns a new NotificationRepository implementation.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *notificationRepository) newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

func (r *notificationRepository) FindAll(ctx context.Context) ([]models.Notification, error) {
	rows := []models.Notification{}
	if err := r.newestFirst(r.db.WithContext(ctx)).Find(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

func (r *notificationRepository) FindByID(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &n, nil
}

func (r *notificationRepository) FindUnreadByUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	rows := []models.Notification{}
	if err := r.newestFirst(r.db.WithContext(ctx)).
		Where("user_id = ? AND read = ?", userID, false).
		Find(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id uint) (*models.Notification, error) {
	return r.Update(ctx, id, map[string]any{"read": true})
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context) ([]models.Notification, error) {
	if err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("read = ?", false).
		Updates(map[string]any{"read": true, "updated_at": time.Now().UTC()}).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return r.FindAll(ctx)
}

func (r *notificationRepository) Update(ctx context.Context, id uint, patch map[string]any) (*models.Notification, error) {
	if len(patch) > 0 {
		patch["updated_at"] = time.Now().UTC()
		res := r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Updates(patch)
		if res.Error != nil {
			return nil, models.NewInternalError(res.Error)
		}
	}
	return r.FindByID(ctx, id)
}

func (r *notificationRepository) Delete(ctx context.Context, id uint) (*models.Notification, error) {
	n, err := r.FindByID(ctx, id)
	if err != nil || n == nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Delete(&models.Notification{}, id).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return n, nil
}
