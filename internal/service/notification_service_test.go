package service

import (
	"context"
	"testing"

	"github.com/babbageLabs/insta-lite/internal/models"
	"github.com/babbageLabs/insta-lite/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationServiceCreateDefaultsAndPushes(t *testing.T) {
	repo := noopNotificationRepo()
	var stored *models.Notification
	repo.createFn = func(_ context.Context, n *models.Notification) error {
		n.ID = 3
		stored = n
		return nil
	}
	pub := &publisherStub{}
	uid := uint(5)

	n, err := NewNotificationService(repo, pub).Create(context.Background(), CreateNotificationInput{
		Title: " Hello ", Message: "World", UserID: &uid,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", stored.Title)
	assert.Equal(t, models.NotificationInfo, n.Type)
	assert.False(t, n.Read)

	require.Len(t, pub.events, 1)
	assert.Equal(t, uint(5), pub.events[0].UserID)
	assert.Equal(t, notifications.EventNotification, pub.events[0].Type)
}

func TestNotificationServiceCreateBroadcast(t *testing.T) {
	pub := &publisherStub{}
	_, err := NewNotificationService(noopNotificationRepo(), pub).Create(context.Background(), CreateNotificationInput{
		Title: "Maintenance", Message: "Tonight", Type: models.NotificationWarning,
	})
	require.NoError(t, err)
	require.Len(t, pub.events, 1)
	assert.True(t, pub.events[0].All)
}

func TestNotificationServiceCreateValidation(t *testing.T) {
	svc := NewNotificationService(noopNotificationRepo(), nil)

	cases := []CreateNotificationInput{
		{Title: "", Message: "m"},
		{Title: "t", Message: "   "},
		{Title: "t", Message: "m", Type: "urgent"},
	}
	for _, in := range cases {
		_, err := svc.Create(context.Background(), in)
		assert.True(t, models.HasCode(err, models.CodeValidation), "input %+v", in)
	}
}

func TestNotificationServiceNilContract(t *testing.T) {
	svc := NewNotificationService(noopNotificationRepo(), nil)
	ctx := context.Background()

	n, err := svc.FindOne(ctx, 404)
	assert.NoError(t, err)
	assert.Nil(t, n)

	n, err = svc.MarkAsRead(ctx, 404)
	assert.NoError(t, err)
	assert.Nil(t, n)

	n, err = svc.Remove(ctx, 404)
	assert.NoError(t, err)
	assert.Nil(t, n)

	read := true
	n, err = svc.Update(ctx, 404, UpdateNotificationInput{Read: &read})
	assert.NoError(t, err)
	assert.Nil(t, n)
}

func TestNotificationServiceUpdateReadIsMonotonic(t *testing.T) {
	repo := noopNotificationRepo()
	repo.findByIDFn = func(_ context.Context, id uint) (*models.Notification, error) {
		return &models.Notification{ID: id, Title: "t", Message: "m", Read: true}, nil
	}
	updated := false
	repo.updateFn = func(context.Context, uint, map[string]any) (*models.Notification, error) {
		updated = true
		return nil, nil
	}

	unread := false
	n, err := NewNotificationService(repo, nil).Update(context.Background(), 1, UpdateNotificationInput{Read: &unread})
	require.NoError(t, err)
	assert.True(t, n.Read)
	assert.False(t, updated)
}

func TestNotificationServiceUpdatePatch(t *testing.T) {
	repo := noopNotificationRepo()
	repo.findByIDFn = func(_ context.Context, id uint) (*models.Notification, error) {
		return &models.Notification{ID: id, Title: "t", Message: "m"}, nil
	}
	var patch map[string]any
	repo.updateFn = func(_ context.Context, id uint, p map[string]any) (*models.Notification, error) {
		patch = p
		return &models.Notification{ID: id}, nil
	}

	title := "New title"
	read := true
	_, err := NewNotificationService(repo, nil).Update(context.Background(), 1, UpdateNotificationInput{Title: &title, Read: &read})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "New title", "read": true}, patch)

	empty := "  "
	_, err = NewNotificationService(repo, nil).Update(context.Background(), 1, UpdateNotificationInput{Message: &empty})
	assert.True(t, models.HasCode(err, models.CodeValidation))
}
