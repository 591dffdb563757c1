package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/babbageLabs/insta-lite/internal/config"
	"github.com/babbageLabs/insta-lite/internal/models"
	"github.com/babbageLabs/insta-lite/internal/notifications"
	"github.com/babbageLabs/insta-lite/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedCursorRoundTrip(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.UTC)

	c, err := DecodeFeedCursor(EncodeFeedCursor(ts, 77))
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.True(t, c.HasID)
	assert.Equal(t, uint(77), c.ID)
	assert.True(t, ts.Equal(c.CreatedAt))
}

func TestFeedCursorAcceptsBareTimestamp(t *testing.T) {
	c, err := DecodeFeedCursor("2024-05-06T07:08:09Z")
	require.NoError(t, err)
	assert.False(t, c.HasID)
	assert.Equal(t, 2024, c.CreatedAt.Year())

	c, err = DecodeFeedCursor("2024-05-06T07:08:09.5Z|12")
	require.NoError(t, err)
	assert.True(t, c.HasID)
	assert.Equal(t, uint(12), c.ID)
}

func TestFeedCursorInvalid(t *testing.T) {
	for _, raw := range []string{"garbage", "2024-13-45", EncodeFeedCursor(time.Now(), 1) + "!!"} {
		_, err := DecodeFeedCursor(raw)
		assert.True(t, models.HasCode(err, models.CodeValidation), raw)
	}

	c, err := DecodeFeedCursor("   ")
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func feedItems(n int, start time.Time) []models.FeedItem {
	items := make([]models.FeedItem, 0, n)
	for i := range n {
		items = append(items, models.FeedItem{
			ID:        uint(100 - i),
			PhotoID:   uint(i + 1),
			CreatedAt: start.Add(-time.Duration(i) * time.Minute),
		})
	}
	return items
}

func TestFeedServiceGetFeedHasMore(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	feed := noopFeedRepo()
	var gotLimit int
	var gotFollowed []uint
	feed.listFeedFn = func(_ context.Context, _ uint, followed []uint, _ *repository.FeedCursor, limit int) ([]models.FeedItem, error) {
		gotLimit, gotFollowed = limit, followed
		return feedItems(limit, start), nil
	}
	follows := noopFollowRepo()
	follows.followingIDsFn = func(context.Context, uint) ([]uint, error) { return []uint{4, 5}, nil }

	svc := NewFeedService(feed, follows, noopPhotoRepo(), nil, nil)
	page, err := svc.GetFeed(context.Background(), 1, FeedQuery{Limit: 3})
	require.NoError(t, err)

	assert.Equal(t, 4, gotLimit)
	assert.Equal(t, []uint{4, 5}, gotFollowed)
	assert.Len(t, page.Items, 3)
	assert.True(t, page.HasMore)
	require.NotNil(t, page.NextCursor)
	for _, it := range page.Items {
		require.NotNil(t, it.Photo)
		assert.Equal(t, it.PhotoID, it.Photo.ID)
	}

	c, err := DecodeFeedCursor(*page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, page.Items[2].ID, c.ID)
	assert.True(t, page.Items[2].CreatedAt.Equal(c.CreatedAt))
}

func TestFeedServiceGetFeedLastPage(t *testing.T) {
	feed := noopFeedRepo()
	var gotCursor *repository.FeedCursor
	feed.listFeedFn = func(_ context.Context, _ uint, _ []uint, c *repository.FeedCursor, _ int) ([]models.FeedItem, error) {
		gotCursor = c
		return feedItems(2, time.Now()), nil
	}

	svc := NewFeedService(feed, noopFollowRepo(), noopPhotoRepo(), nil, nil)
	page, err := svc.GetFeed(context.Background(), 1, FeedQuery{Limit: 5, Cursor: EncodeFeedCursor(time.Now(), 9)})
	require.NoError(t, err)

	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextCursor)
	assert.Len(t, page.Items, 2)
	require.NotNil(t, gotCursor)
	assert.Equal(t, uint(9), gotCursor.ID)
}

func TestFeedServiceGetFeedBadCursor(t *testing.T) {
	svc := NewFeedService(noopFeedRepo(), noopFollowRepo(), noopPhotoRepo(), nil, nil)
	_, err := svc.GetFeed(context.Background(), 1, FeedQuery{Cursor: "nope"})
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestFeedServiceAddToFeedPublishesToRecipients(t *testing.T) {
	uploaded := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	photos := noopPhotoRepo()
	photos.getByIDFn = func(_ context.Context, id uint) (*models.Photo, error) {
		return &models.Photo{ID: id, UserID: 10, UploadedAt: uploaded}, nil
	}
	feed := noopFeedRepo()
	var gotLimit int
	var gotCreatedAt time.Time
	feed.fanoutFn = func(_ context.Context, _, _ uint, createdAt time.Time, syncLimit int) (*repository.FanoutResult, error) {
		gotLimit, gotCreatedAt = syncLimit, createdAt
		return &repository.FanoutResult{Written: 3, Recipients: []uint{11, 12}}, nil
	}
	pub := &publisherStub{}

	svc := NewFeedService(feed, noopFollowRepo(), photos, pub, &config.Config{FeedSyncFanoutLimit: 50})
	written, err := svc.AddToFeed(context.Background(), 5, 10)
	require.NoError(t, err)

	assert.Equal(t, 3, written)
	assert.Equal(t, 50, gotLimit)
	assert.True(t, uploaded.Equal(gotCreatedAt))
	assert.Equal(t, []uint{10, 11, 12}, pub.recipients())
	assert.Equal(t, notifications.EventFeedItemAdded, pub.events[0].Type)
}

func TestFeedServiceAddToFeedWrongCreator(t *testing.T) {
	svc := NewFeedService(noopFeedRepo(), noopFollowRepo(), noopPhotoRepo(), nil, nil)
	_, err := svc.AddToFeed(context.Background(), 5, 99)
	assert.True(t, models.HasCode(err, models.CodeInvalidOperation))
}

func TestFeedServiceContinueFanoutLoopsUntilDone(t *testing.T) {
	feed := noopFeedRepo()
	calls := 0
	feed.fanoutBatchFn = func(context.Context, uint, int) (bool, error) {
		calls++
		return calls == 3, nil
	}

	svc := NewFeedService(feed, noopFollowRepo(), noopPhotoRepo(), nil, nil)
	require.NoError(t, svc.ContinueFanout(context.Background(), 1))
	assert.Equal(t, 3, calls)
}

func TestFeedServiceContinueFanoutRecordsFailure(t *testing.T) {
	feed := noopFeedRepo()
	batchErr := errors.New("deadlock detected")
	feed.fanoutBatchFn = func(context.Context, uint, int) (bool, error) { return false, batchErr }
	var gotMax int
	var gotCause error
	feed.recordOutboxFailureFn = func(_ context.Context, id uint, cause error, maxRetries int) (*models.FeedOutbox, error) {
		gotCause, gotMax = cause, maxRetries
		return &models.FeedOutbox{ID: id, Retry: 5, Status: models.OutboxFailed}, nil
	}

	svc := NewFeedService(feed, noopFollowRepo(), noopPhotoRepo(), nil, nil)
	err := svc.ContinueFanout(context.Background(), 1)
	assert.ErrorIs(t, err, batchErr)
	assert.ErrorIs(t, gotCause, batchErr)
	assert.Equal(t, MaxOutboxRetries, gotMax)
}

func TestFeedServiceContinueFanoutMissingOutbox(t *testing.T) {
	feed := noopFeedRepo()
	feed.fanoutBatchFn = func(_ context.Context, id uint, _ int) (bool, error) {
		return false, models.NewNotFoundError("Outbox entry", id)
	}
	recorded := false
	feed.recordOutboxFailureFn = func(context.Context, uint, error, int) (*models.FeedOutbox, error) {
		recorded = true
		return nil, nil
	}

	svc := NewFeedService(feed, noopFollowRepo(), noopPhotoRepo(), nil, nil)
	err := svc.ContinueFanout(context.Background(), 1)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.False(t, recorded)
}
