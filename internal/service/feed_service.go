package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/babbageLabs/insta-lite/internal/config"
	"github.com/babbageLabs/insta-lite/internal/middleware"
	"github.com/babbageLabs/insta-lite/internal/models"
	"github.com/babbageLabs/insta-lite/internal/notifications"
	"github.com/babbageLabs/insta-lite/internal/observability"
	"github.com/babbageLabs/insta-lite/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultFeedSyncFanoutLimit = 1000
	// MaxOutboxRetries is the attempt count after which a deferred fan-out is failed.
	MaxOutboxRetries = 5
)

// FeedQuery selects one page of a feed.
type FeedQuery struct {
	Limit  int
	Cursor string
}

// FeedItemAddedEvent is pushed to each recipient when a photo lands in their feed.
type FeedItemAddedEvent struct {
	PhotoID   uint      `json:"photo_id"`
	CreatorID uint      `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedService builds feeds by fan-out on write.
type FeedService struct {
	feedRepo   repository.FeedRepository
	followRepo repository.FollowRepository
	photoRepo  repository.PhotoRepository
	publisher  notifications.Publisher
	syncLimit  int
	batchSize  int
}

// NewFeedService returns a FeedService. publisher may be nil.
func NewFeedService(
	feedRepo repository.FeedRepository,
	followRepo repository.FollowRepository,
	photoRepo repository.PhotoRepository,
	publisher notifications.Publisher,
	cfg *config.Config,
) *FeedService {
	syncLimit := DefaultFeedSyncFanoutLimit
	if cfg != nil && cfg.FeedSyncFanoutLimit >= 0 {
		syncLimit = cfg.FeedSyncFanoutLimit
	}
	if publisher == nil {
		publisher = notifications.NopPublisher{}
	}
	return &FeedService{
		feedRepo:   feedRepo,
		followRepo: followRepo,
		photoRepo:  photoRepo,
		publisher:  publisher,
		syncLimit:  syncLimit,
		batchSize:  repository.DefaultFanoutBatchSize,
	}
}

// AddToFeed fans photoID out to its creator and the creator's followers.
// It returns the number of rows written synchronously.
func (s *FeedService) AddToFeed(ctx context.Context, photoID, creatorID uint) (int, error) {
	photo, err := s.photoRepo.GetByID(ctx, photoID)
	if err != nil {
		return 0, err
	}
	if photo.UserID != creatorID {
		return 0, models.NewInvalidOperationError("Photo does not belong to creator")
	}
	return s.AddPhotoToFeed(ctx, photo)
}

// AddPhotoToFeed is AddToFeed for a photo already loaded.
func (s *FeedService) AddPhotoToFeed(ctx context.Context, photo *models.Photo) (int, error) {
	span, ctx := observability.NewSpan(ctx, "FeedService.AddToFeed",
		observability.PhotoAttr(photo.ID),
		observability.UserAttr("creator_id", photo.UserID))
	defer span.End()

	result, err := s.feedRepo.Fanout(ctx, photo.ID, photo.UserID, photo.UploadedAt, s.syncLimit)
	if err != nil {
		return 0, span.Fail(err)
	}

	observability.FeedFanoutRows.WithLabelValues("sync").Add(float64(result.Written))
	if result.Outbox != nil {
		observability.FeedFanoutDeferred.Inc()
		middleware.Logger.InfoContext(ctx, "fan-out deferred to outbox",
			slog.Uint64("photo_id", uint64(photo.ID)),
			slog.Uint64("outbox_id", uint64(result.Outbox.ID)),
			slog.Uint64("after_follower_id", uint64(result.Outbox.AfterFollowerID)))
	}

	event := FeedItemAddedEvent{PhotoID: photo.ID, CreatorID: photo.UserID, CreatedAt: photo.UploadedAt}
	s.publisher.PublishUser(ctx, photo.UserID, notifications.EventFeedItemAdded, event)
	for _, followerID := range result.Recipients {
		s.publisher.PublishUser(ctx, followerID, notifications.EventFeedItemAdded, event)
	}

	return result.Written, nil
}

// ContinueFanout drives a deferred fan-out to completion, one transaction per
// batch. A failed batch is recorded on the outbox row for a later retry.
func (s *FeedService) ContinueFanout(ctx context.Context, outboxID uint) error {
	span, ctx := observability.NewSpan(ctx, "FeedService.ContinueFanout")
	defer span.End()
	span.AddAttributes(attribute.Int64("outbox_id", int64(outboxID)))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := s.feedRepo.FanoutBatch(ctx, outboxID, s.batchSize)
		if err != nil {
			span.SetError(err)
			if models.HasCode(err, models.CodeNotFound) {
				return err
			}
			row, recErr := s.feedRepo.RecordOutboxFailure(ctx, outboxID, err, MaxOutboxRetries)
			if recErr != nil {
				return fmt.Errorf("record outbox failure: %w (batch error: %v)", recErr, err)
			}
			result := "retry"
			if row.Status == models.OutboxFailed {
				result = "failed"
			}
			observability.OutboxRelayResults.WithLabelValues(result).Inc()
			middleware.Logger.WarnContext(ctx, "deferred fan-out batch failed",
				slog.Uint64("outbox_id", uint64(outboxID)),
				slog.Int("retry", row.Retry),
				slog.String("result", result),
				slog.String("error", err.Error()))
			return err
		}
		if done {
			observability.OutboxRelayResults.WithLabelValues("done").Inc()
			return nil
		}
	}
}

// GetFeed reads one page of userID's feed, newest first.
func (s *FeedService) GetFeed(ctx context.Context, userID uint, q FeedQuery) (*models.FeedPage, error) {
	span, ctx := observability.NewSpan(ctx, "FeedService.GetFeed", observability.UserAttr("user_id", userID))
	defer span.End()

	_, limit := normalizePage(1, q.Limit)
	cursor, err := DecodeFeedCursor(q.Cursor)
	if err != nil {
		return nil, err
	}

	followed, err := s.followRepo.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.feedRepo.ListFeed(ctx, userID, followed, cursor, limit+1)
	if err != nil {
		return nil, span.Fail(err)
	}

	page := &models.FeedPage{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		page.HasMore = true
		last := page.Items[len(page.Items)-1]
		next := EncodeFeedCursor(last.CreatedAt, last.ID)
		page.NextCursor = &next
	}

	if err := s.attachPhotos(ctx, page.Items); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *FeedService) attachPhotos(ctx context.Context, items []models.FeedItem) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.PhotoID)
	}
	photos, err := s.photoRepo.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range items {
		items[i].Photo = photos[items[i].PhotoID]
	}
	return nil
}
