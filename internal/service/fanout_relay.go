package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/babbageLabs/insta-lite/internal/middleware"
	"github.com/babbageLabs/insta-lite/internal/models"
	"github.com/babbageLabs/insta-lite/internal/observability"
	"github.com/babbageLabs/insta-lite/internal/queue"
	"github.com/babbageLabs/insta-lite/internal/repository"
)

const (
	DefaultRelayInterval  = 5 * time.Second
	DefaultRelayBatchSize = 100
	// Dispatched rows untouched for this long are assumed lost by the consumer.
	dispatchStaleAfter = 15 * time.Minute
)

// FanoutContinuer resumes a deferred fan-out.
type FanoutContinuer interface {
	ContinueFanout(ctx context.Context, outboxID uint) error
}

// FanoutRelay moves pending outbox rows to whoever finishes them: Kafka
// consumers when a producer is configured, this process otherwise.
type FanoutRelay struct {
	feedRepo  repository.FeedRepository
	continuer FanoutContinuer
	producer  queue.FanoutPublisher
	batchSize int
	logger    *slog.Logger
}

// NewFanoutRelay builds a relay. producer may be nil.
func NewFanoutRelay(feedRepo repository.FeedRepository, continuer FanoutContinuer, producer queue.FanoutPublisher) *FanoutRelay {
	return &FanoutRelay{
		feedRepo:  feedRepo,
		continuer: continuer,
		producer:  producer,
		batchSize: DefaultRelayBatchSize,
		logger:    middleware.Component("fanout-relay"),
	}
}

// RunOnce handles one batch of pending rows and returns how many it moved.
func (r *FanoutRelay) RunOnce(ctx context.Context) (int, error) {
	if r.producer != nil {
		if n, err := r.feedRepo.RequeueStaleDispatched(ctx, dispatchStaleAfter); err != nil {
			r.logger.WarnContext(ctx, "requeue stale outbox rows failed", slog.String("error", err.Error()))
		} else if n > 0 {
			r.logger.InfoContext(ctx, "requeued stale outbox rows", slog.Int64("count", n))
		}
	}

	rows, err := r.feedRepo.ListPendingOutbox(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, row := range rows {
		if ctx.Err() != nil {
			return moved, ctx.Err()
		}
		if r.producer != nil {
			if r.dispatch(ctx, row) {
				moved++
			}
			continue
		}
		// Failures are recorded on the row by ContinueFanout.
		if err := r.continuer.ContinueFanout(ctx, row.ID); err == nil {
			moved++
		}
	}
	return moved, nil
}

func (r *FanoutRelay) dispatch(ctx context.Context, row models.FeedOutbox) bool {
	claimed, err := r.feedRepo.MarkOutboxDispatched(ctx, row.ID)
	if err != nil || !claimed {
		return false
	}

	msg := models.FanoutMessage{OutboxID: row.ID, PhotoID: row.PhotoID, CreatorID: row.CreatorID}
	if err := r.producer.PublishFanout(ctx, msg); err != nil {
		observability.OutboxRelayResults.WithLabelValues("publish_error").Inc()
		r.logger.WarnContext(ctx, "publish fan-out failed",
			slog.Uint64("outbox_id", uint64(row.ID)), slog.String("error", err.Error()))
		if _, recErr := r.feedRepo.RecordOutboxFailure(ctx, row.ID, err, MaxOutboxRetries); recErr != nil {
			r.logger.ErrorContext(ctx, "record outbox failure",
				slog.Uint64("outbox_id", uint64(row.ID)), slog.String("error", recErr.Error()))
		}
		return false
	}
	observability.OutboxRelayResults.WithLabelValues("dispatched").Inc()
	return true
}

// Run calls RunOnce every interval until ctx is cancelled.
func (r *FanoutRelay) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRelayInterval
	}
	r.logger.Info("outbox relay started",
		slog.Duration("interval", interval), slog.Bool("kafka", r.producer != nil))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error("outbox relay pass failed", slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
		}
	}
}

// HandleFanoutMessage is the Kafka consumer callback.
func (r *FanoutRelay) HandleFanoutMessage(ctx context.Context, msg models.FanoutMessage) error {
	return r.continuer.ContinueFanout(ctx, msg.OutboxID)
}
