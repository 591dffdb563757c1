package repository

import (
	"context"
	"errors"
	"time"

	"github.com/babbageLabs/insta-lite/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultFanoutBatchSize bounds the rows written by one INSERT during fan-out.
const DefaultFanoutBatchSize = 500

// FeedCursor positions a feed read. Without an ID only CreatedAt is compared.
type FeedCursor struct {
	CreatedAt time.Time
	ID        uint
	HasID     bool
}

// FanoutResult describes a synchronous fan-out.
type FanoutResult struct {
	Written int
	// Recipients are the followers covered by the synchronous pass.
	Recipients []uint
	Outbox     *models.FeedOutbox
}

// FeedRepository persists feed rows and deferred fan-out work.
type FeedRepository interface {
	// Fanout writes the creator's row and up to syncLimit follower rows in one
	// transaction. When followers remain, an outbox row is committed with them.
	Fanout(ctx context.Context, photoID, creatorID uint, createdAt time.Time, syncLimit int) (*FanoutResult, error)
	// FanoutBatch continues an outbox entry by one batch in its own transaction.
	// It reports whether the fan-out is complete.
	FanoutBatch(ctx context.Context, outboxID uint, batchSize int) (bool, error)
	ListFeed(ctx context.Context, userID uint, followedIDs []uint, cursor *FeedCursor, limit int) ([]models.FeedItem, error)

	GetOutbox(ctx context.Context, id uint) (*models.FeedOutbox, error)
	ListPendingOutbox(ctx context.Context, limit int) ([]models.FeedOutbox, error)
	// MarkOutboxDispatched moves a pending row to dispatched. It reports false
	// when another relay claimed the row first.
	MarkOutboxDispatched(ctx context.Context, id uint) (bool, error)
	// RecordOutboxFailure bumps the retry counter, and fails the row once
	// maxRetries is reached. Otherwise the row goes back to pending.
	RecordOutboxFailure(ctx context.Context, id uint, cause error, maxRetries int) (*models.FeedOutbox, error)
	RequeueStaleDispatched(ctx context.Context, olderThan time.Duration) (int64, error)
}

type feedRepository struct {
	db        *gorm.DB
	batchSize int
}

// NewFeedRepository returns a new FeedRepository implementation.
func NewFeedRepository(db *gorm.DB) FeedRepository {
	return &feedRepository{db: db, batchSize: DefaultFanoutBatchSize}
}

func followerIDsAfter(tx *gorm.DB, creatorID, afterID uint, limit int) ([]uint, error) {
	var ids []uint
	err := tx.Model(&models.Follow{}).
		Where("following_id = ? AND follower_id > ?", creatorID, afterID).
		Order("follower_id ASC").
		Limit(limit).
		Pluck("follower_id", &ids).Error
	return ids, err
}

func insertFeedRows(tx *gorm.DB, rows []models.FeedItem, batchSize int) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "photo_id"}},
		DoNothing: true,
	}).CreateInBatches(&rows, batchSize)
	return int(res.RowsAffected), res.Error
}

func (r *feedRepository) Fanout(ctx context.Context, photoID, creatorID uint, createdAt time.Time, syncLimit int) (*FanoutResult, error) {
	if syncLimit < 0 {
		syncLimit = 0
	}
	result := &FanoutResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		followers, err := followerIDsAfter(tx, creatorID, 0, syncLimit+1)
		if err != nil {
			return err
		}
		deferred := len(followers) > syncLimit
		if deferred {
			followers = followers[:syncLimit]
		}

		rows := make([]models.FeedItem, 0, len(followers)+1)
		rows = append(rows, models.FeedItem{UserID: creatorID, PhotoID: photoID, CreatorID: creatorID, CreatedAt: createdAt})
		for _, followerID := range followers {
			rows = append(rows, models.FeedItem{UserID: followerID, PhotoID: photoID, CreatorID: creatorID, CreatedAt: createdAt})
		}
		written, err := insertFeedRows(tx, rows, r.batchSize)
		if err != nil {
			return err
		}
		result.Written = written
		result.Recipients = followers

		if !deferred {
			return nil
		}
		var after uint
		if len(followers) > 0 {
			after = followers[len(followers)-1]
		}
		outbox := &models.FeedOutbox{
			PhotoID:         photoID,
			CreatorID:       creatorID,
			AfterFollowerID: after,
			Status:          models.OutboxPending,
		}
		if err := tx.Create(outbox).Error; err != nil {
			return err
		}
		result.Outbox = outbox
		return nil
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return result, nil
}

func (r *feedRepository) FanoutBatch(ctx context.Context, outboxID uint, batchSize int) (bool, error) {
	if batchSize <= 0 {
		batchSize = r.batchSize
	}
	done := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var outbox models.FeedOutbox
		q := tx
		if tx.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&outbox, outboxID).Error; err != nil {
			return err
		}
		if outbox.Status == models.OutboxDone || outbox.Status == models.OutboxFailed {
			done = outbox.Status == models.OutboxDone
			return nil
		}

		var uploaded []time.Time
		if err := tx.Model(&models.Photo{}).Where("id = ?", outbox.PhotoID).
			Pluck("uploaded_at", &uploaded).Error; err != nil {
			return err
		}
		if len(uploaded) == 0 {
			// Photo deleted since the fan-out started.
			done = true
			return finishOutbox(tx.Where("id = ?", outbox.ID))
		}

		followers, err := followerIDsAfter(tx, outbox.CreatorID, outbox.AfterFollowerID, batchSize)
		if err != nil {
			return err
		}
		rows := make([]models.FeedItem, 0, len(followers))
		for _, followerID := range followers {
			rows = append(rows, models.FeedItem{
				UserID:    followerID,
				PhotoID:   outbox.PhotoID,
				CreatorID: outbox.CreatorID,
				CreatedAt: uploaded[0],
			})
		}
		if _, err := insertFeedRows(tx, rows, batchSize); err != nil {
			return err
		}

		updates := map[string]any{"updated_at": time.Now().UTC()}
		if len(followers) > 0 {
			updates["after_follower_id"] = followers[len(followers)-1]
		}
		if len(followers) < batchSize {
			updates["status"] = models.OutboxDone
			updates["last_error"] = ""
			done = true
		}
		return tx.Model(&models.FeedOutbox{}).Where("id = ?", outbox.ID).Updates(updates).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, models.NewNotFoundError("Outbox entry", outboxID)
		}
		return false, models.NewInternalError(err)
	}
	return done, nil
}

// finishOutbox marks the unfinished outbox rows matched by scope as done.
func finishOutbox(scope *gorm.DB) error {
	return scope.Model(&models.FeedOutbox{}).
		Where("status <> ?", models.OutboxDone).
		Updates(map[string]any{"status": models.OutboxDone, "updated_at": time.Now().UTC()}).Error
}

func (r *feedRepository) ListFeed(ctx context.Context, userID uint, followedIDs []uint, cursor *FeedCursor, limit int) ([]models.FeedItem, error) {
	q := readDB(r.db).WithContext(ctx).Model(&models.FeedItem{})
	if len(followedIDs) > 0 {
		q = q.Where(`(feed_items.user_id = ? OR (feed_items.creator_id IN ? AND feed_items.user_id = feed_items.creator_id
			AND NOT EXISTS (SELECT 1 FROM feed_items f2 WHERE f2.user_id = ? AND f2.photo_id = feed_items.photo_id)))`,
			userID, followedIDs, userID)
	} else {
		q = q.Where("feed_items.user_id = ?", userID)
	}
	if cursor != nil {
		if cursor.HasID {
			q = q.Where("(feed_items.created_at < ? OR (feed_items.created_at = ? AND feed_items.id < ?))",
				cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
		} else {
			q = q.Where("feed_items.created_at < ?", cursor.CreatedAt)
		}
	}

	items := []models.FeedItem{}
	if err := q.Order("feed_items.created_at DESC").Order("feed_items.id DESC").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *feedRepository) GetOutbox(ctx context.Context, id uint) (*models.FeedOutbox, error) {
	var outbox models.FeedOutbox
	if err := r.db.WithContext(ctx).First(&outbox, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Outbox entry", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &outbox, nil
}

func (r *feedRepository) ListPendingOutbox(ctx context.Context, limit int) ([]models.FeedOutbox, error) {
	rows := []models.FeedOutbox{}
	if err := r.db.WithContext(ctx).
		Where("status = ?", models.OutboxPending).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

func (r *feedRepository) MarkOutboxDispatched(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.FeedOutbox{}).
		Where("id = ? AND status = ?", id, models.OutboxPending).
		Updates(map[string]any{"status": models.OutboxDispatched, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *feedRepository) RecordOutboxFailure(ctx context.Context, id uint, cause error, maxRetries int) (*models.FeedOutbox, error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if len(msg) > 4000 {
		msg = msg[:4000]
	}

	var outbox models.FeedOutbox
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&outbox, id).Error; err != nil {
			return err
		}
		outbox.Retry++
		outbox.LastError = msg
		outbox.Status = models.OutboxPending
		if outbox.Retry >= maxRetries {
			outbox.Status = models.OutboxFailed
		}
		return tx.Model(&models.FeedOutbox{}).Where("id = ?", id).Updates(map[string]any{
			"retry":      outbox.Retry,
			"last_error": outbox.LastError,
			"status":     outbox.Status,
			"updated_at": time.Now().UTC(),
		}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Outbox entry", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &outbox, nil
}

func (r *feedRepository) RequeueStaleDispatched(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	res := r.db.WithContext(ctx).Model(&models.FeedOutbox{}).
		Where("status = ? AND updated_at < ?", models.OutboxDispatched, cutoff).
		Updates(map[string]any{"status": models.OutboxPending, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
