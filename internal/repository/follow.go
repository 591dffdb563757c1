package repository

import (
	"context"
	"time"

	"github.com/babbageLabs/insta-lite/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository persists follow edges together with the profile counters.
type FollowRepository interface {
	// Create inserts the edge and bumps both counters in one transaction.
	// It returns (nil, nil) when the edge already exists.
	Create(ctx context.Context, followerID, followingID uint) (*models.Follow, error)
	// Delete removes the edge and decrements both counters. It reports
	// whether an edge was removed.
	Delete(ctx context.Context, followerID, followingID uint) (bool, error)
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	CountFollowers(ctx context.Context, userID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
	ListFollowers(ctx context.Context, userID uint, offset, limit int) ([]models.Follow, int64, error)
	ListFollowing(ctx context.Context, userID uint, offset, limit int) ([]models.Follow, int64, error)
	FollowingIDs(ctx context.Context, userID uint) ([]uint, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository returns a new FollowRepository implementation.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// adjustCounter moves a profile counter by one, never below zero.
func adjustCounter(tx *gorm.DB, userID uint, column string, delta int) error {
	expr := gorm.Expr(column + " + 1")
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN " + column + " > 0 THEN " + column + " - 1 ELSE 0 END")
	}
	return tx.Model(&models.Profile{}).
		Where("user_id = ?", userID).
		UpdateColumn(column, expr).Error
}

func (r *followRepository) Create(ctx context.Context, followerID, followingID uint) (*models.Follow, error) {
	follow := &models.Follow{
		FollowerID:  followerID,
		FollowingID: followingID,
		CreatedAt:   time.Now().UTC(),
	}
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "follower_id"}, {Name: "following_id"}},
			DoNothing: true,
		}).Create(follow)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		if err := adjustCounter(tx, followingID, "followers_count", 1); err != nil {
			return err
		}
		return adjustCounter(tx, followerID, "following_count", 1)
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	if !created {
		return nil, nil
	}
	return follow, nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followingID uint) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).
			Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		if err := adjustCounter(tx, followingID, "followers_count", -1); err != nil {
			return err
		}
		return adjustCounter(tx, followerID, "following_count", -1)
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return deleted, nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&n).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *followRepository) count(ctx context.Context, column string, userID uint) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Follow{}).
		Where(column+" = ?", userID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "following_id", userID)
}

func (r *followRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "follower_id", userID)
}

func (r *followRepository) list(ctx context.Context, column string, userID uint, offset, limit int) ([]models.Follow, int64, error) {
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.Follow{}).Where(column+" = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	follows := []models.Follow{}
	if err := db.Where(column+" = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&follows).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return follows, total, nil
}

func (r *followRepository) ListFollowers(ctx context.Context, userID uint, offset, limit int) ([]models.Follow, int64, error) {
	return r.list(ctx, "following_id", userID, offset, limit)
}

func (r *followRepository) ListFollowing(ctx context.Context, userID uint, offset, limit int) ([]models.Follow, int64, error) {
	return r.list(ctx, "follower_id", userID, offset, limit)
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := readDB(r.db).WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
