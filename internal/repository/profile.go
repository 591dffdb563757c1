package repository

import (
	"context"
	"errors"

	"github.com/babbageLabs/insta-lite/internal/models"

	"gorm.io/gorm"
)

// ProfileRepository defines persistence operations for profiles.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.Profile, error)
	// GetByUsername returns (nil, nil) when the username is free.
	GetByUsername(ctx context.Context, username string) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	Update(ctx context.Context, profile *models.Profile) error
	// CountExisting returns how many of userIDs have a profile.
	CountExisting(ctx context.Context, userIDs ...uint) (int64, error)
	Summaries(ctx context.Context, userIDs []uint) (map[uint]models.ProfileSummary, error)
	// ReconcileCounters rewrites follower/following counters from the follows table.
	ReconcileCounters(ctx context.Context) (int64, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository returns a new ProfileRepository implementation.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	if err := readDB(r.db).WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Profile", userID)
		}
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

func (r *profileRepository) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Profile already exists or username is taken")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *profileRepository) Update(ctx context.Context, profile *models.Profile) error {
	err := r.db.WithContext(ctx).Model(profile).
		Select("username", "full_name", "avatar_url", "bio", "location").
		Updates(profile).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Username is taken")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *profileRepository) CountExisting(ctx context.Context, userIDs ...uint) (int64, error) {
	ids := uniqueIDs(userIDs)
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("user_id IN ?", ids).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *profileRepository) Summaries(ctx context.Context, userIDs []uint) (map[uint]models.ProfileSummary, error) {
	out := make(map[uint]models.ProfileSummary, len(userIDs))
	ids := uniqueIDs(userIDs)
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.ProfileSummary
	if err := readDB(r.db).WithContext(ctx).Model(&models.Profile{}).
		Select("user_id, username, avatar_url").
		Where("user_id IN ?", ids).
		Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		out[row.UserID] = row
	}
	return out, nil
}

func (r *profileRepository) ReconcileCounters(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
UPDATE profiles SET
	followers_count = (SELECT COUNT(*) FROM follows WHERE follows.following_id = profiles.user_id),
	following_count = (SELECT COUNT(*) FROM follows WHERE follows.follower_id = profiles.user_id)
WHERE followers_count <> (SELECT COUNT(*) FROM follows WHERE follows.following_id = profiles.user_id)
   OR following_count <> (SELECT COUNT(*) FROM follows WHERE follows.follower_id = profiles.user_id)`)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
