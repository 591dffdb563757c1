package repository

import (
	"context"
	"time"

	"github.com/babbageLabs/insta-lite/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InteractionRepository persists likes and comments on photos.
type InteractionRepository interface {
	// Like is idempotent; it reports whether a new like was recorded.
	Like(ctx context.Context, photoID, userID uint) (bool, error)
	Unlike(ctx context.Context, photoID, userID uint) error
	AddComment(ctx context.Context, comment *models.PhotoComment) error
	ListComments(ctx context.Context, photoID uint) ([]models.PhotoComment, error)
	// Counts returns like and comment counts per photo id. Missing ids get zero values.
	Counts(ctx context.Context, photoIDs []uint) (map[uint]models.InteractionSummary, error)
	LikedBy(ctx context.Context, photoIDs []uint, userID uint) (map[uint]bool, error)
}

type interactionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository returns a new InteractionRepository implementation.
func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

func (r *interactionRepository) Like(ctx context.Context, photoID, userID uint) (bool, error) {
	like := models.PhotoLike{PhotoID: photoID, UserID: userID, CreatedAt: time.Now().UTC()}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "photo_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&like)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *interactionRepository) Unlike(ctx context.Context, photoID, userID uint) error {
	if err := r.db.WithContext(ctx).
		Where("photo_id = ? AND user_id = ?", photoID, userID).
		Delete(&models.PhotoLike{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *interactionRepository) AddComment(ctx context.Context, comment *models.PhotoComment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *interactionRepository) ListComments(ctx context.Context, photoID uint) ([]models.PhotoComment, error) {
	comments := []models.PhotoComment{}
	if err := readDB(r.db).WithContext(ctx).
		Where("photo_id = ?", photoID).
		Order("created_at ASC").Order("id ASC").
		Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

type photoCount struct {
	PhotoID uint
	N       int64
}

func (r *interactionRepository) groupedCount(ctx context.Context, model any, ids []uint) (map[uint]int64, error) {
	var rows []photoCount
	if err := readDB(r.db).WithContext(ctx).Model(model).
		Select("photo_id, COUNT(*) AS n").
		Where("photo_id IN ?", ids).
		Group("photo_id").
		Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.PhotoID] = row.N
	}
	return out, nil
}

func (r *interactionRepository) Counts(ctx context.Context, photoIDs []uint) (map[uint]models.InteractionSummary, error) {
	ids := uniqueIDs(photoIDs)
	out := make(map[uint]models.InteractionSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	likes, err := r.groupedCount(ctx, &models.PhotoLike{}, ids)
	if err != nil {
		return nil, err
	}
	comments, err := r.groupedCount(ctx, &models.PhotoComment{}, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = models.InteractionSummary{LikesCount: likes[id], CommentsCount: comments[id]}
	}
	return out, nil
}

func (r *interactionRepository) LikedBy(ctx context.Context, photoIDs []uint, userID uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	ids := uniqueIDs(photoIDs)
	if len(ids) == 0 {
		return out, nil
	}
	var liked []uint
	if err := readDB(r.db).WithContext(ctx).Model(&models.PhotoLike{}).
		Where("user_id = ? AND photo_id IN ?", userID, ids).
		Pluck("photo_id", &liked).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, id := range liked {
		out[id] = true
	}
	return out, nil
}
