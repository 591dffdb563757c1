package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/babbageLabs/insta-lite/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PhotoSearchQuery filters SearchPhotos. Hashtags must already be normalised.
type PhotoSearchQuery struct {
	Text     string
	Hashtags []string
	Offset   int
	Limit    int
}

// PhotoRepository defines persistence operations for photos and their hashtags.
type PhotoRepository interface {
	// Create inserts the photo and its Hashtags in one transaction.
	Create(ctx context.Context, photo *models.Photo) error
	GetByID(ctx context.Context, id uint) (*models.Photo, error)
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.Photo, error)
	Exists(ctx context.Context, id uint) (bool, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Photo, error)
	// DeleteOwned removes the photo with its likes, comments, hashtags and
	// feed rows, and finishes any outbox entry still fanning it out. A photo
	// owned by someone else is reported as not found.
	DeleteOwned(ctx context.Context, id, userID uint) (*models.Photo, error)
	Search(ctx context.Context, q PhotoSearchQuery) ([]models.PhotoSearchItem, int64, error)
	PopularHashtags(ctx context.Context, limit int) ([]models.HashtagCount, error)
}

type photoRepository struct {
	db *gorm.DB
}

// NewPhotoRepository returns a new PhotoRepository implementation.
func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &photoRepository{db: db}
}

func (r *photoRepository) Create(ctx context.Context, photo *models.Photo) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(photo).Error; err != nil {
			return err
		}
		if len(photo.Hashtags) == 0 {
			return nil
		}
		tags := make([]models.PhotoHashtag, 0, len(photo.Hashtags))
		for _, tag := range photo.Hashtags {
			tags = append(tags, models.PhotoHashtag{PhotoID: photo.ID, Tag: tag})
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "photo_id"}, {Name: "tag"}},
			DoNothing: true,
		}).Create(&tags).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *photoRepository) GetByID(ctx context.Context, id uint) (*models.Photo, error) {
	var photo models.Photo
	if err := readDB(r.db).WithContext(ctx).First(&photo, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Photo", id)
		}
		return nil, models.NewInternalError(err)
	}
	if err := r.attachHashtags(ctx, []*models.Photo{&photo}); err != nil {
		return nil, err
	}
	return &photo, nil
}

func (r *photoRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.Photo, error) {
	out := make(map[uint]*models.Photo, len(ids))
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return out, nil
	}
	var photos []models.Photo
	if err := readDB(r.db).WithContext(ctx).Where("id IN ?", ids).Find(&photos).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	ptrs := make([]*models.Photo, 0, len(photos))
	for i := range photos {
		out[photos[i].ID] = &photos[i]
		ptrs = append(ptrs, &photos[i])
	}
	if err := r.attachHashtags(ctx, ptrs); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *photoRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Photo{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *photoRepository) ListByUser(ctx context.Context, userID uint) ([]models.Photo, error) {
	photos := []models.Photo{}
	if err := readDB(r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("uploaded_at DESC").Order("id DESC").
		Find(&photos).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	ptrs := make([]*models.Photo, len(photos))
	for i := range photos {
		ptrs[i] = &photos[i]
	}
	if err := r.attachHashtags(ctx, ptrs); err != nil {
		return nil, err
	}
	return photos, nil
}

func (r *photoRepository) DeleteOwned(ctx context.Context, id, userID uint) (*models.Photo, error) {
	var photo models.Photo
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&photo).Error; err != nil {
			return err
		}
		if err := finishOutbox(tx.Where("photo_id = ?", id)); err != nil {
			return err
		}
		for _, m := range []any{&models.PhotoLike{}, &models.PhotoComment{}, &models.PhotoHashtag{}, &models.FeedItem{}} {
			if err := tx.Where("photo_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Photo{}, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Photo", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &photo, nil
}

func (r *photoRepository) Search(ctx context.Context, q PhotoSearchQuery) ([]models.PhotoSearchItem, int64, error) {
	base := readDB(r.db).WithContext(ctx).Table("photos")
	if text := strings.ToLower(strings.TrimSpace(q.Text)); text != "" {
		pattern := "%" + escapeLike(text) + "%"
		base = base.Where("(LOWER(photos.description) LIKE ? ESCAPE '\\' OR LOWER(photos.original_name) LIKE ? ESCAPE '\\')", pattern, pattern)
	}
	if len(q.Hashtags) > 0 {
		base = base.Where(
			"photos.id IN (SELECT photo_id FROM photo_hashtags WHERE tag IN ? GROUP BY photo_id HAVING COUNT(DISTINCT tag) = ?)",
			q.Hashtags, len(q.Hashtags),
		)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	items := []models.PhotoSearchItem{}
	if total == 0 {
		return items, 0, nil
	}
	if err := base.Session(&gorm.Session{}).
		Select(`photos.*, COALESCE(profiles.username, '') AS username,
			(SELECT COUNT(*) FROM photo_likes WHERE photo_likes.photo_id = photos.id) AS likes_count,
			(SELECT COUNT(*) FROM photo_comments WHERE photo_comments.photo_id = photos.id) AS comments_count`).
		Joins("LEFT JOIN profiles ON profiles.user_id = photos.user_id").
		Order("photos.uploaded_at DESC").Order("photos.id DESC").
		Offset(q.Offset).Limit(q.Limit).
		Scan(&items).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	ptrs := make([]*models.Photo, len(items))
	for i := range items {
		ptrs[i] = &items[i].Photo
	}
	if err := r.attachHashtags(ctx, ptrs); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *photoRepository) PopularHashtags(ctx context.Context, limit int) ([]models.HashtagCount, error) {
	tags := []models.HashtagCount{}
	if err := readDB(r.db).WithContext(ctx).Model(&models.PhotoHashtag{}).
		Select("tag, COUNT(*) AS count").
		Group("tag").
		Order("count DESC").Order("tag ASC").
		Limit(limit).
		Scan(&tags).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return tags, nil
}

func (r *photoRepository) attachHashtags(ctx context.Context, photos []*models.Photo) error {
	if len(photos) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(photos))
	for _, p := range photos {
		ids = append(ids, p.ID)
		p.Hashtags = []string{}
	}
	var rows []models.PhotoHashtag
	if err := readDB(r.db).WithContext(ctx).
		Where("photo_id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return models.NewInternalError(err)
	}
	byPhoto := make(map[uint][]string, len(photos))
	for _, row := range rows {
		byPhoto[row.PhotoID] = append(byPhoto[row.PhotoID], row.Tag)
	}
	for _, p := range photos {
		if tags, ok := byPhoto[p.ID]; ok {
			p.Hashtags = tags
		}
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
