package database

import "github.com/babbageLabs/insta-lite/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Profile{},
		&models.Follow{},
		&models.Photo{},
		&models.PhotoHashtag{},
		&models.PhotoLike{},
		&models.PhotoComment{},
		&models.FeedItem{},
		&models.FeedOutbox{},
		&models.Notification{},
	}
}
