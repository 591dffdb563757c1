package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/babbageLabs/insta-lite/internal/models"
	"github.com/babbageLabs/insta-lite/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newTestDB opens a private in-memory SQLite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.NewSQLiteDB(t)
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// createUser inserts a user with a profile and returns the user id.
func createUser(t *testing.T, db *gorm.DB, username string) uint {
	t.Helper()
	user := &models.User{Email: username + "@example.com", Password: "hash"}
	profile := &models.Profile{Username: username}
	require.NoError(t, NewUserRepository(db).CreateWithProfile(t.Context(), user, profile))
	return user.ID
}

func createUsers(t *testing.T, db *gorm.DB, prefix string, n int) []uint {
	t.Helper()
	ids := make([]uint, 0, n)
	for i := range n {
		ids = append(ids, createUser(t, db, fmt.Sprintf("%s%d", prefix, i)))
	}
	return ids
}

func createPhoto(t *testing.T, db *gorm.DB, userID uint, description string, uploadedAt time.Time, tags ...string) *models.Photo {
	t.Helper()
	photo := &models.Photo{
		UserID:       userID,
		Filename:     fmt.Sprintf("photos/%d.jpg", uploadedAt.UnixNano()),
		OriginalName: "IMG_0001.jpg",
		MimeType:     "image/jpeg",
		Size:         1024,
		URL:          "/media/photo.jpg",
		Description:  description,
		UploadedAt:   uploadedAt,
		Hashtags:     tags,
	}
	require.NoError(t, NewPhotoRepository(db).Create(t.Context(), photo))
	return photo
}
