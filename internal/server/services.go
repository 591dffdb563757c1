package server

import (
	"context"

	"github.com/babbageLabs/insta-lite/internal/middleware"
	"github.com/babbageLabs/insta-lite/internal/models"
	"github.com/babbageLabs/insta-lite/internal/service"
)

// The handlers depend on these slices of the service layer so tests can
// substitute mocks.

type AuthAPI interface {
	Signup(ctx context.Context, in service.SignupInput) (*service.AuthResult, error)
	Login(ctx context.Context, in service.LoginInput) (*service.AuthResult, error)
	Logout(ctx context.Context, claims *middleware.AccessClaims) error
	Authenticate(ctx context.Context, raw string) (*middleware.AccessClaims, error)
}

type ProfileAPI interface {
	Create(ctx context.Context, userID uint, in service.CreateProfileInput) (*models.Profile, error)
	Get(ctx context.Context, userID uint) (*models.Profile, error)
	GetMe(ctx context.Context, userID uint) (*models.Profile, error)
	Update(ctx context.Context, userID uint, in service.UpdateProfileInput) (*models.Profile, error)
}

type FollowAPI interface {
	FollowUser(ctx context.Context, followerID, followingID uint) (*models.Follow, error)
	UnfollowUser(ctx context.Context, followerID, followingID uint) error
	GetFollowers(ctx context.Context, userID uint, page, limit int) (*models.FollowPage, error)
	GetFollowing(ctx context.Context, userID uint, page, limit int) (*models.FollowPage, error)
	GetFollowStats(ctx context.Context, userID uint, currentUserID *uint) (*models.FollowStats, error)
}

type FeedAPI interface {
	GetFeed(ctx context.Context, userID uint, q service.FeedQuery) (*models.FeedPage, error)
}

type PhotoAPI interface {
	MaxUploadSizeBytes() int64
	Upload(ctx context.Context, in service.UploadPhotoInput) (*models.Photo, error)
	List(ctx context.Context, userID uint) ([]models.Photo, error)
	Get(ctx context.Context, id uint) (*models.Photo, error)
	Delete(ctx context.Context, id, userID uint) error
}

type SearchAPI interface {
	SearchPhotos(ctx context.Context, in service.SearchPhotosInput) (*models.PhotoSearchPage, error)
	PopularHashtags(ctx context.Context, limit int) ([]models.HashtagCount, error)
}

type InteractionAPI interface {
	LikePhoto(ctx context.Context, photoID, userID uint) error
	UnlikePhoto(ctx context.Context, photoID, userID uint) error
	AddComment(ctx context.Context, photoID, userID uint, content string) (*models.PhotoComment, error)
	GetPhotoInteractions(ctx context.Context, photoID uint, userID *uint) (*models.PhotoInteractions, error)
	GetInteractionsForPhotos(ctx context.Context, photoIDs []uint, userID *uint) (map[uint]models.InteractionSummary, error)
}

// NotificationAPI lookups return (nil, nil) for missing rows.
type NotificationAPI interface {
	Create(ctx context.Context, in service.CreateNotificationInput) (*models.Notification, error)
	FindAll(ctx context.Context) ([]models.Notification, error)
	FindOne(ctx context.Context, id uint) (*models.Notification, error)
	FindUnreadByUser(ctx context.Context, userID uint) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id uint) (*models.Notification, error)
	MarkAllAsRead(ctx context.Context) ([]models.Notification, error)
	Update(ctx context.Context, id uint, in service.UpdateNotificationInput) (*models.Notification, error)
	Remove(ctx context.Context, id uint) (*models.Notification, error)
}
