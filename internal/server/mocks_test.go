package server

import (
	"context"

	"github.com/babbageLabs/insta-lite/internal/middleware"
	"github.com/babbageLabs/insta-lite/internal/models"
	"github.com/babbageLabs/insta-lite/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockAuth struct{ mock.Mock }

func (m *MockAuth) Signup(ctx context.Context, in service.SignupInput) (*service.AuthResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuth) Login(ctx context.Context, in service.LoginInput) (*service.AuthResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuth) Logout(ctx context.Context, claims *middleware.AccessClaims) error {
	return m.Called(ctx, claims).Error(0)
}

func (m *MockAuth) Authenticate(ctx context.Context, raw string) (*middleware.AccessClaims, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*middleware.AccessClaims), args.Error(1)
}

type MockProfiles struct{ mock.Mock }

func (m *MockProfiles) Create(ctx context.Context, userID uint, in service.CreateProfileInput) (*models.Profile, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfiles) Get(ctx context.Context, userID uint) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfiles) GetMe(ctx context.Context, userID uint) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfiles) Update(ctx context.Context, userID uint, in service.UpdateProfileInput) (*models.Profile, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

type MockFollows struct{ mock.Mock }

func (m *MockFollows) FollowUser(ctx context.Context, followerID, followingID uint) (*models.Follow, error) {
	args := m.Called(ctx, followerID, followingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Follow), args.Error(1)
}

func (m *MockFollows) UnfollowUser(ctx context.Context, followerID, followingID uint) error {
	return m.Called(ctx, followerID, followingID).Error(0)
}

func (m *MockFollows) GetFollowers(ctx context.Context, userID uint, page, limit int) (*models.FollowPage, error) {
	args := m.Called(ctx, userID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FollowPage), args.Error(1)
}

func (m *MockFollows) GetFollowing(ctx context.Context, userID uint, page, limit int) (*models.FollowPage, error) {
	args := m.Called(ctx, userID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FollowPage), args.Error(1)
}

func (m *MockFollows) GetFollowStats(ctx context.Context, userID uint, currentUserID *uint) (*models.FollowStats, error) {
	args := m.Called(ctx, userID, currentUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FollowStats), args.Error(1)
}

type MockFeed struct{ mock.Mock }

func (m *MockFeed) GetFeed(ctx context.Context, userID uint, q service.FeedQuery) (*models.FeedPage, error) {
	args := m.Called(ctx, userID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FeedPage), args.Error(1)
}

type MockPhotos struct{ mock.Mock }

func (m *MockPhotos) MaxUploadSizeBytes() int64 {
	return m.Called().Get(0).(int64)
}

func (m *MockPhotos) Upload(ctx context.Context, in service.UploadPhotoInput) (*models.Photo, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Photo), args.Error(1)
}

func (m *MockPhotos) List(ctx context.Context, userID uint) ([]models.Photo, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Photo), args.Error(1)
}

func (m *MockPhotos) Get(ctx context.Context, id uint) (*models.Photo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Photo), args.Error(1)
}

func (m *MockPhotos) Delete(ctx context.Context, id, userID uint) error {
	return m.Called(ctx, id, userID).Error(0)
}

type MockSearch struct{ mock.Mock }

func (m *MockSearch) SearchPhotos(ctx context.Context, in service.SearchPhotosInput) (*models.PhotoSearchPage, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PhotoSearchPage), args.Error(1)
}

func (m *MockSearch) PopularHashtags(ctx context.Context, limit int) ([]models.HashtagCount, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.HashtagCount), args.Error(1)
}

type MockInteractions struct{ mock.Mock }

func (m *MockInteractions) LikePhoto(ctx context.Context, photoID, userID uint) error {
	return m.Called(ctx, photoID, userID).Error(0)
}

func (m *MockInteractions) UnlikePhoto(ctx context.Context, photoID, userID uint) error {
	return m.Called(ctx, photoID, userID).Error(0)
}

func (m *MockInteractions) AddComment(ctx context.Context, photoID, userID uint, content string) (*models.PhotoComment, error) {
	args := m.Called(ctx, photoID, userID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PhotoComment), args.Error(1)
}

func (m *MockInteractions) GetPhotoInteractions(ctx context.Context, photoID uint, userID *uint) (*models.PhotoInteractions, error) {
	args := m.Called(ctx, photoID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PhotoInteractions), args.Error(1)
}

func (m *MockInteractions) GetInteractionsForPhotos(ctx context.Context, photoIDs []uint, userID *uint) (map[uint]models.InteractionSummary, error) {
	args := m.Called(ctx, photoIDs, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]models.InteractionSummary), args.Error(1)
}

type MockNotifications struct{ mock.Mock }

func (m *MockNotifications) Create(ctx context.Context, in service.CreateNotificationInput) (*models.Notification, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *MockNotifications) FindAll(ctx context.Context) ([]models.Notification, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotifications) FindOne(ctx context.Context, id uint) (*models.Notification, error) {
	return m.one(m.Called(ctx, id))
}

func (m *MockNotifications) FindUnreadByUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotifications) MarkAsRead(ctx context.Context, id uint) (*models.Notification, error) {
	return m.one(m.Called(ctx, id))
}

func (m *MockNotifications) MarkAllAsRead(ctx context.Context) ([]models.Notification, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotifications) Update(ctx context.Context, id uint, in service.UpdateNotificationInput) (*models.Notification, error) {
	return m.one(m.Called(ctx, id, in))
}

func (m *MockNotifications) Remove(ctx context.Context, id uint) (*models.Notification, error) {
	return m.one(m.Called(ctx, id))
}

func (m *MockNotifications) one(args mock.Arguments) (*models.Notification, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}
