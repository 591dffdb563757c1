package service

import (
	"context"
	"sync"
	"time"

	"github.com/babbageLabs/insta-lite/internal/models"
	"github.com/babbageLabs/insta-lite/internal/repository"
)

type userRepoStub struct {
	getByIDFn           func(context.Context, uint) (*models.User, error)
	getByEmailFn        func(context.Context, string) (*models.User, error)
	createWithProfileFn func(context.Context, *models.User, *models.Profile) error
	listIDsFn           func(context.Context, int, int) ([]uint, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error {
	return s.createWithProfileFn(ctx, user, profile)
}
func (s *userRepoStub) ListIDs(ctx context.Context, limit, offset int) ([]uint, error) {
	return s.listIDsFn(ctx, limit, offset)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:           func(context.Context, uint) (*models.User, error) { return &models.User{}, nil },
		getByEmailFn:        func(context.Context, string) (*models.User, error) { return nil, nil },
		createWithProfileFn: func(context.Context, *models.User, *models.Profile) error { return nil },
		listIDsFn:           func(context.Context, int, int) ([]uint, error) { return nil, nil },
	}
}

type profileRepoStub struct {
	getByUserIDFn       func(context.Context, uint) (*models.Profile, error)
	getByUsernameFn     func(context.Context, string) (*models.Profile, error)
	createFn            func(context.Context, *models.Profile) error
	updateFn            func(context.Context, *models.Profile) error
	countExistingFn     func(context.Context, ...uint) (int64, error)
	summariesFn         func(context.Context, []uint) (map[uint]models.ProfileSummary, error)
	reconcileCountersFn func(context.Context) (int64, error)
}

func (s *profileRepoStub) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	return s.getByUserIDFn(ctx, userID)
}
func (s *profileRepoStub) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *profileRepoStub) Create(ctx context.Context, profile *models.Profile) error {
	return s.createFn(ctx, profile)
}
func (s *profileRepoStub) Update(ctx context.Context, profile *models.Profile) error {
	return s.updateFn(ctx, profile)
}
func (s *profileRepoStub) CountExisting(ctx context.Context, userIDs ...uint) (int64, error) {
	return s.countExistingFn(ctx, userIDs...)
}
func (s *profileRepoStub) Summaries(ctx context.Context, userIDs []uint) (map[uint]models.ProfileSummary, error) {
	return s.summariesFn(ctx, userIDs)
}
func (s *profileRepoStub) ReconcileCounters(ctx context.Context) (int64, error) {
	return s.reconcileCountersFn(ctx)
}

func noopProfileRepo() *profileRepoStub {
	return &profileRepoStub{
		getByUserIDFn: func(_ context.Context, id uint) (*models.Profile, error) {
			return &models.Profile{UserID: id, Username: "user"}, nil
		},
		getByUsernameFn: func(context.Context, string) (*models.Profile, error) { return nil, nil },
		createFn:        func(context.Context, *models.Profile) error { return nil },
		updateFn:        func(context.Context, *models.Profile) error { return nil },
		countExistingFn: func(_ context.Context, ids ...uint) (int64, error) { return int64(len(ids)), nil },
		summariesFn: func(_ context.Context, ids []uint) (map[uint]models.ProfileSummary, error) {
			out := make(map[uint]models.ProfileSummary, len(ids))
			for _, id := range ids {
				out[id] = models.ProfileSummary{UserID: id, Username: "user"}
			}
			return out, nil
		},
		reconcileCountersFn: func(context.Context) (int64, error) { return 0, nil },
	}
}

type followRepoStub struct {
	createFn         func(context.Context, uint, uint) (*models.Follow, error)
	deleteFn         func(context.Context, uint, uint) (bool, error)
	isFollowingFn    func(context.Context, uint, uint) (bool, error)
	countFollowersFn func(context.Context, uint) (int64, error)
	countFollowingFn func(context.Context, uint) (int64, error)
	listFollowersFn  func(context.Context, uint, int, int) ([]models.Follow, int64, error)
	listFollowingFn  func(context.Context, uint, int, int) ([]models.Follow, int64, error)
	followingIDsFn   func(context.Context, uint) ([]uint, error)
}

func (s *followRepoStub) Create(ctx context.Context, followerID, followingID uint) (*models.Follow, error) {
	return s.createFn(ctx, followerID, followingID)
}
func (s *followRepoStub) Delete(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.deleteFn(ctx, followerID, followingID)
}
func (s *followRepoStub) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.isFollowingFn(ctx, followerID, followingID)
}
func (s *followRepoStub) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	return s.countFollowersFn(ctx, userID)
}
func (s *followRepoStub) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return s.countFollowingFn(ctx, userID)
}
func (s *followRepoStub) ListFollowers(ctx context.Context, userID uint, offset, limit int) ([]models.Follow, int64, error) {
	return s.listFollowersFn(ctx, userID, offset, limit)
}
func (s *followRepoStub) ListFollowing(ctx context.Context, userID uint, offset, limit int) ([]models.Follow, int64, error) {
	return s.listFollowingFn(ctx, userID, offset, limit)
}
func (s *followRepoStub) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.followingIDsFn(ctx, userID)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		createFn: func(_ context.Context, a, b uint) (*models.Follow, error) {
			return &models.Follow{ID: 1, FollowerID: a, FollowingID: b}, nil
		},
		deleteFn:         func(context.Context, uint, uint) (bool, error) { return true, nil },
		isFollowingFn:    func(context.Context, uint, uint) (bool, error) { return false, nil },
		countFollowersFn: func(context.Context, uint) (int64, error) { return 0, nil },
		countFollowingFn: func(context.Context, uint) (int64, error) { return 0, nil },
		listFollowersFn:  func(context.Context, uint, int, int) ([]models.Follow, int64, error) { return []models.Follow{}, 0, nil },
		listFollowingFn:  func(context.Context, uint, int, int) ([]models.Follow, int64, error) { return []models.Follow{}, 0, nil },
		followingIDsFn:   func(context.Context, uint) ([]uint, error) { return nil, nil },
	}
}

type photoRepoStub struct {
	createFn          func(context.Context, *models.Photo) error
	getByIDFn         func(context.Context, uint) (*models.Photo, error)
	getByIDsFn        func(context.Context, []uint) (map[uint]*models.Photo, error)
	existsFn          func(context.Context, uint) (bool, error)
	listByUserFn      func(context.Context, uint) ([]models.Photo, error)
	deleteOwnedFn     func(context.Context, uint, uint) (*models.Photo, error)
	searchFn          func(context.Context, repository.PhotoSearchQuery) ([]models.PhotoSearchItem, int64, error)
	popularHashtagsFn func(context.Context, int) ([]models.HashtagCount, error)
}

func (s *photoRepoStub) Create(ctx context.Context, photo *models.Photo) error {
	return s.createFn(ctx, photo)
}
func (s *photoRepoStub) GetByID(ctx context.Context, id uint) (*models.Photo, error) {
	return s.getByIDFn(ctx, id)
}
func (s *photoRepoStub) GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.Photo, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *photoRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *photoRepoStub) ListByUser(ctx context.Context, userID uint) ([]models.Photo, error) {
	return s.listByUserFn(ctx, userID)
}
func (s *photoRepoStub) DeleteOwned(ctx context.Context, id, userID uint) (*models.Photo, error) {
	return s.deleteOwnedFn(ctx, id, userID)
}
func (s *photoRepoStub) Search(ctx context.Context, q repository.PhotoSearchQuery) ([]models.PhotoSearchItem, int64, error) {
	return s.searchFn(ctx, q)
}
func (s *photoRepoStub) PopularHashtags(ctx context.Context, limit int) ([]models.HashtagCount, error) {
	return s.popularHashtagsFn(ctx, limit)
}

func noopPhotoRepo() *photoRepoStub {
	return &photoRepoStub{
		createFn: func(_ context.Context, p *models.Photo) error { p.ID = 1; return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Photo, error) {
			return &models.Photo{ID: id, UserID: 1}, nil
		},
		getByIDsFn: func(_ context.Context, ids []uint) (map[uint]*models.Photo, error) {
			out := make(map[uint]*models.Photo, len(ids))
			for _, id := range ids {
				out[id] = &models.Photo{ID: id}
			}
			return out, nil
		},
		existsFn:      func(context.Context, uint) (bool, error) { return true, nil },
		listByUserFn:  func(context.Context, uint) ([]models.Photo, error) { return []models.Photo{}, nil },
		deleteOwnedFn: func(_ context.Context, id, userID uint) (*models.Photo, error) { return &models.Photo{ID: id, UserID: userID}, nil },
		searchFn: func(context.Context, repository.PhotoSearchQuery) ([]models.PhotoSearchItem, int64, error) {
			return nil, 0, nil
		},
		popularHashtagsFn: func(context.Context, int) ([]models.HashtagCount, error) { return []models.HashtagCount{}, nil },
	}
}

type interactionRepoStub struct {
	likeFn         func(context.Context, uint, uint) (bool, error)
	unlikeFn       func(context.Context, uint, uint) error
	addCommentFn   func(context.Context, *models.PhotoComment) error
	listCommentsFn func(context.Context, uint) ([]models.PhotoComment, error)
	countsFn       func(context.Context, []uint) (map[uint]models.InteractionSummary, error)
	likedByFn      func(context.Context, []uint, uint) (map[uint]bool, error)
}

func (s *interactionRepoStub) Like(ctx context.Context, photoID, userID uint) (bool, error) {
	return s.likeFn(ctx, photoID, userID)
}
func (s *interactionRepoStub) Unlike(ctx context.Context, photoID, userID uint) error {
	return s.unlikeFn(ctx, photoID, userID)
}
func (s *interactionRepoStub) AddComment(ctx context.Context, comment *models.PhotoComment) error {
	return s.addCommentFn(ctx, comment)
}
func (s *interactionRepoStub) ListComments(ctx context.Context, photoID uint) ([]models.PhotoComment, error) {
	return s.listCommentsFn(ctx, photoID)
}
func (s *interactionRepoStub) Counts(ctx context.Context, photoIDs []uint) (map[uint]models.InteractionSummary, error) {
	return s.countsFn(ctx, photoIDs)
}
func (s *interactionRepoStub) LikedBy(ctx context.Context, photoIDs []uint, userID uint) (map[uint]bool, error) {
	return s.likedByFn(ctx, photoIDs, userID)
}

func noopInteractionRepo() *interactionRepoStub {
	return &interactionRepoStub{
		likeFn:         func(context.Context, uint, uint) (bool, error) { return true, nil },
		unlikeFn:       func(context.Context, uint, uint) error { return nil },
		addCommentFn:   func(_ context.Context, c *models.PhotoComment) error { c.ID = 1; return nil },
		listCommentsFn: func(context.Context, uint) ([]models.PhotoComment, error) { return nil, nil },
		countsFn: func(context.Context, []uint) (map[uint]models.InteractionSummary, error) {
			return map[uint]models.InteractionSummary{}, nil
		},
		likedByFn: func(context.Context, []uint, uint) (map[uint]bool, error) { return map[uint]bool{}, nil },
	}
}

type feedRepoStub struct {
	fanoutFn                 func(context.Context, uint, uint, time.Time, int) (*repository.FanoutResult, error)
	fanoutBatchFn            func(context.Context, uint, int) (bool, error)
	listFeedFn               func(context.Context, uint, []uint, *repository.FeedCursor, int) ([]models.FeedItem, error)
	getOutboxFn              func(context.Context, uint) (*models.FeedOutbox, error)
	listPendingOutboxFn      func(context.Context, int) ([]models.FeedOutbox, error)
	markOutboxDispatchedFn   func(context.Context, uint) (bool, error)
	recordOutboxFailureFn    func(context.Context, uint, error, int) (*models.FeedOutbox, error)
	requeueStaleDispatchedFn func(context.Context, time.Duration) (int64, error)
}

func (s *feedRepoStub) Fanout(ctx context.Context, photoID, creatorID uint, createdAt time.Time, syncLimit int) (*repository.FanoutResult, error) {
	return s.fanoutFn(ctx, photoID, creatorID, createdAt, syncLimit)
}
func (s *feedRepoStub) FanoutBatch(ctx context.Context, outboxID uint, batchSize int) (bool, error) {
	return s.fanoutBatchFn(ctx, outboxID, batchSize)
}
func (s *feedRepoStub) ListFeed(ctx context.Context, userID uint, followedIDs []uint, cursor *repository.FeedCursor, limit int) ([]models.FeedItem, error) {
	return s.listFeedFn(ctx, userID, followedIDs, cursor, limit)
}
func (s *feedRepoStub) GetOutbox(ctx context.Context, id uint) (*models.FeedOutbox, error) {
	return s.getOutboxFn(ctx, id)
}
func (s *feedRepoStub) ListPendingOutbox(ctx context.Context, limit int) ([]models.FeedOutbox, error) {
	return s.listPendingOutboxFn(ctx, limit)
}
func (s *feedRepoStub) MarkOutboxDispatched(ctx context.Context, id uint) (bool, error) {
	return s.markOutboxDispatchedFn(ctx, id)
}
func (s *feedRepoStub) RecordOutboxFailure(ctx context.Context, id uint, cause error, maxRetries int) (*models.FeedOutbox, error) {
	return s.recordOutboxFailureFn(ctx, id, cause, maxRetries)
}
func (s *feedRepoStub) RequeueStaleDispatched(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.requeueStaleDispatchedFn(ctx, olderThan)
}

func noopFeedRepo() *feedRepoStub {
	return &feedRepoStub{
		fanoutFn: func(context.Context, uint, uint, time.Time, int) (*repository.FanoutResult, error) {
			return &repository.FanoutResult{Written: 1}, nil
		},
		fanoutBatchFn: func(context.Context, uint, int) (bool, error) { return true, nil },
		listFeedFn: func(context.Context, uint, []uint, *repository.FeedCursor, int) ([]models.FeedItem, error) {
			return []models.FeedItem{}, nil
		},
		getOutboxFn:            func(_ context.Context, id uint) (*models.FeedOutbox, error) { return &models.FeedOutbox{ID: id}, nil },
		listPendingOutboxFn:    func(context.Context, int) ([]models.FeedOutbox, error) { return nil, nil },
		markOutboxDispatchedFn: func(context.Context, uint) (bool, error) { return true, nil },
		recordOutboxFailureFn: func(_ context.Context, id uint, _ error, _ int) (*models.FeedOutbox, error) {
			return &models.FeedOutbox{ID: id, Retry: 1, Status: models.OutboxPending}, nil
		},
		requeueStaleDispatchedFn: func(context.Context, time.Duration) (int64, error) { return 0, nil },
	}
}

type notificationRepoStub struct {
	createFn           func(context.Context, *models.Notification) error
	findAllFn          func(context.Context) ([]models.Notification, error)
	findByIDFn         func(context.Context, uint) (*models.Notification, error)
	findUnreadByUserFn func(context.Context, uint) ([]models.Notification, error)
	markAsReadFn       func(context.Context, uint) (*models.Notification, error)
	markAllAsReadFn    func(context.Context) ([]models.Notification, error)
	updateFn           func(context.Context, uint, map[string]any) (*models.Notification, error)
	deleteFn           func(context.Context, uint) (*models.Notification, error)
}

func (s *notificationRepoStub) Create(ctx context.Context, n *models.Notification) error {
	return s.createFn(ctx, n)
}
func (s *notificationRepoStub) FindAll(ctx context.Context) ([]models.Notification, error) {
	return s.findAllFn(ctx)
}
func (s *notificationRepoStub) FindByID(ctx context.Context, id uint) (*models.Notification, error) {
	return s.findByIDFn(ctx, id)
}
func (s *notificationRepoStub) FindUnreadByUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	return s.findUnreadByUserFn(ctx, userID)
}
func (s *notificationRepoStub) MarkAsRead(ctx context.Context, id uint) (*models.Notification, error) {
	return s.markAsReadFn(ctx, id)
}
func (s *notificationRepoStub) MarkAllAsRead(ctx context.Context) ([]models.Notification, error) {
	return s.markAllAsReadFn(ctx)
}
func (s *notificationRepoStub) Update(ctx context.Context, id uint, patch map[string]any) (*models.Notification, error) {
	return s.updateFn(ctx, id, patch)
}
func (s *notificationRepoStub) Delete(ctx context.Context, id uint) (*models.Notification, error) {
	return s.deleteFn(ctx, id)
}

func noopNotificationRepo() *notificationRepoStub {
	return &notificationRepoStub{
		createFn:           func(_ context.Context, n *models.Notification) error { n.ID = 1; return nil },
		findAllFn:          func(context.Context) ([]models.Notification, error) { return []models.Notification{}, nil },
		findByIDFn:         func(context.Context, uint) (*models.Notification, error) { return nil, nil },
		findUnreadByUserFn: func(context.Context, uint) ([]models.Notification, error) { return []models.Notification{}, nil },
		markAsReadFn:       func(context.Context, uint) (*models.Notification, error) { return nil, nil },
		markAllAsReadFn:    func(context.Context) ([]models.Notification, error) { return []models.Notification{}, nil },
		updateFn:           func(context.Context, uint, map[string]any) (*models.Notification, error) { return nil, nil },
		deleteFn:           func(context.Context, uint) (*models.Notification, error) { return nil, nil },
	}
}

type publishedEvent struct {
	UserID  uint
	All     bool
	Type    string
	Payload any
}

type publisherStub struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *publisherStub) PublishUser(_ context.Context, userID uint, eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{UserID: userID, Type: eventType, Payload: payload})
}

func (p *publisherStub) PublishAll(_ context.Context, eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{All: true, Type: eventType, Payload: payload})
}

func (p *publisherStub) recipients() []uint {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]uint, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.UserID)
	}
	return out
}

type notificationCreatorStub struct {
	createFn func(context.Context, CreateNotificationInput) (*models.Notification, error)
}

func (s *notificationCreatorStub) Create(ctx context.Context, in CreateNotificationInput) (*models.Notification, error) {
	return s.createFn(ctx, in)
}
