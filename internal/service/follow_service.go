package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/babbageLabs/insta-lite/internal/cache"
	"github.com/babbageLabs/insta-lite/internal/featureflags"
	"github.com/babbageLabs/insta-lite/internal/middleware"
	"github.com/babbageLabs/insta-lite/internal/models"
	"github.com/babbageLabs/insta-lite/internal/observability"
	"github.com/babbageLabs/insta-lite/internal/repository"
)

// NotificationCreator is the slice of NotificationService other services use.
type NotificationCreator interface {
	Create(ctx context.Context, in CreateNotificationInput) (*models.Notification, error)
}

// FollowService manages the follow graph.
type FollowService struct {
	followRepo    repository.FollowRepository
	profileRepo   repository.ProfileRepository
	notifications NotificationCreator
	flags         *featureflags.Manager
}

// NewFollowService returns a new FollowService. notifications and flags may be nil.
func NewFollowService(
	followRepo repository.FollowRepository,
	profileRepo repository.ProfileRepository,
	notifications NotificationCreator,
	flags *featureflags.Manager,
) *FollowService {
	return &FollowService{
		followRepo:    followRepo,
		profileRepo:   profileRepo,
		notifications: notifications,
		flags:         flags,
	}
}

// FollowUser creates the edge followerID -> followingID. An existing edge is
// reported by the unique constraint as CONFLICT.
func (s *FollowService) FollowUser(ctx context.Context, followerID, followingID uint) (*models.Follow, error) {
	span, ctx := observability.NewSpan(ctx, "FollowService.FollowUser",
		observability.UserAttr("follower_id", followerID),
		observability.UserAttr("following_id", followingID))
	defer span.End()

	if followerID == followingID {
		return nil, models.NewInvalidOperationError("Cannot follow yourself")
	}
	if err := s.requireProfiles(ctx, followerID, followingID); err != nil {
		return nil, err
	}

	follow, err := s.followRepo.Create(ctx, followerID, followingID)
	if err != nil {
		return nil, span.Fail(err)
	}
	if follow == nil {
		return nil, models.NewConflictError("Already following this user")
	}
	cache.InvalidateProfiles(ctx, followerID, followingID)

	s.notifyNewFollower(ctx, followerID, followingID)
	return follow, nil
}

// UnfollowUser removes the edge, NOT_FOUND when there is none.
func (s *FollowService) UnfollowUser(ctx context.Context, followerID, followingID uint) error {
	span, ctx := observability.NewSpan(ctx, "FollowService.UnfollowUser",
		observability.UserAttr("follower_id", followerID),
		observability.UserAttr("following_id", followingID))
	defer span.End()

	deleted, err := s.followRepo.Delete(ctx, followerID, followingID)
	if err != nil {
		return span.Fail(err)
	}
	if !deleted {
		return &models.AppError{Code: models.CodeNotFound, Message: "Not following this user"}
	}
	cache.InvalidateProfiles(ctx, followerID, followingID)
	return nil
}

// GetFollowers lists the users following userID, newest edge first.
func (s *FollowService) GetFollowers(ctx context.Context, userID uint, page, limit int) (*models.FollowPage, error) {
	page, limit = normalizePage(page, limit)
	items, total, err := s.followRepo.ListFollowers(ctx, userID, pageOffset(page, limit), limit)
	if err != nil {
		return nil, err
	}
	if err := s.attachSummaries(ctx, items, func(f *models.Follow) uint { return f.FollowerID },
		func(f *models.Follow, p *models.ProfileSummary) { f.Follower = p }); err != nil {
		return nil, err
	}
	return &models.FollowPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// GetFollowing lists the users userID follows, newest edge first.
func (s *FollowService) GetFollowing(ctx context.Context, userID uint, page, limit int) (*models.FollowPage, error) {
	page, limit = normalizePage(page, limit)
	items, total, err := s.followRepo.ListFollowing(ctx, userID, pageOffset(page, limit), limit)
	if err != nil {
		return nil, err
	}
	if err := s.attachSummaries(ctx, items, func(f *models.Follow) uint { return f.FollowingID },
		func(f *models.Follow, p *models.ProfileSummary) { f.Following = p }); err != nil {
		return nil, err
	}
	return &models.FollowPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// GetFollowStats counts edges live. IsFollowing is false without a caller.
func (s *FollowService) GetFollowStats(ctx context.Context, userID uint, currentUserID *uint) (*models.FollowStats, error) {
	followers, err := s.followRepo.CountFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.followRepo.CountFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &models.FollowStats{FollowersCount: followers, FollowingCount: following}
	if currentUserID != nil && *currentUserID != userID {
		stats.IsFollowing, err = s.followRepo.IsFollowing(ctx, *currentUserID, userID)
		if err != nil {
			return nil, err
		}
	}
	return stats, nil
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.followRepo.IsFollowing(ctx, followerID, followingID)
}

func (s *FollowService) requireProfiles(ctx context.Context, followerID, followingID uint) error {
	n, err := s.profileRepo.CountExisting(ctx, followerID, followingID)
	if err != nil {
		return err
	}
	if n == 2 {
		return nil
	}
	target, err := s.profileRepo.CountExisting(ctx, followingID)
	if err != nil {
		return err
	}
	if target == 0 {
		return models.NewNotFoundError("User", followingID)
	}
	return models.NewNotFoundError("User", followerID)
}

func (s *FollowService) attachSummaries(
	ctx context.Context,
	items []models.Follow,
	idOf func(*models.Follow) uint,
	set func(*models.Follow, *models.ProfileSummary),
) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(items))
	for i := range items {
		ids = append(ids, idOf(&items[i]))
	}
	summaries, err := s.profileRepo.Summaries(ctx, ids)
	if err != nil {
		return err
	}
	for i := range items {
		if p, ok := summaries[idOf(&items[i])]; ok {
			set(&items[i], &p)
		}
	}
	return nil
}

func (s *FollowService) notifyNewFollower(ctx context.Context, followerID, followingID uint) {
	if s.notifications == nil || !s.flags.Enabled(featureflags.FlagFollowNotifications, followingID) {
		return
	}

	name := "Someone"
	if summaries, err := s.profileRepo.Summaries(ctx, []uint{followerID}); err == nil {
		if p, ok := summaries[followerID]; ok && p.Username != "" {
			name = p.Username
		}
	}

	_, err := s.notifications.Create(ctx, CreateNotificationInput{
		Title:   "New follower",
		Message: fmt.Sprintf("%s started following you", name),
		Type:    models.NotificationSuccess,
		UserID:  &followingID,
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to create follow notification",
			slog.Uint64("follower_id", uint64(followerID)),
			slog.Uint64("following_id", uint64(followingID)),
			slog.String("error", err.Error()))
	}
}
