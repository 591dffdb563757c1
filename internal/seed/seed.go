package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/babbageLabs/insta-lite/internal/cache"
	"github.com/babbageLabs/insta-lite/internal/database"
	"github.com/babbageLabs/insta-lite/internal/middleware"
	"github.com/babbageLabs/insta-lite/internal/models"
	"github.com/babbageLabs/insta-lite/internal/repository"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers int
	// NumPhotos is the total across all users.
	NumPhotos int
	// FollowsPerUser is an upper bound; a user never follows themselves.
	FollowsPerUser   int
	LikesPerPhoto    int
	CommentsPerPhoto int
	// NotificationsPerUser is the number of notifications each user receives.
	NotificationsPerUser int
	ShouldClean          bool

	// SkipBcrypt stores Password verbatim. Tests only.
	SkipBcrypt bool
	Password   string
	MaxDays    int
	RandSeed   int64
}

// FeedWriter fans a new photo out to followers' feeds.
type FeedWriter interface {
	AddPhotoToFeed(ctx context.Context, photo *models.Photo) (int, error)
}

// Result summarizes a seeding run.
type Result struct {
	UserIDs       []uint
	Follows       int
	Photos        int
	Likes         int
	Comments      int
	Notifications int
	FeedRows      int
}

// Seeder writes generated data through the repositories, so counters and
// feeds stay consistent with what the API would have produced.
type Seeder struct {
	db      *gorm.DB
	repos   Repositories
	feed    FeedWriter
	factory *Factory
	opts    Options
	logger  *slog.Logger
}

// Repositories are the stores the seeder writes through.
type Repositories struct {
	Users         repository.UserRepository
	Follows       repository.FollowRepository
	Photos        repository.PhotoRepository
	Interactions  repository.InteractionRepository
	Notifications repository.NotificationRepository
}

// NewRepositories builds the seeder stores over db.
func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:         repository.NewUserRepository(db),
		Follows:       repository.NewFollowRepository(db),
		Photos:        repository.NewPhotoRepository(db),
		Interactions:  repository.NewInteractionRepository(db),
		Notifications: repository.NewNotificationRepository(db),
	}
}

// NewSeeder creates a Seeder. feed may be nil, in which case photos are not
// fanned out.
func NewSeeder(db *gorm.DB, repos Repositories, feed FeedWriter, opts Options) (*Seeder, error) {
	factory, err := NewFactory(opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{
		db:      db,
		repos:   repos,
		feed:    feed,
		factory: factory,
		opts:    opts,
		logger:  middleware.Component("seed"),
	}, nil
}

// Run populates the database per the seeder options.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	s.logger.Info("starting database seeding",
		slog.Int("users", s.opts.NumUsers),
		slog.Int("photos", s.opts.NumPhotos))

	if s.opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	res := &Result{}
	userIDs, err := s.SeedUsers(ctx, s.opts.NumUsers)
	if err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}
	res.UserIDs = userIDs

	if res.Follows, err = s.SeedFollows(ctx, userIDs, s.opts.FollowsPerUser); err != nil {
		return nil, fmt.Errorf("seed follows: %w", err)
	}

	photos, feedRows, err := s.SeedPhotos(ctx, userIDs, s.opts.NumPhotos)
	if err != nil {
		return nil, fmt.Errorf("seed photos: %w", err)
	}
	res.Photos, res.FeedRows = len(photos), feedRows

	if res.Likes, res.Comments, err = s.SeedInteractions(ctx, userIDs, photos); err != nil {
		return nil, fmt.Errorf("seed interactions: %w", err)
	}

	if res.Notifications, err = s.SeedNotifications(ctx, userIDs, s.opts.NotificationsPerUser); err != nil {
		return nil, fmt.Errorf("seed notifications: %w", err)
	}

	s.logger.Info("database seeding completed",
		slog.Int("users", len(res.UserIDs)),
		slog.Int("follows", res.Follows),
		slog.Int("photos", res.Photos),
		slog.Int("feed_rows", res.FeedRows),
		slog.Int("likes", res.Likes),
		slog.Int("comments", res.Comments),
		slog.Int("notifications", res.Notifications))
	return res, nil
}

// ClearAll deletes every row of the application tables, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	s.logger.Info("clearing existing data")
	all := database.PersistentModels()
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for i := len(all) - 1; i >= 0; i-- {
		if err := tx.Delete(all[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// SeedUsers creates count users with profiles. Conflicting usernames are
// skipped.
func (s *Seeder) SeedUsers(ctx context.Context, count int) ([]uint, error) {
	ids := make([]uint, 0, count)
	for i := 0; i < count; i++ {
		user, profile := s.factory.BuildUser(i)
		if err := s.repos.Users.CreateWithProfile(ctx, user, profile); err != nil {
			if models.HasCode(err, models.CodeConflict) {
				s.logger.Warn("skipping duplicate seed user", slog.String("username", profile.Username))
				continue
			}
			return ids, err
		}
		ids = append(ids, user.ID)
		if (i+1)%100 == 0 {
			s.logger.Info("created users", slog.Int("count", i+1))
		}
	}
	return ids, nil
}

// SeedFollows gives every user up to perUser random followees.
func (s *Seeder) SeedFollows(ctx context.Context, userIDs []uint, perUser int) (int, error) {
	if len(userIDs) < 2 || perUser <= 0 {
		return 0, nil
	}
	created := 0
	for _, follower := range userIDs {
		for _, idx := range s.factory.rng.Perm(len(userIDs))[:min(perUser+1, len(userIDs))] {
			followee := userIDs[idx]
			if followee == follower {
				continue
			}
			follow, err := s.repos.Follows.Create(ctx, follower, followee)
			if err != nil {
				return created, err
			}
			if follow != nil {
				created++
				cache.InvalidateProfiles(ctx, follower, followee)
			}
		}
	}
	return created, nil
}

// SeedPhotos spreads count photos across users and fans each one out.
func (s *Seeder) SeedPhotos(ctx context.Context, userIDs []uint, count int) ([]*models.Photo, int, error) {
	if len(userIDs) == 0 || count <= 0 {
		return nil, 0, nil
	}
	photos := make([]*models.Photo, 0, count)
	feedRows := 0
	for i := 0; i < count; i++ {
		photo := s.factory.BuildPhoto(userIDs[s.factory.rng.Intn(len(userIDs))])
		if err := s.repos.Photos.Create(ctx, photo); err != nil {
			return photos, feedRows, err
		}
		photos = append(photos, photo)

		if s.feed != nil {
			n, err := s.feed.AddPhotoToFeed(ctx, photo)
			if err != nil {
				return photos, feedRows, fmt.Errorf("fan out photo %d: %w", photo.ID, err)
			}
			feedRows += n
		}
	}
	return photos, feedRows, nil
}

// SeedInteractions adds up to LikesPerPhoto likes and CommentsPerPhoto
// comments from random users to each photo.
func (s *Seeder) SeedInteractions(ctx context.Context, userIDs []uint, photos []*models.Photo) (int, int, error) {
	if len(userIDs) == 0 {
		return 0, 0, nil
	}
	likes, comments := 0, 0
	for _, photo := range photos {
		n := min(s.opts.LikesPerPhoto, len(userIDs))
		for _, idx := range s.factory.rng.Perm(len(userIDs))[:n] {
			liked, err := s.repos.Interactions.Like(ctx, photo.ID, userIDs[idx])
			if err != nil {
				return likes, comments, err
			}
			if liked {
				likes++
			}
		}
		for c := 0; c < s.opts.CommentsPerPhoto; c++ {
			author := userIDs[s.factory.rng.Intn(len(userIDs))]
			if err := s.repos.Interactions.AddComment(ctx, s.factory.BuildComment(photo.ID, author)); err != nil {
				return likes, comments, err
			}
			comments++
		}
	}
	return likes, comments, nil
}

// SeedNotifications gives every user perUser notifications.
func (s *Seeder) SeedNotifications(ctx context.Context, userIDs []uint, perUser int) (int, error) {
	created := 0
	for _, uid := range userIDs {
		for i := 0; i < perUser; i++ {
			if err := s.repos.Notifications.Create(ctx, s.factory.BuildNotification(uid)); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

// lookupUser resolves a username to its user id.
func (s *Seeder) lookupUser(ctx context.Context, username string) (uint, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).Select("user_id").Where("username = ?", username).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, models.NewNotFoundError("Profile", username)
	}
	if err != nil {
		return 0, err
	}
	return profile.UserID, nil
}
