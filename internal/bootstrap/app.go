package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/babbageLabs/insta-lite/internal/config"
	"github.com/babbageLabs/insta-lite/internal/featureflags"
	"github.com/babbageLabs/insta-lite/internal/middleware"
	"github.com/babbageLabs/insta-lite/internal/notifications"
	"github.com/babbageLabs/insta-lite/internal/queue"
	"github.com/babbageLabs/insta-lite/internal/repository"
	"github.com/babbageLabs/insta-lite/internal/service"
	"github.com/babbageLabs/insta-lite/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Repositories groups the persistence layer.
type Repositories struct {
	Users         repository.UserRepository
	Profiles      repository.ProfileRepository
	Follows       repository.FollowRepository
	Photos        repository.PhotoRepository
	Interactions  repository.InteractionRepository
	Feed          repository.FeedRepository
	Notifications repository.NotificationRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:         repository.NewUserRepository(db),
		Profiles:      repository.NewProfileRepository(db),
		Follows:       repository.NewFollowRepository(db),
		Photos:        repository.NewPhotoRepository(db),
		Interactions:  repository.NewInteractionRepository(db),
		Feed:          repository.NewFeedRepository(db),
		Notifications: repository.NewNotificationRepository(db),
	}
}

// App is the assembled service graph.
type App struct {
	Config *config.Config
	Repos  Repositories

	Flags     *featureflags.Manager
	Tokens    *middleware.TokenManager
	Hub       *notifications.Hub
	Notifier  *notifications.Notifier
	Publisher notifications.Publisher
	Store     storage.BlobStore
	Producer  queue.FanoutPublisher

	Auth          *service.AuthService
	Profiles      *service.ProfileService
	Follows       *service.FollowService
	Notifications *service.NotificationService
	Feed          *service.FeedService
	Photos        *service.PhotoService
	Search        *service.SearchService
	Interactions  *service.InteractionService
	Relay         *service.FanoutRelay
}

// BuildOptions override infrastructure pieces, mostly for tests.
type BuildOptions struct {
	Store storage.BlobStore
	// Producer replaces the Kafka producer built from KAFKA_BROKERS.
	Producer queue.FanoutPublisher
}

// Build wires repositories, infrastructure adapters and services.
func Build(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client, opts BuildOptions) (*App, error) {
	app := &App{
		Config:   cfg,
		Repos:    NewRepositories(db),
		Flags:    featureflags.NewManager(cfg.FeatureFlags),
		Tokens:   middleware.NewTokenManager(cfg),
		Hub:      notifications.NewHub(),
		Notifier: notifications.NewNotifier(rdb),
		Store:    opts.Store,
		Producer: opts.Producer,
	}
	app.Publisher = notifications.NewHubPublisher(app.Hub, app.Notifier)
	if bad := app.Flags.Invalid(); len(bad) > 0 {
		middleware.Logger.Warn("ignoring malformed FEATURE_FLAGS entries", slog.Any("entries", bad))
	}

	if app.Store == nil {
		store, err := storage.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("blob store: %w", err)
		}
		app.Store = store
	}

	if app.Producer == nil {
		if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
			producer, err := queue.NewKafkaProducer(queue.KafkaConfig{
				Brokers: brokers,
				Topic:   cfg.KafkaFanoutTopic,
			})
			if err != nil {
				return nil, fmt.Errorf("kafka producer: %w", err)
			}
			app.Producer = producer
			middleware.Logger.Info("deferred fan-out goes through Kafka",
				slog.String("topic", cfg.KafkaFanoutTopic))
		}
	}

	r := app.Repos
	app.Auth = service.NewAuthService(r.Users, app.Tokens)
	app.Profiles = service.NewProfileService(r.Profiles)
	app.Notifications = service.NewNotificationService(r.Notifications, app.Publisher)
	app.Follows = service.NewFollowService(r.Follows, r.Profiles, app.Notifications, app.Flags)
	app.Feed = service.NewFeedService(r.Feed, r.Follows, r.Photos, app.Publisher, cfg)
	app.Photos = service.NewPhotoService(r.Photos, app.Store, app.Feed, cfg)
	app.Search = service.NewSearchService(r.Photos)
	app.Interactions = service.NewInteractionService(r.Interactions, r.Photos)
	app.Relay = service.NewFanoutRelay(r.Feed, app.Feed, app.Producer)

	return app, nil
}

// Close releases adapters the App created.
func (a *App) Close() error {
	if a.Producer != nil {
		return a.Producer.Close()
	}
	return nil
}
