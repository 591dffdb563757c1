package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/babbageLabs/insta-lite/docs" // swagger docs
	"github.com/babbageLabs/insta-lite/internal/bootstrap"
	"github.com/babbageLabs/insta-lite/internal/config"
	"github.com/babbageLabs/insta-lite/internal/featureflags"
	"github.com/babbageLabs/insta-lite/internal/middleware"
	"github.com/babbageLabs/insta-lite/internal/models"
	"github.com/babbageLabs/insta-lite/internal/notifications"
	"github.com/babbageLabs/insta-lite/internal/service"
	"github.com/babbageLabs/insta-lite/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	limiter        *middleware.RateLimiter
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	graph        *bootstrap.App
	featureFlags *featureflags.Manager
	hub          *notifications.Hub
	notifier     *notifications.Notifier
	relay        *service.FanoutRelay
	mediaRoot    string

	auth          AuthAPI
	profiles      ProfileAPI
	follows       FollowAPI
	feed          FeedAPI
	photos        PhotoAPI
	search        SearchAPI
	interactions  InteractionAPI
	notifications NotificationAPI
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, *bootstrap.Runtime, error) {
	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{ApplySchema: true, ServiceName: "insta-lite-api"})
	if err != nil {
		return nil, nil, err
	}
	srv, err := NewServerWithDeps(cfg, rt.DB, rt.Redis, bootstrap.BuildOptions{})
	if err != nil {
		_ = rt.Close(context.Background())
		return nil, nil, err
	}
	return srv, rt, nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, opts bootstrap.BuildOptions) (*Server, error) {
	graph, err := bootstrap.Build(context.Background(), cfg, db, redisClient, opts)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("insta-lite-api"),
		limiter:        middleware.NewRateLimiter(redisClient, cfg.Env),
		graph:          graph,
		featureFlags:   graph.Flags,
		hub:            graph.Hub,
		notifier:       graph.Notifier,
		relay:          graph.Relay,
		auth:           graph.Auth,
		profiles:       graph.Profiles,
		follows:        graph.Follows,
		feed:           graph.Feed,
		photos:         graph.Photos,
		search:         graph.Search,
		interactions:   graph.Interactions,
		notifications:  graph.Notifications,
	}
	if disk, ok := graph.Store.(*storage.DiskStore); ok {
		s.mediaRoot = disk.Root()
	}
	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		ExposeHeaders:    "X-Trace-ID, X-Request-ID",
		AllowCredentials: origins != "*",
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "insta-lite metrics",
	}))

	app.Get("/swagger/*", swagger.HandlerDefault)

	if s.mediaRoot != "" {
		app.Static("/media", s.mediaRoot, fiber.Static{MaxAge: 86400})
	}

	auth := api.Group("/auth")
	auth.Post("/signup", s.limiter.Handler(middleware.SignupRule), s.Signup)
	auth.Post("/login", s.limiter.Handler(middleware.LoginRule), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	authed := s.AuthRequired()

	api.Get("/feature-flags", authed, s.GetFeatureFlags)

	profile := api.Group("/profile", authed)
	profile.Post("/", s.CreateProfile)
	profile.Get("/me", s.GetMyProfile)
	profile.Put("/me", s.UpdateMyProfile)
	profile.Get("/:userId", s.GetProfile)

	follow := api.Group("/follow", authed)
	follow.Get("/followers/:userId", s.GetFollowers)
	follow.Get("/following/:userId", s.GetFollowing)
	follow.Get("/stats/:userId", s.GetFollowStats)
	follow.Post("/:userId", s.limiter.Handler(middleware.FollowRule), s.FollowUser)
	follow.Delete("/:userId", s.UnfollowUser)

	api.Get("/feed", authed, s.GetFeed)

	// Specific /photos routes must precede /:id.
	photos := api.Group("/photos", authed)
	photos.Post("/upload", s.limiter.Handler(middleware.UploadRule), s.UploadPhoto)
	photos.Get("/", s.ListPhotos)
	photos.Get("/search", s.limiter.Handler(middleware.SearchRule), s.SearchPhotos)
	photos.Get("/hashtags/popular", s.PopularHashtags)
	photos.Post("/interactions", s.GetInteractionsForPhotos)
	photos.Post("/:id/like", s.LikePhoto)
	photos.Delete("/:id/like", s.UnlikePhoto)
	photos.Post("/:id/comments", s.limiter.Handler(middleware.CommentRule), s.AddComment)
	photos.Get("/:id/interactions", s.GetPhotoInteractions)
	photos.Get("/:id", s.GetPhoto)
	photos.Delete("/:id", s.DeletePhoto)

	notifs := api.Group("/notifications", authed)
	notifs.Post("/", s.CreateNotification)
	notifs.Get("/", s.ListNotifications)
	notifs.Get("/unread", s.ListUnreadNotifications)
	notifs.Patch("/mark-all-read", s.MarkAllNotificationsRead)
	notifs.Patch("/:id/read", s.MarkNotificationRead)
	notifs.Get("/:id", s.GetNotification)
	notifs.Patch("/:id", s.UpdateNotification)
	notifs.Delete("/:id", s.DeleteNotification)

	api.Get("/ws", authed, s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database, Redis and blob store health. Redis is
// optional: an absent client reads as "disabled" and does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.db == nil {
		dbStatus = "unhealthy"
	} else if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	storageStatus := "healthy"
	if s.graph == nil || s.graph.Store == nil {
		storageStatus = "unhealthy"
	} else if err := s.graph.Store.Health(ctx); err != nil {
		storageStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" || storageStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"storage":  storageStatus,
		},
		"time": time.Now(),
	})
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "insta-lite API",
		BodyLimit: int(s.uploadLimit()) + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
				slog.String("path", c.Path()), slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func (s *Server) uploadLimit() int64 {
	if s.photos != nil {
		return s.photos.MaxUploadSizeBytes()
	}
	return service.DefaultPhotoMaxUploadSizeMB * 1024 * 1024
}

// StartBackground wires the hub to Redis pub/sub and, when the
// inline_fanout_relay flag is on, runs the outbox relay in-process.
func (s *Server) StartBackground() {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	if s.notifier != nil && s.notifier.Enabled() {
		go func() {
			if err := s.hub.StartWiring(ctx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start hub wiring",
					slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
			}
		}()
	}

	if s.relay != nil && s.featureFlags.Enabled(featureflags.FlagInlineFanoutRelay, 0) {
		interval := service.DefaultRelayInterval
		if s.config.FanoutRelayIntervalSeconds > 0 {
			interval = time.Duration(s.config.FanoutRelayIntervalSeconds) * time.Second
		}
		middleware.Logger.Info("inline fan-out relay enabled", slog.Duration("interval", interval))
		go s.relay.Run(ctx, interval)
	}
}

// Start builds the app, starts background work and listens on PORT.
func (s *Server) Start() error {
	s.app = s.NewApp()
	s.StartBackground()

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops background work, the HTTP server and realtime clients.
// Connections owned by the runtime are closed by the caller.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}
	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.hub.Name(), err))
		}
	}
	if s.graph != nil {
		if err := s.graph.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close adapters: %w", err))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return errors.Join(errs...)
}
