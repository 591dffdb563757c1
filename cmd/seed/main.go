// Command main runs the database seeder for insta-lite.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"

	"github.com/babbageLabs/insta-lite/internal/bootstrap"
	"github.com/babbageLabs/insta-lite/internal/config"
	"github.com/babbageLabs/insta-lite/internal/middleware"
	"github.com/babbageLabs/insta-lite/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPhotos := flag.Int("photos", 200, "Number of photos to create")
	follows := flag.Int("follows", 10, "Maximum follows per user")
	likes := flag.Int("likes", 5, "Maximum likes per photo")
	comments := flag.Int("comments", 2, "Comments per photo")
	notifs := flag.Int("notifications", 3, "Notifications per user")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	scenario := flag.String("scenario", "", "Apply a YAML scenario file (ignores the count flags)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{ApplySchema: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	ctx := context.Background()
	defer func() { _ = rt.Close(ctx) }()

	app, err := bootstrap.Build(ctx, cfg, rt.DB, rt.Redis, bootstrap.BuildOptions{})
	if err != nil {
		log.Fatalf("Failed to build services: %v", err)
	}
	defer func() { _ = app.Close() }()

	opts := seed.Options{
		NumUsers:             *numUsers,
		NumPhotos:            *numPhotos,
		FollowsPerUser:       *follows,
		LikesPerPhoto:        *likes,
		CommentsPerPhoto:     *comments,
		NotificationsPerUser: *notifs,
		ShouldClean:          *shouldClean && *scenario == "",
	}
	s, err := seed.NewSeeder(rt.DB, seed.NewRepositories(rt.DB), app.Feed, opts)
	if err != nil {
		log.Fatalf("Failed to create seeder: %v", err)
	}

	if *scenario != "" {
		sc, err := seed.LoadScenario(*scenario)
		if err != nil {
			log.Fatalf("Failed to load scenario: %v", err)
		}
		ids, err := s.ApplyScenario(ctx, sc)
		if err != nil {
			log.Fatalf("Scenario seeding failed: %v", err)
		}
		for name, id := range ids {
			middleware.Logger.Info("scenario user", slog.String("username", name), slog.Uint64("user_id", uint64(id)))
		}
		return
	}

	if _, err := s.Run(ctx); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	middleware.Logger.Info("all generated users share one password", slog.String("password", seed.DefaultPassword))
}
