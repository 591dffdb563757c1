// Command worker runs background feed maintenance: the outbox relay, the
// Kafka fan-out consumer, or a one-shot counter reconciliation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/babbageLabs/insta-lite/internal/bootstrap"
	"github.com/babbageLabs/insta-lite/internal/config"
	"github.com/babbageLabs/insta-lite/internal/middleware"
	"github.com/babbageLabs/insta-lite/internal/queue"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return errors.New("usage: worker <relay|consume|reconcile>")
}

func run() error {
	once := flag.Bool("once", false, "relay: process one batch and exit")
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}
	mode := flag.Arg(0)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{ServiceName: "insta-lite-worker"})
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = rt.Close(ctx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, rt.DB, rt.Redis, bootstrap.BuildOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	logger := middleware.Component("worker").With(slog.String("mode", mode))
	switch mode {
	case "relay":
		if *once {
			moved, err := app.Relay.RunOnce(ctx)
			if err != nil {
				return fmt.Errorf("relay pass: %w", err)
			}
			logger.Info("relay pass finished", slog.Int("moved", moved))
			return nil
		}
		app.Relay.Run(ctx, time.Duration(cfg.FanoutRelayIntervalSeconds)*time.Second)
		return nil

	case "consume":
		brokers := cfg.KafkaBrokerList()
		if len(brokers) == 0 {
			return errors.New("consume: KAFKA_BROKERS is not set")
		}
		consumer, err := queue.NewKafkaConsumer(queue.KafkaConfig{
			Brokers: brokers,
			Topic:   cfg.KafkaFanoutTopic,
			GroupID: cfg.KafkaGroupID,
		})
		if err != nil {
			return err
		}
		defer func() { _ = consumer.Close() }()
		logger.Info("consuming fan-out topic",
			slog.String("topic", cfg.KafkaFanoutTopic),
			slog.String("group", cfg.KafkaGroupID))
		return consumer.Run(ctx, app.Relay.HandleFanoutMessage)

	case "reconcile":
		fixed, err := app.Repos.Profiles.ReconcileCounters(ctx)
		if err != nil {
			return fmt.Errorf("reconcile counters: %w", err)
		}
		logger.Info("profile counters reconciled", slog.Int64("profiles_fixed", fixed))
		return nil

	default:
		return usage()
	}
}
