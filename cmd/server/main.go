// Command server wires the audit workflow service: stores, event dispatcher
// and its handlers, the workflow machine, the HTTP surface, and the background
// workers. Business logic lives in the internal packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	auditshandler "attest/internal/audits/handler"
	auditmetrics "attest/internal/audits/metrics"
	auditsservice "attest/internal/audits/service"
	auditstore "attest/internal/audits/store"
	"attest/internal/events"
	httpapi "attest/internal/http"
	"attest/internal/notify"
	"attest/internal/platform/config"
	"attest/internal/platform/httpserver"
	"attest/internal/platform/logger"
	platformmetrics "attest/internal/platform/metrics"
	"attest/internal/platform/middleware"
	platformredis "attest/internal/platform/redis"
	"attest/internal/trail"
	"attest/internal/workflow"
	workflowmetrics "attest/internal/workflow/metrics"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: Postgres when configured, in-memory otherwise.
	var (
		audits     auditstore.Store
		trailStore trail.Store
		checks     = map[string]httpapi.HealthCheck{}
	)
	if cfg.Postgres.DSN != "" {
		db, err := sql.Open("pgx", cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		audits = auditstore.NewPostgres(db)
		trailStore = trail.NewPostgresStore(db)
		checks["postgres"] = db.PingContext
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
		audits = auditstore.NewInMemory()
		trailStore = trail.NewInMemory()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	var feed *trail.RedisFeed
	if redisClient != nil {
		defer redisClient.Close()
		feed = trail.NewRedisFeed(redisClient.Client, cfg.Trail.FeedCapacity, cfg.Trail.FeedTTL)
		checks["redis"] = redisClient.Health
	}

	// Dispatcher and its consumers. Registration happens here and only here.
	dispatcher := events.NewDispatcher(log)
	recorder := trail.NewRecorder(trailStore, feedOrNil(feed), log)
	recorder.Subscribe(dispatcher)
	notifier := notify.New(&notify.LogMailer{Logger: log}, log, cfg.Notify.BufferSize)
	notifier.Subscribe(dispatcher)

	// Engine and services.
	machine := workflow.New(audits, dispatcher, log, workflow.WithMetrics(workflowmetrics.New()))
	auditService := auditsservice.New(audits, machine, dispatcher, log,
		auditsservice.WithMetrics(auditmetrics.New()))

	// HTTP surface.
	validator := middleware.NewHMACValidator(cfg.Server.JWTSigningKey)
	router := httpapi.NewRouter(log, platformmetrics.New(), checks,
		auditshandler.New(auditService, validator, log),
		trail.NewHandler(auditService, trailStore, feedReaderOrNil(feed), validator, log),
	)
	server := httpserver.New(cfg.Server.Addr, router)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting attest server", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	group.Go(func() error {
		return notifier.Run(ctx)
	})

	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := trail.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer publisher.Close()
		worker := trail.NewWorker(trailStore, publisher, log,
			cfg.Trail.OutboxInterval, cfg.Trail.OutboxBatch)
		group.Go(func() error {
			return worker.Run(ctx)
		})
	} else {
		log.Warn("no kafka brokers configured, trail outbox publishing disabled")
	}

	return group.Wait()
}

// feedOrNil avoids handing a typed-nil *RedisFeed to an interface field.
func feedOrNil(feed *trail.RedisFeed) trail.Feed {
	if feed == nil {
		return nil
	}
	return feed
}

func feedReaderOrNil(feed *trail.RedisFeed) trail.RecentReader {
	if feed == nil {
		return nil
	}
	return feed
}
