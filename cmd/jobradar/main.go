// jobradar: scheduled job-posting discovery pipeline.
//
// Expands search profiles into a keyword × region matrix, fires the matrix
// on cron schedules, deduplicates and scores the results, routes them
// through an approval queue, and publishes approved postings to the catalog
// service. An admin HTTP API exposes the queue, the schedule and metrics.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobradar/internal/api"
	"jobradar/internal/approval"
	"jobradar/internal/cache"
	"jobradar/internal/config"
	"jobradar/internal/connector"
	"jobradar/internal/db"
	"jobradar/internal/model"
	"jobradar/internal/notify"
	"jobradar/internal/publisher"
	"jobradar/internal/quality"
	"jobradar/internal/registry"
	"jobradar/internal/scheduler"
	"jobradar/internal/store"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[jobradar] Config error: %v", err)
	}
	config.SetupLogging(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Storage ──────────────────────────────────────────────────────────────
	var recordStore store.RecordStore
	if cfg.DatabaseURL != "" {
		log.Println("[jobradar] Connecting to PostgreSQL…")
		pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("[jobradar] PostgreSQL: %v", err)
		}
		defer pool.Close()

		pg := store.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatalf("[jobradar] Schema: %v", err)
		}
		recordStore = pg
		log.Println("[jobradar] PostgreSQL connected ✓")
	} else {
		log.Println("[jobradar] DATABASE_URL not set — using in-memory store")
		recordStore = store.NewMemoryStore()
	}

	// ── Notifier ─────────────────────────────────────────────────────────────
	var notifier scheduler.Notifier
	if cfg.RedisURL != "" {
		log.Println("[jobradar] Connecting to Redis…")
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("[jobradar] Redis: %v", err)
		}
		defer rdb.Close()
		notifier = notify.NewRedisNotifier(rdb, cfg.NotifyChannel)
		log.Println("[jobradar] Redis connected ✓")
	} else if cfg.SMTPHost != "" {
		notifier = notify.NewEmailNotifier(
			cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword,
			cfg.EmailFrom, cfg.EmailTo,
		)
		log.Println("[jobradar] Email digests enabled")
	} else {
		log.Println("[jobradar] No notifier configured — digests disabled")
	}

	// ── Pipeline ─────────────────────────────────────────────────────────────
	reg := registry.New()
	workflow := approval.New(recordStore)
	src := connector.NewHTTPConnector(cfg.SourceBaseURL, cfg.SourceAppID, cfg.SourceAppKey, cfg.SourceName)

	batch := scheduler.New(ctx, scheduler.Deps{
		Registry:  reg,
		Connector: src,
		Cache:     cache.New(),
		Scorer:    quality.NewScorer(),
		Notifier:  notifier,
		Workflow:  workflow,
		Recorder:  recordStore,
	}, scheduler.Options{
		Cooldown:    cfg.TierCooldown,
		TaskTimeout: cfg.TaskTimeout,
		Concurrency: cfg.Concurrency,
		NotifyTopN:  cfg.NotifyTopN,
		Filter: model.FilterSpec{
			MinSalary: cfg.MinSalary,
			Location:  cfg.FilterRegion,
			Seniority: cfg.FilterLevel,
		},
	})

	if err := batch.Configure(); err != nil {
		log.Fatalf("[jobradar] Scheduler configure: %v", err)
	}
	batch.Start()
	defer batch.Stop()

	// Run the high-priority slice immediately so the queue is populated
	// without waiting for the first tick.
	go batch.RunHighPriority(ctx)

	var pub *publisher.Publisher
	if cfg.CatalogBaseURL != "" {
		pub = publisher.New(publisher.NewHTTPCatalogClient(cfg.CatalogBaseURL, cfg.CatalogToken))
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      api.NewServer(reg, batch, workflow, pub).Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[jobradar] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[jobradar] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[jobradar] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[jobradar] Shutdown error: %v", err)
	}
	log.Println("[jobradar] Stopped.")
}
