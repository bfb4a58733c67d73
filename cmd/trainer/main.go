// Command trainer fits the customer segmentation model offline and publishes
// the artifact. Training never runs against live scoring traffic: the new
// artifact replaces the old one atomically and scorers pick it up on their
// next start.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/mavenlabs/rewards-insight/internal/artifact"
	"github.com/mavenlabs/rewards-insight/internal/cache"
	"github.com/mavenlabs/rewards-insight/internal/config"
	"github.com/mavenlabs/rewards-insight/internal/events"
	"github.com/mavenlabs/rewards-insight/internal/pkg/logger"
	"github.com/mavenlabs/rewards-insight/internal/repository/postgres"
	"github.com/mavenlabs/rewards-insight/internal/rfm"
	"github.com/mavenlabs/rewards-insight/internal/segmentation"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))

	if cfg.Database.URL == "" {
		log.Fatal("database.url (or DATABASE_URL) is required")
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("ping: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	repo := postgres.NewEventRepo(db)
	rawTxs, err := repo.ListTransactions(ctx)
	if err != nil {
		log.Fatalf("load transactions: %v", err)
	}

	txs, rowErrs := events.NormalizeTransactions(rawTxs)
	if len(rowErrs) > 0 {
		logger.Warn("malformed transaction rows excluded", "count", len(rowErrs))
		for _, re := range rowErrs {
			logger.Debug("malformed row", "detail", re.Error())
		}
	}

	features := rfm.Build(txs)
	logger.Info("training set built", "customers", len(features), "transactions", len(txs))

	trainer := segmentation.NewTrainer(cfg.Segmentation.Clusters, cfg.Segmentation.Seed)
	model, err := trainer.Fit(features)
	if err != nil {
		log.Fatalf("fit: %v", err)
	}

	store, err := newArtifactStore(ctx, cfg)
	if err != nil {
		log.Fatalf("artifact store: %v", err)
	}
	if err := store.Save(ctx, model); err != nil {
		log.Fatalf("publish artifact: %v", err)
	}

	// Derived tables keyed on the old artifact are now stale; drop them so
	// the cache only ever answers for the published model.
	if cfg.Cache.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr, DB: cfg.Cache.RedisDB})
		defer rdb.Close()
		if err := cache.New(rdb, cfg.Cache.TTL()).Invalidate(ctx); err != nil {
			logger.Warn("result cache invalidation failed", "error", err.Error())
		}
	}

	logger.Info("training complete", "artifact_id", model.ID.String(), "k", model.K)
}

func newArtifactStore(ctx context.Context, cfg *config.Config) (artifact.Store, error) {
	if cfg.Artifact.Type == "s3" {
		return artifact.NewS3Store(ctx, cfg.Artifact.S3Bucket, cfg.Artifact.S3Key, cfg.Artifact.S3Region)
	}
	return artifact.NewFileStore(cfg.Artifact.Path), nil
}
