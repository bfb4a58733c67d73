// Command report runs the full analytics pipeline over the event store and
// logs the headline results: summary KPIs, segment tables, key insights,
// lifetime-value counts, and the demand forecast.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/mavenlabs/rewards-insight/internal/artifact"
	"github.com/mavenlabs/rewards-insight/internal/cache"
	"github.com/mavenlabs/rewards-insight/internal/config"
	"github.com/mavenlabs/rewards-insight/internal/domain"
	"github.com/mavenlabs/rewards-insight/internal/events"
	"github.com/mavenlabs/rewards-insight/internal/forecast"
	"github.com/mavenlabs/rewards-insight/internal/insight"
	"github.com/mavenlabs/rewards-insight/internal/pkg/logger"
	"github.com/mavenlabs/rewards-insight/internal/repository/postgres"
	"github.com/mavenlabs/rewards-insight/internal/segmentation"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	horizon := flag.Int("horizon", 0, "forecast horizon in days (0 = config default)")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	if cfg.Log.RedactIDs != nil {
		logger.SetRedactIDs(*cfg.Log.RedactIDs)
	}

	if cfg.Database.URL == "" {
		log.Fatal("database.url (or DATABASE_URL) is required")
	}
	if *horizon == 0 {
		*horizon = cfg.Forecast.HorizonDays
	}

	runID := uuid.New().String()
	logger.Info("pipeline run starting", "run_id", runID)

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

	// Load and normalize the event snapshot.
	repo := postgres.NewEventRepo(db)
	rawOffers, err := repo.ListOffers(ctx)
	if err != nil {
		log.Fatalf("load offers: %v", err)
	}
	rawTxs, err := repo.ListTransactions(ctx)
	if err != nil {
		log.Fatalf("load transactions: %v", err)
	}

	offers, offerErrs := events.NormalizeOffers(rawOffers)
	txs, txErrs := events.NormalizeTransactions(rawTxs)
	if n := len(offerErrs) + len(txErrs); n > 0 {
		logger.Warn("malformed rows excluded", "offers", len(offerErrs), "transactions", len(txErrs))
	}

	// Model artifact: loaded once, read-only for the rest of the run.
	store, err := newArtifactStore(ctx, cfg)
	if err != nil {
		log.Fatalf("artifact store: %v", err)
	}
	model, err := store.Load(ctx)
	if err != nil {
		log.Fatalf("load model artifact: %v", err)
	}
	scorer := segmentation.NewScorer(model)

	var rc *cache.ResultCache
	if cfg.Cache.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr, DB: cfg.Cache.RedisDB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, running uncached", "error", err.Error())
		} else {
			rc = cache.New(rdb, cfg.Cache.TTL())
			defer rdb.Close()
		}
	}

	datasetID := datasetIdentity(cfg.Database.URL, txs)
	engine := insight.New(scorer, forecast.New(forecast.Order{
		P: cfg.Forecast.P, D: cfg.Forecast.D, Q: cfg.Forecast.Q,
	}), rc, datasetID)

	filter := insight.Filter{}

	summary, err := engine.Summarize(ctx, txs, filter)
	if err != nil {
		log.Fatalf("summarize: %v", err)
	}
	logger.Info("snapshot summary",
		"customers", summary.TotalCustomers,
		"transactions", summary.TotalTxns,
		"revenue", fmt.Sprintf("%.2f", summary.TotalRevenue),
		"avg_recency_days", fmt.Sprintf("%.1f", summary.AvgRecency))

	insights, err := engine.Insights(ctx, offers, txs, filter)
	if err != nil {
		log.Fatalf("insights: %v", err)
	}
	logger.Info("key insights",
		"top_offer_type", insights.TopOfferType,
		"top_segment", insights.TopSegment,
		"top_channel", insights.TopChannel)

	baskets, err := engine.BasketStats(ctx, txs, filter)
	if err != nil {
		log.Fatalf("basket stats: %v", err)
	}
	for _, b := range baskets {
		logger.Info("segment basket profile",
			"cluster", b.Cluster,
			"customers", b.Customers,
			"avg_transactions", fmt.Sprintf("%.2f", b.AvgTransactions),
			"avg_basket_size", fmt.Sprintf("%.2f", b.AvgBasketSize))
	}

	clvRecords, dropped, err := engine.CLV(ctx, offers, txs, filter)
	if err != nil {
		log.Fatalf("clv: %v", err)
	}
	logger.Info("lifetime value estimated", "customers", len(clvRecords), "dropped_invalid_age", dropped)

	series, err := engine.ForecastVolume(ctx, txs, filter, *horizon)
	if err != nil {
		log.Fatalf("forecast: %v", err)
	}
	logger.Info("demand forecast",
		"history_days", len(series.Historical),
		"horizon_days", len(series.Forecast),
		"first_forecast_date", series.Forecast[0].Date.Format("2006-01-02"))

	logger.Info("pipeline run complete", "run_id", runID)
}

func newArtifactStore(ctx context.Context, cfg *config.Config) (artifact.Store, error) {
	if cfg.Artifact.Type == "s3" {
		return artifact.NewS3Store(ctx, cfg.Artifact.S3Bucket, cfg.Artifact.S3Key, cfg.Artifact.S3Region)
	}
	return artifact.NewFileStore(cfg.Artifact.Path), nil
}

// datasetIdentity anchors cache fingerprints to the raw snapshot: the source
// plus the latest ingested transaction timestamp.
func datasetIdentity(dsn string, txs []domain.TransactionEvent) string {
	var last time.Time
	for _, tx := range txs {
		if tx.Time.After(last) {
			last = tx.Time
		}
	}
	return fmt.Sprintf("%s@%d", dsn, last.Unix())
}
