// Package insight is the engine facade: it applies filters, derives the
// per-snapshot analytic tables, and serves them through an explicit
// content-addressed cache. Every dependency (the model scorer, the cache,
// the forecaster) is constructed by the caller and passed in; the engine
// holds no process-wide state.
package insight

import (
	"context"
	"math"
	"strconv"

	"github.com/mavenlabs/rewards-insight/internal/cache"
	"github.com/mavenlabs/rewards-insight/internal/clv"
	"github.com/mavenlabs/rewards-insight/internal/domain"
	"github.com/mavenlabs/rewards-insight/internal/forecast"
	"github.com/mavenlabs/rewards-insight/internal/performance"
	"github.com/mavenlabs/rewards-insight/internal/pkg/logger"
	"github.com/mavenlabs/rewards-insight/internal/rfm"
	"github.com/mavenlabs/rewards-insight/internal/segmentation"
)

// Engine derives customer analytics from a normalized event snapshot.
type Engine struct {
	scorer     *segmentation.Scorer
	forecaster *forecast.Forecaster
	cache      *cache.ResultCache // nil disables caching
	datasetID  string             // identity of the raw snapshot, part of every fingerprint
}

// New constructs an engine. datasetID must uniquely identify the raw event
// snapshot (for example the source DSN plus the max ingested timestamp);
// it anchors cache fingerprints so two snapshots never share entries.
func New(scorer *segmentation.Scorer, forecaster *forecast.Forecaster, rc *cache.ResultCache, datasetID string) *Engine {
	return &Engine{
		scorer:     scorer,
		forecaster: forecaster,
		cache:      rc,
		datasetID:  datasetID,
	}
}

// SegmentedRFM is the feature table with cluster labels attached.
type SegmentedRFM struct {
	Features    []domain.RFMVector         `json:"features"`
	Assignments []domain.SegmentAssignment `json:"assignments"`
}

// Segments builds the RFM table for the filtered transaction snapshot and
// scores it against the loaded model.
func (e *Engine) Segments(ctx context.Context, txs []domain.TransactionEvent, f Filter) (*SegmentedRFM, error) {
	key := cache.Fingerprint(e.datasetID, "segments", f.fingerprint(), e.artifactID())
	var cached SegmentedRFM
	if hit, _ := e.cacheGet(ctx, key, &cached); hit {
		return &cached, nil
	}

	features := rfm.Build(f.Transactions(txs))
	assignments, err := e.scorer.Predict(features)
	if err != nil {
		return nil, err
	}

	result := &SegmentedRFM{Features: features, Assignments: assignments}
	e.cacheSet(ctx, key, result)
	return result, nil
}

// PerformanceTables groups the offer conversion aggregates.
type PerformanceTables struct {
	ByOfferType        []domain.PerformanceRecord `json:"by_offer_type"`
	ByOfferTypeSegment []domain.PerformanceRecord `json:"by_offer_type_segment"`
	ByChannel          []domain.PerformanceRecord `json:"by_channel"`
}

// Performance computes the three conversion tables for the filtered offer
// snapshot, joined against the snapshot's segment labels.
func (e *Engine) Performance(ctx context.Context, offers []domain.OfferEvent, txs []domain.TransactionEvent, f Filter) (*PerformanceTables, error) {
	key := cache.Fingerprint(e.datasetID, "performance", f.fingerprint(), e.artifactID())
	var cached PerformanceTables
	if hit, _ := e.cacheGet(ctx, key, &cached); hit {
		return &cached, nil
	}

	seg, err := e.Segments(ctx, txs, f)
	if err != nil {
		return nil, err
	}
	filtered := f.Offers(offers)
	segments := performance.SegmentIndex(seg.Assignments)

	result := &PerformanceTables{
		ByOfferType:        performance.ByOfferType(filtered),
		ByOfferTypeSegment: performance.ByOfferTypeSegment(filtered, segments),
		ByChannel:          performance.ByChannel(filtered),
	}
	e.cacheSet(ctx, key, result)
	return result, nil
}

// CLV estimates lifetime value over the filtered transactions, joining ages
// from the offer log. Customers with invalid ages are dropped and counted.
func (e *Engine) CLV(ctx context.Context, offers []domain.OfferEvent, txs []domain.TransactionEvent, f Filter) ([]domain.CLVRecord, int, error) {
	rows := clv.JoinDemographics(f.Transactions(txs), offers)
	records, ageErrs := clv.Estimate(rows)
	if len(ageErrs) > 0 {
		logger.Debug("clv estimation dropped customers", "dropped", len(ageErrs))
	}
	return records, len(ageErrs), nil
}

// ForecastVolume projects daily transaction volume for the filtered snapshot.
func (e *Engine) ForecastVolume(ctx context.Context, txs []domain.TransactionEvent, f Filter, horizon int) (domain.ForecastSeries, error) {
	key := cache.Fingerprint(e.datasetID, "forecast", f.fingerprint(), strconv.Itoa(horizon))
	var cached domain.ForecastSeries
	if hit, _ := e.cacheGet(ctx, key, &cached); hit {
		return cached, nil
	}

	daily := forecast.DailyVolume(f.Transactions(txs))
	series, err := e.forecaster.Forecast(daily, horizon)
	if err != nil {
		return domain.ForecastSeries{}, err
	}
	e.cacheSet(ctx, key, series)
	return series, nil
}

func (e *Engine) artifactID() string {
	if e.scorer == nil || e.scorer.Artifact() == nil {
		return "no-model"
	}
	return e.scorer.Artifact().ID.String()
}

func (e *Engine) cacheGet(ctx context.Context, key string, dest interface{}) (bool, error) {
	if e.cache == nil {
		return false, nil
	}
	hit, err := e.cache.Get(ctx, key, dest)
	if err != nil {
		// The cache is an optimization; a broken Redis never fails a query.
		logger.Warn("result cache read failed", "error", err.Error())
		return false, nil
	}
	return hit, nil
}

func (e *Engine) cacheSet(ctx context.Context, key string, value interface{}) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, key, value); err != nil {
		logger.Warn("result cache write failed", "error", err.Error())
	}
}

// isRanked reports whether a conversion rate can participate in rankings.
func isRanked(rate float64) bool { return !math.IsNaN(rate) }
