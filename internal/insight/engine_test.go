package insight

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mavenlabs/rewards-insight/internal/cache"
	"github.com/mavenlabs/rewards-insight/internal/domain"
	"github.com/mavenlabs/rewards-insight/internal/forecast"
	"github.com/mavenlabs/rewards-insight/internal/rfm"
	"github.com/mavenlabs/rewards-insight/internal/segmentation"
)

// snapshotTxs builds two behaviorally distinct customer groups: frequent
// high spenders and one-off low spenders.
func snapshotTxs() []domain.TransactionEvent {
	var txs []domain.TransactionEvent
	for c := 0; c < 4; c++ {
		id := fmt.Sprintf("big-%d", c)
		for d := 0; d < 20; d++ {
			txs = append(txs, tx(id, d, 40+float64(c)))
		}
	}
	for c := 0; c < 4; c++ {
		txs = append(txs, tx(fmt.Sprintf("small-%d", c), c, 3))
	}
	return txs
}

func trainedScorer(t *testing.T, txs []domain.TransactionEvent) *segmentation.Scorer {
	t.Helper()
	features := rfm.Build(txs)
	artifact, err := segmentation.NewTrainer(2, 42).Fit(features)
	require.NoError(t, err)
	return segmentation.NewScorer(artifact)
}

func newTestEngine(t *testing.T, txs []domain.TransactionEvent, rc *cache.ResultCache) *Engine {
	t.Helper()
	return New(trainedScorer(t, txs), forecast.New(forecast.DefaultOrder), rc, "test-snapshot")
}

func TestEngine_Segments(t *testing.T) {
	txs := snapshotTxs()
	e := newTestEngine(t, txs, nil)

	seg, err := e.Segments(context.Background(), txs, Filter{})
	require.NoError(t, err)
	require.Len(t, seg.Features, 8)
	require.Len(t, seg.Assignments, 8)

	// The two behavior groups land in different clusters.
	byID := make(map[string]int)
	for _, a := range seg.Assignments {
		byID[a.CustomerID] = a.Cluster
	}
	assert.Equal(t, byID["big-0"], byID["big-3"])
	assert.Equal(t, byID["small-0"], byID["small-3"])
	assert.NotEqual(t, byID["big-0"], byID["small-0"])
}

func TestEngine_Performance(t *testing.T) {
	txs := snapshotTxs()
	e := newTestEngine(t, txs, nil)

	when := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	offers := []domain.OfferEvent{
		{CustomerID: "big-0", OfferID: "o1", Event: domain.OfferReceived, Time: when,
			OfferType: "bogo", Channels: []string{"email"}, OfferSuccess: true},
		{CustomerID: "small-0", OfferID: "o2", Event: domain.OfferReceived, Time: when,
			OfferType: "bogo", Channels: []string{"email"}, OfferSuccess: false},
	}

	tables, err := e.Performance(context.Background(), offers, txs, Filter{})
	require.NoError(t, err)

	require.Len(t, tables.ByOfferType, 1)
	assert.Equal(t, 0.5, tables.ByOfferType[0].ConversionRate)

	// Segment split separates the success from the failure.
	require.Len(t, tables.ByOfferTypeSegment, 2)
	rates := map[float64]bool{}
	for _, r := range tables.ByOfferTypeSegment {
		rates[r.ConversionRate] = true
	}
	assert.True(t, rates[0.0])
	assert.True(t, rates[1.0])

	require.Len(t, tables.ByChannel, 1)
	assert.Equal(t, "email", tables.ByChannel[0].Channel)
}

func TestEngine_Insights(t *testing.T) {
	txs := snapshotTxs()
	e := newTestEngine(t, txs, nil)

	when := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	offers := []domain.OfferEvent{
		{CustomerID: "big-0", OfferID: "o1", Event: domain.OfferReceived, Time: when,
			OfferType: "bogo", Channels: []string{"email"}, OfferSuccess: true},
		{CustomerID: "big-1", OfferID: "o2", Event: domain.OfferReceived, Time: when,
			OfferType: "discount", Channels: []string{"web"}, OfferSuccess: false},
	}

	ins, err := e.Insights(context.Background(), offers, txs, Filter{})
	require.NoError(t, err)

	assert.Equal(t, "bogo", ins.TopOfferType)
	assert.Equal(t, 1.0, ins.TopOfferTypeRate)
	assert.Equal(t, "email", ins.TopChannel)
	assert.NotEqual(t, domain.NoCluster, ins.TopSegment)
}

func TestEngine_CLV(t *testing.T) {
	txs := snapshotTxs()
	e := newTestEngine(t, txs, nil)

	age := 40
	when := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	offers := []domain.OfferEvent{
		{CustomerID: "big-0", OfferID: "o1", Event: domain.OfferReceived, Time: when, Age: &age},
	}

	records, dropped, err := e.CLV(context.Background(), offers, txs, Filter{})
	require.NoError(t, err)

	// Only big-0 has demographics; everyone else is dropped.
	require.Len(t, records, 1)
	assert.Equal(t, "big-0", records[0].CustomerID)
	assert.Equal(t, 7, dropped)
	assert.InDelta(t, records[0].TotalSpend/40, records[0].AnnualValue, 1e-12)
}

func TestEngine_ForecastVolume(t *testing.T) {
	txs := snapshotTxs()
	e := newTestEngine(t, txs, nil)

	series, err := e.ForecastVolume(context.Background(), txs, Filter{}, 7)
	require.NoError(t, err)
	assert.Len(t, series.Forecast, 7)
	assert.NotEmpty(t, series.Historical)
}

func TestEngine_CacheHit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	rc := cache.New(rdb, time.Minute)

	txs := snapshotTxs()
	e := newTestEngine(t, txs, rc)
	ctx := context.Background()

	first, err := e.Segments(ctx, txs, Filter{})
	require.NoError(t, err)

	// The second call with an identical filter must be served from cache
	// even when the transaction snapshot argument is emptied out.
	second, err := e.Segments(ctx, nil, Filter{})
	require.NoError(t, err)
	assert.Equal(t, first.Assignments, second.Assignments)

	// A different filter is a different key and recomputes.
	third, err := e.Segments(ctx, nil, Filter{MinAmount: 10})
	require.NoError(t, err)
	assert.Empty(t, third.Features)
}

func TestEngine_BasketStats(t *testing.T) {
	txs := snapshotTxs()
	e := newTestEngine(t, txs, nil)

	stats, err := e.BasketStats(context.Background(), txs, Filter{})
	require.NoError(t, err)
	require.Len(t, stats, 2)

	var big, small BasketStat
	for _, s := range stats {
		if s.AvgTransactions > 10 {
			big = s
		} else {
			small = s
		}
	}
	assert.Equal(t, 4, big.Customers)
	assert.Equal(t, 20.0, big.AvgTransactions)
	assert.Equal(t, 4, small.Customers)
	assert.Equal(t, 1.0, small.AvgTransactions)
	assert.Equal(t, 3.0, small.AvgBasketSize)
}

func TestEngine_Summarize(t *testing.T) {
	txs := snapshotTxs()
	e := newTestEngine(t, txs, nil)

	s, err := e.Summarize(context.Background(), txs, Filter{})
	require.NoError(t, err)

	assert.Equal(t, 8, s.TotalCustomers)
	assert.Equal(t, len(txs), s.TotalTxns)
	assert.InDelta(t, s.TotalRevenue/float64(s.TotalTxns), s.AvgTxnValue, 1e-12)
	assert.Greater(t, s.AvgMonetary, 0.0)
}
