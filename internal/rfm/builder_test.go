package rfm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mavenlabs/rewards-insight/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func TestBuild_Empty(t *testing.T) {
	assert.Nil(t, Build(nil))
	assert.Nil(t, Build([]domain.TransactionEvent{}))
}

func TestBuild(t *testing.T) {
	txs := []domain.TransactionEvent{
		{CustomerID: "a", Time: day(0), Amount: 10},
		{CustomerID: "a", Time: day(5), Amount: 20},
		{CustomerID: "b", Time: day(9), Amount: 7},
	}
	vectors := Build(txs)
	require.Len(t, vectors, 2)

	// Sorted by customer ID for deterministic downstream fitting.
	assert.Equal(t, "a", vectors[0].CustomerID)
	assert.Equal(t, "b", vectors[1].CustomerID)

	// Recency is against the snapshot max (day 9), not now.
	assert.Equal(t, 4, vectors[0].Recency)
	assert.Equal(t, 2, vectors[0].Frequency)
	assert.Equal(t, 30.0, vectors[0].Monetary)

	assert.Equal(t, 0, vectors[1].Recency)
	assert.Equal(t, 1, vectors[1].Frequency)
	assert.Equal(t, 7.0, vectors[1].Monetary)
}

func TestBuild_RecencyTracksSnapshot(t *testing.T) {
	full := []domain.TransactionEvent{
		{CustomerID: "a", Time: day(0), Amount: 5},
		{CustomerID: "b", Time: day(30), Amount: 5},
	}
	filtered := full[:1] // drop the most recent row

	withB := Build(full)
	withoutB := Build(filtered)

	assert.Equal(t, 30, withB[0].Recency)
	assert.Equal(t, 0, withoutB[0].Recency, "recency must rebase onto the filtered snapshot's max")
}

func TestBuild_Invariants(t *testing.T) {
	txs := []domain.TransactionEvent{
		{CustomerID: "a", Time: day(1), Amount: 3.5},
		{CustomerID: "b", Time: day(2), Amount: 0},
		{CustomerID: "c", Time: day(3), Amount: 120},
		{CustomerID: "c", Time: day(4), Amount: 80},
	}
	for _, v := range Build(txs) {
		assert.GreaterOrEqual(t, v.Recency, 0)
		assert.GreaterOrEqual(t, v.Frequency, 1)
		assert.GreaterOrEqual(t, v.Monetary, 0.0)
	}
}

func TestBuild_NegativeMonetaryFloored(t *testing.T) {
	// Refund-heavy customer: the sum is negative and must floor at zero,
	// not propagate.
	txs := []domain.TransactionEvent{
		{CustomerID: "a", Time: day(0), Amount: 10},
		{CustomerID: "a", Time: day(1), Amount: -25},
	}
	vectors := Build(txs)
	require.Len(t, vectors, 1)
	assert.Equal(t, 0.0, vectors[0].Monetary)
	assert.Equal(t, 2, vectors[0].Frequency)
}
