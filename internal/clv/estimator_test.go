package clv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mavenlabs/rewards-insight/internal/domain"
)

func agePtr(v float64) *float64 { return &v }

func TestEstimate(t *testing.T) {
	rows := []Row{
		{CustomerID: "c1", Amount: 120, Age: agePtr(40)},
		{CustomerID: "c1", Amount: 80, Age: agePtr(40)},
		{CustomerID: "c2", Amount: 30, Age: agePtr(25)},
	}

	records, errs := Estimate(rows)
	require.Empty(t, errs)
	require.Len(t, records, 2)

	assert.Equal(t, "c1", records[0].CustomerID)
	assert.Equal(t, 200.0, records[0].TotalSpend)
	assert.Equal(t, 40.0, records[0].Age)
	assert.Equal(t, 5.0, records[0].AnnualValue)

	assert.Equal(t, "c2", records[1].CustomerID)
	assert.InDelta(t, 1.2, records[1].AnnualValue, 1e-12)
}

func TestEstimate_InvalidAges(t *testing.T) {
	rows := []Row{
		{CustomerID: "missing", Amount: 50},
		{CustomerID: "negative", Amount: 50, Age: agePtr(-3)},
		{CustomerID: "ok", Amount: 50, Age: agePtr(50)},
	}

	records, errs := Estimate(rows)
	require.Len(t, records, 1)
	assert.Equal(t, "ok", records[0].CustomerID)

	require.Len(t, errs, 2)
	assert.Equal(t, "missing", errs[0].CustomerID)
	assert.True(t, errs[0].Missing)
	assert.Equal(t, "negative", errs[1].CustomerID)
	assert.False(t, errs[1].Missing)
	assert.Equal(t, -3.0, errs[1].Age)
}

func TestEstimate_Empty(t *testing.T) {
	records, errs := Estimate(nil)
	assert.Empty(t, records)
	assert.Empty(t, errs)
}

func TestJoinDemographics(t *testing.T) {
	age := 33
	offers := []domain.OfferEvent{
		{CustomerID: "c1", OfferID: "o1", Event: domain.OfferReceived, Time: time.Unix(0, 0).UTC(), Age: &age},
		{CustomerID: "c1", OfferID: "o1", Event: domain.OfferViewed, Time: time.Unix(0, 0).UTC(), Age: &age},
		{CustomerID: "c2", OfferID: "o2", Event: domain.OfferReceived, Time: time.Unix(0, 0).UTC()},
	}
	txs := []domain.TransactionEvent{
		{CustomerID: "c1", Amount: 10},
		{CustomerID: "c2", Amount: 20},
	}

	rows := JoinDemographics(txs, offers)
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0].Age)
	assert.Equal(t, 33.0, *rows[0].Age)
	assert.Nil(t, rows[1].Age)
}
