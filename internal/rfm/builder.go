// Package rfm derives the Recency/Frequency/Monetary feature table from the
// normalized transaction log.
package rfm

import (
	"sort"

	"github.com/mavenlabs/rewards-insight/internal/domain"
)

// Build computes one RFMVector per customer from the given transaction
// snapshot. Recency is measured in whole days against the most recent
// transaction in the snapshot, so a filtered snapshot yields different
// recencies than the full log; rebuild after every filter change.
//
// Negative per-customer totals (refund-heavy customers) are floored at zero
// rather than propagated. An empty snapshot yields an empty table, not an
// error. Output is sorted by customer ID so downstream model fitting is
// deterministic.
func Build(txs []domain.TransactionEvent) []domain.RFMVector {
	if len(txs) == 0 {
		return nil
	}

	type acc struct {
		last     int64 // unix seconds of the customer's latest transaction
		count    int
		monetary float64
	}

	maxTime := txs[0].Time
	byCustomer := make(map[string]*acc)
	for _, tx := range txs {
		if tx.Time.After(maxTime) {
			maxTime = tx.Time
		}
		a := byCustomer[tx.CustomerID]
		if a == nil {
			a = &acc{}
			byCustomer[tx.CustomerID] = a
		}
		if ts := tx.Time.Unix(); ts > a.last || a.count == 0 {
			a.last = ts
		}
		a.count++
		a.monetary += tx.Amount
	}

	vectors := make([]domain.RFMVector, 0, len(byCustomer))
	for id, a := range byCustomer {
		monetary := a.monetary
		if monetary < 0 {
			monetary = 0
		}
		recency := int(maxTime.Unix()-a.last) / (24 * 60 * 60)
		vectors = append(vectors, domain.RFMVector{
			CustomerID: id,
			Recency:    recency,
			Frequency:  a.count,
			Monetary:   monetary,
		})
	}

	sort.Slice(vectors, func(i, j int) bool { return vectors[i].CustomerID < vectors[j].CustomerID })
	return vectors
}
