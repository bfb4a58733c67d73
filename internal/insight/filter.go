package insight

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mavenlabs/rewards-insight/internal/domain"
)

// Filter narrows the event snapshot before any derived table is built. Zero
// values leave a bound open. Because recency is relative to the snapshot,
// every derived table downstream of a filter change must be recomputed, so
// the filter is part of every cache fingerprint.
type Filter struct {
	From       time.Time
	To         time.Time
	MinAmount  float64
	MaxAmount  float64 // 0 = unbounded
	OfferTypes []string // empty = all
	MinFreq    int
	MaxFreq    int // 0 = unbounded
}

// fingerprint encodes every result-affecting parameter of the filter.
func (f Filter) fingerprint() string {
	types := append([]string(nil), f.OfferTypes...)
	sort.Strings(types)
	return fmt.Sprintf("from=%d|to=%d|amt=%.4f-%.4f|freq=%d-%d|types=%s",
		f.From.Unix(), f.To.Unix(), f.MinAmount, f.MaxAmount,
		f.MinFreq, f.MaxFreq, strings.Join(types, ","))
}

// Offers applies the date-range and offer-type selections.
func (f Filter) Offers(offers []domain.OfferEvent) []domain.OfferEvent {
	var types map[string]bool
	if len(f.OfferTypes) > 0 {
		types = make(map[string]bool, len(f.OfferTypes))
		for _, t := range f.OfferTypes {
			types[t] = true
		}
	}

	out := make([]domain.OfferEvent, 0, len(offers))
	for _, o := range offers {
		if !f.From.IsZero() && o.Time.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && o.Time.After(f.To) {
			continue
		}
		if types != nil && !types[o.OfferType] {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Transactions applies the date-range, amount-range, and per-customer
// frequency selections. Frequency bounds are evaluated on the rows that
// survive the amount and date filters, matching how the dashboard sliders
// composed.
func (f Filter) Transactions(txs []domain.TransactionEvent) []domain.TransactionEvent {
	kept := make([]domain.TransactionEvent, 0, len(txs))
	for _, tx := range txs {
		if !f.From.IsZero() && tx.Time.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && tx.Time.After(f.To) {
			continue
		}
		if tx.Amount < f.MinAmount {
			continue
		}
		if f.MaxAmount > 0 && tx.Amount > f.MaxAmount {
			continue
		}
		kept = append(kept, tx)
	}

	if f.MinFreq <= 0 && f.MaxFreq <= 0 {
		return kept
	}

	counts := make(map[string]int)
	for _, tx := range kept {
		counts[tx.CustomerID]++
	}
	out := kept[:0]
	for _, tx := range kept {
		n := counts[tx.CustomerID]
		if f.MinFreq > 0 && n < f.MinFreq {
			continue
		}
		if f.MaxFreq > 0 && n > f.MaxFreq {
			continue
		}
		out = append(out, tx)
	}
	return out
}
