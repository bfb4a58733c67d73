// Package events normalizes the raw offer and transaction logs into the
// canonical time base and derives the per-offer success flag. Everything here
// is a pure transform: no IO, no shared state.
package events

import (
	"time"

	"github.com/mavenlabs/rewards-insight/internal/domain"
)

// Epoch is the origin of the raw hour-offset timestamps. The raw logs encode
// `time` as whole hours since this instant.
var Epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// RawOffer is one unvalidated row of the offer interaction log. Time and
// Duration are pointers because the raw feed can omit them; a nil value fails
// normalization for that row only.
type RawOffer struct {
	CustomerID string   `json:"customer_id"`
	OfferID    string   `json:"offer_id"`
	Event      string   `json:"event"`
	Time       *int64   `json:"time"`     // hours since Epoch
	OfferType  string   `json:"offer_type"`
	Channels   []string `json:"channels"`
	Difficulty float64  `json:"difficulty"`
	Reward     float64  `json:"reward"`
	Duration   *int     `json:"duration"` // days
	Age        *int     `json:"age,omitempty"`
	Income     *float64 `json:"income,omitempty"`
	Gender     string   `json:"gender,omitempty"`
}

// RawTransaction is one unvalidated purchase row.
type RawTransaction struct {
	CustomerID string  `json:"customer_id"`
	Time       *int64  `json:"time"` // hours since Epoch
	Amount     float64 `json:"amount"`
}

// HoursToTime converts a raw hour offset to absolute time.
func HoursToTime(hours int64) time.Time {
	return Epoch.Add(time.Duration(hours) * time.Hour)
}

// NormalizeOffers validates raw offer rows, converts timestamps to absolute
// time, and computes the OfferSuccess flag.
//
// Success is decided per offer_id group: let t0 be the timestamp of the
// earliest valid event in the group; the group succeeded iff it contains a
// completed event no more than that row's duration (in days) after t0. The
// resulting boolean is broadcast onto every row of the group so it can be
// joined back against any slice of the original stream.
//
// Malformed rows are reported individually and excluded from the output; the
// batch never aborts on a bad row.
func NormalizeOffers(raws []RawOffer) ([]domain.OfferEvent, []*MalformedEventError) {
	var rowErrs []*MalformedEventError

	offers := make([]domain.OfferEvent, 0, len(raws))
	for i, r := range raws {
		if r.Time == nil {
			rowErrs = append(rowErrs, &MalformedEventError{Row: i, Field: "time", Reason: "missing"})
			continue
		}
		if r.Duration == nil {
			rowErrs = append(rowErrs, &MalformedEventError{Row: i, Field: "duration", Reason: "missing"})
			continue
		}
		ev := domain.OfferEventType(r.Event)
		if !ev.Valid() {
			rowErrs = append(rowErrs, &MalformedEventError{Row: i, Field: "event", Reason: "unknown event type " + r.Event})
			continue
		}
		if len(r.Channels) == 0 {
			rowErrs = append(rowErrs, &MalformedEventError{Row: i, Field: "channels", Reason: "empty channel set"})
			continue
		}
		offers = append(offers, domain.OfferEvent{
			CustomerID:   r.CustomerID,
			OfferID:      r.OfferID,
			Event:        ev,
			Time:         HoursToTime(*r.Time),
			OfferType:    r.OfferType,
			Channels:     r.Channels,
			Difficulty:   r.Difficulty,
			Reward:       r.Reward,
			DurationDays: *r.Duration,
			Age:          r.Age,
			Income:       r.Income,
			Gender:       r.Gender,
		})
	}

	markOfferSuccess(offers)
	return offers, rowErrs
}

// markOfferSuccess computes the per-group success flag in place.
func markOfferSuccess(offers []domain.OfferEvent) {
	// First valid event per offer_id establishes the window origin.
	origin := make(map[string]time.Time, len(offers))
	for _, o := range offers {
		t0, ok := origin[o.OfferID]
		if !ok || o.Time.Before(t0) {
			origin[o.OfferID] = o.Time
		}
	}

	succeeded := make(map[string]bool, len(origin))
	for _, o := range offers {
		if o.Event != domain.OfferCompleted {
			continue
		}
		window := time.Duration(o.DurationDays) * 24 * time.Hour
		if o.Time.Sub(origin[o.OfferID]) <= window {
			succeeded[o.OfferID] = true
		}
	}

	for i := range offers {
		offers[i].OfferSuccess = succeeded[offers[i].OfferID]
	}
}

// NormalizeTransactions validates raw purchase rows and converts timestamps
// to absolute time. Rows with a missing timestamp or negative amount are
// reported individually and excluded.
func NormalizeTransactions(raws []RawTransaction) ([]domain.TransactionEvent, []*MalformedEventError) {
	var rowErrs []*MalformedEventError

	txs := make([]domain.TransactionEvent, 0, len(raws))
	for i, r := range raws {
		if r.Time == nil {
			rowErrs = append(rowErrs, &MalformedEventError{Row: i, Field: "time", Reason: "missing"})
			continue
		}
		if r.Amount < 0 {
			rowErrs = append(rowErrs, &MalformedEventError{Row: i, Field: "amount", Reason: "negative amount"})
			continue
		}
		txs = append(txs, domain.TransactionEvent{
			CustomerID: r.CustomerID,
			Time:       HoursToTime(*r.Time),
			Amount:     r.Amount,
		})
	}
	return txs, rowErrs
}

// TotalSpend is the denormalized per-customer spend projection. It is derived
// state, never authoritative; rebuild it whenever the transaction set changes.
func TotalSpend(txs []domain.TransactionEvent) map[string]float64 {
	totals := make(map[string]float64)
	for _, tx := range txs {
		totals[tx.CustomerID] += tx.Amount
	}
	return totals
}
