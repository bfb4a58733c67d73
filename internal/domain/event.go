package domain

import (
	"time"
)

// OfferEventType enumerates the lifecycle states of a promotional offer.
type OfferEventType string

const (
	OfferReceived  OfferEventType = "offer received"
	OfferViewed    OfferEventType = "offer viewed"
	OfferCompleted OfferEventType = "offer completed"
)

// Valid reports whether t is a known offer lifecycle event.
func (t OfferEventType) Valid() bool {
	switch t {
	case OfferReceived, OfferViewed, OfferCompleted:
		return true
	}
	return false
}

// OfferEvent is one row of the offer interaction log after normalization.
// The raw log is append-only; events are never mutated after ingestion.
type OfferEvent struct {
	CustomerID   string         `json:"customer_id" db:"customer_id"`
	OfferID      string         `json:"offer_id" db:"offer_id"`
	Event        OfferEventType `json:"event" db:"event"`
	Time         time.Time      `json:"time" db:"time"`
	OfferType    string         `json:"offer_type" db:"offer_type"`
	Channels     []string       `json:"channels" db:"channels"`
	Difficulty   float64        `json:"difficulty" db:"difficulty"`
	Reward       float64        `json:"reward" db:"reward"`
	DurationDays int            `json:"duration_days" db:"duration"`

	// Demographics, present when the customer profile was joined at ingestion.
	Age    *int     `json:"age,omitempty" db:"age"`
	Income *float64 `json:"income,omitempty" db:"income"`
	Gender string   `json:"gender,omitempty" db:"gender"`

	// OfferSuccess is broadcast across every row of the offer_id group:
	// true iff the group contains a completed event within DurationDays of
	// the group's earliest event. Joinable back onto any row of the stream.
	OfferSuccess bool `json:"offer_success" db:"offer_success"`
}

// TransactionEvent is one purchase row after normalization.
type TransactionEvent struct {
	CustomerID string    `json:"customer_id" db:"customer_id"`
	Time       time.Time `json:"time" db:"time"`
	Amount     float64   `json:"amount" db:"amount"`
}
