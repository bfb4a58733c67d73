// Package postgres loads the raw event logs from PostgreSQL. Rows come back
// in raw (hour-offset) form; the events package is the single place where
// validation and time conversion happen.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/mavenlabs/rewards-insight/internal/events"
)

// EventRepo reads the append-only offer and transaction logs.
type EventRepo struct{ db *sql.DB }

// NewEventRepo creates a Postgres-backed event repository.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// ListOffers returns every row of the offer interaction log.
func (r *EventRepo) ListOffers(ctx context.Context) ([]events.RawOffer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT customer_id, offer_id, event, time, offer_type, channels,
		       COALESCE(difficulty, 0), COALESCE(reward, 0), duration,
		       age, income, COALESCE(gender, '')
		FROM offer_events
		ORDER BY time, offer_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list offer events: %w", err)
	}
	defer rows.Close()

	var offers []events.RawOffer
	for rows.Next() {
		var (
			o        events.RawOffer
			evTime   sql.NullInt64
			duration sql.NullInt64
			age      sql.NullInt64
			income   sql.NullFloat64
		)
		err := rows.Scan(&o.CustomerID, &o.OfferID, &o.Event, &evTime, &o.OfferType,
			pq.Array(&o.Channels), &o.Difficulty, &o.Reward, &duration,
			&age, &income, &o.Gender)
		if err != nil {
			return nil, fmt.Errorf("scan offer event: %w", err)
		}
		if evTime.Valid {
			t := evTime.Int64
			o.Time = &t
		}
		if duration.Valid {
			d := int(duration.Int64)
			o.Duration = &d
		}
		if age.Valid {
			a := int(age.Int64)
			o.Age = &a
		}
		if income.Valid {
			inc := income.Float64
			o.Income = &inc
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offer events: %w", err)
	}
	return offers, nil
}

// ListTransactions returns every row of the purchase log.
func (r *EventRepo) ListTransactions(ctx context.Context) ([]events.RawTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT customer_id, time, COALESCE(amount, 0)
		FROM transaction_events
		ORDER BY time, customer_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list transaction events: %w", err)
	}
	defer rows.Close()

	var txs []events.RawTransaction
	for rows.Next() {
		var (
			tx     events.RawTransaction
			txTime sql.NullInt64
		)
		if err := rows.Scan(&tx.CustomerID, &txTime, &tx.Amount); err != nil {
			return nil, fmt.Errorf("scan transaction event: %w", err)
		}
		if txTime.Valid {
			t := txTime.Int64
			tx.Time = &t
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction events: %w", err)
	}
	return txs, nil
}
