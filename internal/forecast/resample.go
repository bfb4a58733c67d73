package forecast

import (
	"sort"
	"time"

	"github.com/mavenlabs/rewards-insight/internal/domain"
)

// DailyVolume resamples transactions to a daily sum of amounts on a regular
// calendar grid. Days with no transactions are zero-filled, not dropped; the
// model needs an unbroken time step. Returns nil for an empty input.
func DailyVolume(txs []domain.TransactionEvent) []domain.SeriesPoint {
	if len(txs) == 0 {
		return nil
	}

	sums := make(map[time.Time]float64)
	first, last := day(txs[0].Time), day(txs[0].Time)
	for _, tx := range txs {
		d := day(tx.Time)
		sums[d] += tx.Amount
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}

	var series []domain.SeriesPoint
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		series = append(series, domain.SeriesPoint{Date: d, Amount: sums[d]})
	}
	return series
}

// day truncates a timestamp to its UTC calendar date.
func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// sortSeries orders points by date, ascending. Inputs from DailyVolume are
// already ordered; this guards series assembled elsewhere.
func sortSeries(series []domain.SeriesPoint) {
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
}
