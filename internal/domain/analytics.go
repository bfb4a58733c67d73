package domain

import "time"

// NoCluster marks a PerformanceRecord that was not grouped by segment.
const NoCluster = -1

// PerformanceRecord is one group of the offer performance table. Which of
// OfferType/Channel/Cluster are populated depends on the grouping that
// produced it; Cluster is NoCluster when the grouping did not include it.
//
// ConversionRate is NaN when the group contains no received events; callers
// must check before ranking or averaging groups.
type PerformanceRecord struct {
	OfferType      string  `json:"offer_type,omitempty"`
	Channel        string  `json:"channel,omitempty"`
	Cluster        int     `json:"cluster"`
	ConversionRate float64 `json:"conversion_rate"`
	SampleCount    int     `json:"sample_count"`
}

// CLVRecord is the lifetime-value estimate for one customer. Customers with a
// non-positive or missing age never appear as records; they are reported as
// row errors instead.
type CLVRecord struct {
	CustomerID  string  `json:"customer_id"`
	TotalSpend  float64 `json:"total_spend"`
	Age         float64 `json:"customer_age"`
	AnnualValue float64 `json:"annual_value"`
}

// SeriesPoint is one day of the transaction-volume series.
type SeriesPoint struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// ForecastSeries pairs the daily historical volume with the projected points.
// Forecast dates are the consecutive calendar days immediately following the
// last historical date.
type ForecastSeries struct {
	Historical []SeriesPoint `json:"historical"`
	Forecast   []SeriesPoint `json:"forecast"`
}
