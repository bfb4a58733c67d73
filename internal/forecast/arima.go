// Package forecast fits a fixed-order ARIMA model on daily transaction
// volume and projects a short horizon forward. The order is a configuration
// input; the engine never tunes it.
package forecast

import (
	"fmt"

	"github.com/mavenlabs/rewards-insight/internal/domain"
	"github.com/mavenlabs/rewards-insight/internal/pkg/logger"
)

// Order is the (p,d,q) specification of the ARIMA model.
type Order struct {
	P int // autoregressive lags
	D int // differencing passes
	Q int // moving-average lags
}

// DefaultOrder matches the production configuration.
var DefaultOrder = Order{P: 1, D: 1, Q: 1}

// InsufficientHistoryError reports a series too short to estimate the chosen
// order. A degenerate flat forecast is never returned silently.
type InsufficientHistoryError struct {
	Required int
	Got      int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("forecast: need at least %d historical points, got %d", e.Required, e.Got)
}

// Forecaster fits and projects an ARIMA(p,d,q) model. Zero value is not
// usable; construct with New.
type Forecaster struct {
	order Order
}

// New creates a forecaster for the given order.
func New(order Order) *Forecaster {
	return &Forecaster{order: order}
}

// MinHistory is the smallest series length the configured order can be
// estimated from: enough points to difference, build the long-AR residual
// proxy, and leave a handful of degrees of freedom for the final regression.
func (f *Forecaster) MinHistory() int {
	m := longARLags(f.order)
	return f.order.D + m + f.order.P + f.order.Q + 5
}

// Forecast fits the model to the daily series and projects horizon points
// starting the day after the last historical date. The result is
// deterministic: same series, same order, same forecast.
func (f *Forecaster) Forecast(daily []domain.SeriesPoint, horizon int) (domain.ForecastSeries, error) {
	if horizon <= 0 {
		return domain.ForecastSeries{}, fmt.Errorf("forecast: horizon must be positive, got %d", horizon)
	}
	if min := f.MinHistory(); len(daily) < min {
		return domain.ForecastSeries{}, &InsufficientHistoryError{Required: min, Got: len(daily)}
	}

	series := append([]domain.SeriesPoint(nil), daily...)
	sortSeries(series)

	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.Amount
	}

	model := fitARMA(difference(values, f.order.D), f.order)
	projected := model.project(values, f.order.D, horizon)

	last := series[len(series)-1].Date
	points := make([]domain.SeriesPoint, horizon)
	for h := 0; h < horizon; h++ {
		points[h] = domain.SeriesPoint{Date: last.AddDate(0, 0, h+1), Amount: projected[h]}
	}

	logger.Debug("forecast fitted",
		"order", fmt.Sprintf("(%d,%d,%d)", f.order.P, f.order.D, f.order.Q),
		"history_days", len(series),
		"horizon_days", horizon)

	return domain.ForecastSeries{Historical: series, Forecast: points}, nil
}

// armaModel holds estimated ARMA coefficients on the differenced series.
type armaModel struct {
	order     Order
	intercept float64
	phi       []float64 // AR coefficients, lag 1..P
	theta     []float64 // MA coefficients, lag 1..Q
	resid     []float64 // in-sample residuals, aligned with the series tail
	w         []float64 // the differenced series the model was fitted on
}

func longARLags(o Order) int {
	m := o.P
	if o.Q > m {
		m = o.Q
	}
	return m + 2
}

// fitARMA estimates ARMA(p,q) on w with the Hannan–Rissanen two-stage
// procedure: a long autoregression supplies residual proxies, then one OLS
// pass regresses w on its own lags and the lagged proxies. A singular
// regression (constant series) degrades to the series mean.
func fitARMA(w []float64, o Order) *armaModel {
	model := &armaModel{
		order: o,
		phi:   make([]float64, o.P),
		theta: make([]float64, o.Q),
		w:     w,
	}

	if o.P == 0 && o.Q == 0 {
		model.intercept = mean(w)
	} else {
		proxies := longARResiduals(w, longARLags(o))
		estimateByLeastSquares(model, w, proxies)
	}

	// In-sample residuals for the MA recursion at forecast time.
	model.resid = make([]float64, len(w))
	for t := range w {
		model.resid[t] = w[t] - model.predictAt(w, model.resid, t)
	}
	return model
}

// predictAt is the one-step-ahead conditional expectation of w[t] using only
// information before t. Missing lags contribute nothing.
func (m *armaModel) predictAt(w, resid []float64, t int) float64 {
	pred := m.intercept
	for i, p := range m.phi {
		if lag := t - i - 1; lag >= 0 {
			pred += p * w[lag]
		}
	}
	for j, th := range m.theta {
		if lag := t - j - 1; lag >= 0 {
			pred += th * resid[lag]
		}
	}
	return pred
}

// project produces horizon values in level space: forecast the differenced
// series recursively (future shocks are zero), then integrate back d times
// from the observed tail.
func (m *armaModel) project(values []float64, d, horizon int) []float64 {
	w := append([]float64(nil), m.w...)
	resid := append([]float64(nil), m.resid...)

	wf := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		t := len(w)
		wf[h] = m.predictAt(w, resid, t)
		w = append(w, wf[h])
		resid = append(resid, 0)
	}

	// Undo differencing: each pass turns increments back into levels,
	// anchored at the last observed value of that differencing depth.
	for depth := d; depth > 0; depth-- {
		anchor := lastAtDepth(values, depth-1)
		level := make([]float64, horizon)
		acc := anchor
		for h := 0; h < horizon; h++ {
			acc += wf[h]
			level[h] = acc
		}
		wf = level
	}
	return wf
}

// lastAtDepth returns the final value of the series differenced depth times.
func lastAtDepth(values []float64, depth int) float64 {
	v := values
	for i := 0; i < depth; i++ {
		v = difference(v, 1)
	}
	return v[len(v)-1]
}

// longARResiduals fits AR(m) by least squares and returns its residuals,
// aligned with w (first m entries are zero).
func longARResiduals(w []float64, m int) []float64 {
	rows := len(w) - m
	cols := m + 1 // intercept + m lags
	design := make([][]float64, rows)
	target := make([]float64, rows)
	for t := m; t < len(w); t++ {
		row := make([]float64, cols)
		row[0] = 1
		for i := 1; i <= m; i++ {
			row[i] = w[t-i]
		}
		design[t-m] = row
		target[t-m] = w[t]
	}

	coef, ok := solveOLS(design, target)
	resid := make([]float64, len(w))
	if !ok {
		return resid
	}
	for t := m; t < len(w); t++ {
		pred := coef[0]
		for i := 1; i <= m; i++ {
			pred += coef[i] * w[t-i]
		}
		resid[t] = w[t] - pred
	}
	return resid
}

// estimateByLeastSquares fills in the model coefficients from the second HR
// stage: regress w[t] on [1, w lags, residual-proxy lags].
func estimateByLeastSquares(model *armaModel, w, proxies []float64) {
	o := model.order
	start := longARLags(o) // proxies are only valid past the long-AR warmup
	if lagMax := max(o.P, o.Q); lagMax > start {
		start = lagMax
	}

	rows := len(w) - start
	cols := 1 + o.P + o.Q
	design := make([][]float64, rows)
	target := make([]float64, rows)
	for t := start; t < len(w); t++ {
		row := make([]float64, cols)
		row[0] = 1
		for i := 1; i <= o.P; i++ {
			row[i] = w[t-i]
		}
		for j := 1; j <= o.Q; j++ {
			row[o.P+j] = proxies[t-j]
		}
		design[t-start] = row
		target[t-start] = w[t]
	}

	coef, ok := solveOLS(design, target)
	if !ok {
		// Constant or near-constant series: mean model.
		model.intercept = mean(w)
		return
	}
	model.intercept = coef[0]
	copy(model.phi, coef[1:1+o.P])
	copy(model.theta, coef[1+o.P:])
}

// difference applies d passes of first differencing.
func difference(values []float64, d int) []float64 {
	v := append([]float64(nil), values...)
	for i := 0; i < d; i++ {
		next := make([]float64, len(v)-1)
		for t := 1; t < len(v); t++ {
			next[t-1] = v[t] - v[t-1]
		}
		v = next
	}
	return v
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
