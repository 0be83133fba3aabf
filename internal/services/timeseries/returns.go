package timeseries

import (
	"MarketPulse/internal/domain/models"
)

const secondsPerDay = 86400

// Window is a lookback period for a derived return.
type Window struct {
	Key  string
	Days int
}

// Windows are the standard lookback periods, ascending.
var Windows = []Window{
	{Key: "1M", Days: 30},
	{Key: "3M", Days: 90},
	{Key: "6M", Days: 180},
	{Key: "1Y", Days: 365},
}

// NearestReturn locates the series point closest to lookbackDays before the
// last point and returns the percent change from there to the latest price.
// The "now" reference is the final timestamp, not wall clock, so replayed
// series evaluate identically. Returns nil when the series is empty, the
// matched price is missing, or it is exactly zero.
func NearestReturn(series []models.PricePoint, lookbackDays int) *models.PeriodReturn {
	if len(series) == 0 {
		return nil
	}
	last := series[len(series)-1]
	if last.Price == nil {
		return nil
	}

	target := last.Timestamp - int64(lookbackDays)*secondsPerDay
	bestIdx := -1
	var bestDiff int64
	for i, p := range series {
		diff := p.Timestamp - target
		if diff < 0 {
			diff = -diff
		}
		// strict less-than: the earlier index wins on exact ties
		if bestIdx == -1 || diff < bestDiff {
			bestIdx = i
			bestDiff = diff
		}
	}

	past := series[bestIdx]
	if past.Price == nil || *past.Price == 0 {
		return nil
	}
	return &models.PeriodReturn{
		Price:         *past.Price,
		ChangePercent: (*last.Price - *past.Price) / *past.Price * 100,
	}
}

// PeriodReturns computes NearestReturn for every standard window, keyed by
// window name. Undefined windows are present with a nil value so callers can
// distinguish "no data" from "not asked".
func PeriodReturns(series []models.PricePoint) map[string]*models.PeriodReturn {
	out := make(map[string]*models.PeriodReturn, len(Windows))
	for _, w := range Windows {
		out[w.Key] = NearestReturn(series, w.Days)
	}
	return out
}

// ChangePercentSeries derives, for each point after the first, the percent
// change from its predecessor. Index 0 is always nil; so is any index whose
// predecessor is missing or zero.
func ChangePercentSeries(prices []*float64) []*float64 {
	out := make([]*float64, len(prices))
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		cur := prices[i]
		if prev == nil || *prev == 0 || cur == nil {
			continue
		}
		v := (*cur - *prev) / *prev * 100
		out[i] = &v
	}
	return out
}

// LatestChangePercent returns the most recent defined entry of
// ChangePercentSeries over the series' prices, or nil when none is defined.
func LatestChangePercent(series []models.PricePoint) *float64 {
	prices := make([]*float64, len(series))
	for i, p := range series {
		prices[i] = p.Price
	}
	changes := ChangePercentSeries(prices)
	for i := len(changes) - 1; i >= 0; i-- {
		if changes[i] != nil {
			return changes[i]
		}
	}
	return nil
}

// Sparkline takes the trailing n points of the series and keeps the prices
// that are present, in order.
func Sparkline(series []models.PricePoint, n int) []float64 {
	if n <= 0 {
		return nil
	}
	start := len(series) - n
	if start < 0 {
		start = 0
	}
	out := make([]float64, 0, len(series)-start)
	for _, p := range series[start:] {
		if p.Price != nil {
			out = append(out, *p.Price)
		}
	}
	return out
}
