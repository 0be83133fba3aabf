package scoring

import (
	"math"

	"MarketPulse/internal/domain/models"
)

// Fixed weights per signal. Absent signals are dropped and the remaining
// weights renormalized, so the ratios matter, not the absolute values.
const (
	weightSentiment  = 40
	weightVolatility = 30
	weightLongRate   = 15
	weightDollar     = 15
)

type weighted struct {
	weight float64
	score  float64
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// SentimentScore maps a 0-100 sentiment index onto the composite scale.
func SentimentScore(v float64) float64 {
	return clamp(v, 0, 100)
}

// VolatilityScore maps a volatility index close onto the composite scale,
// inverted: low volatility reads as greed, high as fear. The raw value is
// clamped to the typical [10,40] band before rescaling.
func VolatilityScore(v float64) float64 {
	return math.Round(100 - ((clamp(v, 10, 40)-10)/30)*100)
}

// LongRateScore maps a 10Y-yield daily change percent, inverted around 50.
func LongRateScore(c float64) float64 {
	return math.Round(50 - (clamp(c, -3, 3)/3)*50)
}

// DollarScore maps a dollar-index daily change percent, inverted around 50.
func DollarScore(c float64) float64 {
	return math.Round(50 - (clamp(c, -2, 2)/2)*50)
}

// Composite folds the present signals into one 0-100 score. With no signal
// present it returns the neutral 50 rather than a computed average.
func Composite(in models.SignalInputs) int {
	entries := make([]weighted, 0, 4)

	if in.Sentiment != nil {
		entries = append(entries, weighted{weight: weightSentiment, score: SentimentScore(*in.Sentiment)})
	}
	if in.Volatility != nil {
		entries = append(entries, weighted{weight: weightVolatility, score: VolatilityScore(*in.Volatility)})
	}
	if in.LongRateChange != nil {
		entries = append(entries, weighted{weight: weightLongRate, score: LongRateScore(*in.LongRateChange)})
	}
	if in.DollarChange != nil {
		entries = append(entries, weighted{weight: weightDollar, score: DollarScore(*in.DollarChange)})
	}

	if len(entries) == 0 {
		return models.NeutralComposite
	}

	var totalWeight, sum float64
	for _, e := range entries {
		totalWeight += e.weight
	}
	for _, e := range entries {
		sum += e.score * e.weight / totalWeight
	}
	return int(clamp(math.Round(sum), 0, 100))
}
