package models

// SignalInputs carries the raw market signals feeding one composite score.
// A nil field means the upstream source had nothing for that signal; the
// scorer drops it and renormalizes the remaining weights.
type SignalInputs struct {
	Sentiment      *float64 // fear/greed index, 0-100
	Volatility     *float64 // volatility index close
	LongRateChange *float64 // 10Y yield daily change %
	DollarChange   *float64 // dollar index daily change %
}

// DaySnapshot is one calendar day's recorded composite score plus the raw
// signals that produced it. MarketOpen=false means the day had no market
// activity: composite is the neutral 50 and every signal field is nil.
type DaySnapshot struct {
	Date           string   `json:"date"`
	Composite      int      `json:"composite"`
	Sentiment      *float64 `json:"sentiment"`
	Volatility     *float64 `json:"volatility"`
	LongRateChange *float64 `json:"longRateChange"`
	DollarChange   *float64 `json:"dollarChange"`
	MarketOpen     bool     `json:"marketOpen"`
}

// NeutralComposite is the composite recorded when no signal is present and
// for closed-market placeholder days.
const NeutralComposite = 50

// ClosedDay builds the placeholder snapshot for a day without market activity.
func ClosedDay(date string) DaySnapshot {
	return DaySnapshot{Date: date, Composite: NeutralComposite, MarketOpen: false}
}

// PricePoint is one observation of an instrument's price series.
// Series are ordered by ascending epoch-second timestamp; a nil price marks
// a gap the provider could not fill.
type PricePoint struct {
	Timestamp int64    `json:"timestamp"`
	Price     *float64 `json:"price"`
}

// PeriodReturn is the percent change from a point roughly N days back to the
// most recent point of a series.
type PeriodReturn struct {
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"changePercent"`
}
