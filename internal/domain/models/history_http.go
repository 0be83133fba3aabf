package models

// Requests for the history/scoring HTTP endpoints. Defined in domain for
// consistency and reuse.

// RecordRequest carries one live collection result. Change percents may be
// posted directly or derived from the raw series when absent; the series form
// wins only when the direct field is nil.
type RecordRequest struct {
	Date           string       `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Sentiment      *float64     `json:"sentiment" validate:"omitempty,gte=0,lte=100"`
	Volatility     *float64     `json:"volatility" validate:"omitempty,gte=0"`
	LongRateChange *float64     `json:"longRateChange"`
	DollarChange   *float64     `json:"dollarChange"`
	LongRateSeries []PricePoint `json:"longRateSeries" validate:"omitempty,dive"`
	DollarSeries   []PricePoint `json:"dollarSeries" validate:"omitempty,dive"`
}

// BackfillRequest carries historical day snapshots from a secondary source.
type BackfillRequest struct {
	Days []DaySnapshot `json:"days" validate:"required,min=1,max=1000,dive"`
}

// HistoryRequest selects an inclusive calendar range.
type HistoryRequest struct {
	From string `query:"from" json:"from" validate:"required,datetime=2006-01-02"`
	To   string `query:"to" json:"to" validate:"required,datetime=2006-01-02"`
}

// ScoreRequest computes a composite directly from posted signals.
type ScoreRequest struct {
	Sentiment      *float64 `json:"sentiment" validate:"omitempty,gte=0,lte=100"`
	Volatility     *float64 `json:"volatility" validate:"omitempty,gte=0"`
	LongRateChange *float64 `json:"longRateChange"`
	DollarChange   *float64 `json:"dollarChange"`
}

// ReturnsRequest computes period returns over a posted price series.
type ReturnsRequest struct {
	Series    []PricePoint `json:"series" validate:"required,min=1,max=10000,dive"`
	Sparkline int          `json:"sparkline" default:"26" validate:"gte=0,lte=1000"`
}

// BackfillResponse reports how much of a backfill batch was new.
type BackfillResponse struct {
	Received int `json:"received"`
	Inserted int `json:"inserted"`
}

// ScoreResponse carries a composite computed from posted signals.
type ScoreResponse struct {
	Composite int `json:"composite"`
}

// ReturnsResponse carries period returns keyed by window plus a trailing
// sparkline of present prices.
type ReturnsResponse struct {
	Periods   map[string]*PeriodReturn `json:"periods"`
	Sparkline []float64                `json:"sparkline"`
}
