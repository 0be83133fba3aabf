package scoring

import (
	"testing"

	"MarketPulse/internal/domain/models"
)

func f(v float64) *float64 { return &v }

func TestCompositeNoSignals(t *testing.T) {
	if got := Composite(models.SignalInputs{}); got != 50 {
		t.Fatalf("expected neutral 50, got %d", got)
	}
}

func TestCompositeSingleSentiment(t *testing.T) {
	// Single signal: weight renormalizes to 1.0, score passes through.
	if got := Composite(models.SignalInputs{Sentiment: f(70)}); got != 70 {
		t.Fatalf("expected 70, got %d", got)
	}
}

func TestCompositeVolatilityExtremes(t *testing.T) {
	if got := Composite(models.SignalInputs{Volatility: f(10)}); got != 100 {
		t.Fatalf("vix=10: expected 100, got %d", got)
	}
	if got := Composite(models.SignalInputs{Volatility: f(40)}); got != 0 {
		t.Fatalf("vix=40: expected 0, got %d", got)
	}
	// Raw clamp happens before rescaling: out-of-band values pin to the edge.
	if got := Composite(models.SignalInputs{Volatility: f(80)}); got != 0 {
		t.Fatalf("vix=80: expected 0, got %d", got)
	}
	if got := Composite(models.SignalInputs{Volatility: f(5)}); got != 100 {
		t.Fatalf("vix=5: expected 100, got %d", got)
	}
}

func TestCompositeChangeSignalsNeutralAtZero(t *testing.T) {
	if got := Composite(models.SignalInputs{LongRateChange: f(0)}); got != 50 {
		t.Fatalf("tnx=0: expected 50, got %d", got)
	}
	if got := Composite(models.SignalInputs{DollarChange: f(0)}); got != 50 {
		t.Fatalf("dxy=0: expected 50, got %d", got)
	}
	// Rising rates read as fear.
	if got := Composite(models.SignalInputs{LongRateChange: f(3)}); got != 0 {
		t.Fatalf("tnx=+3: expected 0, got %d", got)
	}
	if got := Composite(models.SignalInputs{DollarChange: f(-2)}); got != 100 {
		t.Fatalf("dxy=-2: expected 100, got %d", got)
	}
}

func TestCompositeAllSignals(t *testing.T) {
	in := models.SignalInputs{
		Sentiment:      f(70),
		Volatility:     f(25), // -> round(100-(15/30)*100) = 50
		LongRateChange: f(1.5),
		DollarChange:   f(-1),
	}
	// subs: 70*0.40 + 50*0.30 + 25*0.15 + 75*0.15 = 28+15+3.75+11.25 = 58
	if got := Composite(in); got != 58 {
		t.Fatalf("expected 58, got %d", got)
	}
}

func TestCompositePartialRenormalization(t *testing.T) {
	in := models.SignalInputs{
		Sentiment:  f(80),
		Volatility: f(25),
	}
	// weights renormalize to 40/70 and 30/70:
	// 80*4/7 + 50*3/7 = 45.714 + 21.428 = 67.14 -> 67
	if got := Composite(in); got != 67 {
		t.Fatalf("expected 67, got %d", got)
	}
}

func TestCompositeSubScoreRounding(t *testing.T) {
	// vix=22.4 -> 100 - (12.4/30)*100 = 58.666 -> rounds per-signal to 59.
	if got := Composite(models.SignalInputs{Volatility: f(22.4)}); got != 59 {
		t.Fatalf("expected 59, got %d", got)
	}
}

func TestCompositeBounds(t *testing.T) {
	cases := []models.SignalInputs{
		{Sentiment: f(0)},
		{Sentiment: f(100)},
		{Sentiment: f(150)},  // clamped raw
		{Sentiment: f(-20)},  // clamped raw
		{Volatility: f(0)},
		{LongRateChange: f(-99), DollarChange: f(99)},
	}
	for i, in := range cases {
		got := Composite(in)
		if got < 0 || got > 100 {
			t.Fatalf("case %d: composite %d out of range", i, got)
		}
	}
}

func TestCompositeDeterministic(t *testing.T) {
	in := models.SignalInputs{Sentiment: f(33), Volatility: f(17.2), DollarChange: f(0.41)}
	a := Composite(in)
	b := Composite(in)
	if a != b {
		t.Fatalf("expected identical results, got %d and %d", a, b)
	}
}
