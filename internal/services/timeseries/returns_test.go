package timeseries

import (
	"math"
	"testing"

	"MarketPulse/internal/domain/models"
)

func f(v float64) *float64 { return &v }

func pt(ts int64, price *float64) models.PricePoint {
	return models.PricePoint{Timestamp: ts, Price: price}
}

func TestNearestReturnBasic(t *testing.T) {
	series := []models.PricePoint{
		pt(0, f(100)),
		pt(86400*30, f(110)),
	}
	got := NearestReturn(series, 30)
	if got == nil {
		t.Fatalf("expected a return")
	}
	if got.Price != 100 {
		t.Fatalf("expected matched price 100, got %v", got.Price)
	}
	if math.Abs(got.ChangePercent-10) > 1e-9 {
		t.Fatalf("expected +10%%, got %v", got.ChangePercent)
	}
}

func TestNearestReturnEmptySeries(t *testing.T) {
	if got := NearestReturn(nil, 30); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestNearestReturnNilOrZeroPrice(t *testing.T) {
	series := []models.PricePoint{
		pt(0, nil),
		pt(86400*30, f(110)),
	}
	if got := NearestReturn(series, 30); got != nil {
		t.Fatalf("nil matched price: expected nil, got %+v", got)
	}

	series[0].Price = f(0)
	if got := NearestReturn(series, 30); got != nil {
		t.Fatalf("zero matched price: expected nil, got %+v", got)
	}
}

func TestNearestReturnTieGoesToEarlierIndex(t *testing.T) {
	// Target sits exactly between two points; the earlier index wins.
	series := []models.PricePoint{
		pt(86400*9, f(90)),
		pt(86400*11, f(95)),
		pt(86400*40, f(120)),
	}
	got := NearestReturn(series, 30) // target = day 10, equidistant from 9 and 11
	if got == nil {
		t.Fatalf("expected a return")
	}
	if got.Price != 90 {
		t.Fatalf("expected earlier point (90), got %v", got.Price)
	}
}

func TestPeriodReturnsWindows(t *testing.T) {
	series := []models.PricePoint{
		pt(0, f(50)),
		pt(86400*275, f(80)),
		pt(86400*335, f(90)),
		pt(86400*365, f(100)),
	}
	rets := PeriodReturns(series)
	for _, w := range Windows {
		if _, ok := rets[w.Key]; !ok {
			t.Fatalf("missing window %s", w.Key)
		}
	}
	oneM := rets["1M"]
	if oneM == nil || oneM.Price != 90 {
		t.Fatalf("1M: expected match at day 335, got %+v", oneM)
	}
	oneY := rets["1Y"]
	if oneY == nil || oneY.Price != 50 {
		t.Fatalf("1Y: expected match at day 0, got %+v", oneY)
	}
	if math.Abs(oneY.ChangePercent-100) > 1e-9 {
		t.Fatalf("1Y: expected +100%%, got %v", oneY.ChangePercent)
	}
}

func TestChangePercentSeries(t *testing.T) {
	got := ChangePercentSeries([]*float64{f(100), f(110), f(99)})
	if got[0] != nil {
		t.Fatalf("index 0 must be nil")
	}
	if got[1] == nil || math.Abs(*got[1]-10) > 1e-9 {
		t.Fatalf("expected +10%%, got %v", got[1])
	}
	if got[2] == nil || math.Abs(*got[2]-(-10)) > 1e-9 {
		t.Fatalf("expected -10%%, got %v", got[2])
	}
}

func TestChangePercentSeriesGuards(t *testing.T) {
	got := ChangePercentSeries([]*float64{f(0), f(110), nil, f(99)})
	if got[1] != nil {
		t.Fatalf("zero predecessor must yield nil")
	}
	if got[2] != nil {
		t.Fatalf("nil current must yield nil")
	}
	if got[3] != nil {
		t.Fatalf("nil predecessor must yield nil")
	}
}

func TestLatestChangePercent(t *testing.T) {
	series := []models.PricePoint{
		pt(1, f(100)),
		pt(2, f(104)),
		pt(3, nil),
	}
	got := LatestChangePercent(series)
	if got == nil || math.Abs(*got-4) > 1e-9 {
		t.Fatalf("expected +4%%, got %v", got)
	}
	if got := LatestChangePercent(series[:1]); got != nil {
		t.Fatalf("single point: expected nil, got %v", got)
	}
}

func TestSparkline(t *testing.T) {
	series := []models.PricePoint{
		pt(1, f(1)), pt(2, nil), pt(3, f(3)), pt(4, f(4)),
	}
	got := Sparkline(series, 3)
	if len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Fatalf("unexpected sparkline %v", got)
	}
	if got := Sparkline(series, 0); got != nil {
		t.Fatalf("n=0: expected nil, got %v", got)
	}
}
