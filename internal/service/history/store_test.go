package history

import (
	"testing"

	"MarketPulse/internal/domain/models"
)

func f(v float64) *float64 { return &v }

func TestRecordLiveOverwrites(t *testing.T) {
	s := NewStore()

	first := s.RecordLive("2024-10-10", models.SignalInputs{Sentiment: f(70)})
	if first.Composite != 70 {
		t.Fatalf("expected composite 70, got %d", first.Composite)
	}

	second := s.RecordLive("2024-10-10", models.SignalInputs{Sentiment: f(30)})
	if second.Composite != 30 {
		t.Fatalf("expected composite 30, got %d", second.Composite)
	}

	got, ok := s.Get("2024-10-10")
	if !ok {
		t.Fatalf("expected entry")
	}
	if got.Composite != 30 {
		t.Fatalf("live write must overwrite, got composite %d", got.Composite)
	}
	if !got.MarketOpen {
		t.Fatalf("live snapshot must be market-open")
	}
}

func TestRecordLiveStoredPrecision(t *testing.T) {
	s := NewStore()
	day := s.RecordLive("2024-10-10", models.SignalInputs{
		Volatility:     f(18.4567),
		LongRateChange: f(1.23456),
		DollarChange:   f(-0.987654),
	})
	if *day.Volatility != 18.5 {
		t.Fatalf("volatility: expected 18.5, got %v", *day.Volatility)
	}
	if *day.LongRateChange != 1.23 {
		t.Fatalf("long rate: expected 1.23, got %v", *day.LongRateChange)
	}
	if *day.DollarChange != -0.99 {
		t.Fatalf("dollar: expected -0.99, got %v", *day.DollarChange)
	}
	if day.Sentiment != nil {
		t.Fatalf("absent sentiment must stay nil")
	}
}

func TestBackfillNeverOverwrites(t *testing.T) {
	s := NewStore()
	s.RecordLive("2024-10-10", models.SignalInputs{Sentiment: f(70)})

	inserted := s.BackfillIfMissing("2024-10-10", models.DaySnapshot{
		Date: "2024-10-10", Composite: 12, MarketOpen: true,
	})
	if inserted {
		t.Fatalf("backfill must not replace an existing entry")
	}
	got, _ := s.Get("2024-10-10")
	if got.Composite != 70 {
		t.Fatalf("expected live value preserved, got %d", got.Composite)
	}
}

func TestBackfillInsertsWhenMissing(t *testing.T) {
	s := NewStore()
	day := models.DaySnapshot{Date: "2024-10-09", Composite: 42, Sentiment: f(42), MarketOpen: true}
	if !s.BackfillIfMissing("2024-10-09", day) {
		t.Fatalf("expected insert")
	}
	got, ok := s.Get("2024-10-09")
	if !ok || got.Composite != 42 {
		t.Fatalf("unexpected entry %+v", got)
	}

	// Live write still replaces a backfilled entry.
	s.RecordLive("2024-10-09", models.SignalInputs{Sentiment: f(80)})
	got, _ = s.Get("2024-10-09")
	if got.Composite != 80 {
		t.Fatalf("live must overwrite backfill, got %d", got.Composite)
	}
}

func TestGetRangeEmptyStore(t *testing.T) {
	s := NewStore()
	days := s.GetRange("2024-10-07", "2024-10-11")
	if len(days) != 5 {
		t.Fatalf("expected 5 placeholders, got %d", len(days))
	}
	prev := ""
	for _, d := range days {
		if d.MarketOpen {
			t.Fatalf("%s: placeholder must be closed", d.Date)
		}
		if d.Composite != 50 {
			t.Fatalf("%s: placeholder composite must be 50, got %d", d.Date, d.Composite)
		}
		if d.Sentiment != nil || d.Volatility != nil || d.LongRateChange != nil || d.DollarChange != nil {
			t.Fatalf("%s: placeholder signals must be nil", d.Date)
		}
		if d.Date <= prev {
			t.Fatalf("dates must ascend: %s after %s", d.Date, prev)
		}
		prev = d.Date
	}
}

func TestGetRangeMixesStoredAndPlaceholders(t *testing.T) {
	s := NewStore()
	s.RecordLive("2024-10-08", models.SignalInputs{Sentiment: f(60)})

	days := s.GetRange("2024-10-07", "2024-10-09")
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	if days[0].MarketOpen || days[2].MarketOpen {
		t.Fatalf("absent days must be closed placeholders")
	}
	if !days[1].MarketOpen || days[1].Composite != 60 {
		t.Fatalf("stored day lost: %+v", days[1])
	}
}

func TestGetRangeMalformedKeys(t *testing.T) {
	s := NewStore()
	if days := s.GetRange("not-a-date", "2024-10-09"); days != nil {
		t.Fatalf("expected nil, got %v", days)
	}
}

func TestResetAndLen(t *testing.T) {
	s := NewStore()
	s.RecordLive("2024-10-10", models.SignalInputs{})
	s.RecordLive("2024-10-11", models.SignalInputs{})
	if s.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", s.Len())
	}
	s.Reset()
	if s.Len() != 0 {
		t.Fatalf("expected cold store after reset")
	}
}
