package util

import (
    "testing"
    "time"
)

func TestDateKeyAnchorTimezone(t *testing.T) {
    loc, err := LoadLocation("")
    if err != nil {
        t.Fatalf("load default location: %v", err)
    }
    // 2024-10-11 01:30 UTC is still 2024-10-10 in New York.
    ts := time.Date(2024, 10, 11, 1, 30, 0, 0, time.UTC)
    if got := DateKey(ts, loc); got != "2024-10-10" {
        t.Fatalf("unexpected key %s", got)
    }
}

func TestParseDateKey(t *testing.T) {
    got, ok := ParseDateKey("2024-02-29")
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Day() != 29 || got.Month() != time.February {
        t.Fatalf("unexpected time %v", got)
    }
    if _, ok := ParseDateKey("2024-13-01"); ok {
        t.Fatalf("expected malformed key to fail")
    }
}

func TestDaysInRange(t *testing.T) {
    days := DaysInRange("2024-02-27", "2024-03-02")
    want := []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02"}
    if len(days) != len(want) {
        t.Fatalf("expected %d days, got %d", len(want), len(days))
    }
    for i := range want {
        if days[i] != want[i] {
            t.Fatalf("day %d: expected %s got %s", i, want[i], days[i])
        }
    }
}

func TestDaysInRangeSingleDay(t *testing.T) {
    days := DaysInRange("2024-10-10", "2024-10-10")
    if len(days) != 1 || days[0] != "2024-10-10" {
        t.Fatalf("unexpected range %v", days)
    }
}

func TestDaysInRangeInverted(t *testing.T) {
    if days := DaysInRange("2024-10-11", "2024-10-10"); days != nil {
        t.Fatalf("expected nil, got %v", days)
    }
}

func TestAddDays(t *testing.T) {
    if got := AddDays("2024-12-31", 1); got != "2025-01-01" {
        t.Fatalf("unexpected key %s", got)
    }
    if got := AddDays("2024-10-10", -120); got != "2024-06-12" {
        t.Fatalf("unexpected key %s", got)
    }
}
