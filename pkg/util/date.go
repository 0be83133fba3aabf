package util

import (
    "fmt"
    "time"
)

// DateKeyLayout is the canonical calendar-day key format.
const DateKeyLayout = "2006-01-02"

// LoadLocation resolves an IANA timezone name, defaulting to the US Eastern
// trading-calendar anchor when empty.
func LoadLocation(name string) (*time.Location, error) {
    if name == "" {
        name = "America/New_York"
    }
    loc, err := time.LoadLocation(name)
    if err != nil {
        return nil, fmt.Errorf("load location %q: %w", name, err)
    }
    return loc, nil
}

// DateKey formats t as a calendar-day key in loc.
func DateKey(t time.Time, loc *time.Location) string {
    return t.In(loc).Format(DateKeyLayout)
}

// ParseDateKey parses a "YYYY-MM-DD" key. Returns (t, true) on success.
func ParseDateKey(s string) (time.Time, bool) {
    t, err := time.Parse(DateKeyLayout, s)
    if err != nil {
        return time.Time{}, false
    }
    return t, true
}

// DaysInRange returns every calendar-day key in [start, end] inclusive,
// ascending. Returns nil when either key is malformed or end < start.
func DaysInRange(start, end string) []string {
    from, ok := ParseDateKey(start)
    if !ok {
        return nil
    }
    to, ok := ParseDateKey(end)
    if !ok || to.Before(from) {
        return nil
    }
    out := make([]string, 0, int(to.Sub(from).Hours()/24)+1)
    for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
        out = append(out, d.Format(DateKeyLayout))
    }
    return out
}

// AddDays shifts a day key by n calendar days. Malformed keys pass through.
func AddDays(key string, n int) string {
    t, ok := ParseDateKey(key)
    if !ok {
        return key
    }
    return t.AddDate(0, 0, n).Format(DateKeyLayout)
}
