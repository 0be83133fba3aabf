package history

import (
	"math"
	"sync"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/services/scoring"
	"MarketPulse/pkg/util"
)

// Store keeps the session-scoped map of day snapshots keyed by calendar date.
// It has no persistence of its own: callers must tolerate a cold store and
// repopulate it through the backfill path. Live writes always win over
// backfill, never the other way around.
type Store struct {
	mu   sync.RWMutex
	days map[string]models.DaySnapshot
}

func NewStore() *Store {
	return &Store{days: make(map[string]models.DaySnapshot)}
}

// RecordLive computes the composite for the given inputs and overwrites any
// existing entry for dateKey. Today's snapshot is refreshed on every
// successful collection. Stored precision: volatility 1 decimal, change
// percents 2 decimals.
func (s *Store) RecordLive(dateKey string, in models.SignalInputs) models.DaySnapshot {
	day := models.DaySnapshot{
		Date:           dateKey,
		Composite:      scoring.Composite(in),
		Sentiment:      in.Sentiment,
		Volatility:     roundPtr(in.Volatility, 1),
		LongRateChange: roundPtr(in.LongRateChange, 2),
		DollarChange:   roundPtr(in.DollarChange, 2),
		MarketOpen:     true,
	}

	s.mu.Lock()
	s.days[dateKey] = day
	s.mu.Unlock()
	return day
}

// BackfillIfMissing inserts the snapshot only when dateKey is absent.
// Historical data is authoritative only when nothing fresher is known, so a
// pre-existing entry is never replaced. Reports whether it inserted.
func (s *Store) BackfillIfMissing(dateKey string, day models.DaySnapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.days[dateKey]; ok {
		return false
	}
	s.days[dateKey] = day
	return true
}

// Get returns the stored snapshot for dateKey, if any.
func (s *Store) Get(dateKey string) (models.DaySnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	day, ok := s.days[dateKey]
	return day, ok
}

// GetRange assembles every calendar day in [start, end] inclusive, ascending.
// Days absent from the store come back as closed-market placeholders: absence
// means "market was closed", not "data missing".
func (s *Store) GetRange(start, end string) []models.DaySnapshot {
	keys := util.DaysInRange(start, end)
	if keys == nil {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.DaySnapshot, 0, len(keys))
	for _, key := range keys {
		if day, ok := s.days[key]; ok {
			out = append(out, day)
		} else {
			out = append(out, models.ClosedDay(key))
		}
	}
	return out
}

// Keys returns every stored date key, unordered.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.days))
	for k := range s.days {
		out = append(out, k)
	}
	return out
}

// Delete removes the given date keys. Used by retention pruning.
func (s *Store) Delete(keys ...string) {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.days, k)
	}
	s.mu.Unlock()
}

// Len reports the number of stored days.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.days)
}

// Reset drops every entry, returning the store to its cold state.
func (s *Store) Reset() {
	s.mu.Lock()
	s.days = make(map[string]models.DaySnapshot)
	s.mu.Unlock()
}

func roundPtr(v *float64, decimals int) *float64 {
	if v == nil {
		return nil
	}
	scale := math.Pow10(decimals)
	r := math.Round(*v*scale) / scale
	return &r
}
