package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/service/history"
	"MarketPulse/pkg/cache"
	applogger "MarketPulse/pkg/logger"
)

// ErrBadRange is returned when the requested calendar range is malformed or
// inverted.
var ErrBadRange = errors.New("history: invalid date range")

const historyCachePrefix = "history"

// HistoryReader serves calendar-range reads with an optional TTL cache in
// front of the store. The store itself answers every range; the cache only
// shortcuts the JSON assembly for repeated dashboard queries.
type HistoryReader struct {
	store   *history.Store
	cacheSv cache.Service
	ttl     time.Duration
	metrics drepo.Metrics
	l       *applogger.Logger
}

// NewHistoryReader creates a new HistoryReader. cacheSv may be nil.
func NewHistoryReader(store *history.Store, cacheSv cache.Service, ttl time.Duration, metrics drepo.Metrics) *HistoryReader {
	return &HistoryReader{store: store, cacheSv: cacheSv, ttl: ttl, metrics: metrics}
}

// SetLogger injects a structured logger.
func (h *HistoryReader) SetLogger(l *applogger.Logger) { h.l = l }

// Range returns every calendar day in [from, to] inclusive, ascending, with
// closed-market placeholders for days the store has no entry for.
func (h *HistoryReader) Range(ctx context.Context, from, to string) ([]models.DaySnapshot, error) {
	start := time.Now()
	key := cache.GenerateKeyWithParams(historyCachePrefix, from, to)

	if h.cacheSv != nil {
		var raw string
		if err := h.cacheSv.Get(ctx, key, &raw); err == nil {
			var days []models.DaySnapshot
			if err := json.Unmarshal([]byte(raw), &days); err == nil {
				h.metrics.RecordLatency("history_range", time.Since(start).Seconds())
				return days, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			h.metrics.RecordError("cache_get")
			if h.l != nil {
				h.l.Warn("history cache get failed", applogger.String("key", key), applogger.Error(err))
			}
		}
	}

	days := h.store.GetRange(from, to)
	if days == nil {
		h.metrics.RecordError("history_range")
		return nil, fmt.Errorf("%w: %s..%s", ErrBadRange, from, to)
	}

	if h.cacheSv != nil {
		if raw, err := json.Marshal(days); err == nil {
			if err := h.cacheSv.Set(ctx, key, string(raw), h.ttl); err != nil {
				h.metrics.RecordError("cache_set")
				if h.l != nil {
					h.l.Warn("history cache set failed", applogger.String("key", key), applogger.Error(err))
				}
			}
		}
	}

	h.metrics.RecordLatency("history_range", time.Since(start).Seconds())
	return days, nil
}

// Invalidate drops every cached range. Called after writes so cached ranges
// containing the touched day do not serve stale composites for a full TTL.
func (h *HistoryReader) Invalidate(ctx context.Context) {
	if h.cacheSv == nil {
		return
	}
	if err := h.cacheSv.DeleteByPattern(ctx, cache.BuildPattern(historyCachePrefix)); err != nil {
		h.metrics.RecordError("cache_invalidate")
		if h.l != nil {
			h.l.Warn("history cache invalidate failed", applogger.Error(err))
		}
	}
}
