package usecase

import (
	"time"

	drepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/service/history"
	applogger "MarketPulse/pkg/logger"
	"MarketPulse/pkg/util"
)

// Retention prunes store entries older than the retention window. Runs on a
// cron schedule; the archive keeps the full history.
type Retention struct {
	store   *history.Store
	metrics drepo.Metrics
	loc     *time.Location
	days    int
	l       *applogger.Logger
}

// NewRetention creates a new Retention pruner.
func NewRetention(store *history.Store, metrics drepo.Metrics, loc *time.Location, days int) *Retention {
	return &Retention{store: store, metrics: metrics, loc: loc, days: days}
}

// SetLogger injects a structured logger.
func (r *Retention) SetLogger(l *applogger.Logger) { r.l = l }

// Prune removes every day strictly older than the retention cutoff and
// reports how many were removed. Date keys sort lexicographically, so a
// string compare against the cutoff key is exact.
func (r *Retention) Prune() int {
	start := time.Now()
	cutoff := util.AddDays(util.DateKey(time.Now(), r.loc), -r.days)

	var stale []string
	for _, key := range r.store.Keys() {
		if key < cutoff {
			stale = append(stale, key)
		}
	}
	if len(stale) > 0 {
		r.store.Delete(stale...)
	}

	r.metrics.RecordLatency("prune", time.Since(start).Seconds())
	if r.l != nil {
		r.l.Info("retention prune complete",
			applogger.String("cutoff", cutoff),
			applogger.Int("removed", len(stale)),
			applogger.Int("remaining", r.store.Len()),
		)
	}
	return len(stale)
}
