package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/service/history"
	applogger "MarketPulse/pkg/logger"
	"MarketPulse/pkg/util"
)

// Backfiller fills historical gaps from secondary sources. Backfilled days
// never replace an existing snapshot: live data always wins.
type Backfiller struct {
	store    *history.Store
	archive  drepo.Archive
	metrics  drepo.Metrics
	loc      *time.Location
	warmDays int
	l        *applogger.Logger
}

// NewBackfiller creates a new Backfiller. archive may be nil.
func NewBackfiller(
	store *history.Store,
	archive drepo.Archive,
	metrics drepo.Metrics,
	loc *time.Location,
	warmDays int,
) *Backfiller {
	return &Backfiller{
		store:    store,
		archive:  archive,
		metrics:  metrics,
		loc:      loc,
		warmDays: warmDays,
	}
}

// SetLogger injects a structured logger.
func (b *Backfiller) SetLogger(l *applogger.Logger) { b.l = l }

// Backfill inserts the given day snapshots where the store has no entry yet
// and reports how many were inserted. Days marked closed are normalized to
// the canonical placeholder before insertion. Newly inserted days are also
// written through to the archive.
func (b *Backfiller) Backfill(ctx context.Context, days []models.DaySnapshot) (int, error) {
	start := time.Now()
	inserted := 0

	for _, day := range days {
		if _, ok := util.ParseDateKey(day.Date); !ok {
			b.metrics.RecordError("backfill")
			return inserted, fmt.Errorf("backfill: bad date key %q", day.Date)
		}
		if !day.MarketOpen {
			day = models.ClosedDay(day.Date)
		}
		if !b.store.BackfillIfMissing(day.Date, day) {
			b.metrics.RecordSnapshot("backfill_skipped")
			continue
		}
		inserted++
		b.metrics.RecordSnapshot("backfill")

		if b.archive != nil {
			if err := b.archive.Store(ctx, day); err != nil {
				b.metrics.RecordError("archive_store")
				if b.l != nil {
					b.l.Error("archive store failed", applogger.String("date", day.Date), applogger.Error(err))
				}
			}
		}
	}

	b.metrics.RecordLatency("backfill", time.Since(start).Seconds())
	return inserted, nil
}

// WarmFromArchive repopulates a cold store from the archive, covering the
// configured warm window up to today. Existing entries are kept as-is.
func (b *Backfiller) WarmFromArchive(ctx context.Context) error {
	if b.archive == nil {
		return nil
	}
	start := time.Now()

	to := util.DateKey(time.Now(), b.loc)
	from := util.AddDays(to, -b.warmDays)

	days, err := b.archive.LoadRange(ctx, from, to)
	if err != nil {
		b.metrics.RecordError("warm")
		return fmt.Errorf("warm from archive: %w", err)
	}

	warmed := 0
	for _, day := range days {
		if b.store.BackfillIfMissing(day.Date, day) {
			warmed++
			b.metrics.RecordSnapshot("warm")
		}
	}

	b.metrics.RecordLatency("warm", time.Since(start).Seconds())
	if b.l != nil {
		b.l.Info("store warmed from archive",
			applogger.String("from", from),
			applogger.String("to", to),
			applogger.Int("loaded", len(days)),
			applogger.Int("warmed", warmed),
		)
	}
	return nil
}
