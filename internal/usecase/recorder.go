package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/service/history"
	"MarketPulse/internal/services/timeseries"
	applogger "MarketPulse/pkg/logger"
	"MarketPulse/pkg/util"
)

// Notifier receives every freshly recorded day snapshot. Implemented by the
// websocket hub; nil when streaming is disabled.
type Notifier interface {
	NotifySnapshot(day models.DaySnapshot)
}

// SnapshotRecorder handles the live write path: resolve the calendar day,
// derive missing change percents from raw series, score, store, and fan the
// result out to the archive, the scores topic and stream subscribers.
type SnapshotRecorder struct {
	store    *history.Store
	archive  drepo.Archive
	pub      drepo.ScorePublisher
	metrics  drepo.Metrics
	notifier Notifier
	loc      *time.Location
	l        *applogger.Logger
}

// NewSnapshotRecorder creates a new SnapshotRecorder. archive, pub and
// notifier may be nil when the corresponding backend is disabled.
func NewSnapshotRecorder(
	store *history.Store,
	archive drepo.Archive,
	pub drepo.ScorePublisher,
	metrics drepo.Metrics,
	loc *time.Location,
) *SnapshotRecorder {
	return &SnapshotRecorder{
		store:   store,
		archive: archive,
		pub:     pub,
		metrics: metrics,
		loc:     loc,
	}
}

// SetNotifier attaches a stream notifier.
func (r *SnapshotRecorder) SetNotifier(n Notifier) { r.notifier = n }

// SetLogger injects a structured logger.
func (r *SnapshotRecorder) SetLogger(l *applogger.Logger) { r.l = l }

// RecordLive scores one collection result and overwrites the day's snapshot.
// Archive and publish failures are reported through metrics and logs but do
// not fail the write: the in-memory store is the source of truth for the
// session and must accept the snapshot regardless of side channels.
func (r *SnapshotRecorder) RecordLive(ctx context.Context, req models.RecordRequest) (models.DaySnapshot, error) {
	start := time.Now()

	dateKey := req.Date
	if dateKey == "" {
		dateKey = util.DateKey(time.Now(), r.loc)
	} else if _, ok := util.ParseDateKey(dateKey); !ok {
		r.metrics.RecordError("record_live")
		return models.DaySnapshot{}, fmt.Errorf("record live: bad date key %q", dateKey)
	}

	day := r.store.RecordLive(dateKey, resolveInputs(req))

	r.metrics.RecordSnapshot("live")
	r.metrics.RecordComposite(day.Composite)

	if r.archive != nil {
		if err := r.archive.Store(ctx, day); err != nil {
			r.metrics.RecordError("archive_store")
			if r.l != nil {
				r.l.Error("archive store failed", applogger.String("date", day.Date), applogger.Error(err))
			}
		}
	}
	if r.pub != nil {
		if err := r.pub.Publish(ctx, day); err != nil {
			r.metrics.RecordError("publish_score")
			if r.l != nil {
				r.l.Error("score publish failed", applogger.String("date", day.Date), applogger.Error(err))
			}
		}
	}
	if r.notifier != nil {
		r.notifier.NotifySnapshot(day)
	}

	r.metrics.RecordLatency("record_live", time.Since(start).Seconds())
	return day, nil
}

// resolveInputs picks the direct change-percent fields when present and falls
// back to deriving them from the posted raw series.
func resolveInputs(req models.RecordRequest) models.SignalInputs {
	in := models.SignalInputs{
		Sentiment:      req.Sentiment,
		Volatility:     req.Volatility,
		LongRateChange: req.LongRateChange,
		DollarChange:   req.DollarChange,
	}
	if in.LongRateChange == nil && len(req.LongRateSeries) > 0 {
		in.LongRateChange = timeseries.LatestChangePercent(req.LongRateSeries)
	}
	if in.DollarChange == nil && len(req.DollarSeries) > 0 {
		in.DollarChange = timeseries.LatestChangePercent(req.DollarSeries)
	}
	return in
}
