package repository

import (
	"context"

	"MarketPulse/internal/domain/models"
)

// Archive is the optional persistence hook behind the in-memory snapshot
// store. The store itself is session-scoped; the archive keeps the long tail
// and repopulates a cold store on startup.
type Archive interface {
	Store(ctx context.Context, day models.DaySnapshot) error
	LoadRange(ctx context.Context, from, to string) ([]models.DaySnapshot, error)
	Health(ctx context.Context) error
	Close() error
}

// ScorePublisher pushes recorded snapshots to downstream consumers.
type ScorePublisher interface {
	Publish(ctx context.Context, day models.DaySnapshot) error
	Close() error
}

type Metrics interface {
	RecordSnapshot(path string) // "live", "backfill", "backfill_skipped", "warm"
	RecordComposite(score int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
