package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"MarketPulse/internal/domain/models"
	applogger "MarketPulse/pkg/logger"
)

// signalEnvelope is the wire format of the signals topic. The collector posts
// either one live collection result or a batch of historical days.
type signalEnvelope struct {
	Kind string                `json:"kind"`
	Live *models.RecordRequest `json:"live,omitempty"`
	Days []models.DaySnapshot  `json:"days,omitempty"`
}

// SignalsHandler consumes collector messages from the signals topic and routes
// them through the same write paths as the HTTP ingest endpoints. Errors
// propagate to the consumer, which retries with backoff and dead-letters.
type SignalsHandler struct {
	topic      string
	recorder   *SnapshotRecorder
	backfiller *Backfiller
	reader     *HistoryReader
	l          *applogger.Logger
}

// NewSignalsHandler creates a new SignalsHandler.
func NewSignalsHandler(topic string, recorder *SnapshotRecorder, backfiller *Backfiller, reader *HistoryReader) *SignalsHandler {
	return &SignalsHandler{topic: topic, recorder: recorder, backfiller: backfiller, reader: reader}
}

// SetLogger injects a structured logger.
func (h *SignalsHandler) SetLogger(l *applogger.Logger) { h.l = l }

// Topic returns the topic this handler consumes.
func (h *SignalsHandler) Topic() string { return h.topic }

// Handle decodes one envelope and applies it.
func (h *SignalsHandler) Handle(ctx context.Context, payload []byte) error {
	var env signalEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("decode signal envelope: %w", err)
	}

	switch env.Kind {
	case "live":
		if env.Live == nil {
			return fmt.Errorf("live signal without payload")
		}
		day, err := h.recorder.RecordLive(ctx, *env.Live)
		if err != nil {
			return err
		}
		h.reader.Invalidate(ctx)
		if h.l != nil {
			h.l.Debug("live signal recorded",
				applogger.String("date", day.Date),
				applogger.Int("composite", day.Composite),
			)
		}
		return nil

	case "backfill":
		if len(env.Days) == 0 {
			return fmt.Errorf("backfill signal without days")
		}
		inserted, err := h.backfiller.Backfill(ctx, env.Days)
		if err != nil {
			return err
		}
		if inserted > 0 {
			h.reader.Invalidate(ctx)
		}
		if h.l != nil {
			h.l.Debug("backfill signal applied",
				applogger.Int("received", len(env.Days)),
				applogger.Int("inserted", inserted),
			)
		}
		return nil

	default:
		return fmt.Errorf("unknown signal kind %q", env.Kind)
	}
}
