package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	pkgch "MarketPulse/pkg/clickhouse"
	applogger "MarketPulse/pkg/logger"
	"MarketPulse/pkg/util"
)

// CHArchive implements Archive backed by ClickHouse. The table uses
// ReplacingMergeTree keyed by date, so re-recording a day simply supersedes
// the previous row; LoadRange reads with FINAL to collapse duplicates.
type CHArchive struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHArchive(ch *pkgch.Client, table string) *CHArchive {
	return &CHArchive{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (a *CHArchive) SetLogger(l *applogger.Logger) { a.l = l }

func (a *CHArchive) Store(ctx context.Context, day models.DaySnapshot) error {
	q := fmt.Sprintf(`INSERT INTO %s
        (date, composite, sentiment, volatility, long_rate_change, dollar_change, market_open, recorded_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, a.table)

	open := uint8(0)
	if day.MarketOpen {
		open = 1
	}
	_, err := a.db.ExecContext(ctx, q,
		day.Date,
		int32(day.Composite),
		nullable(day.Sentiment),
		nullable(day.Volatility),
		nullable(day.LongRateChange),
		nullable(day.DollarChange),
		open,
		time.Now().UTC(),
	)
	if err != nil {
		if a.l != nil {
			a.l.Error("clickhouse archive store error",
				applogger.String("date", day.Date),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("archive store: %w", err)
	}
	return nil
}

func (a *CHArchive) LoadRange(ctx context.Context, from, to string) ([]models.DaySnapshot, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT date, composite, sentiment, volatility, long_rate_change, dollar_change, market_open
        FROM %s FINAL
        WHERE date >= ? AND date <= ?
        ORDER BY date ASC
    `, a.table)

	rows, err := a.db.QueryContext(ctx, q, from, to)
	if err != nil {
		if a.l != nil {
			a.l.Error("clickhouse archive load query error",
				applogger.String("from", from),
				applogger.String("to", to),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("archive load: %w", err)
	}
	defer rows.Close()

	out := make([]models.DaySnapshot, 0, 128)
	for rows.Next() {
		var (
			date      time.Time
			composite int32
			sent      sql.NullFloat64
			vol       sql.NullFloat64
			longRate  sql.NullFloat64
			dollar    sql.NullFloat64
			open      uint8
		)
		if err := rows.Scan(&date, &composite, &sent, &vol, &longRate, &dollar, &open); err != nil {
			return nil, fmt.Errorf("scan day score: %w", err)
		}
		out = append(out, models.DaySnapshot{
			Date:           date.Format(util.DateKeyLayout),
			Composite:      int(composite),
			Sentiment:      fromNull(sent),
			Volatility:     fromNull(vol),
			LongRateChange: fromNull(longRate),
			DollarChange:   fromNull(dollar),
			MarketOpen:     open != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if a.l != nil {
		a.l.Info("clickhouse archive load ok",
			applogger.String("from", from),
			applogger.String("to", to),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (a *CHArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *CHArchive) Close() error {
	return nil // pool is owned by pkg/clickhouse client
}

func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

var _ domrepo.Archive = (*CHArchive)(nil)
