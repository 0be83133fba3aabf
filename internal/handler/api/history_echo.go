package api

import (
	"errors"
	"net/http"

	models "MarketPulse/internal/domain/models"
	"MarketPulse/internal/service/ratelimit"
	"MarketPulse/internal/services/scoring"
	"MarketPulse/internal/services/timeseries"
	"MarketPulse/internal/usecase"
	xhttp "MarketPulse/pkg/http"
	xlogger "MarketPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// HistoryEchoHandler exposes the scoring and history endpoints over Echo.
type HistoryEchoHandler struct {
	logger     *xlogger.Logger
	recorder   *usecase.SnapshotRecorder
	backfiller *usecase.Backfiller
	reader     *usecase.HistoryReader
	limiter    *ratelimit.Limiter
	ingestRPS  float64
	ingestCap  float64
}

func NewHistoryEchoHandler(
	logger *xlogger.Logger,
	recorder *usecase.SnapshotRecorder,
	backfiller *usecase.Backfiller,
	reader *usecase.HistoryReader,
	limiter *ratelimit.Limiter,
	ingestRPS, ingestBurst float64,
) *HistoryEchoHandler {
	return &HistoryEchoHandler{
		logger:     logger,
		recorder:   recorder,
		backfiller: backfiller,
		reader:     reader,
		limiter:    limiter,
		ingestRPS:  ingestRPS,
		ingestCap:  ingestBurst,
	}
}

func (h *HistoryEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/market", h.RecordMarket)
	g.POST("/history/backfill", h.Backfill)
	g.GET("/history", h.History)
	g.POST("/score", h.Score)
	g.POST("/returns", h.Returns)
}

// RecordMarket records one live collection result as today's snapshot (or the
// explicitly given day's) and returns the stored snapshot.
func (h *HistoryEchoHandler) RecordMarket(c echo.Context) error {
	if !h.allowIngest(c) {
		return h.rateLimited(c)
	}
	req := &models.RecordRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	day, err := h.recorder.RecordLive(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("record market error", xlogger.Error(err))
		return xhttp.BadRequestResponse(c, err.Error())
	}
	h.reader.Invalidate(c.Request().Context())
	return xhttp.SuccessResponse(c, day)
}

// Backfill inserts historical snapshots where nothing fresher exists.
func (h *HistoryEchoHandler) Backfill(c echo.Context) error {
	if !h.allowIngest(c) {
		return h.rateLimited(c)
	}
	req := &models.BackfillRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	inserted, err := h.backfiller.Backfill(c.Request().Context(), req.Days)
	if err != nil {
		h.logger.Error("backfill error", xlogger.Error(err))
		return xhttp.BadRequestResponse(c, err.Error())
	}
	if inserted > 0 {
		h.reader.Invalidate(c.Request().Context())
	}
	return xhttp.SuccessResponse(c, models.BackfillResponse{
		Received: len(req.Days),
		Inserted: inserted,
	})
}

// History returns every calendar day in the inclusive range, closed-market
// placeholders included.
func (h *HistoryEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	days, err := h.reader.Range(c.Request().Context(), req.From, req.To)
	if err != nil {
		if errors.Is(err, usecase.ErrBadRange) {
			return xhttp.BadRequestResponse(c, err.Error())
		}
		h.logger.Error("history range error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, days)
}

// Score computes a composite from posted signals without recording anything.
func (h *HistoryEchoHandler) Score(c echo.Context) error {
	req := &models.ScoreRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	composite := scoring.Composite(models.SignalInputs{
		Sentiment:      req.Sentiment,
		Volatility:     req.Volatility,
		LongRateChange: req.LongRateChange,
		DollarChange:   req.DollarChange,
	})
	return xhttp.SuccessResponse(c, models.ScoreResponse{Composite: composite})
}

// Returns computes period returns over a posted price series.
func (h *HistoryEchoHandler) Returns(c echo.Context) error {
	req := &models.ReturnsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	return xhttp.SuccessResponse(c, models.ReturnsResponse{
		Periods:   timeseries.PeriodReturns(req.Series),
		Sparkline: timeseries.Sparkline(req.Series, req.Sparkline),
	})
}

func (h *HistoryEchoHandler) allowIngest(c echo.Context) bool {
	if h.limiter == nil {
		return true
	}
	return h.limiter.Allow(c.RealIP(), h.ingestCap, h.ingestRPS)
}

func (h *HistoryEchoHandler) rateLimited(c echo.Context) error {
	return xhttp.DataResponse(c, http.StatusTooManyRequests,
		xhttp.NewAppError("ERR_RATE_LIMITED", "", "ingest rate limit exceeded", http.StatusTooManyRequests))
}
