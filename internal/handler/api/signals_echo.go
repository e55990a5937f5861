package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	models "SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
	icache "SignalForge/internal/service/cache"
	"SignalForge/internal/service/ratelimit"
	"SignalForge/internal/usecase"
	xhttp "SignalForge/pkg/http"
	xlogger "SignalForge/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SignalsEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type SignalsEchoHandler struct {
	logger    *xlogger.Logger
	runner    *usecase.EngineRunner
	collector *usecase.BarCollector
	history   domrepo.SignalHistory
	cache     icache.BytesCache
	rl        *ratelimit.Limiter
}

func NewSignalsEchoHandler(logger *xlogger.Logger, runner *usecase.EngineRunner, collector *usecase.BarCollector, history domrepo.SignalHistory) *SignalsEchoHandler {
	return &SignalsEchoHandler{logger: logger, runner: runner, collector: collector, history: history, rl: ratelimit.New()}
}

// SetCache injects a byte cache for the read endpoints.
func (h *SignalsEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api/v1")
	g.GET("/session", h.Session)
	g.GET("/signals/recent", h.Recent)
	g.POST("/position/closed", h.PositionClosed)
}

func (h *SignalsEchoHandler) Health(c echo.Context) error {
	status := "ok"
	code := http.StatusOK
	if h.collector != nil && !h.collector.IsConnected() {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	return xhttp.DataResponse(c, code, map[string]string{"status": status})
}

func (h *SignalsEchoHandler) Session(c echo.Context) error {
	req := &models.SessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	snap, ok := h.runner.SessionSnapshot(req.Symbol)
	if !ok {
		return xhttp.DataResponse(c, http.StatusNotFound, map[string]string{"error": "no session for symbol"})
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol":             req.Symbol,
		"session":            snap,
		"signal_outstanding": h.runner.SignalOutstanding(req.Symbol),
	})
}

func (h *SignalsEchoHandler) Recent(c echo.Context) error {
	req := &models.RecentSignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":recent", 10, 5) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
	}

	cacheKey := "recent:" + req.Symbol + ":" + strconv.Itoa(req.N)
	if h.cache != nil {
		if b, ok, _ := h.cache.GetBytes(cacheKey); ok {
			c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, b)
		}
	}

	signals, err := h.history.Recent(c.Request().Context(), req.Symbol, req.N)
	if err != nil {
		h.logger.Error("recent signals error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if h.cache != nil {
		if b, err := json.Marshal(map[string]interface{}{"success": true, "data": signals}); err == nil {
			_ = h.cache.SetBytes(cacheKey, b, 5*time.Second)
		}
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=5")
	return xhttp.SuccessResponse(c, signals)
}

func (h *SignalsEchoHandler) PositionClosed(c echo.Context) error {
	req := &models.PositionClosedRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":position", 5, 2) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
	}

	if err := h.runner.PositionClosed(req.Symbol); err != nil {
		h.logger.Warn("position closed for unknown session", xlogger.String("symbol", req.Symbol))
		return xhttp.DataResponse(c, http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	h.logger.Info("position closed",
		xlogger.String("symbol", req.Symbol),
		xlogger.String("reason", req.Reason))
	return xhttp.SuccessResponse(c, map[string]string{"symbol": req.Symbol, "gate": "open"})
}
