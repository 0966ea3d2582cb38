package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/constants"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/flags"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/models"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/swapengine"
)

// RoundTripQuoter previews both legs of a round trip.
type RoundTripQuoter interface {
	Quote(ctx context.Context, p swapengine.RoundTripParams) (*swapengine.RoundTripQuote, error)
}

// RecentSource is the read side of the recent round-trip cache.
type RecentSource interface {
	GetRecentRoundTrips(ctx context.Context, limit int64) ([]*models.RoundTripEvent, error)
}

// FlagStore is the flag CRUD surface, satisfied by *flags.Store.
type FlagStore interface {
	Upsert(ctx context.Context, key string, value bool) (*flags.Flag, error)
	Get(ctx context.Context, key string) (*flags.Flag, error)
	List(ctx context.Context) ([]*flags.Flag, error)
	Delete(ctx context.Context, key string) error
}

// Pinger is a backend the health endpoint checks, e.g. *cache.RedisCache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds the dependencies of the API endpoints. Nil dependencies
// turn their routes into 503s.
type Handlers struct {
	Quoter   RoundTripQuoter
	Recent   RecentSource
	Flags    FlagStore
	Checks   map[string]Pinger          // backends reported by /v1/health
	Defaults swapengine.RoundTripParams // zero value means DefaultRoundTripParams
	DevMode  bool
	Logger   *logrus.Logger
}

// err writes an ErrorResponse; details are only exposed in dev mode.
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func (h *Handlers) logger() *logrus.Logger {
	if h.Logger == nil {
		return logrus.StandardLogger()
	}
	return h.Logger
}

// Health pings every configured backend and answers 503 when one is down.
func (h *Handlers) Health(c echo.Context) error {
	if len(h.Checks) == 0 {
		return c.JSON(http.StatusOK, HealthResponse{OK: true})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{OK: true, Checks: make(map[string]string, len(h.Checks))}
	for name, p := range h.Checks {
		if err := p.Ping(ctx); err != nil {
			h.logger().WithError(err).WithField("check", name).Warn("health check failed")
			resp.OK = false
			resp.Checks[name] = err.Error()
			continue
		}
		resp.Checks[name] = "ok"
	}

	if !resp.OK {
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// RecentRoundTrips returns the newest recorded round trips.
// limit defaults to the cache size and must be within 1..MaxRecentRoundTrips.
func (h *Handlers) RecentRoundTrips(c echo.Context) error {
	if h.Recent == nil {
		return h.err(c, http.StatusServiceUnavailable, "recent round trips are not configured", nil)
	}

	limit := constants.MaxRecentRoundTrips
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > constants.MaxRecentRoundTrips {
		return h.err(c, http.StatusBadRequest, "invalid limit",
			map[string]any{"limit": "min 1 max " + strconv.Itoa(constants.MaxRecentRoundTrips)})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Recent.GetRecentRoundTrips(ctx, int64(limit))
	if err != nil {
		h.logger().WithError(err).Warn("recent round trips lookup failed")
		return h.err(c, http.StatusInternalServerError, "failed to get round trips", nil)
	}
	if items == nil {
		items = []*models.RoundTripEvent{}
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func (h *Handlers) FlagsUpsert(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags are not configured", nil)
	}
	var req FlagUpsertRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if err := flags.ValidateKey(req.Key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Upsert(ctx, req.Key, req.Value)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to upsert flag", nil)
	}
	h.logger().WithFields(logrus.Fields{"key": out.Key, "value": out.Value}).Info("flag upserted")
	return c.JSON(http.StatusOK, out)
}

func (h *Handlers) FlagsUpdate(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags are not configured", nil)
	}
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}
	var req FlagUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Upsert(ctx, key, req.Value)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to update flag", nil)
	}
	h.logger().WithFields(logrus.Fields{"key": out.Key, "value": out.Value}).Info("flag updated")
	return c.JSON(http.StatusOK, out)
}

// FlagsGet returns 404 for keys that were never set.
func (h *Handlers) FlagsGet(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags are not configured", nil)
	}
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Get(ctx, key)
	if err != nil {
		if errors.Is(err, flags.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "flag not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handlers) FlagsList(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags are not configured", nil)
	}
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Flags.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list flags", nil)
	}
	if items == nil {
		items = []*flags.Flag{}
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func (h *Handlers) FlagsDelete(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags are not configured", nil)
	}
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Flags.Delete(ctx, key); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to delete flag", nil)
	}
	h.logger().WithField("key", key).Info("flag deleted")
	return c.NoContent(http.StatusNoContent)
}
