package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/swapengine"
)

// RoundTripQuote previews both legs. Query parameters targetMint, amount,
// slippageBps and retainBps override the configured defaults.
func (h *Handlers) RoundTripQuote(c echo.Context) error {
	if h.Quoter == nil {
		return h.err(c, http.StatusServiceUnavailable, "quoting is not configured", nil)
	}

	p, field, msg := h.paramsFromQuery(c)
	if field != "" {
		return h.err(c, http.StatusBadRequest, "invalid "+field, map[string]any{field: msg})
	}
	if err := p.Validate(); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid round trip params", map[string]any{"err": err.Error()})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	q, err := h.Quoter.Quote(ctx, p)
	if err != nil {
		h.logger().WithError(err).WithField("pair", p.Pair()).Warn("round trip quote failed")
		return h.err(c, http.StatusBadGateway, "jupiter quote failed", map[string]any{"err": err.Error()})
	}
	return c.JSON(http.StatusOK, newRoundTripQuoteResponse(q))
}

// paramsFromQuery returns the offending field name and a hint when a
// parameter does not parse.
func (h *Handlers) paramsFromQuery(c echo.Context) (swapengine.RoundTripParams, string, string) {
	p := h.Defaults
	if p.BaseMint.IsZero() {
		p = swapengine.DefaultRoundTripParams()
	}

	if v := strings.TrimSpace(c.QueryParam("targetMint")); v != "" {
		mint, err := solana.PublicKeyFromBase58(v)
		if err != nil {
			return p, "targetMint", "must be a base58 public key"
		}
		p.TargetMint = mint
	}
	if v := strings.TrimSpace(c.QueryParam("amount")); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return p, "amount", "must be uint64"
		}
		p.AmountIn = n
	}
	if v := strings.TrimSpace(c.QueryParam("slippageBps")); v != "" {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return p, "slippageBps", "must be uint16"
		}
		p.SlippageBps = uint16(n)
	}
	if v := strings.TrimSpace(c.QueryParam("retainBps")); v != "" {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return p, "retainBps", "must be uint16"
		}
		p.RetainBps = uint16(n)
	}
	return p, "", ""
}
