package server

import (
	"time"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/jupiter"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/swapengine"
)

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details any    `json:"details,omitempty"` // dev mode only
}

type HealthResponse struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

type FlagUpsertRequest struct {
	Key   string `json:"key"`
	Value bool   `json:"value"`
}

type FlagUpdateRequest struct {
	Value bool `json:"value"`
}

// LegQuote is the part of a Jupiter quote worth showing to a caller.
type LegQuote struct {
	InputMint            string `json:"input_mint"`
	OutputMint           string `json:"output_mint"`
	InAmount             string `json:"in_amount"`
	OutAmount            string `json:"out_amount"`
	OtherAmountThreshold string `json:"other_amount_threshold"`
	SwapMode             string `json:"swap_mode"`
	SlippageBps          uint16 `json:"slippage_bps"`
	PriceImpactPct       string `json:"price_impact_pct"`
	Hops                 int    `json:"hops"`
	ContextSlot          uint64 `json:"context_slot,omitempty"`
}

// RoundTripQuoteResponse previews both legs of a round trip.
type RoundTripQuoteResponse struct {
	Pair            string    `json:"pair"`
	AmountIn        uint64    `json:"amount_in"`
	RetainBps       uint16    `json:"retain_bps"`
	SlippageBps     uint16    `json:"slippage_bps"`
	LegTwoOutAmount string    `json:"leg_two_out_amount"`
	NetBase         int64     `json:"net_base"`
	LegOne          LegQuote  `json:"leg_one"`
	LegTwo          LegQuote  `json:"leg_two"`
	QuotedAt        time.Time `json:"quoted_at"`
}

func newLegQuote(q *jupiter.QuoteResponse) LegQuote {
	return LegQuote{
		InputMint:            q.InputMint,
		OutputMint:           q.OutputMint,
		InAmount:             q.InAmount,
		OutAmount:            q.OutAmount,
		OtherAmountThreshold: q.OtherAmountThreshold,
		SwapMode:             q.SwapMode,
		SlippageBps:          q.SlippageBps,
		PriceImpactPct:       q.PriceImpactPct,
		Hops:                 len(q.RoutePlan),
		ContextSlot:          q.ContextSlot,
	}
}

func newRoundTripQuoteResponse(q *swapengine.RoundTripQuote) RoundTripQuoteResponse {
	return RoundTripQuoteResponse{
		Pair:            q.Params.Pair(),
		AmountIn:        q.Params.AmountIn,
		RetainBps:       q.Params.RetainBps,
		SlippageBps:     q.Params.SlippageBps,
		LegTwoOutAmount: q.LegTwoOutAmount,
		NetBase:         q.NetBase(),
		LegOne:          newLegQuote(q.LegOne),
		LegTwo:          newLegQuote(q.LegTwo),
		QuotedAt:        q.QuotedAt,
	}
}
