package models

import "time"

// RoundTripEvent is the record of one submitted two-leg transaction.
type RoundTripEvent struct {
	Signature   string    `json:"signature"`
	Timestamp   time.Time `json:"timestamp"`
	Pair        string    `json:"pair"` // e.g. "SOL-USDC"
	BaseMint    string    `json:"base_mint"`
	TargetMint  string    `json:"target_mint"`
	AmountIn    uint64    `json:"amount_in"`
	LegOneOut   uint64    `json:"leg_one_out"`
	LegTwoOut   uint64    `json:"leg_two_out"`
	LegTwoIn    uint64    `json:"leg_two_in"`
	SlippageBps uint16    `json:"slippage_bps"`
	Status      string    `json:"status"` // confirmed, failed, timed_out
	Slot        uint64    `json:"slot"`
	Fee         uint64    `json:"fee"`
	Error       string    `json:"error,omitempty"`
}
