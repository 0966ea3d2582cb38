package jupiter

import (
	"encoding/json"

	"github.com/gagliardetto/solana-go"
)

const (
	SwapModeExactIn  = "ExactIn"
	SwapModeExactOut = "ExactOut"
)

type QuoteRequest struct {
	InputMint  string
	OutputMint string
	Amount     string // raw integer as string (uint64)

	SlippageBps *uint16
	SwapMode    string // ExactIn | ExactOut

	Dexes        []string
	ExcludeDexes []string

	RestrictIntermediateTokens *bool
	OnlyDirectRoutes           *bool
	AsLegacyTransaction        *bool

	PlatformFeeBps *uint16
	MaxAccounts    *uint64
}

type QuoteResponse struct {
	InputMint            string          `json:"inputMint"`
	OutputMint           string          `json:"outputMint"`
	InAmount             string          `json:"inAmount"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	SwapMode             string          `json:"swapMode"`
	SlippageBps          uint16          `json:"slippageBps"`
	PlatformFee          *PlatformFee    `json:"platformFee,omitempty"`
	PriceImpactPct       string          `json:"priceImpactPct"`
	RoutePlan            []RoutePlanStep `json:"routePlan"`

	ContextSlot uint64  `json:"contextSlot,omitempty"`
	TimeTaken   float64 `json:"timeTaken,omitempty"`

	// raw is the body as received; it is echoed back verbatim to
	// /swap-instructions so fields this struct does not model survive.
	raw json.RawMessage
}

// MarshalJSON prefers the original payload when the quote came off the wire.
func (q QuoteResponse) MarshalJSON() ([]byte, error) {
	if len(q.raw) > 0 {
		return q.raw, nil
	}
	type plain QuoteResponse
	return json.Marshal(plain(q))
}

type PlatformFee struct {
	Amount string `json:"amount,omitempty"`
	FeeBps uint16 `json:"feeBps,omitempty"`
}

type RoutePlanStep struct {
	SwapInfo SwapInfo `json:"swapInfo"`
	Percent  *uint8   `json:"percent,omitempty"`
	Bps      uint16   `json:"bps"`
}

type SwapInfo struct {
	AmmKey     string `json:"ammKey"`
	Label      string `json:"label,omitempty"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`

	FeeAmount *string `json:"feeAmount,omitempty"`
	FeeMint   *string `json:"feeMint,omitempty"`
}

type swapInstructionsRequest struct {
	QuoteResponse                 *QuoteResponse `json:"quoteResponse"`
	UserPublicKey                 string         `json:"userPublicKey"`
	WrapAndUnwrapSol              bool           `json:"wrapAndUnwrapSol"`
	ComputeUnitPriceMicroLamports uint64         `json:"computeUnitPriceMicroLamports"`
}

// Instruction is the wire form of a single on-chain instruction.
type Instruction struct {
	ProgramID string        `json:"programId"`
	Accounts  []AccountMeta `json:"accounts"`
	Data      string        `json:"data"` // base64
}

type AccountMeta struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

// SwapInstructionsResponse is everything needed to execute one quote.
type SwapInstructionsResponse struct {
	TokenLedgerInstruction      *Instruction  `json:"tokenLedgerInstruction,omitempty"`
	ComputeBudgetInstructions   []Instruction `json:"computeBudgetInstructions"`
	SetupInstructions           []Instruction `json:"setupInstructions"`
	SwapInstruction             *Instruction  `json:"swapInstruction"`
	CleanupInstruction          *Instruction  `json:"cleanupInstruction,omitempty"`
	AddressLookupTableAddresses []string      `json:"addressLookupTableAddresses"`

	// Payer is the userPublicKey the set was requested for.
	Payer solana.PublicKey `json:"-"`
}

// Instructions decodes the set in execution order for standalone use:
// compute budget, setup, swap, then cleanup when present.
func (s *SwapInstructionsResponse) Instructions() ([]solana.Instruction, error) {
	wire := make([]Instruction, 0, len(s.ComputeBudgetInstructions)+len(s.SetupInstructions)+2)
	wire = append(wire, s.ComputeBudgetInstructions...)
	wire = append(wire, s.SetupInstructions...)
	if s.SwapInstruction != nil {
		wire = append(wire, *s.SwapInstruction)
	}
	if s.CleanupInstruction != nil {
		wire = append(wire, *s.CleanupInstruction)
	}
	return DeserializeInstructions(wire)
}
