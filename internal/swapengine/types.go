package swapengine

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/constants"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/jupiter"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/lookuptable"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/wallet"
)

// RoundTripParams describes one A→B→A trade. Leg one sells AmountIn of
// BaseMint exact-in; leg two buys back RetainBps of it exact-out.
type RoundTripParams struct {
	BaseMint    solana.PublicKey
	TargetMint  solana.PublicKey
	AmountIn    uint64 // raw units of BaseMint
	RetainBps   uint16 // share of AmountIn bought back, 10000 = 100%
	SlippageBps uint16
}

// DefaultRoundTripParams is the demo trade: 0.005 SOL to USDC and 99% back.
func DefaultRoundTripParams() RoundTripParams {
	return RoundTripParams{
		BaseMint:    solana.MustPublicKeyFromBase58(constants.MintWSOL),
		TargetMint:  solana.MustPublicKeyFromBase58(constants.MintUSDC),
		AmountIn:    constants.DemoAmountIn,
		RetainBps:   constants.DemoRetainBps,
		SlippageBps: constants.DemoSlippageBps,
	}
}

// Pair renders the params as "BASE-TARGET" using known symbols.
func (p RoundTripParams) Pair() string {
	return constants.Symbol(p.BaseMint.String()) + "-" + constants.Symbol(p.TargetMint.String())
}

// RoundTripQuote holds both legs' quotes.
type RoundTripQuote struct {
	Params          RoundTripParams
	LegOne          *jupiter.QuoteResponse
	LegTwo          *jupiter.QuoteResponse
	LegTwoOutAmount string
	QuotedAt        time.Time
}

// NetBase is what the round trip returns minus what it spends, in raw
// BaseMint units. Fees are not included.
func (q *RoundTripQuote) NetBase() int64 {
	return int64(q.LegTwo.OutAmountUint64()) - int64(q.LegOne.InAmountUint64())
}

// Leg is one side of the trade ready for assembly.
type Leg struct {
	Quote        *jupiter.QuoteResponse
	Instructions *jupiter.SwapInstructionsResponse
	Tables       []lookuptable.Account
}

// AssembleInput is everything Assemble needs. It performs no I/O.
type AssembleInput struct {
	Payer     solana.PublicKey
	Blockhash solana.Hash
	LegOne    Leg
	LegTwo    Leg
}

// Assembled is the unsigned round-trip transaction and what went into it.
type Assembled struct {
	Tx           *solana.Transaction
	Instructions []solana.Instruction
	Tables       []lookuptable.Account
	// DroppedLegTwo counts leg two's compute budget, setup, token ledger and
	// cleanup instructions left out of the transaction.
	DroppedLegTwo int
}

// RoundTripResult is the outcome of Engine.Execute.
type RoundTripResult struct {
	Signature    string
	Quote        *RoundTripQuote
	Confirmation *wallet.Confirmation
	Instructions int
	Duration     time.Duration
}
