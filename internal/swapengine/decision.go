package swapengine

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/jupiter"
)

const bpsDenominator = 10_000

var (
	// ErrLegMismatch means the two legs cannot share one transaction: leg two
	// must undo leg one for the same payer, whose token accounts leg one's
	// setup instructions prepare.
	ErrLegMismatch = errors.New("round trip legs do not match")

	// ErrExecutionDisabled is returned when the kill switch flag is off.
	ErrExecutionDisabled = errors.New("round trip execution is disabled")

	// ErrNotConfirmed is returned when confirmation polling gave up before
	// the transaction reached a terminal state. It may still land.
	ErrNotConfirmed = errors.New("round trip not confirmed")
)

// LegTwoOutAmount is floor(amountIn * retainBps / 10000) as a decimal string.
func LegTwoOutAmount(amountIn uint64, retainBps uint16) string {
	v := new(big.Int).SetUint64(amountIn)
	v.Mul(v, big.NewInt(int64(retainBps)))
	v.Quo(v, big.NewInt(bpsDenominator))
	return v.String()
}

// Validate rejects params that cannot produce a meaningful round trip.
func (p RoundTripParams) Validate() error {
	if p.BaseMint.IsZero() || p.TargetMint.IsZero() {
		return errors.New("base and target mint are required")
	}
	if p.BaseMint.Equals(p.TargetMint) {
		return errors.New("base and target mint must differ")
	}
	if p.AmountIn == 0 {
		return errors.New("amount must be > 0")
	}
	if p.RetainBps == 0 || p.RetainBps > bpsDenominator {
		return errors.Errorf("retain bps must be in (0, %d], got %d", bpsDenominator, p.RetainBps)
	}
	if p.SlippageBps > bpsDenominator {
		return errors.Errorf("slippage bps must be <= %d, got %d", bpsDenominator, p.SlippageBps)
	}
	if LegTwoOutAmount(p.AmountIn, p.RetainBps) == "0" {
		return errors.New("amount too small: leg two would buy back nothing")
	}
	return nil
}

func legOneRequest(p RoundTripParams) jupiter.QuoteRequest {
	slippage := p.SlippageBps
	direct := true
	return jupiter.QuoteRequest{
		InputMint:        p.BaseMint.String(),
		OutputMint:       p.TargetMint.String(),
		Amount:           new(big.Int).SetUint64(p.AmountIn).String(),
		SlippageBps:      &slippage,
		SwapMode:         jupiter.SwapModeExactIn,
		OnlyDirectRoutes: &direct,
	}
}

func legTwoRequest(p RoundTripParams) jupiter.QuoteRequest {
	slippage := p.SlippageBps
	direct := true
	return jupiter.QuoteRequest{
		InputMint:        p.TargetMint.String(),
		OutputMint:       p.BaseMint.String(),
		Amount:           LegTwoOutAmount(p.AmountIn, p.RetainBps),
		SlippageBps:      &slippage,
		SwapMode:         jupiter.SwapModeExactOut,
		OnlyDirectRoutes: &direct,
	}
}

// checkLegs makes the shared-payer coupling between the legs explicit.
func checkLegs(in AssembleInput) error {
	one, two := in.LegOne, in.LegTwo
	if one.Instructions == nil || two.Instructions == nil {
		return errors.Wrap(ErrLegMismatch, "both legs need instructions")
	}
	if one.Instructions.SwapInstruction == nil || two.Instructions.SwapInstruction == nil {
		return errors.Wrap(ErrLegMismatch, "both legs need a swap instruction")
	}
	if in.Payer.IsZero() {
		return errors.New("payer is required")
	}
	if !one.Instructions.Payer.Equals(in.Payer) || !two.Instructions.Payer.Equals(in.Payer) {
		return errors.Wrapf(ErrLegMismatch, "instructions requested for %s and %s, payer is %s",
			one.Instructions.Payer, two.Instructions.Payer, in.Payer)
	}
	if one.Quote == nil || two.Quote == nil {
		return errors.Wrap(ErrLegMismatch, "both legs need a quote")
	}
	if one.Quote.InputMint != two.Quote.OutputMint || one.Quote.OutputMint != two.Quote.InputMint {
		return errors.Wrapf(ErrLegMismatch, "leg two %s→%s does not reverse leg one %s→%s",
			two.Quote.InputMint, two.Quote.OutputMint, one.Quote.InputMint, one.Quote.OutputMint)
	}
	return nil
}
