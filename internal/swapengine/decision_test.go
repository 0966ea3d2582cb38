package swapengine

import (
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/constants"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/jupiter"
)

func TestLegTwoOutAmount(t *testing.T) {
	tests := []struct {
		amountIn  uint64
		retainBps uint16
		want      string
	}{
		{5_000_000, 9900, "4950000"},
		{1, 9900, "0"},
		{101, 9900, "99"},
		{10_000, 10_000, "10000"},
		{math.MaxUint64, 10_000, "18446744073709551615"},
		{math.MaxUint64, 9900, "18262276632972456098"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LegTwoOutAmount(tt.amountIn, tt.retainBps), "%d@%d", tt.amountIn, tt.retainBps)
	}
}

func TestDefaultRoundTripParams(t *testing.T) {
	p := DefaultRoundTripParams()
	require.NoError(t, p.Validate())
	assert.Equal(t, constants.MintWSOL, p.BaseMint.String())
	assert.Equal(t, constants.MintUSDC, p.TargetMint.String())
	assert.Equal(t, "4950000", LegTwoOutAmount(p.AmountIn, p.RetainBps))
	assert.Equal(t, "SOL-USDC", p.Pair())
}

func TestRoundTripParams_Validate(t *testing.T) {
	mutate := func(f func(p *RoundTripParams)) RoundTripParams {
		p := DefaultRoundTripParams()
		f(&p)
		return p
	}

	tests := []struct {
		name string
		p    RoundTripParams
	}{
		{"zero base", mutate(func(p *RoundTripParams) { p.BaseMint = solana.PublicKey{} })},
		{"same mints", mutate(func(p *RoundTripParams) { p.TargetMint = p.BaseMint })},
		{"zero amount", mutate(func(p *RoundTripParams) { p.AmountIn = 0 })},
		{"zero retain", mutate(func(p *RoundTripParams) { p.RetainBps = 0 })},
		{"retain over 100%", mutate(func(p *RoundTripParams) { p.RetainBps = 10_001 })},
		{"slippage over 100%", mutate(func(p *RoundTripParams) { p.SlippageBps = 10_001 })},
		{"dust amount", mutate(func(p *RoundTripParams) { p.AmountIn = 1 })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.p.Validate())
		})
	}
}

func TestLegRequests(t *testing.T) {
	p := DefaultRoundTripParams()

	one := legOneRequest(p)
	assert.Equal(t, constants.MintWSOL, one.InputMint)
	assert.Equal(t, constants.MintUSDC, one.OutputMint)
	assert.Equal(t, "5000000", one.Amount)
	assert.Equal(t, jupiter.SwapModeExactIn, one.SwapMode)
	require.NotNil(t, one.SlippageBps)
	assert.Equal(t, uint16(500), *one.SlippageBps)
	require.NotNil(t, one.OnlyDirectRoutes)
	assert.True(t, *one.OnlyDirectRoutes)

	two := legTwoRequest(p)
	assert.Equal(t, constants.MintUSDC, two.InputMint)
	assert.Equal(t, constants.MintWSOL, two.OutputMint)
	assert.Equal(t, "4950000", two.Amount)
	assert.Equal(t, jupiter.SwapModeExactOut, two.SwapMode)
	require.NotNil(t, two.SlippageBps)
	assert.Equal(t, uint16(500), *two.SlippageBps)
}
