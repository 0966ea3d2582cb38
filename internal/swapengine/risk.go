package swapengine

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/constants"
)

// RiskConfig bounds what a single round trip may do
type RiskConfig struct {
	// Per-run limits
	MaxAmountIn uint64 // raw base units

	// Daily limit on base spent, rolling 24h window; 0 disables
	DailyLimit uint64

	// Quote sanity
	MaxPriceImpactPct float64 // e.g. 5 = 5%
	MaxSlippageBps    uint16
	MinRetainBps      uint16

	// Mint whitelist (empty = allow all)
	AllowedMints []string
}

// DefaultRiskConfig returns conservative settings
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		MaxAmountIn:       constants.LamportsPerSOL / 10, // 0.1 SOL
		DailyLimit:        constants.LamportsPerSOL,      // 1 SOL
		MaxPriceImpactPct: 5,
		MaxSlippageBps:    1000,
		MinRetainBps:      9000,
		AllowedMints: []string{
			constants.MintWSOL,
			constants.MintUSDC,
			constants.MintUSDT,
			constants.MintJUP,
			constants.MintBONK,
		},
	}
}

// RiskCheckResult contains risk validation outcome
type RiskCheckResult struct {
	Allowed bool
	Reason  string

	DailyUsed      uint64
	DailyRemaining uint64
	PriceImpactPct float64
}

// SpendLedger sums base amounts spent over a rolling 24h window.
// DailyLimitTracker keeps it in memory; cache.RedisSpendLedger shares it
// between processes.
type SpendLedger interface {
	Record(ctx context.Context, amount uint64) error
	Usage(ctx context.Context) (uint64, error)
}

// RiskManager enforces risk limits
type RiskManager struct {
	config RiskConfig
	daily  SpendLedger
}

func NewRiskManager(config RiskConfig) *RiskManager {
	return NewRiskManagerWithLedger(config, nil)
}

// NewRiskManagerWithLedger uses ledger for the daily limit, or an in-memory
// tracker when ledger is nil.
func NewRiskManagerWithLedger(config RiskConfig, ledger SpendLedger) *RiskManager {
	if ledger == nil {
		ledger = NewDailyLimitTracker()
	}
	return &RiskManager{config: config, daily: ledger}
}

// CheckParams validates params before any quote is requested. An unreadable
// ledger rejects the trip.
func (rm *RiskManager) CheckParams(ctx context.Context, p RoundTripParams) *RiskCheckResult {
	res, err := rm.usage(ctx)
	if err != nil {
		return res.reject("daily usage unavailable: %v", err)
	}

	if rm.config.MaxAmountIn > 0 && p.AmountIn > rm.config.MaxAmountIn {
		return res.reject("amount %d exceeds max %d per round trip", p.AmountIn, rm.config.MaxAmountIn)
	}
	if rm.config.MaxSlippageBps > 0 && p.SlippageBps > rm.config.MaxSlippageBps {
		return res.reject("slippage %d bps exceeds max %d bps", p.SlippageBps, rm.config.MaxSlippageBps)
	}
	if p.RetainBps < rm.config.MinRetainBps {
		return res.reject("retain %d bps is below min %d bps", p.RetainBps, rm.config.MinRetainBps)
	}
	if !rm.mintAllowed(p.BaseMint.String()) {
		return res.reject("mint %s not whitelisted", p.BaseMint)
	}
	if !rm.mintAllowed(p.TargetMint.String()) {
		return res.reject("mint %s not whitelisted", p.TargetMint)
	}
	if rm.config.DailyLimit > 0 && res.DailyUsed+p.AmountIn > rm.config.DailyLimit {
		return res.reject("daily limit exceeded: used %d + %d > %d", res.DailyUsed, p.AmountIn, rm.config.DailyLimit)
	}
	return res
}

// CheckQuote validates both legs' quoted price impact
func (rm *RiskManager) CheckQuote(q *RoundTripQuote) *RiskCheckResult {
	res := &RiskCheckResult{Allowed: true}
	if rm.config.MaxPriceImpactPct <= 0 {
		return res
	}

	for _, leg := range []struct {
		name   string
		impact string
	}{
		{"leg one", q.LegOne.PriceImpactPct},
		{"leg two", q.LegTwo.PriceImpactPct},
	} {
		if leg.impact == "" {
			continue
		}
		v, err := strconv.ParseFloat(leg.impact, 64)
		if err != nil {
			return res.reject("%s price impact %q is not a number", leg.name, leg.impact)
		}
		// the API reports a fraction, 0.01 = 1%
		pct := v * 100
		if pct > res.PriceImpactPct {
			res.PriceImpactPct = pct
		}
		if pct > rm.config.MaxPriceImpactPct {
			return res.reject("%s price impact %.4f%% exceeds max %.2f%%", leg.name, pct, rm.config.MaxPriceImpactPct)
		}
	}
	return res
}

// RecordRoundTrip counts a submitted round trip against the daily limit
func (rm *RiskManager) RecordRoundTrip(ctx context.Context, p RoundTripParams) error {
	return rm.daily.Record(ctx, p.AmountIn)
}

func (rm *RiskManager) usage(ctx context.Context) (*RiskCheckResult, error) {
	res := &RiskCheckResult{Allowed: true}
	used, err := rm.daily.Usage(ctx)
	if err != nil {
		return res, err
	}
	res.DailyUsed = used
	if rm.config.DailyLimit > used {
		res.DailyRemaining = rm.config.DailyLimit - used
	}
	return res, nil
}

func (r *RiskCheckResult) reject(format string, args ...any) *RiskCheckResult {
	r.Allowed = false
	r.Reason = fmt.Sprintf(format, args...)
	return r
}

func (rm *RiskManager) mintAllowed(mint string) bool {
	if len(rm.config.AllowedMints) == 0 {
		return true
	}
	for _, m := range rm.config.AllowedMints {
		if m == mint {
			return true
		}
	}
	return false
}

// DailyLimitTracker sums amounts spent over a rolling 24h window
type DailyLimitTracker struct {
	mu      sync.Mutex
	entries []spend
	now     func() time.Time
}

type spend struct {
	at     time.Time
	amount uint64
}

func NewDailyLimitTracker() *DailyLimitTracker {
	return &DailyLimitTracker{now: time.Now}
}

func (t *DailyLimitTracker) Record(_ context.Context, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, spend{at: t.now(), amount: amount})
	t.cleanup()
	return nil
}

func (t *DailyLimitTracker) Usage(context.Context) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cleanup()

	var total uint64
	for _, e := range t.entries {
		total += e.amount
	}
	return total, nil
}

func (t *DailyLimitTracker) cleanup() {
	cutoff := t.now().Add(-24 * time.Hour)
	kept := t.entries[:0]
	for _, e := range t.entries {
		if e.at.After(cutoff) {
			kept = append(kept, e)
		}
	}
	t.entries = kept
}
