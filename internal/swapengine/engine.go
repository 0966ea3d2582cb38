package swapengine

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/config"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/constants"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/jupiter"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/lookuptable"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/models"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/rpc"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/storage"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/wallet"
)

// QuoteSource is the routing API. *jupiter.Client satisfies it.
type QuoteSource interface {
	Quote(ctx context.Context, req jupiter.QuoteRequest) (*jupiter.QuoteResponse, error)
	SwapInstructions(ctx context.Context, quote *jupiter.QuoteResponse, payer solana.PublicKey) (*jupiter.SwapInstructionsResponse, error)
}

// TableResolver resolves lookup table addresses. *lookuptable.Resolver
// satisfies it.
type TableResolver interface {
	Resolve(ctx context.Context, addresses []string) ([]lookuptable.Account, error)
}

// Signer holds the key and talks to the node. *wallet.Wallet satisfies it.
type Signer interface {
	PublicKey() solana.PublicKey
	GetLatestBlockhash(ctx context.Context, commitment ...string) (solana.Hash, error)
	SignTx(tx *solana.Transaction) error
	SendTx(ctx context.Context, tx *solana.Transaction, opts *rpc.SendOptions) (string, error)
	AwaitTransaction(ctx context.Context, signature string, opts wallet.AwaitOptions) (*wallet.Confirmation, error)
}

// KillSwitch reads boolean flags. *flags.Store satisfies it.
type KillSwitch interface {
	Enabled(ctx context.Context, key string, def bool) (bool, error)
}

// EngineConfig wires the engine's collaborators. Flags, Recorder, Ledger
// and OnSubmitted are optional.
type EngineConfig struct {
	Quotes   QuoteSource
	Tables   TableResolver
	Signer   Signer
	Flags    KillSwitch
	Recorder storage.Recorder

	Risk   RiskConfig
	Ledger SpendLedger // daily limit window; in memory when nil
	Await  wallet.AwaitOptions

	// OnSubmitted is called with the signature as soon as the node accepts
	// the transaction, before confirmation polling starts.
	OnSubmitted func(signature string)

	Logger *logrus.Logger
}

// Engine runs round trips end to end
type Engine struct {
	quotes    QuoteSource
	tables    TableResolver
	signer    Signer
	flags     KillSwitch
	recorder  storage.Recorder
	assembler *Assembler
	risk      *RiskManager
	await     wallet.AwaitOptions
	submitted func(signature string)
	logger    *logrus.Logger
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Quotes == nil {
		return nil, errors.New("quote source is required")
	}
	if cfg.Tables == nil {
		return nil, errors.New("lookup table resolver is required")
	}
	if cfg.Signer == nil {
		return nil, errors.New("signer is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	return &Engine{
		quotes:    cfg.Quotes,
		tables:    cfg.Tables,
		signer:    cfg.Signer,
		flags:     cfg.Flags,
		recorder:  cfg.Recorder,
		assembler: NewAssembler(cfg.Logger),
		risk:      NewRiskManagerWithLedger(cfg.Risk, cfg.Ledger),
		await:     cfg.Await,
		submitted: cfg.OnSubmitted,
		logger:    cfg.Logger,
	}, nil
}

// Option customises NewEngineFromConfig
type Option func(*EngineConfig)

func WithRecorder(r storage.Recorder) Option { return func(c *EngineConfig) { c.Recorder = r } }
func WithKillSwitch(k KillSwitch) Option     { return func(c *EngineConfig) { c.Flags = k } }
func WithRisk(r RiskConfig) Option           { return func(c *EngineConfig) { c.Risk = r } }
func WithSpendLedger(l SpendLedger) Option   { return func(c *EngineConfig) { c.Ledger = l } }
func WithOnSubmitted(f func(string)) Option  { return func(c *EngineConfig) { c.OnSubmitted = f } }

// WithConfirmTimeout bounds confirmation polling; non-positive keeps the
// configured timeout.
func WithConfirmTimeout(d time.Duration) Option {
	return func(c *EngineConfig) {
		if d > 0 {
			c.Await.Timeout = d
		}
	}
}

// NewEngineFromConfig builds the Jupiter client, RPC client, wallet and
// lookup table resolver from cfg.
func NewEngineFromConfig(cfg *config.Config, logger *logrus.Logger, opts ...Option) (*Engine, error) {
	if logger == nil {
		logger = logrus.New()
	}

	rpcClient := rpc.NewClient(rpc.ClientConfig{
		BaseURL:      cfg.RPCURL,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})

	w, err := wallet.NewWallet(wallet.WalletConfig{
		RPC:               rpcClient,
		PrivateKey:        cfg.TradingPrivateKey,
		DefaultCommitment: cfg.ConfirmCommitment,
		SkipPreflight:     true,
		Logger:            logger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create wallet")
	}

	jup := jupiter.NewClient(cfg.JupiterAPIPath, cfg.JupiterAPIKey).
		WithTimeout(cfg.HTTPTimeout).
		WithRateLimit(cfg.JupiterRateLimit, cfg.JupiterBurst)

	ec := EngineConfig{
		Quotes: jup,
		Tables: lookuptable.NewResolver(rpcClient, logger),
		Signer: w,
		Risk:   DefaultRiskConfig(),
		Await: wallet.AwaitOptions{
			PollInterval: cfg.PollInterval,
			Timeout:      cfg.ConfirmTimeout,
			Commitment:   cfg.ConfirmCommitment,
		},
		Logger: logger,
	}
	for _, opt := range opts {
		opt(&ec)
	}
	return NewEngine(ec)
}

func (e *Engine) Payer() solana.PublicKey { return e.signer.PublicKey() }

// Quote fetches both legs in sequence without executing anything.
func (e *Engine) Quote(ctx context.Context, p RoundTripParams) (*RoundTripQuote, error) {
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid round trip params")
	}

	legOne, err := e.quotes.Quote(ctx, legOneRequest(p))
	if err != nil {
		return nil, errors.Wrap(err, "leg one quote")
	}

	legTwoReq := legTwoRequest(p)
	legTwo, err := e.quotes.Quote(ctx, legTwoReq)
	if err != nil {
		return nil, errors.Wrap(err, "leg two quote")
	}

	q := &RoundTripQuote{
		Params:          p,
		LegOne:          legOne,
		LegTwo:          legTwo,
		LegTwoOutAmount: legTwoReq.Amount,
		QuotedAt:        time.Now().UTC(),
	}

	e.logger.WithFields(logrus.Fields{
		"pair":         p.Pair(),
		"leg1_in":      legOne.InAmount,
		"leg1_out":     legOne.OutAmount,
		"leg2_in":      legTwo.InAmount,
		"leg2_out":     legTwo.OutAmount,
		"net_base":     q.NetBase(),
		"context_slot": legOne.ContextSlot,
	}).Info("round trip quoted")

	return q, nil
}

// Execute quotes, assembles, signs, submits and confirms one round trip.
// Once the transaction is submitted the outcome is recorded even when
// confirmation fails.
func (e *Engine) Execute(ctx context.Context, p RoundTripParams) (*RoundTripResult, error) {
	start := time.Now()

	if err := e.checkEnabled(ctx); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid round trip params")
	}
	if rc := e.risk.CheckParams(ctx, p); !rc.Allowed {
		return nil, errors.Errorf("risk check rejected: %s", rc.Reason)
	}

	q, err := e.Quote(ctx, p)
	if err != nil {
		return nil, err
	}
	if rc := e.risk.CheckQuote(q); !rc.Allowed {
		return nil, errors.Errorf("risk check rejected: %s", rc.Reason)
	}

	payer := e.signer.PublicKey()
	legOne, err := e.prepareLeg(ctx, "leg one", q.LegOne, payer)
	if err != nil {
		return nil, err
	}
	legTwo, err := e.prepareLeg(ctx, "leg two", q.LegTwo, payer)
	if err != nil {
		return nil, err
	}

	blockhash, err := e.signer.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get blockhash")
	}

	assembled, err := e.assembler.Assemble(AssembleInput{
		Payer:     payer,
		Blockhash: blockhash,
		LegOne:    legOne,
		LegTwo:    legTwo,
	})
	if err != nil {
		return nil, err
	}

	if err := e.signer.SignTx(assembled.Tx); err != nil {
		return nil, errors.Wrap(err, "failed to sign round trip")
	}

	sig, err := e.signer.SendTx(ctx, assembled.Tx, &rpc.SendOptions{SkipPreflight: true})
	if err != nil {
		return nil, errors.Wrap(err, "failed to submit round trip")
	}
	if e.submitted != nil {
		e.submitted(sig)
	}
	if err := e.risk.RecordRoundTrip(ctx, p); err != nil {
		e.logger.WithError(err).WithField("signature", sig).Warn("failed to count round trip against daily limit")
	}

	result := &RoundTripResult{
		Signature:    sig,
		Quote:        q,
		Instructions: len(assembled.Instructions),
	}

	conf, awaitErr := e.signer.AwaitTransaction(ctx, sig, e.awaitOptions(sig))
	result.Confirmation = conf
	result.Duration = time.Since(start)

	e.record(ctx, q, sig, conf, awaitErr)

	if awaitErr != nil {
		return result, errors.Wrapf(awaitErr, "confirmation of %s interrupted", sig)
	}
	switch conf.Status {
	case wallet.StatusFailed:
		return result, errors.Errorf("round trip %s failed on chain: %v", sig, conf.Err)
	case wallet.StatusConfirmed:
		return result, nil
	default:
		return result, errors.Wrapf(ErrNotConfirmed, "%s after %d polls (%s)", sig, conf.Attempts, conf.Status)
	}
}

func (e *Engine) checkEnabled(ctx context.Context) error {
	if e.flags == nil {
		return nil
	}
	on, err := e.flags.Enabled(ctx, constants.FlagRoundTripEnabled, true)
	if err != nil {
		return errors.Wrap(err, "failed to read kill switch")
	}
	if !on {
		return ErrExecutionDisabled
	}
	return nil
}

func (e *Engine) prepareLeg(ctx context.Context, name string, quote *jupiter.QuoteResponse, payer solana.PublicKey) (Leg, error) {
	ixs, err := e.quotes.SwapInstructions(ctx, quote, payer)
	if err != nil {
		return Leg{}, errors.Wrapf(err, "%s swap instructions", name)
	}

	tables, err := e.tables.Resolve(ctx, ixs.AddressLookupTableAddresses)
	if err != nil {
		return Leg{}, errors.Wrapf(err, "%s lookup tables", name)
	}

	return Leg{Quote: quote, Instructions: ixs, Tables: tables}, nil
}

func (e *Engine) awaitOptions(sig string) wallet.AwaitOptions {
	opts := e.await
	userOnPoll := opts.OnPoll
	opts.OnPoll = func(attempt int, status *rpc.TransactionStatus, err error) {
		entry := e.logger.WithFields(logrus.Fields{
			"signature": sig,
			"attempt":   attempt,
		})
		switch {
		case err != nil:
			entry.WithError(err).Warn("poll failed")
		case status == nil:
			entry.Info("transaction not found yet")
		default:
			entry.WithFields(logrus.Fields{
				"slot": status.Slot,
				"err":  status.Err,
			}).Info("transaction landed")
		}
		if userOnPoll != nil {
			userOnPoll(attempt, status, err)
		}
	}
	return opts
}

func (e *Engine) record(ctx context.Context, q *RoundTripQuote, sig string, conf *wallet.Confirmation, awaitErr error) {
	if e.recorder == nil {
		return
	}

	ev := &models.RoundTripEvent{
		Signature:   sig,
		Timestamp:   time.Now().UTC(),
		Pair:        q.Params.Pair(),
		BaseMint:    q.Params.BaseMint.String(),
		TargetMint:  q.Params.TargetMint.String(),
		AmountIn:    q.LegOne.InAmountUint64(),
		LegOneOut:   q.LegOne.OutAmountUint64(),
		LegTwoIn:    q.LegTwo.InAmountUint64(),
		LegTwoOut:   q.LegTwo.OutAmountUint64(),
		SlippageBps: q.Params.SlippageBps,
		Status:      "unknown",
	}
	if conf != nil {
		ev.Slot = conf.Slot
		ev.Fee = conf.Fee
		if conf.Status != "" {
			ev.Status = string(conf.Status)
		}
		if conf.Err != nil {
			ev.Error = fmt.Sprintf("%v", conf.Err)
		}
	}
	if awaitErr != nil {
		ev.Error = awaitErr.Error()
	}

	// the caller may already be cancelled; recording still gets a short window
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := e.recorder.Record(rctx, ev); err != nil {
		e.logger.WithError(err).WithField("signature", sig).Warn("failed to record round trip")
	}
}
