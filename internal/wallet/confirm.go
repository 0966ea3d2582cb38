package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/rpc"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed_out"
)

const (
	defaultPollInterval   = 1 * time.Second
	defaultConfirmTimeout = 90 * time.Second
)

// AwaitOptions bounds confirmation polling. At least one of Timeout and
// MaxAttempts applies; when both are zero Timeout defaults to 90s.
type AwaitOptions struct {
	PollInterval time.Duration
	Timeout      time.Duration
	MaxAttempts  int
	Commitment   string

	// OnPoll observes every poll, including "not found yet" (status == nil)
	// and transport errors.
	OnPoll func(attempt int, status *rpc.TransactionStatus, err error)
}

// Confirmation is the terminal outcome of AwaitTransaction.
type Confirmation struct {
	Status    Status
	Signature string
	Attempts  int
	Slot      uint64
	Fee       uint64
	Err       interface{} // on-chain error when Status is StatusFailed
	Logs      []string
}

func (c *Confirmation) String() string {
	switch c.Status {
	case StatusFailed:
		return fmt.Sprintf("%s failed at slot %d: %v", c.Signature, c.Slot, c.Err)
	case StatusConfirmed:
		return fmt.Sprintf("%s confirmed at slot %d", c.Signature, c.Slot)
	default:
		return fmt.Sprintf("%s not confirmed after %d polls", c.Signature, c.Attempts)
	}
}

// AwaitTransaction polls getTransaction at a fixed interval until the
// transaction lands, the bound is reached, or ctx is cancelled. Transport
// errors are reported to OnPoll and polling continues.
func (w *Wallet) AwaitTransaction(ctx context.Context, signature string, opts AwaitOptions) (*Confirmation, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.Timeout <= 0 && opts.MaxAttempts <= 0 {
		opts.Timeout = defaultConfirmTimeout
	}
	if opts.Commitment == "" {
		opts.Commitment = w.cfg.DefaultCommitment
	}

	var deadline <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	result := &Confirmation{Signature: signature}
	for {
		result.Attempts++
		status, err := w.rpc.GetTransaction(ctx, signature, opts.Commitment)
		if opts.OnPoll != nil {
			opts.OnPoll(result.Attempts, status, err)
		}

		switch {
		case err != nil:
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			w.logger.WithFields(logrus.Fields{
				"signature": signature,
				"attempt":   result.Attempts,
			}).WithError(err).Warn("confirmation poll failed")
		case status != nil:
			result.Slot = status.Slot
			result.Fee = status.Fee
			result.Logs = status.Logs
			if status.Failed() {
				result.Status = StatusFailed
				result.Err = status.Err
			} else {
				result.Status = StatusConfirmed
			}
			return result, nil
		}

		if opts.MaxAttempts > 0 && result.Attempts >= opts.MaxAttempts {
			result.Status = StatusTimedOut
			return result, nil
		}

		wait := time.NewTimer(opts.PollInterval)
		select {
		case <-ctx.Done():
			wait.Stop()
			return result, ctx.Err()
		case <-deadline:
			wait.Stop()
			result.Status = StatusTimedOut
			return result, nil
		case <-wait.C:
		}
	}
}
