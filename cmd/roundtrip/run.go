package main

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/constants"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/swapengine"
)

// addTradeFlags registers the round-trip parameter flags shared by run and quote.
func addTradeFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64("amount", constants.DemoAmountIn, "base mint amount in raw units (lamports for wSOL)")
	cmd.Flags().String("base-mint", constants.MintWSOL, "mint sold in leg one and bought back in leg two")
	cmd.Flags().String("target-mint", constants.MintUSDC, "intermediate mint")
	cmd.Flags().Uint16("slippage-bps", constants.DemoSlippageBps, "slippage tolerance for both legs")
	cmd.Flags().Uint16("retain-bps", constants.DemoRetainBps, "share of amount bought back in leg two (10000 = 100%)")
}

func paramsFromFlags(cmd *cobra.Command) (swapengine.RoundTripParams, error) {
	var p swapengine.RoundTripParams

	amount, _ := cmd.Flags().GetUint64("amount")
	baseStr, _ := cmd.Flags().GetString("base-mint")
	targetStr, _ := cmd.Flags().GetString("target-mint")
	slippage, _ := cmd.Flags().GetUint16("slippage-bps")
	retain, _ := cmd.Flags().GetUint16("retain-bps")

	base, err := solana.PublicKeyFromBase58(baseStr)
	if err != nil {
		return p, errors.Wrap(err, "invalid --base-mint")
	}
	target, err := solana.PublicKeyFromBase58(targetStr)
	if err != nil {
		return p, errors.Wrap(err, "invalid --target-mint")
	}

	p = swapengine.RoundTripParams{
		BaseMint:    base,
		TargetMint:  target,
		AmountIn:    amount,
		RetainBps:   retain,
		SlippageBps: slippage,
	}
	return p, p.Validate()
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one round trip and print its signature",
		RunE:  runRoundTrip,
	}
	addTradeFlags(cmd)
	cmd.Flags().Duration("timeout", 0, "confirmation timeout; 0 uses CONFIRM_TIMEOUT")
	return cmd
}

func runRoundTrip(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap(cmd)
	if err != nil {
		logger.WithError(err).Error("invalid configuration")
		return err
	}

	p, err := paramsFromFlags(cmd)
	if err != nil {
		return err
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")

	ctx, stop := signalContext()
	defer stop()

	d := openDeps(ctx, cfg, logger)
	defer d.Close()

	// print the signature as soon as it is known so it survives a stuck confirmation
	opts := append(d.engineOptions(),
		swapengine.WithConfirmTimeout(timeout),
		swapengine.WithOnSubmitted(func(sig string) {
			fmt.Fprintln(cmd.OutOrStdout(), sig)
		}),
	)
	engine, err := swapengine.NewEngineFromConfig(cfg, logger, opts...)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"payer":  engine.Payer().String(),
		"pair":   p.Pair(),
		"amount": p.AmountIn,
	}).Info("starting round trip")

	res, err := engine.Execute(ctx, p)
	if err != nil {
		logger.WithError(err).Error("round trip failed")
		return err
	}

	logger.WithFields(logrus.Fields{
		"signature":    res.Signature,
		"status":       res.Confirmation.Status,
		"slot":         res.Confirmation.Slot,
		"fee":          res.Confirmation.Fee,
		"attempts":     res.Confirmation.Attempts,
		"instructions": res.Instructions,
		"took":         res.Duration.Round(time.Millisecond).String(),
	}).Info("round trip confirmed")
	return nil
}
