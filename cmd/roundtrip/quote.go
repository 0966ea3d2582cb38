package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/constants"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/jupiter"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/swapengine"
)

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Preview both legs of a round trip without executing it",
		RunE:  runQuote,
	}
	addTradeFlags(cmd)
	return cmd
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap(cmd)
	if err != nil {
		logger.WithError(err).Error("invalid configuration")
		return err
	}

	p, err := paramsFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	engine, err := swapengine.NewEngineFromConfig(cfg, logger)
	if err != nil {
		return err
	}

	q, err := engine.Quote(ctx, p)
	if err != nil {
		return err
	}
	return printQuote(cmd, q)
}

func printQuote(cmd *cobra.Command, q *swapengine.RoundTripQuote) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "pair\t%s\n", q.Params.Pair())
	fmt.Fprintf(tw, "leg\tmode\tin\tout\tmin/max\timpact %%\thops\n")
	for _, leg := range []struct {
		name string
		q    *jupiter.QuoteResponse
	}{{"1", q.LegOne}, {"2", q.LegTwo}} {
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s %s\t%s\t%s\t%d\n",
			leg.name, leg.q.SwapMode,
			leg.q.InAmount, constants.Symbol(leg.q.InputMint),
			leg.q.OutAmount, constants.Symbol(leg.q.OutputMint),
			leg.q.OtherAmountThreshold, leg.q.PriceImpactPct, len(leg.q.RoutePlan))
	}
	fmt.Fprintf(tw, "net\t%d (raw base units, before fees)\n", q.NetBase())
	return tw.Flush()
}
