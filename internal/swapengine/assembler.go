package swapengine

import (
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/jupiter"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/lookuptable"
)

// Assembler compiles two legs into one atomic v0 transaction.
type Assembler struct {
	logger *logrus.Logger
}

func NewAssembler(logger *logrus.Logger) *Assembler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Assembler{logger: logger}
}

// Assemble orders instructions as leg one's compute budget, leg one's setup,
// leg one's swap, then leg two's swap. Leg two relies on leg one's setup and
// budget; its own are dropped. Lookup tables of leg one come before leg
// two's, without deduplication.
func (a *Assembler) Assemble(in AssembleInput) (*Assembled, error) {
	if err := checkLegs(in); err != nil {
		return nil, err
	}

	one, two := in.LegOne.Instructions, in.LegTwo.Instructions

	wire := make([]jupiter.Instruction, 0, len(one.ComputeBudgetInstructions)+len(one.SetupInstructions)+2)
	wire = append(wire, one.ComputeBudgetInstructions...)
	wire = append(wire, one.SetupInstructions...)
	wire = append(wire, *one.SwapInstruction, *two.SwapInstruction)

	ixs, err := jupiter.DeserializeInstructions(wire)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode round trip instructions")
	}

	tables := make([]lookuptable.Account, 0, len(in.LegOne.Tables)+len(in.LegTwo.Tables))
	tables = append(tables, in.LegOne.Tables...)
	tables = append(tables, in.LegTwo.Tables...)

	tx, err := solana.NewTransaction(
		ixs,
		in.Blockhash,
		solana.TransactionPayer(in.Payer),
		solana.TransactionAddressTables(lookuptable.AddressTables(tables)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile round trip transaction")
	}
	tx.Message.SetVersion(solana.MessageVersionV0)

	dropped := droppedInstructions(two)
	a.logger.WithFields(logrus.Fields{
		"instructions":  len(ixs),
		"lookup_tables": len(tables),
		"dropped_leg2":  dropped,
		"payer":         in.Payer.String(),
	}).Debug("assembled round trip transaction")

	return &Assembled{
		Tx:            tx,
		Instructions:  ixs,
		Tables:        tables,
		DroppedLegTwo: dropped,
	}, nil
}

func droppedInstructions(s *jupiter.SwapInstructionsResponse) int {
	n := len(s.ComputeBudgetInstructions) + len(s.SetupInstructions)
	if s.TokenLedgerInstruction != nil {
		n++
	}
	if s.CleanupInstruction != nil {
		n++
	}
	return n
}
