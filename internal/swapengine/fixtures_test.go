package swapengine

import (
	"encoding/base64"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/constants"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/jupiter"
)

func wireIx(program solana.PublicKey, data byte, accounts ...jupiter.AccountMeta) jupiter.Instruction {
	return jupiter.Instruction{
		ProgramID: program.String(),
		Accounts:  accounts,
		Data:      base64.StdEncoding.EncodeToString([]byte{data}),
	}
}

func wirePtr(ix jupiter.Instruction) *jupiter.Instruction { return &ix }

// legFixture is a leg's instruction set with every program distinct so the
// assembled order can be read back from program ids.
type legFixture struct {
	budget  []solana.PublicKey
	setup   []solana.PublicKey
	swap    solana.PublicKey
	cleanup solana.PublicKey
	ledger  solana.PublicKey
	set     *jupiter.SwapInstructionsResponse
}

func newLegFixture(payer solana.PublicKey, nBudget, nSetup int, withExtras bool) legFixture {
	f := legFixture{swap: solana.NewWallet().PublicKey()}
	set := &jupiter.SwapInstructionsResponse{
		ComputeBudgetInstructions: []jupiter.Instruction{},
		SetupInstructions:         []jupiter.Instruction{},
		Payer:                     payer,
	}
	signer := jupiter.AccountMeta{Pubkey: payer.String(), IsSigner: true, IsWritable: true}

	for i := 0; i < nBudget; i++ {
		p := solana.NewWallet().PublicKey()
		f.budget = append(f.budget, p)
		set.ComputeBudgetInstructions = append(set.ComputeBudgetInstructions, wireIx(p, byte(i)))
	}
	for i := 0; i < nSetup; i++ {
		p := solana.NewWallet().PublicKey()
		f.setup = append(f.setup, p)
		set.SetupInstructions = append(set.SetupInstructions, wireIx(p, byte(10+i), signer))
	}
	set.SwapInstruction = wirePtr(wireIx(f.swap, 99, signer,
		jupiter.AccountMeta{Pubkey: solana.NewWallet().PublicKey().String(), IsWritable: true}))

	if withExtras {
		f.cleanup = solana.NewWallet().PublicKey()
		f.ledger = solana.NewWallet().PublicKey()
		set.CleanupInstruction = wirePtr(wireIx(f.cleanup, 50, signer))
		set.TokenLedgerInstruction = wirePtr(wireIx(f.ledger, 51, signer))
	}

	f.set = set
	return f
}

func testQuote(in, out, mode, inAmount, outAmount string) *jupiter.QuoteResponse {
	return &jupiter.QuoteResponse{
		InputMint:            in,
		OutputMint:           out,
		InAmount:             inAmount,
		OutAmount:            outAmount,
		OtherAmountThreshold: outAmount,
		SwapMode:             mode,
		SlippageBps:          constants.DemoSlippageBps,
		PriceImpactPct:       "0.0001",
	}
}

func legOneQuote() *jupiter.QuoteResponse {
	return testQuote(constants.MintWSOL, constants.MintUSDC, jupiter.SwapModeExactIn, "5000000", "912345")
}

func legTwoQuote() *jupiter.QuoteResponse {
	return testQuote(constants.MintUSDC, constants.MintWSOL, jupiter.SwapModeExactOut, "905000", "4950000")
}

