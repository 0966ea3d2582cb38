package swapengine

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/constants"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/lookuptable"
)

func programIDs(ixs []solana.Instruction) []solana.PublicKey {
	out := make([]solana.PublicKey, len(ixs))
	for i, ix := range ixs {
		out[i] = ix.ProgramID()
	}
	return out
}

func TestAssemble_OrderAndLegTwoExclusion(t *testing.T) {
	payer := solana.NewWallet().PublicKey()

	tests := []struct {
		name            string
		budget1, setup1 int
		budget2, setup2 int
		legTwoHasExtras bool
		wantDroppedLeg2 int
	}{
		{"typical", 2, 3, 2, 2, true, 6},
		{"no setup", 1, 0, 1, 0, false, 1},
		{"bare swaps", 0, 0, 0, 0, false, 0},
		{"leg two heavier", 1, 1, 3, 4, true, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			one := newLegFixture(payer, tt.budget1, tt.setup1, true)
			two := newLegFixture(payer, tt.budget2, tt.setup2, tt.legTwoHasExtras)

			out, err := NewAssembler(nil).Assemble(AssembleInput{
				Payer:     payer,
				Blockhash: solana.Hash{9},
				LegOne:    Leg{Quote: legOneQuote(), Instructions: one.set},
				LegTwo:    Leg{Quote: legTwoQuote(), Instructions: two.set},
			})
			require.NoError(t, err)

			var want []solana.PublicKey
			want = append(want, one.budget...)
			want = append(want, one.setup...)
			want = append(want, one.swap, two.swap)

			assert.Equal(t, want, programIDs(out.Instructions))
			assert.Len(t, out.Instructions, tt.budget1+tt.setup1+1+1)
			assert.Len(t, out.Tx.Message.Instructions, tt.budget1+tt.setup1+1+1)
			assert.Equal(t, tt.wantDroppedLeg2, out.DroppedLegTwo)

			got := programIDs(out.Instructions)
			for _, p := range append(append([]solana.PublicKey{}, two.budget...), two.setup...) {
				assert.NotContains(t, got, p)
			}
			if tt.legTwoHasExtras {
				assert.NotContains(t, got, two.cleanup)
				assert.NotContains(t, got, two.ledger)
			}
			assert.NotContains(t, got, one.cleanup)
			assert.NotContains(t, got, one.ledger)
		})
	}
}

func TestAssemble_VersionedMessage(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	one := newLegFixture(payer, 1, 1, false)
	two := newLegFixture(payer, 1, 1, false)

	tableA := lookuptable.Account{Key: solana.NewWallet().PublicKey(), Addresses: solana.PublicKeySlice{solana.NewWallet().PublicKey()}}
	tableB := lookuptable.Account{Key: solana.NewWallet().PublicKey(), Addresses: solana.PublicKeySlice{solana.NewWallet().PublicKey()}}

	blockhash := solana.Hash{1, 2, 3}
	out, err := NewAssembler(nil).Assemble(AssembleInput{
		Payer:     payer,
		Blockhash: blockhash,
		LegOne:    Leg{Quote: legOneQuote(), Instructions: one.set, Tables: []lookuptable.Account{tableA}},
		LegTwo:    Leg{Quote: legTwoQuote(), Instructions: two.set, Tables: []lookuptable.Account{tableB, tableA}},
	})
	require.NoError(t, err)

	assert.True(t, out.Tx.Message.IsVersioned())
	assert.Equal(t, blockhash, out.Tx.Message.RecentBlockhash)
	require.NotEmpty(t, out.Tx.Message.AccountKeys)
	assert.Equal(t, payer, out.Tx.Message.AccountKeys[0])

	// leg one's tables first, duplicates kept
	require.Len(t, out.Tables, 3)
	assert.Equal(t, tableA.Key, out.Tables[0].Key)
	assert.Equal(t, tableB.Key, out.Tables[1].Key)
	assert.Equal(t, tableA.Key, out.Tables[2].Key)

	_, err = out.Tx.Message.MarshalBinary()
	assert.NoError(t, err)
}

func TestAssemble_LegMismatch(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()

	tests := []struct {
		name  string
		input func() AssembleInput
	}{
		{
			name: "leg two does not reverse leg one",
			input: func() AssembleInput {
				two := legTwoQuote()
				two.InputMint = constants.MintUSDT
				return AssembleInput{
					Payer:  payer,
					LegOne: Leg{Quote: legOneQuote(), Instructions: newLegFixture(payer, 1, 1, false).set},
					LegTwo: Leg{Quote: two, Instructions: newLegFixture(payer, 1, 1, false).set},
				}
			},
		},
		{
			name: "leg two requested for another payer",
			input: func() AssembleInput {
				return AssembleInput{
					Payer:  payer,
					LegOne: Leg{Quote: legOneQuote(), Instructions: newLegFixture(payer, 1, 1, false).set},
					LegTwo: Leg{Quote: legTwoQuote(), Instructions: newLegFixture(other, 1, 1, false).set},
				}
			},
		},
		{
			name: "missing swap instruction",
			input: func() AssembleInput {
				two := newLegFixture(payer, 1, 1, false).set
				two.SwapInstruction = nil
				return AssembleInput{
					Payer:  payer,
					LegOne: Leg{Quote: legOneQuote(), Instructions: newLegFixture(payer, 1, 1, false).set},
					LegTwo: Leg{Quote: legTwoQuote(), Instructions: two},
				}
			},
		},
		{
			name: "missing quote",
			input: func() AssembleInput {
				return AssembleInput{
					Payer:  payer,
					LegOne: Leg{Quote: legOneQuote(), Instructions: newLegFixture(payer, 1, 1, false).set},
					LegTwo: Leg{Instructions: newLegFixture(payer, 1, 1, false).set},
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAssembler(nil).Assemble(tt.input())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrLegMismatch), err.Error())
		})
	}
}

func TestAssemble_BadInstructionData(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	one := newLegFixture(payer, 1, 0, false)
	one.set.ComputeBudgetInstructions[0].Data = "%%%"

	_, err := NewAssembler(nil).Assemble(AssembleInput{
		Payer:  payer,
		LegOne: Leg{Quote: legOneQuote(), Instructions: one.set},
		LegTwo: Leg{Quote: legTwoQuote(), Instructions: newLegFixture(payer, 0, 0, false).set},
	})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrLegMismatch))
}
