package jupiter

import (
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// DeserializeInstruction converts the API's wire instruction into a
// solana-go instruction. Account order is preserved.
func DeserializeInstruction(ix Instruction) (*solana.GenericInstruction, error) {
	programID, err := solana.PublicKeyFromBase58(ix.ProgramID)
	if err != nil {
		return nil, &DecodeError{Field: "programId", Value: ix.ProgramID, Err: err}
	}

	accounts := make(solana.AccountMetaSlice, 0, len(ix.Accounts))
	for i, acc := range ix.Accounts {
		pk, err := solana.PublicKeyFromBase58(acc.Pubkey)
		if err != nil {
			return nil, &DecodeError{Field: fmt.Sprintf("accounts[%d].pubkey", i), Value: acc.Pubkey, Err: err}
		}
		accounts = append(accounts, &solana.AccountMeta{
			PublicKey:  pk,
			IsSigner:   acc.IsSigner,
			IsWritable: acc.IsWritable,
		})
	}

	data, err := base64.StdEncoding.DecodeString(ix.Data)
	if err != nil {
		return nil, &DecodeError{Field: "data", Value: ix.Data, Err: err}
	}

	return solana.NewInstruction(programID, accounts, data), nil
}

// DeserializeInstructions decodes a list, stopping at the first bad entry.
func DeserializeInstructions(wire []Instruction) ([]solana.Instruction, error) {
	out := make([]solana.Instruction, 0, len(wire))
	for i, ix := range wire {
		decoded, err := DeserializeInstruction(ix)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		out = append(out, decoded)
	}
	return out, nil
}
