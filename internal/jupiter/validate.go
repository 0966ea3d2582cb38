package jupiter

import (
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
)

// Validate checks the fields later stages rely on.
func (q *QuoteResponse) Validate() error {
	if _, err := solana.PublicKeyFromBase58(q.InputMint); err != nil {
		return &DecodeError{Field: "inputMint", Value: q.InputMint, Err: err}
	}
	if _, err := solana.PublicKeyFromBase58(q.OutputMint); err != nil {
		return &DecodeError{Field: "outputMint", Value: q.OutputMint, Err: err}
	}
	for field, v := range map[string]string{
		"inAmount":             q.InAmount,
		"outAmount":            q.OutAmount,
		"otherAmountThreshold": q.OtherAmountThreshold,
	} {
		if _, err := strconv.ParseUint(v, 10, 64); err != nil {
			return &DecodeError{Field: field, Value: v, Err: err}
		}
	}
	if q.SwapMode != SwapModeExactIn && q.SwapMode != SwapModeExactOut {
		return &DecodeError{Field: "swapMode", Value: q.SwapMode}
	}
	return nil
}

// InAmountUint64 returns InAmount parsed; call Validate first.
func (q *QuoteResponse) InAmountUint64() uint64 {
	v, _ := strconv.ParseUint(q.InAmount, 10, 64)
	return v
}

// OutAmountUint64 returns OutAmount parsed; call Validate first.
func (q *QuoteResponse) OutAmountUint64() uint64 {
	v, _ := strconv.ParseUint(q.OutAmount, 10, 64)
	return v
}

// Validate decodes every instruction and lookup table address once so that
// malformed payloads fail here rather than during transaction assembly.
func (s *SwapInstructionsResponse) Validate() error {
	if s.SwapInstruction == nil {
		return &DecodeError{Field: "swapInstruction", Value: "null"}
	}
	if _, err := DeserializeInstruction(*s.SwapInstruction); err != nil {
		return fmt.Errorf("swapInstruction: %w", err)
	}
	if _, err := DeserializeInstructions(s.ComputeBudgetInstructions); err != nil {
		return fmt.Errorf("computeBudgetInstructions: %w", err)
	}
	if _, err := DeserializeInstructions(s.SetupInstructions); err != nil {
		return fmt.Errorf("setupInstructions: %w", err)
	}
	if s.TokenLedgerInstruction != nil {
		if _, err := DeserializeInstruction(*s.TokenLedgerInstruction); err != nil {
			return fmt.Errorf("tokenLedgerInstruction: %w", err)
		}
	}
	if s.CleanupInstruction != nil {
		if _, err := DeserializeInstruction(*s.CleanupInstruction); err != nil {
			return fmt.Errorf("cleanupInstruction: %w", err)
		}
	}
	for i, addr := range s.AddressLookupTableAddresses {
		if _, err := solana.PublicKeyFromBase58(addr); err != nil {
			return &DecodeError{Field: fmt.Sprintf("addressLookupTableAddresses[%d]", i), Value: addr, Err: err}
		}
	}
	return nil
}
