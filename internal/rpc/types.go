package rpc

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// LatestBlockhash is the result of getLatestBlockhash
type LatestBlockhash struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
	Slot                 uint64
}

// AccountInfo is a decoded entry of getMultipleAccounts
type AccountInfo struct {
	Owner      solana.PublicKey
	Lamports   uint64
	Executable bool
	Data       []byte
}

// SendOptions configures sendTransaction
type SendOptions struct {
	SkipPreflight       bool
	PreflightCommitment string
	MaxRetries          *int
}

// TransactionStatus is the subset of getTransaction this module consumes
type TransactionStatus struct {
	Signature    string
	Slot         uint64
	BlockTime    *int64
	Err          interface{} // nil when the transaction succeeded
	Fee          uint64
	ComputeUnits uint64
	Logs         []string
}

// Failed reports whether the transaction landed with an execution error
func (s *TransactionStatus) Failed() bool {
	return s != nil && s.Err != nil
}
