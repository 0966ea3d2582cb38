package wallet

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/rpc"
)

// SignTx signs a transaction with the wallet's private key. Signers other
// than the wallet are left for the caller.
func (w *Wallet) SignTx(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.pub) {
			return &w.priv
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}

// SendTx serializes a signed transaction and submits it. Nil opts use the
// wallet's configured preflight settings.
func (w *Wallet) SendTx(ctx context.Context, tx *solana.Transaction, opts *rpc.SendOptions) (string, error) {
	if opts == nil {
		opts = &rpc.SendOptions{
			SkipPreflight:       w.cfg.SkipPreflight,
			PreflightCommitment: w.cfg.PreflightCommitment,
		}
	}

	txBytes, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}

	sig, err := w.rpc.SendTransaction(ctx, base64.StdEncoding.EncodeToString(txBytes), *opts)
	if err != nil {
		return "", fmt.Errorf("sendTransaction failed: %w", err)
	}

	w.logger.WithFields(logrus.Fields{
		"signature":     sig,
		"size":          len(txBytes),
		"skipPreflight": opts.SkipPreflight,
	}).Info("transaction submitted")

	return sig, nil
}

// GetLatestBlockhash fetches the most recent blockhash at the wallet's
// default commitment unless one is given.
func (w *Wallet) GetLatestBlockhash(ctx context.Context, commitment ...string) (solana.Hash, error) {
	level := w.cfg.DefaultCommitment
	if len(commitment) > 0 && commitment[0] != "" {
		level = commitment[0]
	}

	bh, err := w.rpc.GetLatestBlockhash(ctx, level)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("getLatestBlockhash failed: %w", err)
	}
	return bh.Blockhash, nil
}
