package lookuptable

import (
	"context"

	"github.com/gagliardetto/solana-go"
	lookup "github.com/gagliardetto/solana-go/programs/address-lookup-table"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/rpc"
)

// AccountFetcher is the batched account read the resolver needs.
// *rpc.Client satisfies it.
type AccountFetcher interface {
	GetMultipleAccounts(ctx context.Context, keys []solana.PublicKey) ([]*rpc.AccountInfo, error)
}

// Account is a resolved on-chain address lookup table.
type Account struct {
	Key       solana.PublicKey
	Addresses solana.PublicKeySlice
}

type Resolver struct {
	fetcher AccountFetcher
	logger  *logrus.Logger
}

func NewResolver(fetcher AccountFetcher, logger *logrus.Logger) *Resolver {
	if logger == nil {
		logger = logrus.New()
	}
	return &Resolver{fetcher: fetcher, logger: logger}
}

// Resolve fetches every table in one batched call. Tables that do not exist
// on chain are skipped; the rest keep the order of addresses.
func (r *Resolver) Resolve(ctx context.Context, addresses []string) ([]Account, error) {
	if len(addresses) == 0 {
		return []Account{}, nil
	}

	keys := make([]solana.PublicKey, len(addresses))
	for i, addr := range addresses {
		pk, err := solana.PublicKeyFromBase58(addr)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid lookup table address %q", addr)
		}
		keys[i] = pk
	}

	infos, err := r.fetcher.GetMultipleAccounts(ctx, keys)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch lookup tables")
	}
	if len(infos) != len(keys) {
		return nil, errors.Errorf("expected %d lookup table accounts, got %d", len(keys), len(infos))
	}

	out := make([]Account, 0, len(keys))
	for i, info := range infos {
		if info == nil {
			r.logger.WithField("table", keys[i].String()).Warn("lookup table not found, skipping")
			continue
		}
		state, err := lookup.DecodeAddressLookupTableState(info.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode lookup table %s", keys[i])
		}
		out = append(out, Account{Key: keys[i], Addresses: state.Addresses})
	}

	r.logger.WithFields(logrus.Fields{
		"requested": len(keys),
		"resolved":  len(out),
	}).Debug("resolved lookup tables")

	return out, nil
}

// AddressTables indexes accounts by table key in the form transaction
// builders expect.
func AddressTables(accounts []Account) map[solana.PublicKey]solana.PublicKeySlice {
	tables := make(map[solana.PublicKey]solana.PublicKeySlice, len(accounts))
	for _, a := range accounts {
		tables[a.Key] = a.Addresses
	}
	return tables
}
