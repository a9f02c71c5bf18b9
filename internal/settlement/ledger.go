// Package settlement implements the core of the verification engine: the
// balance ledger, tip proration, time-based amount interpolation, the
// settlement simulator that computes expected post-fulfillment balances,
// and the verifier that reconciles them against a balance oracle.
package settlement

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/naveen-imtb/seaport-audit/internal/domain"
)

// WriteObserver is invoked for every balance write with before/after
// values. It replaces unconditional logging of intermediate state; a nil
// observer disables it.
type WriteObserver func(owner common.Address, asset domain.AssetDescriptor, before, after *big.Int)

// Entry is one (owner, asset) row of the ledger. Item is the item last
// written to the key and exists for diagnostics only; it is not part of
// the equality contract.
type Entry struct {
	Owner   common.Address
	Asset   domain.AssetDescriptor
	Balance *big.Int
	Item    domain.Item
}

type entryKey struct {
	owner common.Address
	asset string
}

// Ledger is an in-memory table of signed balances keyed by (owner, token,
// sub-identifier). It is built and mutated single-threaded during
// simulation and treated as read-only afterwards; it carries no locks by
// contract.
type Ledger struct {
	entries map[entryKey]*Entry
	keys    []entryKey // insertion order, for deterministic iteration
	observe WriteObserver
}

// NewLedger creates an empty ledger. observe may be nil.
func NewLedger(observe WriteObserver) *Ledger {
	return &Ledger{
		entries: make(map[entryKey]*Entry),
		observe: observe,
	}
}

func key(owner common.Address, asset domain.AssetDescriptor) entryKey {
	return entryKey{owner: owner, asset: asset.String()}
}

// Snapshot prepopulates one zero-balance entry per (address, item-asset)
// pair for the cross product of addresses and items. Every key the
// simulator will touch must exist before any delta is applied; a lookup
// miss during application is a precondition violation.
func (l *Ledger) Snapshot(addresses []common.Address, items []domain.Item) {
	for _, item := range items {
		for _, addr := range addresses {
			k := key(addr, item.Asset)
			if e, ok := l.entries[k]; ok {
				e.Item = item
				continue
			}
			l.entries[k] = &Entry{
				Owner:   addr,
				Asset:   item.Asset,
				Balance: new(big.Int),
				Item:    item,
			}
			l.keys = append(l.keys, k)
		}
	}
}

// SnapshotWithBalances prepopulates the same cross product as Snapshot but
// initializes every entry with the owner's live balance read from the
// oracle. Reads for independent keys run concurrently.
func (l *Ledger) SnapshotWithBalances(ctx context.Context, addresses []common.Address, items []domain.Item, oracle domain.BalanceOracle) error {
	l.Snapshot(addresses, items)

	g, ctx := errgroup.WithContext(ctx)
	for _, k := range l.keys {
		e := l.entries[k]
		g.Go(func() error {
			balance, err := oracle.Balance(ctx, e.Owner, e.Asset)
			if err != nil {
				return fmt.Errorf("settlement: baseline balance of %s %s: %w", e.Owner.Hex(), e.Asset, err)
			}
			e.Balance = balance
			return nil
		})
	}
	return g.Wait()
}

// ApplyDelta adds amount (which may be negative) to the entry for
// (owner, asset) and records item as the key's diagnostic metadata. The
// key must have been created by a prior Snapshot.
func (l *Ledger) ApplyDelta(owner common.Address, asset domain.AssetDescriptor, amount *big.Int, item domain.Item) error {
	e, ok := l.entries[key(owner, asset)]
	if !ok {
		return fmt.Errorf("settlement: apply delta to %s %s: %w", owner.Hex(), asset, domain.ErrLedgerKeyMissing)
	}
	before := new(big.Int).Set(e.Balance)
	e.Balance.Add(e.Balance, amount)
	e.Item = item
	if l.observe != nil {
		l.observe(owner, asset, before, new(big.Int).Set(e.Balance))
	}
	return nil
}

// Read returns the balance of (owner, asset).
func (l *Ledger) Read(owner common.Address, asset domain.AssetDescriptor) (*big.Int, error) {
	e, ok := l.entries[key(owner, asset)]
	if !ok {
		return nil, fmt.Errorf("settlement: read %s %s: %w", owner.Hex(), asset, domain.ErrLedgerKeyMissing)
	}
	return new(big.Int).Set(e.Balance), nil
}

// DeductGas subtracts gasUsed * gasPrice from the payer's native-asset
// entry. It is a no-op when the fee is zero or the payer has no native
// entry, i.e. the order never touched native currency.
func (l *Ledger) DeductGas(payer common.Address, receipt domain.Receipt) {
	fee := receipt.Fee()
	if fee.Sign() == 0 {
		return
	}
	e, ok := l.entries[key(payer, domain.NativeAsset())]
	if !ok {
		return
	}
	before := new(big.Int).Set(e.Balance)
	e.Balance.Sub(e.Balance, fee)
	if l.observe != nil {
		l.observe(payer, e.Asset, before, new(big.Int).Set(e.Balance))
	}
}

// Entries returns all entries in insertion order.
func (l *Ledger) Entries() []*Entry {
	out := make([]*Entry, 0, len(l.keys))
	for _, k := range l.keys {
		out = append(out, l.entries[k])
	}
	return out
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.keys)
}
