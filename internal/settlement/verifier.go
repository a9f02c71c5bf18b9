package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/naveen-imtb/seaport-audit/internal/domain"
)

// Verifier compares a ledger's expected end-state against observed
// balances from an oracle. It is a pure reporting component: mismatches
// are collected and returned as values, never raised as errors, and
// checking continues past the first discrepancy.
type Verifier struct {
	oracle domain.BalanceOracle
	logger *slog.Logger
}

// NewVerifier creates a Verifier backed by the given oracle.
func NewVerifier(oracle domain.BalanceOracle, logger *slog.Logger) *Verifier {
	return &Verifier{
		oracle: oracle,
		logger: logger.With(slog.String("component", "verifier")),
	}
}

// Verify queries the oracle for every ledger entry and returns one
// Mismatch per entry whose observed balance differs from the expected
// one. Oracle queries are independent reads and run fully in parallel;
// Verify waits for the complete fan-out before reporting. A transport
// error aborts the pass and is surfaced to the caller unretried.
func (v *Verifier) Verify(ctx context.Context, ledger *Ledger) ([]domain.Mismatch, error) {
	entries := ledger.Entries()
	observed := make([]*big.Int, len(entries))

	g, ctx := errgroup.WithContext(ctx)
	for i, e := range entries {
		g.Go(func() error {
			balance, err := v.oracle.Balance(ctx, e.Owner, e.Asset)
			if err != nil {
				return fmt.Errorf("settlement: balance of %s %s: %w", e.Owner.Hex(), e.Asset, err)
			}
			observed[i] = balance
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var mismatches []domain.Mismatch
	for i, e := range entries {
		if e.Balance.Cmp(observed[i]) == 0 {
			continue
		}
		m := domain.Mismatch{
			Owner:    e.Owner,
			Asset:    e.Asset,
			Expected: new(big.Int).Set(e.Balance),
			Actual:   observed[i],
		}
		mismatches = append(mismatches, m)
		v.logger.Warn("balance mismatch",
			slog.String("owner", m.Owner.Hex()),
			slog.String("asset", m.Asset.String()),
			slog.String("expected", m.Expected.String()),
			slog.String("actual", m.Actual.String()),
		)
	}
	return mismatches, nil
}
