package settlement_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveen-imtb/seaport-audit/internal/domain"
	"github.com/naveen-imtb/seaport-audit/internal/settlement"
)

func buildLedger(t *testing.T) *settlement.Ledger {
	t.Helper()
	l := settlement.NewLedger(nil)
	item := erc20Item(100)
	native := nativeItem(10, offerer)
	l.Snapshot([]common.Address{offerer, fulfiller}, []domain.Item{item, native})
	require.NoError(t, l.ApplyDelta(offerer, item.Asset, big.NewInt(-100), item))
	require.NoError(t, l.ApplyDelta(fulfiller, item.Asset, big.NewInt(100), item))
	require.NoError(t, l.ApplyDelta(fulfiller, native.Asset, big.NewInt(-10), native))
	require.NoError(t, l.ApplyDelta(offerer, native.Asset, big.NewInt(10), native))
	return l
}

// ledgerOracle reports exactly the ledger's expected balances.
func ledgerOracle(l *settlement.Ledger) *mapOracle {
	balances := make(map[string]*big.Int)
	for _, e := range l.Entries() {
		balances[oracleKey(e.Owner, e.Asset)] = new(big.Int).Set(e.Balance)
	}
	return &mapOracle{balances: balances}
}

func TestVerifyAllMatch(t *testing.T) {
	ledger := buildLedger(t)
	v := settlement.NewVerifier(ledgerOracle(ledger), testLogger())

	mismatches, err := v.Verify(context.Background(), ledger)
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestVerifyReportsEveryMismatch(t *testing.T) {
	ledger := buildLedger(t)
	oracle := ledgerOracle(ledger)

	// Perturb two of the four balances; both must be reported.
	oracle.balances[oracleKey(offerer, tokenAsset())] = big.NewInt(-99)
	oracle.balances[oracleKey(fulfiller, domain.NativeAsset())] = big.NewInt(0)

	v := settlement.NewVerifier(oracle, testLogger())
	mismatches, err := v.Verify(context.Background(), ledger)
	require.NoError(t, err)
	require.Len(t, mismatches, 2)

	byOwner := make(map[common.Address]domain.Mismatch)
	for _, m := range mismatches {
		byOwner[m.Owner] = m
	}

	m := byOwner[offerer]
	assert.True(t, m.Asset.Equal(tokenAsset()))
	assert.Equal(t, big.NewInt(-100), m.Expected)
	assert.Equal(t, big.NewInt(-99), m.Actual)
	assert.Equal(t, big.NewInt(1), m.Delta())

	m = byOwner[fulfiller]
	assert.True(t, m.Asset.IsNative())
	assert.Equal(t, big.NewInt(-10), m.Expected)
	assert.Zero(t, m.Actual.Sign())
}

func TestVerifyOracleError(t *testing.T) {
	ledger := buildLedger(t)
	v := settlement.NewVerifier(&mapOracle{err: errors.New("rpc timeout")}, testLogger())

	mismatches, err := v.Verify(context.Background(), ledger)
	require.ErrorContains(t, err, "rpc timeout")
	assert.Nil(t, mismatches)
}
