package settlement_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveen-imtb/seaport-audit/internal/domain"
	"github.com/naveen-imtb/seaport-audit/internal/settlement"
)

var (
	offerer   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	fulfiller = common.HexToAddress("0x2222222222222222222222222222222222222222")
	zone      = common.HexToAddress("0x3333333333333333333333333333333333333333")
	tokenA    = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tokenAsset() domain.AssetDescriptor {
	return domain.AssetDescriptor{Token: tokenA, Identifier: new(big.Int)}
}

func erc20Item(amount int64) domain.Item {
	return domain.Item{
		Asset:       tokenAsset(),
		StartAmount: big.NewInt(amount),
		EndAmount:   big.NewInt(amount),
	}
}

func nativeItem(amount int64, recipient common.Address) domain.Item {
	return domain.Item{
		Asset:       domain.NativeAsset(),
		StartAmount: big.NewInt(amount),
		EndAmount:   big.NewInt(amount),
		Recipient:   recipient,
	}
}

// mapOracle serves balances from a fixed map keyed by owner and asset.
// Keys not in the map read as zero.
type mapOracle struct {
	balances map[string]*big.Int
	err      error
}

func oracleKey(owner common.Address, asset domain.AssetDescriptor) string {
	return owner.Hex() + "|" + asset.String()
}

func (o *mapOracle) Balance(_ context.Context, owner common.Address, asset domain.AssetDescriptor) (*big.Int, error) {
	if o.err != nil {
		return nil, o.err
	}
	if b, ok := o.balances[oracleKey(owner, asset)]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func TestLedgerSnapshotCrossProduct(t *testing.T) {
	l := settlement.NewLedger(nil)
	addrs := []common.Address{offerer, fulfiller}
	items := []domain.Item{erc20Item(100), nativeItem(10, offerer)}

	l.Snapshot(addrs, items)

	require.Equal(t, 4, l.Len())
	for _, e := range l.Entries() {
		assert.Zero(t, e.Balance.Sign(), "snapshot entries start at zero")
	}

	// Re-snapshotting the same keys must not duplicate entries.
	l.Snapshot(addrs, items)
	assert.Equal(t, 4, l.Len())
}

func TestLedgerApplyDeltaAndRead(t *testing.T) {
	l := settlement.NewLedger(nil)
	item := erc20Item(100)
	l.Snapshot([]common.Address{offerer}, []domain.Item{item})

	require.NoError(t, l.ApplyDelta(offerer, item.Asset, big.NewInt(-100), item))
	require.NoError(t, l.ApplyDelta(offerer, item.Asset, big.NewInt(30), item))

	got, err := l.Read(offerer, item.Asset)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(-70), got)
}

func TestLedgerMissingKey(t *testing.T) {
	l := settlement.NewLedger(nil)
	item := erc20Item(1)
	l.Snapshot([]common.Address{offerer}, []domain.Item{item})

	err := l.ApplyDelta(fulfiller, item.Asset, big.NewInt(1), item)
	require.ErrorIs(t, err, domain.ErrLedgerKeyMissing)

	_, err = l.Read(fulfiller, item.Asset)
	require.ErrorIs(t, err, domain.ErrLedgerKeyMissing)
}

func TestLedgerDeductGas(t *testing.T) {
	receipt := domain.Receipt{GasUsed: big.NewInt(21000), GasPrice: big.NewInt(1_000_000_000)}

	t.Run("subtracts fee from native entry", func(t *testing.T) {
		l := settlement.NewLedger(nil)
		l.Snapshot([]common.Address{fulfiller}, []domain.Item{nativeItem(10, offerer)})
		require.NoError(t, l.ApplyDelta(fulfiller, domain.NativeAsset(), big.NewInt(-10), nativeItem(10, offerer)))

		l.DeductGas(fulfiller, receipt)

		got, err := l.Read(fulfiller, domain.NativeAsset())
		require.NoError(t, err)
		want := new(big.Int).Neg(big.NewInt(21_000_000_000_010))
		assert.Equal(t, want, got)
	})

	t.Run("no-op without a native entry", func(t *testing.T) {
		l := settlement.NewLedger(nil)
		item := erc20Item(100)
		l.Snapshot([]common.Address{fulfiller}, []domain.Item{item})

		l.DeductGas(fulfiller, receipt)

		got, err := l.Read(fulfiller, item.Asset)
		require.NoError(t, err)
		assert.Zero(t, got.Sign())
	})
}

func TestLedgerWriteObserver(t *testing.T) {
	type write struct {
		owner         common.Address
		before, after *big.Int
	}
	var writes []write
	l := settlement.NewLedger(func(owner common.Address, _ domain.AssetDescriptor, before, after *big.Int) {
		writes = append(writes, write{owner: owner, before: before, after: after})
	})

	item := nativeItem(5, offerer)
	l.Snapshot([]common.Address{fulfiller}, []domain.Item{item})
	require.NoError(t, l.ApplyDelta(fulfiller, item.Asset, big.NewInt(-5), item))
	l.DeductGas(fulfiller, domain.Receipt{GasUsed: big.NewInt(2), GasPrice: big.NewInt(3)})

	require.Len(t, writes, 2)
	assert.Equal(t, fulfiller, writes[0].owner)
	assert.Zero(t, writes[0].before.Sign())
	assert.Equal(t, big.NewInt(-5), writes[0].after)
	assert.Equal(t, big.NewInt(-5), writes[1].before)
	assert.Equal(t, big.NewInt(-11), writes[1].after)
}

func TestLedgerSnapshotWithBalances(t *testing.T) {
	oracle := &mapOracle{balances: map[string]*big.Int{
		oracleKey(offerer, tokenAsset()):   big.NewInt(500),
		oracleKey(fulfiller, tokenAsset()): big.NewInt(7),
	}}

	l := settlement.NewLedger(nil)
	err := l.SnapshotWithBalances(context.Background(),
		[]common.Address{offerer, fulfiller},
		[]domain.Item{erc20Item(100)},
		oracle,
	)
	require.NoError(t, err)

	got, err := l.Read(offerer, tokenAsset())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), got)

	got, err = l.Read(fulfiller, tokenAsset())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), got)
}

func TestLedgerSnapshotWithBalancesError(t *testing.T) {
	oracle := &mapOracle{err: errors.New("rpc: connection refused")}

	l := settlement.NewLedger(nil)
	err := l.SnapshotWithBalances(context.Background(),
		[]common.Address{offerer},
		[]domain.Item{erc20Item(100)},
		oracle,
	)
	require.ErrorContains(t, err, "connection refused")
}
