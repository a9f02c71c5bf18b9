package settlement_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveen-imtb/seaport-audit/internal/domain"
	"github.com/naveen-imtb/seaport-audit/internal/resolver"
	"github.com/naveen-imtb/seaport-audit/internal/settlement"
)

func newSimulator() *settlement.Simulator {
	return settlement.NewSimulator(resolver.New(), nil, testLogger())
}

// swapOrder offers `give` units of token A against `take` units of native
// currency paid back to the offerer.
func swapOrder(give, take int64) domain.Order {
	return domain.Order{
		Offerer: offerer,
		Offer: []domain.Item{{
			Asset:       tokenAsset(),
			StartAmount: big.NewInt(give),
			EndAmount:   big.NewInt(give),
		}},
		Consideration: []domain.Item{{
			Asset:       domain.NativeAsset(),
			StartAmount: big.NewInt(take),
			EndAmount:   big.NewInt(take),
			Recipient:   offerer,
		}},
	}
}

func mustRead(t *testing.T, l *settlement.Ledger, owner common.Address, asset domain.AssetDescriptor) *big.Int {
	t.Helper()
	got, err := l.Read(owner, asset)
	require.NoError(t, err)
	return got
}

func TestSimulateFullFillWithGas(t *testing.T) {
	sim := newSimulator()
	order := swapOrder(100, 10)

	ledger, err := sim.Simulate(context.Background(), order, fulfiller, domain.FillInput{}, settlement.Options{
		Receipt: domain.Receipt{GasUsed: big.NewInt(21000), GasPrice: big.NewInt(1_000_000_000)},
	})
	require.NoError(t, err)
	require.Equal(t, 4, ledger.Len())

	assert.Equal(t, big.NewInt(-100), mustRead(t, ledger, offerer, tokenAsset()))
	assert.Equal(t, big.NewInt(100), mustRead(t, ledger, fulfiller, tokenAsset()))
	assert.Equal(t, big.NewInt(10), mustRead(t, ledger, offerer, domain.NativeAsset()))

	// -10 consideration, minus the 21000 gwei fee, deducted exactly once.
	wantNative := big.NewInt(-10 - 21000*1_000_000_000)
	assert.Equal(t, wantNative, mustRead(t, ledger, fulfiller, domain.NativeAsset()))
}

func TestSimulateDoesNotMutateOrder(t *testing.T) {
	sim := newSimulator()
	order := swapOrder(100, 10)

	_, err := sim.Simulate(context.Background(), order, fulfiller, domain.FillInput{
		UnitsToFill: big.NewInt(3),
		TotalSize:   big.NewInt(10),
	}, settlement.Options{})
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(100), order.Offer[0].StartAmount)
	assert.Equal(t, big.NewInt(10), order.Consideration[0].StartAmount)
}

func TestSimulateIsDeterministic(t *testing.T) {
	sim := newSimulator()
	order := swapOrder(100, 10)
	opts := settlement.Options{
		Receipt: domain.Receipt{GasUsed: big.NewInt(21000), GasPrice: big.NewInt(7)},
	}

	first, err := sim.Simulate(context.Background(), order, fulfiller, domain.FillInput{}, opts)
	require.NoError(t, err)
	second, err := sim.Simulate(context.Background(), order, fulfiller, domain.FillInput{}, opts)
	require.NoError(t, err)

	require.Equal(t, first.Len(), second.Len())
	a, b := first.Entries(), second.Entries()
	for i := range a {
		assert.Equal(t, a[i].Owner, b[i].Owner)
		assert.True(t, a[i].Asset.Equal(b[i].Asset))
		assert.Equal(t, a[i].Balance, b[i].Balance)
	}
}

// Without a fee, every asset's deltas across all owners must sum to zero.
func TestSimulateConservation(t *testing.T) {
	sim := newSimulator()
	order := swapOrder(100, 10)

	ledger, err := sim.Simulate(context.Background(), order, fulfiller, domain.FillInput{}, settlement.Options{
		Tips: []domain.TipInput{{
			Asset:     domain.NativeAsset(),
			Amount:    big.NewInt(3),
			Recipient: zone,
		}},
	})
	require.NoError(t, err)

	sums := make(map[string]*big.Int)
	for _, e := range ledger.Entries() {
		k := e.Asset.String()
		if sums[k] == nil {
			sums[k] = new(big.Int)
		}
		sums[k].Add(sums[k], e.Balance)
	}
	for asset, sum := range sums {
		assert.Zero(t, sum.Sign(), "asset %s does not conserve", asset)
	}
}

func TestSimulatePartialFillByUnits(t *testing.T) {
	sim := newSimulator()
	// 10 A for 3 native; one of two units fills: offer floors to 5,
	// consideration ceils to 2.
	order := swapOrder(10, 3)

	ledger, err := sim.Simulate(context.Background(), order, fulfiller, domain.FillInput{
		UnitsToFill: big.NewInt(1),
		TotalSize:   big.NewInt(2),
	}, settlement.Options{})
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(-5), mustRead(t, ledger, offerer, tokenAsset()))
	assert.Equal(t, big.NewInt(5), mustRead(t, ledger, fulfiller, tokenAsset()))
	assert.Equal(t, big.NewInt(2), mustRead(t, ledger, offerer, domain.NativeAsset()))
	assert.Equal(t, big.NewInt(-2), mustRead(t, ledger, fulfiller, domain.NativeAsset()))
}

func TestSimulatePartialFillByFilledStatus(t *testing.T) {
	sim := newSimulator()
	order := swapOrder(100, 10)

	ledger, err := sim.Simulate(context.Background(), order, fulfiller, domain.FillInput{
		TotalFilled: big.NewInt(3),
		TotalSize:   big.NewInt(10),
	}, settlement.Options{})
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(-30), mustRead(t, ledger, offerer, tokenAsset()))
	assert.Equal(t, big.NewInt(3), mustRead(t, ledger, offerer, domain.NativeAsset()))
}

func TestSimulateTipsProratedAgainstMaxSize(t *testing.T) {
	sim := newSimulator()
	// gcd(10, 10) = 10 fillable units; filling 3 prorates the 5-unit tip
	// to ceil(5*3/10) = 2.
	order := swapOrder(10, 10)

	ledger, err := sim.Simulate(context.Background(), order, fulfiller, domain.FillInput{
		UnitsToFill: big.NewInt(3),
		TotalSize:   big.NewInt(10),
	}, settlement.Options{
		Tips: []domain.TipInput{{
			Asset:     domain.NativeAsset(),
			Amount:    big.NewInt(5),
			Recipient: zone,
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(2), mustRead(t, ledger, zone, domain.NativeAsset()))
	// Fulfiller pays the scaled consideration (3) plus the prorated tip (2).
	assert.Equal(t, big.NewInt(-5), mustRead(t, ledger, fulfiller, domain.NativeAsset()))
	assert.Equal(t, big.NewInt(3), mustRead(t, ledger, offerer, domain.NativeAsset()))
}

func TestSimulateFullFillByUnitsMatchesNoFill(t *testing.T) {
	sim := newSimulator()
	order := swapOrder(100, 10)

	plain, err := sim.Simulate(context.Background(), order, fulfiller, domain.FillInput{}, settlement.Options{})
	require.NoError(t, err)

	// gcd(100, 10) = 10, so filling 10 of 10 units is the whole order.
	full, err := sim.Simulate(context.Background(), order, fulfiller, domain.FillInput{
		UnitsToFill: big.NewInt(10),
	}, settlement.Options{})
	require.NoError(t, err)

	require.Equal(t, plain.Len(), full.Len())
	for _, e := range plain.Entries() {
		assert.Equal(t, e.Balance, mustRead(t, full, e.Owner, e.Asset))
	}
}

func TestSimulateTimeBasedOrder(t *testing.T) {
	sim := newSimulator()
	order := domain.Order{
		Offerer: offerer,
		Offer: []domain.Item{{
			Asset:       tokenAsset(),
			StartAmount: big.NewInt(100),
			EndAmount:   big.NewInt(200),
		}},
		Consideration: []domain.Item{{
			Asset:       domain.NativeAsset(),
			StartAmount: big.NewInt(10),
			EndAmount:   big.NewInt(20),
			Recipient:   offerer,
		}},
	}

	ledger, err := sim.Simulate(context.Background(), order, fulfiller, domain.FillInput{}, settlement.Options{
		Window: &domain.TimeWindow{Start: 0, End: 100, Current: 50},
	})
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(-150), mustRead(t, ledger, offerer, tokenAsset()))
	assert.Equal(t, big.NewInt(150), mustRead(t, ledger, fulfiller, tokenAsset()))
	assert.Equal(t, big.NewInt(15), mustRead(t, ledger, offerer, domain.NativeAsset()))
	assert.Equal(t, big.NewInt(-15), mustRead(t, ledger, fulfiller, domain.NativeAsset()))
}

// With a baseline oracle the ledger starts from live balances and ends up
// holding expected absolute post-fulfillment state, not deltas.
func TestSimulateWithBaseline(t *testing.T) {
	sim := newSimulator()
	order := swapOrder(100, 10)

	baseline := &mapOracle{balances: map[string]*big.Int{
		oracleKey(offerer, tokenAsset()):           big.NewInt(500),
		oracleKey(fulfiller, tokenAsset()):         big.NewInt(50),
		oracleKey(offerer, domain.NativeAsset()):   big.NewInt(7),
		oracleKey(fulfiller, domain.NativeAsset()): big.NewInt(100),
	}}

	ledger, err := sim.Simulate(context.Background(), order, fulfiller, domain.FillInput{}, settlement.Options{
		Baseline: baseline,
	})
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(400), mustRead(t, ledger, offerer, tokenAsset()))
	assert.Equal(t, big.NewInt(150), mustRead(t, ledger, fulfiller, tokenAsset()))
	assert.Equal(t, big.NewInt(17), mustRead(t, ledger, offerer, domain.NativeAsset()))
	assert.Equal(t, big.NewInt(90), mustRead(t, ledger, fulfiller, domain.NativeAsset()))
}

func TestSimulateInvalidFill(t *testing.T) {
	sim := newSimulator()
	order := swapOrder(100, 10)

	_, err := sim.Simulate(context.Background(), order, fulfiller, domain.FillInput{
		UnitsToFill: big.NewInt(11),
		TotalSize:   big.NewInt(10),
	}, settlement.Options{})
	require.ErrorIs(t, err, domain.ErrInvalidFill)
}
