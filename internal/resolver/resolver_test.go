package resolver

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveen-imtb/seaport-audit/internal/domain"
)

var (
	offerer = common.HexToAddress("0x1111111111111111111111111111111111111111")
	token   = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
)

func order(offerAmounts, considerationAmounts []int64) domain.Order {
	o := domain.Order{Offerer: offerer}
	for _, a := range offerAmounts {
		o.Offer = append(o.Offer, domain.Item{
			Asset:       domain.AssetDescriptor{Token: token, Identifier: new(big.Int)},
			StartAmount: big.NewInt(a),
			EndAmount:   big.NewInt(a),
		})
	}
	for _, a := range considerationAmounts {
		o.Consideration = append(o.Consideration, domain.Item{
			Asset:       domain.NativeAsset(),
			StartAmount: big.NewInt(a),
			EndAmount:   big.NewInt(a),
			Recipient:   offerer,
		})
	}
	return o
}

func TestMaxFillableSize(t *testing.T) {
	tests := []struct {
		name          string
		offer, consid []int64
		want          int64
	}{
		{"common divisor", []int64{100}, []int64{10}, 10},
		{"coprime amounts", []int64{7}, []int64{3}, 1},
		{"single item", []int64{12}, nil, 12},
		{"zero amounts ignored", []int64{100, 0}, []int64{40}, 20},
		{"all zero falls back to one", []int64{0}, []int64{0}, 1},
		{"empty order", nil, nil, 1},
	}
	r := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.MaxFillableSize(order(tt.offer, tt.consid))
			assert.Equal(t, big.NewInt(tt.want), got)
		})
	}
}

func TestMaxFillableSizeSpansStartAndEnd(t *testing.T) {
	o := order([]int64{100}, nil)
	o.Offer[0].EndAmount = big.NewInt(150)
	assert.Equal(t, big.NewInt(50), New().MaxFillableSize(o))
}

func TestRescaleByUnitsToFill(t *testing.T) {
	r := New()

	t.Run("floors offers and ceils considerations", func(t *testing.T) {
		got, err := r.RescaleByUnitsToFill(order([]int64{10}, []int64{10}), big.NewInt(1), big.NewInt(3))
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(3), got.Offer[0].StartAmount)
		assert.Equal(t, big.NewInt(4), got.Consideration[0].StartAmount)
	})

	t.Run("nil total size uses maximum fillable size", func(t *testing.T) {
		// gcd(100, 10) = 10: one unit is a tenth of the order.
		got, err := r.RescaleByUnitsToFill(order([]int64{100}, []int64{10}), big.NewInt(1), nil)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(10), got.Offer[0].StartAmount)
		assert.Equal(t, big.NewInt(1), got.Consideration[0].StartAmount)
	})

	t.Run("rejects non-positive units", func(t *testing.T) {
		_, err := r.RescaleByUnitsToFill(order([]int64{10}, nil), nil, big.NewInt(2))
		require.ErrorIs(t, err, domain.ErrInvalidFill)
		_, err = r.RescaleByUnitsToFill(order([]int64{10}, nil), big.NewInt(0), big.NewInt(2))
		require.ErrorIs(t, err, domain.ErrInvalidFill)
	})

	t.Run("rejects units above total size", func(t *testing.T) {
		_, err := r.RescaleByUnitsToFill(order([]int64{10}, nil), big.NewInt(3), big.NewInt(2))
		require.ErrorIs(t, err, domain.ErrInvalidFill)
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		o := order([]int64{10}, []int64{10})
		_, err := r.RescaleByUnitsToFill(o, big.NewInt(1), big.NewInt(2))
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(10), o.Offer[0].StartAmount)
		assert.Equal(t, big.NewInt(10), o.Consideration[0].StartAmount)
	})
}

func TestRescaleByFilledStatus(t *testing.T) {
	r := New()

	t.Run("scales by filled fraction", func(t *testing.T) {
		got, err := r.RescaleByFilledStatus(order([]int64{100}, []int64{10}), big.NewInt(3), big.NewInt(10))
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(30), got.Offer[0].StartAmount)
		assert.Equal(t, big.NewInt(3), got.Consideration[0].StartAmount)
	})

	t.Run("absent status means the full order", func(t *testing.T) {
		for _, pair := range [][2]*big.Int{
			{nil, nil},
			{big.NewInt(0), big.NewInt(10)},
			{big.NewInt(3), big.NewInt(0)},
		} {
			got, err := r.RescaleByFilledStatus(order([]int64{100}, nil), pair[0], pair[1])
			require.NoError(t, err)
			assert.Equal(t, big.NewInt(100), got.Offer[0].StartAmount)
		}
	})

	t.Run("rejects filled beyond size", func(t *testing.T) {
		_, err := r.RescaleByFilledStatus(order([]int64{100}, nil), big.NewInt(11), big.NewInt(10))
		require.ErrorIs(t, err, domain.ErrInvalidFill)
	})

	t.Run("agrees with rescale by units for the same fraction", func(t *testing.T) {
		o := order([]int64{10}, []int64{7})
		byUnits, err := r.RescaleByUnitsToFill(o, big.NewInt(2), big.NewInt(5))
		require.NoError(t, err)
		byStatus, err := r.RescaleByFilledStatus(o, big.NewInt(2), big.NewInt(5))
		require.NoError(t, err)
		assert.Equal(t, byUnits.Offer[0].StartAmount, byStatus.Offer[0].StartAmount)
		assert.Equal(t, byUnits.Consideration[0].StartAmount, byStatus.Consideration[0].StartAmount)
	})
}

func TestTipToConsideration(t *testing.T) {
	r := New()
	recipient := common.HexToAddress("0x3333333333333333333333333333333333333333")

	item := r.TipToConsideration(domain.TipInput{
		Asset:     domain.NativeAsset(),
		Amount:    big.NewInt(5),
		Recipient: recipient,
	})
	assert.Equal(t, big.NewInt(5), item.StartAmount)
	assert.Equal(t, big.NewInt(5), item.EndAmount)
	assert.Equal(t, recipient, item.Recipient)
	assert.True(t, item.Asset.IsNative())

	// Tips are fixed-amount by construction; a nil amount reads as zero.
	item = r.TipToConsideration(domain.TipInput{Asset: domain.NativeAsset(), Recipient: recipient})
	assert.Zero(t, item.StartAmount.Sign())
	assert.Zero(t, item.EndAmount.Sign())
}
