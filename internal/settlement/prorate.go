package settlement

import (
	"fmt"
	"math/big"

	"github.com/naveen-imtb/seaport-audit/internal/domain"
)

// AdjustTipsForPartialFills scales each tip item's amounts by
// numerator/denominator, rounding up so a partially filled order never
// underpays a tip recipient relative to the fraction filled. This is the
// same rounding rule consideration items get. The denominator must be the
// order's maximum fillable size, not the raw total-size field, because
// orders may express size as a ratio rather than absolute units.
func AdjustTipsForPartialFills(tips []domain.Item, numerator, denominator *big.Int) ([]domain.Item, error) {
	if denominator == nil || denominator.Sign() == 0 {
		return nil, fmt.Errorf("settlement: prorate tips: %w", domain.ErrZeroDenominator)
	}
	out := make([]domain.Item, len(tips))
	for i, tip := range tips {
		scaled := tip.Clone()
		scaled.StartAmount = MulDivCeil(tip.StartAmount, numerator, denominator)
		scaled.EndAmount = MulDivCeil(tip.EndAmount, numerator, denominator)
		out[i] = scaled
	}
	return out, nil
}
