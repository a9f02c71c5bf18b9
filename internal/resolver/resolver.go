// Package resolver provides the default amount resolver: exact-rational
// rescaling of order amounts to a fill fraction, with the maximum fillable
// size derived from the greatest common divisor of all item amounts.
package resolver

import (
	"fmt"
	"math/big"

	"github.com/naveen-imtb/seaport-audit/internal/domain"
	"github.com/naveen-imtb/seaport-audit/internal/settlement"
)

// Resolver implements domain.AmountResolver. Scaling is the exact rational
// amount*k/n, floored on the offer side and ceiled on the consideration
// side, so a k-unit fill of an n-unit order exchanges exactly
// floor_or_ceil(amount*k/n) per item.
type Resolver struct{}

// New creates a Resolver.
func New() *Resolver {
	return &Resolver{}
}

// MaxFillableSize returns the greatest common divisor of every non-zero
// start and end amount across both sides of the order: the largest number
// of units the order divides into with all per-unit amounts integral.
// Returns 1 for an order with no non-zero amounts.
func (r *Resolver) MaxFillableSize(order domain.Order) *big.Int {
	gcd := new(big.Int)
	accumulate := func(items []domain.Item) {
		for _, item := range items {
			for _, amount := range []*big.Int{item.StartAmount, item.EndAmount} {
				if amount == nil || amount.Sign() == 0 {
					continue
				}
				if gcd.Sign() == 0 {
					gcd.Set(amount)
					continue
				}
				gcd.GCD(nil, nil, gcd, amount)
			}
		}
	}
	accumulate(order.Offer)
	accumulate(order.Consideration)
	if gcd.Sign() == 0 {
		return big.NewInt(1)
	}
	return gcd
}

// RescaleByUnitsToFill implements domain.AmountResolver. A nil or zero
// totalSize is substituted with the order's maximum fillable size.
func (r *Resolver) RescaleByUnitsToFill(order domain.Order, unitsToFill, totalSize *big.Int) (domain.Order, error) {
	if unitsToFill == nil || unitsToFill.Sign() <= 0 {
		return domain.Order{}, fmt.Errorf("resolver: units to fill must be positive: %w", domain.ErrInvalidFill)
	}
	if totalSize == nil || totalSize.Sign() == 0 {
		totalSize = r.MaxFillableSize(order)
	}
	if unitsToFill.Cmp(totalSize) > 0 {
		return domain.Order{}, fmt.Errorf("resolver: units to fill %s exceed total size %s: %w",
			unitsToFill, totalSize, domain.ErrInvalidFill)
	}
	return scaleOrder(order, unitsToFill, totalSize), nil
}

// RescaleByFilledStatus implements domain.AmountResolver. A zero
// totalFilled or totalSize leaves the amounts untouched, matching the
// convention that an absent fill status means the full order.
func (r *Resolver) RescaleByFilledStatus(order domain.Order, totalFilled, totalSize *big.Int) (domain.Order, error) {
	if totalFilled == nil || totalFilled.Sign() == 0 || totalSize == nil || totalSize.Sign() == 0 {
		return order.Clone(), nil
	}
	if totalFilled.Sign() < 0 || totalFilled.Cmp(totalSize) > 0 {
		return domain.Order{}, fmt.Errorf("resolver: total filled %s out of range of total size %s: %w",
			totalFilled, totalSize, domain.ErrInvalidFill)
	}
	return scaleOrder(order, totalFilled, totalSize), nil
}

// TipToConsideration implements domain.AmountResolver.
func (r *Resolver) TipToConsideration(tip domain.TipInput) domain.Item {
	amount := tip.Amount
	if amount == nil {
		amount = new(big.Int)
	}
	return domain.Item{
		Asset:       tip.Asset,
		StartAmount: new(big.Int).Set(amount),
		EndAmount:   new(big.Int).Set(amount),
		Recipient:   tip.Recipient,
	}
}

func scaleOrder(order domain.Order, numerator, denominator *big.Int) domain.Order {
	out := order.Clone()
	for i, item := range out.Offer {
		out.Offer[i].StartAmount = settlement.MulDivFloor(item.StartAmount, numerator, denominator)
		out.Offer[i].EndAmount = settlement.MulDivFloor(item.EndAmount, numerator, denominator)
	}
	for i, item := range out.Consideration {
		out.Consideration[i].StartAmount = settlement.MulDivCeil(item.StartAmount, numerator, denominator)
		out.Consideration[i].EndAmount = settlement.MulDivCeil(item.EndAmount, numerator, denominator)
	}
	return out
}
