package domain

import "math/big"

// AmountResolver rescales order amounts to an actual fill. The two rescale
// operations must converge to the same amounts for equivalent fills
// expressed either as target units or as cumulative filled status.
type AmountResolver interface {
	// RescaleByUnitsToFill returns a copy of order with every item amount
	// scaled to unitsToFill/totalSize. A zero totalSize means "use the
	// order's maximum fillable size".
	RescaleByUnitsToFill(order Order, unitsToFill, totalSize *big.Int) (Order, error)

	// RescaleByFilledStatus returns a copy of order scaled to
	// totalFilled/totalSize. A zero totalFilled or totalSize leaves the
	// amounts untouched.
	RescaleByFilledStatus(order Order, totalFilled, totalSize *big.Int) (Order, error)

	// MaxFillableSize returns the maximum number of units the order can be
	// split into with all item amounts staying integral.
	MaxFillableSize(order Order) *big.Int

	// TipToConsideration maps a tip input into a consideration-shaped item
	// with start == end == amount.
	TipToConsideration(tip TipInput) Item
}

// TimeInterpolator computes the amount an item is worth at the current
// point of its price curve. With a nil window it returns the start amount
// (start and end are expected equal). Consideration-side interpolation
// rounds up, offer-side rounds down.
type TimeInterpolator interface {
	PresentAmount(start, end *big.Int, window *TimeWindow, side Side) (*big.Int, error)
}
