package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Order describes assets the offerer gives up and assets counterparties
// must receive. Orders are treated as immutable: amount resolvers return
// rescaled copies rather than mutating in place.
type Order struct {
	Offerer       common.Address `json:"offerer"`
	Offer         []Item         `json:"offer"`
	Consideration []Item         `json:"consideration"`
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	c := Order{Offerer: o.Offerer}
	if o.Offer != nil {
		c.Offer = make([]Item, len(o.Offer))
		for i, it := range o.Offer {
			c.Offer[i] = it.Clone()
		}
	}
	if o.Consideration != nil {
		c.Consideration = make([]Item, len(o.Consideration))
		for i, it := range o.Consideration {
			c.Consideration[i] = it.Clone()
		}
	}
	return c
}

// FillInput describes how much of an order one fulfillment executes. Exactly
// one representation applies per invocation: a target number of units to
// fill, or the cumulative filled/total pair after the fulfillment. When
// UnitsToFill is set (non-nil, positive) it wins; otherwise the filled
// status is used.
type FillInput struct {
	UnitsToFill *big.Int `json:"units_to_fill,omitempty"`
	TotalFilled *big.Int `json:"total_filled,omitempty"`
	TotalSize   *big.Int `json:"total_size,omitempty"`
}

// ByUnits reports whether the target-units representation is in use.
func (f FillInput) ByUnits() bool {
	return f.UnitsToFill != nil && f.UnitsToFill.Sign() > 0
}

// TimeWindow is the price-curve window of a time-based order. Current is
// clamped to [Start, End] before interpolation; a nil window means amounts
// are used as-is.
type TimeWindow struct {
	Start   int64 `json:"start"`
	End     int64 `json:"end"`
	Current int64 `json:"current"`
}
