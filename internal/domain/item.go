package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Side distinguishes the two halves of an order for amount interpolation:
// offer amounts round down (the offerer never overdelivers), consideration
// amounts round up (the recipient is never underpaid).
type Side int

const (
	SideOffer Side = iota
	SideConsideration
)

// Item is a single entry on the offer or consideration side of an order.
// Start and end amounts differ only for time-based (ascending/descending)
// orders. Recipient is meaningful on the consideration side only; offer
// items are implicitly received by the fulfiller.
type Item struct {
	Asset       AssetDescriptor `json:"asset"`
	StartAmount *big.Int        `json:"start_amount"`
	EndAmount   *big.Int        `json:"end_amount"`
	Recipient   common.Address  `json:"recipient"`
}

// Clone returns a deep copy of the item.
func (i Item) Clone() Item {
	c := i
	if i.StartAmount != nil {
		c.StartAmount = new(big.Int).Set(i.StartAmount)
	}
	if i.EndAmount != nil {
		c.EndAmount = new(big.Int).Set(i.EndAmount)
	}
	if i.Asset.Identifier != nil {
		c.Asset.Identifier = new(big.Int).Set(i.Asset.Identifier)
	}
	return c
}

// TipInput is a fixed-amount side payment added at fulfillment time. Tips
// are not part of the order's original consideration; the simulator maps
// them into consideration-shaped items and prorates them by fill fraction.
type TipInput struct {
	Asset     AssetDescriptor `json:"asset"`
	Amount    *big.Int        `json:"amount"`
	Recipient common.Address  `json:"recipient"`
}
