package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// FulfillmentEvent is one observed order fulfillment, as delivered by the
// indexer feed or a one-shot input file. It carries everything the
// simulator needs to compute the expected post-state.
type FulfillmentEvent struct {
	TxHash    common.Hash    `json:"tx_hash"`
	Order     Order          `json:"order"`
	Fulfiller common.Address `json:"fulfiller"`
	Fill      FillInput      `json:"fill"`
	Tips      []TipInput     `json:"tips,omitempty"`
	Window    *TimeWindow    `json:"window,omitempty"`
	Receipt   Receipt        `json:"receipt"`
	Timestamp time.Time      `json:"timestamp"`
}

// VerificationRun is the persisted outcome of one simulate-and-verify pass.
// It records run metadata and any mismatches, never balance history.
type VerificationRun struct {
	ID          string
	TxHash      common.Hash
	Offerer     common.Address
	Fulfiller   common.Address
	CheckedKeys int
	Mismatches  []Mismatch
	CreatedAt   time.Time
}

// Clean reports whether the run found no discrepancies.
func (r VerificationRun) Clean() bool {
	return len(r.Mismatches) == 0
}
