package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Mismatch records a detected discrepancy between the expected and observed
// balance of one (owner, asset) key. Mismatches are ordinary return values
// of the verifier, never errors; the caller decides whether any mismatch
// constitutes a failure.
type Mismatch struct {
	Owner    common.Address
	Asset    AssetDescriptor
	Expected *big.Int
	Actual   *big.Int
}

// Delta returns actual - expected.
func (m Mismatch) Delta() *big.Int {
	return new(big.Int).Sub(m.Actual, m.Expected)
}

// String renders the mismatch for logs and alerts.
func (m Mismatch) String() string {
	return fmt.Sprintf("owner=%s asset=%s expected=%s actual=%s",
		m.Owner.Hex(), m.Asset, m.Expected, m.Actual)
}
