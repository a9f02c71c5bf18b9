// Package domain defines the core data model of the settlement verification
// engine: asset descriptors, order items, fill parameters, verification
// results, and the interfaces consumed from surrounding infrastructure.
package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AssetDescriptor identifies a fungible or non-fungible asset by token
// contract and sub-identifier. The native currency is the zero address with
// identifier 0. Two descriptors are equal iff both fields match exactly;
// fungible assets must carry identifier 0, it is never a wildcard.
type AssetDescriptor struct {
	Token      common.Address `json:"token"`
	Identifier *big.Int       `json:"identifier"`
}

// NativeAsset returns the descriptor for the chain's native currency.
func NativeAsset() AssetDescriptor {
	return AssetDescriptor{Token: common.Address{}, Identifier: new(big.Int)}
}

// IsNative reports whether the descriptor refers to the native currency.
func (a AssetDescriptor) IsNative() bool {
	return a.Token == (common.Address{}) && a.identifier().Sign() == 0
}

// Equal reports exact equality on both token and identifier.
func (a AssetDescriptor) Equal(b AssetDescriptor) bool {
	return a.Token == b.Token && a.identifier().Cmp(b.identifier()) == 0
}

// String renders the descriptor as "token/identifier".
func (a AssetDescriptor) String() string {
	return fmt.Sprintf("%s/%s", a.Token.Hex(), a.identifier().String())
}

func (a AssetDescriptor) identifier() *big.Int {
	if a.Identifier == nil {
		return new(big.Int)
	}
	return a.Identifier
}
