package domain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// BalanceOracle answers "how much of this asset does this owner hold right
// now". Implementations read from a chain node, a cache, or a test fixture.
// Transport errors are returned verbatim; the core never retries them.
type BalanceOracle interface {
	Balance(ctx context.Context, owner common.Address, asset AssetDescriptor) (*big.Int, error)
}

// BalanceOracleFunc adapts a function to the BalanceOracle interface.
type BalanceOracleFunc func(ctx context.Context, owner common.Address, asset AssetDescriptor) (*big.Int, error)

// Balance implements BalanceOracle.
func (f BalanceOracleFunc) Balance(ctx context.Context, owner common.Address, asset AssetDescriptor) (*big.Int, error) {
	return f(ctx, owner, asset)
}
