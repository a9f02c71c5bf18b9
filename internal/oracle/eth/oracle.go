// Package eth implements domain.BalanceOracle against an Ethereum JSON-RPC
// node: native balances via eth_getBalance and token balances via eth_call
// against the standard balanceOf/ownerOf selectors.
package eth

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/naveen-imtb/seaport-audit/internal/domain"
)

const (
	erc20ABIJSON   = `[{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}]`
	erc721ABIJSON  = `[{"name":"ownerOf","type":"function","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]}]`
	erc1155ABIJSON = `[{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]}]`
)

// Oracle reads live balances from a chain node. Assets with identifier 0
// are queried as ERC-20; assets with a non-zero identifier are queried as
// ERC-1155 first and fall back to ERC-721 ownership when the contract does
// not answer the ERC-1155 selector.
type Oracle struct {
	client  *ethclient.Client
	erc20   abi.ABI
	erc721  abi.ABI
	erc1155 abi.ABI
	logger  *slog.Logger
}

// New dials the given JSON-RPC endpoint and returns an Oracle.
func New(ctx context.Context, rpcURL string, logger *slog.Logger) (*Oracle, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("eth: dial %s: %w", rpcURL, err)
	}
	return NewWithClient(client, logger)
}

// NewWithClient wraps an existing ethclient.
func NewWithClient(client *ethclient.Client, logger *slog.Logger) (*Oracle, error) {
	o := &Oracle{
		client: client,
		logger: logger.With(slog.String("component", "eth_oracle")),
	}
	var err error
	if o.erc20, err = abi.JSON(strings.NewReader(erc20ABIJSON)); err != nil {
		return nil, fmt.Errorf("eth: parse erc20 abi: %w", err)
	}
	if o.erc721, err = abi.JSON(strings.NewReader(erc721ABIJSON)); err != nil {
		return nil, fmt.Errorf("eth: parse erc721 abi: %w", err)
	}
	if o.erc1155, err = abi.JSON(strings.NewReader(erc1155ABIJSON)); err != nil {
		return nil, fmt.Errorf("eth: parse erc1155 abi: %w", err)
	}
	return o, nil
}

// Close releases the underlying RPC connection.
func (o *Oracle) Close() {
	o.client.Close()
}

// Balance implements domain.BalanceOracle.
func (o *Oracle) Balance(ctx context.Context, owner common.Address, asset domain.AssetDescriptor) (*big.Int, error) {
	if asset.IsNative() {
		balance, err := o.client.BalanceAt(ctx, owner, nil)
		if err != nil {
			return nil, fmt.Errorf("eth: native balance of %s: %w", owner.Hex(), err)
		}
		return balance, nil
	}

	identifier := asset.Identifier
	if identifier == nil {
		identifier = new(big.Int)
	}
	if identifier.Sign() == 0 {
		return o.erc20Balance(ctx, owner, asset.Token)
	}

	balance, err := o.erc1155Balance(ctx, owner, asset.Token, identifier)
	if err == nil {
		return balance, nil
	}
	o.logger.Debug("erc1155 balanceOf failed, trying erc721 ownerOf",
		slog.String("token", asset.Token.Hex()),
		slog.String("error", err.Error()),
	)
	return o.erc721Balance(ctx, owner, asset.Token, identifier)
}

func (o *Oracle) erc20Balance(ctx context.Context, owner, token common.Address) (*big.Int, error) {
	data, err := o.erc20.Pack("balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("eth: pack erc20 balanceOf: %w", err)
	}
	out, err := o.call(ctx, token, data)
	if err != nil {
		return nil, fmt.Errorf("eth: erc20 balance of %s at %s: %w", owner.Hex(), token.Hex(), err)
	}
	res, err := o.erc20.Unpack("balanceOf", out)
	if err != nil {
		return nil, fmt.Errorf("eth: unpack erc20 balanceOf: %w", err)
	}
	return res[0].(*big.Int), nil
}

func (o *Oracle) erc1155Balance(ctx context.Context, owner, token common.Address, id *big.Int) (*big.Int, error) {
	data, err := o.erc1155.Pack("balanceOf", owner, id)
	if err != nil {
		return nil, fmt.Errorf("eth: pack erc1155 balanceOf: %w", err)
	}
	out, err := o.call(ctx, token, data)
	if err != nil {
		return nil, fmt.Errorf("eth: erc1155 balance of %s at %s: %w", owner.Hex(), token.Hex(), err)
	}
	res, err := o.erc1155.Unpack("balanceOf", out)
	if err != nil {
		return nil, fmt.Errorf("eth: unpack erc1155 balanceOf: %w", err)
	}
	return res[0].(*big.Int), nil
}

func (o *Oracle) erc721Balance(ctx context.Context, owner, token common.Address, id *big.Int) (*big.Int, error) {
	data, err := o.erc721.Pack("ownerOf", id)
	if err != nil {
		return nil, fmt.Errorf("eth: pack erc721 ownerOf: %w", err)
	}
	out, err := o.call(ctx, token, data)
	if err != nil {
		return nil, fmt.Errorf("eth: erc721 owner of %s at %s: %w", id, token.Hex(), err)
	}
	res, err := o.erc721.Unpack("ownerOf", out)
	if err != nil {
		return nil, fmt.Errorf("eth: unpack erc721 ownerOf: %w", err)
	}
	if res[0].(common.Address) == owner {
		return big.NewInt(1), nil
	}
	return new(big.Int), nil
}

func (o *Oracle) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{To: &to, Data: data}
	return o.client.CallContract(ctx, msg, nil)
}
