package uniswap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
)

// Wallet reads the agent's on-chain balances. It implements
// domain.WalletReader against the same RPC endpoint the trader uses.
type Wallet struct {
	client  *ethclient.Client
	address common.Address
	token   common.Address
}

// NewWallet creates a balance reader for the given account and traded
// token, sharing the trader's RPC client.
func NewWallet(t *Trader) *Wallet {
	return &Wallet{
		client:  t.client,
		address: t.address,
		token:   t.token,
	}
}

// BaseBalance returns the account's ETH balance in whole units.
func (w *Wallet) BaseBalance(ctx context.Context) (float64, error) {
	balance, err := w.client.BalanceAt(ctx, w.address, nil)
	if err != nil {
		return 0, fmt.Errorf("uniswap: fetch eth balance: %w", err)
	}
	return fromWei(balance), nil
}

// AssetBalance returns the account's traded-token balance in whole units
// via the ERC-20 balanceOf view call.
func (w *Wallet) AssetBalance(ctx context.Context, _ string) (float64, error) {
	data, err := erc20ABI.Pack("balanceOf", w.address)
	if err != nil {
		return 0, fmt.Errorf("uniswap: pack balanceOf calldata: %w", err)
	}

	out, err := w.client.CallContract(ctx, ethereum.CallMsg{To: &w.token, Data: data}, nil)
	if err != nil {
		return 0, fmt.Errorf("uniswap: fetch token balance: %w", err)
	}

	results, err := erc20ABI.Unpack("balanceOf", out)
	if err != nil {
		return 0, fmt.Errorf("uniswap: decode token balance: %w", err)
	}
	balance, ok := results[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("uniswap: unexpected balanceOf result type %T", results[0])
	}
	return fromWei(balance), nil
}

// Compile-time interface check.
var _ domain.WalletReader = (*Wallet)(nil)
