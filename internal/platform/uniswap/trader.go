// Package uniswap executes swaps against a Uniswap V2 router and reads
// wallet balances over an Ethereum JSON-RPC endpoint.
package uniswap

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
)

// Router function fragments needed for swaps; the full V2 router ABI is
// not required.
const routerABIJSON = `[
	{"name":"swapExactETHForTokens","type":"function","stateMutability":"payable",
	 "inputs":[{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},
	           {"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],
	 "outputs":[{"name":"amounts","type":"uint256[]"}]},
	{"name":"swapExactTokensForETH","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},
	           {"name":"path","type":"address[]"},{"name":"to","type":"address"},
	           {"name":"deadline","type":"uint256"}],
	 "outputs":[{"name":"amounts","type":"uint256[]"}]}
]`

const erc20ABIJSON = `[
	{"name":"approve","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"name":"balanceOf","type":"function","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

// swapDeadline bounds how long a submitted swap stays valid in the mempool.
const swapDeadline = 20 * time.Minute

var (
	routerABI abi.ABI
	erc20ABI  abi.ABI
)

func init() {
	var err error
	routerABI, err = abi.JSON(strings.NewReader(routerABIJSON))
	if err != nil {
		panic(fmt.Sprintf("uniswap: parse router ABI: %v", err))
	}
	erc20ABI, err = abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic(fmt.Sprintf("uniswap: parse erc20 ABI: %v", err))
	}
}

// Trader submits swaps through a Uniswap V2 router and estimates their gas
// cost. It implements domain.TradeExecutor and domain.GasEstimator.
//
// Amounts cross this boundary as float64 in whole-unit terms (ETH or
// tokens) and are converted to 18-decimal wei internally; the traded token
// is assumed to use 18 decimals.
type Trader struct {
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    *big.Int

	router common.Address
	weth   common.Address
	token  common.Address

	logger *slog.Logger
}

// NewTrader dials the RPC endpoint and derives the sender address from the
// hex-encoded private key.
func NewTrader(ctx context.Context, rpcURL, privateKeyHex string, chainID int64, routerAddr, wethAddr, tokenAddr string, logger *slog.Logger) (*Trader, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("uniswap: dial rpc: %w", err)
	}

	pk, err := ethcrypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("uniswap: invalid private key: %w", err)
	}

	return &Trader{
		client:     client,
		privateKey: pk,
		address:    ethcrypto.PubkeyToAddress(pk.PublicKey),
		chainID:    big.NewInt(chainID),
		router:     common.HexToAddress(routerAddr),
		weth:       common.HexToAddress(wethAddr),
		token:      common.HexToAddress(tokenAddr),
		logger:     logger.With(slog.String("component", "uniswap_trader")),
	}, nil
}

// Address returns the wallet address the trader signs with.
func (t *Trader) Address() common.Address {
	return t.address
}

// Close releases the underlying RPC connection.
func (t *Trader) Close() {
	t.client.Close()
}

// ExecuteSwap submits the swap and blocks until it is mined. The returned
// reference is the transaction hash. A reverted transaction is an error;
// callers must treat any error as "no trade happened" and leave their own
// state untouched.
func (t *Trader) ExecuteSwap(ctx context.Context, direction domain.SwapDirection, amount float64, asset string) (string, error) {
	amountWei, err := toWei(amount)
	if err != nil {
		return "", fmt.Errorf("uniswap: %w", err)
	}

	var tx *types.Transaction
	switch direction {
	case domain.SwapBaseToAsset:
		tx, err = t.swapETHForTokens(ctx, amountWei)
	case domain.SwapAssetToBase:
		tx, err = t.swapTokensForETH(ctx, amountWei)
	default:
		return "", fmt.Errorf("uniswap: unknown swap direction %q", direction)
	}
	if err != nil {
		return "", fmt.Errorf("uniswap: submit swap: %w: %w", domain.ErrExecutionFailed, err)
	}

	t.logger.Info("swap submitted",
		slog.String("direction", string(direction)),
		slog.String("asset", asset),
		slog.Float64("amount", amount),
		slog.String("tx_hash", tx.Hash().Hex()),
	)

	receipt, err := bind.WaitMined(ctx, t.client, tx)
	if err != nil {
		return "", fmt.Errorf("uniswap: wait for swap %s: %w: %w", tx.Hash().Hex(), domain.ErrExecutionFailed, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("uniswap: swap %s reverted: %w", tx.Hash().Hex(), domain.ErrExecutionFailed)
	}

	t.logger.Info("swap confirmed",
		slog.String("tx_hash", tx.Hash().Hex()),
		slog.Uint64("gas_used", receipt.GasUsed),
	)
	return tx.Hash().Hex(), nil
}

// EstimateGas returns the estimated cost of the swap in ETH, computed from
// the node's gas estimate and current suggested gas price. Sells estimate
// only the swap leg; the approve transaction is comparatively cheap.
func (t *Trader) EstimateGas(ctx context.Context, amount float64, direction domain.SwapDirection) (float64, error) {
	amountWei, err := toWei(amount)
	if err != nil {
		return 0, fmt.Errorf("uniswap: %w", err)
	}

	deadline := deadlineFromNow()
	var msg ethereum.CallMsg
	switch direction {
	case domain.SwapBaseToAsset:
		data, packErr := routerABI.Pack("swapExactETHForTokens",
			big.NewInt(0), t.buyPath(), t.address, deadline)
		if packErr != nil {
			return 0, fmt.Errorf("uniswap: pack buy calldata: %w", packErr)
		}
		msg = ethereum.CallMsg{From: t.address, To: &t.router, Value: amountWei, Data: data}
	case domain.SwapAssetToBase:
		data, packErr := routerABI.Pack("swapExactTokensForETH",
			amountWei, big.NewInt(0), t.sellPath(), t.address, deadline)
		if packErr != nil {
			return 0, fmt.Errorf("uniswap: pack sell calldata: %w", packErr)
		}
		msg = ethereum.CallMsg{From: t.address, To: &t.router, Data: data}
	default:
		return 0, fmt.Errorf("uniswap: unknown swap direction %q", direction)
	}

	gasLimit, err := t.client.EstimateGas(ctx, msg)
	if err != nil {
		return 0, fmt.Errorf("uniswap: estimate gas: %w", err)
	}
	gasPrice, err := t.client.SuggestGasPrice(ctx)
	if err != nil {
		return 0, fmt.Errorf("uniswap: suggest gas price: %w", err)
	}

	cost := new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), gasPrice)
	return fromWei(cost), nil
}

func (t *Trader) swapETHForTokens(ctx context.Context, amountWei *big.Int) (*types.Transaction, error) {
	data, err := routerABI.Pack("swapExactETHForTokens",
		big.NewInt(0), t.buyPath(), t.address, deadlineFromNow())
	if err != nil {
		return nil, fmt.Errorf("pack buy calldata: %w", err)
	}
	return t.signAndSend(ctx, t.router, amountWei, data)
}

func (t *Trader) swapTokensForETH(ctx context.Context, amountWei *big.Int) (*types.Transaction, error) {
	// Approve the router to spend the tokens before the swap leg.
	approveData, err := erc20ABI.Pack("approve", t.router, amountWei)
	if err != nil {
		return nil, fmt.Errorf("pack approve calldata: %w", err)
	}
	approveTx, err := t.signAndSend(ctx, t.token, nil, approveData)
	if err != nil {
		return nil, fmt.Errorf("submit approve: %w", err)
	}
	receipt, err := bind.WaitMined(ctx, t.client, approveTx)
	if err != nil {
		return nil, fmt.Errorf("wait for approve %s: %w", approveTx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("approve %s reverted", approveTx.Hash().Hex())
	}

	data, err := routerABI.Pack("swapExactTokensForETH",
		amountWei, big.NewInt(0), t.sellPath(), t.address, deadlineFromNow())
	if err != nil {
		return nil, fmt.Errorf("pack sell calldata: %w", err)
	}
	return t.signAndSend(ctx, t.router, nil, data)
}

// signAndSend builds a legacy transaction with node-suggested gas price and
// estimated gas limit, signs it, and broadcasts it.
func (t *Trader) signAndSend(ctx context.Context, to common.Address, value *big.Int, data []byte) (*types.Transaction, error) {
	nonce, err := t.client.PendingNonceAt(ctx, t.address)
	if err != nil {
		return nil, fmt.Errorf("pending nonce: %w", err)
	}
	gasPrice, err := t.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}
	gasLimit, err := t.client.EstimateGas(ctx, ethereum.CallMsg{
		From: t.address, To: &to, Value: value, Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(t.chainID), t.privateKey)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	if err := t.client.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}
	return signed, nil
}

func (t *Trader) buyPath() []common.Address {
	return []common.Address{t.weth, t.token}
}

func (t *Trader) sellPath() []common.Address {
	return []common.Address{t.token, t.weth}
}

func deadlineFromNow() *big.Int {
	return big.NewInt(time.Now().Add(swapDeadline).Unix())
}

// Compile-time interface checks.
var (
	_ domain.TradeExecutor = (*Trader)(nil)
	_ domain.GasEstimator  = (*Trader)(nil)
)
