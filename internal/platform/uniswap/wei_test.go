package uniswap

import (
	"math"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToWei(t *testing.T) {
	wei, err := toWei(1.0)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", wei.String())

	wei, err = toWei(0.001)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000", wei.String())

	wei, err = toWei(0)
	require.NoError(t, err)
	assert.Zero(t, wei.Sign())
}

func TestToWeiRejectsInvalidAmounts(t *testing.T) {
	for _, amount := range []float64{-0.5, math.NaN(), math.Inf(1)} {
		_, err := toWei(amount)
		assert.Error(t, err, "amount %v", amount)
	}
}

func TestFromWeiRoundTrip(t *testing.T) {
	wei, err := toWei(0.0125)
	require.NoError(t, err)
	assert.InDelta(t, 0.0125, fromWei(wei), 1e-12)

	one := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	assert.Equal(t, 1.0, fromWei(one))
}

func TestRouterABIPacksSwapCalls(t *testing.T) {
	weth := common.HexToAddress("0x7b79995e5f793A07Bc00c21412e50Ecae098E7f9")
	token := common.HexToAddress("0x779877A7B0D9E8603169DdbD7836e478b4624789")
	recipient := common.HexToAddress("0x0000000000000000000000000000000000000001")
	deadline := big.NewInt(1_700_000_000)

	buy, err := routerABI.Pack("swapExactETHForTokens",
		big.NewInt(0), []common.Address{weth, token}, recipient, deadline)
	require.NoError(t, err)
	assert.Equal(t, routerABI.Methods["swapExactETHForTokens"].ID, buy[:4])

	sell, err := routerABI.Pack("swapExactTokensForETH",
		big.NewInt(1), big.NewInt(0), []common.Address{token, weth}, recipient, deadline)
	require.NoError(t, err)
	assert.Equal(t, routerABI.Methods["swapExactTokensForETH"].ID, sell[:4])

	approve, err := erc20ABI.Pack("approve", recipient, big.NewInt(1))
	require.NoError(t, err)
	assert.Len(t, approve, 4+32+32)
}
