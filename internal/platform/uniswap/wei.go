package uniswap

import (
	"fmt"
	"math"
	"math/big"
)

// weiPerEth is 10^18, the scaling between whole units and wei. Token
// amounts use the same scale since the traded token is 18-decimal.
var weiPerEth = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// toWei converts a whole-unit amount to wei, truncating sub-wei precision.
func toWei(amount float64) (*big.Int, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return nil, fmt.Errorf("invalid amount %v", amount)
	}
	scaled := new(big.Float).Mul(big.NewFloat(amount), weiPerEth)
	wei, _ := scaled.Int(nil)
	return wei, nil
}

// fromWei converts a wei amount to whole units. Precision loss beyond
// float64's mantissa is acceptable for balance reporting and gas math.
func fromWei(wei *big.Int) float64 {
	out, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), weiPerEth).Float64()
	return out
}
