// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package swapmath

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	ErrLiquidityOverflow  = errors.New("liquidity exceeds 128 bits")
	ErrLiquidityUnderflow = errors.New("liquidity underflow")
)

// AddDelta applies a signed liquidity delta to an unsigned liquidity value,
// failing on underflow and on exceeding the 128-bit ceiling.
func AddDelta(x *uint256.Int, y *big.Int) (*uint256.Int, error) {
	if y.Sign() < 0 {
		abs, overflow := uint256.FromBig(new(big.Int).Neg(y))
		if overflow || x.Lt(abs) {
			return nil, ErrLiquidityUnderflow
		}
		return new(uint256.Int).Sub(x, abs), nil
	}
	abs, overflow := uint256.FromBig(y)
	if overflow {
		return nil, ErrLiquidityOverflow
	}
	z := new(uint256.Int).Add(x, abs)
	if z.Gt(MaxUint128) || z.Lt(x) {
		return nil, ErrLiquidityOverflow
	}
	return z, nil
}

// LiquidityForAmount0 returns the liquidity that amount0 of token0 backs over
// the price range [sqrtRatioAX96, sqrtRatioBX96]:
// amount0 * (sqrtA * sqrtB / Q96) / (sqrtB - sqrtA).
func LiquidityForAmount0(sqrtRatioAX96, sqrtRatioBX96, amount0 *uint256.Int) (*uint256.Int, error) {
	if sqrtRatioAX96.Gt(sqrtRatioBX96) {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	intermediate, err := MulDiv(sqrtRatioAX96, sqrtRatioBX96, Q96)
	if err != nil {
		return nil, err
	}
	diff := new(uint256.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)
	return MulDiv(amount0, intermediate, diff)
}

// LiquidityForAmount1 returns the liquidity that amount1 of token1 backs over
// the price range: amount1 * Q96 / (sqrtB - sqrtA).
func LiquidityForAmount1(sqrtRatioAX96, sqrtRatioBX96, amount1 *uint256.Int) (*uint256.Int, error) {
	if sqrtRatioAX96.Gt(sqrtRatioBX96) {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	diff := new(uint256.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)
	return MulDiv(amount1, Q96, diff)
}
