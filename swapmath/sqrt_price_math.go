// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package swapmath

import (
	"errors"

	"github.com/holiman/uint256"
)

var (
	ErrInvalidPrice       = errors.New("sqrt price must be positive")
	ErrInvalidLiquidity   = errors.New("liquidity must be positive")
	ErrPriceOverflow      = errors.New("sqrt price overflow")
	ErrNotEnoughLiquidity = errors.New("not enough liquidity for requested amount")
)

// GetNextSqrtPriceFromAmount0RoundingUp returns the sqrt price after adding
// (add=true) or removing amount of token0 at the given liquidity. Rounds up
// so the price never moves farther than the amount pays for.
func GetNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amount *uint256.Int, add bool) (*uint256.Int, error) {
	if amount.IsZero() {
		return sqrtPX96.Clone(), nil
	}
	numerator1 := new(uint256.Int).Lsh(liquidity, 96)

	if add {
		product, overflow := new(uint256.Int).MulOverflow(amount, sqrtPX96)
		if !overflow {
			denominator, carry := new(uint256.Int).AddOverflow(numerator1, product)
			if !carry {
				return MulDivRoundingUp(numerator1, sqrtPX96, denominator)
			}
		}
		// amount*sqrtP overflowed, use the division-first form
		denominator := new(uint256.Int).Div(numerator1, sqrtPX96)
		denominator.Add(denominator, amount)
		return DivRoundingUp(numerator1, denominator)
	}

	product, overflow := new(uint256.Int).MulOverflow(amount, sqrtPX96)
	if overflow || !numerator1.Gt(product) {
		return nil, ErrNotEnoughLiquidity
	}
	denominator := new(uint256.Int).Sub(numerator1, product)
	return MulDivRoundingUp(numerator1, sqrtPX96, denominator)
}

// GetNextSqrtPriceFromAmount1RoundingDown returns the sqrt price after adding
// (add=true) or removing amount of token1 at the given liquidity. Rounds down
// so the price never moves farther than the amount pays for.
func GetNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amount *uint256.Int, add bool) (*uint256.Int, error) {
	if add {
		quotient, err := MulDiv(amount, Q96, liquidity)
		if err != nil {
			return nil, err
		}
		next, carry := new(uint256.Int).AddOverflow(sqrtPX96, quotient)
		if carry {
			return nil, ErrPriceOverflow
		}
		return next, nil
	}

	quotient, err := MulDivRoundingUp(amount, Q96, liquidity)
	if err != nil {
		return nil, err
	}
	if !sqrtPX96.Gt(quotient) {
		return nil, ErrNotEnoughLiquidity
	}
	return new(uint256.Int).Sub(sqrtPX96, quotient), nil
}

// GetNextSqrtPriceFromInput returns the price after swapping in amountIn of
// the input token, rounding in the pool's favor.
func GetNextSqrtPriceFromInput(sqrtPX96, liquidity, amountIn *uint256.Int, zeroForOne bool) (*uint256.Int, error) {
	if sqrtPX96.IsZero() {
		return nil, ErrInvalidPrice
	}
	if liquidity.IsZero() {
		return nil, ErrInvalidLiquidity
	}
	if zeroForOne {
		return GetNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountIn, true)
	}
	return GetNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountIn, true)
}

// GetNextSqrtPriceFromOutput returns the price after paying out amountOut of
// the output token, rounding in the pool's favor.
func GetNextSqrtPriceFromOutput(sqrtPX96, liquidity, amountOut *uint256.Int, zeroForOne bool) (*uint256.Int, error) {
	if sqrtPX96.IsZero() {
		return nil, ErrInvalidPrice
	}
	if liquidity.IsZero() {
		return nil, ErrInvalidLiquidity
	}
	if zeroForOne {
		return GetNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountOut, false)
	}
	return GetNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountOut, false)
}

// GetAmount0Delta returns the token0 amount between two sqrt prices for the
// given liquidity: liquidity * (sqrtB - sqrtA) / (sqrtA * sqrtB).
func GetAmount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	if sqrtRatioAX96.Gt(sqrtRatioBX96) {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	if sqrtRatioAX96.IsZero() {
		return nil, ErrInvalidPrice
	}

	numerator1 := new(uint256.Int).Lsh(liquidity, 96)
	numerator2 := new(uint256.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)

	if roundUp {
		inner, err := MulDivRoundingUp(numerator1, numerator2, sqrtRatioBX96)
		if err != nil {
			return nil, err
		}
		return DivRoundingUp(inner, sqrtRatioAX96)
	}
	inner, err := MulDiv(numerator1, numerator2, sqrtRatioBX96)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Div(inner, sqrtRatioAX96), nil
}

// GetAmount1Delta returns the token1 amount between two sqrt prices for the
// given liquidity: liquidity * (sqrtB - sqrtA) / Q96.
func GetAmount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	if sqrtRatioAX96.Gt(sqrtRatioBX96) {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	diff := new(uint256.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)
	if roundUp {
		return MulDivRoundingUp(liquidity, diff, Q96)
	}
	return MulDiv(liquidity, diff, Q96)
}
