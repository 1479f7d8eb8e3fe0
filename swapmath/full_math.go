// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package swapmath implements the fixed-point arithmetic for concentrated
// liquidity pools: tick to sqrt-price conversion, token amount deltas over a
// price range, next-price computation, and the single-step swap kernel.
// Square-root prices are Q64.96, growth values are Q128.128, and all
// intermediate products are carried at full 512-bit precision.
package swapmath

import (
	"errors"

	"github.com/holiman/uint256"
)

// int24 type alias for ticks
type int24 = int32

// uint24 type alias for fees
type uint24 = uint32

// Fixed-point constants
var (
	// Q96 is 2^96, the sqrt-price scaling factor
	Q96 = new(uint256.Int).Lsh(uint256.NewInt(1), 96)

	// Q128 is 2^128, the growth-accumulator scaling factor
	Q128 = new(uint256.Int).Lsh(uint256.NewInt(1), 128)

	// MaxUint128 is the ceiling for liquidity values
	MaxUint128 = new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), 128), 1)

	// MaxUint256 is the wrap boundary for growth accumulators
	MaxUint256 = new(uint256.Int).Not(uint256.NewInt(0))
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrMulDivOverflow = errors.New("muldiv result exceeds 256 bits")
)

// MulDiv computes floor(a * b / denominator) with a 512-bit intermediate
// product.
func MulDiv(a, b, denominator *uint256.Int) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, ErrDivisionByZero
	}
	result, overflow := new(uint256.Int).MulDivOverflow(a, b, denominator)
	if overflow {
		return nil, ErrMulDivOverflow
	}
	return result, nil
}

// MulDivRoundingUp computes ceil(a * b / denominator) with a 512-bit
// intermediate product.
func MulDivRoundingUp(a, b, denominator *uint256.Int) (*uint256.Int, error) {
	result, err := MulDiv(a, b, denominator)
	if err != nil {
		return nil, err
	}
	if !new(uint256.Int).MulMod(a, b, denominator).IsZero() {
		if result.Eq(MaxUint256) {
			return nil, ErrMulDivOverflow
		}
		result.AddUint64(result, 1)
	}
	return result, nil
}

// DivRoundingUp computes ceil(numerator / denominator).
func DivRoundingUp(numerator, denominator *uint256.Int) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, ErrDivisionByZero
	}
	quotient := new(uint256.Int).Div(numerator, denominator)
	if !new(uint256.Int).Mod(numerator, denominator).IsZero() {
		quotient.AddUint64(quotient, 1)
	}
	return quotient, nil
}
