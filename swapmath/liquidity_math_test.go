// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package swapmath

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
)

func TestAddDelta(t *testing.T) {
	got, err := AddDelta(uint256.NewInt(0), big.NewInt(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Eq(uint256.NewInt(5)) {
		t.Errorf("expected 5, got %s", got)
	}

	got, err = AddDelta(uint256.NewInt(5), big.NewInt(-5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("expected 0, got %s", got)
	}

	got, err = AddDelta(new(uint256.Int).SubUint64(MaxUint128, 1), big.NewInt(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Eq(MaxUint128) {
		t.Errorf("expected MaxUint128, got %s", got)
	}
}

func TestAddDelta_Underflow(t *testing.T) {
	if _, err := AddDelta(uint256.NewInt(3), big.NewInt(-4)); err != ErrLiquidityUnderflow {
		t.Errorf("expected ErrLiquidityUnderflow, got %v", err)
	}
}

func TestAddDelta_Overflow(t *testing.T) {
	if _, err := AddDelta(MaxUint128, big.NewInt(1)); err != ErrLiquidityOverflow {
		t.Errorf("expected ErrLiquidityOverflow, got %v", err)
	}

	huge := new(big.Int).Lsh(big.NewInt(1), 300)
	if _, err := AddDelta(uint256.NewInt(0), huge); err != ErrLiquidityOverflow {
		t.Errorf("expected ErrLiquidityOverflow, got %v", err)
	}
}

func TestLiquidityForAmounts(t *testing.T) {
	sqrtA := new(uint256.Int).Set(Q96)
	sqrtB := new(uint256.Int).Lsh(Q96, 1) // price 4

	// amount0 over [1, 2): L = amount0 * (sqrtA*sqrtB/Q96) / (sqrtB-sqrtA)
	liquidity0, err := LiquidityForAmount0(sqrtA, sqrtB, u256("1000000000000000000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !liquidity0.Eq(u256("2000000000000000000")) {
		t.Errorf("expected 2e18, got %s", liquidity0)
	}

	// amount1 over the same range: L = amount1 * Q96 / (sqrtB-sqrtA)
	liquidity1, err := LiquidityForAmount1(sqrtA, sqrtB, u256("1000000000000000000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !liquidity1.Eq(u256("1000000000000000000")) {
		t.Errorf("expected 1e18, got %s", liquidity1)
	}
}

func TestLiquidityForAmounts_SortsPrices(t *testing.T) {
	sqrtA := new(uint256.Int).Set(Q96)
	sqrtB := new(uint256.Int).Lsh(Q96, 1)
	amount := u256("7000000000000000000")

	forward, err := LiquidityForAmount0(sqrtA, sqrtB, amount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reversed, err := LiquidityForAmount0(sqrtB, sqrtA, amount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !forward.Eq(reversed) {
		t.Errorf("argument order changed the result: %s vs %s", forward, reversed)
	}
}
