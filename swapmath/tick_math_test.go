// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package swapmath

import (
	"testing"

	"github.com/holiman/uint256"
)

// Helper to build uint256 values from decimal strings
func u256(s string) *uint256.Int {
	return uint256.MustFromDecimal(s)
}

// =========================================================================
// GetSqrtRatioAtTick Tests
// =========================================================================

func TestGetSqrtRatioAtTick_KnownValues(t *testing.T) {
	cases := []struct {
		tick int24
		want *uint256.Int
	}{
		{0, u256("79228162514264337593543950336")}, // 2^96, price 1:1
		{1, u256("79232123823359799118286999568")},
		{-1, u256("79224201403219477170569942574")},
		{MinTick, u256("4295128739")},
		{MaxTick, u256("1461446703485210103287273052203988822378723970342")},
	}

	for _, tc := range cases {
		got, err := GetSqrtRatioAtTick(tc.tick)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tc.tick, err)
		}
		if !got.Eq(tc.want) {
			t.Errorf("tick %d: expected %s, got %s", tc.tick, tc.want, got)
		}
	}
}

func TestGetSqrtRatioAtTick_MatchesBounds(t *testing.T) {
	minPrice, err := GetSqrtRatioAtTick(MinTick)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !minPrice.Eq(MinSqrtRatio) {
		t.Errorf("expected MinSqrtRatio %s, got %s", MinSqrtRatio, minPrice)
	}

	maxPrice, err := GetSqrtRatioAtTick(MaxTick)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !maxPrice.Eq(MaxSqrtRatio) {
		t.Errorf("expected MaxSqrtRatio %s, got %s", MaxSqrtRatio, maxPrice)
	}
}

func TestGetSqrtRatioAtTick_OutOfRange(t *testing.T) {
	if _, err := GetSqrtRatioAtTick(MinTick - 1); err != ErrTickOutOfRange {
		t.Errorf("expected ErrTickOutOfRange, got %v", err)
	}
	if _, err := GetSqrtRatioAtTick(MaxTick + 1); err != ErrTickOutOfRange {
		t.Errorf("expected ErrTickOutOfRange, got %v", err)
	}
}

func TestGetSqrtRatioAtTick_Monotonic(t *testing.T) {
	ticks := []int24{MinTick, -500000, -100000, -60, -1, 0, 1, 60, 100000, 500000, MaxTick}

	prev, err := GetSqrtRatioAtTick(ticks[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, tick := range ticks[1:] {
		cur, err := GetSqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tick, err)
		}
		if !prev.Lt(cur) {
			t.Errorf("ratio at tick %d not greater than previous (%s <= %s)", tick, cur, prev)
		}
		prev = cur
	}
}

// =========================================================================
// GetTickAtSqrtRatio Tests
// =========================================================================

func TestGetTickAtSqrtRatio_KnownValues(t *testing.T) {
	cases := []struct {
		price *uint256.Int
		want  int24
	}{
		{u256("79228162514264337593543950336"), 0},
		{u256("79232123823359799118286999568"), 1},
		{u256("79224201403219477170569942574"), -1},
		{u256("4295128739"), MinTick},
	}

	for _, tc := range cases {
		got, err := GetTickAtSqrtRatio(tc.price)
		if err != nil {
			t.Fatalf("price %s: unexpected error: %v", tc.price, err)
		}
		if got != tc.want {
			t.Errorf("price %s: expected tick %d, got %d", tc.price, tc.want, got)
		}
	}
}

func TestGetTickAtSqrtRatio_RoundTrip(t *testing.T) {
	ticks := []int24{MinTick, -887219, -123456, -6932, -60, -1, 0, 1, 60, 6932, 123456, 887219}

	for _, tick := range ticks {
		price, err := GetSqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tick, err)
		}
		got, err := GetTickAtSqrtRatio(price)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tick, err)
		}
		if got != tick {
			t.Errorf("round trip for tick %d returned %d", tick, got)
		}
	}
}

func TestGetTickAtSqrtRatio_BetweenTicks(t *testing.T) {
	// A price strictly between tick 0 and tick 1 resolves to tick 0.
	price := u256("79230000000000000000000000000")
	got, err := GetTickAtSqrtRatio(price)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("expected tick 0, got %d", got)
	}

	// One below the tick 1 ratio still resolves to tick 0.
	below := new(uint256.Int).SubUint64(u256("79232123823359799118286999568"), 1)
	got, err = GetTickAtSqrtRatio(below)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("expected tick 0, got %d", got)
	}
}

func TestGetTickAtSqrtRatio_OutOfRange(t *testing.T) {
	tooLow := new(uint256.Int).SubUint64(MinSqrtRatio, 1)
	if _, err := GetTickAtSqrtRatio(tooLow); err != ErrSqrtPriceOutOfRange {
		t.Errorf("expected ErrSqrtPriceOutOfRange, got %v", err)
	}

	// MaxSqrtRatio itself is excluded.
	if _, err := GetTickAtSqrtRatio(MaxSqrtRatio); err != ErrSqrtPriceOutOfRange {
		t.Errorf("expected ErrSqrtPriceOutOfRange, got %v", err)
	}

	justBelowMax := new(uint256.Int).SubUint64(MaxSqrtRatio, 1)
	tick, err := GetTickAtSqrtRatio(justBelowMax)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tick != MaxTick-1 {
		t.Errorf("expected tick %d, got %d", MaxTick-1, tick)
	}
}
