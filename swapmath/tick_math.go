// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package swapmath

import (
	"errors"

	"github.com/holiman/uint256"
)

// Tick bounds. A tick of t corresponds to a price ratio of 1.0001^t.
const (
	MinTick int24 = -887272
	MaxTick int24 = 887272
)

// Sqrt prices at the tick bounds. Every valid pool price lies in
// [MinSqrtRatio, MaxSqrtRatio).
var (
	MinSqrtRatio = uint256.NewInt(4295128739)
	MaxSqrtRatio = uint256.MustFromDecimal("1461446703485210103287273052203988822378723970342")
)

var (
	ErrTickOutOfRange      = errors.New("tick out of range")
	ErrSqrtPriceOutOfRange = errors.New("sqrt price out of range")
)

// Bit-ladder constants for GetSqrtRatioAtTick, in UQ128.128.
// sqrtRatioBase is sqrt(1/1.0001) for bit 0; sqrtRatioSteps[i] is
// sqrt(1/1.0001^(2^(i+1))) for bits 1..19.
var (
	sqrtRatioBase = uint256.MustFromHex("0xfffcb933bd6fad37aa2d162d1a594001")
	sqrtRatioOne  = uint256.MustFromHex("0x100000000000000000000000000000000")

	sqrtRatioSteps = [19]*uint256.Int{
		uint256.MustFromHex("0xfff97272373d413259a46990580e213a"),
		uint256.MustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
		uint256.MustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
		uint256.MustFromHex("0xffcb9843d60f6159c9db58835c926644"),
		uint256.MustFromHex("0xff973b41fa98c081472e6896dfb254c0"),
		uint256.MustFromHex("0xff2ea16466c96a3843ec78b326b52861"),
		uint256.MustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),
		uint256.MustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
		uint256.MustFromHex("0xf987a7253ac413176f2b074cf7815e54"),
		uint256.MustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),
		uint256.MustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
		uint256.MustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
		uint256.MustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
		uint256.MustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),
		uint256.MustFromHex("0x31be135f97d08fd981231505542fcfa6"),
		uint256.MustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
		uint256.MustFromHex("0x5d6af8dedb81196699c329225ee604"),
		uint256.MustFromHex("0x2216e584f5fa1ea926041bedfe98"),
		uint256.MustFromHex("0x48a170391f7dc42444e8fa2"),
	}

	lowBitsMask = uint256.NewInt(0xffffffff)
)

// GetSqrtRatioAtTick returns sqrt(1.0001^tick) * 2^96 as a Q64.96 value.
func GetSqrtRatioAtTick(tick int24) (*uint256.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, ErrTickOutOfRange
	}

	absTick := uint32(tick)
	if tick < 0 {
		absTick = uint32(-tick)
	}

	ratio := new(uint256.Int)
	if absTick&1 != 0 {
		ratio.Set(sqrtRatioBase)
	} else {
		ratio.Set(sqrtRatioOne)
	}
	for i, step := range sqrtRatioSteps {
		if (absTick>>(i+1))&1 != 0 {
			ratio.Mul(ratio, step)
			ratio.Rsh(ratio, 128)
		}
	}
	if tick > 0 {
		ratio.Div(MaxUint256, ratio)
	}

	// Round up while narrowing from UQ128.128 to Q64.96.
	rem := new(uint256.Int).And(ratio, lowBitsMask)
	ratio.Rsh(ratio, 32)
	if !rem.IsZero() {
		ratio.AddUint64(ratio, 1)
	}
	return ratio, nil
}

// GetTickAtSqrtRatio returns the greatest tick whose sqrt ratio is at most
// sqrtPriceX96, by binary search over the valid tick range.
func GetTickAtSqrtRatio(sqrtPriceX96 *uint256.Int) (int24, error) {
	if sqrtPriceX96.Lt(MinSqrtRatio) || !sqrtPriceX96.Lt(MaxSqrtRatio) {
		return 0, ErrSqrtPriceOutOfRange
	}

	low, high := MinTick, MaxTick
	tick := MinTick
	for low <= high {
		mid := (low + high) / 2
		ratio, err := GetSqrtRatioAtTick(mid)
		if err != nil {
			return 0, err
		}
		if ratio.Cmp(sqrtPriceX96) <= 0 {
			tick = mid
			low = mid + 1
		} else {
			high = mid - 1
		}
	}
	return tick, nil
}
