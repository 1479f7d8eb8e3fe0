// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"math/bits"

	"github.com/holiman/uint256"
)

// tickBitmap tracks initialized ticks in packed 256-bit words keyed by word
// position. A set bit means the tick at that position has nonzero gross
// liquidity.
type tickBitmap map[int16]*uint256.Int

// compress maps a tick to its spacing-compressed index, rounding toward
// negative infinity.
func compress(tick, tickSpacing int24) int24 {
	compressed := tick / tickSpacing
	if tick < 0 && tick%tickSpacing != 0 {
		compressed--
	}
	return compressed
}

// bitmapPosition splits a compressed tick into word and bit positions.
func bitmapPosition(compressed int24) (int16, uint8) {
	return int16(compressed >> 8), uint8(compressed & 0xff)
}

// flipTick toggles the initialized state of a tick. The tick must be a
// multiple of the spacing.
func (tb tickBitmap) flipTick(tick, tickSpacing int24) error {
	if tick%tickSpacing != 0 {
		return ErrTickNotAligned
	}

	wordPos, bitPos := bitmapPosition(tick / tickSpacing)
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(bitPos))

	word, ok := tb[wordPos]
	if !ok {
		word = new(uint256.Int)
		tb[wordPos] = word
	}
	word.Xor(word, mask)
	if word.IsZero() {
		delete(tb, wordPos)
	}
	return nil
}

// nextInitializedTickWithinOneWord returns the next initialized tick at most
// one word away from tick in the given direction. When lte is true the search
// includes tick itself and moves toward lower ticks, otherwise it starts one
// compressed tick above and moves toward higher ticks. The second return
// reports whether the returned tick is initialized; when false the returned
// tick is the word boundary where the search stopped.
func (tb tickBitmap) nextInitializedTickWithinOneWord(tick, tickSpacing int24, lte bool) (int24, bool) {
	compressed := compress(tick, tickSpacing)

	if lte {
		wordPos, bitPos := bitmapPosition(compressed)

		// All bits at or below bitPos. Shifting in two steps wraps to the
		// full word when bitPos is 255.
		mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(bitPos))
		mask.Lsh(mask, 1)
		mask.SubUint64(mask, 1)

		if word, ok := tb[wordPos]; ok {
			masked := new(uint256.Int).And(word, mask)
			if !masked.IsZero() {
				msb := masked.BitLen() - 1
				return (compressed - int24(bitPos) + int24(msb)) * tickSpacing, true
			}
		}
		return (compressed - int24(bitPos)) * tickSpacing, false
	}

	// Start the search one compressed tick above the current one.
	compressed++
	wordPos, bitPos := bitmapPosition(compressed)

	// All bits at or above bitPos.
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(bitPos))
	mask.SubUint64(mask, 1)
	mask.Not(mask)

	if word, ok := tb[wordPos]; ok {
		masked := new(uint256.Int).And(word, mask)
		if !masked.IsZero() {
			lsb := trailingZeros(masked)
			return (compressed + int24(lsb) - int24(bitPos)) * tickSpacing, true
		}
	}
	return (compressed + 255 - int24(bitPos)) * tickSpacing, false
}

// isInitialized reports whether the tick has its bitmap bit set.
func (tb tickBitmap) isInitialized(tick, tickSpacing int24) bool {
	if tick%tickSpacing != 0 {
		return false
	}
	wordPos, bitPos := bitmapPosition(tick / tickSpacing)
	word, ok := tb[wordPos]
	if !ok {
		return false
	}
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(bitPos))
	return !new(uint256.Int).And(word, mask).IsZero()
}

// trailingZeros returns the index of the least significant set bit, or 256
// for a zero word.
func trailingZeros(x *uint256.Int) int {
	for i, limb := range x {
		if limb != 0 {
			return i*64 + bits.TrailingZeros64(limb)
		}
	}
	return 256
}
