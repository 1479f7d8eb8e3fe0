// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"encoding/binary"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"

	"github.com/luxfi/clamm/swapmath"
)

// Position tracks the liquidity a single owner holds in a tick range along
// with snapshots of the growth accumulators taken at the last update. Owed
// amounts are always settled against the snapshots, so a position must be
// updated to realize pending fees, losses, or gains.
type Position struct {
	Liquidity *uint256.Int

	FeeGrowthInside0LastX128  *uint256.Int
	FeeGrowthInside1LastX128  *uint256.Int
	LossGrowthInside0LastX128 *uint256.Int
	LossGrowthInside1LastX128 *uint256.Int
	GainGrowthInside0LastX128 *uint256.Int
	GainGrowthInside1LastX128 *uint256.Int
}

func newPosition() *Position {
	return &Position{
		Liquidity:                 new(uint256.Int),
		FeeGrowthInside0LastX128:  new(uint256.Int),
		FeeGrowthInside1LastX128:  new(uint256.Int),
		LossGrowthInside0LastX128: new(uint256.Int),
		LossGrowthInside1LastX128: new(uint256.Int),
		GainGrowthInside0LastX128: new(uint256.Int),
		GainGrowthInside1LastX128: new(uint256.Int),
	}
}

// clone returns a deep copy for read accessors.
func (pos *Position) clone() *Position {
	return &Position{
		Liquidity:                 pos.Liquidity.Clone(),
		FeeGrowthInside0LastX128:  pos.FeeGrowthInside0LastX128.Clone(),
		FeeGrowthInside1LastX128:  pos.FeeGrowthInside1LastX128.Clone(),
		LossGrowthInside0LastX128: pos.LossGrowthInside0LastX128.Clone(),
		LossGrowthInside1LastX128: pos.LossGrowthInside1LastX128.Clone(),
		GainGrowthInside0LastX128: pos.GainGrowthInside0LastX128.Clone(),
		GainGrowthInside1LastX128: pos.GainGrowthInside1LastX128.Clone(),
	}
}

// PositionKey computes the unique position identifier
func PositionKey(owner common.Address, tickLower, tickUpper int24, salt [32]byte) [32]byte {
	h := blake3.New()
	h.Write(owner.Bytes())

	var tickBytes [8]byte
	binary.BigEndian.PutUint32(tickBytes[:4], uint32(tickLower))
	binary.BigEndian.PutUint32(tickBytes[4:], uint32(tickUpper))
	h.Write(tickBytes[:])
	h.Write(salt[:])

	var key [32]byte
	h.Digest().Read(key[:])
	return key
}

// getPosition returns the position for the key, creating it if absent.
func (p *Pool) getPosition(key [32]byte) *Position {
	pos, ok := p.positions[key]
	if !ok {
		pos = newPosition()
		p.positions[key] = pos
	}
	return pos
}

// update applies a liquidity delta and settles fees against the growth-inside
// snapshots. Owed amounts accrue on the liquidity held before the delta. A
// zero delta on an empty position is rejected since there is nothing to poke.
func (pos *Position) update(liquidityDelta *big.Int, feeGrowthInside0X128, feeGrowthInside1X128 *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	if liquidityDelta.Sign() == 0 && pos.Liquidity.IsZero() {
		return nil, nil, ErrEmptyPositionPoke
	}

	liquidityNext, err := swapmath.AddDelta(pos.Liquidity, liquidityDelta)
	if err != nil {
		return nil, nil, err
	}

	feesOwed0 := growthOwed(feeGrowthInside0X128, pos.FeeGrowthInside0LastX128, pos.Liquidity)
	feesOwed1 := growthOwed(feeGrowthInside1X128, pos.FeeGrowthInside1LastX128, pos.Liquidity)

	pos.Liquidity = liquidityNext
	pos.FeeGrowthInside0LastX128.Set(feeGrowthInside0X128)
	pos.FeeGrowthInside1LastX128.Set(feeGrowthInside1X128)
	return feesOwed0, feesOwed1, nil
}

// updateLossAndGainGrowth settles the perpetual growth streams against their
// snapshots and refreshes them. Must run before update so owed amounts accrue
// on the same pre-delta liquidity as fees.
func (pos *Position) updateLossAndGainGrowth(lossInside0, lossInside1, gainInside0, gainInside1 *uint256.Int) (lossOwed0, lossOwed1, gainOwed0, gainOwed1 *uint256.Int) {
	lossOwed0 = growthOwed(lossInside0, pos.LossGrowthInside0LastX128, pos.Liquidity)
	lossOwed1 = growthOwed(lossInside1, pos.LossGrowthInside1LastX128, pos.Liquidity)
	gainOwed0 = growthOwed(gainInside0, pos.GainGrowthInside0LastX128, pos.Liquidity)
	gainOwed1 = growthOwed(gainInside1, pos.GainGrowthInside1LastX128, pos.Liquidity)

	pos.LossGrowthInside0LastX128.Set(lossInside0)
	pos.LossGrowthInside1LastX128.Set(lossInside1)
	pos.GainGrowthInside0LastX128.Set(gainInside0)
	pos.GainGrowthInside1LastX128.Set(gainInside1)
	return lossOwed0, lossOwed1, gainOwed0, gainOwed1
}

// growthOwed converts a growth-inside delta into a token amount for the given
// liquidity. The subtraction wraps mod 2^256 so snapshots taken before an
// accumulator wrapped still measure the growth since.
func growthOwed(growthInsideX128, growthInsideLastX128, liquidity *uint256.Int) *uint256.Int {
	delta := new(uint256.Int).Sub(growthInsideX128, growthInsideLastX128)
	owed, _ := new(uint256.Int).MulDivOverflow(delta, liquidity, swapmath.Q128)
	return owed
}
