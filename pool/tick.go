// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/luxfi/clamm/swapmath"
)

// TickInfo tracks per-tick liquidity and the growth accumulators observed on
// the far side of the tick. Growth-outside values follow the Uniswap v3
// convention: they are only meaningful relative to the current tick and flip
// interpretation each time the tick is crossed.
type TickInfo struct {
	// Total position liquidity referencing this tick as a boundary
	LiquidityGross *uint256.Int
	// Portion of LiquidityGross reserved by open perpetual positions.
	// Always <= LiquidityGross.
	BlockedLiquidityGross *uint256.Int
	// Net liquidity change when the tick is crossed left to right
	LiquidityNet *big.Int

	FeeGrowthOutside0X128  *uint256.Int
	FeeGrowthOutside1X128  *uint256.Int
	LossGrowthOutside0X128 *uint256.Int
	LossGrowthOutside1X128 *uint256.Int
	GainGrowthOutside0X128 *uint256.Int
	GainGrowthOutside1X128 *uint256.Int
}

func newTickInfo() *TickInfo {
	return &TickInfo{
		LiquidityGross:         new(uint256.Int),
		BlockedLiquidityGross:  new(uint256.Int),
		LiquidityNet:           new(big.Int),
		FeeGrowthOutside0X128:  new(uint256.Int),
		FeeGrowthOutside1X128:  new(uint256.Int),
		LossGrowthOutside0X128: new(uint256.Int),
		LossGrowthOutside1X128: new(uint256.Int),
		GainGrowthOutside0X128: new(uint256.Int),
		GainGrowthOutside1X128: new(uint256.Int),
	}
}

// clone returns a deep copy for read accessors.
func (ti *TickInfo) clone() *TickInfo {
	return &TickInfo{
		LiquidityGross:         ti.LiquidityGross.Clone(),
		BlockedLiquidityGross:  ti.BlockedLiquidityGross.Clone(),
		LiquidityNet:           new(big.Int).Set(ti.LiquidityNet),
		FeeGrowthOutside0X128:  ti.FeeGrowthOutside0X128.Clone(),
		FeeGrowthOutside1X128:  ti.FeeGrowthOutside1X128.Clone(),
		LossGrowthOutside0X128: ti.LossGrowthOutside0X128.Clone(),
		LossGrowthOutside1X128: ti.LossGrowthOutside1X128.Clone(),
		GainGrowthOutside0X128: ti.GainGrowthOutside0X128.Clone(),
		GainGrowthOutside1X128: ti.GainGrowthOutside1X128.Clone(),
	}
}

// growthInside carries the six growth accumulators scoped to a tick range.
type growthInside struct {
	fee0  *uint256.Int
	fee1  *uint256.Int
	loss0 *uint256.Int
	loss1 *uint256.Int
	gain0 *uint256.Int
	gain1 *uint256.Int
}

// updateTick applies a liquidity delta to a tick boundary and reports whether
// the tick flipped between initialized and uninitialized. New ticks at or
// below the current tick seed their growth-outside accumulators from the
// global values so that growth-inside arithmetic stays consistent.
func (p *Pool) updateTick(tick int24, liquidityDelta *big.Int, upper bool, maxLiquidity *uint256.Int) (bool, error) {
	info := p.ticks[tick]

	grossBefore := new(uint256.Int)
	if info != nil {
		grossBefore.Set(info.LiquidityGross)
	}

	grossAfter, err := swapmath.AddDelta(grossBefore, liquidityDelta)
	if err != nil {
		return false, err
	}
	if liquidityDelta.Sign() > 0 && grossAfter.Gt(maxLiquidity) {
		return false, ErrTickLiquidityOverflow
	}

	flipped := grossAfter.IsZero() != grossBefore.IsZero()

	if info == nil {
		info = newTickInfo()
		p.ticks[tick] = info
	}

	if grossBefore.IsZero() && tick <= p.slot0.Tick {
		// By convention all growth before initialization happened below.
		info.FeeGrowthOutside0X128.Set(p.feeGrowthGlobal0X128)
		info.FeeGrowthOutside1X128.Set(p.feeGrowthGlobal1X128)
		info.LossGrowthOutside0X128.Set(p.lossGrowthGlobal0X128)
		info.LossGrowthOutside1X128.Set(p.lossGrowthGlobal1X128)
		info.GainGrowthOutside0X128.Set(p.gainGrowthGlobal0X128)
		info.GainGrowthOutside1X128.Set(p.gainGrowthGlobal1X128)
	}

	info.LiquidityGross = grossAfter
	if upper {
		info.LiquidityNet.Sub(info.LiquidityNet, liquidityDelta)
	} else {
		info.LiquidityNet.Add(info.LiquidityNet, liquidityDelta)
	}
	return flipped, nil
}

// clearTick removes all stored state for a tick.
func (p *Pool) clearTick(tick int24) {
	delete(p.ticks, tick)
}

// crossTick transitions a tick as the price moves across it, flipping every
// growth-outside accumulator to the other side, and returns a copy of the
// tick's net liquidity. The fee growth globals are passed in because swaps
// accumulate fees ahead of committing them to the pool.
func (p *Pool) crossTick(tick int24, feeGrowthGlobal0X128, feeGrowthGlobal1X128 *uint256.Int) *big.Int {
	info := p.ticks[tick]
	if info == nil {
		return new(big.Int)
	}

	info.FeeGrowthOutside0X128.Sub(feeGrowthGlobal0X128, info.FeeGrowthOutside0X128)
	info.FeeGrowthOutside1X128.Sub(feeGrowthGlobal1X128, info.FeeGrowthOutside1X128)
	info.LossGrowthOutside0X128.Sub(p.lossGrowthGlobal0X128, info.LossGrowthOutside0X128)
	info.LossGrowthOutside1X128.Sub(p.lossGrowthGlobal1X128, info.LossGrowthOutside1X128)
	info.GainGrowthOutside0X128.Sub(p.gainGrowthGlobal0X128, info.GainGrowthOutside0X128)
	info.GainGrowthOutside1X128.Sub(p.gainGrowthGlobal1X128, info.GainGrowthOutside1X128)

	return new(big.Int).Set(info.LiquidityNet)
}

// growthInsideRange computes the six growth accumulators scoped to
// [tickLower, tickUpper) relative to the current tick. All subtraction is
// wrapping mod 2^256, matching the accumulator arithmetic.
func (p *Pool) growthInsideRange(tickLower, tickUpper int24) growthInside {
	lower := p.ticks[tickLower]
	if lower == nil {
		lower = newTickInfo()
	}
	upper := p.ticks[tickUpper]
	if upper == nil {
		upper = newTickInfo()
	}

	gi := growthInside{
		fee0:  new(uint256.Int),
		fee1:  new(uint256.Int),
		loss0: new(uint256.Int),
		loss1: new(uint256.Int),
		gain0: new(uint256.Int),
		gain1: new(uint256.Int),
	}

	switch {
	case p.slot0.Tick < tickLower:
		// Range is entirely above the current price.
		gi.fee0.Sub(lower.FeeGrowthOutside0X128, upper.FeeGrowthOutside0X128)
		gi.fee1.Sub(lower.FeeGrowthOutside1X128, upper.FeeGrowthOutside1X128)
		gi.loss0.Sub(lower.LossGrowthOutside0X128, upper.LossGrowthOutside0X128)
		gi.loss1.Sub(lower.LossGrowthOutside1X128, upper.LossGrowthOutside1X128)
		gi.gain0.Sub(lower.GainGrowthOutside0X128, upper.GainGrowthOutside0X128)
		gi.gain1.Sub(lower.GainGrowthOutside1X128, upper.GainGrowthOutside1X128)
	case p.slot0.Tick >= tickUpper:
		// Range is entirely below the current price.
		gi.fee0.Sub(upper.FeeGrowthOutside0X128, lower.FeeGrowthOutside0X128)
		gi.fee1.Sub(upper.FeeGrowthOutside1X128, lower.FeeGrowthOutside1X128)
		gi.loss0.Sub(upper.LossGrowthOutside0X128, lower.LossGrowthOutside0X128)
		gi.loss1.Sub(upper.LossGrowthOutside1X128, lower.LossGrowthOutside1X128)
		gi.gain0.Sub(upper.GainGrowthOutside0X128, lower.GainGrowthOutside0X128)
		gi.gain1.Sub(upper.GainGrowthOutside1X128, lower.GainGrowthOutside1X128)
	default:
		// Price is inside the range.
		gi.fee0.Sub(p.feeGrowthGlobal0X128, lower.FeeGrowthOutside0X128)
		gi.fee0.Sub(gi.fee0, upper.FeeGrowthOutside0X128)
		gi.fee1.Sub(p.feeGrowthGlobal1X128, lower.FeeGrowthOutside1X128)
		gi.fee1.Sub(gi.fee1, upper.FeeGrowthOutside1X128)
		gi.loss0.Sub(p.lossGrowthGlobal0X128, lower.LossGrowthOutside0X128)
		gi.loss0.Sub(gi.loss0, upper.LossGrowthOutside0X128)
		gi.loss1.Sub(p.lossGrowthGlobal1X128, lower.LossGrowthOutside1X128)
		gi.loss1.Sub(gi.loss1, upper.LossGrowthOutside1X128)
		gi.gain0.Sub(p.gainGrowthGlobal0X128, lower.GainGrowthOutside0X128)
		gi.gain0.Sub(gi.gain0, upper.GainGrowthOutside0X128)
		gi.gain1.Sub(p.gainGrowthGlobal1X128, lower.GainGrowthOutside1X128)
		gi.gain1.Sub(gi.gain1, upper.GainGrowthOutside1X128)
	}
	return gi
}

// TickSpacingToMaxLiquidityPerTick returns the maximum liquidity one tick can
// reference so that summing every usable tick cannot overflow 128 bits.
func TickSpacingToMaxLiquidityPerTick(tickSpacing int24) *uint256.Int {
	minTick := (swapmath.MinTick / tickSpacing) * tickSpacing
	maxTick := (swapmath.MaxTick / tickSpacing) * tickSpacing
	numTicks := uint64((maxTick-minTick)/tickSpacing) + 1
	return new(uint256.Int).Div(swapmath.MaxUint128, uint256.NewInt(numTicks))
}
