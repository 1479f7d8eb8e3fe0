// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/luxfi/clamm/swapmath"
)

// currentTickRange returns the one-spacing tick range containing the current
// tick.
func (p *Pool) currentTickRange(tickSpacing int24) (int24, int24) {
	lower := compress(p.slot0.Tick, tickSpacing) * tickSpacing
	return lower, lower + tickSpacing
}

// BlockLiquidity reserves liquidity on both boundary ticks of the range
// containing the current price, backing a newly opened perpetual position.
// Blocked liquidity stays in the pool and keeps earning fees; it only limits
// how much more can be blocked. Returns the tick range that was used.
func (p *Pool) BlockLiquidity(liquidityDelta *big.Int, tickSpacing int24) (int24, int24, error) {
	if !p.initialized() {
		return 0, 0, ErrPoolNotInitialized
	}
	if tickSpacing < MinTickSpacing || tickSpacing > MaxTickSpacing {
		return 0, 0, ErrInvalidTickSpacing
	}
	if liquidityDelta == nil || liquidityDelta.Sign() <= 0 {
		return 0, 0, ErrInvalidLiquidityDelta
	}
	delta, overflow := uint256.FromBig(liquidityDelta)
	if overflow {
		return 0, 0, ErrInvalidLiquidityDelta
	}

	tickLower, tickUpper := p.currentTickRange(tickSpacing)
	if err := checkTicks(tickLower, tickUpper); err != nil {
		return 0, 0, err
	}

	// Verify capacity on both ticks before touching either.
	for _, tick := range [2]int24{tickLower, tickUpper} {
		info := p.ticks[tick]
		available := new(uint256.Int)
		if info != nil {
			available.Sub(info.LiquidityGross, info.BlockedLiquidityGross)
		}
		if available.Lt(delta) {
			return 0, 0, ErrInsufficientAvailableLiquidity
		}
	}
	for _, tick := range [2]int24{tickLower, tickUpper} {
		info := p.ticks[tick]
		info.BlockedLiquidityGross.Add(info.BlockedLiquidityGross, delta)
	}
	return tickLower, tickUpper, nil
}

// UnblockLiquidity releases previously blocked liquidity on both boundary
// ticks of the given range. The delta is negative, mirroring the sign
// convention of position closes.
func (p *Pool) UnblockLiquidity(liquidityDelta *big.Int, tickLower, tickUpper int24) error {
	if !p.initialized() {
		return ErrPoolNotInitialized
	}
	if liquidityDelta == nil || liquidityDelta.Sign() >= 0 {
		return ErrInvalidLiquidityDelta
	}
	if err := checkTicks(tickLower, tickUpper); err != nil {
		return err
	}
	release, overflow := uint256.FromBig(new(big.Int).Abs(liquidityDelta))
	if overflow {
		return ErrInvalidLiquidityDelta
	}

	for _, tick := range [2]int24{tickLower, tickUpper} {
		info := p.ticks[tick]
		blocked := new(uint256.Int)
		if info != nil {
			blocked.Set(info.BlockedLiquidityGross)
		}
		if blocked.Lt(release) {
			return ErrInsufficientBlockedLiquidity
		}
	}
	for _, tick := range [2]int24{tickLower, tickUpper} {
		info := p.ticks[tick]
		info.BlockedLiquidityGross.Sub(info.BlockedLiquidityGross, release)
	}
	return nil
}

// CalculateLiquidityDelta converts a position size in token terms into the
// liquidity needed to back it over the tick range containing the current
// price. The result covers the position whichever single token it settles
// in, so it is the larger of the two per-token liquidity requirements.
func (p *Pool) CalculateLiquidityDelta(positionSize *uint256.Int, tickSpacing int24) (*uint256.Int, error) {
	if !p.initialized() {
		return nil, ErrPoolNotInitialized
	}
	if tickSpacing < MinTickSpacing || tickSpacing > MaxTickSpacing {
		return nil, ErrInvalidTickSpacing
	}
	if positionSize == nil || positionSize.IsZero() {
		return nil, ErrInvalidPositionSize
	}

	tickLower, tickUpper := p.currentTickRange(tickSpacing)
	if err := checkTicks(tickLower, tickUpper); err != nil {
		return nil, err
	}
	return p.requiredLiquidity(positionSize, positionSize, tickLower, tickUpper)
}

// requiredLiquidity returns the liquidity needed over [tickLower, tickUpper]
// to cover amount0 of token0 or amount1 of token1, whichever needs more.
func (p *Pool) requiredLiquidity(amount0, amount1 *uint256.Int, tickLower, tickUpper int24) (*uint256.Int, error) {
	sqrtLower, err := swapmath.GetSqrtRatioAtTick(tickLower)
	if err != nil {
		return nil, err
	}
	sqrtUpper, err := swapmath.GetSqrtRatioAtTick(tickUpper)
	if err != nil {
		return nil, err
	}

	required := new(uint256.Int)
	if amount0 != nil && !amount0.IsZero() {
		liquidity0, err := swapmath.LiquidityForAmount0(sqrtLower, sqrtUpper, amount0)
		if err != nil {
			return nil, err
		}
		if liquidity0.Gt(required) {
			required.Set(liquidity0)
		}
	}
	if amount1 != nil && !amount1.IsZero() {
		liquidity1, err := swapmath.LiquidityForAmount1(sqrtLower, sqrtUpper, amount1)
		if err != nil {
			return nil, err
		}
		if liquidity1.Gt(required) {
			required.Set(liquidity1)
		}
	}
	return required, nil
}

// UpdateFromTraderProfit pays out trader profit by debiting gross liquidity
// from the boundary ticks of the range that backed the position. The debit
// prefers the tick on the side the price is not on, since that liquidity is
// not currently quoting; with the price inside the range the debit splits
// proportionally to each tick's gross liquidity. Net liquidity and the tick
// bitmap deliberately stay untouched.
func (p *Pool) UpdateFromTraderProfit(profit0, profit1 *uint256.Int, tickLower, tickUpper int24) error {
	if !p.initialized() {
		return ErrPoolNotInitialized
	}
	if err := checkTicks(tickLower, tickUpper); err != nil {
		return err
	}

	required, err := p.requiredLiquidity(profit0, profit1, tickLower, tickUpper)
	if err != nil {
		return err
	}
	if required.IsZero() {
		return nil
	}

	grossLower := new(uint256.Int)
	if info := p.ticks[tickLower]; info != nil {
		grossLower.Set(info.LiquidityGross)
	}
	grossUpper := new(uint256.Int)
	if info := p.ticks[tickUpper]; info != nil {
		grossUpper.Set(info.LiquidityGross)
	}
	total := new(uint256.Int).Add(grossLower, grossUpper)
	if total.Lt(required) {
		return ErrInsufficientAvailableLiquidity
	}

	debitLower := new(uint256.Int)
	debitUpper := new(uint256.Int)
	switch {
	case p.slot0.Tick < tickLower:
		// Price below the range: token0 side, upper tick first.
		debitUpper.Set(required)
		if debitUpper.Gt(grossUpper) {
			debitUpper.Set(grossUpper)
		}
		debitLower.Sub(required, debitUpper)
	case p.slot0.Tick >= tickUpper:
		// Price above the range: token1 side, lower tick first.
		debitLower.Set(required)
		if debitLower.Gt(grossLower) {
			debitLower.Set(grossLower)
		}
		debitUpper.Sub(required, debitLower)
	default:
		// Price inside the range: split by gross weight. The remainder
		// lands on the upper tick and cannot exceed its gross.
		debitLower, err = swapmath.MulDiv(required, grossLower, total)
		if err != nil {
			return err
		}
		debitUpper.Sub(required, debitLower)
	}

	p.debitTickGross(tickLower, debitLower)
	p.debitTickGross(tickUpper, debitUpper)
	return nil
}

// debitTickGross reduces a tick's gross liquidity and clamps its blocked
// liquidity so blocked never exceeds gross.
func (p *Pool) debitTickGross(tick int24, debit *uint256.Int) {
	if debit.IsZero() {
		return
	}
	info := p.ticks[tick]
	info.LiquidityGross.Sub(info.LiquidityGross, debit)
	if info.BlockedLiquidityGross.Gt(info.LiquidityGross) {
		info.BlockedLiquidityGross.Set(info.LiquidityGross)
	}
}

// UpdateLossGrowthOnLiquidationOrLoss distributes realized trader losses to
// the liquidity active in the range by bumping the loss growth accumulators.
func (p *Pool) UpdateLossGrowthOnLiquidationOrLoss(loss0, loss1 *uint256.Int, tickLower, tickUpper int24) error {
	return p.addRangeGrowth(loss0, loss1, tickLower, tickUpper, false)
}

// UpdateGainGrowthOnProfit charges realized trader gains to the liquidity
// active in the range by bumping the gain growth accumulators.
func (p *Pool) UpdateGainGrowthOnProfit(gain0, gain1 *uint256.Int, tickLower, tickUpper int24) error {
	return p.addRangeGrowth(gain0, gain1, tickLower, tickUpper, true)
}

// addRangeGrowth adds amount/activeLiquidity to the selected pair of global
// accumulators and bumps the growth-outside values of both boundary ticks
// directly. This is not the crossing mechanism; the bump compensates ranges
// bounded by the affected ticks. Uninitialized boundary ticks are skipped;
// they seed from globals when first used.
func (p *Pool) addRangeGrowth(amount0, amount1 *uint256.Int, tickLower, tickUpper int24, gain bool) error {
	if !p.initialized() {
		return ErrPoolNotInitialized
	}
	if err := checkTicks(tickLower, tickUpper); err != nil {
		return err
	}
	if p.liquidity.IsZero() {
		return ErrNoLiquidity
	}

	quotient0 := new(uint256.Int)
	quotient1 := new(uint256.Int)
	var err error
	if amount0 != nil && !amount0.IsZero() {
		quotient0, err = swapmath.MulDiv(amount0, swapmath.Q128, p.liquidity)
		if err != nil {
			return err
		}
	}
	if amount1 != nil && !amount1.IsZero() {
		quotient1, err = swapmath.MulDiv(amount1, swapmath.Q128, p.liquidity)
		if err != nil {
			return err
		}
	}
	if quotient0.IsZero() && quotient1.IsZero() {
		return nil
	}

	var global0, global1 *uint256.Int
	if gain {
		global0, global1 = p.gainGrowthGlobal0X128, p.gainGrowthGlobal1X128
	} else {
		global0, global1 = p.lossGrowthGlobal0X128, p.lossGrowthGlobal1X128
	}
	global0.Add(global0, quotient0)
	global1.Add(global1, quotient1)

	for _, tick := range [2]int24{tickLower, tickUpper} {
		info := p.ticks[tick]
		if info == nil {
			continue
		}
		if gain {
			info.GainGrowthOutside0X128.Add(info.GainGrowthOutside0X128, quotient0)
			info.GainGrowthOutside1X128.Add(info.GainGrowthOutside1X128, quotient1)
		} else {
			info.LossGrowthOutside0X128.Add(info.LossGrowthOutside0X128, quotient0)
			info.LossGrowthOutside1X128.Add(info.LossGrowthOutside1X128, quotient1)
		}
	}
	return nil
}
