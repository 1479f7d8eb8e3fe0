// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/luxfi/clamm/swapmath"
)

// ModifyLiquidity adds or removes position liquidity, or with a zero delta
// pokes the position to settle pending fees. It returns the caller's total
// balance delta and the settlement portion separately. The settlement covers
// swap fees plus perpetual loss payouts minus perpetual gain charges accrued
// since the last position update.
//
// All validation runs before any state is touched, so a failed call leaves
// the pool unchanged.
func (p *Pool) ModifyLiquidity(params ModifyLiquidityParams, tickSpacing int24) (BalanceDelta, BalanceDelta, error) {
	if !p.initialized() {
		return BalanceDelta{}, BalanceDelta{}, ErrPoolNotInitialized
	}
	if tickSpacing < MinTickSpacing || tickSpacing > MaxTickSpacing {
		return BalanceDelta{}, BalanceDelta{}, ErrInvalidTickSpacing
	}
	if err := checkTicks(params.TickLower, params.TickUpper); err != nil {
		return BalanceDelta{}, BalanceDelta{}, err
	}
	if params.TickLower%tickSpacing != 0 || params.TickUpper%tickSpacing != 0 {
		return BalanceDelta{}, BalanceDelta{}, ErrTickNotAligned
	}
	delta := params.LiquidityDelta
	if delta == nil {
		return BalanceDelta{}, BalanceDelta{}, ErrInvalidLiquidityDelta
	}

	key := PositionKey(params.Owner, params.TickLower, params.TickUpper, params.Salt)

	// Validate every mutation up front.
	positionLiquidity := new(uint256.Int)
	if pos := p.positions[key]; pos != nil {
		positionLiquidity.Set(pos.Liquidity)
	}
	if delta.Sign() == 0 && positionLiquidity.IsZero() {
		return BalanceDelta{}, BalanceDelta{}, ErrEmptyPositionPoke
	}
	if _, err := swapmath.AddDelta(positionLiquidity, delta); err != nil {
		return BalanceDelta{}, BalanceDelta{}, err
	}

	maxLiquidity := TickSpacingToMaxLiquidityPerTick(tickSpacing)
	if delta.Sign() != 0 {
		for _, tick := range [2]int24{params.TickLower, params.TickUpper} {
			gross := new(uint256.Int)
			if info := p.ticks[tick]; info != nil {
				gross.Set(info.LiquidityGross)
			}
			after, err := swapmath.AddDelta(gross, delta)
			if err != nil {
				return BalanceDelta{}, BalanceDelta{}, err
			}
			if delta.Sign() > 0 && after.Gt(maxLiquidity) {
				return BalanceDelta{}, BalanceDelta{}, ErrTickLiquidityOverflow
			}
		}
		if p.slot0.Tick >= params.TickLower && p.slot0.Tick < params.TickUpper {
			if _, err := swapmath.AddDelta(p.liquidity, delta); err != nil {
				return BalanceDelta{}, BalanceDelta{}, err
			}
		}
	}

	// Apply tick updates and flip the bitmap for ticks whose liquidity
	// appeared or vanished.
	var flippedLower, flippedUpper bool
	if delta.Sign() != 0 {
		var err error
		flippedLower, err = p.updateTick(params.TickLower, delta, false, maxLiquidity)
		if err != nil {
			return BalanceDelta{}, BalanceDelta{}, err
		}
		flippedUpper, err = p.updateTick(params.TickUpper, delta, true, maxLiquidity)
		if err != nil {
			return BalanceDelta{}, BalanceDelta{}, err
		}
		if flippedLower {
			if err := p.bitmap.flipTick(params.TickLower, tickSpacing); err != nil {
				return BalanceDelta{}, BalanceDelta{}, err
			}
		}
		if flippedUpper {
			if err := p.bitmap.flipTick(params.TickUpper, tickSpacing); err != nil {
				return BalanceDelta{}, BalanceDelta{}, err
			}
		}
	}

	// Settle the position against the growth accumulators. The loss and gain
	// streams settle first so every owed amount accrues on the liquidity held
	// before this delta.
	gi := p.growthInsideRange(params.TickLower, params.TickUpper)
	pos := p.getPosition(key)
	lossOwed0, lossOwed1, gainOwed0, gainOwed1 := pos.updateLossAndGainGrowth(gi.loss0, gi.loss1, gi.gain0, gi.gain1)
	feesOwed0, feesOwed1, err := pos.update(delta, gi.fee0, gi.fee1)
	if err != nil {
		return BalanceDelta{}, BalanceDelta{}, err
	}

	if delta.Sign() < 0 {
		if flippedLower {
			p.clearTick(params.TickLower)
		}
		if flippedUpper {
			p.clearTick(params.TickUpper)
		}
	}

	owed0 := new(big.Int).Add(feesOwed0.ToBig(), lossOwed0.ToBig())
	owed0.Sub(owed0, gainOwed0.ToBig())
	owed1 := new(big.Int).Add(feesOwed1.ToBig(), lossOwed1.ToBig())
	owed1.Sub(owed1, gainOwed1.ToBig())
	feesOwed := BalanceDelta{
		Amount0: owed0.Neg(owed0),
		Amount1: owed1.Neg(owed1),
	}

	principal, err := p.principalDelta(params.TickLower, params.TickUpper, delta)
	if err != nil {
		return BalanceDelta{}, BalanceDelta{}, err
	}

	return principal.Add(feesOwed), feesOwed, nil
}

// principalDelta computes the token amounts corresponding to a liquidity
// delta at the current price and moves the active liquidity when the range
// covers the current tick.
func (p *Pool) principalDelta(tickLower, tickUpper int24, delta *big.Int) (BalanceDelta, error) {
	if delta.Sign() == 0 {
		return ZeroBalanceDelta(), nil
	}

	sqrtLower, err := swapmath.GetSqrtRatioAtTick(tickLower)
	if err != nil {
		return BalanceDelta{}, err
	}
	sqrtUpper, err := swapmath.GetSqrtRatioAtTick(tickUpper)
	if err != nil {
		return BalanceDelta{}, err
	}

	amount0 := new(big.Int)
	amount1 := new(big.Int)
	switch {
	case p.slot0.Tick < tickLower:
		// Range above the current price: all token0.
		amount0, err = amount0DeltaSigned(sqrtLower, sqrtUpper, delta)
		if err != nil {
			return BalanceDelta{}, err
		}
	case p.slot0.Tick < tickUpper:
		// Range straddles the current price.
		amount0, err = amount0DeltaSigned(p.slot0.SqrtPriceX96, sqrtUpper, delta)
		if err != nil {
			return BalanceDelta{}, err
		}
		amount1, err = amount1DeltaSigned(sqrtLower, p.slot0.SqrtPriceX96, delta)
		if err != nil {
			return BalanceDelta{}, err
		}
		p.liquidity, err = swapmath.AddDelta(p.liquidity, delta)
		if err != nil {
			return BalanceDelta{}, err
		}
	default:
		// Range below the current price: all token1.
		amount1, err = amount1DeltaSigned(sqrtLower, sqrtUpper, delta)
		if err != nil {
			return BalanceDelta{}, err
		}
	}

	return BalanceDelta{Amount0: amount0, Amount1: amount1}, nil
}

// amount0DeltaSigned returns the token0 amount for a signed liquidity delta,
// rounding against the liquidity provider: up when adding, down when
// removing.
func amount0DeltaSigned(sqrtRatioAX96, sqrtRatioBX96 *uint256.Int, liquidityDelta *big.Int) (*big.Int, error) {
	liquidity, overflow := uint256.FromBig(new(big.Int).Abs(liquidityDelta))
	if overflow {
		return nil, ErrInvalidLiquidityDelta
	}
	if liquidityDelta.Sign() < 0 {
		amount, err := swapmath.GetAmount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity, false)
		if err != nil {
			return nil, err
		}
		return new(big.Int).Neg(amount.ToBig()), nil
	}
	amount, err := swapmath.GetAmount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity, true)
	if err != nil {
		return nil, err
	}
	return amount.ToBig(), nil
}

// amount1DeltaSigned mirrors amount0DeltaSigned for token1.
func amount1DeltaSigned(sqrtRatioAX96, sqrtRatioBX96 *uint256.Int, liquidityDelta *big.Int) (*big.Int, error) {
	liquidity, overflow := uint256.FromBig(new(big.Int).Abs(liquidityDelta))
	if overflow {
		return nil, ErrInvalidLiquidityDelta
	}
	if liquidityDelta.Sign() < 0 {
		amount, err := swapmath.GetAmount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity, false)
		if err != nil {
			return nil, err
		}
		return new(big.Int).Neg(amount.ToBig()), nil
	}
	amount, err := swapmath.GetAmount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity, true)
	if err != nil {
		return nil, err
	}
	return amount.ToBig(), nil
}
