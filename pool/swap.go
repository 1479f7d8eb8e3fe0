// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/luxfi/clamm/swapmath"
)

// swapState is the working copy a swap mutates. Nothing touches the pool
// until the whole swap has succeeded, so any error leaves the pool unchanged.
type swapState struct {
	amountSpecifiedRemaining *big.Int
	amountCalculated         *big.Int
	sqrtPriceX96             *uint256.Int
	tick                     int24
	// Fee growth accumulated for the input token during this swap
	feeGrowthGlobalX128 *uint256.Int
	liquidity           *uint256.Int
	// Protocol fees skimmed during this swap, in the input token
	protocolFee *uint256.Int
}

// stepComputations holds the per-step results of the swap loop.
type stepComputations struct {
	sqrtPriceStartX96 *uint256.Int
	tickNext          int24
	initialized       bool
	sqrtPriceNextX96  *uint256.Int
	amountIn          *uint256.Int
	amountOut         *uint256.Int
	feeAmount         *uint256.Int
}

// pendingCross records an initialized tick the swap stepped over together
// with the fee growth values in effect at the moment of crossing. Crossings
// apply to tick state only when the swap commits.
type pendingCross struct {
	tick                 int24
	feeGrowthGlobal0X128 *uint256.Int
	feeGrowthGlobal1X128 *uint256.Int
}

// Swap executes a swap against the pool and returns the caller's balance
// delta, the LP fee rate that was applied, and the protocol fee skimmed in
// the input token. A negative specified amount swaps an exact input, a
// positive amount an exact output. The swap stops early when the price
// reaches SqrtPriceLimitX96, leaving the specified amount partially filled.
func (p *Pool) Swap(params SwapParams, tickSpacing int24) (BalanceDelta, uint24, *uint256.Int, error) {
	if !p.initialized() {
		return BalanceDelta{}, 0, nil, ErrPoolNotInitialized
	}
	if tickSpacing < MinTickSpacing || tickSpacing > MaxTickSpacing {
		return BalanceDelta{}, 0, nil, ErrInvalidTickSpacing
	}

	lpFee := p.slot0.LPFee
	if params.LPFeeOverride&LPFeeOverrideFlag != 0 {
		lpFee = params.LPFeeOverride &^ LPFeeOverrideFlag
		if lpFee > LPFeeMax {
			return BalanceDelta{}, 0, nil, ErrFeeTooLarge
		}
	}

	if params.AmountSpecified == nil || params.AmountSpecified.Sign() == 0 {
		return ZeroBalanceDelta(), lpFee, new(uint256.Int), nil
	}
	exactInput := params.AmountSpecified.Sign() < 0

	// A 100% fee swallows any input, so no exact output can ever be met.
	if lpFee == LPFeeMax && !exactInput {
		return BalanceDelta{}, 0, nil, ErrInvalidFeeForExactOut
	}

	limit := params.SqrtPriceLimitX96
	if limit == nil {
		return BalanceDelta{}, 0, nil, ErrPriceLimitOutOfBounds
	}
	if params.ZeroForOne {
		if !limit.Lt(p.slot0.SqrtPriceX96) {
			return BalanceDelta{}, 0, nil, ErrPriceLimitAlreadyExceeded
		}
		if !swapmath.MinSqrtRatio.Lt(limit) {
			return BalanceDelta{}, 0, nil, ErrPriceLimitOutOfBounds
		}
	} else {
		if !limit.Gt(p.slot0.SqrtPriceX96) {
			return BalanceDelta{}, 0, nil, ErrPriceLimitAlreadyExceeded
		}
		if !limit.Lt(swapmath.MaxSqrtRatio) {
			return BalanceDelta{}, 0, nil, ErrPriceLimitOutOfBounds
		}
	}

	state := swapState{
		amountSpecifiedRemaining: new(big.Int).Set(params.AmountSpecified),
		amountCalculated:         new(big.Int),
		sqrtPriceX96:             p.slot0.SqrtPriceX96.Clone(),
		tick:                     p.slot0.Tick,
		liquidity:                p.liquidity.Clone(),
		protocolFee:              new(uint256.Int),
	}
	if params.ZeroForOne {
		state.feeGrowthGlobalX128 = p.feeGrowthGlobal0X128.Clone()
	} else {
		state.feeGrowthGlobalX128 = p.feeGrowthGlobal1X128.Clone()
	}
	protocolFeeRate := p.slot0.ProtocolFee

	var crossings []pendingCross

	for state.amountSpecifiedRemaining.Sign() != 0 && !state.sqrtPriceX96.Eq(limit) {
		var step stepComputations
		step.sqrtPriceStartX96 = state.sqrtPriceX96.Clone()

		step.tickNext, step.initialized = p.bitmap.nextInitializedTickWithinOneWord(state.tick, tickSpacing, params.ZeroForOne)
		if step.tickNext < swapmath.MinTick {
			step.tickNext = swapmath.MinTick
		} else if step.tickNext > swapmath.MaxTick {
			step.tickNext = swapmath.MaxTick
		}

		var err error
		step.sqrtPriceNextX96, err = swapmath.GetSqrtRatioAtTick(step.tickNext)
		if err != nil {
			return BalanceDelta{}, 0, nil, err
		}

		// Swap no further than the nearer of the next tick and the limit.
		target := step.sqrtPriceNextX96
		if params.ZeroForOne {
			if target.Lt(limit) {
				target = limit
			}
		} else {
			if target.Gt(limit) {
				target = limit
			}
		}

		state.sqrtPriceX96, step.amountIn, step.amountOut, step.feeAmount, err = swapmath.ComputeSwapStep(
			state.sqrtPriceX96, target, state.liquidity, state.amountSpecifiedRemaining, lpFee)
		if err != nil {
			return BalanceDelta{}, 0, nil, err
		}

		if exactInput {
			consumed := new(big.Int).Add(step.amountIn.ToBig(), step.feeAmount.ToBig())
			state.amountSpecifiedRemaining.Add(state.amountSpecifiedRemaining, consumed)
			state.amountCalculated.Add(state.amountCalculated, step.amountOut.ToBig())
		} else {
			state.amountSpecifiedRemaining.Sub(state.amountSpecifiedRemaining, step.amountOut.ToBig())
			consumed := new(big.Int).Add(step.amountIn.ToBig(), step.feeAmount.ToBig())
			state.amountCalculated.Sub(state.amountCalculated, consumed)
		}

		// The protocol takes its cut off the step fee before the rest
		// accrues to in-range liquidity.
		if protocolFeeRate > 0 && !step.feeAmount.IsZero() {
			skim, err := swapmath.MulDiv(step.feeAmount, uint256.NewInt(uint64(protocolFeeRate)), uint256.NewInt(uint64(swapmath.FeeDenominator)))
			if err != nil {
				return BalanceDelta{}, 0, nil, err
			}
			step.feeAmount.Sub(step.feeAmount, skim)
			state.protocolFee.Add(state.protocolFee, skim)
		}
		if !step.feeAmount.IsZero() {
			if !state.liquidity.IsZero() {
				quotient, err := swapmath.MulDiv(step.feeAmount, swapmath.Q128, state.liquidity)
				if err != nil {
					return BalanceDelta{}, 0, nil, err
				}
				state.feeGrowthGlobalX128.Add(state.feeGrowthGlobalX128, quotient)
			} else {
				// No liquidity to attribute the fee to.
				state.protocolFee.Add(state.protocolFee, step.feeAmount)
			}
		}

		if state.sqrtPriceX96.Eq(step.sqrtPriceNextX96) {
			// Reached the next tick boundary.
			if step.initialized {
				cross := pendingCross{tick: step.tickNext}
				if params.ZeroForOne {
					cross.feeGrowthGlobal0X128 = state.feeGrowthGlobalX128.Clone()
					cross.feeGrowthGlobal1X128 = p.feeGrowthGlobal1X128.Clone()
				} else {
					cross.feeGrowthGlobal0X128 = p.feeGrowthGlobal0X128.Clone()
					cross.feeGrowthGlobal1X128 = state.feeGrowthGlobalX128.Clone()
				}
				crossings = append(crossings, cross)

				liquidityNet := new(big.Int).Set(p.ticks[step.tickNext].LiquidityNet)
				if params.ZeroForOne {
					liquidityNet.Neg(liquidityNet)
				}
				state.liquidity, err = swapmath.AddDelta(state.liquidity, liquidityNet)
				if err != nil {
					return BalanceDelta{}, 0, nil, err
				}
			}
			if params.ZeroForOne {
				state.tick = step.tickNext - 1
			} else {
				state.tick = step.tickNext
			}
		} else if !state.sqrtPriceX96.Eq(step.sqrtPriceStartX96) {
			state.tick, err = swapmath.GetTickAtSqrtRatio(state.sqrtPriceX96)
			if err != nil {
				return BalanceDelta{}, 0, nil, err
			}
		}
	}

	// Commit. From here on nothing can fail.
	for _, cross := range crossings {
		p.crossTick(cross.tick, cross.feeGrowthGlobal0X128, cross.feeGrowthGlobal1X128)
	}
	p.slot0.SqrtPriceX96 = state.sqrtPriceX96
	p.slot0.Tick = state.tick
	p.liquidity = state.liquidity
	if params.ZeroForOne {
		p.feeGrowthGlobal0X128 = state.feeGrowthGlobalX128
		p.protocolFees0.Add(p.protocolFees0, state.protocolFee)
	} else {
		p.feeGrowthGlobal1X128 = state.feeGrowthGlobalX128
		p.protocolFees1.Add(p.protocolFees1, state.protocolFee)
	}

	specifiedDelta := new(big.Int).Sub(state.amountSpecifiedRemaining, params.AmountSpecified)
	calculatedDelta := new(big.Int).Neg(state.amountCalculated)

	var delta BalanceDelta
	if params.ZeroForOne == exactInput {
		delta = BalanceDelta{Amount0: specifiedDelta, Amount1: calculatedDelta}
	} else {
		delta = BalanceDelta{Amount0: calculatedDelta, Amount1: specifiedDelta}
	}
	return delta, lpFee, state.protocolFee, nil
}
