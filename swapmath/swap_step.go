// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package swapmath

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// FeeDenominator is the pips denominator for fee rates: a fee of 3000 is
// 3000/1,000,000 = 0.30%.
const FeeDenominator = 1_000_000

var ErrAmountTooLarge = errors.New("amount exceeds 256 bits")

// ComputeSwapStep advances the price from sqrtPriceCurrentX96 toward
// sqrtPriceTargetX96, bounded by the remaining amount. amountRemaining is
// signed: negative means that much input is left to spend, positive means
// that much output is still owed. Returns the price after the step, the
// input consumed, the output produced, and the fee taken from the input.
func ComputeSwapStep(
	sqrtPriceCurrentX96, sqrtPriceTargetX96, liquidity *uint256.Int,
	amountRemaining *big.Int,
	feePips uint24,
) (sqrtPriceNextX96, amountIn, amountOut, feeAmount *uint256.Int, err error) {
	zeroForOne := !sqrtPriceCurrentX96.Lt(sqrtPriceTargetX96)
	exactIn := amountRemaining.Sign() < 0

	absRemaining, overflow := uint256.FromBig(new(big.Int).Abs(amountRemaining))
	if overflow {
		return nil, nil, nil, nil, ErrAmountTooLarge
	}

	feeComplement := new(uint256.Int)
	if uint64(feePips) < FeeDenominator {
		feeComplement.SetUint64(FeeDenominator - uint64(feePips))
	}

	if exactIn {
		amountRemainingLessFee, ferr := MulDiv(absRemaining, feeComplement, uint256.NewInt(FeeDenominator))
		if ferr != nil {
			return nil, nil, nil, nil, ferr
		}
		if zeroForOne {
			amountIn, err = GetAmount0Delta(sqrtPriceTargetX96, sqrtPriceCurrentX96, liquidity, true)
		} else {
			amountIn, err = GetAmount1Delta(sqrtPriceCurrentX96, sqrtPriceTargetX96, liquidity, true)
		}
		if err != nil {
			return nil, nil, nil, nil, err
		}
		if !amountRemainingLessFee.Lt(amountIn) {
			sqrtPriceNextX96 = sqrtPriceTargetX96.Clone()
		} else {
			sqrtPriceNextX96, err = GetNextSqrtPriceFromInput(sqrtPriceCurrentX96, liquidity, amountRemainingLessFee, zeroForOne)
			if err != nil {
				return nil, nil, nil, nil, err
			}
		}
	} else {
		if zeroForOne {
			amountOut, err = GetAmount1Delta(sqrtPriceTargetX96, sqrtPriceCurrentX96, liquidity, false)
		} else {
			amountOut, err = GetAmount0Delta(sqrtPriceCurrentX96, sqrtPriceTargetX96, liquidity, false)
		}
		if err != nil {
			return nil, nil, nil, nil, err
		}
		if !absRemaining.Lt(amountOut) {
			sqrtPriceNextX96 = sqrtPriceTargetX96.Clone()
		} else {
			sqrtPriceNextX96, err = GetNextSqrtPriceFromOutput(sqrtPriceCurrentX96, liquidity, absRemaining, zeroForOne)
			if err != nil {
				return nil, nil, nil, nil, err
			}
		}
	}

	reachedTarget := sqrtPriceTargetX96.Eq(sqrtPriceNextX96)

	if zeroForOne {
		if !(reachedTarget && exactIn) {
			amountIn, err = GetAmount0Delta(sqrtPriceNextX96, sqrtPriceCurrentX96, liquidity, true)
			if err != nil {
				return nil, nil, nil, nil, err
			}
		}
		if !(reachedTarget && !exactIn) {
			amountOut, err = GetAmount1Delta(sqrtPriceNextX96, sqrtPriceCurrentX96, liquidity, false)
			if err != nil {
				return nil, nil, nil, nil, err
			}
		}
	} else {
		if !(reachedTarget && exactIn) {
			amountIn, err = GetAmount1Delta(sqrtPriceCurrentX96, sqrtPriceNextX96, liquidity, true)
			if err != nil {
				return nil, nil, nil, nil, err
			}
		}
		if !(reachedTarget && !exactIn) {
			amountOut, err = GetAmount0Delta(sqrtPriceCurrentX96, sqrtPriceNextX96, liquidity, false)
			if err != nil {
				return nil, nil, nil, nil, err
			}
		}
	}

	// An exact-output request never pays out more than asked for.
	if !exactIn && amountOut.Gt(absRemaining) {
		amountOut = absRemaining.Clone()
	}

	if exactIn && !reachedTarget {
		// The whole remaining input is consumed; whatever the price move
		// did not use is fee.
		feeAmount = new(uint256.Int).Sub(absRemaining, amountIn)
	} else if uint64(feePips) >= FeeDenominator {
		feeAmount = amountIn.Clone()
	} else {
		feeAmount, err = MulDivRoundingUp(amountIn, uint256.NewInt(uint64(feePips)), feeComplement)
		if err != nil {
			return nil, nil, nil, nil, err
		}
	}

	return sqrtPriceNextX96, amountIn, amountOut, feeAmount, nil
}
