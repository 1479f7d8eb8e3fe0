// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"github.com/holiman/uint256"

	"github.com/luxfi/clamm/swapmath"
)

// Pool holds the complete accounting state for one pool: the current price,
// active liquidity, the six global growth accumulators, per-tick state, the
// initialized tick bitmap, and all positions. A Pool performs no locking;
// PoolManager serializes access.
type Pool struct {
	slot0 Slot0

	// Liquidity active at the current price
	liquidity *uint256.Int

	// Q128.128 growth accumulators, wrapping mod 2^256
	feeGrowthGlobal0X128  *uint256.Int
	feeGrowthGlobal1X128  *uint256.Int
	lossGrowthGlobal0X128 *uint256.Int
	lossGrowthGlobal1X128 *uint256.Int
	gainGrowthGlobal0X128 *uint256.Int
	gainGrowthGlobal1X128 *uint256.Int

	// Accumulated protocol fees pending collection
	protocolFees0 *uint256.Int
	protocolFees1 *uint256.Int

	ticks     map[int24]*TickInfo
	bitmap    tickBitmap
	positions map[[32]byte]*Position
}

// NewPool creates an uninitialized pool
func NewPool() *Pool {
	return &Pool{
		slot0: Slot0{
			SqrtPriceX96: new(uint256.Int),
		},
		liquidity:             new(uint256.Int),
		feeGrowthGlobal0X128:  new(uint256.Int),
		feeGrowthGlobal1X128:  new(uint256.Int),
		lossGrowthGlobal0X128: new(uint256.Int),
		lossGrowthGlobal1X128: new(uint256.Int),
		gainGrowthGlobal0X128: new(uint256.Int),
		gainGrowthGlobal1X128: new(uint256.Int),
		protocolFees0:         new(uint256.Int),
		protocolFees1:         new(uint256.Int),
		ticks:                 make(map[int24]*TickInfo),
		bitmap:                make(tickBitmap),
		positions:             make(map[[32]byte]*Position),
	}
}

// initialized reports whether Initialize has run. An initialized pool always
// has a nonzero sqrt price.
func (p *Pool) initialized() bool {
	return p.slot0.SqrtPriceX96 != nil && !p.slot0.SqrtPriceX96.IsZero()
}

// Initialize sets the starting price and fee configuration and returns the
// tick corresponding to the price. A pool can only be initialized once.
func (p *Pool) Initialize(sqrtPriceX96 *uint256.Int, protocolFee, lpFee uint24) (int24, error) {
	if p.initialized() {
		return 0, ErrPoolAlreadyInitialized
	}
	if sqrtPriceX96 == nil || sqrtPriceX96.Lt(swapmath.MinSqrtRatio) || !sqrtPriceX96.Lt(swapmath.MaxSqrtRatio) {
		return 0, ErrInvalidSqrtPrice
	}
	if lpFee > LPFeeMax {
		return 0, ErrFeeTooLarge
	}
	if protocolFee > ProtocolFeeMax {
		return 0, ErrInvalidProtocolFee
	}

	tick, err := swapmath.GetTickAtSqrtRatio(sqrtPriceX96)
	if err != nil {
		return 0, err
	}

	p.slot0.SqrtPriceX96 = sqrtPriceX96.Clone()
	p.slot0.Tick = tick
	p.slot0.ProtocolFee = protocolFee
	p.slot0.LPFee = lpFee
	return tick, nil
}

// SetProtocolFee updates the protocol fee taken from swap fees.
func (p *Pool) SetProtocolFee(fee uint24) error {
	if !p.initialized() {
		return ErrPoolNotInitialized
	}
	if fee > ProtocolFeeMax {
		return ErrInvalidProtocolFee
	}
	p.slot0.ProtocolFee = fee
	return nil
}

// SetLPFee updates the static LP fee.
func (p *Pool) SetLPFee(fee uint24) error {
	if !p.initialized() {
		return ErrPoolNotInitialized
	}
	if fee > LPFeeMax {
		return ErrFeeTooLarge
	}
	p.slot0.LPFee = fee
	return nil
}

// Donate credits both amounts to the fee growth accumulators, paying every
// in-range liquidity provider proportionally. Fails when no liquidity is
// active since the donation would be unattributable.
func (p *Pool) Donate(amount0, amount1 *uint256.Int) (BalanceDelta, error) {
	if !p.initialized() {
		return BalanceDelta{}, ErrPoolNotInitialized
	}
	if p.liquidity.IsZero() {
		return BalanceDelta{}, ErrNoLiquidity
	}

	quotient0 := new(uint256.Int)
	quotient1 := new(uint256.Int)
	var err error
	if amount0 != nil && !amount0.IsZero() {
		quotient0, err = swapmath.MulDiv(amount0, swapmath.Q128, p.liquidity)
		if err != nil {
			return BalanceDelta{}, err
		}
	}
	if amount1 != nil && !amount1.IsZero() {
		quotient1, err = swapmath.MulDiv(amount1, swapmath.Q128, p.liquidity)
		if err != nil {
			return BalanceDelta{}, err
		}
	}
	p.feeGrowthGlobal0X128.Add(p.feeGrowthGlobal0X128, quotient0)
	p.feeGrowthGlobal1X128.Add(p.feeGrowthGlobal1X128, quotient1)

	delta := ZeroBalanceDelta()
	if amount0 != nil {
		delta.Amount0 = amount0.ToBig()
	}
	if amount1 != nil {
		delta.Amount1 = amount1.ToBig()
	}
	return delta, nil
}

// collectProtocolFees drains the accumulated protocol fees.
func (p *Pool) collectProtocolFees() (*uint256.Int, *uint256.Int) {
	amount0 := p.protocolFees0
	amount1 := p.protocolFees1
	p.protocolFees0 = new(uint256.Int)
	p.protocolFees1 = new(uint256.Int)
	return amount0, amount1
}

// checkTicks validates a tick range.
func checkTicks(tickLower, tickUpper int24) error {
	if tickLower >= tickUpper {
		return ErrInvalidTickRange
	}
	if tickLower < swapmath.MinTick || tickUpper > swapmath.MaxTick {
		return ErrTickOutOfBounds
	}
	return nil
}
