// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/clamm/swapmath"
)

func sqrtAtTick(t *testing.T, tick int24) *uint256.Int {
	t.Helper()
	price, err := swapmath.GetSqrtRatioAtTick(tick)
	require.NoError(t, err)
	return price
}

func maxPriceLimit() *uint256.Int {
	return new(uint256.Int).SubUint64(swapmath.MaxSqrtRatio, 1)
}

func minPriceLimit() *uint256.Int {
	return new(uint256.Int).AddUint64(swapmath.MinSqrtRatio, 1)
}

// =========================================================================
// Exact Input Tests
// =========================================================================

func TestSwap_ExactInput(t *testing.T) {
	require := require.New(t)

	p := newTestPool(t)
	addTestLiquidity(t, p, -1200, 1200, bigInt("100000000000000000000"))

	// Sell 1e18 of token1 into the pool. Negative amount means exact input.
	delta, lpFee, protocolFee, err := p.Swap(SwapParams{
		ZeroForOne:        false,
		AmountSpecified:   bigInt("-1000000000000000000"),
		SqrtPriceLimitX96: maxPriceLimit(),
	}, TickSpacing030)
	require.NoError(err)
	require.Equal(Fee030, lpFee)
	require.True(protocolFee.IsZero())

	// The full input is owed to the pool.
	require.Zero(delta.Amount1.Cmp(bigInt("1000000000000000000")))
	// The pool pays out token0, less fee and price impact.
	require.Negative(delta.Amount0.Sign())
	out := new(big.Int).Neg(delta.Amount0)
	require.Positive(out.Cmp(bigInt("950000000000000000")))
	require.Negative(out.Cmp(bigInt("1000000000000000000")))

	// Price moved up through positive tick territory.
	require.Positive(p.slot0.Tick)
	require.True(p.slot0.SqrtPriceX96.Gt(testPriceOne))

	// Fees accrue on the input side only.
	require.False(p.feeGrowthGlobal1X128.IsZero())
	require.True(p.feeGrowthGlobal0X128.IsZero())
}

func TestSwap_ExactInput_FeesSettleToPosition(t *testing.T) {
	require := require.New(t)

	p := newTestPool(t)
	addTestLiquidity(t, p, -1200, 1200, bigInt("100000000000000000000"))

	_, _, _, err := p.Swap(SwapParams{
		ZeroForOne:        false,
		AmountSpecified:   bigInt("-1000000000000000000"),
		SqrtPriceLimitX96: maxPriceLimit(),
	}, TickSpacing030)
	require.NoError(err)

	// The sole LP collects the whole 0.30% fee, modulo truncation dust.
	_, feesOwed, err := p.ModifyLiquidity(modifyParams(testOwner, -1200, 1200, new(big.Int)), TickSpacing030)
	require.NoError(err)
	require.Zero(feesOwed.Amount0.Sign())
	require.Negative(feesOwed.Amount1.Sign())

	collected := new(big.Int).Neg(feesOwed.Amount1)
	require.Positive(collected.Cmp(bigInt("2800000000000000")))
	require.Negative(collected.Cmp(bigInt("3200000000000000")))
}

// =========================================================================
// Exact Output Tests
// =========================================================================

func TestSwap_ExactOutput(t *testing.T) {
	require := require.New(t)

	p := newTestPool(t)
	addTestLiquidity(t, p, -1200, 1200, bigInt("100000000000000000000"))

	// Ask for exactly 1e15 of token1 out, paying token0.
	delta, _, _, err := p.Swap(SwapParams{
		ZeroForOne:        true,
		AmountSpecified:   bigInt("1000000000000000"),
		SqrtPriceLimitX96: minPriceLimit(),
	}, TickSpacing030)
	require.NoError(err)

	// The requested output is delivered exactly.
	require.Zero(delta.Amount1.Cmp(bigInt("-1000000000000000")))
	// The input side costs more than the output at parity price.
	require.Positive(delta.Amount0.Sign())
	require.Positive(delta.Amount0.CmpAbs(delta.Amount1))

	require.Negative(p.slot0.Tick)
	require.True(p.slot0.SqrtPriceX96.Lt(testPriceOne))
}

// =========================================================================
// No-Op and Validation Tests
// =========================================================================

func TestSwap_ZeroAmount(t *testing.T) {
	require := require.New(t)

	p := newTestPool(t)
	addTestLiquidity(t, p, -1200, 1200, bigInt("100000000000000000000"))
	priceBefore := p.slot0.SqrtPriceX96.Clone()

	for _, amount := range []*big.Int{nil, new(big.Int)} {
		delta, lpFee, protocolFee, err := p.Swap(SwapParams{
			ZeroForOne:      true,
			AmountSpecified: amount,
			// No limit needed when nothing moves.
			SqrtPriceLimitX96: nil,
		}, TickSpacing030)
		require.NoError(err)
		require.True(delta.IsZero())
		require.Equal(Fee030, lpFee)
		require.True(protocolFee.IsZero())
	}
	require.True(p.slot0.SqrtPriceX96.Eq(priceBefore))
}

func TestSwap_Validation(t *testing.T) {
	require := require.New(t)

	p := NewPool()
	_, _, _, err := p.Swap(SwapParams{
		ZeroForOne:        true,
		AmountSpecified:   bigInt("-1000"),
		SqrtPriceLimitX96: minPriceLimit(),
	}, TickSpacing030)
	require.Equal(ErrPoolNotInitialized, err)

	p = newTestPool(t)
	_, _, _, err = p.Swap(SwapParams{
		ZeroForOne:        true,
		AmountSpecified:   bigInt("-1000"),
		SqrtPriceLimitX96: minPriceLimit(),
	}, 0)
	require.Equal(ErrInvalidTickSpacing, err)
}

func TestSwap_PriceLimitValidation(t *testing.T) {
	require := require.New(t)
	p := newTestPool(t)

	cases := []struct {
		name       string
		zeroForOne bool
		limit      *uint256.Int
		wantErr    error
	}{
		{"zeroForOne limit above current", true, new(uint256.Int).Lsh(testPriceOne, 1), ErrPriceLimitAlreadyExceeded},
		{"zeroForOne limit at current", true, testPriceOne.Clone(), ErrPriceLimitAlreadyExceeded},
		{"zeroForOne limit at min ratio", true, swapmath.MinSqrtRatio.Clone(), ErrPriceLimitOutOfBounds},
		{"oneForZero limit below current", false, new(uint256.Int).Rsh(testPriceOne, 1), ErrPriceLimitAlreadyExceeded},
		{"oneForZero limit at max ratio", false, swapmath.MaxSqrtRatio.Clone(), ErrPriceLimitOutOfBounds},
		{"nil limit", true, nil, ErrPriceLimitOutOfBounds},
	}
	for _, c := range cases {
		_, _, _, err := p.Swap(SwapParams{
			ZeroForOne:        c.zeroForOne,
			AmountSpecified:   bigInt("-1000"),
			SqrtPriceLimitX96: c.limit,
		}, TickSpacing030)
		require.Equal(c.wantErr, err, c.name)
	}
}

// =========================================================================
// Fee Override Tests
// =========================================================================

func TestSwap_LPFeeOverride(t *testing.T) {
	require := require.New(t)

	p := newTestPool(t)
	addTestLiquidity(t, p, -1200, 1200, bigInt("100000000000000000000"))

	_, lpFee, _, err := p.Swap(SwapParams{
		ZeroForOne:        true,
		AmountSpecified:   bigInt("-1000000000000000"),
		SqrtPriceLimitX96: minPriceLimit(),
		LPFeeOverride:     500 | LPFeeOverrideFlag,
	}, TickSpacing030)
	require.NoError(err)
	require.Equal(uint24(500), lpFee)
	// The override is per swap; the configured fee is untouched.
	require.Equal(Fee030, p.slot0.LPFee)

	// Without the flag the override field is ignored.
	_, lpFee, _, err = p.Swap(SwapParams{
		ZeroForOne:        true,
		AmountSpecified:   bigInt("-1000000000000000"),
		SqrtPriceLimitX96: minPriceLimit(),
		LPFeeOverride:     500,
	}, TickSpacing030)
	require.NoError(err)
	require.Equal(Fee030, lpFee)
}

func TestSwap_FeeValidation(t *testing.T) {
	require := require.New(t)

	p := newTestPool(t)
	addTestLiquidity(t, p, -1200, 1200, bigInt("100000000000000000000"))

	// A 100% fee can never satisfy an exact output request.
	_, _, _, err := p.Swap(SwapParams{
		ZeroForOne:        true,
		AmountSpecified:   bigInt("1000000000000000"),
		SqrtPriceLimitX96: minPriceLimit(),
		LPFeeOverride:     LPFeeMax | LPFeeOverrideFlag,
	}, TickSpacing030)
	require.Equal(ErrInvalidFeeForExactOut, err)

	_, _, _, err = p.Swap(SwapParams{
		ZeroForOne:        true,
		AmountSpecified:   bigInt("-1000000000000000"),
		SqrtPriceLimitX96: minPriceLimit(),
		LPFeeOverride:     (LPFeeMax + 1) | LPFeeOverrideFlag,
	}, TickSpacing030)
	require.Equal(ErrFeeTooLarge, err)
}

// =========================================================================
// Tick Crossing Tests
// =========================================================================

func TestSwap_CrossesInitializedTick(t *testing.T) {
	require := require.New(t)

	p := newTestPool(t)
	addTestLiquidity(t, p, -1200, 1200, bigInt("10000000000000000000"))
	addTestLiquidity(t, p, -60, 60, bigInt("5000000000000000000"))
	require.Zero(p.liquidity.ToBig().Cmp(bigInt("15000000000000000000")))

	// Sell enough token0 to push the price below tick -60, deactivating
	// the narrow position on the way down.
	delta, _, _, err := p.Swap(SwapParams{
		ZeroForOne:        true,
		AmountSpecified:   bigInt("-200000000000000000"),
		SqrtPriceLimitX96: minPriceLimit(),
	}, TickSpacing030)
	require.NoError(err)

	require.Zero(delta.Amount0.Cmp(bigInt("200000000000000000")))
	require.Negative(delta.Amount1.Sign())

	// Only the wide range remains active.
	require.Zero(p.liquidity.ToBig().Cmp(bigInt("10000000000000000000")))
	require.Less(p.slot0.Tick, int24(-60))
	require.Greater(p.slot0.Tick, int24(-1200))

	// Crossing flipped the fee accumulator on the crossed tick but not on
	// the untouched far boundary.
	require.False(p.ticks[-60].FeeGrowthOutside0X128.IsZero())
	require.True(p.ticks[-1200].FeeGrowthOutside0X128.IsZero())
}

func TestSwap_NoLiquidityDriftsToLimit(t *testing.T) {
	require := require.New(t)

	p := newTestPool(t)
	limit := sqrtAtTick(t, -600)

	// With no liquidity the price freewheels to the limit and nothing is
	// exchanged.
	delta, _, _, err := p.Swap(SwapParams{
		ZeroForOne:        true,
		AmountSpecified:   bigInt("-1000000000000000000"),
		SqrtPriceLimitX96: limit,
	}, TickSpacing030)
	require.NoError(err)
	require.True(delta.IsZero())
	require.True(p.slot0.SqrtPriceX96.Eq(limit))
	require.Equal(int24(-600), p.slot0.Tick)
}

func TestSwap_PartialFillAtPriceLimit(t *testing.T) {
	require := require.New(t)

	p := newTestPool(t)
	addTestLiquidity(t, p, -1200, 1200, bigInt("100000000000000000000"))
	limit := sqrtAtTick(t, 10)

	delta, _, _, err := p.Swap(SwapParams{
		ZeroForOne:        false,
		AmountSpecified:   bigInt("-1000000000000000000"),
		SqrtPriceLimitX96: limit,
	}, TickSpacing030)
	require.NoError(err)

	// The tight limit stops the swap early with most input unconsumed.
	require.Positive(delta.Amount1.Sign())
	require.Negative(delta.Amount1.Cmp(bigInt("1000000000000000000")))
	require.True(p.slot0.SqrtPriceX96.Eq(limit))
	require.Equal(int24(10), p.slot0.Tick)
}

// =========================================================================
// Protocol Fee Tests
// =========================================================================

func TestSwap_ProtocolFee(t *testing.T) {
	require := require.New(t)

	p := newTestPool(t)
	require.NoError(p.SetProtocolFee(ProtocolFeeMax))
	addTestLiquidity(t, p, -1200, 1200, bigInt("100000000000000000000"))

	_, _, protocolFee, err := p.Swap(SwapParams{
		ZeroForOne:        false,
		AmountSpecified:   bigInt("-1000000000000000000"),
		SqrtPriceLimitX96: maxPriceLimit(),
	}, TickSpacing030)
	require.NoError(err)
	require.False(protocolFee.IsZero())

	// The skim accrues against the input token only.
	require.True(p.protocolFees0.IsZero())
	require.True(p.protocolFees1.Eq(protocolFee))

	// Collection drains the accrual.
	fees0, fees1 := p.collectProtocolFees()
	require.True(fees0.IsZero())
	require.True(fees1.Eq(protocolFee))
	require.True(p.protocolFees1.IsZero())
}
