// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pool implements Uniswap v4-style concentrated liquidity pool
// accounting for Lux chains. Pools track liquidity per tick range, collect
// swap fees into Q128.128 growth accumulators, and extend the standard AMM
// bookkeeping with perpetual settlement: liquidity blocking for open
// positions, trader profit payouts drawn from range liquidity, and loss and
// gain growth streams distributed to in-range liquidity providers.
package pool

import (
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"

	"github.com/luxfi/clamm/swapmath"
)

// Pool fee tiers (pips, hundredths of a basis point)
const (
	Fee001 uint24 = 100   // 0.01% - stablecoins
	Fee005 uint24 = 500   // 0.05% - stable pairs
	Fee030 uint24 = 3000  // 0.30% - standard
	Fee100 uint24 = 10000 // 1.00% - exotic pairs

	// LPFeeMax is the largest static LP fee, 100%.
	LPFeeMax uint24 = 1_000_000

	// LPFeeOverrideFlag marks a per-swap LP fee override. The low 23 bits
	// carry the fee to use in place of the pool's configured fee.
	LPFeeOverrideFlag uint24 = 0x400000

	// ProtocolFeeMax caps the protocol fee at 0.1% (1000 pips) per token.
	ProtocolFeeMax uint24 = 1000
)

// Tick spacing for different fee tiers
const (
	TickSpacing001 int24 = 1
	TickSpacing005 int24 = 10
	TickSpacing030 int24 = 60
	TickSpacing100 int24 = 200

	MinTickSpacing int24 = 1
	MaxTickSpacing int24 = 32767
)

// Currency represents a token (native or ERC20)
// Address(0) represents native LUX
type Currency struct {
	Address common.Address
}

// NativeCurrency represents native LUX (no wrapping needed)
var NativeCurrency = Currency{Address: common.Address{}}

// IsNative returns true if this currency is native LUX
func (c Currency) IsNative() bool {
	return c.Address == common.Address{}
}

// ToBytes serializes currency for hashing and storage
func (c Currency) ToBytes() []byte {
	return c.Address.Bytes()
}

// CurrencyFromBytes deserializes currency from storage
func CurrencyFromBytes(data []byte) Currency {
	return Currency{Address: common.BytesToAddress(data)}
}

// PoolKey uniquely identifies a pool
// Sorted by currency address (currency0 < currency1)
type PoolKey struct {
	Currency0   Currency // Lower address token
	Currency1   Currency // Higher address token
	Fee         uint24   // Static LP fee in pips
	TickSpacing int24    // Tick spacing for concentrated liquidity
}

// ID computes the unique pool identifier
func (pk PoolKey) ID() [32]byte {
	h := blake3.New()
	h.Write(pk.Currency0.ToBytes())
	h.Write(pk.Currency1.ToBytes())

	var feeBytes [4]byte
	binary.BigEndian.PutUint32(feeBytes[:], uint32(pk.Fee))
	h.Write(feeBytes[1:]) // uint24

	var tickBytes [4]byte
	binary.BigEndian.PutUint32(tickBytes[:], uint32(pk.TickSpacing))
	h.Write(tickBytes[1:]) // int24

	var id [32]byte
	h.Digest().Read(id[:])
	return id
}

// ToBytes serializes pool key for storage
func (pk PoolKey) ToBytes() []byte {
	data := make([]byte, 46)
	copy(data[0:20], pk.Currency0.ToBytes())
	copy(data[20:40], pk.Currency1.ToBytes())

	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(pk.Fee))
	copy(data[40:43], buf[1:])
	binary.BigEndian.PutUint32(buf[:], uint32(pk.TickSpacing))
	copy(data[43:46], buf[1:])
	return data
}

// PoolKeyFromBytes deserializes pool key from storage
func PoolKeyFromBytes(data []byte) (PoolKey, error) {
	if len(data) < 46 {
		return PoolKey{}, errors.New("invalid pool key data length")
	}
	pk := PoolKey{}
	pk.Currency0 = CurrencyFromBytes(data[0:20])
	pk.Currency1 = CurrencyFromBytes(data[20:40])

	var buf [4]byte
	copy(buf[1:], data[40:43])
	pk.Fee = uint24(binary.BigEndian.Uint32(buf[:]))

	copy(buf[1:], data[43:46])
	tick := int24(binary.BigEndian.Uint32(buf[:]))
	// Sign extend from 24 bits
	if tick&0x800000 != 0 {
		tick |= ^int24(0xffffff)
	}
	pk.TickSpacing = tick
	return pk, nil
}

// BalanceDelta represents the net token changes produced by an operation
// Positive = owed to the pool, Negative = owed to the caller
type BalanceDelta struct {
	Amount0 *big.Int // Currency0 delta (positive = caller owes pool)
	Amount1 *big.Int // Currency1 delta (positive = caller owes pool)
}

// NewBalanceDelta creates a new balance delta, copying both amounts
func NewBalanceDelta(amount0, amount1 *big.Int) BalanceDelta {
	return BalanceDelta{
		Amount0: new(big.Int).Set(amount0),
		Amount1: new(big.Int).Set(amount1),
	}
}

// ZeroBalanceDelta returns a zero balance delta
func ZeroBalanceDelta() BalanceDelta {
	return BalanceDelta{
		Amount0: big.NewInt(0),
		Amount1: big.NewInt(0),
	}
}

// Add combines two balance deltas
func (bd BalanceDelta) Add(other BalanceDelta) BalanceDelta {
	return BalanceDelta{
		Amount0: new(big.Int).Add(bd.Amount0, other.Amount0),
		Amount1: new(big.Int).Add(bd.Amount1, other.Amount1),
	}
}

// Sub subtracts another balance delta
func (bd BalanceDelta) Sub(other BalanceDelta) BalanceDelta {
	return BalanceDelta{
		Amount0: new(big.Int).Sub(bd.Amount0, other.Amount0),
		Amount1: new(big.Int).Sub(bd.Amount1, other.Amount1),
	}
}

// Negate inverts the balance delta signs
func (bd BalanceDelta) Negate() BalanceDelta {
	return BalanceDelta{
		Amount0: new(big.Int).Neg(bd.Amount0),
		Amount1: new(big.Int).Neg(bd.Amount1),
	}
}

// IsZero returns true if both amounts are zero
func (bd BalanceDelta) IsZero() bool {
	return bd.Amount0.Sign() == 0 && bd.Amount1.Sign() == 0
}

// Slot0 is the frequently accessed pool state
type Slot0 struct {
	SqrtPriceX96 *uint256.Int // sqrt(price) * 2^96 (Q64.96)
	Tick         int24        // Current tick
	ProtocolFee  uint24       // Protocol fee in pips, taken from swap fees
	LPFee        uint24       // Static LP fee in pips
}

// SwapParams contains parameters for a swap
type SwapParams struct {
	ZeroForOne        bool         // true = swap currency0 for currency1
	AmountSpecified   *big.Int     // Negative = exact input, positive = exact output
	SqrtPriceLimitX96 *uint256.Int // Price limit (sqrt(price) * 2^96)
	LPFeeOverride     uint24       // Per-swap LP fee when LPFeeOverrideFlag is set
}

// ModifyLiquidityParams contains parameters for adding/removing liquidity
type ModifyLiquidityParams struct {
	Owner          common.Address
	TickLower      int24
	TickUpper      int24
	LiquidityDelta *big.Int // Positive = add, Negative = remove
	Salt           [32]byte // Position salt for uniqueness
}

// Errors - Malformed input
var (
	ErrInvalidTickRange      = errors.New("invalid tick range")
	ErrTickOutOfBounds       = errors.New("tick out of bounds")
	ErrTickNotAligned        = errors.New("tick not aligned to spacing")
	ErrInvalidTickSpacing    = errors.New("invalid tick spacing")
	ErrInvalidLiquidityDelta = errors.New("invalid liquidity delta")
	ErrInvalidPositionSize   = errors.New("invalid position size")
	ErrInvalidCurrencyOrder  = errors.New("currencies not sorted")
)

// Errors - State preconditions
var (
	ErrPoolNotInitialized     = errors.New("pool not initialized")
	ErrPoolAlreadyInitialized = errors.New("pool already initialized")
	ErrPoolExists             = errors.New("pool already exists")
	ErrPoolNotFound           = errors.New("pool not found")
	ErrPositionNotFound       = errors.New("position not found")
	ErrEmptyPositionPoke      = errors.New("cannot poke empty position")
	ErrNoLiquidity            = errors.New("no liquidity in pool")
	ErrTooManyPools           = errors.New("pool limit reached")
	ErrUnauthorized           = errors.New("unauthorized")
)

// Errors - Capacity
var (
	ErrTickLiquidityOverflow          = errors.New("tick liquidity exceeds maximum")
	ErrLiquidityUnderflow             = swapmath.ErrLiquidityUnderflow
	ErrLiquidityOverflow              = swapmath.ErrLiquidityOverflow
	ErrInsufficientAvailableLiquidity = errors.New("insufficient available liquidity")
	ErrInsufficientBlockedLiquidity   = errors.New("insufficient blocked liquidity")
)

// Errors - Price limits
var (
	ErrPriceLimitAlreadyExceeded = errors.New("price limit already exceeded")
	ErrPriceLimitOutOfBounds     = errors.New("price limit out of bounds")
	ErrInvalidSqrtPrice          = errors.New("invalid sqrt price")
)

// Errors - Fee configuration
var (
	ErrInvalidFeeForExactOut = errors.New("100% fee cannot fill exact output")
	ErrFeeTooLarge           = errors.New("fee exceeds maximum")
	ErrInvalidProtocolFee    = errors.New("invalid protocol fee")
)

// uint24 follows Solidity semantics for fee values
type uint24 = uint32

// int24 follows Solidity semantics for tick values
type int24 = int32
