// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"bytes"
	"math/big"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"
)

// Config holds PoolManager settings
type Config struct {
	// MaxPools caps the number of pools; zero means unlimited
	MaxPools uint64

	// ProtocolFeeController is the only address allowed to set protocol
	// fees and collect them. The zero address disables the check.
	ProtocolFeeController common.Address

	// DefaultProtocolFee is applied to every newly initialized pool
	DefaultProtocolFee uint24
}

// DefaultConfig returns a permissive configuration
func DefaultConfig() Config {
	return Config{}
}

// PoolManager owns every pool and serializes access to them. All mutating
// operations take the write lock for the duration of the call, giving each
// pool the single-writer, atomic-operation semantics the accounting relies
// on.
type PoolManager struct {
	// Pool storage keyed by PoolKey.ID
	pools map[[32]byte]*Pool
	keys  map[[32]byte]PoolKey

	// Logger
	log log.Logger

	cfg Config

	mu sync.RWMutex
}

// NewPoolManager creates a pool manager. A nil logger falls back to a test
// logger.
func NewPoolManager(cfg Config, logger log.Logger) *PoolManager {
	if logger == nil {
		logger = log.NewTestLogger(log.InfoLevel)
	}
	return &PoolManager{
		pools: make(map[[32]byte]*Pool),
		keys:  make(map[[32]byte]PoolKey),
		log:   logger,
		cfg:   cfg,
	}
}

// validateKey checks the structural validity of a pool key.
func validateKey(key PoolKey) error {
	if bytes.Compare(key.Currency0.ToBytes(), key.Currency1.ToBytes()) >= 0 {
		return ErrInvalidCurrencyOrder
	}
	if key.TickSpacing < MinTickSpacing || key.TickSpacing > MaxTickSpacing {
		return ErrInvalidTickSpacing
	}
	if key.Fee > LPFeeMax {
		return ErrFeeTooLarge
	}
	return nil
}

// getPool resolves a pool under a held lock.
func (pm *PoolManager) getPool(key PoolKey) (*Pool, error) {
	p, ok := pm.pools[key.ID()]
	if !ok {
		return nil, ErrPoolNotFound
	}
	return p, nil
}

// Initialize creates a pool for the key at the given starting price and
// returns its initial tick.
func (pm *PoolManager) Initialize(key PoolKey, sqrtPriceX96 *uint256.Int) (int24, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	id := key.ID()
	if _, ok := pm.pools[id]; ok {
		return 0, ErrPoolExists
	}
	if pm.cfg.MaxPools > 0 && uint64(len(pm.pools)) >= pm.cfg.MaxPools {
		return 0, ErrTooManyPools
	}

	p := NewPool()
	tick, err := p.Initialize(sqrtPriceX96, pm.cfg.DefaultProtocolFee, key.Fee)
	if err != nil {
		return 0, err
	}
	pm.pools[id] = p
	pm.keys[id] = key

	pm.log.Info("pool initialized",
		"pool", common.Hash(id),
		"fee", key.Fee,
		"tickSpacing", key.TickSpacing,
		"tick", tick,
	)
	return tick, nil
}

// ModifyLiquidity adjusts a position in the pool for the key.
func (pm *PoolManager) ModifyLiquidity(key PoolKey, params ModifyLiquidityParams) (BalanceDelta, BalanceDelta, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	p, err := pm.getPool(key)
	if err != nil {
		return BalanceDelta{}, BalanceDelta{}, err
	}
	return p.ModifyLiquidity(params, key.TickSpacing)
}

// Swap executes a swap against the pool for the key.
func (pm *PoolManager) Swap(key PoolKey, params SwapParams) (BalanceDelta, uint24, *uint256.Int, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	p, err := pm.getPool(key)
	if err != nil {
		return BalanceDelta{}, 0, nil, err
	}
	return p.Swap(params, key.TickSpacing)
}

// Donate pays both amounts into the pool's fee accumulators.
func (pm *PoolManager) Donate(key PoolKey, amount0, amount1 *uint256.Int) (BalanceDelta, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	p, err := pm.getPool(key)
	if err != nil {
		return BalanceDelta{}, err
	}
	return p.Donate(amount0, amount1)
}

// SetLPFee updates the static LP fee of the pool for the key.
func (pm *PoolManager) SetLPFee(key PoolKey, fee uint24) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	p, err := pm.getPool(key)
	if err != nil {
		return err
	}
	return p.SetLPFee(fee)
}

// SetProtocolFee updates the protocol fee of the pool for the key. Only the
// configured controller may call it.
func (pm *PoolManager) SetProtocolFee(caller common.Address, key PoolKey, fee uint24) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if err := pm.checkController(caller); err != nil {
		return err
	}
	p, err := pm.getPool(key)
	if err != nil {
		return err
	}
	return p.SetProtocolFee(fee)
}

// CollectProtocolFees drains the accumulated protocol fees of the pool for
// the key. Only the configured controller may call it.
func (pm *PoolManager) CollectProtocolFees(caller common.Address, key PoolKey) (*uint256.Int, *uint256.Int, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if err := pm.checkController(caller); err != nil {
		return nil, nil, err
	}
	p, err := pm.getPool(key)
	if err != nil {
		return nil, nil, err
	}
	amount0, amount1 := p.collectProtocolFees()

	pm.log.Info("protocol fees collected",
		"pool", common.Hash(key.ID()),
		"amount0", amount0,
		"amount1", amount1,
	)
	return amount0, amount1, nil
}

func (pm *PoolManager) checkController(caller common.Address) error {
	if pm.cfg.ProtocolFeeController != (common.Address{}) && caller != pm.cfg.ProtocolFeeController {
		return ErrUnauthorized
	}
	return nil
}

// BlockLiquidity reserves liquidity around the current price of the pool for
// the key and returns the tick range used.
func (pm *PoolManager) BlockLiquidity(key PoolKey, liquidityDelta *big.Int) (int24, int24, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	p, err := pm.getPool(key)
	if err != nil {
		return 0, 0, err
	}
	return p.BlockLiquidity(liquidityDelta, key.TickSpacing)
}

// UnblockLiquidity releases previously blocked liquidity.
func (pm *PoolManager) UnblockLiquidity(key PoolKey, liquidityDelta *big.Int, tickLower, tickUpper int24) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	p, err := pm.getPool(key)
	if err != nil {
		return err
	}
	return p.UnblockLiquidity(liquidityDelta, tickLower, tickUpper)
}

// CalculateLiquidityDelta converts a position size into required liquidity at
// the pool's current price.
func (pm *PoolManager) CalculateLiquidityDelta(key PoolKey, positionSize *uint256.Int) (*uint256.Int, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	p, err := pm.getPool(key)
	if err != nil {
		return nil, err
	}
	return p.CalculateLiquidityDelta(positionSize, key.TickSpacing)
}

// UpdateFromTraderProfit debits range liquidity to fund a trader payout.
func (pm *PoolManager) UpdateFromTraderProfit(key PoolKey, profit0, profit1 *uint256.Int, tickLower, tickUpper int24) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	p, err := pm.getPool(key)
	if err != nil {
		return err
	}
	return p.UpdateFromTraderProfit(profit0, profit1, tickLower, tickUpper)
}

// UpdateLossGrowthOnLiquidationOrLoss distributes trader losses to in-range
// liquidity.
func (pm *PoolManager) UpdateLossGrowthOnLiquidationOrLoss(key PoolKey, loss0, loss1 *uint256.Int, tickLower, tickUpper int24) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	p, err := pm.getPool(key)
	if err != nil {
		return err
	}
	return p.UpdateLossGrowthOnLiquidationOrLoss(loss0, loss1, tickLower, tickUpper)
}

// UpdateGainGrowthOnProfit charges trader gains to in-range liquidity.
func (pm *PoolManager) UpdateGainGrowthOnProfit(key PoolKey, gain0, gain1 *uint256.Int, tickLower, tickUpper int24) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	p, err := pm.getPool(key)
	if err != nil {
		return err
	}
	return p.UpdateGainGrowthOnProfit(gain0, gain1, tickLower, tickUpper)
}

// GetSlot0 returns a copy of the pool's price, tick, and fee configuration.
func (pm *PoolManager) GetSlot0(key PoolKey) (Slot0, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	p, err := pm.getPool(key)
	if err != nil {
		return Slot0{}, err
	}
	slot0 := p.slot0
	slot0.SqrtPriceX96 = p.slot0.SqrtPriceX96.Clone()
	return slot0, nil
}

// GetLiquidity returns the pool's currently active liquidity.
func (pm *PoolManager) GetLiquidity(key PoolKey) (*uint256.Int, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	p, err := pm.getPool(key)
	if err != nil {
		return nil, err
	}
	return p.liquidity.Clone(), nil
}

// GetPosition returns a copy of the position state.
func (pm *PoolManager) GetPosition(key PoolKey, owner common.Address, tickLower, tickUpper int24, salt [32]byte) (*Position, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	p, err := pm.getPool(key)
	if err != nil {
		return nil, err
	}
	pos, ok := p.positions[PositionKey(owner, tickLower, tickUpper, salt)]
	if !ok {
		return nil, ErrPositionNotFound
	}
	return pos.clone(), nil
}

// GetTickInfo returns a copy of the tick state. A tick that was never
// initialized reads as all zeros.
func (pm *PoolManager) GetTickInfo(key PoolKey, tick int24) (*TickInfo, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	p, err := pm.getPool(key)
	if err != nil {
		return nil, err
	}
	info, ok := p.ticks[tick]
	if !ok {
		return newTickInfo(), nil
	}
	return info.clone(), nil
}

// GetFeeGrowthGlobals returns copies of both fee growth accumulators.
func (pm *PoolManager) GetFeeGrowthGlobals(key PoolKey) (*uint256.Int, *uint256.Int, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	p, err := pm.getPool(key)
	if err != nil {
		return nil, nil, err
	}
	return p.feeGrowthGlobal0X128.Clone(), p.feeGrowthGlobal1X128.Clone(), nil
}

// GetLossGrowthGlobals returns copies of both loss growth accumulators.
func (pm *PoolManager) GetLossGrowthGlobals(key PoolKey) (*uint256.Int, *uint256.Int, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	p, err := pm.getPool(key)
	if err != nil {
		return nil, nil, err
	}
	return p.lossGrowthGlobal0X128.Clone(), p.lossGrowthGlobal1X128.Clone(), nil
}

// GetGainGrowthGlobals returns copies of both gain growth accumulators.
func (pm *PoolManager) GetGainGrowthGlobals(key PoolKey) (*uint256.Int, *uint256.Int, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	p, err := pm.getPool(key)
	if err != nil {
		return nil, nil, err
	}
	return p.gainGrowthGlobal0X128.Clone(), p.gainGrowthGlobal1X128.Clone(), nil
}

// GetProtocolFees returns copies of the pending protocol fee balances.
func (pm *PoolManager) GetProtocolFees(key PoolKey) (*uint256.Int, *uint256.Int, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	p, err := pm.getPool(key)
	if err != nil {
		return nil, nil, err
	}
	return p.protocolFees0.Clone(), p.protocolFees1.Clone(), nil
}

// NumPools returns the number of initialized pools.
func (pm *PoolManager) NumPools() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.pools)
}

// Pools returns the key of every initialized pool, in no particular order.
func (pm *PoolManager) Pools() []PoolKey {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	keys := make([]PoolKey, 0, len(pm.keys))
	for _, key := range pm.keys {
		keys = append(keys, key)
	}
	return keys
}
