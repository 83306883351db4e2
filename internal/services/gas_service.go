package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/trapdeck-lab/trapdeck-mcp/internal/chain"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/models"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/traps"
)

// GasService produces a deployment cost estimate, preferring live network
// estimation and falling back to static tables when the network cannot
// answer. Estimates are computed fresh per attempt, never cached.
type GasService interface {
	Estimate(ctx context.Context, payload chain.TxPayload, trapType models.TrapType, chainID uint64, opts EstimateOptions) (*models.GasEstimate, error)
}

// EstimateOptions carries per-request adjustments applied on top of either
// estimation path.
type EstimateOptions struct {
	// Override wins over estimated values for any field it sets.
	Override *models.GasOverride
	// Multiplier scales the fallback base gas figure. Zero means no scaling.
	Multiplier float64
}

// GasConfig is the estimator's immutable configuration: the static fallback
// tables and the transient-retry budget for the live path.
type GasConfig struct {
	// BaseGasByTrapType maps trap type to its static deployment gas figure.
	BaseGasByTrapType map[models.TrapType]uint64
	// GasPriceByChainID maps chain id to a static gas price in the smallest
	// native-currency unit per unit of gas.
	GasPriceByChainID map[uint64]int64
	// LiveRetries is how many extra attempts a transient live-estimation
	// error gets before the fallback takes over.
	LiveRetries int
}

// DefaultGasConfig builds the fallback tables from the trap catalog plus the
// static per-network price table.
func DefaultGasConfig() GasConfig {
	baseGas := make(map[models.TrapType]uint64)
	for _, def := range traps.List() {
		baseGas[def.Type] = def.BaseGas
	}
	return GasConfig{
		BaseGasByTrapType: baseGas,
		GasPriceByChainID: map[uint64]int64{
			1:        30,
			11155111: 10,
			560048:   5,
		},
		LiveRetries: 2,
	}
}

type gasService struct {
	client chain.Client
	cfg    GasConfig
}

// NewGasService creates a GasService holding cfg as immutable configuration.
func NewGasService(client chain.Client, cfg GasConfig) GasService {
	return &gasService{client: client, cfg: cfg}
}

func (s *gasService) Estimate(ctx context.Context, payload chain.TxPayload, trapType models.TrapType, chainID uint64, opts EstimateOptions) (*models.GasEstimate, error) {
	gasLimit, gasPrice, err := s.estimateLive(ctx, payload)
	source := models.GasEstimateSourceLive
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		gasLimit, gasPrice, err = s.estimateFallback(trapType, chainID, opts.Multiplier)
		if err != nil {
			return nil, err
		}
		source = models.GasEstimateSourceFallback
	}

	if opts.Override != nil {
		if opts.Override.GasLimit > 0 {
			gasLimit = opts.Override.GasLimit
		}
		if opts.Override.GasPrice != nil && opts.Override.GasPrice.Sign() > 0 {
			gasPrice = opts.Override.GasPrice
		}
	}

	return models.NewGasEstimate(trapType, chainID, gasLimit, gasPrice, source), nil
}

// estimateLive queries the chain client, retrying transient errors a bounded
// number of times. An explicit "unavailable" answer is not retried.
func (s *gasService) estimateLive(ctx context.Context, payload chain.TxPayload) (uint64, *big.Int, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.LiveRetries; attempt++ {
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}

		gasLimit, gasPrice, err := s.client.EstimateGas(ctx, payload)
		if err == nil {
			if gasLimit == 0 || gasPrice == nil || gasPrice.Sign() <= 0 {
				return 0, nil, chain.ErrEstimateUnavailable
			}
			return gasLimit, gasPrice, nil
		}
		if errors.Is(err, chain.ErrEstimateUnavailable) {
			return 0, nil, err
		}
		lastErr = err
	}
	return 0, nil, lastErr
}

// estimateFallback consults the static tables. Absence of an applicable entry
// is a reportable error, never a zero estimate.
func (s *gasService) estimateFallback(trapType models.TrapType, chainID uint64, multiplier float64) (uint64, *big.Int, error) {
	baseGas, ok := s.cfg.BaseGasByTrapType[trapType]
	if !ok {
		return 0, nil, fmt.Errorf("%w: no fallback gas entry for trap type %q", ErrEstimationFailed, trapType)
	}
	price, ok := s.cfg.GasPriceByChainID[chainID]
	if !ok {
		return 0, nil, fmt.Errorf("%w: no fallback gas price for chain id %d", ErrEstimationFailed, chainID)
	}

	gasLimit := baseGas
	if multiplier > 0 {
		gasLimit = uint64(float64(baseGas) * multiplier)
	}
	if gasLimit == 0 || price <= 0 {
		return 0, nil, fmt.Errorf("%w: fallback produced a zero estimate for trap type %q on chain %d", ErrEstimationFailed, trapType, chainID)
	}

	return gasLimit, big.NewInt(price), nil
}
