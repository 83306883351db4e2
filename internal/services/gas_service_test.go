package services

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/chain"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/models"
)

func TestGasService(t *testing.T) {
	ctx := context.Background()
	payload := chain.TxPayload{From: testDeployer, ChainID: testChainID, Data: "0x6080", Value: big.NewInt(0)}

	t.Run("LiveEstimate", func(t *testing.T) {
		client := &fakeChainClient{}
		client.estimateFn = func(p chain.TxPayload) (uint64, *big.Int, error) {
			return 180000, big.NewInt(7), nil
		}
		service := NewGasService(client, DefaultGasConfig())

		estimate, err := service.Estimate(ctx, payload, models.TrapTypeHoneypot, testChainID, EstimateOptions{})
		require.NoError(t, err)
		assert.Equal(t, models.GasEstimateSourceLive, estimate.Source)
		assert.Equal(t, uint64(180000), estimate.GasLimit)
		assert.Equal(t, int64(7), estimate.GasPrice.Int64())
		assert.Equal(t, int64(1260000), estimate.TotalCost.Int64())
	})

	t.Run("FallbackForHoneypotOnHoodi", func(t *testing.T) {
		client := &fakeChainClient{}
		service := NewGasService(client, DefaultGasConfig())

		estimate, err := service.Estimate(ctx, payload, models.TrapTypeHoneypot, 560048, EstimateOptions{})
		require.NoError(t, err)
		assert.Equal(t, models.GasEstimateSourceFallback, estimate.Source)
		assert.Equal(t, uint64(150000), estimate.GasLimit)
		assert.Equal(t, int64(5), estimate.GasPrice.Int64())
		assert.Equal(t, int64(750000), estimate.TotalCost.Int64())
		assert.Equal(t, models.TrapTypeHoneypot, estimate.TrapType)
		assert.Equal(t, uint64(560048), estimate.ChainID)
	})

	t.Run("TransientErrorsRetryThenSucceed", func(t *testing.T) {
		client := &fakeChainClient{}
		calls := 0
		client.estimateFn = func(p chain.TxPayload) (uint64, *big.Int, error) {
			calls++
			if calls < 3 {
				return 0, nil, errors.New("connection reset")
			}
			return 200000, big.NewInt(12), nil
		}
		service := NewGasService(client, DefaultGasConfig())

		estimate, err := service.Estimate(ctx, payload, models.TrapTypeHoneypot, testChainID, EstimateOptions{})
		require.NoError(t, err)
		assert.Equal(t, models.GasEstimateSourceLive, estimate.Source)
		assert.Equal(t, 3, calls)
	})

	t.Run("UnavailableIsNotRetried", func(t *testing.T) {
		client := &fakeChainClient{}
		service := NewGasService(client, DefaultGasConfig())

		_, err := service.Estimate(ctx, payload, models.TrapTypeHoneypot, testChainID, EstimateOptions{})
		require.NoError(t, err)
		_, _, estimates, _, _ := client.counts()
		assert.Equal(t, 1, estimates)
	})

	t.Run("ZeroLiveResultFallsBack", func(t *testing.T) {
		client := &fakeChainClient{}
		client.estimateFn = func(p chain.TxPayload) (uint64, *big.Int, error) {
			return 0, big.NewInt(0), nil
		}
		service := NewGasService(client, DefaultGasConfig())

		estimate, err := service.Estimate(ctx, payload, models.TrapTypeHoneypot, testChainID, EstimateOptions{})
		require.NoError(t, err)
		assert.Equal(t, models.GasEstimateSourceFallback, estimate.Source)
	})

	t.Run("MissingFallbackPriceFails", func(t *testing.T) {
		client := &fakeChainClient{}
		service := NewGasService(client, DefaultGasConfig())

		_, err := service.Estimate(ctx, payload, models.TrapTypeHoneypot, 424242, EstimateOptions{})
		assert.ErrorIs(t, err, ErrEstimationFailed)
	})

	t.Run("MissingFallbackBaseGasFails", func(t *testing.T) {
		client := &fakeChainClient{}
		cfg := DefaultGasConfig()
		delete(cfg.BaseGasByTrapType, models.TrapTypeHoneypot)
		service := NewGasService(client, cfg)

		_, err := service.Estimate(ctx, payload, models.TrapTypeHoneypot, testChainID, EstimateOptions{})
		assert.ErrorIs(t, err, ErrEstimationFailed)
	})

	t.Run("MultiplierScalesFallback", func(t *testing.T) {
		client := &fakeChainClient{}
		service := NewGasService(client, DefaultGasConfig())

		estimate, err := service.Estimate(ctx, payload, models.TrapTypeHoneypot, testChainID, EstimateOptions{Multiplier: 1.5})
		require.NoError(t, err)
		assert.Equal(t, uint64(225000), estimate.GasLimit)
		assert.Equal(t, int64(1125000), estimate.TotalCost.Int64())
	})

	t.Run("OverrideWinsOverEitherPath", func(t *testing.T) {
		client := &fakeChainClient{}
		client.estimateFn = func(p chain.TxPayload) (uint64, *big.Int, error) {
			return 180000, big.NewInt(7), nil
		}
		service := NewGasService(client, DefaultGasConfig())

		override := &models.GasOverride{GasLimit: 300000, GasPrice: big.NewInt(99)}
		estimate, err := service.Estimate(ctx, payload, models.TrapTypeHoneypot, testChainID, EstimateOptions{Override: override})
		require.NoError(t, err)
		assert.Equal(t, uint64(300000), estimate.GasLimit)
		assert.Equal(t, int64(99), estimate.GasPrice.Int64())
		assert.Equal(t, int64(29700000), estimate.TotalCost.Int64())
	})

	t.Run("PartialOverrideKeepsEstimatedPrice", func(t *testing.T) {
		client := &fakeChainClient{}
		service := NewGasService(client, DefaultGasConfig())

		override := &models.GasOverride{GasLimit: 400000}
		estimate, err := service.Estimate(ctx, payload, models.TrapTypeHoneypot, 560048, EstimateOptions{Override: override})
		require.NoError(t, err)
		assert.Equal(t, uint64(400000), estimate.GasLimit)
		assert.Equal(t, int64(5), estimate.GasPrice.Int64())
		assert.Equal(t, int64(2000000), estimate.TotalCost.Int64())
	})

	t.Run("TotalCostIsAlwaysLimitTimesPrice", func(t *testing.T) {
		client := &fakeChainClient{}
		service := NewGasService(client, DefaultGasConfig())

		for _, trapType := range []models.TrapType{
			models.TrapTypeHoneypot,
			models.TrapTypeMonitoring,
			models.TrapTypeReentrancyGuard,
			models.TrapTypeFlashLoanDetector,
		} {
			estimate, err := service.Estimate(ctx, payload, trapType, testChainID, EstimateOptions{})
			require.NoError(t, err)
			expected := new(big.Int).Mul(new(big.Int).SetUint64(estimate.GasLimit), estimate.GasPrice)
			assert.Zero(t, expected.Cmp(estimate.TotalCost))
		}
	})

	t.Run("CancelledContextStopsEstimation", func(t *testing.T) {
		client := &fakeChainClient{}
		service := NewGasService(client, DefaultGasConfig())

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := service.Estimate(cancelled, payload, models.TrapTypeHoneypot, testChainID, EstimateOptions{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
