package tools

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/chain"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/models"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testDeployer        = "0x742d35cc6634c0532925a3b844bc454e4438f44e"
	testContractAddress = "0x9fe46736679d2d9a65f0992f2272de9f3c7fa6e0"
	testTxHash          = "0x8a7d953f45b9da65a1c8ad2c6b1c1a0d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b"
)

// stubChainClient confirms every deployment on the first poll.
type stubChainClient struct{}

func (c *stubChainClient) GetNetwork(ctx context.Context) (uint64, error) {
	return 560048, nil
}

func (c *stubChainClient) SwitchNetwork(ctx context.Context, chainID uint64, profile *models.NetworkProfile) error {
	return nil
}

func (c *stubChainClient) EstimateGas(ctx context.Context, payload chain.TxPayload) (uint64, *big.Int, error) {
	return 0, nil, chain.ErrEstimateUnavailable
}

func (c *stubChainClient) SignAndBroadcast(ctx context.Context, payload chain.TxPayload) (chain.BroadcastResult, error) {
	return chain.BroadcastResult{TxHash: testTxHash, From: payload.From}, nil
}

func (c *stubChainClient) GetTransactionStatus(ctx context.Context, txHash string) (chain.TxStatus, error) {
	return chain.TxStatus{Mined: true, Confirmations: 1, ContractAddress: testContractAddress}, nil
}

func setupTestServices(t *testing.T) (services.OrchestratorService, services.RegistryService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.RegistryEntry{}))

	client := &stubChainClient{}
	registry := services.NewRegistryService(db, services.RegistryConfig{OpenRegistration: true})
	networks := services.NewNetworkService(client, services.DefaultNetworkProfiles())
	gas := services.NewGasService(client, services.DefaultGasConfig())
	orchestrator := services.NewOrchestratorService(client, networks, gas, registry, services.OrchestratorConfig{
		ConfirmationThreshold: 1,
		PollInterval:          5 * time.Millisecond,
		PollBudget:            2 * time.Second,
		MaxTransientRetries:   3,
	})
	return orchestrator, registry
}

func waitForTerminal(t *testing.T, orchestrator services.OrchestratorService, id string) models.DeploymentRecord {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		record, err := orchestrator.GetStatus(id)
		require.NoError(t, err)
		if record.State.Terminal() {
			return *record
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("deployment %s did not reach a terminal state in time", id)
	return models.DeploymentRecord{}
}
