package server

import (
	"github.com/trapdeck-lab/trapdeck-mcp/internal/chain"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/services"
	"gorm.io/gorm"
)

// InitializeServices wires the deployment core: network resolver, gas
// estimator, registry and orchestrator, all sharing one chain client.
func InitializeServices(db *gorm.DB, client chain.Client, registryCfg services.RegistryConfig, orchestratorCfg services.OrchestratorConfig) (services.NetworkService, services.GasService, services.RegistryService, services.OrchestratorService) {
	networkService := services.NewNetworkService(client, services.DefaultNetworkProfiles())
	gasService := services.NewGasService(client, services.DefaultGasConfig())
	registryService := services.NewRegistryService(db, registryCfg)
	orchestratorService := services.NewOrchestratorService(client, networkService, gasService, registryService, orchestratorCfg)

	return networkService, gasService, registryService, orchestratorService
}
