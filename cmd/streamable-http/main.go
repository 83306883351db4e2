package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/api"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/chain"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/server"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/services"
)

func main() {
	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		parsed, err := strconv.Atoi(portStr)
		if err != nil {
			log.Fatalf("Invalid PORT %q: %v", portStr, err)
		}
		port = parsed
	}

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		log.Fatal("POSTGRES_URL is required")
	}

	dbService, err := services.NewPostgresDBService(postgresURL)
	if err != nil {
		log.Fatal("Failed to initialize database service:", err)
	}
	defer dbService.Close()

	rpcURL := os.Getenv("TRAPDECK_RPC_URL")
	if rpcURL == "" {
		rpcURL = "http://localhost:8545"
	}
	client := chain.NewRPCClient(rpcURL)

	registryCfg := services.RegistryConfig{
		OpenRegistration:    true,
		AuthorizedDeployers: splitAddresses(os.Getenv("TRAPDECK_AUTHORIZED_DEPLOYERS")),
		Admins:              splitAddresses(os.Getenv("TRAPDECK_ADMINS")),
	}
	if len(registryCfg.AuthorizedDeployers) > 0 {
		registryCfg.OpenRegistration = false
	}

	networkService, _, registryService, orchestratorService := server.InitializeServices(
		dbService.GetDB(), client, registryCfg, services.DefaultOrchestratorConfig())

	apiServer := api.NewAPIServer(orchestratorService, registryService, networkService)
	boundPort, err := apiServer.Start(&port)
	if err != nil {
		log.Fatal("Failed to start API server:", err)
	}
	log.Printf("API server started on port %d", boundPort)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("Shutting down server...")
	if err := apiServer.Shutdown(); err != nil {
		log.Printf("Error shutting down API server: %v", err)
	}
	log.Println("Server shut down successfully")
}

func splitAddresses(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, addr := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
