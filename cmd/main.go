package main

import (
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/trapdeck-lab/trapdeck-mcp/internal/api"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/chain"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/mcp"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/server"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/services"
)

// Build information (set via ldflags)
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)

func main() {
	// Command line flags
	var showVersion = flag.Bool("version", false, "Show version information")
	var showHelp = flag.Bool("help", false, "Show help information")
	var enableLog = flag.Bool("log", false, "Enable logging output")
	flag.Parse()

	// Disable logging by default; stdout belongs to the MCP protocol
	if !*enableLog {
		log.SetOutput(io.Discard)
	}

	if *showVersion {
		log.Printf("Trapdeck MCP Server\n")
		log.Printf("Version: %s\n", Version)
		log.Printf("Commit: %s\n", CommitHash)
		log.Printf("Built: %s\n", BuildTime)
		return
	}

	if *showHelp {
		log.Printf("Trapdeck MCP Server\n\n")
		log.Printf("Usage: %s [options]\n\n", os.Args[0])
		log.Printf("Options:\n")
		log.Printf("  --version    Show version information\n")
		log.Printf("  --help       Show this help message\n")
		log.Printf("  --log        Enable logging output\n\n")
		log.Printf("Description:\n")
		log.Printf("  Deploys trap contracts through a wallet-mediated RPC endpoint and\n")
		log.Printf("  tracks them in a shared registry.\n\n")
		log.Printf("Database: ~/trapdeck.db (SQLite)\n")
		log.Printf("RPC endpoint: TRAPDECK_RPC_URL (default http://localhost:8545)\n")
		return
	}

	// Get home directory for database
	homePath, err := os.UserHomeDir()
	if err != nil {
		log.Fatal("Failed to get home directory:", err)
	}

	dbService, err := services.NewDBService(homePath + "/trapdeck.db")
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

	// Initialize and start API server
	apiServer := api.NewAPIServer(orchestratorService, registryService, networkService)
	port, err := apiServer.Start(nil)
	if err != nil {
		log.Fatal("Failed to start API server:", err)
	}

	log.Printf("API server started on port %d\n", port)

	// Initialize MCP server
	mcpServer := mcp.NewMCPServer(orchestratorService, registryService)

	// Start MCP server in a goroutine
	go func() {
		if err := mcpServer.Start(); err != nil {
			log.SetOutput(os.Stderr)
			log.SetFlags(0)
			log.Fatal("Failed to start MCP server:", err)
		}
	}()

	// Set up graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("\nShutting down servers...")

	if err := apiServer.Shutdown(); err != nil {
		log.SetOutput(os.Stderr)
		log.SetFlags(0)
		log.Printf("Error shutting down API server: %v", err)
	}

	log.Println("Servers shut down successfully")
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
