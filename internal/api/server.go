package api

import (
	"fmt"
	"log"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/services"
)

// APIServer exposes the orchestrator and registry over HTTP. It is glue for
// external callers; all semantics live in the services it delegates to.
type APIServer struct {
	app          *fiber.App
	orchestrator services.OrchestratorService
	registry     services.RegistryService
	networks     services.NetworkService
	port         int
}

func NewAPIServer(orchestrator services.OrchestratorService, registry services.RegistryService, networks services.NetworkService) *APIServer {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Add middleware
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	server := &APIServer{
		app:          app,
		orchestrator: orchestrator,
		registry:     registry,
		networks:     networks,
	}
	server.setupRoutes()
	return server
}

func (s *APIServer) setupRoutes() {
	// Deployment orchestration routes
	s.app.Post("/api/deployments", s.handleSubmitDeployment)
	s.app.Get("/api/deployments/:id", s.handleDeploymentStatus)
	s.app.Post("/api/deployments/:id/cancel", s.handleCancelDeployment)

	// Registry routes
	s.app.Post("/api/registry", s.handleRegister)
	s.app.Get("/api/registry/stats", s.handleRegistryStats)
	s.app.Get("/api/registry/:address", s.handleEntryByAddress)
	s.app.Post("/api/registry/:address/deactivate", s.handleDeactivate)
	s.app.Get("/api/registry", s.handleListEntries)

	// Network profiles
	s.app.Get("/api/networks/:chain_id", s.handleNetworkProfile)

	// Health check
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})
}

// Start starts the server. A nil port picks a random available one.
func (s *APIServer) Start(port *int) (int, error) {
	listenPort := 0
	if port != nil {
		listenPort = *port
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", listenPort))
	if err != nil {
		return 0, fmt.Errorf("failed to listen on port %d: %w", listenPort, err)
	}

	s.port = listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	go func() {
		if err := s.app.Listen(fmt.Sprintf(":%d", s.port)); err != nil {
			log.Printf("Error starting API server: %v\n", err)
		}
	}()

	return s.port, nil
}

// GetPort returns the port the server is listening on
func (s *APIServer) GetPort() int {
	return s.port
}

// Shutdown gracefully shuts down the server
func (s *APIServer) Shutdown() error {
	return s.app.Shutdown()
}
