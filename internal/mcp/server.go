package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/services"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/tools"
)

type MCPServer struct {
	server *server.MCPServer
}

func NewMCPServer(orchestrator services.OrchestratorService, registry services.RegistryService) *MCPServer {
	mcpServer := &MCPServer{}
	mcpServer.InitializeTools(orchestrator, registry)
	return mcpServer
}

func (s *MCPServer) InitializeTools(orchestrator services.OrchestratorService, registry services.RegistryService) {
	srv := server.NewMCPServer(
		"Trapdeck MCP Server",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	// Deployment Tools
	deployTrapTool, deployTrapHandler := tools.NewDeployTrapTool(orchestrator)
	srv.AddTool(deployTrapTool, deployTrapHandler)

	statusTool, statusHandler := tools.NewGetDeploymentStatusTool(orchestrator)
	srv.AddTool(statusTool, statusHandler)

	cancelTool, cancelHandler := tools.NewCancelDeploymentTool(orchestrator)
	srv.AddTool(cancelTool, cancelHandler)

	// Registry Tools
	listTrapsTool, listTrapsHandler := tools.NewListTrapsTool(registry)
	srv.AddTool(listTrapsTool, listTrapsHandler)

	statsTool, statsHandler := tools.NewGetRegistryStatsTool(registry)
	srv.AddTool(statsTool, statsHandler)

	deactivateTool, deactivateHandler := tools.NewDeactivateTrapTool(registry)
	srv.AddTool(deactivateTool, deactivateHandler)

	s.server = srv
}

func (s *MCPServer) Start() error {
	return server.ServeStdio(s.server)
}
