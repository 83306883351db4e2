package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/services"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/utils"
	"gorm.io/gorm"
)

func NewGetRegistryStatsTool(registry services.RegistryService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("get_registry_stats",
		mcp.WithDescription("Get registry counters: total registered traps and total distinct deployers."),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := registry.Stats()
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: "),
					mcp.NewTextContent(fmt.Sprintf("Error retrieving stats: %v", err)),
				},
			}, nil
		}

		resultJSON, _ := json.Marshal(stats)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent("Registry stats: "),
				mcp.NewTextContent(string(resultJSON)),
			},
		}, nil
	}

	return tool, handler
}

func NewDeactivateTrapTool(registry services.RegistryService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("deactivate_trap",
		mcp.WithDescription("Deactivate a registered trap. Permitted only for the original deployer or a registry administrator; the entry is kept, never deleted."),
		mcp.WithString("contract_address",
			mcp.Description("Contract address of the trap to deactivate"),
			mcp.Required(),
		),
		mcp.WithString("requester",
			mcp.Description("Address requesting the deactivation"),
			mcp.Required(),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		contractAddress := request.GetString("contract_address", "")
		requester := request.GetString("requester", "")

		if !utils.IsValidEthereumAddress(contractAddress) || !utils.IsValidEthereumAddress(requester) {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: "),
					mcp.NewTextContent("contract_address and requester must be valid addresses"),
				},
			}, nil
		}

		err := registry.Deactivate(contractAddress, requester)
		if err != nil {
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				return &mcp.CallToolResult{
					Content: []mcp.Content{
						mcp.NewTextContent("Error: "),
						mcp.NewTextContent(fmt.Sprintf("No trap registered at %s", contractAddress)),
					},
				}, nil
			case errors.Is(err, services.ErrUnauthorized):
				return &mcp.CallToolResult{
					Content: []mcp.Content{
						mcp.NewTextContent("Error: "),
						mcp.NewTextContent(fmt.Sprintf("Unauthorized: %v", err)),
					},
				}, nil
			}
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: "),
					mcp.NewTextContent(fmt.Sprintf("Error deactivating trap: %v", err)),
				},
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent("Trap deactivated: "),
				mcp.NewTextContent(contractAddress),
			},
		}, nil
	}

	return tool, handler
}
