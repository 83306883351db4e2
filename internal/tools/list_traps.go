package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/models"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/services"
)

func NewListTrapsTool(registry services.RegistryService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("list_traps",
		mcp.WithDescription("List registered traps with pagination, filtered by deployer address or trap type."),
		mcp.WithString("deployer",
			mcp.Description("Filter by deployer address. Leave empty to filter by trap type instead"),
		),
		mcp.WithString("trap_type",
			mcp.Description("Filter by trap type (Honeypot, MonitoringTrap, ReentrancyGuard, FlashLoanDetector)"),
		),
		mcp.WithString("page",
			mcp.Description("Page number for pagination (default: 1)"),
		),
		mcp.WithString("limit",
			mcp.Description("Number of traps per page (default: 10, max: 100)"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		deployer := request.GetString("deployer", "")
		trapType := request.GetString("trap_type", "")
		pageStr := request.GetString("page", "1")
		limitStr := request.GetString("limit", "10")

		// Parse pagination parameters
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			page = 1
		}

		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			limit = 10
		}
		if limit > 100 {
			limit = 100
		}

		var entries []models.RegistryEntry
		switch {
		case deployer != "":
			entries, err = registry.EntriesByDeployer(deployer)
		case trapType != "":
			entries, err = registry.EntriesByType(models.TrapType(trapType))
		default:
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: "),
					mcp.NewTextContent("Provide a deployer or trap_type filter"),
				},
			}, nil
		}
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: "),
					mcp.NewTextContent(fmt.Sprintf("Error retrieving traps: %v", err)),
				},
			}, nil
		}

		// Calculate pagination
		totalCount := len(entries)
		totalPages := (totalCount + limit - 1) / limit
		startIndex := (page - 1) * limit
		endIndex := startIndex + limit

		var paginated []models.RegistryEntry
		if startIndex < totalCount {
			if endIndex > totalCount {
				endIndex = totalCount
			}
			paginated = entries[startIndex:endIndex]
		}

		result := map[string]interface{}{
			"traps": paginated,
			"pagination": map[string]interface{}{
				"current_page": page,
				"total_pages":  totalPages,
				"page_size":    limit,
				"total_count":  totalCount,
				"has_next":     page < totalPages,
				"has_previous": page > 1,
			},
			"filters": map[string]interface{}{
				"deployer":  deployer,
				"trap_type": trapType,
			},
		}

		resultJSON, _ := json.Marshal(result)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent("Registered traps: "),
				mcp.NewTextContent(string(resultJSON)),
			},
		}, nil
	}

	return tool, handler
}
