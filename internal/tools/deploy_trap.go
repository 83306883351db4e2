package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/models"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/services"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/utils"
)

func NewDeployTrapTool(orchestrator services.OrchestratorService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("deploy_trap",
		mcp.WithDescription("Deploy a trap contract to a target network and track it in the shared registry. Returns a deployment id; use get_deployment_status to follow the attempt to a terminal state."),
		mcp.WithString("trap_type",
			mcp.Description("Trap type to deploy (Honeypot, MonitoringTrap, ReentrancyGuard, FlashLoanDetector)"),
			mcp.Required(),
		),
		mcp.WithString("name",
			mcp.Description("Human-readable name for the trap"),
			mcp.Required(),
		),
		mcp.WithString("description",
			mcp.Description("Optional description of what the trap watches for"),
		),
		mcp.WithString("chain_id",
			mcp.Description("Target chain id (e.g. 1 for Ethereum mainnet, 560048 for Hoodi)"),
			mcp.Required(),
		),
		mcp.WithString("deployer_address",
			mcp.Description("Address that signs and broadcasts the deployment"),
			mcp.Required(),
		),
		mcp.WithString("gas_limit",
			mcp.Description("Optional gas limit override. Overrides win over estimated values"),
		),
		mcp.WithString("gas_price",
			mcp.Description("Optional gas price override in the smallest native-currency unit"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		trapType := request.GetString("trap_type", "")
		name := request.GetString("name", "")
		description := request.GetString("description", "")
		chainIDStr := request.GetString("chain_id", "")
		deployerAddress := request.GetString("deployer_address", "")

		chainID, err := strconv.ParseUint(chainIDStr, 10, 64)
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: "),
					mcp.NewTextContent(fmt.Sprintf("Invalid chain_id %q: must be a positive integer", chainIDStr)),
				},
			}, nil
		}

		if !utils.IsValidEthereumAddress(deployerAddress) {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: "),
					mcp.NewTextContent(fmt.Sprintf("Invalid deployer_address %q", deployerAddress)),
				},
			}, nil
		}

		var override *models.GasOverride
		gasLimitStr := request.GetString("gas_limit", "")
		gasPriceStr := request.GetString("gas_price", "")
		if gasLimitStr != "" || gasPriceStr != "" {
			override = &models.GasOverride{}
			if gasLimitStr != "" {
				gasLimit, err := strconv.ParseUint(gasLimitStr, 10, 64)
				if err != nil {
					return &mcp.CallToolResult{
						Content: []mcp.Content{
							mcp.NewTextContent("Error: "),
							mcp.NewTextContent(fmt.Sprintf("Invalid gas_limit %q", gasLimitStr)),
						},
					}, nil
				}
				override.GasLimit = gasLimit
			}
			if gasPriceStr != "" {
				gasPrice, ok := new(big.Int).SetString(gasPriceStr, 10)
				if !ok {
					return &mcp.CallToolResult{
						Content: []mcp.Content{
							mcp.NewTextContent("Error: "),
							mcp.NewTextContent(fmt.Sprintf("Invalid gas_price %q", gasPriceStr)),
						},
					}, nil
				}
				override.GasPrice = gasPrice
			}
		}

		deploymentID, err := orchestrator.Submit(models.DeploymentRequest{
			TrapType:        models.TrapType(trapType),
			Name:            name,
			Description:     description,
			ChainID:         chainID,
			DeployerAddress: deployerAddress,
			GasOverride:     override,
		})
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: "),
					mcp.NewTextContent(fmt.Sprintf("Error submitting deployment: %v", err)),
				},
			}, nil
		}

		result := map[string]interface{}{
			"deployment_id": deploymentID,
			"trap_type":     trapType,
			"chain_id":      chainID,
		}
		resultJSON, _ := json.Marshal(result)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent("Deployment submitted: "),
				mcp.NewTextContent(string(resultJSON)),
			},
		}, nil
	}

	return tool, handler
}
