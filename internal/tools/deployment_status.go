package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/services"
)

func NewGetDeploymentStatusTool(orchestrator services.OrchestratorService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("get_deployment_status",
		mcp.WithDescription("Get the current lifecycle state of a deployment attempt, including transaction hash, contract address, confirmations and any terminal error."),
		mcp.WithString("deployment_id",
			mcp.Description("Deployment id returned by deploy_trap"),
			mcp.Required(),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		deploymentID := request.GetString("deployment_id", "")

		record, err := orchestrator.GetStatus(deploymentID)
		if err != nil {
			if errors.Is(err, services.ErrDeploymentNotFound) {
				return &mcp.CallToolResult{
					Content: []mcp.Content{
						mcp.NewTextContent("Error: "),
						mcp.NewTextContent(fmt.Sprintf("Deployment %s not found", deploymentID)),
					},
				}, nil
			}
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: "),
					mcp.NewTextContent(fmt.Sprintf("Error retrieving deployment: %v", err)),
				},
			}, nil
		}

		resultJSON, _ := json.Marshal(record)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent("Deployment status: "),
				mcp.NewTextContent(string(resultJSON)),
			},
		}, nil
	}

	return tool, handler
}

func NewCancelDeploymentTool(orchestrator services.OrchestratorService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("cancel_deployment",
		mcp.WithDescription("Cancel a deployment attempt that has not been broadcast yet. Once the transaction has left the client's control the attempt runs to confirmed or failed and cannot be cancelled."),
		mcp.WithString("deployment_id",
			mcp.Description("Deployment id returned by deploy_trap"),
			mcp.Required(),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		deploymentID := request.GetString("deployment_id", "")

		err := orchestrator.Cancel(deploymentID)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrDeploymentNotFound):
				return &mcp.CallToolResult{
					Content: []mcp.Content{
						mcp.NewTextContent("Error: "),
						mcp.NewTextContent(fmt.Sprintf("Deployment %s not found", deploymentID)),
					},
				}, nil
			case errors.Is(err, services.ErrTooLate):
				return &mcp.CallToolResult{
					Content: []mcp.Content{
						mcp.NewTextContent("Error: "),
						mcp.NewTextContent("Too late to cancel: the transaction has already been broadcast"),
					},
				}, nil
			}
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: "),
					mcp.NewTextContent(fmt.Sprintf("Error cancelling deployment: %v", err)),
				},
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent("Deployment cancelled: "),
				mcp.NewTextContent(deploymentID),
			},
		}, nil
	}

	return tool, handler
}
