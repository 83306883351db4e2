package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/models"
)

func TestGetDeploymentStatusHandler(t *testing.T) {
	ctx := context.Background()
	orchestrator, _ := setupTestServices(t)
	_, handler := NewGetDeploymentStatusTool(orchestrator)

	t.Run("UnknownDeployment", func(t *testing.T) {
		result, err := handler(ctx, callRequest(map[string]interface{}{
			"deployment_id": "no-such-id",
		}))
		require.NoError(t, err)
		require.Len(t, result.Content, 2)
		assert.Equal(t, "Error: ", result.Content[0].(mcp.TextContent).Text)
		assert.Contains(t, result.Content[1].(mcp.TextContent).Text, "not found")
	})

	t.Run("ReturnsRecord", func(t *testing.T) {
		id, err := orchestrator.Submit(models.DeploymentRequest{
			TrapType:        models.TrapTypeHoneypot,
			Name:            "front-door honeypot",
			ChainID:         560048,
			DeployerAddress: testDeployer,
		})
		require.NoError(t, err)
		waitForTerminal(t, orchestrator, id)

		result, err := handler(ctx, callRequest(map[string]interface{}{
			"deployment_id": id,
		}))
		require.NoError(t, err)
		require.Len(t, result.Content, 2)
		assert.Equal(t, "Deployment status: ", result.Content[0].(mcp.TextContent).Text)

		var record models.DeploymentRecord
		require.NoError(t, json.Unmarshal([]byte(result.Content[1].(mcp.TextContent).Text), &record))
		assert.Equal(t, id, record.ID)
		assert.Equal(t, models.DeploymentStateConfirmed, record.State)
		assert.Equal(t, testContractAddress, record.ContractAddress)
	})
}

func TestCancelDeploymentHandler(t *testing.T) {
	ctx := context.Background()
	orchestrator, _ := setupTestServices(t)
	_, handler := NewCancelDeploymentTool(orchestrator)

	t.Run("UnknownDeployment", func(t *testing.T) {
		result, err := handler(ctx, callRequest(map[string]interface{}{
			"deployment_id": "no-such-id",
		}))
		require.NoError(t, err)
		require.Len(t, result.Content, 2)
		assert.Equal(t, "Error: ", result.Content[0].(mcp.TextContent).Text)
		assert.Contains(t, result.Content[1].(mcp.TextContent).Text, "not found")
	})

	t.Run("TooLateAfterBroadcast", func(t *testing.T) {
		id, err := orchestrator.Submit(models.DeploymentRequest{
			TrapType:        models.TrapTypeHoneypot,
			Name:            "front-door honeypot",
			ChainID:         560048,
			DeployerAddress: testDeployer,
		})
		require.NoError(t, err)
		waitForTerminal(t, orchestrator, id)

		result, err := handler(ctx, callRequest(map[string]interface{}{
			"deployment_id": id,
		}))
		require.NoError(t, err)
		require.Len(t, result.Content, 2)
		assert.Equal(t, "Error: ", result.Content[0].(mcp.TextContent).Text)
		assert.Contains(t, result.Content[1].(mcp.TextContent).Text, "Too late to cancel")
	})
}
