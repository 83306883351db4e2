package api

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/models"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/services"
)

func (s *APIServer) handleSubmitDeployment(c *fiber.Ctx) error {
	var req models.DeploymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body: " + err.Error(),
		})
	}

	deploymentID, err := s.orchestrator.Submit(req)
	if err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Validation failed: " + err.Error(),
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"deployment_id": deploymentID,
	})
}

func (s *APIServer) handleDeploymentStatus(c *fiber.Ctx) error {
	record, err := s.orchestrator.GetStatus(c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrDeploymentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Deployment not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(record)
}

func (s *APIServer) handleCancelDeployment(c *fiber.Ctx) error {
	err := s.orchestrator.Cancel(c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrDeploymentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Deployment not found",
			})
		}
		if errors.Is(err, services.ErrTooLate) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "too_late",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"status": "cancelled"})
}

func (s *APIServer) handleNetworkProfile(c *fiber.Ctx) error {
	chainID, err := c.ParamsInt("chain_id")
	if err != nil || chainID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid chain id",
		})
	}

	profile, err := s.networks.Resolve(uint64(chainID))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(profile)
}
