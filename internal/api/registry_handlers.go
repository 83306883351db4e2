package api

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/models"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/services"
	"gorm.io/gorm"
)

func (s *APIServer) handleRegister(c *fiber.Ctx) error {
	var args services.RegisterArgs
	if err := c.BodyParser(&args); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body: " + err.Error(),
		})
	}

	entry, err := s.registry.Register(args)
	if err != nil {
		var validationErrs validator.ValidationErrors
		switch {
		case errors.As(err, &validationErrs):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Validation failed: " + err.Error(),
			})
		case errors.Is(err, services.ErrUnauthorized):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(entry)
}

func (s *APIServer) handleDeactivate(c *fiber.Ctx) error {
	var body struct {
		Requester string `json:"requester"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body: " + err.Error(),
		})
	}

	err := s.registry.Deactivate(c.Params("address"), body.Requester)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Trap not found",
			})
		case errors.Is(err, services.ErrUnauthorized):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"status": "deactivated"})
}

func (s *APIServer) handleEntryByAddress(c *fiber.Ctx) error {
	entry, err := s.registry.EntryByAddress(c.Params("address"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Trap not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(entry)
}

func (s *APIServer) handleListEntries(c *fiber.Ctx) error {
	deployer := c.Query("deployer")
	trapType := c.Query("trap_type")

	var entries []models.RegistryEntry
	var err error
	switch {
	case deployer != "":
		entries, err = s.registry.EntriesByDeployer(deployer)
	case trapType != "":
		entries, err = s.registry.EntriesByType(models.TrapType(trapType))
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Provide a deployer or trap_type filter",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"entries": entries, "count": len(entries)})
}

func (s *APIServer) handleRegistryStats(c *fiber.Ctx) error {
	stats, err := s.registry.Stats()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(stats)
}
