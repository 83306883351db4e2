package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RegistryService is the single source of truth for which traps have been
// deployed by whom. Registration is at-most-once per contract address;
// entries are deactivated, never deleted.
type RegistryService interface {
	// Register records a deployment. Calling it again for the same contract
	// address is a no-op that returns the existing entry, which makes the
	// registry step safe to retry after a confirmed deployment.
	Register(args RegisterArgs) (*models.RegistryEntry, error)
	// Deactivate flips the active flag. Permitted only for the original
	// deployer or an administrative principal.
	Deactivate(contractAddress, requester string) error
	EntryByAddress(contractAddress string) (*models.RegistryEntry, error)
	EntriesByDeployer(deployerAddress string) ([]models.RegistryEntry, error)
	EntriesByType(trapType models.TrapType) ([]models.RegistryEntry, error)
	// Stats derives both counters from the entry set so they cannot drift.
	Stats() (*models.RegistryStats, error)
}

// RegisterArgs are the inputs to Register.
type RegisterArgs struct {
	ContractAddress string          `json:"contract_address" validate:"required,eth_addr"`
	TrapType        models.TrapType `json:"trap_type" validate:"required"`
	DeployerAddress string          `json:"deployer_address" validate:"required,eth_addr"`
	TransactionHash string          `json:"transaction_hash" validate:"required"`
	ChainID         uint64          `json:"chain_id" validate:"required"`
	Metadata        models.JSON     `json:"metadata,omitempty"`
}

// RegistryConfig controls who may register. With OpenRegistration set, any
// deployer is accepted; otherwise only addresses in AuthorizedDeployers.
// Admins may deactivate entries they did not deploy.
type RegistryConfig struct {
	OpenRegistration    bool
	AuthorizedDeployers []string
	Admins              []string
}

type registryService struct {
	db        *gorm.DB
	cfg       RegistryConfig
	deployers map[string]struct{}
	admins    map[string]struct{}
	validator *validator.Validate
}

// NewRegistryService creates a RegistryService backed by db.
func NewRegistryService(db *gorm.DB, cfg RegistryConfig) RegistryService {
	deployers := make(map[string]struct{}, len(cfg.AuthorizedDeployers))
	for _, addr := range cfg.AuthorizedDeployers {
		deployers[strings.ToLower(addr)] = struct{}{}
	}
	admins := make(map[string]struct{}, len(cfg.Admins))
	for _, addr := range cfg.Admins {
		admins[strings.ToLower(addr)] = struct{}{}
	}
	return &registryService{
		db:        db,
		cfg:       cfg,
		deployers: deployers,
		admins:    admins,
		validator: validator.New(),
	}
}

func (s *registryService) Register(args RegisterArgs) (*models.RegistryEntry, error) {
	if err := s.validator.Struct(args); err != nil {
		return nil, err
	}

	deployer := strings.ToLower(args.DeployerAddress)
	if !s.cfg.OpenRegistration {
		if _, ok := s.deployers[deployer]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, args.DeployerAddress)
		}
	}

	now := time.Now()
	entry := models.RegistryEntry{
		ContractAddress: strings.ToLower(args.ContractAddress),
		TrapType:        args.TrapType,
		DeployerAddress: deployer,
		TransactionHash: args.TransactionHash,
		ChainID:         args.ChainID,
		IsActive:        true,
		Metadata:        args.Metadata,
		CreatedAt:       now,
		LastActivityAt:  now,
	}

	// The unique index on contract_address makes the insert an atomic
	// insert-if-absent: concurrent registrations for the same address
	// serialize in the database while unrelated addresses proceed in
	// parallel. The loser of the race falls through to the lookup below and
	// observes the winner's entry.
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contract_address"}},
		DoNothing: true,
	}).Create(&entry)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to register trap: %w", result.Error)
	}

	return s.EntryByAddress(entry.ContractAddress)
}

func (s *registryService) Deactivate(contractAddress, requester string) error {
	entry, err := s.EntryByAddress(contractAddress)
	if err != nil {
		return err
	}

	req := strings.ToLower(requester)
	if req != entry.DeployerAddress {
		if _, ok := s.admins[req]; !ok {
			return fmt.Errorf("%w: %s may not deactivate trap %d", ErrUnauthorized, requester, entry.ID)
		}
	}

	return s.db.Model(&models.RegistryEntry{}).
		Where("id = ?", entry.ID).
		Updates(map[string]interface{}{
			"is_active":        false,
			"last_activity_at": time.Now(),
		}).Error
}

func (s *registryService) EntryByAddress(contractAddress string) (*models.RegistryEntry, error) {
	var entry models.RegistryEntry
	err := s.db.Where("contract_address = ?", strings.ToLower(contractAddress)).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *registryService) EntriesByDeployer(deployerAddress string) ([]models.RegistryEntry, error) {
	var entries []models.RegistryEntry
	err := s.db.Where("deployer_address = ?", strings.ToLower(deployerAddress)).Find(&entries).Error
	return entries, err
}

func (s *registryService) EntriesByType(trapType models.TrapType) ([]models.RegistryEntry, error) {
	var entries []models.RegistryEntry
	err := s.db.Where("trap_type = ?", trapType).Find(&entries).Error
	return entries, err
}

func (s *registryService) Stats() (*models.RegistryStats, error) {
	var stats models.RegistryStats
	if err := s.db.Model(&models.RegistryEntry{}).Count(&stats.TotalTraps).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.RegistryEntry{}).Distinct("deployer_address").Count(&stats.TotalDeployers).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
