package models

import "time"

// RegistryEntry is the shared record of one deployed trap. The primary key
// doubles as the monotonically increasing trap identifier; the contract
// address is unique across the whole registry. Entries are deactivated, never
// deleted.
type RegistryEntry struct {
	ID              uint      `gorm:"primaryKey" json:"trap_id"`
	ContractAddress string    `gorm:"uniqueIndex;not null" json:"contract_address"`
	TrapType        TrapType  `gorm:"index;not null" json:"trap_type"`
	DeployerAddress string    `gorm:"index;not null" json:"deployer_address"`
	TransactionHash string    `json:"transaction_hash"`
	ChainID         uint64    `gorm:"not null" json:"chain_id"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`
	Metadata        JSON      `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	LastActivityAt  time.Time `json:"last_activity_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// RegistryStats are derived from the entry set, never stored separately, so
// they cannot drift from the entries they count.
type RegistryStats struct {
	TotalTraps     int64 `json:"total_traps"`
	TotalDeployers int64 `json:"total_deployers"`
}
