// Package traps holds the static catalog of deployable trap types. Each
// entry ships a prebuilt creation artifact; nothing is compiled at runtime.
package traps

import "github.com/trapdeck-lab/trapdeck-mcp/internal/models"

// Definition describes one deployable trap type.
type Definition struct {
	Type        models.TrapType
	Name        string
	Description string
	// BaseGas is the static deployment gas figure used when live estimation
	// is unavailable.
	BaseGas uint64
	// CreationBytecode is the prebuilt contract-creation payload, 0x-prefixed.
	CreationBytecode string
}

var catalog = map[models.TrapType]Definition{
	models.TrapTypeHoneypot: {
		Type:             models.TrapTypeHoneypot,
		Name:             "Honeypot",
		Description:      "Bait contract that records and reports any interaction with its funds",
		BaseGas:          150000,
		CreationBytecode: "0x6080604052348015600f57600080fd5b50610150806100206000396000f3fe",
	},
	models.TrapTypeMonitoring: {
		Type:             models.TrapTypeMonitoring,
		Name:             "Monitoring Trap",
		Description:      "Watches a target contract and emits an alert event on configured conditions",
		BaseGas:          220000,
		CreationBytecode: "0x6080604052348015600f57600080fd5b506101f2806100206000396000f3fe",
	},
	models.TrapTypeReentrancyGuard: {
		Type:             models.TrapTypeReentrancyGuard,
		Name:             "Reentrancy Guard",
		Description:      "Detects reentrant call patterns against a protected target",
		BaseGas:          180000,
		CreationBytecode: "0x6080604052348015600f57600080fd5b506101a4806100206000396000f3fe",
	},
	models.TrapTypeFlashLoanDetector: {
		Type:             models.TrapTypeFlashLoanDetector,
		Name:             "Flash Loan Detector",
		Description:      "Flags same-block borrow and repay cycles touching a watched pool",
		BaseGas:          260000,
		CreationBytecode: "0x6080604052348015600f57600080fd5b5061023a806100206000396000f3fe",
	},
}

// Get returns the definition for a trap type.
func Get(t models.TrapType) (Definition, bool) {
	def, ok := catalog[t]
	return def, ok
}

// List returns all trap definitions.
func List() []Definition {
	out := make([]Definition, 0, len(catalog))
	for _, def := range catalog {
		out = append(out, def)
	}
	return out
}
