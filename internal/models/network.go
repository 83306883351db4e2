package models

// NetworkProfile describes the connection parameters for a supported chain.
// Profiles are loaded once at construction and never mutated at runtime.
type NetworkProfile struct {
	ChainID          uint64            `json:"chain_id"`
	Name             string            `json:"name"`
	RPC              string            `json:"rpc"`
	CurrencySymbol   string            `json:"currency_symbol"`
	CurrencyDecimals uint8             `json:"currency_decimals"`
	ExplorerURL      string            `json:"explorer_url"`
	// ContractAddresses holds well-known contract addresses on this network,
	// e.g. the on-chain registry contract.
	ContractAddresses map[string]string `json:"contract_addresses,omitempty"`
}
