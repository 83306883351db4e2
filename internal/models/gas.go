package models

import "math/big"

type GasEstimateSource string

const (
	GasEstimateSourceLive     GasEstimateSource = "live"
	GasEstimateSourceFallback GasEstimateSource = "fallback"
)

// GasEstimate is the cost estimate for deploying one trap on one network.
// TotalCost is always GasLimit multiplied by GasPrice; use NewGasEstimate so
// the product is recomputed rather than set independently.
type GasEstimate struct {
	GasLimit  uint64            `json:"gas_limit"`
	GasPrice  *big.Int          `json:"gas_price"`
	TotalCost *big.Int          `json:"total_cost"`
	TrapType  TrapType          `json:"trap_type"`
	ChainID   uint64            `json:"chain_id"`
	Source    GasEstimateSource `json:"source"`
}

// NewGasEstimate builds an estimate and derives TotalCost from its factors.
func NewGasEstimate(trapType TrapType, chainID uint64, gasLimit uint64, gasPrice *big.Int, source GasEstimateSource) *GasEstimate {
	total := new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), gasPrice)
	return &GasEstimate{
		GasLimit:  gasLimit,
		GasPrice:  new(big.Int).Set(gasPrice),
		TotalCost: total,
		TrapType:  trapType,
		ChainID:   chainID,
		Source:    source,
	}
}

// GasOverride carries caller-supplied gas parameters. A zero or nil field
// means "use the estimated value".
type GasOverride struct {
	GasLimit uint64   `json:"gas_limit,omitempty"`
	GasPrice *big.Int `json:"gas_price,omitempty"`
}
