package models

import (
	"fmt"
	"time"
)

// DeploymentState is the lifecycle state of one deployment attempt.
type DeploymentState string

const (
	DeploymentStateCreated           DeploymentState = "created"
	DeploymentStateEstimatingGas     DeploymentState = "estimating_gas"
	DeploymentStateAwaitingSignature DeploymentState = "awaiting_signature"
	DeploymentStateBroadcast         DeploymentState = "broadcast"
	DeploymentStateConfirming        DeploymentState = "confirming"
	DeploymentStateConfirmed         DeploymentState = "confirmed"
	DeploymentStateFailed            DeploymentState = "failed"
	DeploymentStateCancelled         DeploymentState = "cancelled"
)

// Terminal reports whether the state ends the attempt. A record in a terminal
// state is never mutated again.
func (s DeploymentState) Terminal() bool {
	switch s {
	case DeploymentStateConfirmed, DeploymentStateFailed, DeploymentStateCancelled:
		return true
	}
	return false
}

// FailureKind classifies why an attempt reached the failed state.
type FailureKind string

const (
	FailureEstimation         FailureKind = "estimation_error"
	FailureSignatureRejected  FailureKind = "signature_rejected"
	FailureNetworkMismatch    FailureKind = "network_mismatch"
	FailureUnsupportedNetwork FailureKind = "unsupported_network"
	FailureUserRejectedSwitch FailureKind = "user_rejected_switch"
	FailureBroadcast          FailureKind = "broadcast_error"
	FailureReverted           FailureKind = "reverted"
	FailureTimeout            FailureKind = "confirmation_timeout"
	FailureNetwork            FailureKind = "network_error"
)

// DeploymentError is the terminal error attached to a failed attempt. It
// always carries a kind plus whatever diagnostic fields are known at the time
// of failure.
type DeploymentError struct {
	Kind          FailureKind `json:"kind"`
	Message       string      `json:"message"`
	TxHash        string      `json:"tx_hash,omitempty"`
	Confirmations uint64      `json:"confirmations,omitempty"`
}

func (e *DeploymentError) Error() string {
	if e.TxHash != "" {
		return fmt.Sprintf("%s: %s (tx %s, %d confirmations)", e.Kind, e.Message, e.TxHash, e.Confirmations)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// DeploymentRequest describes one trap deployment as submitted by the caller.
// Requests are consumed once and never mutated after submission.
type DeploymentRequest struct {
	TrapType        TrapType     `json:"trap_type" validate:"required"`
	Name            string       `json:"name" validate:"required"`
	Description     string       `json:"description"`
	ChainID         uint64       `json:"chain_id" validate:"required"`
	DeployerAddress string       `json:"deployer_address" validate:"required,eth_addr"`
	GasOverride     *GasOverride `json:"gas_override,omitempty"`
	// ComplexityMultiplier scales the fallback base gas figure. Zero means
	// no scaling.
	ComplexityMultiplier float64 `json:"complexity_multiplier,omitempty"`
	// Config is the trap-type specific configuration payload. Opaque to the
	// orchestrator; recorded in registry metadata on success.
	Config JSON `json:"config,omitempty"`
}

// DeploymentRecord tracks one deployment attempt through its lifecycle.
// Mutated only by the orchestrator; immutable once State is terminal.
type DeploymentRecord struct {
	ID              string            `json:"id"`
	State           DeploymentState   `json:"state"`
	Request         DeploymentRequest `json:"request"`
	Estimate        *GasEstimate      `json:"estimate,omitempty"`
	TransactionHash string            `json:"transaction_hash,omitempty"`
	ContractAddress string            `json:"contract_address,omitempty"`
	Confirmations   uint64            `json:"confirmations"`
	Error           *DeploymentError  `json:"error,omitempty"`
	// RegistryWarning is set when the contract confirmed on-chain but the
	// registry write failed. The attempt still counts as confirmed.
	RegistryWarning string `json:"registry_warning,omitempty"`
	RegistryTrapID  uint   `json:"registry_trap_id,omitempty"`
	// Transitions holds the time each state was entered.
	Transitions map[DeploymentState]time.Time `json:"transitions"`
	CreatedAt   time.Time                     `json:"created_at"`
	UpdatedAt   time.Time                     `json:"updated_at"`
}

// Clone returns a snapshot safe to hand to callers while the orchestrator
// keeps mutating the original.
func (r *DeploymentRecord) Clone() DeploymentRecord {
	out := *r
	out.Transitions = make(map[DeploymentState]time.Time, len(r.Transitions))
	for k, v := range r.Transitions {
		out.Transitions[k] = v
	}
	if r.Error != nil {
		errCopy := *r.Error
		out.Error = &errCopy
	}
	if r.Estimate != nil {
		estCopy := *r.Estimate
		out.Estimate = &estCopy
	}
	return out
}
