package chain

import (
	"context"
	"errors"
	"math/big"

	"github.com/trapdeck-lab/trapdeck-mcp/internal/models"
)

// Sentinel errors returned by Client implementations. Callers classify with
// errors.Is; everything else is treated as a transient or unknown failure.
var (
	ErrUserRejected        = errors.New("user rejected the signature request")
	ErrUserRejectedSwitch  = errors.New("user rejected the network switch")
	ErrUnsupportedNetwork  = errors.New("network is not supported by the client")
	ErrNetworkMismatch     = errors.New("attached network does not match the target chain")
	ErrEstimateUnavailable = errors.New("live gas estimation is unavailable")
)

// TxPayload is a contract-creation transaction ready for signing. Data holds
// the creation bytecode with encoded constructor arguments appended.
type TxPayload struct {
	From     string
	ChainID  uint64
	Data     string
	Value    *big.Int
	GasLimit uint64
	GasPrice *big.Int
}

// BroadcastResult identifies a transaction that has left the client's control.
type BroadcastResult struct {
	TxHash string
	From   string
}

// TxStatus is the observed status of a broadcast transaction. Confirmations
// and ContractAddress are only meaningful once Mined is true.
type TxStatus struct {
	Mined           bool
	Reverted        bool
	Confirmations   uint64
	ContractAddress string
}

// Client abstracts the wallet-mediated connection to a chain. Concrete
// backends (JSON-RPC wallet bridge, test double) implement it uniformly so
// the orchestrator stays backend-agnostic. All operations may block on user
// interaction or the network and honor context cancellation.
type Client interface {
	// SignAndBroadcast asks the wallet to sign and submit a contract-creation
	// transaction. Returns ErrUserRejected if the user declines and
	// ErrNetworkMismatch if the wallet is attached to a different chain.
	SignAndBroadcast(ctx context.Context, payload TxPayload) (BroadcastResult, error)

	// GetTransactionStatus reports the current status of a transaction. A
	// transaction that is not yet mined reports Mined == false with no error.
	GetTransactionStatus(ctx context.Context, txHash string) (TxStatus, error)

	// GetNetwork returns the chain id the client is currently attached to.
	GetNetwork(ctx context.Context) (uint64, error)

	// SwitchNetwork asks the client to attach to chainID. When the client
	// does not know the network, profile supplies the parameters needed to
	// register it first. Returns ErrUserRejectedSwitch if the user declines
	// and ErrUnsupportedNetwork if the network cannot be registered.
	SwitchNetwork(ctx context.Context, chainID uint64, profile *models.NetworkProfile) error

	// EstimateGas asks the network for a gas limit and gas price for the
	// payload. Returns ErrEstimateUnavailable when the backend cannot
	// estimate, which callers treat as a signal to use their fallback.
	EstimateGas(ctx context.Context, payload TxPayload) (uint64, *big.Int, error)
}
