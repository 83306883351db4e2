package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/chain"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/models"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/traps"
)

// OrchestratorService drives deployment requests through their lifecycle.
// One state machine runs per attempt; attempts share only the registry and,
// indirectly, the network.
type OrchestratorService interface {
	// Submit accepts a request and returns the id of the new attempt. The
	// state machine runs asynchronously; observe it through GetStatus or
	// Subscribe.
	Submit(req models.DeploymentRequest) (string, error)
	// GetStatus returns a snapshot of the attempt's record.
	GetStatus(deploymentID string) (*models.DeploymentRecord, error)
	// Cancel stops an attempt that has not been broadcast yet. Once the
	// transaction has left the client's control it returns ErrTooLate.
	Cancel(deploymentID string) error
	// Subscribe streams record snapshots, starting with the current one.
	// The returned func unsubscribes and closes the channel.
	Subscribe(deploymentID string) (<-chan models.DeploymentRecord, func(), error)
}

// OrchestratorConfig holds the tunable parameters of the confirmation phase.
type OrchestratorConfig struct {
	// ConfirmationThreshold is how many confirmations a mined transaction
	// needs before the attempt counts as confirmed. Higher values trade
	// latency for reorg safety.
	ConfirmationThreshold uint64
	// PollInterval is the fixed delay between status polls.
	PollInterval time.Duration
	// PollBudget bounds the total time spent waiting for confirmation.
	PollBudget time.Duration
	// MaxTransientRetries is how many consecutive failed polls are tolerated
	// before the attempt fails.
	MaxTransientRetries int
}

// DefaultOrchestratorConfig returns the default tuning parameters.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		ConfirmationThreshold: 1,
		PollInterval:          2 * time.Second,
		PollBudget:            5 * time.Minute,
		MaxTransientRetries:   3,
	}
}

type orchestratorService struct {
	cfg       OrchestratorConfig
	client    chain.Client
	networks  NetworkService
	gas       GasService
	registry  RegistryService
	validator *validator.Validate

	mu          sync.RWMutex
	deployments map[string]*deployment
}

// deployment pairs one record with the synchronization state of its machine.
type deployment struct {
	mu     sync.Mutex
	record models.DeploymentRecord
	cancel context.CancelFunc
	// broadcast is the one-way gate: once set, Cancel returns ErrTooLate and
	// the transaction is never resubmitted.
	broadcast bool
	subs      map[chan models.DeploymentRecord]struct{}
}

// NewOrchestratorService creates an OrchestratorService.
func NewOrchestratorService(client chain.Client, networks NetworkService, gas GasService, registry RegistryService, cfg OrchestratorConfig) OrchestratorService {
	return &orchestratorService{
		cfg:         cfg,
		client:      client,
		networks:    networks,
		gas:         gas,
		registry:    registry,
		validator:   validator.New(),
		deployments: make(map[string]*deployment),
	}
}

func (s *orchestratorService) Submit(req models.DeploymentRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", err
	}
	if _, ok := traps.Get(req.TrapType); !ok {
		return "", fmt.Errorf("unknown trap type %q", req.TrapType)
	}

	now := time.Now()
	ctx, cancel := context.WithCancel(context.Background())
	d := &deployment{
		record: models.DeploymentRecord{
			ID:      uuid.New().String(),
			State:   models.DeploymentStateCreated,
			Request: req,
			Transitions: map[models.DeploymentState]time.Time{
				models.DeploymentStateCreated: now,
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		cancel: cancel,
		subs:   make(map[chan models.DeploymentRecord]struct{}),
	}

	s.mu.Lock()
	s.deployments[d.record.ID] = d
	s.mu.Unlock()

	go s.run(ctx, d)

	return d.record.ID, nil
}

func (s *orchestratorService) GetStatus(deploymentID string) (*models.DeploymentRecord, error) {
	d, err := s.get(deploymentID)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	snapshot := d.record.Clone()
	d.mu.Unlock()
	return &snapshot, nil
}

func (s *orchestratorService) Cancel(deploymentID string) error {
	d, err := s.get(deploymentID)
	if err != nil {
		return err
	}

	d.mu.Lock()
	if d.broadcast || d.record.State.Terminal() {
		d.mu.Unlock()
		return ErrTooLate
	}
	now := time.Now()
	d.record.State = models.DeploymentStateCancelled
	d.record.Transitions[models.DeploymentStateCancelled] = now
	d.record.UpdatedAt = now
	cancel := d.cancel
	d.publishLocked()
	d.mu.Unlock()

	cancel()
	return nil
}

func (s *orchestratorService) Subscribe(deploymentID string) (<-chan models.DeploymentRecord, func(), error) {
	d, err := s.get(deploymentID)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan models.DeploymentRecord, 16)
	d.mu.Lock()
	d.subs[ch] = struct{}{}
	ch <- d.record.Clone()
	d.mu.Unlock()

	unsubscribe := func() {
		d.mu.Lock()
		if _, ok := d.subs[ch]; ok {
			delete(d.subs, ch)
			close(ch)
		}
		d.mu.Unlock()
	}
	return ch, unsubscribe, nil
}

func (s *orchestratorService) get(deploymentID string) (*deployment, error) {
	s.mu.RLock()
	d, ok := s.deployments[deploymentID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeploymentNotFound, deploymentID)
	}
	return d, nil
}

// run drives one attempt to a terminal state. Every step before broadcast
// checks for cancellation; after broadcast only the poll budget can end the
// machine early.
func (s *orchestratorService) run(ctx context.Context, d *deployment) {
	req := d.record.Request

	// Network selection happens before any gas work so configuration and
	// user-interaction failures surface without ever reaching EstimatingGas.
	if err := s.networks.EnsureActive(ctx, req.ChainID); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.failNetworkSetup(d, err)
		return
	}

	if !s.transition(d, models.DeploymentStateEstimatingGas) {
		return
	}

	def, _ := traps.Get(req.TrapType)
	payload := chain.TxPayload{
		From:    req.DeployerAddress,
		ChainID: req.ChainID,
		Data:    def.CreationBytecode,
		Value:   big.NewInt(0),
	}

	estimate, err := s.gas.Estimate(ctx, payload, req.TrapType, req.ChainID, EstimateOptions{
		Override:   req.GasOverride,
		Multiplier: req.ComplexityMultiplier,
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.fail(d, models.FailureEstimation, err.Error())
		return
	}
	d.mutate(func(r *models.DeploymentRecord) {
		r.Estimate = estimate
	})
	payload.GasLimit = estimate.GasLimit
	payload.GasPrice = estimate.GasPrice

	if !s.transition(d, models.DeploymentStateAwaitingSignature) {
		return
	}

	// Re-validate the chain id immediately before signing to close the race
	// with a concurrent network switch.
	current, err := s.client.GetNetwork(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.fail(d, models.FailureNetwork, fmt.Sprintf("failed to re-check attached network: %v", err))
		return
	}
	if current != req.ChainID {
		s.fail(d, models.FailureNetworkMismatch, fmt.Sprintf("attached to chain %d, expected %d", current, req.ChainID))
		return
	}

	result, err := s.client.SignAndBroadcast(ctx, payload)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		switch {
		case errors.Is(err, chain.ErrUserRejected):
			s.fail(d, models.FailureSignatureRejected, err.Error())
		case errors.Is(err, chain.ErrNetworkMismatch):
			s.fail(d, models.FailureNetworkMismatch, err.Error())
		default:
			s.fail(d, models.FailureBroadcast, err.Error())
		}
		return
	}

	d.mu.Lock()
	if d.record.State.Terminal() {
		d.mu.Unlock()
		return
	}
	d.broadcast = true
	now := time.Now()
	d.record.State = models.DeploymentStateBroadcast
	d.record.TransactionHash = result.TxHash
	d.record.Transitions[models.DeploymentStateBroadcast] = now
	d.record.UpdatedAt = now
	d.publishLocked()
	d.mu.Unlock()

	s.transition(d, models.DeploymentStateConfirming)
	s.confirm(d, result.TxHash)
}

// confirm polls for the transaction until it confirms, reverts, or the poll
// budget runs out. Post-broadcast the caller cannot cancel, so polling uses a
// background context.
func (s *orchestratorService) confirm(d *deployment, txHash string) {
	ctx := context.Background()
	deadline := time.Now().Add(s.cfg.PollBudget)
	consecutiveErrs := 0

	for {
		status, err := s.client.GetTransactionStatus(ctx, txHash)
		switch {
		case err != nil:
			consecutiveErrs++
			if consecutiveErrs > s.cfg.MaxTransientRetries {
				s.fail(d, models.FailureNetwork, fmt.Sprintf("status polling failed: %v", err))
				return
			}
		case status.Mined && status.Reverted:
			d.mutate(func(r *models.DeploymentRecord) {
				r.Confirmations = status.Confirmations
			})
			s.fail(d, models.FailureReverted, "transaction mined but reverted")
			return
		case status.Mined:
			consecutiveErrs = 0
			d.mutate(func(r *models.DeploymentRecord) {
				r.Confirmations = status.Confirmations
				if status.ContractAddress != "" {
					r.ContractAddress = status.ContractAddress
				}
			})
			if status.Confirmations >= s.cfg.ConfirmationThreshold {
				s.transition(d, models.DeploymentStateConfirmed)
				s.register(d)
				return
			}
		default:
			consecutiveErrs = 0
		}

		if time.Now().After(deadline) {
			s.fail(d, models.FailureTimeout, fmt.Sprintf("no confirmation within %s", s.cfg.PollBudget))
			return
		}
		time.Sleep(s.cfg.PollInterval)
	}
}

// register hands a confirmed deployment to the registry. Registry failure
// never rolls back confirmed status; it is attached as a warning so the
// caller can retry registration without redeploying.
func (s *orchestratorService) register(d *deployment) {
	d.mu.Lock()
	rec := d.record.Clone()
	d.mu.Unlock()

	if rec.ContractAddress == "" {
		d.annotate(func(r *models.DeploymentRecord) {
			r.RegistryWarning = "confirmed without a contract address; registration skipped"
		})
		return
	}

	metadata := models.JSON{
		"name":        rec.Request.Name,
		"description": rec.Request.Description,
	}
	if rec.Request.Config != nil {
		metadata["config"] = map[string]interface{}(rec.Request.Config)
	}

	entry, err := s.registry.Register(RegisterArgs{
		ContractAddress: rec.ContractAddress,
		TrapType:        rec.Request.TrapType,
		DeployerAddress: rec.Request.DeployerAddress,
		TransactionHash: rec.TransactionHash,
		ChainID:         rec.Request.ChainID,
		Metadata:        metadata,
	})
	if err != nil {
		d.annotate(func(r *models.DeploymentRecord) {
			r.RegistryWarning = fmt.Sprintf("registry registration failed: %v", err)
		})
		return
	}

	d.annotate(func(r *models.DeploymentRecord) {
		r.RegistryTrapID = entry.ID
	})
}

// transition advances the record to state. Returns false when the record is
// already terminal, which ends the machine without touching it again.
func (s *orchestratorService) transition(d *deployment, state models.DeploymentState) bool {
	return d.mutate(func(r *models.DeploymentRecord) {
		r.State = state
		r.Transitions[state] = time.Now()
	})
}

func (s *orchestratorService) fail(d *deployment, kind models.FailureKind, message string) {
	d.mutate(func(r *models.DeploymentRecord) {
		r.State = models.DeploymentStateFailed
		r.Transitions[models.DeploymentStateFailed] = time.Now()
		r.Error = &models.DeploymentError{
			Kind:          kind,
			Message:       message,
			TxHash:        r.TransactionHash,
			Confirmations: r.Confirmations,
		}
	})
}

// failNetworkSetup maps network-selection errors onto failure kinds.
func (s *orchestratorService) failNetworkSetup(d *deployment, err error) {
	switch {
	case errors.Is(err, chain.ErrUserRejectedSwitch):
		s.fail(d, models.FailureUserRejectedSwitch, err.Error())
	case errors.Is(err, chain.ErrUnsupportedNetwork):
		s.fail(d, models.FailureUnsupportedNetwork, err.Error())
	default:
		s.fail(d, models.FailureNetwork, err.Error())
	}
}

// mutate applies fn under the deployment lock and publishes a snapshot.
// Refuses to touch a record that already reached a terminal state, which
// guarantees every attempt observes exactly one terminal state.
func (d *deployment) mutate(fn func(*models.DeploymentRecord)) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.record.State.Terminal() {
		return false
	}
	fn(&d.record)
	d.record.UpdatedAt = time.Now()
	d.publishLocked()
	return true
}

// annotate is mutate without the terminal guard. Used only for the registry
// outcome, which by design lands after the record is already Confirmed.
func (d *deployment) annotate(fn func(*models.DeploymentRecord)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&d.record)
	d.record.UpdatedAt = time.Now()
	d.publishLocked()
}

// publishLocked fans a snapshot out to subscribers. Slow subscribers miss
// intermediate snapshots rather than blocking the state machine.
func (d *deployment) publishLocked() {
	snapshot := d.record.Clone()
	for ch := range d.subs {
		select {
		case ch <- snapshot:
		default:
		}
	}
}
