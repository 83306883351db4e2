package services

import (
	"context"
	"math/big"
	"sync"

	"github.com/trapdeck-lab/trapdeck-mcp/internal/chain"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/models"
)

// fakeChainClient is a configurable chain.Client for service tests. Behavior
// is overridden per test through the function fields; unset fields use the
// happy-path defaults below.
type fakeChainClient struct {
	mu sync.Mutex

	network    uint64
	networkFn  func(call int) (uint64, error)
	switchFn   func(chainID uint64, profile *models.NetworkProfile) error
	estimateFn func(payload chain.TxPayload) (uint64, *big.Int, error)
	signFn     func(ctx context.Context, payload chain.TxPayload) (chain.BroadcastResult, error)
	statusFn   func(call int, txHash string) (chain.TxStatus, error)

	networkCalls  int
	switchCalls   int
	estimateCalls int
	signCalls     int
	statusCalls   int
	switchedTo    uint64
	lastPayload   chain.TxPayload
}

const (
	testTxHash          = "0x8a7d953f45b9da65a1c8ad2c6b1c1a0d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b"
	testContractAddress = "0x9fe46736679d2d9a65f0992f2272de9f3c7fa6e0"
)

func (c *fakeChainClient) GetNetwork(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	c.networkCalls++
	call := c.networkCalls
	fn := c.networkFn
	network := c.network
	c.mu.Unlock()

	if fn != nil {
		return fn(call)
	}
	return network, nil
}

func (c *fakeChainClient) SwitchNetwork(ctx context.Context, chainID uint64, profile *models.NetworkProfile) error {
	c.mu.Lock()
	c.switchCalls++
	fn := c.switchFn
	c.mu.Unlock()

	if fn != nil {
		if err := fn(chainID, profile); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.switchedTo = chainID
	c.network = chainID
	c.mu.Unlock()
	return nil
}

func (c *fakeChainClient) EstimateGas(ctx context.Context, payload chain.TxPayload) (uint64, *big.Int, error) {
	c.mu.Lock()
	c.estimateCalls++
	fn := c.estimateFn
	c.mu.Unlock()

	if fn != nil {
		return fn(payload)
	}
	return 0, nil, chain.ErrEstimateUnavailable
}

func (c *fakeChainClient) SignAndBroadcast(ctx context.Context, payload chain.TxPayload) (chain.BroadcastResult, error) {
	c.mu.Lock()
	c.signCalls++
	c.lastPayload = payload
	fn := c.signFn
	c.mu.Unlock()

	if fn != nil {
		return fn(ctx, payload)
	}
	return chain.BroadcastResult{TxHash: testTxHash, From: payload.From}, nil
}

func (c *fakeChainClient) GetTransactionStatus(ctx context.Context, txHash string) (chain.TxStatus, error) {
	c.mu.Lock()
	c.statusCalls++
	call := c.statusCalls
	fn := c.statusFn
	c.mu.Unlock()

	if fn != nil {
		return fn(call, txHash)
	}
	return chain.TxStatus{Mined: true, Confirmations: 1, ContractAddress: testContractAddress}, nil
}

func (c *fakeChainClient) counts() (network, switches, estimates, signs, statuses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.networkCalls, c.switchCalls, c.estimateCalls, c.signCalls, c.statusCalls
}
