package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/models"
)

// EIP-1193 provider error codes surfaced by wallet-mediated endpoints.
const (
	rpcCodeUserRejected      = 4001
	rpcCodeDisconnectedChain = 4901
	rpcCodeUnrecognizedChain = 4902
)

// RPCClient is a Client backed by a wallet-mediated JSON-RPC endpoint.
// Signing requests are forwarded to the endpoint, which is responsible for
// prompting the user; the client itself never sees a private key.
type RPCClient struct {
	URL     string
	client  *http.Client
	timeout time.Duration
}

// NewRPCClient creates a new RPC client with the given URL
func NewRPCClient(url string) *RPCClient {
	return &RPCClient{
		URL:     url,
		client:  &http.Client{},
		timeout: 30 * time.Second,
	}
}

// SetTimeout sets the timeout for RPC requests
func (r *RPCClient) SetTimeout(timeout time.Duration) {
	r.timeout = timeout
	r.client.Timeout = timeout
}

// JSONRPCRequest represents a JSON-RPC request
type JSONRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

// JSONRPCResponse represents a JSON-RPC response
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents an RPC error
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// transactionReceipt is the subset of an Ethereum receipt the client reads.
type transactionReceipt struct {
	TransactionHash string `json:"transactionHash"`
	BlockNumber     string `json:"blockNumber"`
	ContractAddress string `json:"contractAddress"`
	Status          string `json:"status"`
	From            string `json:"from"`
}

// Call makes a JSON-RPC call
func (r *RPCClient) Call(ctx context.Context, method string, params []interface{}) (*JSONRPCResponse, error) {
	request := JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: r.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	var response JSONRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if response.Error != nil {
		return nil, response.Error
	}

	return &response, nil
}

// GetNetwork returns the chain id the endpoint is attached to.
func (r *RPCClient) GetNetwork(ctx context.Context) (uint64, error) {
	response, err := r.Call(ctx, "eth_chainId", []interface{}{})
	if err != nil {
		return 0, err
	}

	var chainIDHex string
	if err := json.Unmarshal(response.Result, &chainIDHex); err != nil {
		return 0, fmt.Errorf("invalid chain id format: %w", err)
	}

	chainID, err := hexutil.DecodeUint64(chainIDHex)
	if err != nil {
		return 0, fmt.Errorf("failed to decode chain id %q: %w", chainIDHex, err)
	}

	return chainID, nil
}

// SignAndBroadcast forwards a contract-creation transaction to the wallet
// endpoint for signing and submission.
func (r *RPCClient) SignAndBroadcast(ctx context.Context, payload TxPayload) (BroadcastResult, error) {
	tx := map[string]interface{}{
		"from": payload.From,
		"data": payload.Data,
	}
	if payload.Value != nil && payload.Value.Sign() > 0 {
		tx["value"] = hexutil.EncodeBig(payload.Value)
	}
	if payload.GasLimit > 0 {
		tx["gas"] = hexutil.EncodeUint64(payload.GasLimit)
	}
	if payload.GasPrice != nil && payload.GasPrice.Sign() > 0 {
		tx["gasPrice"] = hexutil.EncodeBig(payload.GasPrice)
	}

	response, err := r.Call(ctx, "eth_sendTransaction", []interface{}{tx})
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			switch rpcErr.Code {
			case rpcCodeUserRejected:
				return BroadcastResult{}, ErrUserRejected
			case rpcCodeDisconnectedChain:
				return BroadcastResult{}, ErrNetworkMismatch
			}
		}
		return BroadcastResult{}, err
	}

	var txHash string
	if err := json.Unmarshal(response.Result, &txHash); err != nil {
		return BroadcastResult{}, fmt.Errorf("invalid transaction hash format: %w", err)
	}

	return BroadcastResult{TxHash: txHash, From: payload.From}, nil
}

// GetTransactionStatus reports whether the transaction is mined, reverted and
// how many confirmations it has accumulated.
func (r *RPCClient) GetTransactionStatus(ctx context.Context, txHash string) (TxStatus, error) {
	response, err := r.Call(ctx, "eth_getTransactionReceipt", []interface{}{txHash})
	if err != nil {
		return TxStatus{}, err
	}

	// A null receipt means the transaction is known but not yet mined.
	if len(response.Result) == 0 || bytes.Equal(response.Result, []byte("null")) {
		return TxStatus{Mined: false}, nil
	}

	var receipt transactionReceipt
	if err := json.Unmarshal(response.Result, &receipt); err != nil {
		return TxStatus{}, fmt.Errorf("failed to unmarshal receipt: %w", err)
	}

	blockNumber, err := hexutil.DecodeUint64(receipt.BlockNumber)
	if err != nil {
		return TxStatus{}, fmt.Errorf("failed to decode receipt block number: %w", err)
	}

	head, err := r.blockNumber(ctx)
	if err != nil {
		return TxStatus{}, err
	}

	var confirmations uint64
	if head >= blockNumber {
		confirmations = head - blockNumber + 1
	}

	return TxStatus{
		Mined:           true,
		Reverted:        receipt.Status != "0x1",
		Confirmations:   confirmations,
		ContractAddress: receipt.ContractAddress,
	}, nil
}

// SwitchNetwork asks the wallet to attach to chainID, registering the network
// first when the wallet does not recognize it.
func (r *RPCClient) SwitchNetwork(ctx context.Context, chainID uint64, profile *models.NetworkProfile) error {
	err := r.switchChain(ctx, chainID)
	if err == nil {
		return nil
	}

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		return err
	}

	switch rpcErr.Code {
	case rpcCodeUserRejected:
		return ErrUserRejectedSwitch
	case rpcCodeUnrecognizedChain:
		if profile == nil {
			return ErrUnsupportedNetwork
		}
	default:
		return err
	}

	if err := r.addChain(ctx, profile); err != nil {
		if errors.As(err, &rpcErr) && rpcErr.Code == rpcCodeUserRejected {
			return ErrUserRejectedSwitch
		}
		return fmt.Errorf("%w: %v", ErrUnsupportedNetwork, err)
	}

	if err := r.switchChain(ctx, chainID); err != nil {
		if errors.As(err, &rpcErr) && rpcErr.Code == rpcCodeUserRejected {
			return ErrUserRejectedSwitch
		}
		return err
	}

	return nil
}

// EstimateGas queries the network for a gas limit and current gas price.
func (r *RPCClient) EstimateGas(ctx context.Context, payload TxPayload) (uint64, *big.Int, error) {
	tx := map[string]interface{}{
		"from": payload.From,
		"data": payload.Data,
	}
	if payload.Value != nil && payload.Value.Sign() > 0 {
		tx["value"] = hexutil.EncodeBig(payload.Value)
	}

	response, err := r.Call(ctx, "eth_estimateGas", []interface{}{tx})
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return 0, nil, fmt.Errorf("%w: %v", ErrEstimateUnavailable, rpcErr)
		}
		return 0, nil, err
	}

	var gasHex string
	if err := json.Unmarshal(response.Result, &gasHex); err != nil {
		return 0, nil, fmt.Errorf("invalid gas estimate format: %w", err)
	}
	gasLimit, err := hexutil.DecodeUint64(gasHex)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to decode gas estimate %q: %w", gasHex, err)
	}

	priceResponse, err := r.Call(ctx, "eth_gasPrice", []interface{}{})
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return 0, nil, fmt.Errorf("%w: %v", ErrEstimateUnavailable, rpcErr)
		}
		return 0, nil, err
	}

	var priceHex string
	if err := json.Unmarshal(priceResponse.Result, &priceHex); err != nil {
		return 0, nil, fmt.Errorf("invalid gas price format: %w", err)
	}
	gasPrice, err := hexutil.DecodeBig(priceHex)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to decode gas price %q: %w", priceHex, err)
	}

	return gasLimit, gasPrice, nil
}

func (r *RPCClient) switchChain(ctx context.Context, chainID uint64) error {
	_, err := r.Call(ctx, "wallet_switchEthereumChain", []interface{}{
		map[string]interface{}{"chainId": hexutil.EncodeUint64(chainID)},
	})
	return err
}

func (r *RPCClient) addChain(ctx context.Context, profile *models.NetworkProfile) error {
	param := map[string]interface{}{
		"chainId":   hexutil.EncodeUint64(profile.ChainID),
		"chainName": profile.Name,
		"rpcUrls":   []string{profile.RPC},
		"nativeCurrency": map[string]interface{}{
			"symbol":   profile.CurrencySymbol,
			"decimals": profile.CurrencyDecimals,
		},
	}
	if profile.ExplorerURL != "" {
		param["blockExplorerUrls"] = []string{profile.ExplorerURL}
	}

	_, err := r.Call(ctx, "wallet_addEthereumChain", []interface{}{param})
	return err
}

func (r *RPCClient) blockNumber(ctx context.Context) (uint64, error) {
	response, err := r.Call(ctx, "eth_blockNumber", []interface{}{})
	if err != nil {
		return 0, err
	}

	var headHex string
	if err := json.Unmarshal(response.Result, &headHex); err != nil {
		return 0, fmt.Errorf("invalid block number format: %w", err)
	}

	head, err := hexutil.DecodeUint64(headHex)
	if err != nil {
		return 0, fmt.Errorf("failed to decode block number %q: %w", headHex, err)
	}

	return head, nil
}
