package services

import (
	"context"
	"fmt"

	"github.com/trapdeck-lab/trapdeck-mcp/internal/chain"
	"github.com/trapdeck-lab/trapdeck-mcp/internal/models"
)

// NetworkService resolves logical network identifiers to their connection
// parameters and keeps the attached client on the expected network.
type NetworkService interface {
	// Resolve returns the profile for a chain id, or
	// chain.ErrUnsupportedNetwork when no profile is configured.
	Resolve(chainID uint64) (*models.NetworkProfile, error)
	// EnsureActive makes sure the client is attached to chainID, switching
	// (and registering the network first if necessary) on mismatch. May
	// block on a user approval prompt; cancel through ctx.
	EnsureActive(ctx context.Context, chainID uint64) error
}

type networkService struct {
	client   chain.Client
	profiles map[uint64]models.NetworkProfile
}

// NewNetworkService creates a NetworkService over an immutable profile set.
func NewNetworkService(client chain.Client, profiles []models.NetworkProfile) NetworkService {
	byID := make(map[uint64]models.NetworkProfile, len(profiles))
	for _, p := range profiles {
		byID[p.ChainID] = p
	}
	return &networkService{client: client, profiles: byID}
}

// DefaultNetworkProfiles returns the built-in set of supported networks.
func DefaultNetworkProfiles() []models.NetworkProfile {
	return []models.NetworkProfile{
		{
			ChainID:          1,
			Name:             "Ethereum Mainnet",
			RPC:              "https://eth.llamarpc.com",
			CurrencySymbol:   "ETH",
			CurrencyDecimals: 18,
			ExplorerURL:      "https://etherscan.io",
		},
		{
			ChainID:          11155111,
			Name:             "Sepolia",
			RPC:              "https://rpc.sepolia.org",
			CurrencySymbol:   "ETH",
			CurrencyDecimals: 18,
			ExplorerURL:      "https://sepolia.etherscan.io",
		},
		{
			ChainID:          560048,
			Name:             "Hoodi",
			RPC:              "https://rpc.hoodi.ethpandaops.io",
			CurrencySymbol:   "ETH",
			CurrencyDecimals: 18,
			ExplorerURL:      "https://hoodi.etherscan.io",
		},
	}
}

func (s *networkService) Resolve(chainID uint64) (*models.NetworkProfile, error) {
	profile, ok := s.profiles[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: chain id %d", chain.ErrUnsupportedNetwork, chainID)
	}
	return &profile, nil
}

func (s *networkService) EnsureActive(ctx context.Context, chainID uint64) error {
	profile, err := s.Resolve(chainID)
	if err != nil {
		return err
	}

	current, err := s.client.GetNetwork(ctx)
	if err != nil {
		return fmt.Errorf("failed to read attached network: %w", err)
	}
	if current == chainID {
		return nil
	}

	if err := s.client.SwitchNetwork(ctx, chainID, profile); err != nil {
		return err
	}

	return nil
}
