package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// NetworkConfig pins one deployment of the claim system: the snapshot
// commitment, the EIP-712 signing domain and the token being paid out.
type NetworkConfig struct {
	// ChainID of the EVM chain the claims are settled on
	ChainID uint64
	// VerifyingContract is the deployment identity claim signatures are
	// bound to
	VerifyingContract common.Address
	// SnapshotRootHash is the Merkle root committing to the UTXO snapshot
	SnapshotRootHash common.Hash
	// WCHITokenAddress is the ERC-20 token paid out on settlement
	WCHITokenAddress common.Address
	// AdminAddress is the designated administrator account
	AdminAddress common.Address
}

const (
	local = "local"
)

//nolint:gomnd
var (
	localConfig = NetworkConfig{
		ChainID:           1337,
		VerifyingContract: common.HexToAddress("0x1111111111111111111111111111111111111111"),
		SnapshotRootHash:  common.Hash{},
		WCHITokenAddress:  common.HexToAddress("0x2222222222222222222222222222222222222222"),
		AdminAddress:      common.HexToAddress("0x3333333333333333333333333333333333333333"),
	}
)

// loadNetworkConfig selects a predefined network preset. Production
// deployments configure the [NetworkConfig] section explicitly, since the
// root hash and contract addresses are fixed per deployment.
func (cfg *Config) loadNetworkConfig(network string) error {
	switch network {
	case local:
		cfg.NetworkConfig = localConfig
	default:
		return fmt.Errorf("unknown network %q, configure the [NetworkConfig] section instead", network)
	}
	return nil
}
