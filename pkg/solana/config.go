package solana

import "strings"

type Environment string

const (
	EnvironmentDev  Environment = "https://api.devnet.solana.com"
	EnvironmentTest Environment = "https://api.testnet.solana.com"
	EnvironmentProd Environment = "https://api.mainnet-beta.solana.com"
)

// EnvironmentFromName maps a cluster name to its public RPC endpoint.
// Unknown names select mainnet.
func EnvironmentFromName(name string) Environment {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dev", "devnet":
		return EnvironmentDev
	case "test", "testnet":
		return EnvironmentTest
	default:
		return EnvironmentProd
	}
}
