package config

import "github.com/verox-wallet/verox/internal/chain"

// DefaultRPCURL is the default Ethereum RPC endpoint.
// PublicNode requires no API key.
const DefaultRPCURL = "https://ethereum-rpc.publicnode.com"

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.verox",
		Network: NetworkConfig{
			RPC:          DefaultRPCURL,
			ChainID:      1,
			NativeSymbol: "ETH",
			Tokens: []chain.Token{
				{
					Symbol:   "USDC",
					Address:  "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
					Decimals: 6,
				},
			},
			TimeoutSeconds: 30,
			RateLimit:      10,
			RateBurst:      5,
		},
		Vault: VaultConfig{
			Method:           "argon2id",
			Argon2MemoryKiB:  64 * 1024,
			Argon2Time:       3,
			Argon2Threads:    4,
			ScryptWorkFactor: 18,
		},
		Storage: StorageConfig{
			Backend: "file",
			Path:    "data",
		},
		Security: SecurityConfig{
			MinPasswordLength: 8,
			MnemonicWords:     12,
			RequireBiometric:  false,
			AutoLockSeconds:   0, // processes start Locked anyway
		},
		Ledger: LedgerConfig{
			MaxRecords: 50,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level:       "error",
			File:        "verox.log", // relative to Home
			MaxAgeHours: 24 * 7,
			RotateHours: 24,
		},
	}
}
