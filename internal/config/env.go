package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"

	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

// EnvPrefix prefixes every environment override, e.g. VEROX_RPC.
const EnvPrefix = "VEROX"

// envOverrides lists the variables ApplyEnvironment honors. Nil or empty
// means unset.
type envOverrides struct {
	Home            *string `split_words:"true"`
	RPC             *string `split_words:"true"`
	ChainID         *int64  `split_words:"true"`
	Storage         *string `split_words:"true"`
	LogLevel        *string `split_words:"true"`
	OutputFormat    *string `split_words:"true"`
	Verbose         *bool   `split_words:"true"`
	AutoLockSeconds *int    `split_words:"true"`
}

// ApplyEnvironment applies VEROX_* environment variables on top of cfg.
// A malformed value (VEROX_CHAIN_ID=abc) is CONFIG_INVALID.
func ApplyEnvironment(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return veroxerr.WrapWith(veroxerr.ErrConfigInvalid, err)
	}

	if nonEmpty(env.Home) {
		cfg.Home = *env.Home
	}
	if nonEmpty(env.RPC) {
		cfg.Network.RPC = strings.TrimSpace(*env.RPC)
	}
	if env.ChainID != nil {
		cfg.Network.ChainID = *env.ChainID
	}
	if nonEmpty(env.Storage) {
		cfg.Storage.Backend = strings.ToLower(*env.Storage)
	}
	if nonEmpty(env.LogLevel) {
		cfg.Logging.Level = strings.ToLower(*env.LogLevel)
	}
	if nonEmpty(env.OutputFormat) {
		cfg.Output.DefaultFormat = strings.ToLower(*env.OutputFormat)
	}
	if env.Verbose != nil {
		cfg.Output.Verbose = *env.Verbose
	}
	if env.AutoLockSeconds != nil {
		cfg.Security.AutoLockSeconds = *env.AutoLockSeconds
	}
	return nil
}

func nonEmpty(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}
