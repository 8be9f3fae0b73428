// Package config provides configuration management for verox.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/naoina/toml"
	"gopkg.in/yaml.v3"

	"github.com/verox-wallet/verox/internal/chain"
	"github.com/verox-wallet/verox/internal/fileutil"
	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version  int            `yaml:"version" toml:"version"`
	Home     string         `yaml:"home" toml:"home"`
	Network  NetworkConfig  `yaml:"network" toml:"network"`
	Vault    VaultConfig    `yaml:"vault" toml:"vault"`
	Storage  StorageConfig  `yaml:"storage" toml:"storage"`
	Security SecurityConfig `yaml:"security" toml:"security"`
	Ledger   LedgerConfig   `yaml:"ledger" toml:"ledger"`
	Output   OutputConfig   `yaml:"output" toml:"output"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// NetworkConfig defines the chain node the wallet talks to.
type NetworkConfig struct {
	RPC            string        `yaml:"rpc" toml:"rpc"`
	ChainID        int64         `yaml:"chain_id" toml:"chain_id"` // 0 reads it from the node
	NativeSymbol   string        `yaml:"native_symbol" toml:"native_symbol"`
	Tokens         []chain.Token `yaml:"tokens" toml:"tokens"`
	TimeoutSeconds int           `yaml:"timeout_seconds" toml:"timeout_seconds"`
	RateLimit      float64       `yaml:"rate_limit" toml:"rate_limit"` // requests per second, 0 = unlimited
	RateBurst      int           `yaml:"rate_burst" toml:"rate_burst"`
}

// VaultConfig defines how the wallet secret is encrypted at rest.
type VaultConfig struct {
	Method           string `yaml:"method" toml:"method"` // argon2id or age
	Argon2MemoryKiB  uint32 `yaml:"argon2_memory_kib" toml:"argon2_memory_kib"`
	Argon2Time       uint32 `yaml:"argon2_time" toml:"argon2_time"`
	Argon2Threads    uint8  `yaml:"argon2_threads" toml:"argon2_threads"`
	ScryptWorkFactor int    `yaml:"scrypt_work_factor" toml:"scrypt_work_factor"`
}

// StorageConfig selects the key/value backend for the vault and ledger.
type StorageConfig struct {
	Backend string `yaml:"backend" toml:"backend"`
	Path    string `yaml:"path" toml:"path"` // relative paths resolve against Home
}

// SecurityConfig defines security settings.
type SecurityConfig struct {
	MinPasswordLength int  `yaml:"min_password_length" toml:"min_password_length"`
	MnemonicWords     int  `yaml:"mnemonic_words" toml:"mnemonic_words"`
	RequireBiometric  bool `yaml:"require_biometric" toml:"require_biometric"`
	AutoLockSeconds   int  `yaml:"auto_lock_seconds" toml:"auto_lock_seconds"` // 0 disables
}

// LedgerConfig bounds the local transaction history.
type LedgerConfig struct {
	MaxRecords int `yaml:"max_records" toml:"max_records"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" toml:"default_format"`
	Verbose       bool   `yaml:"verbose" toml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level       string `yaml:"level" toml:"level"`
	File        string `yaml:"file" toml:"file"`
	MaxAgeHours int    `yaml:"max_age_hours" toml:"max_age_hours"`
	RotateHours int    `yaml:"rotate_hours" toml:"rotate_hours"`
}

// Load reads configuration from path. Files ending in .toml are parsed as
// TOML, anything else as YAML. Unset fields keep their defaults.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, veroxerr.WrapWith(veroxerr.ErrConfigInvalid, fmt.Errorf("parsing %s: %w", path, err))
	}
	return cfg, nil
}

// Save writes configuration to path in the format its extension implies.
func Save(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	if err := fileutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return fileutil.WriteAtomic(path, data, fileutil.FilePerm)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Path returns the config file inside home, preferring an existing
// config.toml over config.yaml.
func Path(home string) string {
	tomlPath := filepath.Join(home, "config.toml")
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath
	}
	return filepath.Join(home, "config.yaml")
}

// DefaultHome returns the default verox home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".verox"
	}
	return filepath.Join(home, ".verox")
}

// ExpandHome resolves a leading "~/" against the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Validate checks the values that would otherwise fail deep inside a
// service.
func (c *Config) Validate() error {
	invalid := func(field, value string) error {
		return veroxerr.WithDetails(veroxerr.ErrConfigInvalid, map[string]string{field: value})
	}

	if strings.TrimSpace(c.Network.RPC) == "" {
		return invalid("network.rpc", "empty")
	}
	if c.Network.ChainID < 0 {
		return invalid("network.chain_id", fmt.Sprint(c.Network.ChainID))
	}
	switch c.Vault.Method {
	case "argon2id", "age":
	default:
		return invalid("vault.method", c.Vault.Method)
	}
	switch c.Storage.Backend {
	case "file", "sqlite", "leveldb", "memory":
	default:
		return invalid("storage.backend", c.Storage.Backend)
	}
	if c.Security.MnemonicWords != 12 && c.Security.MnemonicWords != 24 {
		return invalid("security.mnemonic_words", fmt.Sprint(c.Security.MnemonicWords))
	}
	if c.Security.MinPasswordLength < 1 {
		return invalid("security.min_password_length", fmt.Sprint(c.Security.MinPasswordLength))
	}
	if c.Security.AutoLockSeconds < 0 {
		return invalid("security.auto_lock_seconds", fmt.Sprint(c.Security.AutoLockSeconds))
	}
	for _, tok := range c.Network.Tokens {
		if tok.Address == "" || tok.Symbol == "" {
			return invalid("network.tokens", tok.Symbol+tok.Address)
		}
	}
	return nil
}

// HomeDir returns Home with "~/" expanded.
func (c *Config) HomeDir() string {
	return ExpandHome(c.Home)
}

// StoragePath resolves the storage location against the home directory.
func (c *Config) StoragePath() string {
	p := ExpandHome(c.Storage.Path)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.HomeDir(), p)
}

// LogPath resolves the log file against the home directory. Empty means no
// log file.
func (c *Config) LogPath() string {
	if c.Logging.File == "" {
		return ""
	}
	p := ExpandHome(c.Logging.File)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.HomeDir(), p)
}

// RPCTimeout returns the per-call timeout.
func (c *Config) RPCTimeout() time.Duration {
	return time.Duration(c.Network.TimeoutSeconds) * time.Second
}

// AutoLock returns the idle auto-lock duration, 0 when disabled.
func (c *Config) AutoLock() time.Duration {
	return time.Duration(c.Security.AutoLockSeconds) * time.Second
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}
