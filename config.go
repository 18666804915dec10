package anchorarmy

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Config collects everything needed to stand up a ClientSigner and an
// Engine from the environment.
type Config struct {
	RPCEndpoint   string `mapstructure:"rpc_endpoint"`
	PrivateKeyHex string `mapstructure:"private_key"`

	ContractAddress string `mapstructure:"contract_address"`

	GasLimit uint64 `mapstructure:"gas_limit"`

	MaxAttempts         int           `mapstructure:"max_attempts"`
	AttemptDelay        time.Duration `mapstructure:"attempt_delay"`
	Confirmations       uint64        `mapstructure:"confirmations"`
	ConfirmationTimeout time.Duration `mapstructure:"confirmation_timeout"`

	RedisAddr string        `mapstructure:"redis_addr"`
	RedisTTL  time.Duration `mapstructure:"redis_ttl"`
}

// LoadConfig reads configuration from the environment, prefixed with
// ANCHOR_ (e.g. ANCHOR_RPC_ENDPOINT). Unset knobs fall back to the engine
// defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ANCHOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("max_attempts", DefaultMaxAttempts)
	v.SetDefault("attempt_delay", DefaultAttemptDelay)
	v.SetDefault("confirmations", DefaultConfirmations)
	v.SetDefault("confirmation_timeout", DefaultConfirmationTimeout)

	// viper only unmarshals env-backed keys that it has seen
	for _, key := range []string{
		"rpc_endpoint", "private_key", "contract_address", "gas_limit",
		"redis_addr", "redis_ttl",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Join(ErrConfiguration, fmt.Errorf("couldn't bind %s: %w", key, err))
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Join(ErrConfiguration, fmt.Errorf("couldn't parse configuration: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields that cannot be defaulted.
func (c *Config) Validate() error {
	if c.RPCEndpoint == "" {
		return errors.Join(ErrConfiguration, fmt.Errorf("rpc endpoint is required"))
	}
	if c.PrivateKeyHex == "" {
		return errors.Join(ErrConfiguration, fmt.Errorf("private key is required"))
	}
	if c.ContractAddress != "" && !common.IsHexAddress(c.ContractAddress) {
		return errors.Join(ErrConfiguration, fmt.Errorf("invalid contract address %q", c.ContractAddress))
	}
	if c.MaxAttempts < 1 {
		return errors.Join(ErrConfiguration, fmt.Errorf("max attempts must be at least 1, got %d", c.MaxAttempts))
	}
	return nil
}

// EngineOptions translates the config into engine options. The store option
// is not included; build it separately so its lifecycle can be managed by
// the caller.
func (c *Config) EngineOptions() []EngineOption {
	opts := []EngineOption{
		WithMaxAttempts(c.MaxAttempts),
		WithAttemptDelay(c.AttemptDelay),
		WithConfirmations(c.Confirmations),
		WithConfirmationTimeout(c.ConfirmationTimeout),
	}
	if c.ContractAddress != "" {
		opts = append(opts, WithContract(common.HexToAddress(c.ContractAddress)))
	}
	if c.GasLimit > 0 {
		opts = append(opts, WithGasLimitOverride(c.GasLimit))
	}
	return opts
}
