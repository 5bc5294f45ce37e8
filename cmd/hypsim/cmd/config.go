package cmd

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/celestiaorg/hyperlane-core/app"
	"github.com/celestiaorg/hyperlane-core/pkg/util"
)

const (
	// EnvPrefix prefixes environment variables overriding config values,
	// e.g. HYPSIM_LOG_LEVEL.
	EnvPrefix = "HYPSIM"

	ConfigFileName = "config.toml"
)

// Config is the simulated network and the traffic sent over it.
type Config struct {
	LogLevel  string `mapstructure:"log_level" toml:"log_level"`
	LogFormat string `mapstructure:"log_format" toml:"log_format"`
	// MetricsAddress serves prometheus metrics when set.
	MetricsAddress string `mapstructure:"metrics_address" toml:"metrics_address"`

	BlockTime string `mapstructure:"block_time" toml:"block_time"`
	Rounds    int    `mapstructure:"rounds" toml:"rounds"`
	// Messages is the number of messages sent per route and round.
	Messages int `mapstructure:"messages" toml:"messages"`

	// Sender dispatches every message and is funded with Funds on every
	// chain.
	Sender string `mapstructure:"sender" toml:"sender"`
	Funds  string `mapstructure:"funds" toml:"funds"`

	Relayer RelayerConfig     `mapstructure:"relayer" toml:"relayer"`
	Chains  []app.ChainConfig `mapstructure:"chains" toml:"chains"`
}

// RelayerConfig holds the hex encoded validator keys the relayer signs
// checkpoints with.
type RelayerConfig struct {
	Address       string   `mapstructure:"address" toml:"address"`
	ValidatorKeys []string `mapstructure:"validator_keys" toml:"validator_keys"`
}

// DefaultConfig returns a fully connected network of domains 1..chains
// secured by validators fresh keys, threshold of which must sign.
func DefaultConfig(chains, validators int, threshold uint8) (Config, error) {
	if chains < 1 {
		return Config{}, errors.New("at least one chain is required")
	}
	if validators < 1 || int(threshold) > validators || threshold == 0 {
		return Config{}, fmt.Errorf("threshold %d of %d validators", threshold, validators)
	}

	cfg := Config{
		LogLevel:  "info",
		LogFormat: app.LogFormatPlain,
		BlockTime: "6s",
		Rounds:    3,
		Messages:  5,
		Sender:    util.CreateHexAddress("hypsim_sender", 0, 0).String(),
		Funds:     "1000000000000",
		Relayer: RelayerConfig{
			Address: util.CreateHexAddress("hypsim_relayer", 0, 0).String(),
		},
	}

	addresses := make([]string, 0, validators)
	for i := 0; i < validators; i++ {
		key, err := crypto.GenerateKey()
		if err != nil {
			return Config{}, err
		}
		cfg.Relayer.ValidatorKeys = append(cfg.Relayer.ValidatorKeys, fmt.Sprintf("%x", crypto.FromECDSA(key)))
		addresses = append(addresses, crypto.PubkeyToAddress(key.PublicKey).Hex())
	}

	owner := util.CreateHexAddress("hypsim_owner", 0, 0)
	for local := uint32(1); local <= uint32(chains); local++ {
		chain := app.DefaultChainConfig(local, owner)
		for remote := uint32(1); remote <= uint32(chains); remote++ {
			if remote == local {
				continue
			}
			chain.GasOracles = append(chain.GasOracles, app.GasOracleConfig{
				Domain:            remote,
				TokenExchangeRate: "10000000000",
				GasPrice:          "1",
				GasOverhead:       10_000,
			})
			chain.ValidatorSets = append(chain.ValidatorSets, app.ValidatorSetConfig{
				Origin:     remote,
				Threshold:  threshold,
				Validators: addresses,
			})
		}
		cfg.Chains = append(cfg.Chains, chain)
	}
	return cfg, nil
}

// ValidateBasic checks the config and every chain in it.
func (c Config) ValidateBasic() error {
	if _, err := c.blockTime(); err != nil {
		return err
	}
	if c.Rounds < 0 || c.Messages < 0 {
		return errors.New("rounds and messages must not be negative")
	}
	if _, err := util.DecodeHexAddress(c.Sender); err != nil {
		return fmt.Errorf("sender: %w", err)
	}
	if _, err := util.DecodeHexAddress(c.Relayer.Address); err != nil {
		return fmt.Errorf("relayer: %w", err)
	}
	if _, err := c.validatorKeys(); err != nil {
		return err
	}
	if len(c.Chains) == 0 {
		return errors.New("no chains configured")
	}
	for _, chain := range c.Chains {
		if err := chain.ValidateBasic(); err != nil {
			return fmt.Errorf("domain %d: %w", chain.Domain, err)
		}
	}
	return nil
}

func (c Config) blockTime() (time.Duration, error) {
	d, err := time.ParseDuration(c.BlockTime)
	if err != nil {
		return 0, fmt.Errorf("block time: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("block time %s must be positive", d)
	}
	return d, nil
}

func (c Config) validatorKeys() ([]*ecdsa.PrivateKey, error) {
	keys := make([]*ecdsa.PrivateKey, 0, len(c.Relayer.ValidatorKeys))
	for i, hex := range c.Relayer.ValidatorKeys {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(hex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("validator key %d: %w", i, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// WriteConfig writes cfg as TOML into home.
func WriteConfig(home string, cfg Config) (string, error) {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return "", err
	}
	bz, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}
	path := filepath.Join(home, ConfigFileName)
	if err := os.WriteFile(path, bz, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// LoadConfig reads the config file in home. Environment variables prefixed
// with EnvPrefix override top level values.
func LoadConfig(home string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(home, ConfigFileName))
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.ValidateBasic(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
