package app

import (
	"errors"
	"fmt"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
	"github.com/celestiaorg/hyperlane-core/x/hooks/igp"
)

// DefaultDenom is the native denom of chains that do not configure one.
const DefaultDenom = "uhyp"

// GasOracleConfig prices gas on one remote domain. Amounts are decimal
// strings so 256 bit values survive TOML and environment variables.
type GasOracleConfig struct {
	Domain            uint32 `mapstructure:"domain" toml:"domain"`
	TokenExchangeRate string `mapstructure:"token_exchange_rate" toml:"token_exchange_rate"`
	GasPrice          string `mapstructure:"gas_price" toml:"gas_price"`
	GasOverhead       uint64 `mapstructure:"gas_overhead" toml:"gas_overhead"`
}

// ValidatorSetConfig is the multisig validator set trusted for messages from
// Origin.
type ValidatorSetConfig struct {
	Origin     uint32   `mapstructure:"origin" toml:"origin"`
	Threshold  uint8    `mapstructure:"threshold" toml:"threshold"`
	Validators []string `mapstructure:"validators" toml:"validators"`
}

// ChainConfig describes one domain and the configuration of its core
// contracts.
type ChainConfig struct {
	Domain uint32 `mapstructure:"domain" toml:"domain"`
	Denom  string `mapstructure:"denom" toml:"denom"`
	// Owner owns every contract deployed on the chain.
	Owner string `mapstructure:"owner" toml:"owner"`
	// Beneficiary receives claimed gas payments. Defaults to Owner.
	Beneficiary   string               `mapstructure:"beneficiary" toml:"beneficiary"`
	GasOracles    []GasOracleConfig    `mapstructure:"gas_oracles" toml:"gas_oracles"`
	ValidatorSets []ValidatorSetConfig `mapstructure:"validator_sets" toml:"validator_sets"`
}

// DefaultChainConfig returns a config for domain owned by owner, with no
// remote domains.
func DefaultChainConfig(domain uint32, owner util.HexAddress) ChainConfig {
	return ChainConfig{
		Domain: domain,
		Denom:  DefaultDenom,
		Owner:  owner.String(),
	}
}

// ValidateBasic checks the config without touching any state.
func (c ChainConfig) ValidateBasic() error {
	if c.Domain == 0 {
		return errors.New("domain must be non zero")
	}
	if _, err := c.owner(); err != nil {
		return err
	}
	if _, err := c.beneficiary(); err != nil {
		return err
	}
	if _, err := c.gasConfigs(); err != nil {
		return err
	}

	origins := make(map[uint32]bool, len(c.ValidatorSets))
	for _, set := range c.ValidatorSets {
		if origins[set.Origin] {
			return fmt.Errorf("duplicate validator set for origin %d", set.Origin)
		}
		origins[set.Origin] = true
		if _, err := set.addresses(); err != nil {
			return err
		}
		if set.Threshold == 0 || int(set.Threshold) > len(set.Validators) {
			return fmt.Errorf("origin %d: threshold %d of %d validators", set.Origin, set.Threshold, len(set.Validators))
		}
	}
	return nil
}

func (c ChainConfig) owner() (util.HexAddress, error) {
	owner, err := util.DecodeHexAddress(c.Owner)
	if err != nil {
		return util.HexAddress{}, fmt.Errorf("owner: %w", err)
	}
	return owner, nil
}

func (c ChainConfig) beneficiary() (util.HexAddress, error) {
	if c.Beneficiary == "" {
		return c.owner()
	}
	beneficiary, err := util.DecodeHexAddress(c.Beneficiary)
	if err != nil {
		return util.HexAddress{}, fmt.Errorf("beneficiary: %w", err)
	}
	return beneficiary, nil
}

func (c ChainConfig) gasConfigs() ([]igp.DestinationGasConfigEntry, error) {
	entries := make([]igp.DestinationGasConfigEntry, 0, len(c.GasOracles))
	for _, oracle := range c.GasOracles {
		rate, ok := math.NewIntFromString(oracle.TokenExchangeRate)
		if !ok {
			return nil, fmt.Errorf("domain %d: invalid token exchange rate %q", oracle.Domain, oracle.TokenExchangeRate)
		}
		price, ok := math.NewIntFromString(oracle.GasPrice)
		if !ok {
			return nil, fmt.Errorf("domain %d: invalid gas price %q", oracle.Domain, oracle.GasPrice)
		}
		gasConfig := igp.DestinationGasConfig{TokenExchangeRate: rate, GasPrice: price, GasOverhead: oracle.GasOverhead}
		if err := gasConfig.ValidateBasic(); err != nil {
			return nil, fmt.Errorf("domain %d: %w", oracle.Domain, err)
		}
		entries = append(entries, igp.DestinationGasConfigEntry{Domain: oracle.Domain, Config: gasConfig})
	}
	return entries, nil
}

func (s ValidatorSetConfig) addresses() ([]common.Address, error) {
	addrs := make([]common.Address, 0, len(s.Validators))
	for _, v := range s.Validators {
		if !common.IsHexAddress(v) {
			return nil, fmt.Errorf("origin %d: invalid validator address %q", s.Origin, v)
		}
		addrs = append(addrs, common.HexToAddress(v))
	}
	return addrs, nil
}
