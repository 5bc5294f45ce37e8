package igp

import (
	"encoding/binary"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"github.com/holiman/uint256"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
	"github.com/celestiaorg/hyperlane-core/x/hooks/types"
)

// TokenExchangeRateScale is the fixed point scale of exchange rates.
var TokenExchangeRateScale = math.NewInt(10_000_000_000)

var exchangeRateScale = uint256.NewInt(10_000_000_000)

// DestinationGasConfig prices gas on one destination in the local native
// denom. TokenExchangeRate is scaled by TokenExchangeRateScale.
type DestinationGasConfig struct {
	TokenExchangeRate math.Int
	GasPrice          math.Int
	GasOverhead       uint64
}

// DestinationGasConfigEntry is a single SetDestinationGasConfigs update.
type DestinationGasConfigEntry struct {
	Domain uint32
	Config DestinationGasConfig
}

// ValidateBasic rejects negative and 256 bit overflowing values.
func (c DestinationGasConfig) ValidateBasic() error {
	if _, err := util.Uint256FromInt(c.TokenExchangeRate); err != nil {
		return errorsmod.Wrapf(types.ErrInvalidConfig, "token exchange rate: %s", err)
	}
	if _, err := util.Uint256FromInt(c.GasPrice); err != nil {
		return errorsmod.Wrapf(types.ErrInvalidConfig, "gas price: %s", err)
	}
	return nil
}

// Quote is the local cost of gasLimit units of destination gas. Products
// are computed on 256 bit words and a gas limit whose cost overflows is
// rejected as invalid metadata.
func (c DestinationGasConfig) Quote(gasLimit math.Int) (math.Int, error) {
	limit, err := util.Uint256FromInt(gasLimit)
	if err != nil {
		return math.Int{}, errorsmod.Wrapf(types.ErrInvalidMetadata, "gas limit: %s", err)
	}
	price, err := util.Uint256FromInt(c.GasPrice)
	if err != nil {
		return math.Int{}, errorsmod.Wrapf(types.ErrInvalidConfig, "gas price: %s", err)
	}
	rate, err := util.Uint256FromInt(c.TokenExchangeRate)
	if err != nil {
		return math.Int{}, errorsmod.Wrapf(types.ErrInvalidConfig, "token exchange rate: %s", err)
	}

	cost, overflow := new(uint256.Int).MulOverflow(limit, price)
	if !overflow {
		cost, overflow = cost.MulOverflow(cost, rate)
	}
	if overflow {
		return math.Int{}, errorsmod.Wrapf(types.ErrInvalidMetadata, "cost of gas limit %s overflows 256 bits", gasLimit)
	}
	return util.IntFromUint256(cost.Div(cost, exchangeRateScale)), nil
}

const gasConfigLength = 32 + 32 + 8

func (c DestinationGasConfig) Bytes() []byte {
	out := make([]byte, gasConfigLength)
	putInt(out[0:32], c.TokenExchangeRate)
	putInt(out[32:64], c.GasPrice)
	binary.BigEndian.PutUint64(out[64:], c.GasOverhead)
	return out
}

func ParseDestinationGasConfig(bz []byte) (DestinationGasConfig, error) {
	if len(bz) != gasConfigLength {
		return DestinationGasConfig{}, fmt.Errorf("invalid gas config length %d", len(bz))
	}
	return DestinationGasConfig{
		TokenExchangeRate: util.IntFromUint256(new(uint256.Int).SetBytes(bz[0:32])),
		GasPrice:          util.IntFromUint256(new(uint256.Int).SetBytes(bz[32:64])),
		GasOverhead:       binary.BigEndian.Uint64(bz[64:]),
	}, nil
}

// DestinationGasConfigValue stores a DestinationGasConfig in collections.
var DestinationGasConfigValue = util.NewValueCodec("hyperlane/DestinationGasConfig", DestinationGasConfig.Bytes, ParseDestinationGasConfig)

// putInt writes a validated non-negative amount as a 256 bit word.
func putInt(dst []byte, v math.Int) {
	word, err := util.Uint256FromInt(v)
	if err != nil {
		panic(err)
	}
	word.PutUint256(dst)
}
