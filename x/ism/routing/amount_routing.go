package routing

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"github.com/holiman/uint256"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/ism/types"
)

var _ coretypes.InterchainSecurityModule = (*AmountRoutingIsm)(nil)

// AmountRoutingIsm verifies token transfers of at least threshold with upper
// and smaller ones with lower.
type AmountRoutingIsm struct {
	env     *coretypes.Env
	address util.HexAddress

	lower     util.HexAddress
	upper     util.HexAddress
	threshold *uint256.Int
}

func NewAmountRoutingIsm(env *coretypes.Env, lower, upper util.HexAddress, threshold *uint256.Int) (*AmountRoutingIsm, error) {
	for _, ism := range []util.HexAddress{lower, upper} {
		if _, err := env.Ism(ism); err != nil {
			return nil, err
		}
	}

	m := &AmountRoutingIsm{
		env:       env,
		address:   env.NextAddress(AmountRoutingClass),
		lower:     lower,
		upper:     upper,
		threshold: new(uint256.Int).Set(threshold),
	}
	if err := env.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *AmountRoutingIsm) Address() util.HexAddress {
	return m.address
}

func (m *AmountRoutingIsm) ModuleType() uint8 {
	return coretypes.ModuleTypeRouting
}

func (m *AmountRoutingIsm) Route(message util.HyperlaneMessage) (util.HexAddress, error) {
	amount, err := util.ParseTokenAmount(message.Body)
	if err != nil {
		return util.HexAddress{}, errorsmod.Wrap(types.ErrInvalidTokenMessage, err.Error())
	}
	if amount.Cmp(m.threshold) >= 0 {
		return m.upper, nil
	}
	return m.lower, nil
}

func (m *AmountRoutingIsm) Verify(ctx context.Context, metadata []byte, message util.HyperlaneMessage) (bool, error) {
	route, err := m.Route(message)
	if err != nil {
		return false, err
	}
	ism, err := m.env.Ism(route)
	if err != nil {
		return false, err
	}
	return ism.Verify(ctx, metadata, message)
}
