package routing

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"github.com/holiman/uint256"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/hooks/types"
)

var _ coretypes.PostDispatchHook = (*AmountRoutingHook)(nil)

// AmountRoutingHook splits token transfers by amount: transfers of at least
// threshold go to upper, smaller ones to lower.
type AmountRoutingHook struct {
	env     *coretypes.Env
	address util.HexAddress

	lower     util.HexAddress
	upper     util.HexAddress
	threshold *uint256.Int
}

func NewAmountRoutingHook(env *coretypes.Env, lower, upper util.HexAddress, threshold *uint256.Int) (*AmountRoutingHook, error) {
	for _, hook := range []util.HexAddress{lower, upper} {
		if _, err := env.Hook(hook); err != nil {
			return nil, err
		}
	}

	h := &AmountRoutingHook{
		env:       env,
		address:   env.NextAddress(AmountRoutingClass),
		lower:     lower,
		upper:     upper,
		threshold: new(uint256.Int).Set(threshold),
	}
	if err := env.Register(h); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *AmountRoutingHook) Address() util.HexAddress {
	return h.address
}

func (h *AmountRoutingHook) HookType() uint8 {
	return coretypes.HookTypeAmountRouting
}

func (h *AmountRoutingHook) QuoteDispatch(ctx context.Context, metadata []byte, message util.HyperlaneMessage) (math.Int, error) {
	hook, err := h.Route(message)
	if err != nil {
		return math.Int{}, err
	}
	return h.env.QuoteHook(ctx, hook, metadata, message)
}

func (h *AmountRoutingHook) PostDispatch(ctx context.Context, metadata []byte, message util.HyperlaneMessage, payment math.Int) error {
	hook, err := h.Route(message)
	if err != nil {
		return err
	}
	return h.env.CallHook(ctx, h.address, hook, metadata, message, payment)
}

// Route picks the hook for a token message.
func (h *AmountRoutingHook) Route(message util.HyperlaneMessage) (util.HexAddress, error) {
	amount, err := util.ParseTokenAmount(message.Body)
	if err != nil {
		return util.HexAddress{}, errorsmod.Wrap(types.ErrInvalidTokenMessage, err.Error())
	}
	if amount.Cmp(h.threshold) >= 0 {
		return h.upper, nil
	}
	return h.lower, nil
}
