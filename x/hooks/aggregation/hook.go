// Package aggregation implements a hook that runs a fixed list of child hooks
// on every dispatch.
package aggregation

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/hooks/types"
)

// ContractClass is used to derive aggregation hook addresses.
const ContractClass = "static_aggregation_hook"

var _ coretypes.PostDispatchHook = (*Hook)(nil)

type Hook struct {
	env     *coretypes.Env
	address util.HexAddress
	hooks   []util.HexAddress
}

// NewHook deploys an aggregation of hooks, run in the given order.
func NewHook(env *coretypes.Env, hooks []util.HexAddress) (*Hook, error) {
	if len(hooks) == 0 {
		return nil, errorsmod.Wrap(types.ErrInvalidConfig, "no hooks")
	}
	for _, hook := range hooks {
		if _, err := env.Hook(hook); err != nil {
			return nil, err
		}
	}

	h := &Hook{
		env:     env,
		address: env.NextAddress(ContractClass),
		hooks:   append([]util.HexAddress(nil), hooks...),
	}
	if err := env.Register(h); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Hook) Address() util.HexAddress {
	return h.address
}

func (h *Hook) HookType() uint8 {
	return coretypes.HookTypeAggregation
}

func (h *Hook) Hooks() []util.HexAddress {
	return append([]util.HexAddress(nil), h.hooks...)
}

// QuoteDispatch is the sum of the child quotes.
func (h *Hook) QuoteDispatch(ctx context.Context, metadata []byte, message util.HyperlaneMessage) (math.Int, error) {
	total := math.ZeroInt()
	for _, hook := range h.hooks {
		quote, err := h.env.QuoteHook(ctx, hook, metadata, message)
		if err != nil {
			return math.Int{}, errorsmod.Wrapf(err, "hook %s", hook)
		}
		if total, err = util.AddAmounts(total, quote); err != nil {
			return math.Int{}, errorsmod.Wrapf(types.ErrInvalidMetadata, "hook %s: %s", hook, err)
		}
	}
	return total, nil
}

// PostDispatch pays every child its own quote and refunds what is left to
// the metadata refund address, the message sender by default.
func (h *Hook) PostDispatch(ctx context.Context, metadata []byte, message util.HyperlaneMessage, payment math.Int) error {
	md, err := types.ParseMetadata(metadata)
	if err != nil {
		return err
	}

	remaining := payment
	for _, hook := range h.hooks {
		quote, err := h.env.QuoteHook(ctx, hook, metadata, message)
		if err != nil {
			return errorsmod.Wrapf(err, "hook %s", hook)
		}
		if remaining.LT(quote) {
			return errorsmod.Wrapf(coretypes.ErrInsufficientPayment, "hook %s requires %s, %s left", hook, quote, remaining)
		}
		if err := h.env.CallHook(ctx, h.address, hook, metadata, message, quote); err != nil {
			return errorsmod.Wrapf(err, "hook %s", hook)
		}
		remaining = remaining.Sub(quote)
	}

	if remaining.IsPositive() {
		refundAddress := md.RefundAddress(message.Sender)
		if err := h.env.Transfer(ctx, h.address, refundAddress, remaining); err != nil {
			return errorsmod.Wrap(coretypes.ErrRefundFailed, err.Error())
		}
		sdk.UnwrapSDKContext(ctx).Logger().Debug("refunded aggregation overpayment", "amount", remaining.String(), "to", refundAddress.String())
	}
	return nil
}
