// Package routing implements hooks that forward each dispatch to a child hook
// chosen from the message: by destination domain or by token amount.
package routing

import (
	"context"
	"fmt"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/celestiaorg/hyperlane-core/pkg/domainmap"
	"github.com/celestiaorg/hyperlane-core/pkg/util"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/hooks/types"
)

const (
	DomainRoutingClass = "domain_routing_hook"
	AmountRoutingClass = "amount_routing_hook"
)

var (
	HooksKey = collections.NewPrefix(0)
	OwnerKey = collections.NewPrefix(1)
)

var _ coretypes.PostDispatchHook = (*DomainRoutingHook)(nil)

// DomainRoutingHook forwards to the hook configured for the destination of
// the message, or to the fallback hook when one is set.
type DomainRoutingHook struct {
	env     *coretypes.Env
	address util.HexAddress

	// fallback is fixed at deployment, zero when unset.
	fallback util.HexAddress

	hooks  domainmap.Map[util.HexAddress]
	schema collections.Schema

	ownable coretypes.Ownable
}

// NewDomainRoutingHook deploys a routing hook. A zero fallback leaves
// unconfigured destinations unsupported.
func NewDomainRoutingHook(ctx context.Context, env *coretypes.Env, owner, fallback util.HexAddress) (*DomainRoutingHook, error) {
	addr, storeService := env.NewContract(DomainRoutingClass)
	sb := collections.NewSchemaBuilder(storeService)

	h := &DomainRoutingHook{
		env:      env,
		address:  addr,
		fallback: fallback,
		hooks:    domainmap.New(sb, HooksKey, "hooks", util.HexAddressValue),
		ownable:  coretypes.NewOwnable(sb, addr, OwnerKey),
	}

	schema, err := sb.Build()
	if err != nil {
		return nil, err
	}
	h.schema = schema

	if err := h.ownable.InitOwner(ctx, owner); err != nil {
		return nil, err
	}
	if !fallback.IsZeroAddress() {
		if _, err := env.Hook(fallback); err != nil {
			return nil, err
		}
	}
	if err := env.Register(h); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *DomainRoutingHook) Address() util.HexAddress {
	return h.address
}

// HookType depends on whether the hook was deployed with a fallback.
func (h *DomainRoutingHook) HookType() uint8 {
	if h.fallback.IsZeroAddress() {
		return coretypes.HookTypeRouting
	}
	return coretypes.HookTypeFallbackRouting
}

func (h *DomainRoutingHook) Fallback() util.HexAddress {
	return h.fallback
}

func (h *DomainRoutingHook) QuoteDispatch(ctx context.Context, metadata []byte, message util.HyperlaneMessage) (math.Int, error) {
	if _, err := types.ParseMetadata(metadata); err != nil {
		return math.Int{}, err
	}
	hook, err := h.Route(ctx, message.Destination)
	if err != nil {
		return math.Int{}, err
	}
	return h.env.QuoteHook(ctx, hook, metadata, message)
}

// PostDispatch forwards the whole payment to the routed hook.
func (h *DomainRoutingHook) PostDispatch(ctx context.Context, metadata []byte, message util.HyperlaneMessage, payment math.Int) error {
	if _, err := types.ParseMetadata(metadata); err != nil {
		return err
	}
	hook, err := h.Route(ctx, message.Destination)
	if err != nil {
		return err
	}
	return h.env.CallHook(ctx, h.address, hook, metadata, message, payment)
}

// Route returns the hook used for messages to destination.
func (h *DomainRoutingHook) Route(ctx context.Context, destination uint32) (util.HexAddress, error) {
	hook, found, err := h.hooks.Get(ctx, destination)
	if err != nil {
		return util.HexAddress{}, err
	}
	if found {
		return hook, nil
	}

	if h.fallback.IsZeroAddress() {
		return util.HexAddress{}, errorsmod.Wrapf(types.ErrNoRoute, "domain %d", destination)
	}
	return h.fallback, nil
}

// Domains lists every destination with a configured hook.
func (h *DomainRoutingHook) Domains(ctx context.Context) ([]uint32, error) {
	return h.hooks.Domains(ctx)
}

// SetHook routes destination to hook and reports whether destination was
// newly added.
func (h *DomainRoutingHook) SetHook(ctx context.Context, caller util.HexAddress, destination uint32, hook util.HexAddress) (bool, error) {
	var added bool
	err := coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		if err := h.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		if _, err := h.env.Hook(hook); err != nil {
			return err
		}

		var err error
		added, err = h.hooks.Set(ctx, destination, hook)
		if err != nil {
			return err
		}
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeHookSet,
				sdk.NewAttribute(types.AttributeKeyContract, h.address.String()),
				sdk.NewAttribute(types.AttributeKeyDestination, fmt.Sprint(destination)),
				sdk.NewAttribute(types.AttributeKeyHook, hook.String()),
			),
		)
		return nil
	})
	return added, err
}

// RemoveHook drops the route for destination and reports whether one existed.
func (h *DomainRoutingHook) RemoveHook(ctx context.Context, caller util.HexAddress, destination uint32) (bool, error) {
	var removed bool
	err := coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		if err := h.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}

		var err error
		removed, err = h.hooks.Remove(ctx, destination)
		if err != nil || !removed {
			return err
		}
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeHookRemoved,
				sdk.NewAttribute(types.AttributeKeyContract, h.address.String()),
				sdk.NewAttribute(types.AttributeKeyDestination, fmt.Sprint(destination)),
			),
		)
		return nil
	})
	return removed, err
}

func (h *DomainRoutingHook) Owner(ctx context.Context) (util.HexAddress, error) {
	return h.ownable.Owner(ctx)
}

func (h *DomainRoutingHook) TransferOwnership(ctx context.Context, caller, newOwner util.HexAddress) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		return h.ownable.TransferOwnership(ctx, caller, newOwner)
	})
}
