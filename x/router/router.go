// Package router implements the mailbox client applications build on: a
// table of trusted routers on remote domains, the hook and security module
// the application uses, and per destination gas limits.
package router

import (
	"context"
	"fmt"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"

	"github.com/celestiaorg/hyperlane-core/pkg/domainmap"
	"github.com/celestiaorg/hyperlane-core/pkg/util"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/router/types"
)

var (
	RoutersKey        = collections.NewPrefix(0)
	DestinationGasKey = collections.NewPrefix(1)
	HookKey           = collections.NewPrefix(2)
	IsmKey            = collections.NewPrefix(3)
	OwnerKey          = collections.NewPrefix(4)
)

// Handler processes payloads that arrived from an enrolled router.
type Handler interface {
	HandlePayload(ctx context.Context, origin uint32, sender util.HexAddress, body []byte) error
}

// RemoteRouter is an enrollment entry.
type RemoteRouter struct {
	Domain uint32
	Router util.HexAddress
}

var (
	_ coretypes.MessageRecipient                  = (*Router)(nil)
	_ coretypes.SpecifiesInterchainSecurityModule = (*Router)(nil)
)

type Router struct {
	env     *coretypes.Env
	address util.HexAddress
	mailbox coretypes.Mailbox
	handler Handler

	routers        domainmap.Map[util.HexAddress]
	destinationGas domainmap.Map[uint64]
	hook           collections.Item[util.HexAddress]
	ism            collections.Item[util.HexAddress]
	schema         collections.Schema

	ownable coretypes.Ownable
}

// NewRouter deploys a router of class that hands inbound payloads to handler.
func NewRouter(ctx context.Context, env *coretypes.Env, mailbox coretypes.Mailbox, owner util.HexAddress, class string, handler Handler) (*Router, error) {
	if handler == nil {
		return nil, fmt.Errorf("router %s: nil handler", class)
	}

	addr, storeService := env.NewContract(class)
	sb := collections.NewSchemaBuilder(storeService)

	r := &Router{
		env:            env,
		address:        addr,
		mailbox:        mailbox,
		handler:        handler,
		routers:        domainmap.New(sb, RoutersKey, "routers", util.HexAddressValue),
		destinationGas: domainmap.New(sb, DestinationGasKey, "destination_gas", collections.Uint64Value),
		hook:           collections.NewItem(sb, HookKey, "hook", util.HexAddressValue),
		ism:            collections.NewItem(sb, IsmKey, "ism", util.HexAddressValue),
		ownable:        coretypes.NewOwnable(sb, addr, OwnerKey),
	}

	schema, err := sb.Build()
	if err != nil {
		return nil, err
	}
	r.schema = schema

	if err := r.ownable.InitOwner(ctx, owner); err != nil {
		return nil, err
	}
	if err := env.Register(r); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Router) Logger(ctx context.Context) log.Logger {
	return sdk.UnwrapSDKContext(ctx).Logger().With("module", "x/"+types.ModuleName)
}

func (r *Router) Address() util.HexAddress {
	return r.address
}

func (r *Router) LocalDomain() uint32 {
	return r.mailbox.LocalDomain()
}

// Routers returns the router enrolled for domain.
func (r *Router) Routers(ctx context.Context, domain uint32) (util.HexAddress, error) {
	router, found, err := r.routers.Get(ctx, domain)
	if err != nil {
		return util.HexAddress{}, err
	}
	if !found {
		return util.HexAddress{}, errorsmod.Wrapf(types.ErrNoRouter, "domain %d", domain)
	}
	return router, nil
}

func (r *Router) Domains(ctx context.Context) ([]uint32, error) {
	return r.routers.Domains(ctx)
}

// EnrollRemoteRouters enrolls or replaces the routers of each domain.
func (r *Router) EnrollRemoteRouters(ctx context.Context, caller util.HexAddress, routers ...RemoteRouter) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		if err := r.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		for _, rr := range routers {
			if rr.Domain == r.LocalDomain() {
				return errorsmod.Wrapf(types.ErrLocalDomain, "domain %d", rr.Domain)
			}
			if rr.Router.IsZeroAddress() {
				return errorsmod.Wrapf(types.ErrInvalidRouter, "zero router for domain %d", rr.Domain)
			}
			if _, err := r.routers.Set(ctx, rr.Domain, rr.Router); err != nil {
				return err
			}
			ctx.EventManager().EmitEvent(
				sdk.NewEvent(
					types.EventTypeRemoteRouterEnrolled,
					sdk.NewAttribute(types.AttributeKeyContract, r.address.String()),
					sdk.NewAttribute(types.AttributeKeyDomain, fmt.Sprint(rr.Domain)),
					sdk.NewAttribute(types.AttributeKeyRouter, rr.Router.String()),
				),
			)
		}
		return nil
	})
}

func (r *Router) UnenrollRemoteRouter(ctx context.Context, caller util.HexAddress, domain uint32) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		if err := r.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		removed, err := r.routers.Remove(ctx, domain)
		if err != nil {
			return err
		}
		if !removed {
			return errorsmod.Wrapf(types.ErrNoRouter, "domain %d", domain)
		}
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeRemoteRouterUnenrolled,
				sdk.NewAttribute(types.AttributeKeyContract, r.address.String()),
				sdk.NewAttribute(types.AttributeKeyDomain, fmt.Sprint(domain)),
			),
		)
		return nil
	})
}

// DestinationGas is the gas limit requested from the hooks for messages to
// domain.
func (r *Router) DestinationGas(ctx context.Context, domain uint32) (uint64, error) {
	gas, found, err := r.destinationGas.Get(ctx, domain)
	if err != nil {
		return 0, err
	}
	if !found {
		return types.DefaultDestinationGas, nil
	}
	return gas, nil
}

func (r *Router) SetDestinationGas(ctx context.Context, caller util.HexAddress, domain uint32, gas uint64) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		if err := r.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		if _, err := r.destinationGas.Set(ctx, domain, gas); err != nil {
			return err
		}
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeDestinationGasSet,
				sdk.NewAttribute(types.AttributeKeyContract, r.address.String()),
				sdk.NewAttribute(types.AttributeKeyDomain, fmt.Sprint(domain)),
				sdk.NewAttribute(types.AttributeKeyGas, fmt.Sprint(gas)),
			),
		)
		return nil
	})
}

// Hook is the hook override used for dispatches, zero for the mailbox
// default.
func (r *Router) Hook(ctx context.Context) (util.HexAddress, error) {
	return optionalAddress(ctx, r.hook)
}

func (r *Router) SetHook(ctx context.Context, caller, hook util.HexAddress) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		if err := r.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		if !hook.IsZeroAddress() {
			if _, err := r.env.Hook(hook); err != nil {
				return err
			}
		}
		if err := r.hook.Set(ctx, hook); err != nil {
			return err
		}
		r.emitAddress(ctx, types.EventTypeHookSet, types.AttributeKeyHook, hook)
		return nil
	})
}

// InterchainSecurityModule is the module the mailbox verifies inbound
// messages with, zero for the mailbox default.
func (r *Router) InterchainSecurityModule(ctx context.Context) (util.HexAddress, error) {
	return optionalAddress(ctx, r.ism)
}

func (r *Router) SetInterchainSecurityModule(ctx context.Context, caller, ism util.HexAddress) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		if err := r.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		if !ism.IsZeroAddress() {
			if _, err := r.env.Ism(ism); err != nil {
				return err
			}
		}
		if err := r.ism.Set(ctx, ism); err != nil {
			return err
		}
		r.emitAddress(ctx, types.EventTypeIsmSet, types.AttributeKeyIsm, ism)
		return nil
	})
}

func (r *Router) emitAddress(ctx sdk.Context, eventType, key string, value util.HexAddress) {
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			eventType,
			sdk.NewAttribute(types.AttributeKeyContract, r.address.String()),
			sdk.NewAttribute(key, value.String()),
		),
	)
}

func optionalAddress(ctx context.Context, item collections.Item[util.HexAddress]) (util.HexAddress, error) {
	addr, err := item.Get(ctx)
	if errorsmod.IsOf(err, collections.ErrNotFound) {
		return util.ZeroAddress, nil
	}
	return addr, err
}

// metadata requests the destination gas and refunds overpayment to payer.
func (r *Router) metadata(ctx context.Context, destination uint32, payer util.HexAddress) ([]byte, error) {
	gas, err := r.DestinationGas(ctx, destination)
	if err != nil {
		return nil, err
	}
	return util.EncodeStandardHookMetadata(util.StandardHookMetadata{
		Value:    math.ZeroInt(),
		GasLimit: math.NewIntFromUint64(gas),
		Address:  util.AccAddress(payer),
	})
}

// QuoteDispatch is the value Dispatch needs to send body to destination.
func (r *Router) QuoteDispatch(ctx context.Context, destination uint32, body []byte) (math.Int, error) {
	remote, err := r.Routers(ctx, destination)
	if err != nil {
		return math.Int{}, err
	}
	hook, err := r.Hook(ctx)
	if err != nil {
		return math.Int{}, err
	}
	metadata, err := r.metadata(ctx, destination, r.address)
	if err != nil {
		return math.Int{}, err
	}
	return r.mailbox.QuoteDispatch(ctx, r.address, destination, remote, body, metadata, hook)
}

// Dispatch sends body to the router enrolled for destination. payer funds
// the dispatch with value and receives whatever the hooks do not charge.
func (r *Router) Dispatch(ctx context.Context, payer util.HexAddress, value math.Int, destination uint32, body []byte) (common.Hash, error) {
	var id common.Hash

	err := coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		remote, err := r.Routers(ctx, destination)
		if err != nil {
			return err
		}
		hook, err := r.Hook(ctx)
		if err != nil {
			return err
		}
		metadata, err := r.metadata(ctx, destination, payer)
		if err != nil {
			return err
		}
		if err := r.env.Transfer(ctx, payer, r.address, value); err != nil {
			return errorsmod.Wrap(coretypes.ErrInsufficientPayment, err.Error())
		}

		id, err = r.mailbox.Dispatch(ctx, r.address, value, destination, remote, body, metadata, hook)
		return err
	})
	if err != nil {
		return common.Hash{}, err
	}
	return id, nil
}

// Handle authenticates the sender against the enrolled router of origin and
// passes the payload on. It is the mailbox delivery callback.
func (r *Router) Handle(ctx context.Context, origin uint32, sender util.HexAddress, body []byte) error {
	enrolled, found, err := r.routers.Get(ctx, origin)
	if err != nil {
		return err
	}
	if !found || enrolled != sender {
		return errorsmod.Wrapf(types.ErrUnenrolledSender, "%s from domain %d", sender, origin)
	}
	r.Logger(ctx).Debug("handling payload", "origin", origin, "size", len(body))
	return r.handler.HandlePayload(ctx, origin, sender, body)
}

func (r *Router) Owner(ctx context.Context) (util.HexAddress, error) {
	return r.ownable.Owner(ctx)
}

func (r *Router) TransferOwnership(ctx context.Context, caller, newOwner util.HexAddress) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		return r.ownable.TransferOwnership(ctx, caller, newOwner)
	})
}
