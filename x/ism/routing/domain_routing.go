// Package routing implements security modules that delegate verification to
// a child module chosen from the message: by origin domain or by token
// amount.
package routing

import (
	"context"
	"fmt"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/celestiaorg/hyperlane-core/pkg/domainmap"
	"github.com/celestiaorg/hyperlane-core/pkg/util"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/ism/types"
)

const (
	DomainRoutingClass = "domain_routing_ism"
	AmountRoutingClass = "amount_routing_ism"
)

var (
	ModulesKey = collections.NewPrefix(0)
	OwnerKey   = collections.NewPrefix(1)
)

var _ coretypes.InterchainSecurityModule = (*DomainRoutingIsm)(nil)

type DomainRoutingIsm struct {
	env     *coretypes.Env
	address util.HexAddress

	modules domainmap.Map[util.HexAddress]
	schema  collections.Schema

	ownable coretypes.Ownable
}

func NewDomainRoutingIsm(ctx context.Context, env *coretypes.Env, owner util.HexAddress) (*DomainRoutingIsm, error) {
	addr, storeService := env.NewContract(DomainRoutingClass)
	sb := collections.NewSchemaBuilder(storeService)

	m := &DomainRoutingIsm{
		env:     env,
		address: addr,
		modules: domainmap.New(sb, ModulesKey, "modules", util.HexAddressValue),
		ownable: coretypes.NewOwnable(sb, addr, OwnerKey),
	}

	schema, err := sb.Build()
	if err != nil {
		return nil, err
	}
	m.schema = schema

	if err := m.ownable.InitOwner(ctx, owner); err != nil {
		return nil, err
	}
	if err := env.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DomainRoutingIsm) Address() util.HexAddress {
	return m.address
}

func (m *DomainRoutingIsm) ModuleType() uint8 {
	return coretypes.ModuleTypeRouting
}

// Route returns the module configured for origin.
func (m *DomainRoutingIsm) Route(ctx context.Context, origin uint32) (util.HexAddress, error) {
	ism, found, err := m.modules.Get(ctx, origin)
	if err != nil {
		return util.HexAddress{}, err
	}
	if !found {
		return util.HexAddress{}, errorsmod.Wrapf(types.ErrNoRoute, "origin %d", origin)
	}
	return ism, nil
}

// Verify hands the whole metadata to the module of the message origin.
func (m *DomainRoutingIsm) Verify(ctx context.Context, metadata []byte, message util.HyperlaneMessage) (bool, error) {
	route, err := m.Route(ctx, message.Origin)
	if err != nil {
		return false, err
	}
	ism, err := m.env.Ism(route)
	if err != nil {
		return false, err
	}
	return ism.Verify(ctx, metadata, message)
}

func (m *DomainRoutingIsm) Domains(ctx context.Context) ([]uint32, error) {
	return m.modules.Domains(ctx)
}

// Set routes origin to ism and reports whether origin was newly added.
func (m *DomainRoutingIsm) Set(ctx context.Context, caller util.HexAddress, origin uint32, ism util.HexAddress) (bool, error) {
	var added bool
	err := coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		if err := m.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		if _, err := m.env.Ism(ism); err != nil {
			return err
		}

		var err error
		if added, err = m.modules.Set(ctx, origin, ism); err != nil {
			return err
		}
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeModuleSet,
				sdk.NewAttribute(types.AttributeKeyContract, m.address.String()),
				sdk.NewAttribute(types.AttributeKeyOrigin, fmt.Sprint(origin)),
				sdk.NewAttribute(types.AttributeKeyIsm, ism.String()),
			),
		)
		return nil
	})
	return added, err
}

// Remove drops the route for origin and reports whether one existed.
func (m *DomainRoutingIsm) Remove(ctx context.Context, caller util.HexAddress, origin uint32) (bool, error) {
	var removed bool
	err := coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		if err := m.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}

		var err error
		if removed, err = m.modules.Remove(ctx, origin); err != nil || !removed {
			return err
		}
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeModuleRemoved,
				sdk.NewAttribute(types.AttributeKeyContract, m.address.String()),
				sdk.NewAttribute(types.AttributeKeyOrigin, fmt.Sprint(origin)),
			),
		)
		return nil
	})
	return removed, err
}

func (m *DomainRoutingIsm) Owner(ctx context.Context) (util.HexAddress, error) {
	return m.ownable.Owner(ctx)
}

func (m *DomainRoutingIsm) TransferOwnership(ctx context.Context, caller, newOwner util.HexAddress) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		return m.ownable.TransferOwnership(ctx, caller, newOwner)
	})
}
