package types

import (
	"context"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
)

// Ownable gates configuration calls behind a single owner address.
type Ownable struct {
	contract util.HexAddress
	owner    collections.Item[util.HexAddress]
}

func NewOwnable(sb *collections.SchemaBuilder, contract util.HexAddress, prefix collections.Prefix) Ownable {
	return Ownable{
		contract: contract,
		owner:    collections.NewItem(sb, prefix, "owner", util.HexAddressValue),
	}
}

// InitOwner sets the first owner at deployment.
func (o Ownable) InitOwner(ctx context.Context, owner util.HexAddress) error {
	if owner.IsZeroAddress() {
		return errorsmod.Wrap(ErrInvalidOwner, "owner is the zero address")
	}
	return o.owner.Set(ctx, owner)
}

func (o Ownable) Owner(ctx context.Context) (util.HexAddress, error) {
	return o.owner.Get(ctx)
}

// RequireOwner fails unless caller is the owner.
func (o Ownable) RequireOwner(ctx context.Context, caller util.HexAddress) error {
	owner, err := o.owner.Get(ctx)
	if err != nil {
		return err
	}
	if owner != caller {
		return errorsmod.Wrapf(ErrUnauthorized, "%s is not the owner of %s", caller, o.contract)
	}
	return nil
}

// TransferOwnership hands the contract to newOwner.
func (o Ownable) TransferOwnership(ctx context.Context, caller, newOwner util.HexAddress) error {
	if err := o.RequireOwner(ctx, caller); err != nil {
		return err
	}
	if newOwner.IsZeroAddress() {
		return errorsmod.Wrap(ErrInvalidOwner, "new owner is the zero address")
	}
	if err := o.owner.Set(ctx, newOwner); err != nil {
		return err
	}

	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(
			EventTypeOwnershipTransferred,
			sdk.NewAttribute(AttributeKeyContract, o.contract.String()),
			sdk.NewAttribute(AttributeKeyPreviousOwner, caller.String()),
			sdk.NewAttribute(AttributeKeyNewOwner, newOwner.String()),
		),
	)
	return nil
}
