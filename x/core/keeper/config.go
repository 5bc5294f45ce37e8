package keeper

import (
	"context"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
	"github.com/celestiaorg/hyperlane-core/x/core/types"
)

func (k *Keeper) DefaultIsm(ctx context.Context) (util.HexAddress, error) {
	return getAddress(ctx, k.defaultIsm, "default ism")
}

func (k *Keeper) DefaultHook(ctx context.Context) (util.HexAddress, error) {
	return getAddress(ctx, k.defaultHook, "default hook")
}

func (k *Keeper) RequiredHook(ctx context.Context) (util.HexAddress, error) {
	return getAddress(ctx, k.requiredHook, "required hook")
}

// SetDefaultIsm sets the module used for recipients that do not specify one.
func (k *Keeper) SetDefaultIsm(ctx context.Context, caller, ism util.HexAddress) error {
	return types.Atomic(ctx, func(ctx sdk.Context) error {
		if err := k.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		if _, err := k.env.Ism(ism); err != nil {
			return err
		}
		if err := k.defaultIsm.Set(ctx, ism); err != nil {
			return err
		}
		k.emitConfig(ctx, types.EventTypeDefaultIsmSet, types.AttributeKeyIsm, ism)
		return nil
	})
}

// SetDefaultHook sets the hook run when dispatch names no override.
func (k *Keeper) SetDefaultHook(ctx context.Context, caller, hook util.HexAddress) error {
	return types.Atomic(ctx, func(ctx sdk.Context) error {
		if err := k.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		if _, err := k.env.Hook(hook); err != nil {
			return err
		}
		if err := k.defaultHook.Set(ctx, hook); err != nil {
			return err
		}
		k.emitConfig(ctx, types.EventTypeDefaultHookSet, types.AttributeKeyHook, hook)
		return nil
	})
}

// SetRequiredHook sets the hook run on every dispatch.
func (k *Keeper) SetRequiredHook(ctx context.Context, caller, hook util.HexAddress) error {
	return types.Atomic(ctx, func(ctx sdk.Context) error {
		if err := k.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		if _, err := k.env.Hook(hook); err != nil {
			return err
		}
		if err := k.requiredHook.Set(ctx, hook); err != nil {
			return err
		}
		k.emitConfig(ctx, types.EventTypeRequiredHookSet, types.AttributeKeyHook, hook)
		return nil
	})
}

// Pause halts dispatch and process until Unpause.
func (k *Keeper) Pause(ctx context.Context, caller util.HexAddress) error {
	return types.Atomic(ctx, func(ctx sdk.Context) error {
		if err := k.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		return k.pausable.Pause(ctx)
	})
}

func (k *Keeper) Unpause(ctx context.Context, caller util.HexAddress) error {
	return types.Atomic(ctx, func(ctx sdk.Context) error {
		if err := k.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		return k.pausable.Unpause(ctx)
	})
}

func (k *Keeper) IsPaused(ctx context.Context) (bool, error) {
	return k.pausable.IsPaused(ctx)
}

func (k *Keeper) Owner(ctx context.Context) (util.HexAddress, error) {
	return k.ownable.Owner(ctx)
}

func (k *Keeper) TransferOwnership(ctx context.Context, caller, newOwner util.HexAddress) error {
	return types.Atomic(ctx, func(ctx sdk.Context) error {
		return k.ownable.TransferOwnership(ctx, caller, newOwner)
	})
}

func (k *Keeper) emitConfig(ctx sdk.Context, eventType, key string, value util.HexAddress) {
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			eventType,
			sdk.NewAttribute(types.AttributeKeyContract, k.address.String()),
			sdk.NewAttribute(key, value.String()),
		),
	)
}

func getAddress(ctx context.Context, item collections.Item[util.HexAddress], name string) (util.HexAddress, error) {
	addr, err := item.Get(ctx)
	if errorsmod.IsOf(err, collections.ErrNotFound) {
		return util.HexAddress{}, errorsmod.Wrapf(types.ErrUnknownContract, "%s not configured", name)
	}
	return addr, err
}
