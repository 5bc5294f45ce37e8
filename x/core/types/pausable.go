package types

import (
	"context"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
)

// Pausable is an owner controlled circuit breaker.
type Pausable struct {
	contract util.HexAddress
	paused   collections.Item[bool]
}

func NewPausable(sb *collections.SchemaBuilder, contract util.HexAddress, prefix collections.Prefix) Pausable {
	return Pausable{
		contract: contract,
		paused:   collections.NewItem(sb, prefix, "paused", collections.BoolValue),
	}
}

func (p Pausable) IsPaused(ctx context.Context) (bool, error) {
	paused, err := p.paused.Get(ctx)
	if errorsmod.IsOf(err, collections.ErrNotFound) {
		return false, nil
	}
	return paused, err
}

// RequireNotPaused fails while the contract is paused.
func (p Pausable) RequireNotPaused(ctx context.Context) error {
	paused, err := p.IsPaused(ctx)
	if err != nil {
		return err
	}
	if paused {
		return errorsmod.Wrapf(ErrPaused, "%s", p.contract)
	}
	return nil
}

func (p Pausable) Pause(ctx context.Context) error {
	if err := p.RequireNotPaused(ctx); err != nil {
		return err
	}
	return p.set(ctx, true, EventTypePaused)
}

func (p Pausable) Unpause(ctx context.Context) error {
	paused, err := p.IsPaused(ctx)
	if err != nil {
		return err
	}
	if !paused {
		return errorsmod.Wrapf(ErrNotPaused, "%s", p.contract)
	}
	return p.set(ctx, false, EventTypeUnpaused)
}

func (p Pausable) set(ctx context.Context, paused bool, eventType string) error {
	if err := p.paused.Set(ctx, paused); err != nil {
		return err
	}

	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(eventType, sdk.NewAttribute(AttributeKeyContract, p.contract.String())),
	)
	return nil
}
