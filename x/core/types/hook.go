package types

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
)

// Post-dispatch hook types.
const (
	HookTypeUnused uint8 = iota
	HookTypeRouting
	HookTypeAggregation
	HookTypeMerkleTree
	HookTypeInterchainGasPaymaster
	HookTypeFallbackRouting
	HookTypeIdAuthIsm
	HookTypePausable
	HookTypeProtocolFee
	HookTypeLayerZeroV1
	HookTypeRateLimited
	HookTypeArbL2ToL1
	HookTypeOpL2ToL1
	HookTypeMailboxDefaultHook
	HookTypeAmountRouting
)

// QuoteHook resolves addr and returns its quote for message.
func (e *Env) QuoteHook(ctx context.Context, addr util.HexAddress, metadata []byte, message util.HyperlaneMessage) (math.Int, error) {
	hook, err := e.Hook(addr)
	if err != nil {
		return math.Int{}, err
	}
	return hook.QuoteDispatch(ctx, metadata, message)
}

// CallHook pays the hook at addr from payer and runs its PostDispatch.
func (e *Env) CallHook(ctx context.Context, payer, addr util.HexAddress, metadata []byte, message util.HyperlaneMessage, payment math.Int) error {
	hook, err := e.Hook(addr)
	if err != nil {
		return err
	}
	if err := e.Transfer(ctx, payer, addr, payment); err != nil {
		return errorsmod.Wrapf(err, "paying hook %s", addr)
	}
	return hook.PostDispatch(ctx, metadata, message, payment)
}
