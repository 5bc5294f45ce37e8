package types

import (
	errorsmod "cosmossdk.io/errors"
)

// Hook error codes scoped by ModuleName.
// NOTE: Error code 1 is reserved by cosmos-sdk as internal error / unknown failure

var (
	ErrInvalidMetadata        = errorsmod.Register(ModuleName, 2, "invalid hook metadata")
	ErrNotLatestDispatched    = errorsmod.Register(ModuleName, 3, "message not latest dispatched")
	ErrEmptyTree              = errorsmod.Register(ModuleName, 4, "merkle tree is empty")
	ErrUnsupportedDestination = errorsmod.Register(ModuleName, 5, "destination not supported")
	ErrInsufficientGasPayment = errorsmod.Register(ModuleName, 6, "insufficient interchain gas payment")
	ErrNoRoute                = errorsmod.Register(ModuleName, 7, "no hook configured for destination")
	ErrInvalidConfig          = errorsmod.Register(ModuleName, 8, "invalid hook configuration")
	ErrInvalidTokenMessage    = errorsmod.Register(ModuleName, 9, "invalid token message")
	ErrNothingToClaim         = errorsmod.Register(ModuleName, 10, "nothing to claim")
	ErrChannel                = errorsmod.Register(ModuleName, 11, "authenticated channel failure")
)
