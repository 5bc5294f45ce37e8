package types

import (
	errorsmod "cosmossdk.io/errors"
)

// ISM error codes scoped by ModuleName.
// NOTE: Error code 1 is reserved by cosmos-sdk as internal error / unknown failure

var (
	ErrInvalidMetadata       = errorsmod.Register(ModuleName, 2, "invalid ism metadata")
	ErrInvalidThreshold      = errorsmod.Register(ModuleName, 3, "invalid threshold")
	ErrValidatorEnrolled     = errorsmod.Register(ModuleName, 4, "validator already enrolled")
	ErrValidatorNotEnrolled  = errorsmod.Register(ModuleName, 5, "validator not enrolled")
	ErrNoValidators          = errorsmod.Register(ModuleName, 6, "no validators configured for origin")
	ErrNoRoute               = errorsmod.Register(ModuleName, 7, "no ism configured for origin")
	ErrInvalidConfig         = errorsmod.Register(ModuleName, 8, "invalid ism configuration")
	ErrUnauthorizedSender    = errorsmod.Register(ModuleName, 9, "sender is not the authorized hook")
	ErrAlreadyPreVerified    = errorsmod.Register(ModuleName, 10, "message already pre-verified")
	ErrNotWatcher            = errorsmod.Register(ModuleName, 11, "caller is not a watcher")
	ErrNotPreVerified        = errorsmod.Register(ModuleName, 12, "message not pre-verified")
	ErrInvalidTokenMessage   = errorsmod.Register(ModuleName, 13, "invalid token message")
	ErrSubmoduleVerification = errorsmod.Register(ModuleName, 14, "submodule rejected message")
	ErrWindowClosed          = errorsmod.Register(ModuleName, 15, "fraud window closed")
	ErrFraudulent            = errorsmod.Register(ModuleName, 16, "message marked fraudulent")
)
