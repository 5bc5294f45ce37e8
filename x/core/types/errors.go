package types

import (
	errorsmod "cosmossdk.io/errors"
)

// Module error codes scoped by ModuleName.
// NOTE: Error code 1 is reserved by cosmos-sdk as internal error / unknown failure

var (
	ErrAlreadyDelivered    = errorsmod.Register(ModuleName, 2, "message already delivered")
	ErrBadVersion          = errorsmod.Register(ModuleName, 3, "bad message version")
	ErrBadDestination      = errorsmod.Register(ModuleName, 4, "unexpected destination domain")
	ErrVerificationFailed  = errorsmod.Register(ModuleName, 5, "message verification failed")
	ErrInsufficientPayment = errorsmod.Register(ModuleName, 6, "insufficient payment")
	ErrUnauthorized        = errorsmod.Register(ModuleName, 7, "unauthorized")
	ErrPaused              = errorsmod.Register(ModuleName, 8, "contract is paused")
	ErrRecipientFailed     = errorsmod.Register(ModuleName, 9, "recipient handle failed")
	ErrUnknownContract     = errorsmod.Register(ModuleName, 10, "unknown contract")
	ErrInvalidMessage      = errorsmod.Register(ModuleName, 11, "invalid message")
	ErrNotPaused           = errorsmod.Register(ModuleName, 12, "contract is not paused")
	ErrRefundFailed        = errorsmod.Register(ModuleName, 13, "refund failed")
	ErrDuplicateContract   = errorsmod.Register(ModuleName, 14, "contract already registered")
	ErrInvalidOwner        = errorsmod.Register(ModuleName, 15, "invalid owner")
	ErrTransferFailed      = errorsmod.Register(ModuleName, 16, "native transfer failed")
	ErrFeeOverflow         = errorsmod.Register(ModuleName, 17, "dispatch fee overflows 256 bits")
)
