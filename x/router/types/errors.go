package types

import (
	errorsmod "cosmossdk.io/errors"
)

// Router error codes scoped by ModuleName.
// NOTE: Error code 1 is reserved by cosmos-sdk as internal error / unknown failure

var (
	ErrNoRouter         = errorsmod.Register(ModuleName, 2, "no router enrolled for domain")
	ErrUnenrolledSender = errorsmod.Register(ModuleName, 3, "sender is not the enrolled router")
	ErrInvalidRouter    = errorsmod.Register(ModuleName, 4, "invalid remote router")
	ErrLocalDomain      = errorsmod.Register(ModuleName, 5, "cannot route to the local domain")
)
