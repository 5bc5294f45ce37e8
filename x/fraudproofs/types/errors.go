package types

import (
	errorsmod "cosmossdk.io/errors"
)

// Fraud proof error codes scoped by ModuleName.
// NOTE: Error code 1 is reserved by cosmos-sdk as internal error / unknown failure

var (
	ErrNotLocal                 = errorsmod.Register(ModuleName, 2, "checkpoint must be local")
	ErrNotInStoredCheckpoint    = errorsmod.Register(ModuleName, 3, "message must be member of stored checkpoint")
	ErrNotPremature             = errorsmod.Register(ModuleName, 4, "checkpoint must be premature")
	ErrNotFraudulentMessageId   = errorsmod.Register(ModuleName, 5, "checkpoint must have fraudulent message id")
	ErrNotFraudulentRoot        = errorsmod.Register(ModuleName, 6, "checkpoint must have fraudulent root")
	ErrWhitelisted              = errorsmod.Register(ModuleName, 7, "merkle tree is whitelisted")
	ErrAlreadyAttributed        = errorsmod.Register(ModuleName, 8, "signature already attributed")
	ErrInvalidSignature         = errorsmod.Register(ModuleName, 9, "invalid checkpoint signature")
	ErrNotMerkleTree            = errorsmod.Register(ModuleName, 10, "not a merkle tree hook")
	ErrInvalidFraudProofMessage = errorsmod.Register(ModuleName, 11, "invalid fraud proof message")
	ErrNotAttributed            = errorsmod.Register(ModuleName, 12, "no attribution")
	ErrRemoteAttributed         = errorsmod.Register(ModuleName, 13, "remote attribution already recorded")
	ErrInvalidTimestamp         = errorsmod.Register(ModuleName, 14, "block time does not fit an attribution timestamp")
)
