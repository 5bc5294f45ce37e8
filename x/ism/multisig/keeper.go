// Package multisig implements a threshold multisig security module over
// merkle tree checkpoints, with an owner managed validator set per origin.
package multisig

import (
	"bytes"
	"context"
	"fmt"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"

	"github.com/celestiaorg/hyperlane-core/pkg/checkpoint"
	"github.com/celestiaorg/hyperlane-core/pkg/merkle"
	"github.com/celestiaorg/hyperlane-core/pkg/util"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/ism/types"
)

// ContractClass is used to derive multisig module addresses.
const ContractClass = "multisig_ism"

var (
	ValidatorsKey  = collections.NewPrefix(0)
	ThresholdsKey  = collections.NewPrefix(1)
	CommitmentsKey = collections.NewPrefix(2)
	OwnerKey       = collections.NewPrefix(3)
)

var _ coretypes.InterchainSecurityModule = (*Keeper)(nil)

type Keeper struct {
	address util.HexAddress

	// validators is keyed by (origin, validator address) so iteration yields
	// each set sorted by address.
	validators  collections.KeySet[collections.Pair[uint32, []byte]]
	thresholds  collections.Map[uint32, uint32]
	commitments collections.Map[uint32, []byte]
	schema      collections.Schema

	ownable coretypes.Ownable
}

// NewKeeper deploys a multisig module owned by owner.
func NewKeeper(ctx context.Context, env *coretypes.Env, owner util.HexAddress) (*Keeper, error) {
	addr, storeService := env.NewContract(ContractClass)
	sb := collections.NewSchemaBuilder(storeService)

	k := &Keeper{
		address:     addr,
		validators:  collections.NewKeySet(sb, ValidatorsKey, "validators", collections.PairKeyCodec(collections.Uint32Key, collections.BytesKey)),
		thresholds:  collections.NewMap(sb, ThresholdsKey, "thresholds", collections.Uint32Key, collections.Uint32Value),
		commitments: collections.NewMap(sb, CommitmentsKey, "commitments", collections.Uint32Key, collections.BytesValue),
		ownable:     coretypes.NewOwnable(sb, addr, OwnerKey),
	}

	schema, err := sb.Build()
	if err != nil {
		return nil, err
	}
	k.schema = schema

	if err := k.ownable.InitOwner(ctx, owner); err != nil {
		return nil, err
	}
	if err := env.Register(k); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *Keeper) Logger(ctx context.Context) log.Logger {
	return sdk.UnwrapSDKContext(ctx).Logger().With("module", "x/ism/multisig")
}

func (k *Keeper) Address() util.HexAddress {
	return k.address
}

func (k *Keeper) ModuleType() uint8 {
	return coretypes.ModuleTypeMerkleRootMultisig
}

// Verify accepts message when threshold enrolled validators of its origin
// signed a checkpoint whose root contains the message. Malformed metadata
// is an error, a well formed but unconvincing proof returns false.
func (k *Keeper) Verify(ctx context.Context, rawMetadata []byte, message util.HyperlaneMessage) (bool, error) {
	metadata, err := ParseMetadata(rawMetadata)
	if err != nil {
		return false, errorsmod.Wrap(types.ErrInvalidMetadata, err.Error())
	}

	threshold := metadata.Threshold()
	if threshold == 0 || threshold > len(metadata.Validators) {
		return false, errorsmod.Wrapf(types.ErrInvalidMetadata, "threshold %d of %d validators", threshold, len(metadata.Validators))
	}

	commitment, err := k.commitments.Get(ctx, message.Origin)
	if errorsmod.IsOf(err, collections.ErrNotFound) {
		return false, errorsmod.Wrapf(types.ErrNoValidators, "origin %d", message.Origin)
	}
	if err != nil {
		return false, err
	}

	logger := k.Logger(ctx).With("id", message.Id().Hex(), "origin", message.Origin)

	if !bytes.Equal(Commitment(uint8(threshold), metadata.Validators).Bytes(), commitment) {
		logger.Debug("validator set does not match commitment")
		return false, nil
	}
	if metadata.MessageIndex > metadata.Index {
		logger.Debug("message index after checkpoint index", "message_index", metadata.MessageIndex, "index", metadata.Index)
		return false, nil
	}
	if !merkle.Verify(metadata.Root, message.Id(), metadata.Proof, metadata.MessageIndex) {
		logger.Debug("message not included in checkpoint root")
		return false, nil
	}

	digest := metadata.Checkpoint(message.Origin).Digest()
	validatorIndex := 0
	var previous common.Address
	for i, sig := range metadata.Signatures {
		signer, err := checkpoint.RecoverSigner(digest, sig)
		if err != nil {
			logger.Debug("unrecoverable signature", "signature", i, "err", err)
			return false, nil
		}
		if i > 0 && bytes.Compare(signer.Bytes(), previous.Bytes()) <= 0 {
			logger.Debug("signers not strictly ascending", "signature", i)
			return false, nil
		}
		previous = signer

		for validatorIndex < len(metadata.Validators) && metadata.Validators[validatorIndex] != signer {
			validatorIndex++
		}
		if validatorIndex == len(metadata.Validators) {
			logger.Debug("signer not enrolled", "signer", signer.Hex())
			return false, nil
		}
		validatorIndex++
	}

	return true, nil
}

// Validators returns the enrolled validators of origin sorted by address.
func (k *Keeper) Validators(ctx context.Context, origin uint32) ([]common.Address, error) {
	iter, err := k.validators.Iterate(ctx, collections.NewPrefixedPairRange[uint32, []byte](origin))
	if err != nil {
		return nil, err
	}
	keys, err := iter.Keys()
	if err != nil {
		return nil, err
	}

	validators := make([]common.Address, 0, len(keys))
	for _, key := range keys {
		validators = append(validators, common.BytesToAddress(key.K2()))
	}
	return validators, nil
}

func (k *Keeper) Threshold(ctx context.Context, origin uint32) (uint8, error) {
	threshold, err := k.thresholds.Get(ctx, origin)
	if errorsmod.IsOf(err, collections.ErrNotFound) {
		return 0, nil
	}
	return uint8(threshold), err
}

// ValidatorsAndThreshold is what a relayer needs to build metadata for
// message.
func (k *Keeper) ValidatorsAndThreshold(ctx context.Context, message util.HyperlaneMessage) ([]common.Address, uint8, error) {
	validators, err := k.Validators(ctx, message.Origin)
	if err != nil {
		return nil, 0, err
	}
	threshold, err := k.Threshold(ctx, message.Origin)
	return validators, threshold, err
}

// Commitment returns the stored commitment of origin, zero when unset.
func (k *Keeper) Commitment(ctx context.Context, origin uint32) (common.Hash, error) {
	commitment, err := k.commitments.Get(ctx, origin)
	if errorsmod.IsOf(err, collections.ErrNotFound) {
		return common.Hash{}, nil
	}
	return common.BytesToHash(commitment), err
}

func (k *Keeper) IsEnrolled(ctx context.Context, origin uint32, validator common.Address) (bool, error) {
	return k.validators.Has(ctx, collections.Join(origin, validator.Bytes()))
}

func (k *Keeper) EnrollValidator(ctx context.Context, caller util.HexAddress, origin uint32, validator common.Address) error {
	return k.EnrollValidators(ctx, caller, origin, []common.Address{validator})
}

// EnrollValidators adds validators to the set of origin.
func (k *Keeper) EnrollValidators(ctx context.Context, caller util.HexAddress, origin uint32, validators []common.Address) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		if err := k.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		for _, validator := range validators {
			if validator == (common.Address{}) {
				return errorsmod.Wrap(types.ErrInvalidConfig, "zero validator address")
			}
			key := collections.Join(origin, validator.Bytes())
			enrolled, err := k.validators.Has(ctx, key)
			if err != nil {
				return err
			}
			if enrolled {
				return errorsmod.Wrapf(types.ErrValidatorEnrolled, "%s on origin %d", validator.Hex(), origin)
			}
			if err := k.validators.Set(ctx, key); err != nil {
				return err
			}
			k.emitValidator(ctx, types.EventTypeValidatorEnrolled, origin, validator)
		}
		return k.updateCommitment(ctx, origin)
	})
}

// UnenrollValidator removes validator from the set of origin. The set may
// not shrink below the threshold.
func (k *Keeper) UnenrollValidator(ctx context.Context, caller util.HexAddress, origin uint32, validator common.Address) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		if err := k.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}

		key := collections.Join(origin, validator.Bytes())
		enrolled, err := k.validators.Has(ctx, key)
		if err != nil {
			return err
		}
		if !enrolled {
			return errorsmod.Wrapf(types.ErrValidatorNotEnrolled, "%s on origin %d", validator.Hex(), origin)
		}

		validators, err := k.Validators(ctx, origin)
		if err != nil {
			return err
		}
		threshold, err := k.Threshold(ctx, origin)
		if err != nil {
			return err
		}
		if len(validators)-1 < int(threshold) {
			return errorsmod.Wrapf(types.ErrInvalidThreshold, "unenrolling leaves %d validators for threshold %d", len(validators)-1, threshold)
		}

		if err := k.validators.Remove(ctx, key); err != nil {
			return err
		}
		k.emitValidator(ctx, types.EventTypeValidatorUnenrolled, origin, validator)
		return k.updateCommitment(ctx, origin)
	})
}

// SetThreshold sets the quorum of origin, between one and the set size.
func (k *Keeper) SetThreshold(ctx context.Context, caller util.HexAddress, origin uint32, threshold uint8) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		if err := k.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}

		validators, err := k.Validators(ctx, origin)
		if err != nil {
			return err
		}
		if threshold == 0 || int(threshold) > len(validators) {
			return errorsmod.Wrapf(types.ErrInvalidThreshold, "threshold %d for %d validators", threshold, len(validators))
		}
		if err := k.thresholds.Set(ctx, origin, uint32(threshold)); err != nil {
			return err
		}

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeThresholdSet,
				sdk.NewAttribute(types.AttributeKeyContract, k.address.String()),
				sdk.NewAttribute(types.AttributeKeyOrigin, fmt.Sprint(origin)),
				sdk.NewAttribute(types.AttributeKeyThreshold, fmt.Sprint(threshold)),
			),
		)
		return k.updateCommitment(ctx, origin)
	})
}

func (k *Keeper) updateCommitment(ctx sdk.Context, origin uint32) error {
	validators, err := k.Validators(ctx, origin)
	if err != nil {
		return err
	}
	threshold, err := k.Threshold(ctx, origin)
	if err != nil {
		return err
	}

	commitment := Commitment(threshold, validators)
	if err := k.commitments.Set(ctx, origin, commitment.Bytes()); err != nil {
		return err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeCommitmentUpdated,
			sdk.NewAttribute(types.AttributeKeyContract, k.address.String()),
			sdk.NewAttribute(types.AttributeKeyOrigin, fmt.Sprint(origin)),
			sdk.NewAttribute(types.AttributeKeyCommitment, commitment.Hex()),
		),
	)
	return nil
}

func (k *Keeper) emitValidator(ctx sdk.Context, eventType string, origin uint32, validator common.Address) {
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			eventType,
			sdk.NewAttribute(types.AttributeKeyContract, k.address.String()),
			sdk.NewAttribute(types.AttributeKeyOrigin, fmt.Sprint(origin)),
			sdk.NewAttribute(types.AttributeKeyValidator, validator.Hex()),
		),
	)
}

func (k *Keeper) Owner(ctx context.Context) (util.HexAddress, error) {
	return k.ownable.Owner(ctx)
}

func (k *Keeper) TransferOwnership(ctx context.Context, caller, newOwner util.HexAddress) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		return k.ownable.TransferOwnership(ctx, caller, newOwner)
	})
}
