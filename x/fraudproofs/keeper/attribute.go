package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	metrics "github.com/hashicorp/go-metrics"

	"github.com/celestiaorg/hyperlane-core/pkg/checkpoint"
	"github.com/celestiaorg/hyperlane-core/pkg/merkle"
	"github.com/celestiaorg/hyperlane-core/pkg/util"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/fraudproofs/types"
)

// AttributeCheckpointFraudClass is used to derive attribution contract
// addresses.
const AttributeCheckpointFraudClass = "attribute_checkpoint_fraud"

var (
	WhitelistKey    = collections.NewPrefix(0)
	AttributionsKey = collections.NewPrefix(1)
	OwnerKey        = collections.NewPrefix(2)
)

// Keeper attributes fraudulent checkpoint signatures to their signers. At
// most one attribution exists per (digest, signer) and none is ever removed.
type Keeper struct {
	env     *coretypes.Env
	address util.HexAddress
	proofs  *CheckpointFraudProofs

	whitelist    collections.KeySet[[]byte]
	attributions collections.Map[collections.Pair[[]byte, []byte], types.Attribution]
	schema       collections.Schema

	ownable coretypes.Ownable
}

// NewKeeper deploys the attribution contract together with the
// CheckpointFraudProofs it evaluates fraud with.
func NewKeeper(ctx context.Context, env *coretypes.Env, owner util.HexAddress) (*Keeper, error) {
	proofs, err := NewCheckpointFraudProofs(env)
	if err != nil {
		return nil, err
	}

	addr, storeService := env.NewContract(AttributeCheckpointFraudClass)
	sb := collections.NewSchemaBuilder(storeService)

	k := &Keeper{
		env:       env,
		address:   addr,
		proofs:    proofs,
		whitelist: collections.NewKeySet(sb, WhitelistKey, "whitelist", collections.BytesKey),
		attributions: collections.NewMap(
			sb,
			AttributionsKey,
			"attributions",
			collections.PairKeyCodec(collections.BytesKey, collections.BytesKey),
			types.AttributionValue,
		),
		ownable: coretypes.NewOwnable(sb, addr, OwnerKey),
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
	return sdk.UnwrapSDKContext(ctx).Logger().With("module", "x/"+types.ModuleName)
}

func (k *Keeper) Address() util.HexAddress {
	return k.address
}

func (k *Keeper) CheckpointFraudProofs() *CheckpointFraudProofs {
	return k.proofs
}

// Whitelist marks merkleTree as a legitimate merkle tree hook. Signatures over
// any other local contract are attributable as whitelist fraud.
func (k *Keeper) Whitelist(ctx context.Context, caller, merkleTree util.HexAddress) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		if err := k.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		if _, err := k.env.Contract(merkleTree); err != nil {
			return err
		}
		if err := k.whitelist.Set(ctx, merkleTree.Bytes()); err != nil {
			return err
		}

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeWhitelisted,
				sdk.NewAttribute(types.AttributeKeyContract, k.address.String()),
				sdk.NewAttribute(types.AttributeKeyMerkleTree, merkleTree.String()),
			),
		)
		return nil
	})
}

func (k *Keeper) IsWhitelisted(ctx context.Context, merkleTree util.HexAddress) (bool, error) {
	return k.whitelist.Has(ctx, merkleTree.Bytes())
}

// AttributeWhitelist attributes a local checkpoint signed over a merkle tree
// that is not whitelisted.
func (k *Keeper) AttributeWhitelist(ctx context.Context, cp checkpoint.Checkpoint, signature []byte) (common.Address, error) {
	return k.attribute(ctx, cp, signature, types.FraudTypeWhitelist, func(ctx sdk.Context) error {
		if !k.proofs.IsLocal(cp) {
			return errorsmod.Wrapf(types.ErrNotLocal, "%s on %d", cp.MerkleTree, cp.Origin)
		}
		whitelisted, err := k.IsWhitelisted(ctx, cp.MerkleTree)
		if err != nil {
			return err
		}
		if whitelisted {
			return errorsmod.Wrapf(types.ErrWhitelisted, "%s", cp.MerkleTree)
		}
		return nil
	})
}

// AttributePremature attributes a checkpoint claiming an index the local
// tree has not reached.
func (k *Keeper) AttributePremature(ctx context.Context, cp checkpoint.Checkpoint, signature []byte) (common.Address, error) {
	return k.attribute(ctx, cp, signature, types.FraudTypePremature, func(ctx sdk.Context) error {
		premature, err := k.proofs.IsPremature(ctx, cp)
		if err != nil {
			return err
		}
		if !premature {
			return errorsmod.Wrapf(types.ErrNotPremature, "index %d", cp.Index)
		}
		return nil
	})
}

// AttributeMessageId attributes a checkpoint whose message id differs from
// actualMessageId, proven at the same index.
func (k *Keeper) AttributeMessageId(ctx context.Context, cp checkpoint.Checkpoint, proof merkle.Proof, actualMessageId common.Hash, signature []byte) (common.Address, error) {
	return k.attribute(ctx, cp, signature, types.FraudTypeMessageId, func(ctx sdk.Context) error {
		fraudulent, err := k.proofs.IsFraudulentMessageId(ctx, cp, proof, actualMessageId)
		if err != nil {
			return err
		}
		if !fraudulent {
			return errorsmod.Wrapf(types.ErrNotFraudulentMessageId, "%s", cp.MessageId.Hex())
		}
		return nil
	})
}

// AttributeRoot attributes a checkpoint whose root does not match its
// message id and index.
func (k *Keeper) AttributeRoot(ctx context.Context, cp checkpoint.Checkpoint, proof merkle.Proof, signature []byte) (common.Address, error) {
	return k.attribute(ctx, cp, signature, types.FraudTypeRoot, func(ctx sdk.Context) error {
		fraudulent, err := k.proofs.IsFraudulentRoot(ctx, cp, proof)
		if err != nil {
			return err
		}
		if !fraudulent {
			return errorsmod.Wrapf(types.ErrNotFraudulentRoot, "%s", cp.Root.Hex())
		}
		return nil
	})
}

func (k *Keeper) attribute(
	ctx context.Context,
	cp checkpoint.Checkpoint,
	signature []byte,
	fraudType types.FraudType,
	check func(ctx sdk.Context) error,
) (common.Address, error) {
	var signer common.Address

	err := coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		if err := check(ctx); err != nil {
			return err
		}

		digest := cp.Digest()
		var err error
		signer, err = checkpoint.RecoverSigner(digest, signature)
		if err != nil {
			return errorsmod.Wrap(types.ErrInvalidSignature, err.Error())
		}

		key := collections.Join(digest.Bytes(), signer.Bytes())
		exists, err := k.attributions.Has(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			return errorsmod.Wrapf(types.ErrAlreadyAttributed, "signer %s, digest %s", signer.Hex(), digest.Hex())
		}

		timestamp := ctx.BlockTime().Unix()
		if timestamp < 0 || timestamp > types.MaxTimestamp {
			return errorsmod.Wrapf(types.ErrInvalidTimestamp, "%d", timestamp)
		}
		attribution := types.Attribution{FraudType: fraudType, Timestamp: timestamp}
		if err := k.attributions.Set(ctx, key, attribution); err != nil {
			return err
		}

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeFraudAttributed,
				sdk.NewAttribute(types.AttributeKeyContract, k.address.String()),
				sdk.NewAttribute(types.AttributeKeySigner, signer.Hex()),
				sdk.NewAttribute(types.AttributeKeyDigest, digest.Hex()),
				sdk.NewAttribute(types.AttributeKeyFraudType, fraudType.String()),
				sdk.NewAttribute(types.AttributeKeyTimestamp, fmt.Sprint(attribution.Timestamp)),
			),
		)
		k.Logger(ctx).Info("attributed checkpoint fraud", "signer", signer.Hex(), "type", fraudType.String())
		return nil
	})
	if err != nil {
		return common.Address{}, err
	}

	telemetry.IncrCounterWithLabels(
		[]string{types.ModuleName, "attribution"},
		1,
		[]metrics.Label{telemetry.NewLabel("fraud_type", fraudType.String())},
	)
	return signer, nil
}

// Attribution returns the attribution recorded for signer over digest.
func (k *Keeper) Attribution(ctx context.Context, digest common.Hash, signer common.Address) (types.Attribution, error) {
	attribution, err := k.attributions.Get(ctx, collections.Join(digest.Bytes(), signer.Bytes()))
	if errorsmod.IsOf(err, collections.ErrNotFound) {
		return types.Attribution{}, errorsmod.Wrapf(types.ErrNotAttributed, "signer %s, digest %s", signer.Hex(), digest.Hex())
	}
	return attribution, err
}

// CheckpointAttribution returns the attribution of signature over cp.
func (k *Keeper) CheckpointAttribution(ctx context.Context, cp checkpoint.Checkpoint, signature []byte) (types.Attribution, error) {
	digest := cp.Digest()
	signer, err := checkpoint.RecoverSigner(digest, signature)
	if err != nil {
		return types.Attribution{}, errorsmod.Wrap(types.ErrInvalidSignature, err.Error())
	}
	return k.Attribution(ctx, digest, signer)
}

// Attributions lists every attribution ordered by digest then signer.
func (k *Keeper) Attributions(ctx context.Context) ([]types.AttributionRecord, error) {
	iter, err := k.attributions.Iterate(ctx, nil)
	if err != nil {
		return nil, err
	}
	kvs, err := iter.KeyValues()
	if err != nil {
		return nil, err
	}

	records := make([]types.AttributionRecord, 0, len(kvs))
	for _, kv := range kvs {
		records = append(records, types.AttributionRecord{
			Digest:      common.BytesToHash(kv.Key.K1()),
			Signer:      common.BytesToAddress(kv.Key.K2()),
			Attribution: kv.Value,
		})
	}
	return records, nil
}

func (k *Keeper) Owner(ctx context.Context) (util.HexAddress, error) {
	return k.ownable.Owner(ctx)
}

func (k *Keeper) TransferOwnership(ctx context.Context, caller, newOwner util.HexAddress) error {
	return k.ownable.TransferOwnership(ctx, caller, newOwner)
}
