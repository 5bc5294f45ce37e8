// Package router propagates fraud attributions between chains over the
// mailbox. Attributions received from remote chains are kept apart from the
// ones proven locally.
package router

import (
	"context"
	"fmt"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/fraudproofs/keeper"
	"github.com/celestiaorg/hyperlane-core/x/fraudproofs/types"
	"github.com/celestiaorg/hyperlane-core/x/router"
)

// ContractClass is used to derive fraud proof router addresses.
const ContractClass = "fraud_proof_router"

var RemoteAttributionsKey = collections.NewPrefix(0)

type remoteKey = collections.Pair[collections.Triple[uint32, []byte, []byte], []byte]

// FraudProofRouter sends local attributions to remote chains and records the
// ones remote chains send, keyed by (origin, signer, merkle tree, digest).
type FraudProofRouter struct {
	*router.Router

	attributions *keeper.Keeper

	remoteAttributions collections.Map[remoteKey, types.Attribution]
	schema             collections.Schema
}

func NewFraudProofRouter(ctx context.Context, env *coretypes.Env, mailbox coretypes.Mailbox, owner util.HexAddress, attributions *keeper.Keeper) (*FraudProofRouter, error) {
	f := &FraudProofRouter{attributions: attributions}

	r, err := router.NewRouter(ctx, env, mailbox, owner, ContractClass, f)
	if err != nil {
		return nil, err
	}
	f.Router = r

	storeService := env.ContractStore(r.Address(), []byte("fraud"))
	sb := collections.NewSchemaBuilder(storeService)
	f.remoteAttributions = collections.NewMap(
		sb,
		RemoteAttributionsKey,
		"remote_attributions",
		collections.PairKeyCodec(
			collections.TripleKeyCodec(collections.Uint32Key, collections.BytesKey, collections.BytesKey),
			collections.BytesKey,
		),
		types.AttributionValue,
	)

	schema, err := sb.Build()
	if err != nil {
		return nil, err
	}
	f.schema = schema
	return f, nil
}

// SendFraudProof sends the local attribution of signer over digest to the
// fraud proof router on destination.
func (f *FraudProofRouter) SendFraudProof(
	ctx context.Context,
	payer util.HexAddress,
	value math.Int,
	destination uint32,
	signer common.Address,
	merkleTree util.HexAddress,
	digest common.Hash,
) (common.Hash, error) {
	var id common.Hash

	err := coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		attribution, err := f.attributions.Attribution(ctx, digest, signer)
		if err != nil {
			return err
		}

		msg := types.FraudMessage{Signer: signer, MerkleTree: merkleTree, Digest: digest, Attribution: attribution}
		id, err = f.Dispatch(ctx, payer, value, destination, msg.Bytes())
		if err != nil {
			return err
		}

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeFraudProofSent,
				sdk.NewAttribute(types.AttributeKeyContract, f.Address().String()),
				sdk.NewAttribute(types.AttributeKeyDestination, fmt.Sprint(destination)),
				sdk.NewAttribute(types.AttributeKeySigner, signer.Hex()),
				sdk.NewAttribute(types.AttributeKeyDigest, digest.Hex()),
				sdk.NewAttribute(types.AttributeKeyFraudType, attribution.FraudType.String()),
				sdk.NewAttribute(types.AttributeKeyMessageId, id.Hex()),
			),
		)
		return nil
	})
	return id, err
}

// HandlePayload records an attribution sent by the router on origin. The
// first record for a key is kept.
func (f *FraudProofRouter) HandlePayload(ctx context.Context, origin uint32, _ util.HexAddress, body []byte) error {
	msg, err := types.ParseFraudMessage(body)
	if err != nil {
		return errorsmod.Wrap(types.ErrInvalidFraudProofMessage, err.Error())
	}

	key := collections.Join(collections.Join3(origin, msg.Signer.Bytes(), msg.MerkleTree.Bytes()), msg.Digest.Bytes())
	exists, err := f.remoteAttributions.Has(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return errorsmod.Wrapf(types.ErrRemoteAttributed, "signer %s, digest %s from domain %d", msg.Signer.Hex(), msg.Digest.Hex(), origin)
	}
	if err := f.remoteAttributions.Set(ctx, key, msg.Attribution); err != nil {
		return err
	}

	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeRemoteAttribution,
			sdk.NewAttribute(types.AttributeKeyContract, f.Address().String()),
			sdk.NewAttribute(types.AttributeKeyOrigin, fmt.Sprint(origin)),
			sdk.NewAttribute(types.AttributeKeySigner, msg.Signer.Hex()),
			sdk.NewAttribute(types.AttributeKeyMerkleTree, msg.MerkleTree.String()),
			sdk.NewAttribute(types.AttributeKeyDigest, msg.Digest.Hex()),
			sdk.NewAttribute(types.AttributeKeyFraudType, msg.FraudType.String()),
			sdk.NewAttribute(types.AttributeKeyTimestamp, fmt.Sprint(msg.Timestamp)),
		),
	)
	f.Logger(ctx).Info("recorded remote attribution", "origin", origin, "signer", msg.Signer.Hex(), "type", msg.FraudType.String())
	return nil
}

// RemoteAttribution returns the attribution origin reported for signer over
// digest on merkleTree.
func (f *FraudProofRouter) RemoteAttribution(ctx context.Context, origin uint32, signer common.Address, merkleTree util.HexAddress, digest common.Hash) (types.Attribution, error) {
	key := collections.Join(collections.Join3(origin, signer.Bytes(), merkleTree.Bytes()), digest.Bytes())
	attribution, err := f.remoteAttributions.Get(ctx, key)
	if errorsmod.IsOf(err, collections.ErrNotFound) {
		return types.Attribution{}, errorsmod.Wrapf(types.ErrNotAttributed, "signer %s, digest %s from domain %d", signer.Hex(), digest.Hex(), origin)
	}
	return attribution, err
}
