package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"

	"github.com/celestiaorg/hyperlane-core/pkg/checkpoint"
	"github.com/celestiaorg/hyperlane-core/pkg/merkle"
	"github.com/celestiaorg/hyperlane-core/pkg/util"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/fraudproofs/types"
)

// CheckpointFraudProofsClass is used to derive fraud proof contract addresses.
const CheckpointFraudProofsClass = "checkpoint_fraud_proofs"

var StoredCheckpointsKey = collections.NewPrefix(0)

// CheckpointFraudProofs evaluates signed checkpoints against the merkle tree
// hooks of this chain. Membership proofs are only accepted against roots
// previously stored with StoreLatestCheckpoint.
type CheckpointFraudProofs struct {
	env     *coretypes.Env
	address util.HexAddress

	// storedCheckpoints maps (merkle tree, root) to the index of the last leaf
	// under root.
	storedCheckpoints collections.Map[collections.Pair[[]byte, []byte], uint32]
	schema            collections.Schema
}

func NewCheckpointFraudProofs(env *coretypes.Env) (*CheckpointFraudProofs, error) {
	addr, storeService := env.NewContract(CheckpointFraudProofsClass)
	sb := collections.NewSchemaBuilder(storeService)

	c := &CheckpointFraudProofs{
		env:     env,
		address: addr,
		storedCheckpoints: collections.NewMap(
			sb,
			StoredCheckpointsKey,
			"stored_checkpoints",
			collections.PairKeyCodec(collections.BytesKey, collections.BytesKey),
			collections.Uint32Value,
		),
	}

	schema, err := sb.Build()
	if err != nil {
		return nil, err
	}
	c.schema = schema

	if err := env.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *CheckpointFraudProofs) Address() util.HexAddress {
	return c.address
}

func (c *CheckpointFraudProofs) merkleTree(addr util.HexAddress) (types.MerkleTreeHook, error) {
	contract, err := c.env.Contract(addr)
	if err != nil {
		return nil, err
	}
	tree, ok := contract.(types.MerkleTreeHook)
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrNotMerkleTree, "%s", addr)
	}
	return tree, nil
}

// StoreLatestCheckpoint snapshots the current root of merkleTree so later
// proofs can be checked against it.
func (c *CheckpointFraudProofs) StoreLatestCheckpoint(ctx context.Context, merkleTree util.HexAddress) (common.Hash, uint32, error) {
	var (
		root  common.Hash
		index uint32
	)
	err := coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		tree, err := c.merkleTree(merkleTree)
		if err != nil {
			return err
		}
		root, index, err = tree.LatestCheckpoint(ctx)
		if err != nil {
			return err
		}
		if err := c.storedCheckpoints.Set(ctx, collections.Join(merkleTree.Bytes(), root.Bytes()), index); err != nil {
			return err
		}

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeCheckpointStored,
				sdk.NewAttribute(types.AttributeKeyContract, c.address.String()),
				sdk.NewAttribute(types.AttributeKeyMerkleTree, merkleTree.String()),
				sdk.NewAttribute(types.AttributeKeyRoot, root.Hex()),
				sdk.NewAttribute(types.AttributeKeyIndex, fmt.Sprint(index)),
			),
		)
		return nil
	})
	return root, index, err
}

// StoredCheckpoint returns the index stored for root of merkleTree.
func (c *CheckpointFraudProofs) StoredCheckpoint(ctx context.Context, merkleTree util.HexAddress, root common.Hash) (uint32, bool, error) {
	index, err := c.storedCheckpoints.Get(ctx, collections.Join(merkleTree.Bytes(), root.Bytes()))
	if errorsmod.IsOf(err, collections.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return index, true, nil
}

// StoredCheckpointContainsMessage reports whether proof places messageId at
// index under a stored root that covers index.
func (c *CheckpointFraudProofs) StoredCheckpointContainsMessage(ctx context.Context, merkleTree util.HexAddress, index uint32, messageId common.Hash, proof merkle.Proof) (bool, error) {
	root := merkle.BranchRoot(messageId, proof, index)
	storedIndex, found, err := c.StoredCheckpoint(ctx, merkleTree, root)
	if err != nil || !found {
		return false, err
	}
	return storedIndex >= index, nil
}

// IsLocal reports whether cp was made over a merkle tree hook of this chain.
func (c *CheckpointFraudProofs) IsLocal(cp checkpoint.Checkpoint) bool {
	if cp.Origin != c.env.Domain {
		return false
	}
	_, err := c.merkleTree(cp.MerkleTree)
	return err == nil
}

func (c *CheckpointFraudProofs) requireLocal(cp checkpoint.Checkpoint) (types.MerkleTreeHook, error) {
	if cp.Origin != c.env.Domain {
		return nil, errorsmod.Wrapf(types.ErrNotLocal, "origin %d, local domain %d", cp.Origin, c.env.Domain)
	}
	tree, err := c.merkleTree(cp.MerkleTree)
	if err != nil {
		return nil, errorsmod.Wrap(types.ErrNotLocal, err.Error())
	}
	return tree, nil
}

func (c *CheckpointFraudProofs) requireStored(ctx context.Context, cp checkpoint.Checkpoint, messageId common.Hash, proof merkle.Proof) error {
	ok, err := c.StoredCheckpointContainsMessage(ctx, cp.MerkleTree, cp.Index, messageId, proof)
	if err != nil {
		return err
	}
	if !ok {
		return errorsmod.Wrapf(types.ErrNotInStoredCheckpoint, "%s at index %d", messageId.Hex(), cp.Index)
	}
	return nil
}

// IsPremature reports whether cp claims an index the local tree has not
// reached yet. The live count is used: a stored checkpoint may lag the tree,
// and a checkpoint beyond it but within the tree is honest.
func (c *CheckpointFraudProofs) IsPremature(ctx context.Context, cp checkpoint.Checkpoint) (bool, error) {
	tree, err := c.requireLocal(cp)
	if err != nil {
		return false, err
	}
	count, err := tree.Count(ctx)
	if err != nil {
		return false, err
	}
	return cp.Index >= count, nil
}

// IsFraudulentMessageId reports whether actualMessageId, proven against a
// stored checkpoint, occupies the slot cp claims for a different id.
func (c *CheckpointFraudProofs) IsFraudulentMessageId(ctx context.Context, cp checkpoint.Checkpoint, proof merkle.Proof, actualMessageId common.Hash) (bool, error) {
	if _, err := c.requireLocal(cp); err != nil {
		return false, err
	}
	if err := c.requireStored(ctx, cp, actualMessageId, proof); err != nil {
		return false, err
	}
	return actualMessageId != cp.MessageId, nil
}

// IsFraudulentRoot reports whether cp.Root differs from the root the tree had
// right after inserting cp.MessageId, reconstructed from a proof against a
// stored checkpoint.
func (c *CheckpointFraudProofs) IsFraudulentRoot(ctx context.Context, cp checkpoint.Checkpoint, proof merkle.Proof) (bool, error) {
	if _, err := c.requireLocal(cp); err != nil {
		return false, err
	}
	if err := c.requireStored(ctx, cp, cp.MessageId, proof); err != nil {
		return false, err
	}
	reconstructed, err := merkle.ReconstructRoot(cp.MessageId, proof, cp.Index)
	if err != nil {
		return false, err
	}
	return reconstructed != cp.Root, nil
}
