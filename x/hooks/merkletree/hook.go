// Package merkletree implements the required hook of a mailbox: it inserts
// every dispatched message id into an incremental merkle tree that
// validators checkpoint.
package merkletree

import (
	"context"
	"fmt"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"

	"github.com/celestiaorg/hyperlane-core/pkg/checkpoint"
	"github.com/celestiaorg/hyperlane-core/pkg/merkle"
	"github.com/celestiaorg/hyperlane-core/pkg/util"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/hooks/types"
)

// ContractClass is used to derive merkle tree hook addresses.
const ContractClass = "merkle_tree_hook"

var TreeKey = collections.NewPrefix(0)

var _ coretypes.PostDispatchHook = (*Hook)(nil)

type Hook struct {
	env     *coretypes.Env
	address util.HexAddress
	mailbox coretypes.Mailbox

	tree   collections.Item[merkle.Tree]
	schema collections.Schema
}

// NewHook deploys a merkle tree hook fed by mailbox.
func NewHook(env *coretypes.Env, mailbox coretypes.Mailbox) (*Hook, error) {
	addr, storeService := env.NewContract(ContractClass)
	sb := collections.NewSchemaBuilder(storeService)

	h := &Hook{
		env:     env,
		address: addr,
		mailbox: mailbox,
		tree:    collections.NewItem(sb, TreeKey, "tree", merkle.TreeValue),
	}

	schema, err := sb.Build()
	if err != nil {
		return nil, err
	}
	h.schema = schema

	if err := env.Register(h); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Hook) Logger(ctx context.Context) log.Logger {
	return sdk.UnwrapSDKContext(ctx).Logger().With("module", "x/hooks/merkletree")
}

func (h *Hook) Address() util.HexAddress {
	return h.address
}

func (h *Hook) HookType() uint8 {
	return coretypes.HookTypeMerkleTree
}

// QuoteDispatch is always zero.
func (h *Hook) QuoteDispatch(_ context.Context, metadata []byte, _ util.HyperlaneMessage) (math.Int, error) {
	if _, err := types.ParseMetadata(metadata); err != nil {
		return math.Int{}, err
	}
	return math.ZeroInt(), nil
}

// PostDispatch inserts the message id. Only the message the mailbox
// dispatched last may be inserted, which keeps tree order equal to nonce
// order.
func (h *Hook) PostDispatch(ctx context.Context, metadata []byte, message util.HyperlaneMessage, _ math.Int) error {
	if _, err := types.ParseMetadata(metadata); err != nil {
		return err
	}

	id := message.Id()
	latest, err := h.mailbox.LatestDispatchedId(ctx)
	if err != nil {
		return err
	}
	if latest != id {
		return errorsmod.Wrapf(types.ErrNotLatestDispatched, "%s, latest is %s", id.Hex(), latest.Hex())
	}

	tree, err := h.Tree(ctx)
	if err != nil {
		return err
	}
	index, err := tree.Insert(id)
	if err != nil {
		return err
	}
	if err := h.tree.Set(ctx, tree); err != nil {
		return err
	}

	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeInsertedIntoTree,
			sdk.NewAttribute(types.AttributeKeyContract, h.address.String()),
			sdk.NewAttribute(types.AttributeKeyMessageId, id.Hex()),
			sdk.NewAttribute(types.AttributeKeyIndex, fmt.Sprint(index)),
		),
	)
	h.Logger(ctx).Debug("inserted into tree", "id", id.Hex(), "index", index)
	return nil
}

// Tree returns the current frontier, empty before the first insertion.
func (h *Hook) Tree(ctx context.Context) (merkle.Tree, error) {
	tree, err := h.tree.Get(ctx)
	if errorsmod.IsOf(err, collections.ErrNotFound) {
		return merkle.Tree{}, nil
	}
	return tree, err
}

func (h *Hook) Count(ctx context.Context) (uint32, error) {
	tree, err := h.Tree(ctx)
	return tree.Count, err
}

func (h *Hook) Root(ctx context.Context) (common.Hash, error) {
	tree, err := h.Tree(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	return tree.Root(), nil
}

// LatestCheckpoint returns the current root and the index of the last
// inserted leaf.
func (h *Hook) LatestCheckpoint(ctx context.Context) (common.Hash, uint32, error) {
	tree, err := h.Tree(ctx)
	if err != nil {
		return common.Hash{}, 0, err
	}
	if tree.Count == 0 {
		return common.Hash{}, 0, errorsmod.Wrapf(types.ErrEmptyTree, "%s", h.address)
	}
	return tree.Root(), tree.Count - 1, nil
}

// Checkpoint is the checkpoint validators sign for the current tree,
// attesting to messageId as the last inserted leaf.
func (h *Hook) Checkpoint(ctx context.Context, messageId common.Hash) (checkpoint.Checkpoint, error) {
	root, index, err := h.LatestCheckpoint(ctx)
	if err != nil {
		return checkpoint.Checkpoint{}, err
	}
	return checkpoint.Checkpoint{
		Origin:     h.env.Domain,
		MerkleTree: h.address,
		Root:       root,
		Index:      index,
		MessageId:  messageId,
	}, nil
}
