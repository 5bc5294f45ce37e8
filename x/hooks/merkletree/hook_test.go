package merkletree_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/hyperlane-core/pkg/merkle"
	"github.com/celestiaorg/hyperlane-core/pkg/util"
	"github.com/celestiaorg/hyperlane-core/test/util/hyperlanetest"
	"github.com/celestiaorg/hyperlane-core/x/hooks/merkletree"
	"github.com/celestiaorg/hyperlane-core/x/hooks/types"
)

func setup(t *testing.T) (*hyperlanetest.Harness, *merkletree.Hook) {
	t.Helper()

	h := hyperlanetest.NewHarness(t, 1)
	hook, err := merkletree.NewHook(h.Chain.Env, h.Mailbox)
	require.NoError(t, err)
	require.NoError(t, h.Mailbox.SetRequiredHook(h.Ctx(), hyperlanetest.Owner, hook.Address()))
	return h, hook
}

func TestHundredDispatches(t *testing.T) {
	h, hook := setup(t)
	ctx := h.Ctx()
	proving := merkle.NewProvingTree()

	var previousRoot common.Hash
	for i := 0; i < 100; i++ {
		previousRoot, _ = hook.Root(ctx)

		id, err := h.Mailbox.Dispatch(ctx, h.Sender, math.ZeroInt(), 2, hyperlanetest.Account("recipient"), []byte{0xde, 0xad, 0xbe, 0xef}, nil, util.ZeroAddress)
		require.NoError(t, err)
		_, err = proving.Ingest(id)
		require.NoError(t, err)
	}

	count, err := hook.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(100), count)

	root, err := hook.Root(ctx)
	require.NoError(t, err)
	require.NotEqual(t, previousRoot, root)
	require.Equal(t, proving.Root(), root)

	latestRoot, index, err := hook.LatestCheckpoint(ctx)
	require.NoError(t, err)
	require.Equal(t, root, latestRoot)
	require.Equal(t, uint32(99), index)

	leaf, err := proving.Leaf(42)
	require.NoError(t, err)
	proof, err := proving.Proof(42)
	require.NoError(t, err)
	require.True(t, merkle.Verify(root, leaf, proof, 42))
}

func TestQuoteIsZero(t *testing.T) {
	h, hook := setup(t)

	quote, err := hook.QuoteDispatch(h.Ctx(), nil, util.HyperlaneMessage{})
	require.NoError(t, err)
	require.True(t, quote.IsZero())

	_, err = hook.QuoteDispatch(h.Ctx(), []byte{0x00, 0x02}, util.HyperlaneMessage{})
	require.ErrorIs(t, err, types.ErrInvalidMetadata)
}

func TestRejectsMessageOtherThanLatest(t *testing.T) {
	h, hook := setup(t)
	ctx := h.Ctx()

	_, err := h.Mailbox.Dispatch(ctx, h.Sender, math.ZeroInt(), 2, hyperlanetest.Account("recipient"), []byte("first"), nil, util.ZeroAddress)
	require.NoError(t, err)

	stale := util.HyperlaneMessage{Version: util.MessageVersion, Origin: 1, Destination: 2, Body: []byte("forged")}
	err = hook.PostDispatch(ctx, nil, stale, math.ZeroInt())
	require.ErrorIs(t, err, types.ErrNotLatestDispatched)

	count, err := hook.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(1), count)
}

func TestCheckpoint(t *testing.T) {
	h, hook := setup(t)
	ctx := h.Ctx()

	_, _, err := hook.LatestCheckpoint(ctx)
	require.ErrorIs(t, err, types.ErrEmptyTree)

	id, err := h.Mailbox.Dispatch(ctx, h.Sender, math.ZeroInt(), 2, hyperlanetest.Account("recipient"), nil, nil, util.ZeroAddress)
	require.NoError(t, err)

	cp, err := hook.Checkpoint(ctx, id)
	require.NoError(t, err)
	require.Equal(t, uint32(1), cp.Origin)
	require.Equal(t, hook.Address(), cp.MerkleTree)
	require.Equal(t, uint32(0), cp.Index)
	require.Equal(t, id, cp.MessageId)

	var proof merkle.Proof
	zeros := merkle.ZeroHashes()
	copy(proof[:], zeros[:merkle.TreeDepth])
	require.Equal(t, merkle.BranchRoot(id, proof, 0), cp.Root)
}
