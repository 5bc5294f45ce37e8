package messageid_test

import (
	"context"
	"errors"
	"testing"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
	"github.com/celestiaorg/hyperlane-core/test/util/hyperlanetest"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/hooks/messageid"
	"github.com/celestiaorg/hyperlane-core/x/hooks/types"
)

const remoteDomain = 2

type recordingChannel struct {
	failAfter int
	delivered []messageid.SentMessage
}

func (c *recordingChannel) DeliverMessageId(_ context.Context, _ util.HexAddress, msg messageid.SentMessage) error {
	if c.failAfter >= 0 && len(c.delivered) == c.failAfter {
		return errors.New("channel down")
	}
	c.delivered = append(c.delivered, msg)
	return nil
}

func TestHook(t *testing.T) {
	h := hyperlanetest.NewHarness(t, 1)
	ctx := h.Ctx()
	remoteIsm := hyperlanetest.Account("remote_ism")

	_, err := messageid.NewHook(h.Chain.Env, h.Mailbox, remoteDomain, util.ZeroAddress)
	require.ErrorIs(t, err, types.ErrInvalidConfig)

	hook, err := messageid.NewHook(h.Chain.Env, h.Mailbox, remoteDomain, remoteIsm)
	require.NoError(t, err)
	require.Equal(t, coretypes.HookTypeIdAuthIsm, hook.HookType())

	metadata := util.FormatStandardHookMetadata(uint256.NewInt(25), nil, util.EthAddress(h.Sender), nil)
	recipient := hyperlanetest.Account("recipient")

	quote, err := h.Mailbox.QuoteDispatch(ctx, h.Sender, remoteDomain, recipient, []byte("a"), metadata, hook.Address())
	require.NoError(t, err)
	require.Equal(t, "25", quote.String())

	var ids []common.Hash
	for _, body := range []string{"a", "b", "c"} {
		id, err := h.Mailbox.Dispatch(ctx, h.Sender, math.NewInt(30), remoteDomain, recipient, []byte(body), metadata, hook.Address())
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.Equal(t, math.NewInt(75), h.Chain.Balance(ctx, hook.Address()))
	require.Equal(t, math.NewInt(hyperlanetest.SenderFunds-75), h.Chain.Balance(ctx, h.Sender))

	_, err = h.Mailbox.Dispatch(ctx, h.Sender, math.NewInt(24), remoteDomain, recipient, nil, metadata, hook.Address())
	require.ErrorIs(t, err, coretypes.ErrInsufficientPayment)
	_, err = h.Mailbox.Dispatch(ctx, h.Sender, math.NewInt(25), 3, recipient, nil, metadata, hook.Address())
	require.ErrorIs(t, err, types.ErrUnsupportedDestination)

	pending, err := hook.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	for i, sent := range pending {
		require.Equal(t, ids[i], sent.MessageId)
		require.Equal(t, remoteIsm, sent.Ism)
		require.Equal(t, uint32(remoteDomain), sent.Destination)
		require.Equal(t, "25", sent.Value.String())
	}

	channel := &recordingChannel{failAfter: 1}
	n, err := hook.Flush(ctx, channel)
	require.ErrorIs(t, err, types.ErrChannel)
	require.Equal(t, 1, n)

	channel.failAfter = -1
	n, err = hook.Flush(ctx, channel)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Len(t, channel.delivered, 3)
	require.Equal(t, ids[2], channel.delivered[2].MessageId)

	pending, err = hook.Pending(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestHookRejectsDirectCalls(t *testing.T) {
	h := hyperlanetest.NewHarness(t, 1)
	ctx := h.Ctx()

	hook, err := messageid.NewHook(h.Chain.Env, h.Mailbox, remoteDomain, hyperlanetest.Account("remote_ism"))
	require.NoError(t, err)

	message := util.HyperlaneMessage{Version: util.MessageVersion, Origin: 1, Destination: remoteDomain}
	err = hook.PostDispatch(ctx, nil, message, math.ZeroInt())
	require.ErrorIs(t, err, types.ErrNotLatestDispatched)

	_, err = hook.QuoteDispatch(ctx, []byte{0x00, 0x07}, message)
	require.ErrorIs(t, err, types.ErrInvalidMetadata)
}

func TestSentMessageEncoding(t *testing.T) {
	sent := messageid.SentMessage{
		Destination: 7,
		Ism:         hyperlanetest.Account("ism"),
		MessageId:   common.HexToHash("0xabcd"),
		Value:       math.NewInt(1_000_000),
	}
	parsed, err := messageid.ParseSentMessage(sent.Bytes())
	require.NoError(t, err)
	require.Equal(t, sent.Destination, parsed.Destination)
	require.Equal(t, sent.Ism, parsed.Ism)
	require.Equal(t, sent.MessageId, parsed.MessageId)
	require.True(t, sent.Value.Equal(parsed.Value))

	_, err = messageid.ParseSentMessage(sent.Bytes()[1:])
	require.Error(t, err)
}
