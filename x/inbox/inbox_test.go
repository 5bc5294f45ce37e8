package inbox_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
	"github.com/celestiaorg/hyperlane-core/test/util/hyperlanetest"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/inbox"
)

func TestInboxHandle(t *testing.T) {
	chain := hyperlanetest.NewBareChain(t, 1)
	ctx := chain.Context()

	i, err := inbox.NewInbox(ctx, chain.Env, hyperlanetest.Owner)
	require.NoError(t, err)

	alice := hyperlanetest.Account("alice")
	require.NoError(t, i.Handle(ctx, 2, alice, []byte("hello")))
	require.NoError(t, i.Handle(ctx, 3, alice, nil))

	count, err := i.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)

	received, err := i.Messages(ctx)
	require.NoError(t, err)
	require.Equal(t, []inbox.Received{
		{Origin: 2, Sender: alice, Body: []byte("hello")},
		{Origin: 3, Sender: alice, Body: nil},
	}, received)

	events := ctx.EventManager().Events()
	require.Equal(t, inbox.EventTypeReceived, events[len(events)-1].Type)
}

func TestParseReceived(t *testing.T) {
	r := inbox.Received{Origin: 7, Sender: hyperlanetest.Account("bob"), Body: []byte("body")}
	parsed, err := inbox.ParseReceived(r.Bytes())
	require.NoError(t, err)
	require.Equal(t, r, parsed)

	_, err = inbox.ParseReceived(make([]byte, 35))
	require.Error(t, err)
}

func TestInboxSetInterchainSecurityModule(t *testing.T) {
	chain := hyperlanetest.NewBareChain(t, 1)
	ctx := chain.Context()

	i, err := inbox.NewInbox(ctx, chain.Env, hyperlanetest.Owner)
	require.NoError(t, err)

	ism, err := i.InterchainSecurityModule(ctx)
	require.NoError(t, err)
	require.True(t, ism.IsZeroAddress())

	static := hyperlanetest.DeployStaticIsm(t, chain, true)

	err = i.SetInterchainSecurityModule(ctx, hyperlanetest.Account("mallory"), static.Address())
	require.ErrorIs(t, err, coretypes.ErrUnauthorized)

	err = i.SetInterchainSecurityModule(ctx, hyperlanetest.Owner, util.CreateHexAddress("nothing", 1, 0))
	require.ErrorIs(t, err, coretypes.ErrUnknownContract)

	require.NoError(t, i.SetInterchainSecurityModule(ctx, hyperlanetest.Owner, static.Address()))
	ism, err = i.InterchainSecurityModule(ctx)
	require.NoError(t, err)
	require.Equal(t, static.Address(), ism)

	require.NoError(t, i.SetInterchainSecurityModule(ctx, hyperlanetest.Owner, util.ZeroAddress))
	ism, err = i.InterchainSecurityModule(ctx)
	require.NoError(t, err)
	require.True(t, ism.IsZeroAddress())
}
