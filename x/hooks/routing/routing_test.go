package routing_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
	"github.com/celestiaorg/hyperlane-core/test/util/hyperlanetest"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/hooks/routing"
	"github.com/celestiaorg/hyperlane-core/x/hooks/types"
)

func TestDomainRoutingHook(t *testing.T) {
	h := hyperlanetest.NewHarness(t, 1)
	ctx := h.Ctx()
	owner := hyperlanetest.Owner

	toTwo := hyperlanetest.DeployFeeHook(t, h.Chain, 5)
	toThree := hyperlanetest.DeployFeeHook(t, h.Chain, 7)

	hook, err := routing.NewDomainRoutingHook(ctx, h.Chain.Env, owner, util.ZeroAddress)
	require.NoError(t, err)
	require.Equal(t, coretypes.HookTypeRouting, hook.HookType())
	require.NoError(t, h.Mailbox.SetDefaultHook(ctx, owner, hook.Address()))

	added, err := hook.SetHook(ctx, owner, 2, toTwo.Address())
	require.NoError(t, err)
	require.True(t, added)
	added, err = hook.SetHook(ctx, owner, 3, toThree.Address())
	require.NoError(t, err)
	require.True(t, added)
	added, err = hook.SetHook(ctx, owner, 3, toThree.Address())
	require.NoError(t, err)
	require.False(t, added)

	domains, err := hook.Domains(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint32{2, 3}, domains)

	recipient := hyperlanetest.Account("recipient")
	quote, err := h.Mailbox.QuoteDispatch(ctx, h.Sender, 3, recipient, nil, nil, util.ZeroAddress)
	require.NoError(t, err)
	require.Equal(t, int64(7), quote.Int64())

	_, err = h.Mailbox.Dispatch(ctx, h.Sender, math.NewInt(5), 2, recipient, nil, nil, util.ZeroAddress)
	require.NoError(t, err)
	require.Len(t, toTwo.Posted, 1)
	require.Empty(t, toThree.Posted)
	require.Equal(t, int64(5), h.Chain.Balance(ctx, toTwo.Address()).Int64())
	require.True(t, h.Chain.Balance(ctx, hook.Address()).IsZero())

	_, err = h.Mailbox.Dispatch(ctx, h.Sender, math.NewInt(100), 4, recipient, nil, nil, util.ZeroAddress)
	require.ErrorIs(t, err, types.ErrNoRoute)

	removed, err := hook.RemoveHook(ctx, owner, 2)
	require.NoError(t, err)
	require.True(t, removed)
	removed, err = hook.RemoveHook(ctx, owner, 2)
	require.NoError(t, err)
	require.False(t, removed)
	_, err = hook.Route(ctx, 2)
	require.ErrorIs(t, err, types.ErrNoRoute)

	_, err = hook.SetHook(ctx, hyperlanetest.Account("stranger"), 2, toTwo.Address())
	require.ErrorIs(t, err, coretypes.ErrUnauthorized)
	_, err = hook.SetHook(ctx, owner, 2, hyperlanetest.Account("nobody"))
	require.ErrorIs(t, err, coretypes.ErrUnknownContract)
}

func TestFallbackRoutingHook(t *testing.T) {
	h := hyperlanetest.NewHarness(t, 1)
	ctx := h.Ctx()

	fallback := hyperlanetest.DeployFeeHook(t, h.Chain, 1)
	configured := hyperlanetest.DeployFeeHook(t, h.Chain, 2)

	hook, err := routing.NewDomainRoutingHook(ctx, h.Chain.Env, hyperlanetest.Owner, fallback.Address())
	require.NoError(t, err)
	require.Equal(t, coretypes.HookTypeFallbackRouting, hook.HookType())

	_, err = hook.SetHook(ctx, hyperlanetest.Owner, 2, configured.Address())
	require.NoError(t, err)

	route, err := hook.Route(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, configured.Address(), route)

	route, err = hook.Route(ctx, 9)
	require.NoError(t, err)
	require.Equal(t, fallback.Address(), route)

	quote, err := hook.QuoteDispatch(ctx, nil, util.HyperlaneMessage{Destination: 9})
	require.NoError(t, err)
	require.Equal(t, int64(1), quote.Int64())
}

func TestAmountRoutingHook(t *testing.T) {
	h := hyperlanetest.NewHarness(t, 1)
	ctx := h.Ctx()

	lower := hyperlanetest.DeployFeeHook(t, h.Chain, 1)
	upper := hyperlanetest.DeployFeeHook(t, h.Chain, 10)

	hook, err := routing.NewAmountRoutingHook(h.Chain.Env, lower.Address(), upper.Address(), uint256.NewInt(1_000))
	require.NoError(t, err)
	require.Equal(t, coretypes.HookTypeAmountRouting, hook.HookType())

	transfer := func(amount uint64) util.HyperlaneMessage {
		return util.HyperlaneMessage{
			Destination: 2,
			Body:        util.FormatTokenMessage(hyperlanetest.Account("alice"), uint256.NewInt(amount), nil),
		}
	}

	testCases := []struct {
		name   string
		amount uint64
		expect util.HexAddress
	}{
		{"below threshold", 999, lower.Address()},
		{"at threshold", 1_000, upper.Address()},
		{"above threshold", 5_000, upper.Address()},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			route, err := hook.Route(transfer(tc.amount))
			require.NoError(t, err)
			require.Equal(t, tc.expect, route)
		})
	}

	quote, err := hook.QuoteDispatch(ctx, nil, transfer(1))
	require.NoError(t, err)
	require.Equal(t, int64(1), quote.Int64())

	_, err = hook.Route(util.HyperlaneMessage{Body: []byte("not a token message")})
	require.ErrorIs(t, err, types.ErrInvalidTokenMessage)
}
