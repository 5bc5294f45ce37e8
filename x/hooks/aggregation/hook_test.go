package aggregation_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
	"github.com/celestiaorg/hyperlane-core/test/util/hyperlanetest"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/hooks/aggregation"
	"github.com/celestiaorg/hyperlane-core/x/hooks/types"
)

func TestAggregationHook(t *testing.T) {
	h := hyperlanetest.NewHarness(t, 1)
	ctx := h.Ctx()

	first := hyperlanetest.DeployFeeHook(t, h.Chain, 3)
	second := hyperlanetest.DeployFeeHook(t, h.Chain, 4)

	hook, err := aggregation.NewHook(h.Chain.Env, []util.HexAddress{first.Address(), second.Address()})
	require.NoError(t, err)
	require.Equal(t, coretypes.HookTypeAggregation, hook.HookType())
	require.NoError(t, h.Mailbox.SetDefaultHook(ctx, hyperlanetest.Owner, hook.Address()))

	recipient := hyperlanetest.Account("recipient")
	quote, err := h.Mailbox.QuoteDispatch(ctx, h.Sender, 2, recipient, nil, nil, util.ZeroAddress)
	require.NoError(t, err)
	require.Equal(t, int64(7), quote.Int64())

	_, err = h.Mailbox.Dispatch(ctx, h.Sender, math.NewInt(10), 2, recipient, nil, nil, util.ZeroAddress)
	require.NoError(t, err)

	require.Equal(t, []math.Int{math.NewInt(3)}, first.Payments)
	require.Equal(t, []math.Int{math.NewInt(4)}, second.Payments)
	require.Equal(t, int64(3), h.Chain.Balance(ctx, first.Address()).Int64())
	require.Equal(t, int64(4), h.Chain.Balance(ctx, second.Address()).Int64())
	require.True(t, h.Chain.Balance(ctx, hook.Address()).IsZero())
	require.Equal(t, int64(hyperlanetest.SenderFunds-7), h.Chain.Balance(ctx, h.Sender).Int64())
}

func TestAggregationHookRefundsExtraPayment(t *testing.T) {
	h := hyperlanetest.NewHarness(t, 1)
	ctx := h.Ctx()

	child := hyperlanetest.DeployFeeHook(t, h.Chain, 3)
	hook, err := aggregation.NewHook(h.Chain.Env, []util.HexAddress{child.Address()})
	require.NoError(t, err)

	// a direct caller pays the hook more than it needs
	message := util.HyperlaneMessage{Sender: h.Sender, Destination: 2}
	require.NoError(t, h.Chain.Env.CallHook(ctx, h.Sender, hook.Address(), nil, message, math.NewInt(10)))
	require.Equal(t, int64(hyperlanetest.SenderFunds-3), h.Chain.Balance(ctx, h.Sender).Int64())

	err = h.Chain.Env.CallHook(ctx, h.Sender, hook.Address(), nil, message, math.NewInt(2))
	require.ErrorIs(t, err, coretypes.ErrInsufficientPayment)
}

func TestAggregationHookConfig(t *testing.T) {
	h := hyperlanetest.NewHarness(t, 1)

	_, err := aggregation.NewHook(h.Chain.Env, nil)
	require.ErrorIs(t, err, types.ErrInvalidConfig)

	_, err = aggregation.NewHook(h.Chain.Env, []util.HexAddress{hyperlanetest.Account("nobody")})
	require.ErrorIs(t, err, coretypes.ErrUnknownContract)
}
