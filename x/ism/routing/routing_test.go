package routing_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
	"github.com/celestiaorg/hyperlane-core/test/util/hyperlanetest"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/ism/routing"
	"github.com/celestiaorg/hyperlane-core/x/ism/types"
)

func TestDomainRoutingIsm(t *testing.T) {
	h := hyperlanetest.NewHarness(t, 1)
	ctx := h.Ctx()
	owner := hyperlanetest.Owner

	accept := hyperlanetest.DeployStaticIsm(t, h.Chain, true)
	reject := hyperlanetest.DeployStaticIsm(t, h.Chain, false)

	ism, err := routing.NewDomainRoutingIsm(ctx, h.Chain.Env, owner)
	require.NoError(t, err)
	require.Equal(t, coretypes.ModuleTypeRouting, ism.ModuleType())

	added, err := ism.Set(ctx, owner, 2, accept.Address())
	require.NoError(t, err)
	require.True(t, added)
	added, err = ism.Set(ctx, owner, 3, reject.Address())
	require.NoError(t, err)
	require.True(t, added)

	ok, err := ism.Verify(ctx, nil, util.HyperlaneMessage{Origin: 2})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, accept.Calls)

	ok, err = ism.Verify(ctx, nil, util.HyperlaneMessage{Origin: 3})
	require.NoError(t, err)
	require.False(t, ok)

	_, err = ism.Verify(ctx, nil, util.HyperlaneMessage{Origin: 4})
	require.ErrorIs(t, err, types.ErrNoRoute)

	// re-routing an origin is not an addition
	added, err = ism.Set(ctx, owner, 3, accept.Address())
	require.NoError(t, err)
	require.False(t, added)

	domains, err := ism.Domains(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint32{2, 3}, domains)

	removed, err := ism.Remove(ctx, owner, 2)
	require.NoError(t, err)
	require.True(t, removed)
	removed, err = ism.Remove(ctx, owner, 2)
	require.NoError(t, err)
	require.False(t, removed)

	domains, err = ism.Domains(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint32{3}, domains)

	_, err = ism.Set(ctx, hyperlanetest.Account("stranger"), 2, accept.Address())
	require.ErrorIs(t, err, coretypes.ErrUnauthorized)
	_, err = ism.Set(ctx, owner, 2, hyperlanetest.Account("nobody"))
	require.ErrorIs(t, err, coretypes.ErrUnknownContract)
}

func TestAmountRoutingIsm(t *testing.T) {
	h := hyperlanetest.NewHarness(t, 1)
	ctx := h.Ctx()

	lower := hyperlanetest.DeployStaticIsm(t, h.Chain, true)
	upper := hyperlanetest.DeployStaticIsm(t, h.Chain, false)

	ism, err := routing.NewAmountRoutingIsm(h.Chain.Env, lower.Address(), upper.Address(), uint256.NewInt(100))
	require.NoError(t, err)

	transfer := func(amount uint64) util.HyperlaneMessage {
		return util.HyperlaneMessage{Body: util.FormatTokenMessage(hyperlanetest.Account("bob"), uint256.NewInt(amount), []byte("memo"))}
	}

	ok, err := ism.Verify(ctx, nil, transfer(99))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = ism.Verify(ctx, nil, transfer(100))
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 1, lower.Calls)
	require.Equal(t, 1, upper.Calls)

	_, err = ism.Verify(ctx, nil, util.HyperlaneMessage{Body: []byte{0x01}})
	require.ErrorIs(t, err, types.ErrInvalidTokenMessage)
}
