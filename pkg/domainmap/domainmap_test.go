package domainmap_test

import (
	"testing"

	"cosmossdk.io/collections"
	"cosmossdk.io/collections/colltest"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/hyperlane-core/pkg/domainmap"
	"github.com/celestiaorg/hyperlane-core/pkg/util"
)

func TestDomainMap(t *testing.T) {
	storeService, ctx := colltest.MockStore()
	sb := collections.NewSchemaBuilder(storeService)
	m := domainmap.New(sb, collections.NewPrefix(0), "routes", util.HexAddressValue)
	_, err := sb.Build()
	require.NoError(t, err)

	a := util.CreateHexAddress("hook", 1, 0)
	b := util.CreateHexAddress("hook", 1, 1)

	added, err := m.Set(ctx, 10, a)
	require.NoError(t, err)
	require.True(t, added)

	// overwriting is not an addition
	added, err = m.Set(ctx, 10, b)
	require.NoError(t, err)
	require.False(t, added)

	added, err = m.Set(ctx, 3, a)
	require.NoError(t, err)
	require.True(t, added)

	value, found, err := m.Get(ctx, 10)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, b, value)

	domains, err := m.Domains(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint32{3, 10}, domains)

	removed, err := m.Remove(ctx, 10)
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = m.Remove(ctx, 10)
	require.NoError(t, err)
	require.False(t, removed)

	_, found, err = m.Get(ctx, 10)
	require.NoError(t, err)
	require.False(t, found)

	n, err := m.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	ok, err := m.Contains(ctx, 3)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestHexAddressValueCodecConformance(t *testing.T) {
	colltest.TestValueCodec(t, util.HexAddressValue, util.CreateHexAddress("ism", 2, 9))
}
