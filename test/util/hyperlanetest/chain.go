// Package hyperlanetest provides chains, accounts and stub contracts for
// keeper tests.
package hyperlanetest

import (
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/hyperlane-core/app"
	"github.com/celestiaorg/hyperlane-core/pkg/util"
)

// Denom is the native denom of test chains.
const Denom = "uhyp"

// NewBareChain returns a chain with no contracts deployed.
func NewBareChain(t testing.TB, domain uint32) *app.Chain {
	t.Helper()

	chain, err := app.NewBareChain(log.NewNopLogger(), domain, Denom)
	require.NoError(t, err)
	return chain
}

// NewChain returns a chain with the core contracts deployed and owned by
// Owner.
func NewChain(t testing.TB, domain uint32, cfg app.ChainConfig) *app.Chain {
	t.Helper()

	cfg.Domain = domain
	cfg.Denom = Denom
	if cfg.Owner == "" {
		cfg.Owner = Owner.String()
	}

	chain, err := app.NewChain(log.NewNopLogger(), cfg)
	require.NoError(t, err)
	return chain
}

// Account returns a deterministic user address for name.
func Account(name string) util.HexAddress {
	return util.HexAddressFromAccAddress(sdk.AccAddress([]byte(padName(name))))
}

// Owner owns every contract deployed by the helpers in this package.
var Owner = Account("owner")

// Fund mints amount to addr.
func Fund(t testing.TB, chain *app.Chain, addr util.HexAddress, amount int64) {
	t.Helper()
	require.NoError(t, chain.Fund(chain.Context(), addr, math.NewInt(amount)))
}

func padName(name string) string {
	for len(name) < 20 {
		name += "_"
	}
	return name[:20]
}
