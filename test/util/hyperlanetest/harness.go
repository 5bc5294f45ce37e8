package hyperlanetest

import (
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/hyperlane-core/app"
	"github.com/celestiaorg/hyperlane-core/pkg/util"
	"github.com/celestiaorg/hyperlane-core/x/core/keeper"
)

// Harness is a bare chain with a mailbox whose hooks charge nothing and whose
// default module accepts everything. Tests swap in the contract under test.
type Harness struct {
	Chain   *app.Chain
	Mailbox *keeper.Keeper

	RequiredHook *FeeHook
	DefaultHook  *FeeHook
	Ism          *StaticIsm

	// Sender is funded with SenderFunds.
	Sender util.HexAddress
}

// SenderFunds is the initial balance of Harness.Sender.
const SenderFunds = 1_000_000

func NewHarness(t testing.TB, domain uint32) *Harness {
	t.Helper()

	chain := NewBareChain(t, domain)
	ctx := chain.Context()

	mailbox, err := keeper.NewKeeper(ctx, chain.Env, Owner)
	require.NoError(t, err)

	h := &Harness{
		Chain:        chain,
		Mailbox:      mailbox,
		RequiredHook: DeployFeeHook(t, chain, 0),
		DefaultHook:  DeployFeeHook(t, chain, 0),
		Ism:          DeployStaticIsm(t, chain, true),
		Sender:       Account("sender"),
	}
	require.NoError(t, mailbox.SetRequiredHook(ctx, Owner, h.RequiredHook.Address()))
	require.NoError(t, mailbox.SetDefaultHook(ctx, Owner, h.DefaultHook.Address()))
	require.NoError(t, mailbox.SetDefaultIsm(ctx, Owner, h.Ism.Address()))

	Fund(t, chain, h.Sender, SenderFunds)
	return h
}

func (h *Harness) Ctx() sdk.Context {
	return h.Chain.Context()
}
