package hyperlanetest

import (
	"context"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/hyperlane-core/app"
	"github.com/celestiaorg/hyperlane-core/pkg/util"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
)

// Received is a message handed to a Recipient.
type Received struct {
	Origin uint32
	Sender util.HexAddress
	Body   []byte
}

// Recipient records delivered messages in memory. It fails every Handle
// while Err is set and points the mailbox at Ism when Ism is non zero.
type Recipient struct {
	addr util.HexAddress

	Ism      util.HexAddress
	Err      error
	Received []Received
}

var (
	_ coretypes.MessageRecipient                  = (*Recipient)(nil)
	_ coretypes.SpecifiesInterchainSecurityModule = (*Recipient)(nil)
)

func DeployRecipient(t testing.TB, chain *app.Chain) *Recipient {
	t.Helper()

	r := &Recipient{addr: chain.Env.NextAddress("test_recipient")}
	require.NoError(t, chain.Env.Register(r))
	return r
}

func (r *Recipient) Address() util.HexAddress { return r.addr }

func (r *Recipient) Handle(_ context.Context, origin uint32, sender util.HexAddress, body []byte) error {
	if r.Err != nil {
		return r.Err
	}
	r.Received = append(r.Received, Received{Origin: origin, Sender: sender, Body: body})
	return nil
}

func (r *Recipient) InterchainSecurityModule(context.Context) (util.HexAddress, error) {
	return r.Ism, nil
}

// StaticIsm accepts or rejects every message.
type StaticIsm struct {
	addr util.HexAddress

	Accept bool
	Calls  int
}

var _ coretypes.InterchainSecurityModule = (*StaticIsm)(nil)

func DeployStaticIsm(t testing.TB, chain *app.Chain, accept bool) *StaticIsm {
	t.Helper()

	ism := &StaticIsm{addr: chain.Env.NextAddress("test_ism"), Accept: accept}
	require.NoError(t, chain.Env.Register(ism))
	return ism
}

func (s *StaticIsm) Address() util.HexAddress { return s.addr }

func (s *StaticIsm) ModuleType() uint8 { return coretypes.ModuleTypeNull }

func (s *StaticIsm) Verify(context.Context, []byte, util.HyperlaneMessage) (bool, error) {
	s.Calls++
	return s.Accept, nil
}

// FeeHook charges a fixed fee and records the messages posted to it.
type FeeHook struct {
	addr util.HexAddress

	Fee      math.Int
	Payments []math.Int
	Posted   []util.HyperlaneMessage
}

var _ coretypes.PostDispatchHook = (*FeeHook)(nil)

func DeployFeeHook(t testing.TB, chain *app.Chain, fee int64) *FeeHook {
	t.Helper()

	hook := &FeeHook{addr: chain.Env.NextAddress("test_hook"), Fee: math.NewInt(fee)}
	require.NoError(t, chain.Env.Register(hook))
	return hook
}

func (h *FeeHook) Address() util.HexAddress { return h.addr }

func (h *FeeHook) HookType() uint8 { return coretypes.HookTypeUnused }

func (h *FeeHook) QuoteDispatch(context.Context, []byte, util.HyperlaneMessage) (math.Int, error) {
	return h.Fee, nil
}

func (h *FeeHook) PostDispatch(_ context.Context, _ []byte, message util.HyperlaneMessage, payment math.Int) error {
	h.Payments = append(h.Payments, payment)
	h.Posted = append(h.Posted, message)
	return nil
}
