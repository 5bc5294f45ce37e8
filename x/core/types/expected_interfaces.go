package types

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
)

// BankKeeper defines the expected bank keeper.
type BankKeeper interface {
	SendCoins(ctx context.Context, fromAddr, toAddr sdk.AccAddress, amt sdk.Coins) error
	GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin
}

// Contract is anything deployed at an address on a chain.
type Contract interface {
	Address() util.HexAddress
}

// PostDispatchHook runs after a message is dispatched and may charge a fee
// for doing so.
type PostDispatchHook interface {
	Contract

	HookType() uint8
	// QuoteDispatch returns the fee PostDispatch expects for message.
	QuoteDispatch(ctx context.Context, metadata []byte, message util.HyperlaneMessage) (math.Int, error)
	// PostDispatch is called with payment already transferred to the hook.
	PostDispatch(ctx context.Context, metadata []byte, message util.HyperlaneMessage, payment math.Int) error
}

// InterchainSecurityModule decides whether an inbound message may be delivered.
type InterchainSecurityModule interface {
	Contract

	ModuleType() uint8
	Verify(ctx context.Context, metadata []byte, message util.HyperlaneMessage) (bool, error)
}

// MessageRecipient receives delivered messages.
type MessageRecipient interface {
	Contract

	Handle(ctx context.Context, origin uint32, sender util.HexAddress, body []byte) error
}

// SpecifiesInterchainSecurityModule is implemented by recipients that want a
// module other than the mailbox default. A zero address selects the default.
type SpecifiesInterchainSecurityModule interface {
	InterchainSecurityModule(ctx context.Context) (util.HexAddress, error)
}

// Mailbox is the view of a mailbox that hooks and routers depend on.
type Mailbox interface {
	Contract

	LocalDomain() uint32
	LatestDispatchedId(ctx context.Context) (common.Hash, error)
	Delivered(ctx context.Context, id common.Hash) (bool, error)
	Dispatch(ctx context.Context, sender util.HexAddress, value math.Int, destination uint32, recipient util.HexAddress, body, metadata []byte, hookOverride util.HexAddress) (common.Hash, error)
	QuoteDispatch(ctx context.Context, sender util.HexAddress, destination uint32, recipient util.HexAddress, body, metadata []byte, hookOverride util.HexAddress) (math.Int, error)
}
