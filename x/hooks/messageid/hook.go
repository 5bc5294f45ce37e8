// Package messageid implements a hook that sends only the id of each message,
// plus the value to release with it, over an authenticated channel to a
// paired security module on the destination.
package messageid

import (
	"context"
	"encoding/binary"
	"fmt"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/hooks/types"
)

// ContractClass is used to derive message id hook addresses.
const ContractClass = "message_id_auth_hook"

var (
	OutboxKey         = collections.NewPrefix(0)
	OutboxSequenceKey = collections.NewPrefix(1)
)

// SentMessage is a message id waiting in the outbox for the channel to carry
// it to Ism on Destination.
type SentMessage struct {
	Destination uint32
	Ism         util.HexAddress
	MessageId   common.Hash
	Value       math.Int
}

const sentMessageLength = 4 + util.HexAddressLength + common.HashLength + 32

func (m SentMessage) Bytes() []byte {
	out := make([]byte, 0, sentMessageLength)
	out = binary.BigEndian.AppendUint32(out, m.Destination)
	out = append(out, m.Ism[:]...)
	out = append(out, m.MessageId[:]...)
	value, err := util.Uint256FromInt(m.Value)
	if err != nil {
		panic(err)
	}
	return append(out, value.PaddedBytes(32)...)
}

func ParseSentMessage(bz []byte) (SentMessage, error) {
	if len(bz) != sentMessageLength {
		return SentMessage{}, fmt.Errorf("invalid sent message length %d", len(bz))
	}
	m := SentMessage{Destination: binary.BigEndian.Uint32(bz[:4])}
	copy(m.Ism[:], bz[4:36])
	copy(m.MessageId[:], bz[36:68])
	m.Value = util.IntFromUint256(new(uint256.Int).SetBytes(bz[68:]))
	return m, nil
}

var SentMessageValue = util.NewValueCodec("hyperlane/SentMessage", SentMessage.Bytes, ParseSentMessage)

// AuthenticatedChannel delivers a message id sent by hook to the paired
// module on the destination. Implementations prove hook as the sender.
type AuthenticatedChannel interface {
	DeliverMessageId(ctx context.Context, hook util.HexAddress, msg SentMessage) error
}

var _ coretypes.PostDispatchHook = (*Hook)(nil)

// Hook queues the ids of messages bound for a single destination. The queue
// lives in contract state so a reverted dispatch never leaves an entry
// behind.
type Hook struct {
	env         *coretypes.Env
	address     util.HexAddress
	mailbox     coretypes.Mailbox
	destination uint32
	ism         util.HexAddress

	outbox   collections.Map[uint64, SentMessage]
	sequence collections.Sequence
	schema   collections.Schema
}

// NewHook deploys a hook pairing mailbox with ism on destination.
func NewHook(env *coretypes.Env, mailbox coretypes.Mailbox, destination uint32, ism util.HexAddress) (*Hook, error) {
	if ism.IsZeroAddress() {
		return nil, errorsmod.Wrap(types.ErrInvalidConfig, "remote ism is the zero address")
	}

	addr, storeService := env.NewContract(ContractClass)
	sb := collections.NewSchemaBuilder(storeService)

	h := &Hook{
		env:         env,
		address:     addr,
		mailbox:     mailbox,
		destination: destination,
		ism:         ism,
		outbox:      collections.NewMap(sb, OutboxKey, "outbox", collections.Uint64Key, SentMessageValue),
		sequence:    collections.NewSequence(sb, OutboxSequenceKey, "outbox_sequence"),
	}

	schema, err := sb.Build()
	if err != nil {
		return nil, err
	}
	h.schema = schema

	if err := env.Register(h); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Hook) Address() util.HexAddress {
	return h.address
}

func (h *Hook) HookType() uint8 {
	return coretypes.HookTypeIdAuthIsm
}

func (h *Hook) Destination() uint32 {
	return h.destination
}

func (h *Hook) Ism() util.HexAddress {
	return h.ism
}

// QuoteDispatch is the value the sender wants released on the destination.
func (h *Hook) QuoteDispatch(_ context.Context, metadata []byte, _ util.HyperlaneMessage) (math.Int, error) {
	md, err := types.ParseMetadata(metadata)
	if err != nil {
		return math.Int{}, err
	}
	return md.MsgValue(math.ZeroInt()), nil
}

func (h *Hook) PostDispatch(ctx context.Context, metadata []byte, message util.HyperlaneMessage, payment math.Int) error {
	md, err := types.ParseMetadata(metadata)
	if err != nil {
		return err
	}

	id := message.Id()
	latest, err := h.mailbox.LatestDispatchedId(ctx)
	if err != nil {
		return err
	}
	if latest != id {
		return errorsmod.Wrapf(types.ErrNotLatestDispatched, "%s", id.Hex())
	}
	if message.Destination != h.destination {
		return errorsmod.Wrapf(types.ErrUnsupportedDestination, "hook sends to %d, message goes to %d", h.destination, message.Destination)
	}

	value := md.MsgValue(math.ZeroInt())
	if payment.LT(value) {
		return errorsmod.Wrapf(coretypes.ErrInsufficientPayment, "message value %s, paid %s", value, payment)
	}

	seq, err := h.sequence.Next(ctx)
	if err != nil {
		return err
	}
	sent := SentMessage{Destination: h.destination, Ism: h.ism, MessageId: id, Value: value}
	if err := h.outbox.Set(ctx, seq, sent); err != nil {
		return err
	}

	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeMessageIdSent,
			sdk.NewAttribute(types.AttributeKeyContract, h.address.String()),
			sdk.NewAttribute(types.AttributeKeyMessageId, id.Hex()),
			sdk.NewAttribute(types.AttributeKeyDestination, fmt.Sprint(h.destination)),
			sdk.NewAttribute(types.AttributeKeyIsm, h.ism.String()),
			sdk.NewAttribute(types.AttributeKeyValue, value.String()),
		),
	)
	return nil
}

// Pending lists the outbox in send order.
func (h *Hook) Pending(ctx context.Context) ([]SentMessage, error) {
	iter, err := h.outbox.Iterate(ctx, nil)
	if err != nil {
		return nil, err
	}
	return iter.Values()
}

// Flush hands every queued id to channel in send order and removes the ones
// delivered. It stops at the first delivery error.
func (h *Hook) Flush(ctx context.Context, channel AuthenticatedChannel) (int, error) {
	iter, err := h.outbox.Iterate(ctx, nil)
	if err != nil {
		return 0, err
	}
	entries, err := iter.KeyValues()
	if err != nil {
		return 0, err
	}

	for i, entry := range entries {
		if err := channel.DeliverMessageId(ctx, h.address, entry.Value); err != nil {
			return i, errorsmod.Wrapf(types.ErrChannel, "message %s: %s", entry.Value.MessageId.Hex(), err)
		}
		if err := h.outbox.Remove(ctx, entry.Key); err != nil {
			return i, err
		}
	}
	return len(entries), nil
}
