// Package inbox implements a message recipient that stores every message it
// receives. Local networks use it as the default destination of simulated
// traffic.
package inbox

import (
	"context"
	"encoding/binary"
	"fmt"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
)

// ContractClass is used to derive inbox addresses.
const ContractClass = "inbox"

const EventTypeReceived = "received"

var (
	MessagesKey = collections.NewPrefix(0)
	CountKey    = collections.NewPrefix(1)
	IsmKey      = collections.NewPrefix(2)
	OwnerKey    = collections.NewPrefix(3)
)

// Received is a message stored by the inbox.
type Received struct {
	Origin uint32
	Sender util.HexAddress
	Body   []byte
}

func (r Received) Bytes() []byte {
	out := make([]byte, 0, 4+util.HexAddressLength+len(r.Body))
	out = binary.BigEndian.AppendUint32(out, r.Origin)
	out = append(out, r.Sender[:]...)
	return append(out, r.Body...)
}

func ParseReceived(bz []byte) (Received, error) {
	if len(bz) < 4+util.HexAddressLength {
		return Received{}, fmt.Errorf("invalid received message length %d", len(bz))
	}
	r := Received{
		Origin: binary.BigEndian.Uint32(bz[:4]),
		Body:   append([]byte(nil), bz[4+util.HexAddressLength:]...),
	}
	copy(r.Sender[:], bz[4:4+util.HexAddressLength])
	return r, nil
}

var ReceivedValue = util.NewValueCodec("hyperlane/Received", Received.Bytes, ParseReceived)

var (
	_ coretypes.MessageRecipient                  = (*Inbox)(nil)
	_ coretypes.SpecifiesInterchainSecurityModule = (*Inbox)(nil)
)

type Inbox struct {
	address util.HexAddress
	env     *coretypes.Env

	messages collections.Map[uint64, Received]
	count    collections.Sequence
	ism      collections.Item[util.HexAddress]
	schema   collections.Schema

	ownable coretypes.Ownable
}

func NewInbox(ctx context.Context, env *coretypes.Env, owner util.HexAddress) (*Inbox, error) {
	addr, storeService := env.NewContract(ContractClass)
	sb := collections.NewSchemaBuilder(storeService)

	i := &Inbox{
		address:  addr,
		env:      env,
		messages: collections.NewMap(sb, MessagesKey, "messages", collections.Uint64Key, ReceivedValue),
		count:    collections.NewSequence(sb, CountKey, "count"),
		ism:      collections.NewItem(sb, IsmKey, "ism", util.HexAddressValue),
		ownable:  coretypes.NewOwnable(sb, addr, OwnerKey),
	}

	schema, err := sb.Build()
	if err != nil {
		return nil, err
	}
	i.schema = schema

	if err := i.ownable.InitOwner(ctx, owner); err != nil {
		return nil, err
	}
	if err := env.Register(i); err != nil {
		return nil, err
	}
	return i, nil
}

func (i *Inbox) Address() util.HexAddress {
	return i.address
}

func (i *Inbox) Handle(ctx context.Context, origin uint32, sender util.HexAddress, body []byte) error {
	n, err := i.count.Next(ctx)
	if err != nil {
		return err
	}
	if err := i.messages.Set(ctx, n, Received{Origin: origin, Sender: sender, Body: body}); err != nil {
		return err
	}

	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(
			EventTypeReceived,
			sdk.NewAttribute("contract", i.address.String()),
			sdk.NewAttribute("origin", fmt.Sprint(origin)),
			sdk.NewAttribute("sender", sender.String()),
		),
	)
	return nil
}

// Count is the number of messages received.
func (i *Inbox) Count(ctx context.Context) (uint64, error) {
	return i.count.Peek(ctx)
}

// Messages lists received messages in delivery order.
func (i *Inbox) Messages(ctx context.Context) ([]Received, error) {
	iter, err := i.messages.Iterate(ctx, nil)
	if err != nil {
		return nil, err
	}
	return iter.Values()
}

func (i *Inbox) InterchainSecurityModule(ctx context.Context) (util.HexAddress, error) {
	ism, err := i.ism.Get(ctx)
	if errorsmod.IsOf(err, collections.ErrNotFound) {
		return util.ZeroAddress, nil
	}
	return ism, err
}

// SetInterchainSecurityModule overrides the mailbox default module. The zero
// address restores the default.
func (i *Inbox) SetInterchainSecurityModule(ctx context.Context, caller, ism util.HexAddress) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		if err := i.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		if !ism.IsZeroAddress() {
			if _, err := i.env.Ism(ism); err != nil {
				return err
			}
		}
		return i.ism.Set(ctx, ism)
	})
}
