// Package messageid implements the destination half of message id
// authentication: ids arriving from the paired hook over an authenticated
// channel are marked pre-verified and later accepted by Verify.
package messageid

import (
	"context"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/ism/types"
)

// ContractClass is used to derive message id module addresses.
const ContractClass = "message_id_authorized_ism"

var (
	AuthorizedHookKey = collections.NewPrefix(0)
	VerifiedKey       = collections.NewPrefix(1)
	OwnerKey          = collections.NewPrefix(2)
)

var _ coretypes.InterchainSecurityModule = (*Ism)(nil)

type Ism struct {
	address util.HexAddress

	authorizedHook collections.Item[util.HexAddress]
	// verified maps a message id to the value sent with it.
	verified collections.Map[[]byte, []byte]
	schema   collections.Schema

	ownable coretypes.Ownable
}

func NewIsm(ctx context.Context, env *coretypes.Env, owner util.HexAddress) (*Ism, error) {
	addr, storeService := env.NewContract(ContractClass)
	sb := collections.NewSchemaBuilder(storeService)

	m := &Ism{
		address:        addr,
		authorizedHook: collections.NewItem(sb, AuthorizedHookKey, "authorized_hook", util.HexAddressValue),
		verified:       collections.NewMap(sb, VerifiedKey, "verified", collections.BytesKey, collections.BytesValue),
		ownable:        coretypes.NewOwnable(sb, addr, OwnerKey),
	}

	schema, err := sb.Build()
	if err != nil {
		return nil, err
	}
	m.schema = schema

	if err := m.ownable.InitOwner(ctx, owner); err != nil {
		return nil, err
	}
	if err := env.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Ism) Address() util.HexAddress {
	return m.address
}

func (m *Ism) ModuleType() uint8 {
	return coretypes.ModuleTypeNull
}

func (m *Ism) AuthorizedHook(ctx context.Context) (util.HexAddress, error) {
	return m.authorizedHook.Get(ctx)
}

// SetAuthorizedHook pairs the module with the hook on the origin chain. It
// can be set once.
func (m *Ism) SetAuthorizedHook(ctx context.Context, caller, hook util.HexAddress) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		if err := m.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		if hook.IsZeroAddress() {
			return errorsmod.Wrap(types.ErrInvalidConfig, "authorized hook is the zero address")
		}
		exists, err := m.authorizedHook.Has(ctx)
		if err != nil {
			return err
		}
		if exists {
			return errorsmod.Wrap(types.ErrInvalidConfig, "authorized hook already set")
		}
		if err := m.authorizedHook.Set(ctx, hook); err != nil {
			return err
		}

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeAuthorizedHookSet,
				sdk.NewAttribute(types.AttributeKeyContract, m.address.String()),
				sdk.NewAttribute(types.AttributeKeyHook, hook.String()),
			),
		)
		return nil
	})
}

// PreVerifyMessage marks id verified. sender is the origin contract the
// channel authenticated and must be the authorized hook.
func (m *Ism) PreVerifyMessage(ctx context.Context, sender util.HexAddress, id common.Hash, value math.Int) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		hook, err := m.authorizedHook.Get(ctx)
		if errorsmod.IsOf(err, collections.ErrNotFound) {
			return errorsmod.Wrap(types.ErrUnauthorizedSender, "no authorized hook")
		}
		if err != nil {
			return err
		}
		if sender != hook {
			return errorsmod.Wrapf(types.ErrUnauthorizedSender, "%s", sender)
		}

		exists, err := m.verified.Has(ctx, id.Bytes())
		if err != nil {
			return err
		}
		if exists {
			return errorsmod.Wrapf(types.ErrAlreadyPreVerified, "%s", id.Hex())
		}

		word, err := util.Uint256FromInt(value)
		if err != nil {
			return errorsmod.Wrap(types.ErrInvalidMetadata, err.Error())
		}
		if err := m.verified.Set(ctx, id.Bytes(), word.PaddedBytes(32)); err != nil {
			return err
		}

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypePreVerified,
				sdk.NewAttribute(types.AttributeKeyContract, m.address.String()),
				sdk.NewAttribute(types.AttributeKeyMessageId, id.Hex()),
				sdk.NewAttribute(types.AttributeKeyValue, value.String()),
			),
		)
		return nil
	})
}

// Verify accepts pre-verified messages. Metadata is ignored.
func (m *Ism) Verify(ctx context.Context, _ []byte, message util.HyperlaneMessage) (bool, error) {
	return m.verified.Has(ctx, message.Id().Bytes())
}

// MessageValue is the value sent with a pre-verified message.
func (m *Ism) MessageValue(ctx context.Context, id common.Hash) (math.Int, error) {
	bz, err := m.verified.Get(ctx, id.Bytes())
	if err != nil {
		return math.Int{}, err
	}
	return util.IntFromUint256(new(uint256.Int).SetBytes(bz)), nil
}
