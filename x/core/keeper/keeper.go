package keeper

import (
	"context"
	"fmt"
	"time"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	metrics "github.com/hashicorp/go-metrics"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
	"github.com/celestiaorg/hyperlane-core/x/core/types"
)

var _ types.Mailbox = (*Keeper)(nil)

// Keeper is the mailbox of one chain: it assigns nonces to outbound
// messages, runs the post-dispatch hooks and delivers inbound messages once
// their security module accepts them.
type Keeper struct {
	env     *types.Env
	address util.HexAddress

	nonce              collections.Item[uint32]
	delivered          collections.Map[[]byte, types.Delivery]
	latestDispatchedId collections.Item[[]byte]
	defaultIsm         collections.Item[util.HexAddress]
	defaultHook        collections.Item[util.HexAddress]
	requiredHook       collections.Item[util.HexAddress]
	schema             collections.Schema

	ownable  types.Ownable
	pausable types.Pausable
}

// NewKeeper deploys a mailbox owned by owner on the chain described by env.
func NewKeeper(ctx context.Context, env *types.Env, owner util.HexAddress) (*Keeper, error) {
	addr, storeService := env.NewContract(types.ContractClass)
	sb := collections.NewSchemaBuilder(storeService)

	k := &Keeper{
		env:                env,
		address:            addr,
		nonce:              collections.NewItem(sb, types.NonceKey, "nonce", collections.Uint32Value),
		delivered:          collections.NewMap(sb, types.DeliveredKey, "delivered", collections.BytesKey, types.DeliveryValue),
		latestDispatchedId: collections.NewItem(sb, types.LatestDispatchedIdKey, "latest_dispatched_id", collections.BytesValue),
		defaultIsm:         collections.NewItem(sb, types.DefaultIsmKey, "default_ism", util.HexAddressValue),
		defaultHook:        collections.NewItem(sb, types.DefaultHookKey, "default_hook", util.HexAddressValue),
		requiredHook:       collections.NewItem(sb, types.RequiredHookKey, "required_hook", util.HexAddressValue),
		ownable:            types.NewOwnable(sb, addr, types.OwnerKey),
		pausable:           types.NewPausable(sb, addr, types.PausedKey),
	}

	schema, err := sb.Build()
	if err != nil {
		return nil, err
	}
	k.schema = schema

	if err := k.ownable.InitOwner(ctx, owner); err != nil {
		return nil, err
	}
	if err := env.Register(k); err != nil {
		return nil, err
	}

	return k, nil
}

// Logger returns the module logger extracted using the sdk context.
func (k *Keeper) Logger(ctx context.Context) log.Logger {
	return sdk.UnwrapSDKContext(ctx).Logger().With("module", "x/"+types.ModuleName)
}

func (k *Keeper) Address() util.HexAddress {
	return k.address
}

func (k *Keeper) LocalDomain() uint32 {
	return k.env.Domain
}

// Nonce is the nonce the next dispatched message will carry.
func (k *Keeper) Nonce(ctx context.Context) (uint32, error) {
	nonce, err := k.nonce.Get(ctx)
	if errorsmod.IsOf(err, collections.ErrNotFound) {
		return 0, nil
	}
	return nonce, err
}

// LatestDispatchedId is the id of the last dispatched message, zero before
// the first dispatch.
func (k *Keeper) LatestDispatchedId(ctx context.Context) (common.Hash, error) {
	id, err := k.latestDispatchedId.Get(ctx)
	if errorsmod.IsOf(err, collections.ErrNotFound) {
		return common.Hash{}, nil
	}
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(id), nil
}

// Dispatch sends a message to recipient on destination. value pays the
// required hook and the override (or default) hook; whatever they do not
// quote is refunded to the metadata refund address, the sender by default.
func (k *Keeper) Dispatch(
	ctx context.Context,
	sender util.HexAddress,
	value math.Int,
	destination uint32,
	recipient util.HexAddress,
	body, metadata []byte,
	hookOverride util.HexAddress,
) (common.Hash, error) {
	var id common.Hash

	err := types.Atomic(ctx, func(ctx sdk.Context) error {
		if err := k.pausable.RequireNotPaused(ctx); err != nil {
			return err
		}
		if value.IsNil() {
			value = math.ZeroInt()
		}
		if value.IsNegative() {
			return errorsmod.Wrapf(types.ErrInsufficientPayment, "negative value %s", value)
		}

		message, err := k.buildMessage(ctx, sender, destination, recipient, body)
		if err != nil {
			return err
		}

		required, hook, err := k.hooks(ctx, hookOverride)
		if err != nil {
			return err
		}
		requiredFee, err := k.env.QuoteHook(ctx, required, metadata, message)
		if err != nil {
			return err
		}
		hookFee, err := k.env.QuoteHook(ctx, hook, metadata, message)
		if err != nil {
			return err
		}

		fee, err := util.AddAmounts(requiredFee, hookFee)
		if err != nil {
			return errorsmod.Wrap(types.ErrFeeOverflow, err.Error())
		}
		if value.LT(fee) {
			return errorsmod.Wrapf(types.ErrInsufficientPayment, "required %s%s, got %s%s", fee, k.env.Denom, value, k.env.Denom)
		}

		id = message.Id()
		if err := k.nonce.Set(ctx, message.Nonce+1); err != nil {
			return err
		}
		if err := k.latestDispatchedId.Set(ctx, id.Bytes()); err != nil {
			return err
		}
		k.emitDispatch(ctx, message, id)

		if err := k.env.Transfer(ctx, sender, k.address, value); err != nil {
			return errorsmod.Wrap(types.ErrInsufficientPayment, err.Error())
		}
		if err := k.env.CallHook(ctx, k.address, required, metadata, message, requiredFee); err != nil {
			return errorsmod.Wrapf(err, "required hook %s", required)
		}
		if err := k.env.CallHook(ctx, k.address, hook, metadata, message, hookFee); err != nil {
			return errorsmod.Wrapf(err, "hook %s", hook)
		}

		if refund := value.Sub(fee); refund.IsPositive() {
			refundAddress := sender
			if md, err := util.ParseHookMetadata(metadata); err == nil {
				refundAddress = md.RefundAddress(sender)
			}
			if err := k.env.Transfer(ctx, k.address, refundAddress, refund); err != nil {
				return errorsmod.Wrap(types.ErrRefundFailed, err.Error())
			}
		}

		k.Logger(ctx).Debug("dispatched message", "id", id.Hex(), "nonce", message.Nonce, "destination", destination)
		return nil
	})
	if err != nil {
		return common.Hash{}, err
	}

	telemetry.IncrCounterWithLabels(
		[]string{types.ModuleName, "dispatch"},
		1,
		[]metrics.Label{telemetry.NewLabel("destination", fmt.Sprint(destination))},
	)
	return id, nil
}

// QuoteDispatch returns the value Dispatch needs for the same arguments.
func (k *Keeper) QuoteDispatch(
	ctx context.Context,
	sender util.HexAddress,
	destination uint32,
	recipient util.HexAddress,
	body, metadata []byte,
	hookOverride util.HexAddress,
) (math.Int, error) {
	message, err := k.buildMessage(ctx, sender, destination, recipient, body)
	if err != nil {
		return math.Int{}, err
	}

	required, hook, err := k.hooks(ctx, hookOverride)
	if err != nil {
		return math.Int{}, err
	}
	requiredFee, err := k.env.QuoteHook(ctx, required, metadata, message)
	if err != nil {
		return math.Int{}, err
	}
	hookFee, err := k.env.QuoteHook(ctx, hook, metadata, message)
	if err != nil {
		return math.Int{}, err
	}
	fee, err := util.AddAmounts(requiredFee, hookFee)
	if err != nil {
		return math.Int{}, errorsmod.Wrap(types.ErrFeeOverflow, err.Error())
	}
	return fee, nil
}

// Process verifies message with the recipient's security module and hands
// it to the recipient. A message is delivered at most once.
func (k *Keeper) Process(ctx context.Context, processor util.HexAddress, metadata, rawMessage []byte) error {
	defer telemetry.ModuleMeasureSince(types.ModuleName, time.Now(), "process")

	var message util.HyperlaneMessage

	err := types.Atomic(ctx, func(ctx sdk.Context) error {
		if err := k.pausable.RequireNotPaused(ctx); err != nil {
			return err
		}

		var err error
		message, err = util.ParseHyperlaneMessage(rawMessage)
		if err != nil {
			return errorsmod.Wrap(types.ErrInvalidMessage, err.Error())
		}
		if message.Version != util.MessageVersion {
			return errorsmod.Wrapf(types.ErrBadVersion, "expected %d, got %d", util.MessageVersion, message.Version)
		}
		if message.Destination != k.env.Domain {
			return errorsmod.Wrapf(types.ErrBadDestination, "expected %d, got %d", k.env.Domain, message.Destination)
		}

		id := message.Id()
		delivered, err := k.delivered.Has(ctx, id.Bytes())
		if err != nil {
			return err
		}
		if delivered {
			return errorsmod.Wrapf(types.ErrAlreadyDelivered, "%s", id.Hex())
		}
		if err := k.delivered.Set(ctx, id.Bytes(), types.Delivery{Processor: processor, BlockHeight: ctx.BlockHeight()}); err != nil {
			return err
		}
		k.emitProcess(ctx, message, id)

		ismAddr, err := k.RecipientIsm(ctx, message.Recipient)
		if err != nil {
			return err
		}
		ism, err := k.env.Ism(ismAddr)
		if err != nil {
			return err
		}
		verified, err := ism.Verify(ctx, metadata, message)
		if err != nil {
			return errorsmod.Wrapf(types.ErrVerificationFailed, "ism %s: %s", ismAddr, err)
		}
		if !verified {
			return errorsmod.Wrapf(types.ErrVerificationFailed, "ism %s rejected %s", ismAddr, id.Hex())
		}

		recipient, err := k.env.Recipient(message.Recipient)
		if err != nil {
			return err
		}
		if err := recipient.Handle(ctx, message.Origin, message.Sender, message.Body); err != nil {
			return errorsmod.Wrap(types.ErrRecipientFailed, err.Error())
		}

		k.Logger(ctx).Debug("processed message", "id", id.Hex(), "origin", message.Origin, "ism", ismAddr.String())
		return nil
	})
	if err != nil {
		return err
	}

	telemetry.IncrCounterWithLabels(
		[]string{types.ModuleName, "process"},
		1,
		[]metrics.Label{telemetry.NewLabel("origin", fmt.Sprint(message.Origin))},
	)
	return nil
}

// RecipientIsm returns the security module guarding recipient: its own
// choice if it specifies one, the default module otherwise.
func (k *Keeper) RecipientIsm(ctx context.Context, recipient util.HexAddress) (util.HexAddress, error) {
	contract, err := k.env.Contract(recipient)
	if err != nil {
		return util.HexAddress{}, err
	}

	if specifier, ok := contract.(types.SpecifiesInterchainSecurityModule); ok {
		ism, err := specifier.InterchainSecurityModule(ctx)
		if err != nil {
			return util.HexAddress{}, err
		}
		if !ism.IsZeroAddress() {
			return ism, nil
		}
	}

	return k.DefaultIsm(ctx)
}

func (k *Keeper) Delivered(ctx context.Context, id common.Hash) (bool, error) {
	return k.delivered.Has(ctx, id.Bytes())
}

// Processor returns the address that delivered message id.
func (k *Keeper) Processor(ctx context.Context, id common.Hash) (util.HexAddress, error) {
	d, err := k.delivered.Get(ctx, id.Bytes())
	if err != nil {
		return util.HexAddress{}, err
	}
	return d.Processor, nil
}

// ProcessedAt returns the block height message id was delivered at.
func (k *Keeper) ProcessedAt(ctx context.Context, id common.Hash) (int64, error) {
	d, err := k.delivered.Get(ctx, id.Bytes())
	if err != nil {
		return 0, err
	}
	return d.BlockHeight, nil
}

func (k *Keeper) buildMessage(ctx context.Context, sender util.HexAddress, destination uint32, recipient util.HexAddress, body []byte) (util.HyperlaneMessage, error) {
	nonce, err := k.Nonce(ctx)
	if err != nil {
		return util.HyperlaneMessage{}, err
	}

	return util.HyperlaneMessage{
		Version:     util.MessageVersion,
		Nonce:       nonce,
		Origin:      k.env.Domain,
		Sender:      sender,
		Destination: destination,
		Recipient:   recipient,
		Body:        body,
	}, nil
}

func (k *Keeper) hooks(ctx context.Context, hookOverride util.HexAddress) (required, hook util.HexAddress, err error) {
	required, err = k.RequiredHook(ctx)
	if err != nil {
		return required, hook, err
	}

	hook = hookOverride
	if hook.IsZeroAddress() {
		hook, err = k.DefaultHook(ctx)
	}
	return required, hook, err
}

func (k *Keeper) emitDispatch(ctx sdk.Context, message util.HyperlaneMessage, id common.Hash) {
	ctx.EventManager().EmitEvents(sdk.Events{
		sdk.NewEvent(
			types.EventTypeDispatch,
			sdk.NewAttribute(types.AttributeKeyContract, k.address.String()),
			sdk.NewAttribute(types.AttributeKeySender, message.Sender.String()),
			sdk.NewAttribute(types.AttributeKeyDestination, fmt.Sprint(message.Destination)),
			sdk.NewAttribute(types.AttributeKeyRecipient, message.Recipient.String()),
			sdk.NewAttribute(types.AttributeKeyMessage, message.String()),
		),
		sdk.NewEvent(
			types.EventTypeDispatchId,
			sdk.NewAttribute(types.AttributeKeyContract, k.address.String()),
			sdk.NewAttribute(types.AttributeKeyMessageId, id.Hex()),
		),
	})
}

func (k *Keeper) emitProcess(ctx sdk.Context, message util.HyperlaneMessage, id common.Hash) {
	ctx.EventManager().EmitEvents(sdk.Events{
		sdk.NewEvent(
			types.EventTypeProcess,
			sdk.NewAttribute(types.AttributeKeyContract, k.address.String()),
			sdk.NewAttribute(types.AttributeKeyOrigin, fmt.Sprint(message.Origin)),
			sdk.NewAttribute(types.AttributeKeySender, message.Sender.String()),
			sdk.NewAttribute(types.AttributeKeyRecipient, message.Recipient.String()),
		),
		sdk.NewEvent(
			types.EventTypeProcessId,
			sdk.NewAttribute(types.AttributeKeyContract, k.address.String()),
			sdk.NewAttribute(types.AttributeKeyMessageId, id.Hex()),
		),
	})
}
