// Package igp implements the interchain gas paymaster: a hook that charges
// senders for destination gas at owner configured prices and lets relayers
// see which messages are funded.
package igp

import (
	"context"
	"fmt"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	metrics "github.com/hashicorp/go-metrics"

	"github.com/celestiaorg/hyperlane-core/pkg/domainmap"
	"github.com/celestiaorg/hyperlane-core/pkg/util"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/hooks/types"
)

// ContractClass is used to derive paymaster addresses.
const ContractClass = "interchain_gas_paymaster"

var (
	GasConfigsKey  = collections.NewPrefix(0)
	BeneficiaryKey = collections.NewPrefix(1)
	OwnerKey       = collections.NewPrefix(2)
)

var _ coretypes.PostDispatchHook = (*Keeper)(nil)

type Keeper struct {
	env     *coretypes.Env
	address util.HexAddress

	gasConfigs  domainmap.Map[DestinationGasConfig]
	beneficiary collections.Item[util.HexAddress]
	schema      collections.Schema

	ownable coretypes.Ownable
}

// NewKeeper deploys a paymaster owned by owner that pays out to beneficiary.
func NewKeeper(ctx context.Context, env *coretypes.Env, owner, beneficiary util.HexAddress) (*Keeper, error) {
	addr, storeService := env.NewContract(ContractClass)
	sb := collections.NewSchemaBuilder(storeService)

	k := &Keeper{
		env:         env,
		address:     addr,
		gasConfigs:  domainmap.New(sb, GasConfigsKey, "gas_configs", DestinationGasConfigValue),
		beneficiary: collections.NewItem(sb, BeneficiaryKey, "beneficiary", util.HexAddressValue),
		ownable:     coretypes.NewOwnable(sb, addr, OwnerKey),
	}

	schema, err := sb.Build()
	if err != nil {
		return nil, err
	}
	k.schema = schema

	if err := k.ownable.InitOwner(ctx, owner); err != nil {
		return nil, err
	}
	if err := k.beneficiary.Set(ctx, beneficiary); err != nil {
		return nil, err
	}
	if err := env.Register(k); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *Keeper) Logger(ctx context.Context) log.Logger {
	return sdk.UnwrapSDKContext(ctx).Logger().With("module", "x/hooks/igp")
}

func (k *Keeper) Address() util.HexAddress {
	return k.address
}

func (k *Keeper) HookType() uint8 {
	return coretypes.HookTypeInterchainGasPaymaster
}

// QuoteGasPayment is the price of gasLimit units of gas on destination.
func (k *Keeper) QuoteGasPayment(ctx context.Context, destination uint32, gasLimit math.Int) (math.Int, error) {
	cfg, err := k.DestinationGasConfig(ctx, destination)
	if err != nil {
		return math.Int{}, err
	}
	return cfg.Quote(gasLimit)
}

// DestinationGasLimit adds the destination overhead to gasLimit.
func (k *Keeper) DestinationGasLimit(ctx context.Context, destination uint32, gasLimit math.Int) (math.Int, error) {
	cfg, err := k.DestinationGasConfig(ctx, destination)
	if err != nil {
		return math.Int{}, err
	}
	total, err := util.AddAmounts(gasLimit, math.NewIntFromUint64(cfg.GasOverhead))
	if err != nil {
		return math.Int{}, errorsmod.Wrap(types.ErrInvalidMetadata, err.Error())
	}
	return total, nil
}

// PayForGas pays for gasLimit units of gas to deliver messageId on
// destination. Whatever value exceeds the quote is returned to refundAddress.
func (k *Keeper) PayForGas(
	ctx context.Context,
	payer util.HexAddress,
	messageId common.Hash,
	destination uint32,
	gasLimit math.Int,
	refundAddress util.HexAddress,
	value math.Int,
) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		if err := k.env.Transfer(ctx, payer, k.address, value); err != nil {
			return err
		}
		return k.payForGas(ctx, messageId, destination, gasLimit, refundAddress, value)
	})
}

func (k *Keeper) QuoteDispatch(ctx context.Context, metadata []byte, message util.HyperlaneMessage) (math.Int, error) {
	gasLimit, err := k.messageGasLimit(ctx, metadata, message)
	if err != nil {
		return math.Int{}, err
	}
	return k.QuoteGasPayment(ctx, message.Destination, gasLimit)
}

// PostDispatch records the gas payment for message. The refund address of
// the metadata, or the message sender, receives any overpayment.
func (k *Keeper) PostDispatch(ctx context.Context, metadata []byte, message util.HyperlaneMessage, payment math.Int) error {
	md, err := types.ParseMetadata(metadata)
	if err != nil {
		return err
	}
	gasLimit, err := k.messageGasLimit(ctx, metadata, message)
	if err != nil {
		return err
	}
	return k.payForGas(sdk.UnwrapSDKContext(ctx), message.Id(), message.Destination, gasLimit, md.RefundAddress(message.Sender), payment)
}

// payForGas settles a payment already held by the paymaster.
func (k *Keeper) payForGas(ctx sdk.Context, messageId common.Hash, destination uint32, gasLimit math.Int, refundAddress util.HexAddress, payment math.Int) error {
	quote, err := k.QuoteGasPayment(ctx, destination, gasLimit)
	if err != nil {
		return err
	}
	if payment.LT(quote) {
		return errorsmod.Wrapf(types.ErrInsufficientGasPayment, "required %s%s, got %s%s", quote, k.env.Denom, payment, k.env.Denom)
	}
	if overpayment := payment.Sub(quote); overpayment.IsPositive() {
		if err := k.env.Transfer(ctx, k.address, refundAddress, overpayment); err != nil {
			return errorsmod.Wrap(coretypes.ErrRefundFailed, err.Error())
		}
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeGasPayment,
			sdk.NewAttribute(types.AttributeKeyContract, k.address.String()),
			sdk.NewAttribute(types.AttributeKeyMessageId, messageId.Hex()),
			sdk.NewAttribute(types.AttributeKeyDestination, fmt.Sprint(destination)),
			sdk.NewAttribute(types.AttributeKeyGasAmount, gasLimit.String()),
			sdk.NewAttribute(types.AttributeKeyPayment, quote.String()),
		),
	)

	telemetry.IncrCounterWithLabels(
		[]string{types.ModuleName, "igp", "gas_payment"},
		1,
		[]metrics.Label{telemetry.NewLabel("destination", fmt.Sprint(destination))},
	)
	return nil
}

func (k *Keeper) messageGasLimit(ctx context.Context, metadata []byte, message util.HyperlaneMessage) (math.Int, error) {
	md, err := types.ParseMetadata(metadata)
	if err != nil {
		return math.Int{}, err
	}
	gasLimit := md.GasLimit(math.NewInt(types.DefaultGasLimit))
	return k.DestinationGasLimit(ctx, message.Destination, gasLimit)
}

// DestinationGasConfig fails for destinations without a configured price.
func (k *Keeper) DestinationGasConfig(ctx context.Context, destination uint32) (DestinationGasConfig, error) {
	cfg, found, err := k.gasConfigs.Get(ctx, destination)
	if err != nil {
		return DestinationGasConfig{}, err
	}
	if !found {
		return DestinationGasConfig{}, errorsmod.Wrapf(types.ErrUnsupportedDestination, "no gas config for domain %d", destination)
	}
	return cfg, nil
}

// Destinations lists every domain with a gas config.
func (k *Keeper) Destinations(ctx context.Context) ([]uint32, error) {
	return k.gasConfigs.Domains(ctx)
}

// SetDestinationGasConfigs sets the price of gas for each listed domain.
func (k *Keeper) SetDestinationGasConfigs(ctx context.Context, caller util.HexAddress, entries []DestinationGasConfigEntry) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		if err := k.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		for _, entry := range entries {
			if err := entry.Config.ValidateBasic(); err != nil {
				return errorsmod.Wrapf(err, "domain %d", entry.Domain)
			}
			if _, err := k.gasConfigs.Set(ctx, entry.Domain, entry.Config); err != nil {
				return err
			}
			ctx.EventManager().EmitEvent(
				sdk.NewEvent(
					types.EventTypeDestinationGasConfig,
					sdk.NewAttribute(types.AttributeKeyContract, k.address.String()),
					sdk.NewAttribute(types.AttributeKeyDestination, fmt.Sprint(entry.Domain)),
					sdk.NewAttribute(types.AttributeKeyTokenExchangeRate, entry.Config.TokenExchangeRate.String()),
					sdk.NewAttribute(types.AttributeKeyGasPrice, entry.Config.GasPrice.String()),
					sdk.NewAttribute(types.AttributeKeyGasOverhead, fmt.Sprint(entry.Config.GasOverhead)),
				),
			)
		}
		return nil
	})
}

func (k *Keeper) Beneficiary(ctx context.Context) (util.HexAddress, error) {
	return k.beneficiary.Get(ctx)
}

func (k *Keeper) SetBeneficiary(ctx context.Context, caller, beneficiary util.HexAddress) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		if err := k.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		if err := k.beneficiary.Set(ctx, beneficiary); err != nil {
			return err
		}
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeBeneficiarySet,
				sdk.NewAttribute(types.AttributeKeyContract, k.address.String()),
				sdk.NewAttribute(types.AttributeKeyBeneficiary, beneficiary.String()),
			),
		)
		return nil
	})
}

// Claim sends every collected payment to the beneficiary. Anyone may call it.
func (k *Keeper) Claim(ctx context.Context) (math.Int, error) {
	var amount math.Int
	err := coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		beneficiary, err := k.beneficiary.Get(ctx)
		if err != nil {
			return err
		}
		amount = k.env.Balance(ctx, k.address)
		if !amount.IsPositive() {
			return errorsmod.Wrapf(types.ErrNothingToClaim, "%s", k.address)
		}
		if err := k.env.Transfer(ctx, k.address, beneficiary, amount); err != nil {
			return err
		}
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeClaim,
				sdk.NewAttribute(types.AttributeKeyContract, k.address.String()),
				sdk.NewAttribute(types.AttributeKeyBeneficiary, beneficiary.String()),
				sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			),
		)
		return nil
	})
	if err != nil {
		return math.Int{}, err
	}
	return amount, nil
}

func (k *Keeper) Owner(ctx context.Context) (util.HexAddress, error) {
	return k.ownable.Owner(ctx)
}

func (k *Keeper) TransferOwnership(ctx context.Context, caller, newOwner util.HexAddress) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		return k.ownable.TransferOwnership(ctx, caller, newOwner)
	})
}
