// Package optimistic implements a security module that accepts messages a
// submodule pre-verified once a fraud window passed without a watcher
// objecting.
package optimistic

import (
	"context"
	"fmt"
	"time"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/ism/types"
)

// ContractClass is used to derive optimistic module addresses.
const ContractClass = "optimistic_ism"

var (
	SubmoduleKey     = collections.NewPrefix(0)
	FraudWindowKey   = collections.NewPrefix(1)
	PreVerifiedAtKey = collections.NewPrefix(2)
	FraudulentKey    = collections.NewPrefix(3)
	OwnerKey         = collections.NewPrefix(4)
)

var _ coretypes.InterchainSecurityModule = (*Ism)(nil)

type Ism struct {
	env     *coretypes.Env
	address util.HexAddress

	// watchers is fixed at deployment.
	watchers map[util.HexAddress]struct{}

	submodule     collections.Item[util.HexAddress]
	fraudWindow   collections.Item[uint64]
	preVerifiedAt collections.Map[[]byte, int64]
	fraudulent    collections.KeySet[[]byte]
	schema        collections.Schema

	ownable coretypes.Ownable
}

// NewIsm deploys an optimistic module pre-verifying through submodule.
func NewIsm(ctx context.Context, env *coretypes.Env, owner, submodule util.HexAddress, watchers []util.HexAddress, fraudWindow time.Duration) (*Ism, error) {
	if len(watchers) == 0 {
		return nil, errorsmod.Wrap(types.ErrInvalidConfig, "no watchers")
	}
	if fraudWindow < 0 {
		return nil, errorsmod.Wrapf(types.ErrInvalidConfig, "negative fraud window %s", fraudWindow)
	}
	if _, err := env.Ism(submodule); err != nil {
		return nil, err
	}

	addr, storeService := env.NewContract(ContractClass)
	sb := collections.NewSchemaBuilder(storeService)

	m := &Ism{
		env:           env,
		address:       addr,
		watchers:      make(map[util.HexAddress]struct{}, len(watchers)),
		submodule:     collections.NewItem(sb, SubmoduleKey, "submodule", util.HexAddressValue),
		fraudWindow:   collections.NewItem(sb, FraudWindowKey, "fraud_window", collections.Uint64Value),
		preVerifiedAt: collections.NewMap(sb, PreVerifiedAtKey, "pre_verified_at", collections.BytesKey, collections.Int64Value),
		fraudulent:    collections.NewKeySet(sb, FraudulentKey, "fraudulent", collections.BytesKey),
		ownable:       coretypes.NewOwnable(sb, addr, OwnerKey),
	}
	for _, watcher := range watchers {
		m.watchers[watcher] = struct{}{}
	}

	schema, err := sb.Build()
	if err != nil {
		return nil, err
	}
	m.schema = schema

	if err := m.ownable.InitOwner(ctx, owner); err != nil {
		return nil, err
	}
	if err := m.submodule.Set(ctx, submodule); err != nil {
		return nil, err
	}
	if err := m.fraudWindow.Set(ctx, uint64(fraudWindow.Seconds())); err != nil {
		return nil, err
	}
	if err := env.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Ism) Logger(ctx context.Context) log.Logger {
	return sdk.UnwrapSDKContext(ctx).Logger().With("module", "x/ism/optimistic")
}

func (m *Ism) Address() util.HexAddress {
	return m.address
}

func (m *Ism) ModuleType() uint8 {
	return coretypes.ModuleTypeOptimistic
}

func (m *Ism) IsWatcher(addr util.HexAddress) bool {
	_, ok := m.watchers[addr]
	return ok
}

func (m *Ism) Submodule(ctx context.Context) (util.HexAddress, error) {
	return m.submodule.Get(ctx)
}

func (m *Ism) FraudWindow(ctx context.Context) (time.Duration, error) {
	seconds, err := m.fraudWindow.Get(ctx)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}

// PreVerify runs the submodule on message and starts its fraud window.
func (m *Ism) PreVerify(ctx context.Context, metadata []byte, message util.HyperlaneMessage) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		id := message.Id()
		exists, err := m.preVerifiedAt.Has(ctx, id.Bytes())
		if err != nil {
			return err
		}
		if exists {
			return errorsmod.Wrapf(types.ErrAlreadyPreVerified, "%s", id.Hex())
		}

		submodule, err := m.submodule.Get(ctx)
		if err != nil {
			return err
		}
		ism, err := m.env.Ism(submodule)
		if err != nil {
			return err
		}
		ok, err := ism.Verify(ctx, metadata, message)
		if err != nil {
			return errorsmod.Wrapf(types.ErrSubmoduleVerification, "%s: %s", submodule, err)
		}
		if !ok {
			return errorsmod.Wrapf(types.ErrSubmoduleVerification, "%s rejected %s", submodule, id.Hex())
		}

		if err := m.preVerifiedAt.Set(ctx, id.Bytes(), ctx.BlockTime().Unix()); err != nil {
			return err
		}
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypePreVerified,
				sdk.NewAttribute(types.AttributeKeyContract, m.address.String()),
				sdk.NewAttribute(types.AttributeKeyMessageId, id.Hex()),
			),
		)
		return nil
	})
}

// MarkFraudulent blocks delivery of a pre-verified message for good. Only
// watchers may call it, and only while the fraud window is open.
func (m *Ism) MarkFraudulent(ctx context.Context, watcher util.HexAddress, id common.Hash) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		if !m.IsWatcher(watcher) {
			return errorsmod.Wrapf(types.ErrNotWatcher, "%s", watcher)
		}

		fraudulent, err := m.fraudulent.Has(ctx, id.Bytes())
		if err != nil {
			return err
		}
		if fraudulent {
			return errorsmod.Wrapf(types.ErrFraudulent, "%s", id.Hex())
		}

		preVerifiedAt, err := m.preVerifiedAt.Get(ctx, id.Bytes())
		if errorsmod.IsOf(err, collections.ErrNotFound) {
			return errorsmod.Wrapf(types.ErrNotPreVerified, "%s", id.Hex())
		}
		if err != nil {
			return err
		}
		open, err := m.windowOpen(ctx, preVerifiedAt)
		if err != nil {
			return err
		}
		if !open {
			return errorsmod.Wrapf(types.ErrWindowClosed, "%s", id.Hex())
		}

		if err := m.fraudulent.Set(ctx, id.Bytes()); err != nil {
			return err
		}
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeFraudulent,
				sdk.NewAttribute(types.AttributeKeyContract, m.address.String()),
				sdk.NewAttribute(types.AttributeKeyMessageId, id.Hex()),
				sdk.NewAttribute(types.AttributeKeyWatcher, watcher.String()),
			),
		)
		m.Logger(ctx).Info("message marked fraudulent", "id", id.Hex(), "watcher", watcher.String())
		return nil
	})
}

func (m *Ism) IsFraudulent(ctx context.Context, id common.Hash) (bool, error) {
	return m.fraudulent.Has(ctx, id.Bytes())
}

// Verify accepts pre-verified messages whose fraud window has passed and
// that no watcher marked fraudulent. Metadata is consumed by PreVerify.
func (m *Ism) Verify(ctx context.Context, _ []byte, message util.HyperlaneMessage) (bool, error) {
	id := message.Id()

	preVerifiedAt, err := m.preVerifiedAt.Get(ctx, id.Bytes())
	if errorsmod.IsOf(err, collections.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	fraudulent, err := m.fraudulent.Has(ctx, id.Bytes())
	if err != nil || fraudulent {
		return false, err
	}

	open, err := m.windowOpen(sdk.UnwrapSDKContext(ctx), preVerifiedAt)
	if err != nil {
		return false, err
	}
	return !open, nil
}

func (m *Ism) windowOpen(ctx sdk.Context, preVerifiedAt int64) (bool, error) {
	window, err := m.FraudWindow(ctx)
	if err != nil {
		return false, err
	}
	closesAt := time.Unix(preVerifiedAt, 0).Add(window)
	return ctx.BlockTime().Before(closesAt), nil
}

// SetSubmodule changes the module used by future pre-verifications.
func (m *Ism) SetSubmodule(ctx context.Context, caller, submodule util.HexAddress) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		if err := m.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		if _, err := m.env.Ism(submodule); err != nil {
			return err
		}
		return m.submodule.Set(ctx, submodule)
	})
}

// SetFraudWindow changes the window for every message not yet delivered.
func (m *Ism) SetFraudWindow(ctx context.Context, caller util.HexAddress, window time.Duration) error {
	return coretypes.Atomic(ctx, func(ctx sdk.Context) error {
		if err := m.ownable.RequireOwner(ctx, caller); err != nil {
			return err
		}
		if window < 0 {
			return errorsmod.Wrapf(types.ErrInvalidConfig, "negative fraud window %s", window)
		}
		if err := m.fraudWindow.Set(ctx, uint64(window.Seconds())); err != nil {
			return err
		}
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeFraudWindowSet,
				sdk.NewAttribute(types.AttributeKeyContract, m.address.String()),
				sdk.NewAttribute(types.AttributeKeyWindow, fmt.Sprint(window)),
			),
		)
		return nil
	})
}

func (m *Ism) Owner(ctx context.Context) (util.HexAddress, error) {
	return m.ownable.Owner(ctx)
}
