package types

import (
	"context"

	corestore "cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"cosmossdk.io/store/prefix"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
)

// Env is what every contract deployed on one chain shares: the local domain,
// the native denom, the bank, the contract store and the contract registry.
type Env struct {
	*Registry

	Domain   uint32
	Denom    string
	StoreKey *storetypes.KVStoreKey
	Bank     BankKeeper
}

// NewEnv creates the environment for a chain.
func NewEnv(domain uint32, denom string, key *storetypes.KVStoreKey, bank BankKeeper) *Env {
	return &Env{
		Registry: NewRegistry(domain),
		Domain:   domain,
		Denom:    denom,
		StoreKey: key,
		Bank:     bank,
	}
}

// NewContract allocates an address for a new contract of class and returns
// the store service scoped to it.
func (e *Env) NewContract(class string) (util.HexAddress, corestore.KVStoreService) {
	addr := e.NextAddress(class)
	return addr, ContractStoreService{key: e.StoreKey, prefix: addr.Bytes()}
}

// ContractStore returns a store service for namespace inside the store of
// an already deployed contract. Contracts built on top of another one keep
// their own collections there.
func (e *Env) ContractStore(addr util.HexAddress, namespace []byte) corestore.KVStoreService {
	p := make([]byte, 0, len(addr)+len(namespace))
	p = append(p, addr.Bytes()...)
	return ContractStoreService{key: e.StoreKey, prefix: append(p, namespace...)}
}

// Transfer moves native value between two addresses. Zero transfers are no-ops.
func (e *Env) Transfer(ctx context.Context, from, to util.HexAddress, amount math.Int) error {
	if amount.IsNil() || amount.IsZero() {
		return nil
	}
	if amount.IsNegative() {
		return errorsmod.Wrapf(ErrTransferFailed, "negative amount %s", amount)
	}

	coins := sdk.NewCoins(sdk.NewCoin(e.Denom, amount))
	if err := e.Bank.SendCoins(ctx, util.AccAddress(from), util.AccAddress(to), coins); err != nil {
		return errorsmod.Wrapf(ErrTransferFailed, "%s from %s to %s: %s", coins, from, to, err)
	}
	return nil
}

// Balance returns the native balance of addr.
func (e *Env) Balance(ctx context.Context, addr util.HexAddress) math.Int {
	return e.Bank.GetBalance(ctx, util.AccAddress(addr), e.Denom).Amount
}

// ContractStoreService opens the sub-store of a single contract.
type ContractStoreService struct {
	key    *storetypes.KVStoreKey
	prefix []byte
}

var _ corestore.KVStoreService = ContractStoreService{}

func (s ContractStoreService) OpenKVStore(ctx context.Context) corestore.KVStore {
	parent := sdk.UnwrapSDKContext(ctx).KVStore(s.key)
	return coreKVStore{kv: prefix.NewStore(parent, s.prefix)}
}

// coreKVStore exposes a store/v1 KVStore through the core store API.
type coreKVStore struct {
	kv storetypes.KVStore
}

func (s coreKVStore) Get(key []byte) ([]byte, error) {
	return s.kv.Get(key), nil
}

func (s coreKVStore) Has(key []byte) (bool, error) {
	return s.kv.Has(key), nil
}

func (s coreKVStore) Set(key, value []byte) error {
	s.kv.Set(key, value)
	return nil
}

func (s coreKVStore) Delete(key []byte) error {
	s.kv.Delete(key)
	return nil
}

func (s coreKVStore) Iterator(start, end []byte) (corestore.Iterator, error) {
	return s.kv.Iterator(start, end), nil
}

func (s coreKVStore) ReverseIterator(start, end []byte) (corestore.Iterator, error) {
	return s.kv.ReverseIterator(start, end), nil
}
