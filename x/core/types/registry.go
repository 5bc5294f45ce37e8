package types

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
)

// Registry resolves addresses to the contracts deployed on one chain.
//
// The registry and its deployment counter live in memory, outside the
// multistore. Reverting a cached context does not undo a deployment, so
// contracts are deployed at the top level and never inside Atomic.
type Registry struct {
	domain    uint32
	deployed  uint64
	contracts map[util.HexAddress]Contract
}

func NewRegistry(domain uint32) *Registry {
	return &Registry{
		domain:    domain,
		contracts: make(map[util.HexAddress]Contract),
	}
}

// NextAddress derives the address of the next contract deployed on this chain.
func (r *Registry) NextAddress(class string) util.HexAddress {
	addr := util.CreateHexAddress(class, r.domain, r.deployed)
	r.deployed++
	return addr
}

// Register makes a deployed contract reachable by its address.
func (r *Registry) Register(c Contract) error {
	if _, ok := r.contracts[c.Address()]; ok {
		return errorsmod.Wrapf(ErrDuplicateContract, "%s", c.Address())
	}
	r.contracts[c.Address()] = c
	return nil
}

// Contract returns whatever is deployed at addr.
func (r *Registry) Contract(addr util.HexAddress) (Contract, error) {
	c, ok := r.contracts[addr]
	if !ok {
		return nil, errorsmod.Wrapf(ErrUnknownContract, "no contract at %s", addr)
	}
	return c, nil
}

// Hook resolves a post-dispatch hook.
func (r *Registry) Hook(addr util.HexAddress) (PostDispatchHook, error) {
	return lookup[PostDispatchHook](r, addr, "hook")
}

// Ism resolves an interchain security module.
func (r *Registry) Ism(addr util.HexAddress) (InterchainSecurityModule, error) {
	return lookup[InterchainSecurityModule](r, addr, "interchain security module")
}

// Recipient resolves a message recipient.
func (r *Registry) Recipient(addr util.HexAddress) (MessageRecipient, error) {
	return lookup[MessageRecipient](r, addr, "message recipient")
}

func lookup[T Contract](r *Registry, addr util.HexAddress, kind string) (T, error) {
	var zero T
	c, err := r.Contract(addr)
	if err != nil {
		return zero, err
	}
	typed, ok := c.(T)
	if !ok {
		return zero, errorsmod.Wrapf(ErrUnknownContract, "%s is not a %s", addr, kind)
	}
	return typed, nil
}
