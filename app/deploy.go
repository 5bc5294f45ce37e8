package app

import (
	"fmt"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"

	corekeeper "github.com/celestiaorg/hyperlane-core/x/core/keeper"
	fraudkeeper "github.com/celestiaorg/hyperlane-core/x/fraudproofs/keeper"
	fraudrouter "github.com/celestiaorg/hyperlane-core/x/fraudproofs/router"
	"github.com/celestiaorg/hyperlane-core/x/hooks/igp"
	"github.com/celestiaorg/hyperlane-core/x/hooks/merkletree"
	"github.com/celestiaorg/hyperlane-core/x/inbox"
	"github.com/celestiaorg/hyperlane-core/x/ism/multisig"
	"github.com/celestiaorg/hyperlane-core/x/router"
)

// Contracts are the core contracts NewChain deploys.
type Contracts struct {
	Mailbox *corekeeper.Keeper
	// MerkleTreeHook is the required hook of the mailbox.
	MerkleTreeHook *merkletree.Hook
	// Igp is the default hook of the mailbox.
	Igp *igp.Keeper
	// Multisig is the default ISM of the mailbox.
	Multisig *multisig.Keeper

	FraudProofs      *fraudkeeper.Keeper
	FraudProofRouter *fraudrouter.FraudProofRouter
	Inbox            *inbox.Inbox
}

// NewChain creates a chain and deploys the core contracts configured by cfg.
func NewChain(logger log.Logger, cfg ChainConfig) (*Chain, error) {
	if cfg.Denom == "" {
		cfg.Denom = DefaultDenom
	}
	if err := cfg.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("domain %d: %w", cfg.Domain, err)
	}

	c, err := NewBareChain(logger, cfg.Domain, cfg.Denom)
	if err != nil {
		return nil, err
	}
	if err := c.deploy(c.ctx, cfg); err != nil {
		return nil, fmt.Errorf("deploying contracts on domain %d: %w", cfg.Domain, err)
	}

	c.logger.Info("deployed core contracts",
		"mailbox", c.Mailbox.Address().String(),
		"merkle_tree_hook", c.MerkleTreeHook.Address().String(),
		"igp", c.Igp.Address().String(),
		"multisig_ism", c.Multisig.Address().String(),
		"fraud_proof_router", c.FraudProofRouter.Address().String(),
	)
	return c, nil
}

func (c *Chain) deploy(ctx sdk.Context, cfg ChainConfig) error {
	owner, err := cfg.owner()
	if err != nil {
		return err
	}
	beneficiary, err := cfg.beneficiary()
	if err != nil {
		return err
	}
	gasConfigs, err := cfg.gasConfigs()
	if err != nil {
		return err
	}

	if c.Mailbox, err = corekeeper.NewKeeper(ctx, c.Env, owner); err != nil {
		return err
	}
	if c.MerkleTreeHook, err = merkletree.NewHook(c.Env, c.Mailbox); err != nil {
		return err
	}
	if c.Igp, err = igp.NewKeeper(ctx, c.Env, owner, beneficiary); err != nil {
		return err
	}
	if c.Multisig, err = multisig.NewKeeper(ctx, c.Env, owner); err != nil {
		return err
	}

	if err := c.Mailbox.SetRequiredHook(ctx, owner, c.MerkleTreeHook.Address()); err != nil {
		return err
	}
	if err := c.Mailbox.SetDefaultHook(ctx, owner, c.Igp.Address()); err != nil {
		return err
	}
	if err := c.Mailbox.SetDefaultIsm(ctx, owner, c.Multisig.Address()); err != nil {
		return err
	}

	if len(gasConfigs) > 0 {
		if err := c.Igp.SetDestinationGasConfigs(ctx, owner, gasConfigs); err != nil {
			return err
		}
	}
	for _, set := range cfg.ValidatorSets {
		validators, err := set.addresses()
		if err != nil {
			return err
		}
		if err := c.Multisig.EnrollValidators(ctx, owner, set.Origin, validators); err != nil {
			return err
		}
		if err := c.Multisig.SetThreshold(ctx, owner, set.Origin, set.Threshold); err != nil {
			return err
		}
	}

	if c.FraudProofs, err = fraudkeeper.NewKeeper(ctx, c.Env, owner); err != nil {
		return err
	}
	if err := c.FraudProofs.Whitelist(ctx, owner, c.MerkleTreeHook.Address()); err != nil {
		return err
	}
	if c.FraudProofRouter, err = fraudrouter.NewFraudProofRouter(ctx, c.Env, c.Mailbox, owner, c.FraudProofs); err != nil {
		return err
	}
	if c.Inbox, err = inbox.NewInbox(ctx, c.Env, owner); err != nil {
		return err
	}
	return nil
}

// Connect enrolls the fraud proof routers of chains with each other, acting
// as the owner of each router.
func Connect(chains ...*Chain) error {
	for _, local := range chains {
		remotes := make([]router.RemoteRouter, 0, len(chains)-1)
		for _, remote := range chains {
			if remote.Domain() == local.Domain() {
				continue
			}
			remotes = append(remotes, router.RemoteRouter{Domain: remote.Domain(), Router: remote.FraudProofRouter.Address()})
		}
		if len(remotes) == 0 {
			continue
		}

		owner, err := local.FraudProofRouter.Owner(local.ctx)
		if err != nil {
			return err
		}
		if err := local.FraudProofRouter.EnrollRemoteRouters(local.ctx, owner, remotes...); err != nil {
			return fmt.Errorf("domain %d: %w", local.Domain(), err)
		}
	}
	return nil
}
