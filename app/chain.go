package app

import (
	"context"
	"fmt"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	tmproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authkeeper "github.com/cosmos/cosmos-sdk/x/auth/keeper"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	bankkeeper "github.com/cosmos/cosmos-sdk/x/bank/keeper"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
)

// FaucetName is the module account that mints native tokens on local
// networks.
const FaucetName = "faucet"

// genesisTime is the block time of the first block of every chain.
var genesisTime = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Chain is one domain: a multistore holding account, bank and contract
// state, and the contracts deployed on it.
type Chain struct {
	logger log.Logger
	cms    storetypes.CommitMultiStore
	ctx    sdk.Context

	AccountKeeper authkeeper.AccountKeeper
	BankKeeper    bankkeeper.BaseKeeper
	Env           *coretypes.Env

	Contracts
}

// NewBareChain creates a chain with no contracts deployed.
func NewBareChain(logger log.Logger, domain uint32, denom string) (*Chain, error) {
	if err := sdk.ValidateDenom(denom); err != nil {
		return nil, err
	}

	encCfg, err := MakeEncodingConfig()
	if err != nil {
		return nil, err
	}

	keys := storetypes.NewKVStoreKeys(authtypes.StoreKey, banktypes.StoreKey, coretypes.StoreKey)

	db := dbm.NewMemDB()
	cms := store.NewCommitMultiStore(db, logger, metrics.NoOpMetrics{})
	for _, key := range keys {
		cms.MountStoreWithDB(key, storetypes.StoreTypeIAVL, nil)
	}
	if err := cms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("loading multistore: %w", err)
	}

	authority := authtypes.NewModuleAddress("gov").String()
	maccPerms := map[string][]string{
		FaucetName: {authtypes.Minter},
	}

	accountKeeper := authkeeper.NewAccountKeeper(
		encCfg.Codec,
		runtime.NewKVStoreService(keys[authtypes.StoreKey]),
		authtypes.ProtoBaseAccount,
		maccPerms,
		encCfg.AddressCodec,
		encCfg.AddressPrefix,
		authority,
	)
	bankKeeper := bankkeeper.NewBaseKeeper(
		encCfg.Codec,
		runtime.NewKVStoreService(keys[banktypes.StoreKey]),
		accountKeeper,
		map[string]bool{},
		authority,
		logger,
	)

	c := &Chain{
		logger:        logger.With("domain", domain),
		cms:           cms,
		AccountKeeper: accountKeeper,
		BankKeeper:    bankKeeper,
		Env:           coretypes.NewEnv(domain, denom, keys[coretypes.StoreKey], bankKeeper),
	}
	c.ctx = c.newContext(tmproto.Header{ChainID: fmt.Sprintf("domain-%d", domain), Height: 1, Time: genesisTime})

	if err := bankKeeper.SetParams(c.ctx, banktypes.DefaultParams()); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Chain) newContext(header tmproto.Header) sdk.Context {
	return sdk.NewContext(c.cms, header, false, c.logger)
}

// Domain is the protocol domain id of the chain.
func (c *Chain) Domain() uint32 {
	return c.Env.Domain
}

// Context is the context of the current block.
func (c *Chain) Context() sdk.Context {
	return c.ctx
}

// NextBlock commits the current block and starts the next one blockTime later.
func (c *Chain) NextBlock(blockTime time.Duration) {
	c.cms.Commit()

	header := c.ctx.BlockHeader()
	header.Height++
	header.Time = header.Time.Add(blockTime)
	c.ctx = c.newContext(header)
}

// Fund mints amount of the native denom to addr.
func (c *Chain) Fund(ctx context.Context, addr util.HexAddress, amount math.Int) error {
	coins := sdk.NewCoins(sdk.NewCoin(c.Env.Denom, amount))
	if err := c.BankKeeper.MintCoins(ctx, FaucetName, coins); err != nil {
		return err
	}
	return c.BankKeeper.SendCoinsFromModuleToAccount(ctx, FaucetName, util.AccAddress(addr), coins)
}

// Balance is the native balance of addr.
func (c *Chain) Balance(ctx context.Context, addr util.HexAddress) math.Int {
	return c.Env.Balance(ctx, addr)
}
