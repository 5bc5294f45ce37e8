package types

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Atomic runs fn on a cached branch of ctx and commits the branch, including
// its events, only when fn succeeds.
func Atomic(ctx context.Context, fn func(ctx sdk.Context) error) error {
	cacheCtx, write := sdk.UnwrapSDKContext(ctx).CacheContext()
	if err := fn(cacheCtx); err != nil {
		return err
	}
	write()
	return nil
}
