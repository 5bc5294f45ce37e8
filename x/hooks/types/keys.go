package types

import (
	"github.com/celestiaorg/hyperlane-core/pkg/util"
)

const (
	// ModuleName is the codespace of every post-dispatch hook.
	ModuleName = "hooks"
)

// DefaultGasLimit is the destination gas assumed when the dispatch metadata
// does not carry one.
const DefaultGasLimit = 50_000

// ParseMetadata rejects metadata of an unknown variant.
func ParseMetadata(metadata []byte) (util.HookMetadata, error) {
	md, err := util.ParseHookMetadata(metadata)
	if err != nil {
		return md, ErrInvalidMetadata.Wrap(err.Error())
	}
	return md, nil
}
