// Package aggregation implements an m-of-n security module over a fixed list
// of child modules.
package aggregation

import (
	"context"
	"encoding/binary"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/ism/types"
)

// ContractClass is used to derive aggregation module addresses.
const ContractClass = "static_aggregation_ism"

const rangeLength = 8

var _ coretypes.InterchainSecurityModule = (*Ism)(nil)

type Ism struct {
	env       *coretypes.Env
	address   util.HexAddress
	modules   []util.HexAddress
	threshold uint8
}

// NewIsm deploys a module that accepts a message once threshold of modules
// accept it.
func NewIsm(env *coretypes.Env, modules []util.HexAddress, threshold uint8) (*Ism, error) {
	if threshold == 0 || int(threshold) > len(modules) {
		return nil, errorsmod.Wrapf(types.ErrInvalidThreshold, "threshold %d of %d modules", threshold, len(modules))
	}
	for _, module := range modules {
		if _, err := env.Ism(module); err != nil {
			return nil, err
		}
	}

	m := &Ism{
		env:       env,
		address:   env.NextAddress(ContractClass),
		modules:   append([]util.HexAddress(nil), modules...),
		threshold: threshold,
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
	return coretypes.ModuleTypeAggregation
}

func (m *Ism) ModulesAndThreshold() ([]util.HexAddress, uint8) {
	return append([]util.HexAddress(nil), m.modules...), m.threshold
}

// Verify runs the modules that have metadata, in order, until threshold of
// them accepted. A module that is given metadata and rejects fails the
// whole verification.
func (m *Ism) Verify(ctx context.Context, metadata []byte, message util.HyperlaneMessage) (bool, error) {
	subs, err := ParseMetadata(metadata, len(m.modules))
	if err != nil {
		return false, err
	}

	remaining := m.threshold
	for i, module := range m.modules {
		if remaining == 0 {
			break
		}
		if subs[i] == nil {
			continue
		}

		ism, err := m.env.Ism(module)
		if err != nil {
			return false, err
		}
		ok, err := ism.Verify(ctx, subs[i], message)
		if err != nil {
			return false, errorsmod.Wrapf(err, "module %d (%s)", i, module)
		}
		if !ok {
			sdk.UnwrapSDKContext(ctx).Logger().Debug("aggregated module rejected message", "module", module.String(), "id", message.Id().Hex())
			return false, nil
		}
		remaining--
	}
	return remaining == 0, nil
}

// ParseMetadata splits metadata into the slices of each of n modules. The
// header holds start(4) | end(4) per module; a zero start marks a module
// without metadata, returned as nil.
func ParseMetadata(metadata []byte, n int) ([][]byte, error) {
	if len(metadata) < n*rangeLength {
		return nil, errorsmod.Wrapf(types.ErrInvalidMetadata, "%d bytes cannot hold %d ranges", len(metadata), n)
	}

	subs := make([][]byte, n)
	for i := range subs {
		start := binary.BigEndian.Uint32(metadata[i*rangeLength:])
		end := binary.BigEndian.Uint32(metadata[i*rangeLength+4:])
		if start == 0 {
			continue
		}
		if start > end || int(end) > len(metadata) {
			return nil, errorsmod.Wrapf(types.ErrInvalidMetadata, "module %d range [%d, %d) outside %d bytes", i, start, end, len(metadata))
		}
		subs[i] = metadata[start:end]
	}
	return subs, nil
}

// FormatMetadata builds metadata from per module slices; nil slices mark
// modules that should be skipped.
func FormatMetadata(subs [][]byte) []byte {
	header := len(subs) * rangeLength
	out := make([]byte, header)
	for i, sub := range subs {
		if sub == nil {
			continue
		}
		start := len(out)
		out = append(out, sub...)
		binary.BigEndian.PutUint32(out[i*rangeLength:], uint32(start))
		binary.BigEndian.PutUint32(out[i*rangeLength+4:], uint32(len(out)))
	}
	return out
}
