package util

import (
	"encoding/binary"
	"fmt"

	"cosmossdk.io/math"
	hyputil "github.com/bcp-innovations/hyperlane-cosmos/util"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	// StandardHookMetadataVariant is the only metadata variant hooks understand.
	StandardHookMetadataVariant uint16 = 1

	variantOffset       = 0
	msgValueOffset      = 2
	gasLimitOffset      = 34
	refundAddressOffset = 66
	customOffset        = 86
)

// StandardHookMetadata is the decoded form of a complete metadata buffer:
// variant(2) | value(32) | gasLimit(32) | refundAddress(20) | custom.
type StandardHookMetadata = hyputil.StandardHookMetadata

// HookMetadata is the metadata passed with a dispatch. Every field is
// optional; accessors fall back to the caller's default when the buffer is
// too short to contain it.
type HookMetadata struct {
	raw []byte
	// full is set when raw carries every fixed field.
	full     StandardHookMetadata
	complete bool
}

// ParseHookMetadata accepts empty metadata or metadata of the standard
// variant.
func ParseHookMetadata(raw []byte) (HookMetadata, error) {
	md := HookMetadata{raw: common.CopyBytes(raw)}
	if len(raw) > 0 && md.Variant() != StandardHookMetadataVariant {
		return HookMetadata{}, fmt.Errorf("unsupported hook metadata variant %d", md.Variant())
	}
	if len(raw) >= customOffset {
		full, err := hyputil.ParseStandardHookMetadata(md.raw)
		if err != nil {
			return HookMetadata{}, err
		}
		md.full, md.complete = full, true
	}
	return md, nil
}

// FormatStandardHookMetadata encodes a standard metadata buffer.
func FormatStandardHookMetadata(msgValue, gasLimit *uint256.Int, refundAddress common.Address, custom []byte) []byte {
	out := make([]byte, customOffset, customOffset+len(custom))
	binary.BigEndian.PutUint16(out[variantOffset:], StandardHookMetadataVariant)
	if msgValue != nil {
		msgValue.PutUint256(out[msgValueOffset:gasLimitOffset])
	}
	if gasLimit != nil {
		gasLimit.PutUint256(out[gasLimitOffset:refundAddressOffset])
	}
	copy(out[refundAddressOffset:customOffset], refundAddress.Bytes())
	return append(out, custom...)
}

// EncodeStandardHookMetadata encodes md. Nil amounts encode as zero and the
// variant is always the standard one.
func EncodeStandardHookMetadata(md StandardHookMetadata) ([]byte, error) {
	value, err := Uint256FromInt(md.Value)
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}
	gasLimit, err := Uint256FromInt(md.GasLimit)
	if err != nil {
		return nil, fmt.Errorf("gas limit: %w", err)
	}
	if len(md.Address) > common.AddressLength {
		return nil, fmt.Errorf("refund address is %d bytes", len(md.Address))
	}
	return FormatStandardHookMetadata(value, gasLimit, common.BytesToAddress(md.Address), md.CustomData), nil
}

func (m HookMetadata) Bytes() []byte {
	return m.raw
}

func (m HookMetadata) IsEmpty() bool {
	return len(m.raw) == 0
}

func (m HookMetadata) Variant() uint16 {
	if len(m.raw) < msgValueOffset {
		return 0
	}
	return binary.BigEndian.Uint16(m.raw[variantOffset:msgValueOffset])
}

func (m HookMetadata) MsgValue(def math.Int) math.Int {
	switch {
	case m.complete:
		return m.full.Value
	case len(m.raw) < gasLimitOffset:
		return def
	}
	return IntFromUint256(new(uint256.Int).SetBytes(m.raw[msgValueOffset:gasLimitOffset]))
}

func (m HookMetadata) GasLimit(def math.Int) math.Int {
	switch {
	case m.complete:
		return m.full.GasLimit
	case len(m.raw) < refundAddressOffset:
		return def
	}
	return IntFromUint256(new(uint256.Int).SetBytes(m.raw[gasLimitOffset:refundAddressOffset]))
}

func (m HookMetadata) RefundAddress(def HexAddress) HexAddress {
	if !m.complete {
		return def
	}
	return HexAddressFromAccAddress(sdk.AccAddress(m.full.Address))
}

func (m HookMetadata) Custom() []byte {
	if !m.complete {
		return nil
	}
	return m.raw[customOffset:]
}
