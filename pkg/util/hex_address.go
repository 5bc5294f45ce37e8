package util

import (
	"encoding/binary"
	"fmt"

	hyputil "github.com/bcp-innovations/hyperlane-cosmos/util"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// HexAddressLength is the size of a protocol level address.
const HexAddressLength = 32

// HexAddress is the 32 byte opaque address used for senders, recipients and
// contracts across every domain. Native accounts occupy the last 20 bytes.
type HexAddress = hyputil.HexAddress

// ZeroAddress is the unset address.
var ZeroAddress = hyputil.NewZeroAddress()

// DecodeHexAddress parses a 0x prefixed (or bare) 64 character hex string.
func DecodeHexAddress(s string) (HexAddress, error) {
	addr, err := hyputil.DecodeHexAddress(s)
	if err != nil {
		return HexAddress{}, fmt.Errorf("invalid hex address %q: %w", s, err)
	}
	return addr, nil
}

// ParseHexAddress copies a 32 byte slice into a HexAddress.
func ParseHexAddress(bz []byte) (HexAddress, error) {
	if len(bz) != HexAddressLength {
		return HexAddress{}, fmt.Errorf("invalid address length: expected %d bytes, got %d", HexAddressLength, len(bz))
	}

	var addr HexAddress
	copy(addr[:], bz)
	return addr, nil
}

// HexAddressFromAccAddress left pads a native account address.
func HexAddressFromAccAddress(addr sdk.AccAddress) HexAddress {
	var h HexAddress
	if len(addr) > HexAddressLength {
		addr = addr[len(addr)-HexAddressLength:]
	}
	copy(h[HexAddressLength-len(addr):], addr)
	return h
}

// HexAddressFromEthAddress left pads a 20 byte address.
func HexAddressFromEthAddress(addr common.Address) HexAddress {
	var h HexAddress
	copy(h[12:], addr.Bytes())
	return h
}

// CreateHexAddress derives a deterministic contract address for the n-th
// deployment of class on domain.
func CreateHexAddress(class string, domain uint32, seq uint64) HexAddress {
	buf := make([]byte, 0, len(class)+12)
	buf = append(buf, class...)
	buf = binary.BigEndian.AppendUint32(buf, domain)
	buf = binary.BigEndian.AppendUint64(buf, seq)

	return HexAddressFromEthAddress(common.BytesToAddress(crypto.Keccak256(buf)))
}

// AccAddress returns the native account backing h.
func AccAddress(h HexAddress) sdk.AccAddress {
	return sdk.AccAddress(common.CopyBytes(h[12:]))
}

// EthAddress truncates h to its last 20 bytes.
func EthAddress(h HexAddress) common.Address {
	return common.BytesToAddress(h[12:])
}

// HexAddressValue stores a HexAddress in collections.
var HexAddressValue = NewValueCodec("hyperlane/HexAddress", HexAddress.Bytes, ParseHexAddress)
