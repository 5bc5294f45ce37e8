package util

import (
	"fmt"

	"github.com/holiman/uint256"
)

const (
	tokenRecipientOffset = 0
	tokenAmountOffset    = 32
	tokenMetadataOffset  = 64
)

// ParseTokenAmount reads the transfer amount of a token message body
// (recipient(32) | amount(32) | metadata).
func ParseTokenAmount(body []byte) (*uint256.Int, error) {
	if len(body) < tokenMetadataOffset {
		return nil, fmt.Errorf("token message too short: %d < %d bytes", len(body), tokenMetadataOffset)
	}
	return new(uint256.Int).SetBytes(body[tokenAmountOffset:tokenMetadataOffset]), nil
}

// FormatTokenMessage encodes a token message body.
func FormatTokenMessage(recipient HexAddress, amount *uint256.Int, metadata []byte) []byte {
	out := make([]byte, tokenMetadataOffset, tokenMetadataOffset+len(metadata))
	copy(out[tokenRecipientOffset:tokenAmountOffset], recipient[:])
	amount.PutUint256(out[tokenAmountOffset:tokenMetadataOffset])
	return append(out, metadata...)
}
