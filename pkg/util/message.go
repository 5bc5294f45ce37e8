package util

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// MessageVersion is the protocol version stamped on dispatched messages.
	MessageVersion uint8 = 3

	versionOffset     = 0
	nonceOffset       = 1
	originOffset      = 5
	senderOffset      = 9
	destinationOffset = 41
	recipientOffset   = 45
	bodyOffset        = 77

	// MessageHeaderLength is the size of the fixed part of an encoded message.
	MessageHeaderLength = bodyOffset
)

// HyperlaneMessage is the unit of cross-chain communication. Its wire form is
// version(1) | nonce(4) | origin(4) | sender(32) | destination(4) |
// recipient(32) | body, integers big-endian.
type HyperlaneMessage struct {
	Version     uint8
	Nonce       uint32
	Origin      uint32
	Sender      HexAddress
	Destination uint32
	Recipient   HexAddress
	Body        []byte
}

// ParseHyperlaneMessage decodes a wire encoded message. The version is not
// checked here.
func ParseHyperlaneMessage(raw []byte) (HyperlaneMessage, error) {
	if len(raw) < MessageHeaderLength {
		return HyperlaneMessage{}, fmt.Errorf("message too short: %d < %d bytes", len(raw), MessageHeaderLength)
	}

	msg := HyperlaneMessage{
		Version:     raw[versionOffset],
		Nonce:       binary.BigEndian.Uint32(raw[nonceOffset:originOffset]),
		Origin:      binary.BigEndian.Uint32(raw[originOffset:senderOffset]),
		Destination: binary.BigEndian.Uint32(raw[destinationOffset:recipientOffset]),
		Body:        common.CopyBytes(raw[bodyOffset:]),
	}
	copy(msg.Sender[:], raw[senderOffset:destinationOffset])
	copy(msg.Recipient[:], raw[recipientOffset:bodyOffset])

	return msg, nil
}

// Bytes returns the canonical wire encoding.
func (m HyperlaneMessage) Bytes() []byte {
	out := make([]byte, 0, MessageHeaderLength+len(m.Body))
	out = append(out, m.Version)
	out = binary.BigEndian.AppendUint32(out, m.Nonce)
	out = binary.BigEndian.AppendUint32(out, m.Origin)
	out = append(out, m.Sender[:]...)
	out = binary.BigEndian.AppendUint32(out, m.Destination)
	out = append(out, m.Recipient[:]...)
	out = append(out, m.Body...)
	return out
}

// Id is the keccak256 hash of the wire encoding.
func (m HyperlaneMessage) Id() common.Hash {
	return crypto.Keccak256Hash(m.Bytes())
}

func (m HyperlaneMessage) String() string {
	return hexutil.Encode(m.Bytes())
}
