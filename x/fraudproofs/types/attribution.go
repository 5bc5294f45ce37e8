package types

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
)

// FraudType is the reason a signed checkpoint was attributed as fraud.
type FraudType uint8

const (
	FraudTypeWhitelist FraudType = iota
	FraudTypePremature
	FraudTypeMessageId
	FraudTypeRoot
)

func (f FraudType) String() string {
	switch f {
	case FraudTypeWhitelist:
		return "whitelist"
	case FraudTypePremature:
		return "premature"
	case FraudTypeMessageId:
		return "message_id"
	case FraudTypeRoot:
		return "root"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(f))
	}
}

func (f FraudType) Valid() bool {
	return f <= FraudTypeRoot
}

// MaxTimestamp is the largest timestamp an attribution can carry (48 bits).
const MaxTimestamp = 1<<48 - 1

// AttributionLength is the encoded size of an Attribution.
const AttributionLength = 1 + 6

// Attribution records when a signature was proven fraudulent and why.
type Attribution struct {
	FraudType FraudType
	// Timestamp is the unix time of the block the attribution was made in.
	Timestamp int64
}

func (a Attribution) Bytes() []byte {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(a.Timestamp))
	return append([]byte{byte(a.FraudType)}, ts[2:]...)
}

func ParseAttribution(bz []byte) (Attribution, error) {
	if len(bz) != AttributionLength {
		return Attribution{}, fmt.Errorf("invalid attribution length %d", len(bz))
	}
	a := Attribution{FraudType: FraudType(bz[0])}
	if !a.FraudType.Valid() {
		return Attribution{}, fmt.Errorf("invalid fraud type %d", bz[0])
	}
	var ts [8]byte
	copy(ts[2:], bz[1:])
	a.Timestamp = int64(binary.BigEndian.Uint64(ts[:]))
	return a, nil
}

var AttributionValue = util.NewValueCodec("hyperlane/Attribution", Attribution.Bytes, ParseAttribution)

// AttributionRecord is an attribution with the key it is stored under.
type AttributionRecord struct {
	Digest common.Hash
	Signer common.Address
	Attribution
}

// MerkleTreeHook is the view of a merkle tree hook fraud proofs are checked
// against.
type MerkleTreeHook interface {
	coretypes.Contract

	Count(ctx context.Context) (uint32, error)
	LatestCheckpoint(ctx context.Context) (common.Hash, uint32, error)
}

// FraudMessageLength is the encoded size of a FraudMessage:
// signer(32) | merkleTree(32) | digest(32) | fraudType(1) | timestamp(6).
const FraudMessageLength = 32 + util.HexAddressLength + common.HashLength + AttributionLength

// FraudMessage carries an attribution from the chain it was made on to a
// remote chain.
type FraudMessage struct {
	Signer     common.Address
	MerkleTree util.HexAddress
	Digest     common.Hash
	Attribution
}

func (m FraudMessage) Bytes() []byte {
	out := make([]byte, 0, FraudMessageLength)
	out = append(out, common.LeftPadBytes(m.Signer.Bytes(), 32)...)
	out = append(out, m.MerkleTree[:]...)
	out = append(out, m.Digest[:]...)
	return append(out, m.Attribution.Bytes()...)
}

func ParseFraudMessage(bz []byte) (FraudMessage, error) {
	if len(bz) != FraudMessageLength {
		return FraudMessage{}, fmt.Errorf("invalid fraud message length %d", len(bz))
	}
	attribution, err := ParseAttribution(bz[96:])
	if err != nil {
		return FraudMessage{}, err
	}
	m := FraudMessage{
		Signer:      common.BytesToAddress(bz[12:32]),
		Digest:      common.BytesToHash(bz[64:96]),
		Attribution: attribution,
	}
	copy(m.MerkleTree[:], bz[32:64])
	return m, nil
}
