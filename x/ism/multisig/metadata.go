package multisig

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/celestiaorg/hyperlane-core/pkg/checkpoint"
	"github.com/celestiaorg/hyperlane-core/pkg/merkle"
	"github.com/celestiaorg/hyperlane-core/pkg/util"
)

const (
	merkleTreeOffset      = 0
	rootOffset            = 32
	indexOffset           = 64
	messageIndexOffset    = 68
	signedMessageIdOffset = 72
	proofOffset           = 104
	thresholdOffset       = proofOffset + merkle.TreeDepth*common.HashLength
	signaturesOffset      = thresholdOffset + 1

	validatorWordLength = 32
)

// Metadata is what a relayer supplies to prove a message against a signed
// checkpoint:
//
//	merkleTree(32) | root(32) | index(4) | messageIndex(4) | signedMessageId(32) |
//	proof(32*32) | threshold(1) | signatures(65*threshold) | validators(32*n)
//
// The checkpoint signs (root, index, signedMessageId); the proof places the
// delivered message at messageIndex under root. The validator list and
// threshold are checked against the commitment stored for the origin.
type Metadata struct {
	MerkleTree      util.HexAddress
	Root            common.Hash
	Index           uint32
	MessageIndex    uint32
	SignedMessageId common.Hash
	Proof           merkle.Proof
	Signatures      [][]byte
	Validators      []common.Address
}

// Threshold is the number of signatures carried.
func (m Metadata) Threshold() int {
	return len(m.Signatures)
}

// Checkpoint is the checkpoint the signatures attest to.
func (m Metadata) Checkpoint(origin uint32) checkpoint.Checkpoint {
	return checkpoint.Checkpoint{
		Origin:     origin,
		MerkleTree: m.MerkleTree,
		Root:       m.Root,
		Index:      m.Index,
		MessageId:  m.SignedMessageId,
	}
}

func (m Metadata) Bytes() []byte {
	size := signaturesOffset + len(m.Signatures)*checkpoint.SignatureLength + len(m.Validators)*validatorWordLength
	out := make([]byte, 0, size)
	out = append(out, m.MerkleTree[:]...)
	out = append(out, m.Root[:]...)
	out = binary.BigEndian.AppendUint32(out, m.Index)
	out = binary.BigEndian.AppendUint32(out, m.MessageIndex)
	out = append(out, m.SignedMessageId[:]...)
	out = append(out, m.Proof.Bytes()...)
	out = append(out, byte(len(m.Signatures)))
	for _, sig := range m.Signatures {
		out = append(out, sig...)
	}
	for _, validator := range m.Validators {
		out = append(out, common.LeftPadBytes(validator.Bytes(), validatorWordLength)...)
	}
	return out
}

func ParseMetadata(bz []byte) (Metadata, error) {
	if len(bz) < signaturesOffset {
		return Metadata{}, fmt.Errorf("metadata too short: %d < %d bytes", len(bz), signaturesOffset)
	}

	var m Metadata
	copy(m.MerkleTree[:], bz[merkleTreeOffset:rootOffset])
	m.Root = common.BytesToHash(bz[rootOffset:indexOffset])
	m.Index = binary.BigEndian.Uint32(bz[indexOffset:messageIndexOffset])
	m.MessageIndex = binary.BigEndian.Uint32(bz[messageIndexOffset:signedMessageIdOffset])
	m.SignedMessageId = common.BytesToHash(bz[signedMessageIdOffset:proofOffset])

	proof, err := merkle.ParseProof(bz[proofOffset:thresholdOffset])
	if err != nil {
		return Metadata{}, err
	}
	m.Proof = proof

	threshold := int(bz[thresholdOffset])
	validatorsOffset := signaturesOffset + threshold*checkpoint.SignatureLength
	if len(bz) < validatorsOffset {
		return Metadata{}, fmt.Errorf("metadata too short for %d signatures", threshold)
	}
	for i := 0; i < threshold; i++ {
		start := signaturesOffset + i*checkpoint.SignatureLength
		m.Signatures = append(m.Signatures, common.CopyBytes(bz[start:start+checkpoint.SignatureLength]))
	}

	rest := bz[validatorsOffset:]
	if len(rest)%validatorWordLength != 0 {
		return Metadata{}, fmt.Errorf("validator list of %d bytes is not a multiple of %d", len(rest), validatorWordLength)
	}
	for i := 0; i < len(rest); i += validatorWordLength {
		word := rest[i : i+validatorWordLength]
		if !isZero(word[:validatorWordLength-common.AddressLength]) {
			return Metadata{}, fmt.Errorf("validator word %d is not an address", i/validatorWordLength)
		}
		m.Validators = append(m.Validators, common.BytesToAddress(word))
	}
	return m, nil
}

// Commitment binds a threshold to an ordered validator list.
func Commitment(threshold uint8, validators []common.Address) common.Hash {
	buf := make([]byte, 1, 1+len(validators)*validatorWordLength)
	buf[0] = threshold
	for _, validator := range validators {
		buf = append(buf, common.LeftPadBytes(validator.Bytes(), validatorWordLength)...)
	}
	return crypto.Keccak256Hash(buf)
}

func isZero(bz []byte) bool {
	for _, b := range bz {
		if b != 0 {
			return false
		}
	}
	return true
}
