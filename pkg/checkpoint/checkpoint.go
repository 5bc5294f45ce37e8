// Package checkpoint defines the attestation validators sign over a merkle
// tree hook and the digest both signers and verifiers compute over it.
package checkpoint

import (
	"crypto/ecdsa"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
)

const (
	signaturePrefix = "\x19Ethereum Signed Message:\n32"
	domainSeparator = "HYPERLANE"

	// SignatureLength is the size of an r | s | v signature.
	SignatureLength = 65
)

var (
	ErrInvalidSignature = errors.New("invalid checkpoint signature")
	ErrMissingKey       = errors.New("missing signing key")
)

// Checkpoint attests that the merkle tree on Origin had Root after inserting
// MessageId at Index.
type Checkpoint struct {
	Origin     uint32
	MerkleTree util.HexAddress
	Root       common.Hash
	Index      uint32
	MessageId  common.Hash
}

// DomainHash binds signatures to an origin and a merkle tree hook.
func DomainHash(origin uint32, merkleTree util.HexAddress) common.Hash {
	buf := make([]byte, 4, 4+util.HexAddressLength+len(domainSeparator))
	binary.BigEndian.PutUint32(buf, origin)
	buf = append(buf, merkleTree[:]...)
	buf = append(buf, domainSeparator...)
	return crypto.Keccak256Hash(buf)
}

// SigningHash is the hash validators attest to before the EIP-191 prefix is
// applied.
func (c Checkpoint) SigningHash() common.Hash {
	domainHash := DomainHash(c.Origin, c.MerkleTree)
	index := binary.BigEndian.AppendUint32(nil, c.Index)
	return crypto.Keccak256Hash(domainHash[:], c.Root[:], index, c.MessageId[:])
}

// Digest is the EIP-191 signed message hash of the checkpoint.
func (c Checkpoint) Digest() common.Hash {
	hash := c.SigningHash()
	return crypto.Keccak256Hash([]byte(signaturePrefix), hash[:])
}

// Sign returns a 65 byte signature over the checkpoint digest with v in {27, 28}.
func Sign(c Checkpoint, key *ecdsa.PrivateKey) ([]byte, error) {
	if key == nil {
		return nil, ErrMissingKey
	}

	digest := c.Digest()
	sig, err := crypto.Sign(digest[:], key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

// RecoverSigner returns the address that produced signature over digest.
// Signatures with a malleable (high) s value are rejected.
func RecoverSigner(digest common.Hash, signature []byte) (common.Address, error) {
	if len(signature) != SignatureLength {
		return common.Address{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, SignatureLength, len(signature))
	}

	sig := common.CopyBytes(signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(sig[64], r, s, true) {
		return common.Address{}, fmt.Errorf("%w: invalid signature values", ErrInvalidSignature)
	}

	pub, err := crypto.SigToPub(digest[:], sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// SignedCheckpoint pairs a checkpoint with one validator signature.
type SignedCheckpoint struct {
	Checkpoint Checkpoint
	Signature  []byte
}

// Signer recovers the validator that signed the checkpoint.
func (s SignedCheckpoint) Signer() (common.Address, error) {
	return RecoverSigner(s.Checkpoint.Digest(), s.Signature)
}

const signedCheckpointLength = 4 + util.HexAddressLength + 32 + 4 + 32 + SignatureLength

// Bytes encodes origin(4) | merkleTree(32) | root(32) | index(4) |
// messageId(32) | signature(65).
func (s SignedCheckpoint) Bytes() []byte {
	out := make([]byte, 0, signedCheckpointLength)
	out = binary.BigEndian.AppendUint32(out, s.Checkpoint.Origin)
	out = append(out, s.Checkpoint.MerkleTree[:]...)
	out = append(out, s.Checkpoint.Root[:]...)
	out = binary.BigEndian.AppendUint32(out, s.Checkpoint.Index)
	out = append(out, s.Checkpoint.MessageId[:]...)
	return append(out, s.Signature...)
}

// ParseSignedCheckpoint decodes the output of SignedCheckpoint.Bytes.
func ParseSignedCheckpoint(bz []byte) (SignedCheckpoint, error) {
	if len(bz) != signedCheckpointLength {
		return SignedCheckpoint{}, fmt.Errorf("invalid signed checkpoint length %d", len(bz))
	}

	var s SignedCheckpoint
	s.Checkpoint.Origin = binary.BigEndian.Uint32(bz[0:4])
	copy(s.Checkpoint.MerkleTree[:], bz[4:36])
	copy(s.Checkpoint.Root[:], bz[36:68])
	s.Checkpoint.Index = binary.BigEndian.Uint32(bz[68:72])
	copy(s.Checkpoint.MessageId[:], bz[72:104])
	s.Signature = common.CopyBytes(bz[104:])
	return s, nil
}
