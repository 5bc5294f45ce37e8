// Package merkle implements the append-only incremental merkle accumulator
// that commits to every message dispatched from a mailbox.
package merkle

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
)

const (
	// TreeDepth is the fixed height of every tree.
	TreeDepth = 32
	// MaxLeaves is the number of leaves a tree accepts before it is full.
	MaxLeaves = 1<<TreeDepth - 1

	encodedTreeLength = 4 + TreeDepth*common.HashLength
)

// ErrTreeFull is returned when inserting into a tree holding MaxLeaves leaves.
var ErrTreeFull = errors.New("merkle tree full")

var zeroHashes [TreeDepth + 1]common.Hash

func init() {
	for i := 1; i <= TreeDepth; i++ {
		zeroHashes[i] = hashPair(zeroHashes[i-1], zeroHashes[i-1])
	}
}

// ZeroHashes returns the roots of empty subtrees for every height, Z[0] being
// the empty leaf.
func ZeroHashes() [TreeDepth + 1]common.Hash {
	return zeroHashes
}

func hashPair(left, right common.Hash) common.Hash {
	return crypto.Keccak256Hash(left[:], right[:])
}

// Proof is an inclusion proof: one sibling per level, leaf level first.
type Proof [TreeDepth]common.Hash

// Tree keeps only the frontier of an incremental merkle tree: for every level
// the last left node that is still waiting for its right sibling.
type Tree struct {
	Branch [TreeDepth]common.Hash
	Count  uint32
}

// Insert appends leaf and returns its index.
func (t *Tree) Insert(leaf common.Hash) (uint32, error) {
	if t.Count >= MaxLeaves {
		return 0, ErrTreeFull
	}

	index := t.Count
	t.Count++

	size := t.Count
	node := leaf
	for i := 0; i < TreeDepth; i++ {
		if size&1 == 1 {
			t.Branch[i] = node
			return index, nil
		}
		node = hashPair(t.Branch[i], node)
		size >>= 1
	}

	// a count below 2^32 always has a set bit in the lower 32 bits
	panic("unreachable")
}

// Root folds the frontier with the zero hashes of the empty right subtrees.
func (t Tree) Root() common.Hash {
	var current common.Hash
	for i := 0; i < TreeDepth; i++ {
		if (t.Count>>i)&1 == 1 {
			current = hashPair(t.Branch[i], current)
		} else {
			current = hashPair(current, zeroHashes[i])
		}
	}
	return current
}

// Bytes encodes the tree as count(4) | branch(32*32).
func (t Tree) Bytes() []byte {
	out := make([]byte, 0, encodedTreeLength)
	out = binary.BigEndian.AppendUint32(out, t.Count)
	for _, node := range t.Branch {
		out = append(out, node[:]...)
	}
	return out
}

// ParseTree decodes the output of Tree.Bytes.
func ParseTree(bz []byte) (Tree, error) {
	if len(bz) != encodedTreeLength {
		return Tree{}, fmt.Errorf("invalid tree encoding length %d", len(bz))
	}

	t := Tree{Count: binary.BigEndian.Uint32(bz[:4])}
	for i := range t.Branch {
		offset := 4 + i*common.HashLength
		copy(t.Branch[i][:], bz[offset:offset+common.HashLength])
	}
	return t, nil
}

// TreeValue stores a Tree in collections.
var TreeValue = util.NewValueCodec("hyperlane/MerkleTree", Tree.Bytes, ParseTree)

// BranchRoot computes the root implied by leaf sitting at index with the
// given siblings.
func BranchRoot(leaf common.Hash, proof Proof, index uint32) common.Hash {
	current := leaf
	for i := 0; i < TreeDepth; i++ {
		if (index>>i)&1 == 1 {
			current = hashPair(proof[i], current)
		} else {
			current = hashPair(current, proof[i])
		}
	}
	return current
}

// Verify reports whether leaf is included at index under root.
func Verify(root, leaf common.Hash, proof Proof, index uint32) bool {
	return BranchRoot(leaf, proof, index) == root
}

// ReconstructRoot returns the root of the tree that holds exactly index+1
// leaves, the last one being leaf. Only the left siblings of proof are used;
// everything to the right of leaf is treated as empty.
func ReconstructRoot(leaf common.Hash, proof Proof, index uint32) (common.Hash, error) {
	t := Tree{Count: index}
	for i := 0; i < TreeDepth; i++ {
		if (index>>i)&1 == 1 {
			t.Branch[i] = proof[i]
		}
	}

	if _, err := t.Insert(leaf); err != nil {
		return common.Hash{}, err
	}
	return t.Root(), nil
}

// ParseProof decodes 32 concatenated sibling hashes.
func ParseProof(bz []byte) (Proof, error) {
	var p Proof
	if len(bz) != TreeDepth*common.HashLength {
		return p, fmt.Errorf("invalid proof length %d", len(bz))
	}
	for i := range p {
		copy(p[i][:], bz[i*common.HashLength:(i+1)*common.HashLength])
	}
	return p, nil
}

// Bytes concatenates the siblings.
func (p Proof) Bytes() []byte {
	out := make([]byte, 0, TreeDepth*common.HashLength)
	for _, node := range p {
		out = append(out, node[:]...)
	}
	return out
}
