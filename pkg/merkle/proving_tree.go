package merkle

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ProvingTree keeps every leaf so it can produce inclusion proofs against the
// current root or any historic one. It is used off-chain by validators and
// relayers and in tests.
type ProvingTree struct {
	leaves []common.Hash
}

// NewProvingTree returns an empty tree.
func NewProvingTree() *ProvingTree {
	return &ProvingTree{}
}

// Ingest appends a leaf and returns its index.
func (p *ProvingTree) Ingest(leaf common.Hash) (uint32, error) {
	if uint64(len(p.leaves)) >= MaxLeaves {
		return 0, ErrTreeFull
	}
	p.leaves = append(p.leaves, leaf)
	return uint32(len(p.leaves) - 1), nil
}

func (p *ProvingTree) Count() uint32 {
	return uint32(len(p.leaves))
}

func (p *ProvingTree) Leaf(index uint32) (common.Hash, error) {
	if index >= p.Count() {
		return common.Hash{}, fmt.Errorf("leaf %d out of range, tree has %d leaves", index, p.Count())
	}
	return p.leaves[index], nil
}

// Root is the root over every ingested leaf.
func (p *ProvingTree) Root() common.Hash {
	root, _ := p.RootAt(p.Count())
	return root
}

// RootAt is the root the tree had when it held count leaves.
func (p *ProvingTree) RootAt(count uint32) (common.Hash, error) {
	if count > p.Count() {
		return common.Hash{}, fmt.Errorf("count %d exceeds tree size %d", count, p.Count())
	}

	layer := p.leaves[:count]
	for i := 0; i < TreeDepth; i++ {
		layer = nextLayer(layer, i)
	}
	if len(layer) == 0 {
		return zeroHashes[TreeDepth], nil
	}
	return layer[0], nil
}

// Proof proves index against the current root.
func (p *ProvingTree) Proof(index uint32) (Proof, error) {
	return p.ProofAt(index, p.Count())
}

// ProofAt proves index against the root the tree had at count leaves.
func (p *ProvingTree) ProofAt(index, count uint32) (Proof, error) {
	var proof Proof
	if count > p.Count() {
		return proof, fmt.Errorf("count %d exceeds tree size %d", count, p.Count())
	}
	if index >= count {
		return proof, fmt.Errorf("leaf %d out of range for %d leaves", index, count)
	}

	layer := p.leaves[:count]
	position := index
	for i := 0; i < TreeDepth; i++ {
		sibling := position ^ 1
		if int(sibling) < len(layer) {
			proof[i] = layer[sibling]
		} else {
			proof[i] = zeroHashes[i]
		}
		layer = nextLayer(layer, i)
		position >>= 1
	}
	return proof, nil
}

func nextLayer(layer []common.Hash, level int) []common.Hash {
	next := make([]common.Hash, 0, (len(layer)+1)/2)
	for j := 0; j < len(layer); j += 2 {
		right := zeroHashes[level]
		if j+1 < len(layer) {
			right = layer[j+1]
		}
		next = append(next, hashPair(layer[j], right))
	}
	return next
}
