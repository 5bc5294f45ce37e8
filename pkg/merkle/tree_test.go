package merkle_test

import (
	"encoding/binary"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/hyperlane-core/pkg/merkle"
)

func leaf(i int) common.Hash {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, uint64(i))
	return crypto.Keccak256Hash(bz)
}

func TestEmptyRoot(t *testing.T) {
	var tree merkle.Tree
	zero := merkle.ZeroHashes()

	require.Equal(t, common.Hash{}, zero[0])
	require.Equal(t, crypto.Keccak256Hash(zero[0][:], zero[0][:]), zero[1])
	require.Equal(t, zero[merkle.TreeDepth], tree.Root())
	require.Equal(t, common.HexToHash("0x27ae5ba08d7291c96c8cbddcc148bf48a6d68c7974b94356f53754ef6171d757"), tree.Root())
	require.Equal(t, tree.Root(), merkle.NewProvingTree().Root())
}

func TestInsertAndProve(t *testing.T) {
	var tree merkle.Tree
	proving := merkle.NewProvingTree()

	const n = 37
	for i := 0; i < n; i++ {
		index, err := tree.Insert(leaf(i))
		require.NoError(t, err)
		require.Equal(t, uint32(i), index)

		_, err = proving.Ingest(leaf(i))
		require.NoError(t, err)
		require.Equal(t, tree.Root(), proving.Root(), "root mismatch after %d leaves", i+1)
	}

	require.Equal(t, uint32(n), tree.Count)
	for i := 0; i < n; i++ {
		proof, err := proving.Proof(uint32(i))
		require.NoError(t, err)
		require.True(t, merkle.Verify(tree.Root(), leaf(i), proof, uint32(i)))
		require.False(t, merkle.Verify(tree.Root(), leaf(i+1), proof, uint32(i)))
		require.False(t, merkle.Verify(tree.Root(), leaf(i), proof, uint32(i+1)))
	}
}

func TestRootChangesOnEveryInsert(t *testing.T) {
	var tree merkle.Tree
	seen := map[common.Hash]bool{tree.Root(): true}

	for i := 0; i < 100; i++ {
		_, err := tree.Insert(common.Hash{})
		require.NoError(t, err)

		root := tree.Root()
		require.False(t, seen[root], "root repeated after %d inserts", i+1)
		seen[root] = true
	}
}

func TestHistoricProofs(t *testing.T) {
	proving := merkle.NewProvingTree()
	var roots []common.Hash
	for i := 0; i < 20; i++ {
		_, err := proving.Ingest(leaf(i))
		require.NoError(t, err)
		roots = append(roots, proving.Root())
	}

	for count := uint32(1); count <= 20; count++ {
		root, err := proving.RootAt(count)
		require.NoError(t, err)
		require.Equal(t, roots[count-1], root)

		for index := uint32(0); index < count; index++ {
			proof, err := proving.ProofAt(index, count)
			require.NoError(t, err)
			require.True(t, merkle.Verify(root, leaf(int(index)), proof, index))
		}
	}

	_, err := proving.ProofAt(5, 5)
	require.Error(t, err)
	_, err = proving.ProofAt(0, 21)
	require.Error(t, err)
}

func TestReconstructRoot(t *testing.T) {
	proving := merkle.NewProvingTree()
	for i := 0; i < 13; i++ {
		_, err := proving.Ingest(leaf(i))
		require.NoError(t, err)
	}

	// Proving leaf 6 against the full tree still reconstructs the root of the
	// first 7 leaves, since only left siblings are used.
	proof, err := proving.Proof(6)
	require.NoError(t, err)

	reconstructed, err := merkle.ReconstructRoot(leaf(6), proof, 6)
	require.NoError(t, err)

	expected, err := proving.RootAt(7)
	require.NoError(t, err)
	require.Equal(t, expected, reconstructed)

	full := proving.Root()
	require.NotEqual(t, full, reconstructed)
	require.True(t, merkle.Verify(full, leaf(6), proof, 6))
}

func TestTreeEncoding(t *testing.T) {
	var tree merkle.Tree
	for i := 0; i < 5; i++ {
		_, err := tree.Insert(leaf(i))
		require.NoError(t, err)
	}

	decoded, err := merkle.ParseTree(tree.Bytes())
	require.NoError(t, err)
	require.Equal(t, tree, decoded)
	require.Equal(t, tree.Root(), decoded.Root())

	_, err = merkle.ParseTree(tree.Bytes()[1:])
	require.Error(t, err)
}

func TestTreeFull(t *testing.T) {
	tree := merkle.Tree{Count: merkle.MaxLeaves}
	_, err := tree.Insert(leaf(0))
	require.ErrorIs(t, err, merkle.ErrTreeFull)
}

func TestProofEncoding(t *testing.T) {
	proving := merkle.NewProvingTree()
	for i := 0; i < 3; i++ {
		_, err := proving.Ingest(leaf(i))
		require.NoError(t, err)
	}
	proof, err := proving.Proof(2)
	require.NoError(t, err)

	decoded, err := merkle.ParseProof(proof.Bytes())
	require.NoError(t, err)
	require.Equal(t, proof, decoded)
}
