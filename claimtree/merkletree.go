package claimtree

import (
	"fmt"
)

// SnapshotTree is the in-memory Merkle tree over all snapshot outputs. It is
// only needed by the snapshot tooling (root computation, proof extraction);
// the claim service itself holds nothing but the root hash.
type SnapshotTree struct {
	// levels stores the node hashes row by row, leaves first. The last
	// level contains the single root node.
	levels [][][KeyLen]byte
}

// NewSnapshotTree builds the Merkle tree for the given ordered list of
// outputs. The leaf level is padded with zero hashes up to the next power of
// two, matching the off-chain builder.
func NewSnapshotTree(outputs []*Output) *SnapshotTree {
	leaves := make([][KeyLen]byte, len(outputs))
	for i, o := range outputs {
		leaves[i] = HashOutput(o)
	}

	nextPowerOfTwo := 1
	for nextPowerOfTwo < len(leaves) {
		nextPowerOfTwo <<= 1
	}
	for len(leaves) < nextPowerOfTwo {
		leaves = append(leaves, HashZero)
	}

	levels := [][][KeyLen]byte{leaves}
	for len(levels[len(levels)-1]) > 1 {
		lastLevel := levels[len(levels)-1]
		nextLevel := make([][KeyLen]byte, len(lastLevel)/2) //nolint:gomnd
		for i := range nextLevel {
			nextLevel[i] = hashPair(lastLevel[2*i], lastLevel[2*i+1])
		}
		levels = append(levels, nextLevel)
	}

	return &SnapshotTree{levels: levels}
}

// Root returns the root hash committing to the entire snapshot.
func (t *SnapshotTree) Root() [KeyLen]byte {
	return t.levels[len(t.levels)-1][0]
}

// Depth returns the number of levels of the tree, including the leaf level
// and the root.
func (t *SnapshotTree) Depth() int {
	return len(t.levels)
}

// Proof returns the Merkle proof for the leaf at the given index, as the
// ordered list of sibling hashes from the leaf level up.
func (t *SnapshotTree) Proof(index int) ([][KeyLen]byte, error) {
	if index < 0 || index >= len(t.levels[0]) {
		return nil, fmt.Errorf("leaf index %d out of range", index)
	}

	var proof [][KeyLen]byte
	for _, lvl := range t.levels[:len(t.levels)-1] {
		if index%2 == 0 {
			proof = append(proof, lvl[index+1])
		} else {
			proof = append(proof, lvl[index-1])
		}
		index >>= 1
	}
	return proof, nil
}
