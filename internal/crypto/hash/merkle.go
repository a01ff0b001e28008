package hash

import (
	"fmt"

	"github.com/synnergy-network/n3node/internal/util"
)

// MerkleRoot computes the root of a pairwise SHA-256 Merkle tree over the
// given leaves (already-hashed transaction identifiers). An odd level
// duplicates its last entry before pairing, matching the teacher's
// BuildMerkleTree behavior. An empty leaf set yields the zero hash.
func MerkleRoot(leaves []util.Uint256) util.Uint256 {
	if len(leaves) == 0 {
		return util.Uint256{}
	}
	level := make([]util.Uint256, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]util.Uint256, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			buf := make([]byte, 0, util.Uint256Size*2)
			buf = append(buf, level[i][:]...)
			buf = append(buf, level[i+1][:]...)
			next[i/2] = Hash256(buf)
		}
		level = next
	}
	return level[0]
}

// MerkleProof returns an audit path for the leaf at index, ordered from the
// leaf level upward, along with the tree root.
func MerkleProof(leaves []util.Uint256, index int) ([]util.Uint256, util.Uint256, error) {
	if len(leaves) == 0 {
		return nil, util.Uint256{}, fmt.Errorf("merkle: no leaves")
	}
	if index < 0 || index >= len(leaves) {
		return nil, util.Uint256{}, fmt.Errorf("merkle: index %d out of range", index)
	}
	level := make([]util.Uint256, len(leaves))
	copy(level, leaves)
	var proof []util.Uint256
	idx := index
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		if idx^1 < len(level) {
			proof = append(proof, level[idx^1])
		}
		next := make([]util.Uint256, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			buf := make([]byte, 0, util.Uint256Size*2)
			buf = append(buf, level[i][:]...)
			buf = append(buf, level[i+1][:]...)
			next[i/2] = Hash256(buf)
		}
		level = next
		idx /= 2
	}
	return proof, level[0], nil
}

// VerifyMerkleProof reconstructs a root from leaf, proof, and index and
// reports whether it matches root.
func VerifyMerkleProof(root util.Uint256, leaf util.Uint256, proof []util.Uint256, index int) bool {
	cur := leaf
	for _, sibling := range proof {
		buf := make([]byte, 0, util.Uint256Size*2)
		if index%2 == 0 {
			buf = append(buf, cur[:]...)
			buf = append(buf, sibling[:]...)
		} else {
			buf = append(buf, sibling[:]...)
			buf = append(buf, cur[:]...)
		}
		cur = Hash256(buf)
		index /= 2
	}
	return cur.Equals(root)
}
