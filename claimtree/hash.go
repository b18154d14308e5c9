package claimtree

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/iden3/go-iden3-crypto/keccak256"
	"golang.org/x/crypto/sha3"
)

const (
	// KeyLen is the length of the node hashes in the snapshot Merkle tree
	KeyLen = 32
	// PubKeyHashLen is the length of a legacy-chain pubkeyhash
	PubKeyHashLen = 20
)

// HashZero is an empty hash, used to pad the leaf level to a power of two
var HashZero = [KeyLen]byte{}

func hash(data ...[KeyLen]byte) [KeyLen]byte {
	var res [KeyLen]byte
	hash := sha3.NewLegacyKeccak256()
	for _, d := range data {
		hash.Write(d[:]) //nolint:errcheck,gosec
	}
	copy(res[:], hash.Sum(nil))
	return res
}

// hashPair computes the parent node for two child nodes. The pair is hashed
// in sorted order, matching OpenZeppelin's MerkleProof contract and the
// off-chain snapshot builder.
func hashPair(a, b [KeyLen]byte) [KeyLen]byte {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return hash(a, b)
	}
	return hash(b, a)
}

// HashOutput computes the Merkle leaf hash of a snapshot output. The encoding
// is keccak256 over the packed fields
// txid[32] || uint256(vout) || uint256(amount) || pubkeyhash[20],
// and must byte-match the off-chain tree builder.
func HashOutput(o *Output) [KeyLen]byte {
	var res, vout, amount [KeyLen]byte
	putUint64(vout[:], o.Vout)
	o.Amount.FillBytes(amount[:])
	copy(res[:], keccak256.Hash(o.Txid[:], vout[:], amount[:], o.PubKeyHash[:]))
	return res
}

// ClaimKey derives the claim ledger key for an output identifier, which is
// keccak256 over txid[32] || uint256(vout).
func ClaimKey(txid common.Hash, vout uint64) common.Hash {
	var voutBytes [KeyLen]byte
	putUint64(voutBytes[:], vout)
	return common.BytesToHash(keccak256.Hash(txid[:], voutBytes[:]))
}

// putUint64 writes v big-endian aligned to the end of the 32-byte buffer.
func putUint64(buf []byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[len(buf)-1-i] = byte(v >> (8 * i))
	}
}

// VerifyProof recomputes the Merkle root from a leaf hash and the ordered
// sibling list, and compares it against the expected root.
func VerifyProof(root, leaf [KeyLen]byte, proof [][KeyLen]byte) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}
