// Package authbridge proves control of a legacy-chain pubkeyhash and binds
// that key to an EVM recipient through an EIP-712 signature. It is pure: it
// never touches ledger state and never sees a private key except in the
// signing helpers used by the claim tooling.
package authbridge

import (
	"crypto/sha256"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck

	"github.com/xayanetwork/chi-claim-service/claimtree"
	"github.com/xayanetwork/chi-claim-service/gerror"
)

const (
	compressedPubKeyLen   = 33
	uncompressedPubKeyLen = 65
)

// validatePoint checks that (x, y) is a valid point on the secp256k1 curve.
func validatePoint(x, y *big.Int) bool {
	if x == nil || y == nil || x.Sign() < 0 || y.Sign() < 0 {
		return false
	}
	return crypto.S256().IsOnCurve(x, y)
}

// encodePoint serialises a secp256k1 point in SEC1 form, either compressed
// (parity prefix + x) or uncompressed (0x04 + x + y).
func encodePoint(x, y *big.Int, compressed bool) []byte {
	if compressed {
		buf := make([]byte, compressedPubKeyLen)
		if y.Bit(0) == 0 {
			buf[0] = 0x02
		} else {
			buf[0] = 0x03
		}
		x.FillBytes(buf[1:])
		return buf
	}
	buf := make([]byte, uncompressedPubKeyLen)
	buf[0] = 0x04
	x.FillBytes(buf[1:33])
	y.FillBytes(buf[33:])
	return buf
}

// HashIdentity derives the legacy-chain pubkeyhash of a public key, which is
// RIPEMD160(SHA256(.)) over the SEC1 encoding of the point.
func HashIdentity(x, y *big.Int, compressed bool) [claimtree.PubKeyHashLen]byte {
	var res [claimtree.PubKeyHashLen]byte
	first := sha256.Sum256(encodePoint(x, y, compressed))
	h := ripemd160.New()
	h.Write(first[:]) //nolint:errcheck,gosec
	copy(res[:], h.Sum(nil))
	return res
}

// MatchesPubKeyHash reports whether the public key hashes to the given
// pubkeyhash under either the compressed or the uncompressed encoding. Both
// have to be tried because the legacy chain does not record which form the
// original holder used.
func MatchesPubKeyHash(x, y *big.Int, pubKeyHash [claimtree.PubKeyHashLen]byte) bool {
	if !validatePoint(x, y) {
		return false
	}
	if HashIdentity(x, y, true) == pubKeyHash {
		return true
	}
	return HashIdentity(x, y, false) == pubKeyHash
}

// CrossChainIdentity derives the EVM account the key controls natively on the
// target chain: keccak256 over the raw concatenated coordinates, truncated to
// the 20-byte address width.
func CrossChainIdentity(x, y *big.Int) (common.Address, error) {
	if !validatePoint(x, y) {
		return common.Address{}, gerror.ErrInvalidClaimPubKey
	}
	var buf [64]byte
	x.FillBytes(buf[:32])
	y.FillBytes(buf[32:])
	return common.BytesToAddress(crypto.Keccak256(buf[:])[12:]), nil
}
