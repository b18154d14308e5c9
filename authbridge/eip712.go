package authbridge

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/xayanetwork/chi-claim-service/claimtree"
	"github.com/xayanetwork/chi-claim-service/gerror"
)

// EIP-712 schema of the claim message. The domain binds signatures to one
// deployment (chain id + verifying contract), so they cannot be replayed
// against another instance sharing the same snapshot.
const (
	domainName    = "ChiMigration"
	domainVersion = "1"

	domainType = "EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"
	claimType  = "PubKeyClaim(bytes32 txid,uint256 vout,address recipient)"

	signatureLen = 65
)

var (
	domainTypeHash = crypto.Keccak256Hash([]byte(domainType))
	claimTypeHash  = crypto.Keccak256Hash([]byte(claimType))
)

// Domain identifies one deployment of the claim system for EIP-712 purposes.
type Domain struct {
	ChainID           *big.Int
	VerifyingContract common.Address
}

// Separator returns the EIP-712 domain separator of this deployment.
func (d Domain) Separator() common.Hash {
	var chainID, contract [32]byte
	d.ChainID.FillBytes(chainID[:])
	copy(contract[12:], d.VerifyingContract[:])
	return crypto.Keccak256Hash(
		domainTypeHash[:],
		crypto.Keccak256([]byte(domainName)),
		crypto.Keccak256([]byte(domainVersion)),
		chainID[:],
		contract[:],
	)
}

// ClaimDigest computes the EIP-712 signing digest for a claim of the
// txid:vout output paying out to recipient.
func (d Domain) ClaimDigest(txid common.Hash, vout uint64, recipient common.Address) common.Hash {
	var voutBytes, recipientBytes [32]byte
	new(big.Int).SetUint64(vout).FillBytes(voutBytes[:])
	copy(recipientBytes[12:], recipient[:])
	structHash := crypto.Keccak256(
		claimTypeHash[:],
		txid[:],
		voutBytes[:],
		recipientBytes[:],
	)
	separator := d.Separator()
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, separator[:], structHash)
}

// VerifyClaimSignature checks that signature authorises paying out the
// txid:vout output to recipient, and that it was produced by the private key
// behind the (x, y) public key. Malformed or non-canonical signatures are
// rejected with gerror.ErrInvalidClaimSignature, same as a wrong signer.
func (d Domain) VerifyClaimSignature(txid common.Hash, vout uint64, recipient common.Address, x, y *big.Int, signature []byte) error {
	expected, err := CrossChainIdentity(x, y)
	if err != nil {
		return err
	}

	if len(signature) != signatureLen {
		return fmt.Errorf("%w: signature has %d bytes", gerror.ErrInvalidClaimSignature, len(signature))
	}
	sig := make([]byte, signatureLen)
	copy(sig, signature)
	// Accept both the 27/28 convention used by EVM wallets and the raw
	// 0/1 recovery id.
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if sig[64] > 1 || !crypto.ValidateSignatureValues(sig[64], r, s, true) {
		return fmt.Errorf("%w: non-canonical signature", gerror.ErrInvalidClaimSignature)
	}

	digest := d.ClaimDigest(txid, vout, recipient)
	pub, err := crypto.SigToPub(digest[:], sig)
	if err != nil {
		return fmt.Errorf("%w: %v", gerror.ErrInvalidClaimSignature, err)
	}
	if crypto.PubkeyToAddress(*pub) != expected {
		return fmt.Errorf("%w: recovered signer does not match the public key", gerror.ErrInvalidClaimSignature)
	}
	return nil
}

// SignClaim produces the claim authorisation for the txid:vout output paying
// out to recipient: the public key coordinates and the EIP-712 signature, as
// expected by VerifyClaimSignature. It is used by the claim tooling and
// the tests.
func (d Domain) SignClaim(key *ecdsa.PrivateKey, txid common.Hash, vout uint64, recipient common.Address) (x, y *big.Int, signature []byte, err error) {
	digest := d.ClaimDigest(txid, vout, recipient)
	signature, err = crypto.Sign(digest[:], key)
	if err != nil {
		return nil, nil, nil, err
	}
	return key.PublicKey.X, key.PublicKey.Y, signature, nil
}

// VerifyOutputClaim is the full self-service authorisation check for one
// snapshot output: the key must hash to the output's pubkeyhash (under either
// encoding) and the signature must bind it to the recipient.
func (d Domain) VerifyOutputClaim(o *claimtree.Output, recipient common.Address, x, y *big.Int, signature []byte) error {
	if !MatchesPubKeyHash(x, y, o.PubKeyHash) {
		return fmt.Errorf("%w: output %s:%d", gerror.ErrInvalidClaimPubKey, o.Txid, o.Vout)
	}
	return d.VerifyClaimSignature(o.Txid, o.Vout, recipient, x, y, signature)
}
