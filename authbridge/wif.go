package authbridge

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/ethereum/go-ethereum/crypto"
)

// WIFVersion is the base58check version byte of legacy Xaya private keys.
const WIFVersion = 0x82

// DecodeWIF decodes a legacy-chain private key in wallet import format. The
// trailing compression marker, if present, is ignored: the claim flow tries
// both encodings of the public key anyway.
func DecodeWIF(wif string) (*ecdsa.PrivateKey, error) {
	decoded, version, err := base58.CheckDecode(wif)
	if err != nil {
		return nil, fmt.Errorf("decoding the WIF key failed: %w", err)
	}
	if version != WIFVersion {
		return nil, fmt.Errorf("WIF key has unexpected version %d", version)
	}
	switch len(decoded) {
	case 32:
	case 33:
		if decoded[32] != 0x01 {
			return nil, fmt.Errorf("WIF key has invalid compression marker")
		}
		decoded = decoded[:32]
	default:
		return nil, fmt.Errorf("WIF key has unexpected payload length %d", len(decoded))
	}
	return crypto.ToECDSA(decoded)
}
