package claimtree

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Output is one entry of the legacy-chain UTXO snapshot. Outputs are never
// stored by the claim service; they only exist as leaves of the snapshot
// Merkle tree, and their leaf hash is recomputed on demand from
// caller-supplied data.
type Output struct {
	// Txid is the transaction id of the snapshotted output on the legacy chain
	Txid common.Hash
	// Vout is the output index within that transaction
	Vout uint64
	// Amount owed for this output, in 1e-8 CHI units
	Amount *big.Int
	// PubKeyHash is the legacy-chain pubkeyhash controlling the output.
	// An all-zero value flags the output as non-standard, claimable only
	// through administrator approval.
	PubKeyHash [PubKeyHashLen]byte
	// Address is the legacy-chain address string, if the output had one.
	// It is only used by the snapshot tooling, never by claim verification.
	Address string
}

// NonStandard reports whether the output can only be claimed through the
// administrator path.
func (o *Output) NonStandard() bool {
	return o.PubKeyHash == [PubKeyHashLen]byte{}
}

// ClaimKey returns the claim ledger key of this output.
func (o *Output) ClaimKey() common.Hash {
	return ClaimKey(o.Txid, o.Vout)
}

// chiDecimals is the number of decimal places of the legacy CHI unit.
const chiDecimals = 8

// FormatChi formats an amount in 1e-8 units as a decimal CHI string.
func FormatChi(amount *big.Int) string {
	q, r := new(big.Int).QuoRem(amount, big.NewInt(1e8), new(big.Int))
	dec := r.Text(10) //nolint:gomnd
	for len(dec) < chiDecimals {
		dec = "0" + dec
	}
	return q.Text(10) + "." + dec //nolint:gomnd
}
