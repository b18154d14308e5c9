package claimregistry

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// OutputID identifies one snapshot output: origin transaction plus output
// index.
type OutputID struct {
	Txid common.Hash
	Vout uint64
}

// ClaimRecord is the persisted settlement record of one output. Records are
// append-only: once written they are never cleared or reassigned.
type ClaimRecord struct {
	// Key is the claim ledger key, keccak256(txid || uint256(vout)).
	Key common.Hash
	// Txid and Vout identify the settled output.
	Txid common.Hash
	Vout uint64
	// Amount paid out, in 1e-8 CHI units.
	Amount *big.Int
	// Recipient is the account the output was paid out to.
	Recipient common.Address
}
