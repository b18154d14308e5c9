package gerror

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrStorageNotFound is used when the object is not found in the storage
	ErrStorageNotFound = errors.New("not found in the Storage")
	// ErrStorageNotRegister is used when the storage kind is not registered
	ErrStorageNotRegister = errors.New("not registered storage")
	// ErrNilDBTransaction indicates the db transaction has not been properly initialized
	ErrNilDBTransaction = errors.New("database transaction not properly initialized")

	// ErrAlreadyClaimed is used when the snapshot output has an existing claim record
	ErrAlreadyClaimed = errors.New("output already claimed")
	// ErrProofInvalid is used when the recomputed Merkle root does not match the snapshot root
	ErrProofInvalid = errors.New("invalid Merkle proof for the snapshot root")
	// ErrInvalidRecipient is used when the claim recipient is the zero address
	ErrInvalidRecipient = errors.New("invalid claim recipient")
	// ErrWrongClaimProcess is used when the output's pubkeyhash flag does not match the chosen claim path
	ErrWrongClaimProcess = errors.New("wrong claim process for this output")
	// ErrInvalidClaimPubKey is used when the public key does not hash to the output's pubkeyhash
	ErrInvalidClaimPubKey = errors.New("public key does not match the output pubkeyhash")
	// ErrInvalidClaimSignature is used when the claim signature is malformed or recovers a different signer
	ErrInvalidClaimSignature = errors.New("invalid claim signature")
	// ErrTransferFailed is used when the token ledger declines the payout
	ErrTransferFailed = errors.New("token transfer failed")
	// ErrUnauthorized is used when a non-administrator calls an admin-only entry point
	ErrUnauthorized = errors.New("caller is not the administrator")
)

// AlreadyClaimedError reports a duplicate claim attempt together with the
// account that settled the output first.
type AlreadyClaimedError struct {
	Txid     common.Hash
	Vout     uint64
	Claimant common.Address
}

// Error implements the error interface.
func (e *AlreadyClaimedError) Error() string {
	return fmt.Sprintf("output %s:%d already claimed by %s", e.Txid, e.Vout, e.Claimant)
}

// Unwrap makes errors.Is(err, ErrAlreadyClaimed) hold.
func (e *AlreadyClaimedError) Unwrap() error {
	return ErrAlreadyClaimed
}
