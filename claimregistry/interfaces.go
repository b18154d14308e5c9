package claimregistry

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v4"
)

// ClaimStore is the persistence layer of the claim ledger.
type ClaimStore interface {
	// GetClaimant returns the recipient recorded for the claim key, or
	// gerror.ErrStorageNotFound if the output is unclaimed.
	GetClaimant(ctx context.Context, key common.Hash, dbTx pgx.Tx) (common.Address, error)
	// GetClaimants is the bulk variant: one result per key, in input
	// order, with the zero address for unclaimed keys.
	GetClaimants(ctx context.Context, keys []common.Hash, dbTx pgx.Tx) ([]common.Address, error)
	// AddClaimRecord writes the settlement record. It returns
	// gerror.ErrAlreadyClaimed if a record for the key exists, also when
	// it was written by a concurrent transaction.
	AddClaimRecord(ctx context.Context, record *ClaimRecord, dbTx pgx.Tx) error
	BeginDBTransaction(ctx context.Context) (pgx.Tx, error)
	Commit(ctx context.Context, dbTx pgx.Tx) error
	Rollback(ctx context.Context, dbTx pgx.Tx) error
}

// TokenLedger moves the claimed funds. It is the only external collaborator
// of the registry; the pooled balance itself lives outside this system.
type TokenLedger interface {
	// Transfer moves amount from the pool to the recipient, failing if
	// the pool has insufficient funds.
	Transfer(ctx context.Context, to common.Address, amount *big.Int) error
}
