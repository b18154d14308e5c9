// Package claimregistry is the single source of truth for which snapshot
// outputs have been paid out, and the sole verifier of snapshot membership
// proofs.
package claimregistry

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v4"

	"github.com/xayanetwork/chi-claim-service/claimtree"
	"github.com/xayanetwork/chi-claim-service/gerror"
	"github.com/xayanetwork/chi-claim-service/log"
	"github.com/xayanetwork/chi-claim-service/metrics"
)

// Registry verifies snapshot inclusion proofs against the fixed root hash
// and records settlement in the claim ledger.
type Registry struct {
	// root is the commitment to the entire snapshot, immutable for the
	// lifetime of the instance.
	root   [claimtree.KeyLen]byte
	store  ClaimStore
	ledger TokenLedger
}

// NewRegistry creates the registry for the given snapshot root.
func NewRegistry(root common.Hash, store ClaimStore, ledger TokenLedger) *Registry {
	return &Registry{
		root:   [claimtree.KeyLen]byte(root),
		store:  store,
		ledger: ledger,
	}
}

// Root returns the snapshot root hash.
func (r *Registry) Root() common.Hash {
	return common.Hash(r.root)
}

// LeafHash returns the Merkle leaf hash of the output, as committed to by
// the snapshot root.
func (r *Registry) LeafHash(o *claimtree.Output) common.Hash {
	return common.Hash(claimtree.HashOutput(o))
}

// CheckClaim verifies that the output is part of the snapshot and still
// unclaimed. It is pure: no side effects, safely retryable, callable by
// anyone.
func (r *Registry) CheckClaim(ctx context.Context, o *claimtree.Output, proof [][claimtree.KeyLen]byte) error {
	return r.checkClaim(ctx, o, proof, nil)
}

func (r *Registry) checkClaim(ctx context.Context, o *claimtree.Output, proof [][claimtree.KeyLen]byte, dbTx pgx.Tx) error {
	claimant, err := r.store.GetClaimant(ctx, o.ClaimKey(), dbTx)
	if err == nil {
		return &gerror.AlreadyClaimedError{Txid: o.Txid, Vout: o.Vout, Claimant: claimant}
	}
	if !errors.Is(err, gerror.ErrStorageNotFound) {
		return err
	}

	if !claimtree.VerifyProof(r.root, claimtree.HashOutput(o), proof) {
		return fmt.Errorf("%w: output %s:%d", gerror.ErrProofInvalid, o.Txid, o.Vout)
	}
	return nil
}

// ExecuteClaim settles the output: it re-runs the claim check, records the
// settlement and instructs the token ledger to pay out. The record is
// written before the ledger call, inside one database transaction, so a
// reentrant claim triggered by the transfer cannot settle the same output
// twice, while a declined transfer still rolls the record back.
func (r *Registry) ExecuteClaim(ctx context.Context, o *claimtree.Output, proof [][claimtree.KeyLen]byte, recipient common.Address) error {
	if recipient == (common.Address{}) {
		return fmt.Errorf("%w: output %s:%d", gerror.ErrInvalidRecipient, o.Txid, o.Vout)
	}

	dbTx, err := r.store.BeginDBTransaction(ctx)
	if err != nil {
		return err
	}

	if err := r.executeClaim(ctx, o, proof, recipient, dbTx); err != nil {
		if rollbackErr := r.store.Rollback(ctx, dbTx); rollbackErr != nil {
			log.Errorf("rolling back the claim of output %s:%d failed: %v", o.Txid, o.Vout, rollbackErr)
		}
		return err
	}
	if err := r.store.Commit(ctx, dbTx); err != nil {
		return err
	}

	log.Infof("claimed output %s:%d, amount %s, recipient %s", o.Txid, o.Vout, o.Amount, recipient)
	metrics.RecordClaim(o.Amount)
	return nil
}

func (r *Registry) executeClaim(ctx context.Context, o *claimtree.Output, proof [][claimtree.KeyLen]byte, recipient common.Address, dbTx pgx.Tx) error {
	if err := r.checkClaim(ctx, o, proof, dbTx); err != nil {
		return err
	}

	record := &ClaimRecord{
		Key:       o.ClaimKey(),
		Txid:      o.Txid,
		Vout:      o.Vout,
		Amount:    o.Amount,
		Recipient: recipient,
	}
	if err := r.store.AddClaimRecord(ctx, record, dbTx); err != nil {
		if errors.Is(err, gerror.ErrAlreadyClaimed) {
			return fmt.Errorf("%w: output %s:%d", gerror.ErrAlreadyClaimed, o.Txid, o.Vout)
		}
		return err
	}

	if err := r.ledger.Transfer(ctx, recipient, o.Amount); err != nil {
		return fmt.Errorf("%w: output %s:%d: %v", gerror.ErrTransferFailed, o.Txid, o.Vout, err)
	}
	return nil
}

// BatchCheckClaimed returns the claimant for every requested output, in
// input order, with the zero address for unclaimed ones.
func (r *Registry) BatchCheckClaimed(ctx context.Context, ids []OutputID) ([]common.Address, error) {
	keys := make([]common.Hash, len(ids))
	for i, id := range ids {
		keys[i] = claimtree.ClaimKey(id.Txid, id.Vout)
	}
	return r.store.GetClaimants(ctx, keys, nil)
}
