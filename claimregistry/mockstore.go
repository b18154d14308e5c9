package claimregistry

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v4"

	"github.com/xayanetwork/chi-claim-service/gerror"
)

// mockTx marks an open transaction of the in-memory store. Only its identity
// is used; none of the pgx.Tx methods are ever called on it.
type mockTx struct {
	pgx.Tx
}

// MockClaimStore is an in-memory ClaimStore used in tests and in the local
// standalone mode. Writes made inside a transaction stay pending until
// Commit and are discarded by Rollback. Only one transaction can be open at
// a time, which mirrors the serialized execution model of the claim ledger.
type MockClaimStore struct {
	mu      sync.Mutex
	records map[common.Hash]*ClaimRecord
	pending map[common.Hash]*ClaimRecord
	openTx  pgx.Tx
}

// NewMockClaimStore creates an empty in-memory claim store.
func NewMockClaimStore() *MockClaimStore {
	return &MockClaimStore{
		records: make(map[common.Hash]*ClaimRecord),
	}
}

// BeginDBTransaction starts a transaction block.
func (m *MockClaimStore) BeginDBTransaction(ctx context.Context) (pgx.Tx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openTx != nil {
		return nil, gerror.ErrNilDBTransaction
	}
	m.openTx = &mockTx{}
	m.pending = make(map[common.Hash]*ClaimRecord)
	return m.openTx, nil
}

// Commit applies the pending writes.
func (m *MockClaimStore) Commit(ctx context.Context, dbTx pgx.Tx) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if dbTx == nil || dbTx != m.openTx {
		return gerror.ErrNilDBTransaction
	}
	for key, record := range m.pending {
		m.records[key] = record
	}
	m.openTx = nil
	m.pending = nil
	return nil
}

// Rollback discards the pending writes.
func (m *MockClaimStore) Rollback(ctx context.Context, dbTx pgx.Tx) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if dbTx == nil || dbTx != m.openTx {
		return gerror.ErrNilDBTransaction
	}
	m.openTx = nil
	m.pending = nil
	return nil
}

func (m *MockClaimStore) lookup(key common.Hash, dbTx pgx.Tx) (*ClaimRecord, bool) {
	if dbTx != nil && dbTx == m.openTx {
		if record, ok := m.pending[key]; ok {
			return record, true
		}
	}
	record, ok := m.records[key]
	return record, ok
}

// GetClaimant returns the recipient recorded for the claim key.
func (m *MockClaimStore) GetClaimant(ctx context.Context, key common.Hash, dbTx pgx.Tx) (common.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.lookup(key, dbTx)
	if !ok {
		return common.Address{}, gerror.ErrStorageNotFound
	}
	return record.Recipient, nil
}

// GetClaimants returns the recipient for every requested claim key, in input
// order, with the zero address for keys without a record.
func (m *MockClaimStore) GetClaimants(ctx context.Context, keys []common.Hash, dbTx pgx.Tx) ([]common.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]common.Address, len(keys))
	for i, key := range keys {
		if record, ok := m.lookup(key, dbTx); ok {
			result[i] = record.Recipient
		}
	}
	return result, nil
}

// AddClaimRecord writes the settlement record of one output.
func (m *MockClaimStore) AddClaimRecord(ctx context.Context, record *ClaimRecord, dbTx pgx.Tx) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lookup(record.Key, dbTx); ok {
		return gerror.ErrAlreadyClaimed
	}
	if dbTx != nil && dbTx == m.openTx {
		m.pending[record.Key] = record
		return nil
	}
	m.records[record.Key] = record
	return nil
}
