package claimregistry

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MockTokenLedger is an in-memory token ledger double: a single pooled
// balance debited on transfer, failing when the pool runs out.
type MockTokenLedger struct {
	mu       sync.Mutex
	pool     *big.Int
	balances map[common.Address]*big.Int
}

// NewMockTokenLedger creates the ledger with the given pooled balance.
func NewMockTokenLedger(pool *big.Int) *MockTokenLedger {
	return &MockTokenLedger{
		pool:     new(big.Int).Set(pool),
		balances: make(map[common.Address]*big.Int),
	}
}

// Transfer debits the pool and credits the recipient.
func (m *MockTokenLedger) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pool.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient pooled funds: have %s, need %s", m.pool, amount)
	}
	m.pool.Sub(m.pool, amount)
	balance, ok := m.balances[to]
	if !ok {
		balance = new(big.Int)
		m.balances[to] = balance
	}
	balance.Add(balance, amount)
	return nil
}

// PoolBalance returns the remaining pooled balance.
func (m *MockTokenLedger) PoolBalance() *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return new(big.Int).Set(m.pool)
}

// BalanceOf returns the balance credited to the account so far.
func (m *MockTokenLedger) BalanceOf(account common.Address) *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance, ok := m.balances[account]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(balance)
}
