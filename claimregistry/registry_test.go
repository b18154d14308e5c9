package claimregistry

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xayanetwork/chi-claim-service/claimtree"
	"github.com/xayanetwork/chi-claim-service/gerror"
)

func snapshotOutputs(n int) []*claimtree.Output {
	outputs := make([]*claimtree.Output, n)
	for i := range outputs {
		outputs[i] = &claimtree.Output{
			Txid:   common.BytesToHash([]byte{byte(i + 1)}),
			Vout:   uint64(i),
			Amount: big.NewInt(int64(1000 * (i + 1))),
		}
		outputs[i].PubKeyHash[0] = byte(i + 1)
	}
	return outputs
}

type registryFixture struct {
	outputs []*claimtree.Output
	tree    *claimtree.SnapshotTree
	store   *MockClaimStore
	ledger  *MockTokenLedger
	reg     *Registry
}

func newRegistryFixture(t *testing.T, n int, pool int64) *registryFixture {
	t.Helper()
	outputs := snapshotOutputs(n)
	tree := claimtree.NewSnapshotTree(outputs)
	store := NewMockClaimStore()
	ledger := NewMockTokenLedger(big.NewInt(pool))
	return &registryFixture{
		outputs: outputs,
		tree:    tree,
		store:   store,
		ledger:  ledger,
		reg:     NewRegistry(common.Hash(tree.Root()), store, ledger),
	}
}

func (f *registryFixture) proof(t *testing.T, i int) [][claimtree.KeyLen]byte {
	t.Helper()
	proof, err := f.tree.Proof(i)
	require.NoError(t, err)
	return proof
}

func TestCheckClaim(t *testing.T) {
	ctx := context.Background()
	f := newRegistryFixture(t, 4, 1_000_000)

	assert.Equal(t, common.Hash(f.tree.Root()), f.reg.Root())
	assert.Equal(t, common.Hash(claimtree.HashOutput(f.outputs[0])), f.reg.LeafHash(f.outputs[0]))

	require.NoError(t, f.reg.CheckClaim(ctx, f.outputs[0], f.proof(t, 0)))

	t.Run("wrong proof", func(t *testing.T) {
		err := f.reg.CheckClaim(ctx, f.outputs[0], f.proof(t, 1))
		assert.ErrorIs(t, err, gerror.ErrProofInvalid)
	})

	t.Run("mutated amount", func(t *testing.T) {
		mutated := *f.outputs[0]
		mutated.Amount = big.NewInt(999999)
		err := f.reg.CheckClaim(ctx, &mutated, f.proof(t, 0))
		assert.ErrorIs(t, err, gerror.ErrProofInvalid)
	})

	t.Run("unknown output", func(t *testing.T) {
		unknown := &claimtree.Output{
			Txid:   common.HexToHash("0xff"),
			Vout:   0,
			Amount: big.NewInt(1),
		}
		err := f.reg.CheckClaim(ctx, unknown, f.proof(t, 0))
		assert.ErrorIs(t, err, gerror.ErrProofInvalid)
	})
}

func TestExecuteClaim(t *testing.T) {
	ctx := context.Background()
	f := newRegistryFixture(t, 4, 1_000_000)
	recipient := common.HexToAddress("0x1111111111111111111111111111111111111111")
	other := common.HexToAddress("0x2222222222222222222222222222222222222222")

	require.NoError(t, f.reg.ExecuteClaim(ctx, f.outputs[0], f.proof(t, 0), recipient))
	assert.Equal(t, f.outputs[0].Amount, f.ledger.BalanceOf(recipient))

	t.Run("second claim fails and keeps the first recipient", func(t *testing.T) {
		err := f.reg.ExecuteClaim(ctx, f.outputs[0], f.proof(t, 0), other)
		assert.ErrorIs(t, err, gerror.ErrAlreadyClaimed)

		var alreadyClaimed *gerror.AlreadyClaimedError
		require.ErrorAs(t, err, &alreadyClaimed)
		assert.Equal(t, recipient, alreadyClaimed.Claimant)
		assert.Equal(t, f.outputs[0].Txid, alreadyClaimed.Txid)

		assert.Equal(t, big.NewInt(0), f.ledger.BalanceOf(other))
	})

	t.Run("check reports claimed", func(t *testing.T) {
		err := f.reg.CheckClaim(ctx, f.outputs[0], f.proof(t, 0))
		assert.ErrorIs(t, err, gerror.ErrAlreadyClaimed)
	})

	t.Run("zero recipient", func(t *testing.T) {
		err := f.reg.ExecuteClaim(ctx, f.outputs[1], f.proof(t, 1), common.Address{})
		assert.ErrorIs(t, err, gerror.ErrInvalidRecipient)
	})

	t.Run("invalid proof leaves no record", func(t *testing.T) {
		err := f.reg.ExecuteClaim(ctx, f.outputs[1], f.proof(t, 2), recipient)
		assert.ErrorIs(t, err, gerror.ErrProofInvalid)
		assert.NoError(t, f.reg.CheckClaim(ctx, f.outputs[1], f.proof(t, 1)))
	})
}

func TestExecuteClaimTransferFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	// The pool covers none of the outputs.
	f := newRegistryFixture(t, 2, 10)
	recipient := common.HexToAddress("0x1111111111111111111111111111111111111111")

	err := f.reg.ExecuteClaim(ctx, f.outputs[0], f.proof(t, 0), recipient)
	assert.ErrorIs(t, err, gerror.ErrTransferFailed)
	assert.Equal(t, big.NewInt(0), f.ledger.BalanceOf(recipient))

	// The record was rolled back, so the output stays claimable and
	// settles once the pool is refilled.
	require.NoError(t, f.reg.CheckClaim(ctx, f.outputs[0], f.proof(t, 0)))

	f.ledger = NewMockTokenLedger(big.NewInt(1_000_000))
	f.reg = NewRegistry(f.reg.Root(), f.store, f.ledger)
	require.NoError(t, f.reg.ExecuteClaim(ctx, f.outputs[0], f.proof(t, 0), recipient))
	assert.Equal(t, f.outputs[0].Amount, f.ledger.BalanceOf(recipient))
}

func TestBatchCheckClaimed(t *testing.T) {
	ctx := context.Background()
	f := newRegistryFixture(t, 4, 1_000_000)
	recipient1 := common.HexToAddress("0x1111111111111111111111111111111111111111")
	recipient2 := common.HexToAddress("0x2222222222222222222222222222222222222222")

	require.NoError(t, f.reg.ExecuteClaim(ctx, f.outputs[0], f.proof(t, 0), recipient1))
	require.NoError(t, f.reg.ExecuteClaim(ctx, f.outputs[2], f.proof(t, 2), recipient2))

	ids := []OutputID{
		{Txid: f.outputs[2].Txid, Vout: f.outputs[2].Vout},
		{Txid: f.outputs[1].Txid, Vout: f.outputs[1].Vout},
		{Txid: f.outputs[0].Txid, Vout: f.outputs[0].Vout},
		{Txid: common.HexToHash("0xff"), Vout: 9},
	}
	claimants, err := f.reg.BatchCheckClaimed(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{recipient2, {}, recipient1, {}}, claimants)

	empty, err := f.reg.BatchCheckClaimed(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
