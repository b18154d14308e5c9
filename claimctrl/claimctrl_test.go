package claimctrl

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xayanetwork/chi-claim-service/authbridge"
	"github.com/xayanetwork/chi-claim-service/claimregistry"
	"github.com/xayanetwork/chi-claim-service/claimtree"
	"github.com/xayanetwork/chi-claim-service/gerror"
)

var (
	adminAddr = common.HexToAddress("0xaaaaAAAAAAAaaaaaAAaAAAaaAAAAaaaAaaaaAAAa")
	userAddr  = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

type controllerFixture struct {
	keys    []*ecdsa.PrivateKey
	outputs []*claimtree.Output
	tree    *claimtree.SnapshotTree
	ledger  *claimregistry.MockTokenLedger
	domain  authbridge.Domain
	ctrl    *ClaimController
}

// newControllerFixture builds a snapshot of n outputs with amounts 1000,
// 2000, ... where output 0 is non-standard and the rest are held by fresh
// keys.
func newControllerFixture(t *testing.T, n int) *controllerFixture {
	t.Helper()

	keys := make([]*ecdsa.PrivateKey, n)
	outputs := make([]*claimtree.Output, n)
	for i := range outputs {
		outputs[i] = &claimtree.Output{
			Txid:   common.BytesToHash([]byte{byte(i + 1)}),
			Vout:   uint64(i),
			Amount: big.NewInt(int64(1000 * (i + 1))),
		}
		if i > 0 {
			key, err := crypto.GenerateKey()
			require.NoError(t, err)
			keys[i] = key
			outputs[i].PubKeyHash = authbridge.HashIdentity(key.PublicKey.X, key.PublicKey.Y, true)
		}
	}

	tree := claimtree.NewSnapshotTree(outputs)
	ledger := claimregistry.NewMockTokenLedger(big.NewInt(1_000_000))
	registry := claimregistry.NewRegistry(common.Hash(tree.Root()), claimregistry.NewMockClaimStore(), ledger)
	domain := authbridge.Domain{
		ChainID:           big.NewInt(1337),
		VerifyingContract: common.HexToAddress("0x00000000000000000000000000000000DeaDBeef"),
	}

	ctrl, err := NewClaimController(adminAddr, registry, domain)
	require.NoError(t, err)

	return &controllerFixture{
		keys:    keys,
		outputs: outputs,
		tree:    tree,
		ledger:  ledger,
		domain:  domain,
		ctrl:    ctrl,
	}
}

func (f *controllerFixture) proof(t *testing.T, i int) [][claimtree.KeyLen]byte {
	t.Helper()
	proof, err := f.tree.Proof(i)
	require.NoError(t, err)
	return proof
}

func (f *controllerFixture) signedClaim(t *testing.T, ctx context.Context, i int, recipient common.Address) error {
	t.Helper()
	x, y, sig, err := f.domain.SignClaim(f.keys[i], f.outputs[i].Txid, f.outputs[i].Vout, recipient)
	require.NoError(t, err)
	return f.ctrl.SubmitSignedClaim(ctx, f.outputs[i], f.proof(t, i), recipient, x, y, sig)
}

func TestNewClaimControllerRejectsZeroAdmin(t *testing.T) {
	_, err := NewClaimController(common.Address{}, nil, authbridge.Domain{})
	assert.Error(t, err)
}

func TestClaimPathExclusivity(t *testing.T) {
	ctx := context.Background()
	f := newControllerFixture(t, 2)

	t.Run("admin path rejects standard output", func(t *testing.T) {
		err := f.ctrl.SubmitAdminClaim(ctx, adminAddr, f.outputs[1], f.proof(t, 1), userAddr)
		assert.ErrorIs(t, err, gerror.ErrWrongClaimProcess)
	})

	t.Run("signed path rejects non-standard output", func(t *testing.T) {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		x, y, sig, err := f.domain.SignClaim(key, f.outputs[0].Txid, f.outputs[0].Vout, userAddr)
		require.NoError(t, err)
		err = f.ctrl.SubmitSignedClaim(ctx, f.outputs[0], f.proof(t, 0), userAddr, x, y, sig)
		assert.ErrorIs(t, err, gerror.ErrWrongClaimProcess)
	})

	// Neither failed attempt settled anything.
	assert.Equal(t, big.NewInt(0), f.ledger.BalanceOf(userAddr))
}

func TestSubmitAdminClaimAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newControllerFixture(t, 2)

	err := f.ctrl.SubmitAdminClaim(ctx, userAddr, f.outputs[0], f.proof(t, 0), userAddr)
	assert.ErrorIs(t, err, gerror.ErrUnauthorized)

	require.NoError(t, f.ctrl.SubmitAdminClaim(ctx, adminAddr, f.outputs[0], f.proof(t, 0), userAddr))
	assert.Equal(t, f.outputs[0].Amount, f.ledger.BalanceOf(userAddr))
}

func TestSubmitSignedClaimRejectsWrongKey(t *testing.T) {
	ctx := context.Background()
	f := newControllerFixture(t, 2)

	wrongKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	x, y, sig, err := f.domain.SignClaim(wrongKey, f.outputs[1].Txid, f.outputs[1].Vout, userAddr)
	require.NoError(t, err)

	err = f.ctrl.SubmitSignedClaim(ctx, f.outputs[1], f.proof(t, 1), userAddr, x, y, sig)
	assert.ErrorIs(t, err, gerror.ErrInvalidClaimPubKey)
	assert.Equal(t, big.NewInt(0), f.ledger.BalanceOf(userAddr))
}

func TestTransferAdmin(t *testing.T) {
	ctx := context.Background()
	f := newControllerFixture(t, 2)
	newAdmin := common.HexToAddress("0xbbbbBBBBbbbbBbbbbBBbBBBbbBBBBbbbBbbbBBBb")

	assert.Equal(t, adminAddr, f.ctrl.Admin())

	err := f.ctrl.TransferAdmin(userAddr, newAdmin)
	assert.ErrorIs(t, err, gerror.ErrUnauthorized)

	err = f.ctrl.TransferAdmin(adminAddr, common.Address{})
	assert.ErrorIs(t, err, gerror.ErrInvalidRecipient)

	require.NoError(t, f.ctrl.TransferAdmin(adminAddr, newAdmin))
	assert.Equal(t, newAdmin, f.ctrl.Admin())

	// The old administrator lost the role.
	err = f.ctrl.SubmitAdminClaim(ctx, adminAddr, f.outputs[0], f.proof(t, 0), userAddr)
	assert.ErrorIs(t, err, gerror.ErrUnauthorized)
	require.NoError(t, f.ctrl.SubmitAdminClaim(ctx, newAdmin, f.outputs[0], f.proof(t, 0), userAddr))
}

func TestDomainSeparator(t *testing.T) {
	f := newControllerFixture(t, 2)
	assert.Equal(t, f.domain.Separator(), f.ctrl.DomainSeparator())
}

// TestFullSettlement walks a snapshot of four outputs through both claim
// paths until every output is settled exactly once.
func TestFullSettlement(t *testing.T) {
	ctx := context.Background()
	f := newControllerFixture(t, 4)

	recipients := []common.Address{
		common.HexToAddress("0x1000000000000000000000000000000000000001"),
		common.HexToAddress("0x1000000000000000000000000000000000000002"),
		common.HexToAddress("0x1000000000000000000000000000000000000003"),
		common.HexToAddress("0x1000000000000000000000000000000000000004"),
	}

	// The non-standard output goes through the administrator.
	require.NoError(t, f.ctrl.SubmitAdminClaim(ctx, adminAddr, f.outputs[0], f.proof(t, 0), recipients[0]))

	// The holders claim the remaining outputs themselves.
	for i := 1; i < 4; i++ {
		require.NoError(t, f.signedClaim(t, ctx, i, recipients[i]))
	}

	for i, recipient := range recipients {
		assert.Equal(t, f.outputs[i].Amount, f.ledger.BalanceOf(recipient), "recipient %d", i)
	}
	// 1000 + 2000 + 3000 + 4000 paid out of the pool.
	assert.Equal(t, big.NewInt(990_000), f.ledger.PoolBalance())

	// Every replay fails, regardless of path or recipient.
	err := f.ctrl.SubmitAdminClaim(ctx, adminAddr, f.outputs[0], f.proof(t, 0), recipients[1])
	assert.ErrorIs(t, err, gerror.ErrAlreadyClaimed)

	err = f.signedClaim(t, ctx, 2, recipients[2])
	assert.ErrorIs(t, err, gerror.ErrAlreadyClaimed)

	var alreadyClaimed *gerror.AlreadyClaimedError
	require.ErrorAs(t, err, &alreadyClaimed)
	assert.Equal(t, recipients[2], alreadyClaimed.Claimant)

	assert.Equal(t, big.NewInt(990_000), f.ledger.PoolBalance())
}
