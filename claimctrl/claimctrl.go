// Package claimctrl routes each claim through exactly one of the two
// authorization paths (administrator approval or self-service signature),
// matching the output's pubkeyhash flag, and forbids the wrong path. It is
// stateless across claims; all durable state lives in the claim registry.
package claimctrl

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xayanetwork/chi-claim-service/authbridge"
	"github.com/xayanetwork/chi-claim-service/claimregistry"
	"github.com/xayanetwork/chi-claim-service/claimtree"
	"github.com/xayanetwork/chi-claim-service/gerror"
	"github.com/xayanetwork/chi-claim-service/log"
)

// ClaimController is the single entry point for claim settlement.
type ClaimController struct {
	registry *claimregistry.Registry
	domain   authbridge.Domain

	// admin is the only account allowed to settle non-standard outputs.
	// It is transferable by the current holder only.
	mu    sync.RWMutex
	admin common.Address
}

// NewClaimController creates the controller with the designated
// administrator account.
func NewClaimController(admin common.Address, registry *claimregistry.Registry, domain authbridge.Domain) (*ClaimController, error) {
	if admin == (common.Address{}) {
		return nil, fmt.Errorf("%w: administrator account is unset", gerror.ErrInvalidRecipient)
	}
	return &ClaimController{
		registry: registry,
		domain:   domain,
		admin:    admin,
	}, nil
}

// Admin returns the current administrator account.
func (c *ClaimController) Admin() common.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.admin
}

// TransferAdmin hands the administrator role over to a new account. Only the
// current holder may do so.
func (c *ClaimController) TransferAdmin(caller, newAdmin common.Address) error {
	if newAdmin == (common.Address{}) {
		return fmt.Errorf("%w: new administrator account is unset", gerror.ErrInvalidRecipient)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if caller != c.admin {
		return gerror.ErrUnauthorized
	}
	log.Infof("administrator transferred from %s to %s", c.admin, newAdmin)
	c.admin = newAdmin
	return nil
}

// DomainSeparator returns the EIP-712 domain separator claim signatures are
// bound to.
func (c *ClaimController) DomainSeparator() common.Hash {
	return c.domain.Separator()
}

// SubmitAdminClaim settles a non-standard output on behalf of its holder.
// Restricted to the administrator; fails with WrongClaimProcess for outputs
// that carry a pubkeyhash and therefore must go through the signature path.
func (c *ClaimController) SubmitAdminClaim(ctx context.Context, caller common.Address, o *claimtree.Output, proof [][claimtree.KeyLen]byte, recipient common.Address) error {
	if caller != c.Admin() {
		return gerror.ErrUnauthorized
	}
	if !o.NonStandard() {
		return fmt.Errorf("%w: output %s:%d has a pubkeyhash and must be claimed with a signature", gerror.ErrWrongClaimProcess, o.Txid, o.Vout)
	}
	return c.registry.ExecuteClaim(ctx, o, proof, recipient)
}

// SubmitSignedClaim settles an output for whoever proves control of its
// pubkeyhash. Open to any caller; fails with WrongClaimProcess for
// non-standard outputs, which only the administrator can settle.
func (c *ClaimController) SubmitSignedClaim(ctx context.Context, o *claimtree.Output, proof [][claimtree.KeyLen]byte, recipient common.Address, x, y *big.Int, signature []byte) error {
	if o.NonStandard() {
		return fmt.Errorf("%w: output %s:%d is non-standard and requires administrator approval", gerror.ErrWrongClaimProcess, o.Txid, o.Vout)
	}
	if err := c.domain.VerifyOutputClaim(o, recipient, x, y, signature); err != nil {
		return err
	}
	return c.registry.ExecuteClaim(ctx, o, proof, recipient)
}
