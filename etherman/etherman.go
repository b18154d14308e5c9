// Package etherman is the EVM side of the claim service: it pays settled
// claims out of the pooled WCHI balance through the ERC-20 transfer of the
// token contract.
package etherman

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/xayanetwork/chi-claim-service/log"
)

// erc20ABI covers the subset of the WCHI token contract the claim service
// needs.
const erc20ABI = `[
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

// Client is the EVM token ledger client.
type Client struct {
	EtherClient *ethclient.Client
	auth        *bind.TransactOpts
	token       *bind.BoundContract
	tokenAddr   common.Address
}

// NewClient creates the client for the WCHI token at the given address,
// paying out of the keystore account configured in cfg.
func NewClient(ctx context.Context, cfg Config, tokenAddr common.Address) (*Client, error) {
	etherClient, err := ethclient.Dial(cfg.URL)
	if err != nil {
		log.Errorf("error connecting to %s: %+v", cfg.URL, err)
		return nil, err
	}

	auth, err := newAuthFromKeystore(ctx, etherClient, cfg.PrivateKeyPath, cfg.PrivateKeyPassword)
	if err != nil {
		return nil, err
	}

	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, err
	}

	return &Client{
		EtherClient: etherClient,
		auth:        auth,
		token:       bind.NewBoundContract(tokenAddr, parsed, etherClient, etherClient, etherClient),
		tokenAddr:   tokenAddr,
	}, nil
}

func newAuthFromKeystore(ctx context.Context, client *ethclient.Client, path, password string) (*bind.TransactOpts, error) {
	keystoreEncrypted, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	key, err := keystore.DecryptKey(keystoreEncrypted, password)
	if err != nil {
		return nil, err
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	return bind.NewKeyedTransactorWithChainID(key.PrivateKey, chainID)
}

// PoolAccount returns the account holding the pooled WCHI balance.
func (c *Client) PoolAccount() common.Address {
	return c.auth.From
}

// PoolBalance returns the WCHI balance left in the pool.
func (c *Client) PoolBalance(ctx context.Context) (*big.Int, error) {
	var results []interface{}
	err := c.token.Call(&bind.CallOpts{Context: ctx}, &results, "balanceOf", c.auth.From)
	if err != nil {
		return nil, err
	}
	balance, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result %T", results[0])
	}
	return balance, nil
}

// Transfer moves amount WCHI from the pool account to the recipient and
// waits for the transaction to be mined. A reverted transaction is reported
// as an error, leaving the claim settlement to be rolled back.
func (c *Client) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	auth := *c.auth
	auth.Context = ctx

	tx, err := c.token.Transact(&auth, "transfer", to, amount)
	if err != nil {
		return err
	}
	log.Debugf("sent payout tx %s: %s WCHI units to %s", tx.Hash(), amount, to)

	receipt, err := bind.WaitMined(ctx, c.EtherClient, tx)
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("payout tx %s reverted", tx.Hash())
	}
	return nil
}
