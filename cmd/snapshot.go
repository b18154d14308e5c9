package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/xayanetwork/chi-claim-service/authbridge"
	"github.com/xayanetwork/chi-claim-service/claimtree"
)

func loadSnapshot(ctx *cli.Context) (*claimtree.UtxoSet, error) {
	path := ctx.String(flagSnapshot)
	var inp io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return claimtree.LoadUtxoSet(f)
	}
	return claimtree.LoadUtxoSet(inp)
}

func parseTxid(ctx *cli.Context) (common.Hash, error) {
	txidBytes := common.FromHex(ctx.String(flagTxid))
	if len(txidBytes) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid txid %q", ctx.String(flagTxid))
	}
	return common.BytesToHash(txidBytes), nil
}

func computeRoot(ctx *cli.Context) error {
	utxos, err := loadSnapshot(ctx)
	if err != nil {
		return err
	}

	root := utxos.Tree.Root()
	fmt.Printf("Number of outputs: %d\n", len(utxos.Outputs))
	fmt.Printf("Total amount: %s CHI\n", claimtree.FormatChi(utxos.Total))
	fmt.Printf("Merkle tree depth: %d levels\n", utxos.Tree.Depth())
	fmt.Printf("Merkle root hash: %s\n", hex.EncodeToString(root[:]))
	return nil
}

func proveOutput(ctx *cli.Context) error {
	utxos, err := loadSnapshot(ctx)
	if err != nil {
		return err
	}
	txid, err := parseTxid(ctx)
	if err != nil {
		return err
	}

	ind := utxos.LookupOutput(txid, ctx.Uint64(flagVout))
	if ind < 0 {
		return fmt.Errorf("unknown output")
	}

	o := utxos.Outputs[ind]
	fmt.Printf("Output data:\n")
	fmt.Printf("  amount: %s CHI\n", claimtree.FormatChi(o.Amount))
	fmt.Printf("  address: %s\n", o.Address)
	fmt.Printf("  pubkeyhash: %s\n", hex.EncodeToString(o.PubKeyHash[:]))

	proof, err := utxos.Tree.Proof(ind)
	if err != nil {
		return err
	}
	fmt.Printf("\nProof: [\n")
	for _, p := range proof {
		fmt.Printf("  %s,\n", hex.EncodeToString(p[:]))
	}
	fmt.Printf("]\n")
	return nil
}

func lookupAddress(ctx *cli.Context) error {
	utxos, err := loadSnapshot(ctx)
	if err != nil {
		return err
	}

	inds := utxos.LookupAddress(ctx.String(flagAddress))
	if len(inds) == 0 {
		return fmt.Errorf("no outputs for this address")
	}

	for _, ind := range inds {
		o := utxos.Outputs[ind]
		fmt.Printf("%s:%d  %s CHI\n", o.Txid, o.Vout, claimtree.FormatChi(o.Amount))
	}
	return nil
}

func topAddresses(ctx *cli.Context) error {
	utxos, err := loadSnapshot(ctx)
	if err != nil {
		return err
	}

	for _, b := range utxos.TopAddresses(ctx.Int(flagCount)) {
		fmt.Printf("%s  %s CHI  (%d outputs)\n", b.Address, claimtree.FormatChi(b.Amount), b.Outputs)
	}
	return nil
}

func signClaim(ctx *cli.Context) error {
	utxos, err := loadSnapshot(ctx)
	if err != nil {
		return err
	}
	txid, err := parseTxid(ctx)
	if err != nil {
		return err
	}

	ind := utxos.LookupOutput(txid, ctx.Uint64(flagVout))
	if ind < 0 {
		return fmt.Errorf("unknown output")
	}
	o := utxos.Outputs[ind]

	key, err := authbridge.DecodeWIF(ctx.String(flagWIF))
	if err != nil {
		return err
	}
	if !authbridge.MatchesPubKeyHash(key.PublicKey.X, key.PublicKey.Y, o.PubKeyHash) {
		return fmt.Errorf("private key does not match output pubkeyhash")
	}

	if !common.IsHexAddress(ctx.String(flagRecipient)) {
		return fmt.Errorf("invalid recipient %q", ctx.String(flagRecipient))
	}
	if !common.IsHexAddress(ctx.String(flagContract)) {
		return fmt.Errorf("invalid contract address %q", ctx.String(flagContract))
	}

	domain := authbridge.Domain{
		ChainID:           new(big.Int).SetUint64(ctx.Uint64(flagChainID)),
		VerifyingContract: common.HexToAddress(ctx.String(flagContract)),
	}
	x, y, signature, err := domain.SignClaim(key, o.Txid, o.Vout, common.HexToAddress(ctx.String(flagRecipient)))
	if err != nil {
		return err
	}

	fmt.Printf("x = %064x\n", x)
	fmt.Printf("y = %064x\n", y)
	fmt.Printf("Signature: %s\n", hex.EncodeToString(signature))
	return nil
}
