package server

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xayanetwork/chi-claim-service/claimtree"
)

// outputModel is the wire form of a snapshot output.
type outputModel struct {
	Txid       string `json:"txid"`
	Vout       uint64 `json:"vout"`
	Amount     string `json:"amount"`
	PubKeyHash string `json:"pubKeyHash"`
}

// outputIDModel identifies an output in status queries.
type outputIDModel struct {
	Txid string `json:"txid"`
	Vout uint64 `json:"vout"`
}

type checkClaimRequest struct {
	Output outputModel `json:"output"`
	Proof  []string    `json:"proof"`
}

type adminClaimRequest struct {
	Output    outputModel `json:"output"`
	Proof     []string    `json:"proof"`
	Recipient string      `json:"recipient"`
}

type signedClaimRequest struct {
	Output    outputModel `json:"output"`
	Proof     []string    `json:"proof"`
	Recipient string      `json:"recipient"`
	PubKeyX   string      `json:"pubKeyX"`
	PubKeyY   string      `json:"pubKeyY"`
	Signature string      `json:"signature"`
}

type claimStatusRequest struct {
	Outputs []outputIDModel `json:"outputs"`
}

type claimStatusResponse struct {
	// Claimants holds one entry per requested output, in request order.
	// The zero address marks an unclaimed output.
	Claimants []string `json:"claimants"`
}

type leafHashResponse struct {
	LeafHash string `json:"leafHash"`
}

type domainSeparatorResponse struct {
	DomainSeparator string `json:"domainSeparator"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type statusOKResponse struct {
	Code int `json:"code"`
}

func decodeHash(value, name string) (common.Hash, error) {
	b := common.FromHex(value)
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid %s %q", name, value)
	}
	return common.BytesToHash(b), nil
}

func decodeAddress(value, name string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid %s %q", name, value)
	}
	return common.HexToAddress(value), nil
}

func decodeBigInt(value, name string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimPrefix(value, "0x"), numberBase(value))
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s %q", name, value)
	}
	return v, nil
}

func numberBase(value string) int {
	if strings.HasPrefix(value, "0x") {
		return 16
	}
	return 10
}

func (m *outputModel) toOutput() (*claimtree.Output, error) {
	txid, err := decodeHash(m.Txid, "txid")
	if err != nil {
		return nil, err
	}
	amount, err := decodeBigInt(m.Amount, "amount")
	if err != nil {
		return nil, err
	}
	pkh := common.FromHex(m.PubKeyHash)
	if len(pkh) != claimtree.PubKeyHashLen {
		return nil, fmt.Errorf("invalid pubKeyHash %q", m.PubKeyHash)
	}
	o := &claimtree.Output{
		Txid:   txid,
		Vout:   m.Vout,
		Amount: amount,
	}
	copy(o.PubKeyHash[:], pkh)
	return o, nil
}

func decodeProof(proof []string) ([][claimtree.KeyLen]byte, error) {
	decoded := make([][claimtree.KeyLen]byte, len(proof))
	for i, node := range proof {
		h, err := decodeHash(node, "proof node")
		if err != nil {
			return nil, err
		}
		decoded[i] = [claimtree.KeyLen]byte(h)
	}
	return decoded, nil
}

func decodeSignature(value string) ([]byte, error) {
	sig, err := hex.DecodeString(strings.TrimPrefix(value, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid signature %q", value)
	}
	return sig, nil
}
