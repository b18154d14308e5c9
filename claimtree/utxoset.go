package claimtree

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/big"
	"sort"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/ethereum/go-ethereum/common"
)

// Parameters of legacy Xaya addresses.
const (
	// AddressVersion is the base58check version byte of p2pkh addresses
	AddressVersion = 0x1c
	// AddressHRP is the bech32 human-readable part of p2wpkh addresses
	AddressHRP = "chi"
)

// UtxoSet is the processed UTXO snapshot dump. Name outputs are dropped
// during processing, address outputs (p2pk, p2pkh, p2wpkh) get their raw
// pubkeyhash decoded, and every other output is marked non-standard with an
// all-zero pubkeyhash.
type UtxoSet struct {
	// Outputs in dump order; the order defines the leaf indices.
	Outputs []*Output
	// Tree is the snapshot Merkle tree over Outputs.
	Tree *SnapshotTree
	// Total balance over all outputs, in 1e-8 CHI units.
	Total *big.Int

	indexTxid    map[common.Hash]int
	indexAddress map[string][]int
}

// LoadUtxoSet reads a UTXO dump in CSV format (as created by
// bitcoin-utxo-dump) and builds the processed snapshot, including the Merkle
// tree and the lookup indices.
func LoadUtxoSet(inp io.Reader) (*UtxoSet, error) {
	reader := csv.NewReader(inp)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading the CSV header failed: %w", err)
	}
	cols := make(map[string]int)
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{"txid", "vout", "amount", "type", "address"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q in the UTXO dump", required)
		}
	}

	set := &UtxoSet{Total: new(big.Int)}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		// Name outputs are not part of the claim.
		if row[cols["type"]] == "name" {
			continue
		}

		o, err := processRow(row, cols)
		if err != nil {
			return nil, err
		}
		set.Outputs = append(set.Outputs, o)
		set.Total.Add(set.Total, o.Amount)
	}

	set.Tree = NewSnapshotTree(set.Outputs)
	set.buildIndices()
	return set, nil
}

func processRow(row []string, cols map[string]int) (*Output, error) {
	txidBytes := common.FromHex(row[cols["txid"]])
	if len(txidBytes) != KeyLen {
		return nil, fmt.Errorf("invalid txid %q in the UTXO dump", row[cols["txid"]])
	}

	var vout, amount big.Int
	if _, ok := vout.SetString(row[cols["vout"]], 10); !ok || !vout.IsUint64() {
		return nil, fmt.Errorf("invalid vout %q in the UTXO dump", row[cols["vout"]])
	}
	if _, ok := amount.SetString(row[cols["amount"]], 10); !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q in the UTXO dump", row[cols["amount"]])
	}

	o := &Output{
		Txid:   common.BytesToHash(txidBytes),
		Vout:   vout.Uint64(),
		Amount: &amount,
	}

	switch row[cols["type"]] {
	case "p2pk", "p2pkh":
		pkh, err := decodeP2PKHAddress(row[cols["address"]])
		if err != nil {
			return nil, err
		}
		o.PubKeyHash = pkh
		o.Address = row[cols["address"]]
	case "p2wpkh":
		pkh, err := decodeP2WPKHAddress(row[cols["address"]])
		if err != nil {
			return nil, err
		}
		o.PubKeyHash = pkh
		o.Address = row[cols["address"]]
	default:
		// Non-standard output (p2sh, p2wsh, ...): zero pubkeyhash,
		// claimable only through the administrator path.
	}
	return o, nil
}

// decodeP2PKHAddress decodes a base58check p2pkh address into its pubkeyhash.
func decodeP2PKHAddress(addr string) ([PubKeyHashLen]byte, error) {
	var pkh [PubKeyHashLen]byte
	decoded, version, err := base58.CheckDecode(addr)
	if err != nil {
		return pkh, fmt.Errorf("decoding address %q failed: %w", addr, err)
	}
	if version != AddressVersion {
		return pkh, fmt.Errorf("address %q has unexpected version %d", addr, version)
	}
	if len(decoded) != PubKeyHashLen {
		return pkh, fmt.Errorf("address %q has unexpected payload length %d", addr, len(decoded))
	}
	copy(pkh[:], decoded)
	return pkh, nil
}

// decodeP2WPKHAddress decodes a bech32 p2wpkh address into its pubkeyhash.
func decodeP2WPKHAddress(addr string) ([PubKeyHashLen]byte, error) {
	var pkh [PubKeyHashLen]byte
	hrp, data, err := bech32.Decode(addr)
	if err != nil {
		return pkh, fmt.Errorf("decoding address %q failed: %w", addr, err)
	}
	if hrp != AddressHRP {
		return pkh, fmt.Errorf("address %q has unexpected prefix %q", addr, hrp)
	}
	if len(data) == 0 || data[0] != 0 {
		return pkh, fmt.Errorf("address %q is not a version-0 witness program", addr)
	}
	program, err := bech32.ConvertBits(data[1:], 5, 8, false) //nolint:gomnd
	if err != nil {
		return pkh, fmt.Errorf("decoding address %q failed: %w", addr, err)
	}
	if len(program) != PubKeyHashLen {
		return pkh, fmt.Errorf("address %q has unexpected program length %d", addr, len(program))
	}
	copy(pkh[:], program)
	return pkh, nil
}

func (s *UtxoSet) buildIndices() {
	s.indexTxid = make(map[common.Hash]int)
	s.indexAddress = make(map[string][]int)

	lastTxid := common.Hash{}
	for ind, o := range s.Outputs {
		if ind == 0 || o.Txid != lastTxid {
			if _, seen := s.indexTxid[o.Txid]; !seen {
				s.indexTxid[o.Txid] = ind
			}
			lastTxid = o.Txid
		}
		if o.Address != "" {
			s.indexAddress[o.Address] = append(s.indexAddress[o.Address], ind)
		}
	}
}

// LookupOutput returns the index of the txid:vout output within the snapshot,
// or -1 if it is not part of it.
func (s *UtxoSet) LookupOutput(txid common.Hash, vout uint64) int {
	ind, ok := s.indexTxid[txid]
	if !ok {
		return -1
	}
	for ; ind < len(s.Outputs) && s.Outputs[ind].Txid == txid; ind++ {
		if s.Outputs[ind].Vout == vout {
			return ind
		}
	}
	return -1
}

// LookupAddress returns the indices of all outputs held by the given legacy
// address.
func (s *UtxoSet) LookupAddress(addr string) []int {
	return s.indexAddress[addr]
}

// AddressBalance is the aggregated balance of one legacy address.
type AddressBalance struct {
	Address string
	Amount  *big.Int
	Outputs int
}

// TopAddresses aggregates balances per address and returns the n largest
// holders in descending order.
func (s *UtxoSet) TopAddresses(n int) []AddressBalance {
	balances := make([]AddressBalance, 0, len(s.indexAddress))
	for addr, inds := range s.indexAddress {
		total := new(big.Int)
		for _, ind := range inds {
			total.Add(total, s.Outputs[ind].Amount)
		}
		balances = append(balances, AddressBalance{Address: addr, Amount: total, Outputs: len(inds)})
	}
	sort.Slice(balances, func(i, j int) bool {
		if c := balances[i].Amount.Cmp(balances[j].Amount); c != 0 {
			return c > 0
		}
		return balances[i].Address < balances[j].Address
	})
	if n > 0 && n < len(balances) {
		balances = balances[:n]
	}
	return balances
}
