package server

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xayanetwork/chi-claim-service/authbridge"
	"github.com/xayanetwork/chi-claim-service/claimctrl"
	"github.com/xayanetwork/chi-claim-service/claimregistry"
	"github.com/xayanetwork/chi-claim-service/claimtree"
)

const testAPIKey = "test-api-key"

var (
	testAdmin     = common.HexToAddress("0xaaaaAAAAAAAaaaaaAAaAAAaaAAAAaaaAaaaaAAAa")
	testRecipient = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

type apiFixture struct {
	keys    []*ecdsa.PrivateKey
	outputs []*claimtree.Output
	tree    *claimtree.SnapshotTree
	domain  authbridge.Domain
	server  *httptest.Server
}

// newAPIFixture spins up the API over a snapshot of n outputs, where output 0
// is non-standard and the rest are held by fresh keys.
func newAPIFixture(t *testing.T, n int) *apiFixture {
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
	registry := claimregistry.NewRegistry(
		common.Hash(tree.Root()),
		claimregistry.NewMockClaimStore(),
		claimregistry.NewMockTokenLedger(big.NewInt(1_000_000)),
	)
	domain := authbridge.Domain{
		ChainID:           big.NewInt(1337),
		VerifyingContract: common.HexToAddress("0x00000000000000000000000000000000DeaDBeef"),
	}
	controller, err := claimctrl.NewClaimController(testAdmin, registry, domain)
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(Config{AdminAPIKey: testAPIKey}, registry, controller))
	t.Cleanup(srv.Close)

	return &apiFixture{
		keys:    keys,
		outputs: outputs,
		tree:    tree,
		domain:  domain,
		server:  srv,
	}
}

func (f *apiFixture) outputModel(i int) outputModel {
	o := f.outputs[i]
	return outputModel{
		Txid:       o.Txid.Hex(),
		Vout:       o.Vout,
		Amount:     o.Amount.String(),
		PubKeyHash: hex.EncodeToString(o.PubKeyHash[:]),
	}
}

func (f *apiFixture) proofModel(t *testing.T, i int) []string {
	t.Helper()
	proof, err := f.tree.Proof(i)
	require.NoError(t, err)
	encoded := make([]string, len(proof))
	for j, node := range proof {
		encoded[j] = hex.EncodeToString(node[:])
	}
	return encoded
}

func (f *apiFixture) post(t *testing.T, path string, body interface{}, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, f.server.URL+path, bytes.NewReader(encoded))
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func (f *apiFixture) signedClaimRequest(t *testing.T, i int, recipient common.Address) signedClaimRequest {
	t.Helper()
	o := f.outputs[i]
	x, y, sig, err := f.domain.SignClaim(f.keys[i], o.Txid, o.Vout, recipient)
	require.NoError(t, err)
	return signedClaimRequest{
		Output:    f.outputModel(i),
		Proof:     f.proofModel(t, i),
		Recipient: recipient.Hex(),
		PubKeyX:   fmt.Sprintf("0x%064x", x),
		PubKeyY:   fmt.Sprintf("0x%064x", y),
		Signature: hex.EncodeToString(sig),
	}
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t, 2)
	resp, err := f.server.Client().Get(f.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDomainSeparatorEndpoint(t *testing.T) {
	f := newAPIFixture(t, 2)
	resp, err := f.server.Client().Get(f.server.URL + "/api/v1/domain-separator")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body domainSeparatorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, f.domain.Separator().Hex(), body.DomainSeparator)
}

func TestLeafHashEndpoint(t *testing.T) {
	f := newAPIFixture(t, 2)
	resp, raw := f.post(t, "/api/v1/leaf-hash", f.outputModel(1), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body leafHashResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, common.Hash(claimtree.HashOutput(f.outputs[1])).Hex(), body.LeafHash)
}

func TestCheckClaimEndpoint(t *testing.T) {
	f := newAPIFixture(t, 2)

	resp, _ := f.post(t, "/api/v1/claims/check", checkClaimRequest{
		Output: f.outputModel(1),
		Proof:  f.proofModel(t, 1),
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("wrong proof", func(t *testing.T) {
		resp, _ := f.post(t, "/api/v1/claims/check", checkClaimRequest{
			Output: f.outputModel(1),
			Proof:  f.proofModel(t, 0),
		}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("malformed txid", func(t *testing.T) {
		model := f.outputModel(1)
		model.Txid = "zz"
		resp, _ := f.post(t, "/api/v1/claims/check", checkClaimRequest{
			Output: model,
			Proof:  f.proofModel(t, 1),
		}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestSignedClaimEndpoint(t *testing.T) {
	f := newAPIFixture(t, 2)

	resp, _ := f.post(t, "/api/v1/claims/signed", f.signedClaimRequest(t, 1, testRecipient), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("replay conflicts", func(t *testing.T) {
		resp, raw := f.post(t, "/api/v1/claims/signed", f.signedClaimRequest(t, 1, testRecipient), nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		var body errorResponse
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.NotEmpty(t, body.Message)
	})

	t.Run("tampered recipient", func(t *testing.T) {
		f := newAPIFixture(t, 2)
		req := f.signedClaimRequest(t, 1, testRecipient)
		req.Recipient = common.HexToAddress("0x2222222222222222222222222222222222222222").Hex()
		resp, _ := f.post(t, "/api/v1/claims/signed", req, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("non-standard output", func(t *testing.T) {
		f := newAPIFixture(t, 2)
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		x, y, sig, err := f.domain.SignClaim(key, f.outputs[0].Txid, f.outputs[0].Vout, testRecipient)
		require.NoError(t, err)
		resp, _ := f.post(t, "/api/v1/claims/signed", signedClaimRequest{
			Output:    f.outputModel(0),
			Proof:     f.proofModel(t, 0),
			Recipient: testRecipient.Hex(),
			PubKeyX:   fmt.Sprintf("0x%064x", x),
			PubKeyY:   fmt.Sprintf("0x%064x", y),
			Signature: hex.EncodeToString(sig),
		}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAdminClaimEndpoint(t *testing.T) {
	request := func(f *apiFixture, t *testing.T) adminClaimRequest {
		return adminClaimRequest{
			Output:    f.outputModel(0),
			Proof:     f.proofModel(t, 0),
			Recipient: testRecipient.Hex(),
		}
	}

	t.Run("without API key", func(t *testing.T) {
		f := newAPIFixture(t, 2)
		resp, _ := f.post(t, "/api/v1/claims/admin", request(f, t), nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong API key", func(t *testing.T) {
		f := newAPIFixture(t, 2)
		resp, _ := f.post(t, "/api/v1/claims/admin", request(f, t), map[string]string{
			"Authorization": "Bearer wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("authorized", func(t *testing.T) {
		f := newAPIFixture(t, 2)
		resp, _ := f.post(t, "/api/v1/claims/admin", request(f, t), map[string]string{
			"Authorization": "Bearer " + testAPIKey,
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("standard output refused", func(t *testing.T) {
		f := newAPIFixture(t, 2)
		resp, _ := f.post(t, "/api/v1/claims/admin", adminClaimRequest{
			Output:    f.outputModel(1),
			Proof:     f.proofModel(t, 1),
			Recipient: testRecipient.Hex(),
		}, map[string]string{
			"Authorization": "Bearer " + testAPIKey,
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestClaimStatusEndpoint(t *testing.T) {
	f := newAPIFixture(t, 3)

	resp, _ := f.post(t, "/api/v1/claims/signed", f.signedClaimRequest(t, 2, testRecipient), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := f.post(t, "/api/v1/claims/status", claimStatusRequest{
		Outputs: []outputIDModel{
			{Txid: f.outputs[2].Txid.Hex(), Vout: f.outputs[2].Vout},
			{Txid: f.outputs[1].Txid.Hex(), Vout: f.outputs[1].Vout},
		},
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body claimStatusResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Len(t, body.Claimants, 2)
	assert.Equal(t, testRecipient.Hex(), body.Claimants[0])
	assert.Equal(t, common.Address{}.Hex(), body.Claimants[1])
}

func TestDecodeHelpers(t *testing.T) {
	t.Run("decodeBigInt", func(t *testing.T) {
		v, err := decodeBigInt("1000", "amount")
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(1000), v)

		v, err = decodeBigInt("0xff", "amount")
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(255), v)

		_, err = decodeBigInt("-5", "amount")
		assert.Error(t, err)
		_, err = decodeBigInt("abc", "amount")
		assert.Error(t, err)
	})

	t.Run("decodeProof", func(t *testing.T) {
		_, err := decodeProof([]string{"0x01"})
		assert.Error(t, err)

		proof, err := decodeProof([]string{common.Hash{0x42}.Hex()})
		require.NoError(t, err)
		require.Len(t, proof, 1)
		assert.Equal(t, byte(0x42), proof[0][0])
	})

	t.Run("decodeSignature", func(t *testing.T) {
		sig, err := decodeSignature("0x0102")
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2}, sig)

		_, err = decodeSignature("xyz")
		assert.Error(t, err)
	})
}
