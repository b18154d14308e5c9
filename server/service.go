package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xayanetwork/chi-claim-service/claimctrl"
	"github.com/xayanetwork/chi-claim-service/claimregistry"
	"github.com/xayanetwork/chi-claim-service/gerror"
	"github.com/xayanetwork/chi-claim-service/log"
)

const (
	defaultSuccessCode = 0
	defaultErrorCode   = 1
)

// claimService exposes the claim registry and the claim controller over the
// REST API.
type claimService struct {
	registry   *claimregistry.Registry
	controller *claimctrl.ClaimController
}

func newClaimService(registry *claimregistry.Registry, controller *claimctrl.ClaimController) *claimService {
	return &claimService{
		registry:   registry,
		controller: controller,
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("encoding the response failed: %v", err)
	}
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Code: defaultErrorCode, Message: err.Error()})
}

// writeClaimError maps the claim error taxonomy to HTTP statuses. Every
// failure is terminal for the request; the caller has to correct the input
// and resubmit.
func writeClaimError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, gerror.ErrAlreadyClaimed):
		status = http.StatusConflict
	case errors.Is(err, gerror.ErrProofInvalid),
		errors.Is(err, gerror.ErrInvalidRecipient),
		errors.Is(err, gerror.ErrWrongClaimProcess),
		errors.Is(err, gerror.ErrInvalidClaimPubKey),
		errors.Is(err, gerror.ErrInvalidClaimSignature):
		status = http.StatusBadRequest
	case errors.Is(err, gerror.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, gerror.ErrTransferFailed):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorResponse{Code: defaultErrorCode, Message: err.Error()})
}

// checkClaim handles POST /api/v1/claims/check
func (s *claimService) checkClaim(w http.ResponseWriter, r *http.Request) {
	var req checkClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}
	output, err := req.Output.toOutput()
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	proof, err := decodeProof(req.Proof)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := s.registry.CheckClaim(r.Context(), output, proof); err != nil {
		writeClaimError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusOKResponse{Code: defaultSuccessCode})
}

// signedClaim handles POST /api/v1/claims/signed
func (s *claimService) signedClaim(w http.ResponseWriter, r *http.Request) {
	var req signedClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}
	output, err := req.Output.toOutput()
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	proof, err := decodeProof(req.Proof)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	recipient, err := decodeAddress(req.Recipient, "recipient")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	x, err := decodeBigInt(req.PubKeyX, "pubKeyX")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	y, err := decodeBigInt(req.PubKeyY, "pubKeyY")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	signature, err := decodeSignature(req.Signature)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := s.controller.SubmitSignedClaim(r.Context(), output, proof, recipient, x, y, signature); err != nil {
		writeClaimError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusOKResponse{Code: defaultSuccessCode})
}

// adminClaim handles POST /api/v1/claims/admin
func (s *claimService) adminClaim(w http.ResponseWriter, r *http.Request) {
	var req adminClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}
	output, err := req.Output.toOutput()
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	proof, err := decodeProof(req.Proof)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	recipient, err := decodeAddress(req.Recipient, "recipient")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	// The REST layer authenticated the administrator via the API key;
	// the controller still enforces the admin identity itself.
	if err := s.controller.SubmitAdminClaim(r.Context(), s.controller.Admin(), output, proof, recipient); err != nil {
		writeClaimError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusOKResponse{Code: defaultSuccessCode})
}

// claimStatus handles POST /api/v1/claims/status
func (s *claimService) claimStatus(w http.ResponseWriter, r *http.Request) {
	var req claimStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}

	ids := make([]claimregistry.OutputID, len(req.Outputs))
	for i, m := range req.Outputs {
		txid, err := decodeHash(m.Txid, "txid")
		if err != nil {
			writeBadRequest(w, err)
			return
		}
		ids[i] = claimregistry.OutputID{Txid: txid, Vout: m.Vout}
	}

	claimants, err := s.registry.BatchCheckClaimed(r.Context(), ids)
	if err != nil {
		writeClaimError(w, err)
		return
	}

	resp := claimStatusResponse{Claimants: make([]string, len(claimants))}
	for i, claimant := range claimants {
		resp.Claimants[i] = claimant.Hex()
	}
	writeJSON(w, http.StatusOK, resp)
}

// leafHash handles POST /api/v1/leaf-hash
func (s *claimService) leafHash(w http.ResponseWriter, r *http.Request) {
	var req outputModel
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}
	output, err := req.toOutput()
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leafHashResponse{LeafHash: s.registry.LeafHash(output).Hex()})
}

// domainSeparator handles GET /api/v1/domain-separator
func (s *claimService) domainSeparator(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domainSeparatorResponse{DomainSeparator: s.controller.DomainSeparator().Hex()})
}

// healthz handles GET /healthz
func (s *claimService) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusOKResponse{Code: defaultSuccessCode})
}
