package api

import (
	"net/http"
	"strconv"

	"github.com/zanvidmar/najdeno/internal/model"
	"github.com/zanvidmar/najdeno/internal/store"
	"github.com/zanvidmar/najdeno/internal/workflow"
)

// ClaimsHandler handles claim submission and adjudication endpoints.
type ClaimsHandler struct {
	Engine *workflow.Engine
}

type submitClaimRequest struct {
	ProofDescription string `json:"proof_description"`
}

type decideClaimRequest struct {
	Decision string `json:"decision"`
}

// Submit handles POST /api/found/{id}/claims.
func (h *ClaimsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	foundID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req submitClaimRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claim, err := h.Engine.SubmitClaim(r.Context(), foundID, req.ProofDescription, requestActor(r))
	if err != nil {
		workflowError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, claim)
}

// List handles GET /api/claims. Regular users see their own claims; staff see
// all, optionally filtered by found item and status.
func (h *ClaimsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	q := r.URL.Query()
	var foundID, claimantID int64
	if model.RoleAtLeast(claims.Role, model.RoleStaff) {
		if v, err := strconv.ParseInt(q.Get("found_id"), 10, 64); err == nil {
			foundID = v
		}
	} else {
		claimantID = claims.UserID
	}

	list, err := store.ListClaims(r.Context(), h.Engine.DB, foundID, claimantID, q.Get("status"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list claims")
		return
	}
	if list == nil {
		list = []model.Claim{}
	}
	jsonResponse(w, http.StatusOK, list)
}

// Get handles GET /api/claims/{id}. Claimants see their own claims, staff
// see all.
func (h *ClaimsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	claim, err := store.GetClaim(r.Context(), h.Engine.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get claim")
		return
	}
	if claim == nil {
		jsonError(w, http.StatusNotFound, "claim not found")
		return
	}

	claims := GetClaims(r.Context())
	if claims == nil || (claims.UserID != claim.ClaimantID && !model.RoleAtLeast(claims.Role, model.RoleStaff)) {
		jsonError(w, http.StatusForbidden, "not your claim")
		return
	}
	jsonResponse(w, http.StatusOK, claim)
}

// Decide handles POST /api/claims/{id}/decision (staff and up).
func (h *ClaimsHandler) Decide(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	var req decideClaimRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Engine.DecideClaim(r.Context(), id, req.Decision, requestActor(r))
	if err != nil {
		workflowError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, result)
}
