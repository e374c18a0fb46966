package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/zanvidmar/najdeno/internal/auth"
	"github.com/zanvidmar/najdeno/internal/model"
	"github.com/zanvidmar/najdeno/internal/store"
	"github.com/zanvidmar/najdeno/internal/workflow"
)

// LostHandler handles lost report endpoints.
type LostHandler struct {
	Engine *workflow.Engine
}

type createLostRequest struct {
	CategoryID       int64  `json:"category_id"`
	LocationID       int64  `json:"location_id"`
	ItemName         string `json:"item_name"`
	Description      string `json:"description"`
	DateLost         string `json:"date_lost"`
	LastSeenLocation string `json:"last_seen_location"`
}

// parseDate accepts a plain date or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
}

// Create handles POST /api/lost.
func (h *LostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLostRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := parseDate(req.DateLost)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, synth, err := h.Engine.CreateLostReport(r.Context(), workflow.LostReportInput{
		CategoryID:       req.CategoryID,
		LocationID:       req.LocationID,
		ItemName:         req.ItemName,
		Description:      req.Description,
		DateLost:         date,
		LastSeenLocation: req.LastSeenLocation,
	}, requestActor(r))
	if err != nil {
		workflowError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]any{
		"report":   report,
		"matching": synth,
	})
}

// List handles GET /api/lost. Regular users see their own reports; staff can
// pass ?all=1 to see everyone's, optionally filtered by status.
func (h *LostHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	userID := claims.UserID
	if r.URL.Query().Get("all") == "1" {
		if !model.RoleAtLeast(claims.Role, model.RoleStaff) {
			jsonError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		userID = 0
	}

	reports, err := store.ListLostReports(r.Context(), h.Engine.DB, r.URL.Query().Get("status"), userID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list lost reports")
		return
	}
	if reports == nil {
		reports = []model.LostReport{}
	}
	jsonResponse(w, http.StatusOK, reports)
}

// canViewReport allows the report owner and staff.
func canViewReport(claims *auth.Claims, report *model.LostReport) bool {
	return claims != nil && (claims.UserID == report.UserID || model.RoleAtLeast(claims.Role, model.RoleStaff))
}

// Get handles GET /api/lost/{id}.
func (h *LostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	report, err := store.GetLostReport(r.Context(), h.Engine.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get lost report")
		return
	}
	if report == nil {
		jsonError(w, http.StatusNotFound, "lost report not found")
		return
	}
	if !canViewReport(GetClaims(r.Context()), report) {
		jsonError(w, http.StatusForbidden, "not your report")
		return
	}

	jsonResponse(w, http.StatusOK, report)
}

// Withdraw handles POST /api/lost/{id}/withdraw.
func (h *LostHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	report, err := store.GetLostReport(r.Context(), h.Engine.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get lost report")
		return
	}
	if report == nil {
		jsonError(w, http.StatusNotFound, "lost report not found")
		return
	}
	if !canViewReport(GetClaims(r.Context()), report) {
		jsonError(w, http.StatusForbidden, "not your report")
		return
	}

	status, err := h.Engine.WithdrawLostReport(r.Context(), id, requestActor(r))
	if err != nil {
		workflowError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": status})
}

// Suggestions handles GET /api/lost/{id}/suggestions, returning the persisted
// suggestion rows without rescoring.
func (h *LostHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	report, err := store.GetLostReport(r.Context(), h.Engine.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get lost report")
		return
	}
	if report == nil {
		jsonError(w, http.StatusNotFound, "lost report not found")
		return
	}
	if !canViewReport(GetClaims(r.Context()), report) {
		jsonError(w, http.StatusForbidden, "not your report")
		return
	}

	matches, err := h.Engine.ListSuggestions(r.Context(), id)
	if err != nil {
		workflowError(w, err)
		return
	}
	if matches == nil {
		matches = []model.Match{}
	}
	jsonResponse(w, http.StatusOK, matches)
}

// RefreshSuggestions handles POST /api/lost/{id}/suggestions/refresh,
// rescoring the report against current found items.
func (h *LostHandler) RefreshSuggestions(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	report, err := store.GetLostReport(r.Context(), h.Engine.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get lost report")
		return
	}
	if report == nil {
		jsonError(w, http.StatusNotFound, "lost report not found")
		return
	}
	if !canViewReport(GetClaims(r.Context()), report) {
		jsonError(w, http.StatusForbidden, "not your report")
		return
	}

	suggestions, err := h.Engine.RefreshSuggestions(r.Context(), id, requestActor(r))
	if err != nil {
		workflowError(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []workflow.Suggestion{}
	}
	jsonResponse(w, http.StatusOK, suggestions)
}
