package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/zanvidmar/najdeno/internal/model"
	"github.com/zanvidmar/najdeno/internal/store"
)

// AuditHandler exposes the audit trail to admins.
type AuditHandler struct {
	DB *sql.DB
}

// List handles GET /api/audit with optional action, entity_type, actor_id,
// since, until, limit and offset query parameters.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.AuditFilter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
	}
	if v, err := strconv.ParseInt(q.Get("actor_id"), 10, 64); err == nil {
		filter.ActorID = v
	}
	if v, err := time.Parse("2006-01-02", q.Get("since")); err == nil {
		filter.Since = v
	}
	if v, err := time.Parse("2006-01-02", q.Get("until")); err == nil {
		filter.Until = v
	}
	if v, err := strconv.ParseUint(q.Get("limit"), 10, 32); err == nil {
		filter.Limit = v
	}
	if v, err := strconv.ParseUint(q.Get("offset"), 10, 32); err == nil {
		filter.Offset = v
	}

	entries, err := store.ListAudit(r.Context(), h.DB, filter)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}
	if entries == nil {
		entries = []model.AuditEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}
