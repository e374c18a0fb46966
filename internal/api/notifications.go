package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/zanvidmar/najdeno/internal/model"
	"github.com/zanvidmar/najdeno/internal/store"
)

// NotificationsHandler handles the per-user notification inbox.
type NotificationsHandler struct {
	DB *sql.DB
}

// List handles GET /api/notifications. Pass ?unread=1 for the unread subset.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "1"
	notifs, err := store.ListNotifications(r.Context(), h.DB, claims.UserID, unreadOnly)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	if notifs == nil {
		notifs = []model.Notification{}
	}

	unread, err := store.CountNotifications(r.Context(), h.DB, claims.UserID, true)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to count notifications")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"notifications": notifs,
		"unread_count":  unread,
	})
}

// MarkRead handles POST /api/notifications/{id}/read. The update is scoped to
// the caller, so users cannot touch each other's inboxes.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := store.MarkNotificationRead(r.Context(), h.DB, id, claims.UserID); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to mark notification read")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "marked read"})
}

// MarkAllRead handles POST /api/notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := store.MarkAllNotificationsRead(r.Context(), h.DB, claims.UserID); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to mark notifications read")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "all marked read"})
}
