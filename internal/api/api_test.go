package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/zanvidmar/najdeno/internal/auth"
	"github.com/zanvidmar/najdeno/internal/db"
	"github.com/zanvidmar/najdeno/internal/model"
	"github.com/zanvidmar/najdeno/internal/store"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	server   *httptest.Server
	db       *sql.DB
	admin    string
	staff    string
	student  string
	student2 string
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)

	env := &testEnv{server: server, db: database}
	for _, u := range []struct {
		name, email, role string
		token             *string
	}{
		{"Site Admin", "admin@example.com", model.RoleAdmin, &env.admin},
		{"Staff Member", "staff@example.com", model.RoleStaff, &env.staff},
		{"Ana Student", "ana@example.com", model.RoleUser, &env.student},
		{"Bor Student", "bor@example.com", model.RoleUser, &env.student2},
	} {
		user, err := store.CreateUser(ctx, database, u.name, u.email, string(hash), u.role)
		if err != nil {
			t.Fatalf("creating user %s: %v", u.email, err)
		}
		token, err := auth.GenerateToken(testJWTSecret, user.ID, user.Email, user.Role)
		if err != nil {
			t.Fatalf("generating token: %v", err)
		}
		*u.token = token
	}

	store.CreateCategory(ctx, database, "Accessories")
	store.CreateLocation(ctx, database, "Library")

	return env
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func doJSON(t *testing.T, method, url, token string, body any, wantStatus int, out any) {
	t.Helper()
	req, err := authRequest(method, url, token, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		var errBody map[string]string
		json.NewDecoder(resp.Body).Decode(&errBody)
		t.Fatalf("%s %s: expected %d, got %d (%v)", method, url, wantStatus, resp.StatusCode, errBody)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
}

func TestLoginEndpoint(t *testing.T) {
	env := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"email": "admin@example.com", "password": "password"})
	resp, err := http.Post(env.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}
	var loginResp struct {
		Token string `json:"token"`
		User  struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp.Token == "" {
		t.Error("empty token from login")
	}
	if loginResp.User.Role != model.RoleAdmin {
		t.Errorf("login role = %q, want admin", loginResp.User.Role)
	}

	// Bad password.
	body, _ = json.Marshal(map[string]string{"email": "admin@example.com", "password": "wrong"})
	resp, _ = http.Post(env.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	env := setupTestServer(t)

	doJSON(t, "POST", env.server.URL+"/api/auth/logout", env.student, nil, http.StatusOK, nil)

	// The same token must stop working.
	req, _ := authRequest("GET", env.server.URL+"/api/lost", env.student, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnauthenticatedAccess(t *testing.T) {
	env := setupTestServer(t)

	resp, _ := http.Get(env.server.URL + "/api/found")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRoleBasedAccess(t *testing.T) {
	env := setupTestServer(t)

	// Regular user cannot log found items (staff+ required).
	req, _ := authRequest("POST", env.server.URL+"/api/found", env.student, map[string]any{
		"category_id": 1, "location_id": 1, "item_name": "Wallet",
		"description": "A black wallet", "date_found": "2026-03-11", "storage_location": "Shelf B",
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for user creating found item, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Regular user cannot access user management.
	req, _ = authRequest("GET", env.server.URL+"/api/users", env.student, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for user accessing users, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Staff cannot access the audit trail (admin only).
	req, _ = authRequest("GET", env.server.URL+"/api/audit", env.staff, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for staff accessing audit, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLostFoundMatchFlow(t *testing.T) {
	env := setupTestServer(t)

	// Student files a lost report.
	var lostResp struct {
		Report model.LostReport `json:"report"`
	}
	doJSON(t, "POST", env.server.URL+"/api/lost", env.student, map[string]any{
		"category_id": 1, "location_id": 1, "item_name": "Black Wallet",
		"description":        "Black leather wallet with student card inside",
		"date_lost":          "2026-03-10",
		"last_seen_location": "Library second floor",
	}, http.StatusCreated, &lostResp)

	// Staff logs a matching found item.
	var foundResp struct {
		Item     model.FoundItem `json:"item"`
		Matching struct {
			MatchesStored int     `json:"matches_stored"`
			NotifiedUsers int     `json:"notified_users"`
			BestScore     float64 `json:"best_score"`
		} `json:"matching"`
	}
	doJSON(t, "POST", env.server.URL+"/api/found", env.staff, map[string]any{
		"category_id": 1, "location_id": 1, "item_name": "Wallet",
		"description":      "Found a black wallet near the library stairs",
		"date_found":       "2026-03-11",
		"storage_location": "Front office shelf B",
	}, http.StatusCreated, &foundResp)

	if foundResp.Matching.MatchesStored != 1 {
		t.Errorf("matches_stored = %d, want 1", foundResp.Matching.MatchesStored)
	}
	if foundResp.Matching.BestScore < 40 {
		t.Errorf("best_score = %.2f, want >= 40", foundResp.Matching.BestScore)
	}

	// The student sees the suggestion and the notification.
	var matches []model.Match
	url := env.server.URL + "/api/lost/" + itoa(lostResp.Report.ID) + "/suggestions"
	doJSON(t, "GET", url, env.student, nil, http.StatusOK, &matches)
	if len(matches) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(matches))
	}

	var inbox struct {
		UnreadCount int `json:"unread_count"`
	}
	doJSON(t, "GET", env.server.URL+"/api/notifications", env.student, nil, http.StatusOK, &inbox)
	if inbox.UnreadCount != 1 {
		t.Errorf("unread_count = %d, want 1", inbox.UnreadCount)
	}

	// Another student cannot read the report.
	req, _ := authRequest("GET", env.server.URL+"/api/lost/"+itoa(lostResp.Report.ID), env.student2, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for foreign report, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestClaimAdjudicationFlow(t *testing.T) {
	env := setupTestServer(t)

	var foundResp struct {
		Item model.FoundItem `json:"item"`
	}
	doJSON(t, "POST", env.server.URL+"/api/found", env.staff, map[string]any{
		"category_id": 1, "location_id": 1, "item_name": "Wallet",
		"description":      "Found a black wallet near the library stairs",
		"date_found":       "2026-03-11",
		"storage_location": "Front office shelf B",
	}, http.StatusCreated, &foundResp)

	claimsURL := env.server.URL + "/api/found/" + itoa(foundResp.Item.ID) + "/claims"

	var claimA, claimB model.Claim
	doJSON(t, "POST", claimsURL, env.student, map[string]string{
		"proof_description": "Black leather wallet, student card for Ana inside",
	}, http.StatusCreated, &claimA)
	doJSON(t, "POST", claimsURL, env.student2, map[string]string{
		"proof_description": "I lost a black wallet at the library last week",
	}, http.StatusCreated, &claimB)

	// Staff approves claim A; claim B is auto-denied.
	var decision struct {
		Status     string `json:"status"`
		AutoDenied int64  `json:"auto_denied"`
	}
	doJSON(t, "POST", env.server.URL+"/api/claims/"+itoa(claimA.ID)+"/decision", env.staff,
		map[string]string{"decision": "APPROVE"}, http.StatusOK, &decision)
	if decision.Status != model.ClaimStatusApproved {
		t.Errorf("decision status = %q, want APPROVED", decision.Status)
	}
	if decision.AutoDenied != 1 {
		t.Errorf("auto_denied = %d, want 1", decision.AutoDenied)
	}

	// Deciding again is a conflict.
	req, _ := authRequest("POST", env.server.URL+"/api/claims/"+itoa(claimB.ID)+"/decision", env.staff,
		map[string]string{"decision": "APPROVE"})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for decided claim, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The item is CLAIMED now; new claims are rejected.
	req, _ = authRequest("POST", claimsURL, env.student2, map[string]string{
		"proof_description": "actually that wallet belongs to me instead",
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 claiming a CLAIMED item, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Deleting an item with claim history is a conflict; return works.
	req, _ = authRequest("DELETE", env.server.URL+"/api/found/"+itoa(foundResp.Item.ID), env.admin, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 deleting item with claims, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	doJSON(t, "POST", env.server.URL+"/api/found/"+itoa(foundResp.Item.ID)+"/return", env.staff,
		nil, http.StatusOK, nil)

	// The audit trail recorded the whole story.
	var entries []model.AuditEntry
	doJSON(t, "GET", env.server.URL+"/api/audit?entity_type=Claim", env.admin, nil, http.StatusOK, &entries)
	if len(entries) < 3 {
		t.Errorf("got %d claim audit entries, want at least 3", len(entries))
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
