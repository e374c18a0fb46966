package api

import (
	"database/sql"
	"net/http"

	"github.com/zanvidmar/najdeno/internal/model"
	"github.com/zanvidmar/najdeno/internal/workflow"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	engine := workflow.NewEngine(db)

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	referenceHandler := &ReferenceHandler{DB: db}
	lostHandler := &LostHandler{Engine: engine}
	foundHandler := &FoundHandler{Engine: engine}
	claimsHandler := &ClaimsHandler{Engine: engine}
	notificationsHandler := &NotificationsHandler{DB: db}
	auditHandler := &AuditHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireStaff := RequireRole(model.RoleStaff)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Categories and locations: read (all roles), write (staff+).
	mux.Handle("GET /api/categories", authMW(http.HandlerFunc(referenceHandler.ListCategories)))
	mux.Handle("POST /api/categories", authMW(requireStaff(http.HandlerFunc(referenceHandler.CreateCategory))))
	mux.Handle("PUT /api/categories/{id}", authMW(requireStaff(http.HandlerFunc(referenceHandler.UpdateCategory))))
	mux.Handle("DELETE /api/categories/{id}", authMW(requireStaff(http.HandlerFunc(referenceHandler.DeleteCategory))))
	mux.Handle("GET /api/locations", authMW(http.HandlerFunc(referenceHandler.ListLocations)))
	mux.Handle("POST /api/locations", authMW(requireStaff(http.HandlerFunc(referenceHandler.CreateLocation))))
	mux.Handle("PUT /api/locations/{id}", authMW(requireStaff(http.HandlerFunc(referenceHandler.UpdateLocation))))
	mux.Handle("DELETE /api/locations/{id}", authMW(requireStaff(http.HandlerFunc(referenceHandler.DeleteLocation))))

	// Lost reports: owners file, withdraw and view their own; staff see all.
	mux.Handle("GET /api/lost", authMW(http.HandlerFunc(lostHandler.List)))
	mux.Handle("POST /api/lost", authMW(http.HandlerFunc(lostHandler.Create)))
	mux.Handle("GET /api/lost/{id}", authMW(http.HandlerFunc(lostHandler.Get)))
	mux.Handle("POST /api/lost/{id}/withdraw", authMW(http.HandlerFunc(lostHandler.Withdraw)))
	mux.Handle("GET /api/lost/{id}/suggestions", authMW(http.HandlerFunc(lostHandler.Suggestions)))
	mux.Handle("POST /api/lost/{id}/suggestions/refresh", authMW(http.HandlerFunc(lostHandler.RefreshSuggestions)))

	// Found items: read (all roles), write (staff+), delete (admin).
	mux.Handle("GET /api/found", authMW(http.HandlerFunc(foundHandler.List)))
	mux.Handle("POST /api/found", authMW(requireStaff(http.HandlerFunc(foundHandler.Create))))
	mux.Handle("GET /api/found/{id}", authMW(http.HandlerFunc(foundHandler.Get)))
	mux.Handle("PATCH /api/found/{id}", authMW(requireStaff(http.HandlerFunc(foundHandler.Update))))
	mux.Handle("POST /api/found/{id}/return", authMW(requireStaff(http.HandlerFunc(foundHandler.Return))))
	mux.Handle("DELETE /api/found/{id}", authMW(requireAdmin(http.HandlerFunc(foundHandler.Delete))))
	mux.Handle("PUT /api/found/{id}/image", authMW(requireStaff(http.HandlerFunc(foundHandler.UploadImage))))
	mux.Handle("GET /api/found/{id}/image", authMW(http.HandlerFunc(foundHandler.GetImage)))

	// Claims: any user submits, staff decide.
	mux.Handle("POST /api/found/{id}/claims", authMW(http.HandlerFunc(claimsHandler.Submit)))
	mux.Handle("GET /api/claims", authMW(http.HandlerFunc(claimsHandler.List)))
	mux.Handle("GET /api/claims/{id}", authMW(http.HandlerFunc(claimsHandler.Get)))
	mux.Handle("POST /api/claims/{id}/decision", authMW(requireStaff(http.HandlerFunc(claimsHandler.Decide))))

	// Notifications (own inbox only).
	mux.Handle("GET /api/notifications", authMW(http.HandlerFunc(notificationsHandler.List)))
	mux.Handle("POST /api/notifications/{id}/read", authMW(http.HandlerFunc(notificationsHandler.MarkRead)))
	mux.Handle("POST /api/notifications/read-all", authMW(http.HandlerFunc(notificationsHandler.MarkAllRead)))

	// Audit trail (admin only).
	mux.Handle("GET /api/audit", authMW(requireAdmin(http.HandlerFunc(auditHandler.List))))

	return RequestIDMiddleware(LoggingMiddleware(mux))
}
