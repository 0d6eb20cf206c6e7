package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/popis/internal/audit"
	"github.com/erazemk/popis/internal/auth"
	"github.com/erazemk/popis/internal/model"
	"github.com/erazemk/popis/internal/store"
)

// Options configures the audit side of the API.
type Options struct {
	// Prefix is the device-code prefix used to normalize scanned codes.
	Prefix string
	// Location is the time zone for reports, UTC if nil.
	Location *time.Location
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, issuer *auth.Issuer, opts Options) http.Handler {
	mux := http.NewServeMux()

	if opts.Location == nil {
		opts.Location = time.UTC
	}
	engines := newEngineRegistry(&store.Repo{DB: db}, audit.Options{Prefix: opts.Prefix, Location: opts.Location})

	authHandler := &AuthHandler{DB: db, Issuer: issuer}
	usersHandler := &UsersHandler{DB: db}
	chromebooksHandler := &ChromebooksHandler{DB: db, Prefix: opts.Prefix}
	auditsHandler := &AuditsHandler{DB: db, Location: opts.Location, engines: engines}

	authMW := AuthMiddleware(issuer, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Chromebooks: read (all roles), write (manager+).
	mux.Handle("GET /api/chromebooks", authMW(http.HandlerFunc(chromebooksHandler.List)))
	mux.Handle("POST /api/chromebooks", authMW(requireManager(http.HandlerFunc(chromebooksHandler.Create))))
	mux.Handle("GET /api/chromebooks/labels.pdf", authMW(http.HandlerFunc(chromebooksHandler.LabelSheet)))
	mux.Handle("GET /api/chromebooks/{id}", authMW(http.HandlerFunc(chromebooksHandler.Get)))
	mux.Handle("PUT /api/chromebooks/{id}/placement", authMW(requireManager(http.HandlerFunc(chromebooksHandler.UpdatePlacement))))
	mux.Handle("GET /api/chromebooks/{id}/label.png", authMW(http.HandlerFunc(chromebooksHandler.Label)))

	// Audits: each user runs their own; deleting is manager+.
	mux.Handle("GET /api/audits", authMW(http.HandlerFunc(auditsHandler.List)))
	mux.Handle("POST /api/audits", authMW(http.HandlerFunc(auditsHandler.Start)))
	mux.Handle("GET /api/audits/active", authMW(http.HandlerFunc(auditsHandler.Active)))
	mux.Handle("POST /api/audits/active/items", authMW(http.HandlerFunc(auditsHandler.Count)))
	mux.Handle("GET /api/audits/active/items", authMW(http.HandlerFunc(auditsHandler.Items)))
	mux.Handle("DELETE /api/audits/active/items/{id}", authMW(http.HandlerFunc(auditsHandler.RemoveItem)))
	mux.Handle("PUT /api/audits/active/items/{id}/location", authMW(http.HandlerFunc(auditsHandler.UpdateLocation)))
	mux.Handle("PUT /api/audits/active/items/{id}/condition", authMW(http.HandlerFunc(auditsHandler.UpdateCondition)))
	mux.Handle("POST /api/audits/active/complete", authMW(http.HandlerFunc(auditsHandler.Complete)))
	mux.Handle("GET /api/audits/{id}", authMW(http.HandlerFunc(auditsHandler.Get)))
	mux.Handle("DELETE /api/audits/{id}", authMW(requireManager(http.HandlerFunc(auditsHandler.Delete))))
	mux.Handle("GET /api/audits/{id}/report", authMW(http.HandlerFunc(auditsHandler.Report)))
	mux.Handle("GET /api/audits/{id}/report.csv", authMW(http.HandlerFunc(auditsHandler.ReportCSV)))
	mux.Handle("GET /api/audits/{id}/report.pdf", authMW(http.HandlerFunc(auditsHandler.ReportPDF)))

	return mux
}
