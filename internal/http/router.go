package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voyage-backend/internal/handlers"
	"voyage-backend/internal/middleware"
	"voyage-backend/internal/models"
)

// UploadLimits bounds the multipart bodies accepted by the upload routes
type UploadLimits struct {
	MaxFiles    int
	MaxFileSize int64
}

func NewRouter(
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	permissionHandler *handlers.PermissionHandler,
	clientHandler *handlers.ClientHandler,
	dossierHandler *handlers.DossierVoyageHandler,
	paiementHandler *handlers.PaiementHandler,
	factureHandler *handlers.FactureHandler,
	documentHandler *handlers.DocumentHandler,
	loginLogHandler *handlers.LoginLogHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
	limits UploadLimits,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware)

	can := func(page string, action models.Action, h http.HandlerFunc) http.HandlerFunc {
		return authMiddleware.RequirePage(page, action)(h).ServeHTTP
	}
	adminOnly := func(h http.HandlerFunc) http.HandlerFunc {
		return authMiddleware.RequireAdmin(h).ServeHTTP
	}
	uploads := func(field string, maxFiles int, h http.HandlerFunc) http.Handler {
		return middleware.UploadGate(field, maxFiles, limits.MaxFileSize)(h)
	}

	// Public API routes - Authentication
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/auth/create-admin", authHandler.CreateAdmin).Methods("POST")

	authAPI := r.PathPrefix("/api/auth").Subrouter()
	authAPI.Use(authMiddleware.Authenticate)
	authAPI.HandleFunc("/me", authHandler.Me).Methods("GET")
	authAPI.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	authAPI.HandleFunc("/change-password", authHandler.ChangePassword).Methods("PUT")

	// Users
	usersAPI := r.PathPrefix("/api/users").Subrouter()
	usersAPI.Use(authMiddleware.Authenticate)
	usersAPI.HandleFunc("", can(models.PageUsers, models.ActionView, userHandler.ListUsers)).Methods("GET")
	usersAPI.HandleFunc("", can(models.PageUsers, models.ActionCreate, userHandler.CreateUser)).Methods("POST")
	usersAPI.HandleFunc("/login-logs", adminOnly(loginLogHandler.ListLoginLogs)).Methods("GET")
	usersAPI.HandleFunc("/{id}", can(models.PageUsers, models.ActionView, userHandler.GetUser)).Methods("GET")
	usersAPI.HandleFunc("/{id}", can(models.PageUsers, models.ActionEdit, userHandler.UpdateUser)).Methods("PUT")
	usersAPI.HandleFunc("/{id}", can(models.PageUsers, models.ActionDelete, userHandler.DeleteUser)).Methods("DELETE")
	usersAPI.HandleFunc("/{id}/toggle-active", can(models.PageUsers, models.ActionEdit, userHandler.ToggleActive)).Methods("PATCH")

	// Permissions
	permissionsAPI := r.PathPrefix("/api/permissions").Subrouter()
	permissionsAPI.Use(authMiddleware.Authenticate)
	permissionsAPI.HandleFunc("/pages", permissionHandler.ListPages).Methods("GET")
	permissionsAPI.HandleFunc("/me", permissionHandler.Me).Methods("GET")
	permissionsAPI.HandleFunc("/check", permissionHandler.Check).Methods("GET")
	permissionsAPI.HandleFunc("/users/{id}", can(models.PagePermissions, models.ActionView, permissionHandler.UserPermissions)).Methods("GET")
	permissionsAPI.HandleFunc("/users/{id}", adminOnly(permissionHandler.Replace)).Methods("PUT")
	permissionsAPI.HandleFunc("/users/{id}/sync", adminOnly(permissionHandler.Sync)).Methods("POST")

	// Clients
	clientsAPI := r.PathPrefix("/api/clients").Subrouter()
	clientsAPI.Use(authMiddleware.Authenticate)
	clientsAPI.HandleFunc("", can(models.PageClients, models.ActionView, clientHandler.ListClients)).Methods("GET")
	clientsAPI.HandleFunc("", can(models.PageClients, models.ActionCreate, clientHandler.CreateClient)).Methods("POST")
	clientsAPI.HandleFunc("/search", can(models.PageClients, models.ActionView, clientHandler.SearchClients)).Methods("GET")
	clientsAPI.HandleFunc("/{id}", can(models.PageClients, models.ActionView, clientHandler.GetClient)).Methods("GET")
	clientsAPI.HandleFunc("/{id}", can(models.PageClients, models.ActionEdit, clientHandler.UpdateClient)).Methods("PUT")
	clientsAPI.HandleFunc("/{id}", can(models.PageClients, models.ActionDelete, clientHandler.DeleteClient)).Methods("DELETE")
	clientsAPI.Handle("/{id}/documents", can(models.PageClients, models.ActionEdit,
		uploads("documents", limits.MaxFiles, clientHandler.UploadDocuments).ServeHTTP)).Methods("POST")
	clientsAPI.HandleFunc("/{id}/documents/{filename}", can(models.PageClients, models.ActionEdit, clientHandler.DeleteDocument)).Methods("DELETE")

	// Dossiers voyage
	dossiersAPI := r.PathPrefix("/api/dossiers-voyage").Subrouter()
	dossiersAPI.Use(authMiddleware.Authenticate)
	dossiersAPI.HandleFunc("", can(models.PageDossiersVoyage, models.ActionView, dossierHandler.ListDossiers)).Methods("GET")
	dossiersAPI.HandleFunc("", can(models.PageDossiersVoyage, models.ActionCreate, dossierHandler.CreateDossier)).Methods("POST")
	dossiersAPI.HandleFunc("/client/{id}", can(models.PageDossiersVoyage, models.ActionView, dossierHandler.ListByClient)).Methods("GET")
	dossiersAPI.HandleFunc("/{id}", can(models.PageDossiersVoyage, models.ActionView, dossierHandler.GetDossier)).Methods("GET")
	dossiersAPI.HandleFunc("/{id}", can(models.PageDossiersVoyage, models.ActionEdit, dossierHandler.UpdateDossier)).Methods("PUT")
	dossiersAPI.HandleFunc("/{id}", can(models.PageDossiersVoyage, models.ActionDelete, dossierHandler.DeleteDossier)).Methods("DELETE")
	dossiersAPI.Handle("/{id}/documents", can(models.PageDossiersVoyage, models.ActionEdit,
		uploads("documents", limits.MaxFiles, dossierHandler.UploadDocuments).ServeHTTP)).Methods("POST")
	dossiersAPI.HandleFunc("/{id}/documents/{filename}", can(models.PageDossiersVoyage, models.ActionEdit, dossierHandler.DeleteDocument)).Methods("DELETE")

	// Paiements
	paiementsAPI := r.PathPrefix("/api/paiements").Subrouter()
	paiementsAPI.Use(authMiddleware.Authenticate)
	paiementsAPI.HandleFunc("", can(models.PagePaiements, models.ActionView, paiementHandler.ListPaiements)).Methods("GET")
	paiementsAPI.HandleFunc("", can(models.PagePaiements, models.ActionCreate, paiementHandler.CreatePaiement)).Methods("POST")
	paiementsAPI.HandleFunc("/{id}", can(models.PagePaiements, models.ActionView, paiementHandler.GetPaiement)).Methods("GET")
	paiementsAPI.HandleFunc("/{id}", can(models.PagePaiements, models.ActionEdit, paiementHandler.UpdatePaiement)).Methods("PUT")
	paiementsAPI.HandleFunc("/{id}/statut", can(models.PagePaiements, models.ActionEdit, paiementHandler.ChangeStatut)).Methods("PATCH")
	paiementsAPI.HandleFunc("/{id}", can(models.PagePaiements, models.ActionDelete, paiementHandler.DeletePaiement)).Methods("DELETE")

	// Factures. Fixed paths are registered before /{id}.
	facturesAPI := r.PathPrefix("/api/factures").Subrouter()
	facturesAPI.Use(authMiddleware.Authenticate)
	facturesAPI.HandleFunc("", can(models.PageFactures, models.ActionView, factureHandler.ListFactures)).Methods("GET")
	facturesAPI.HandleFunc("", can(models.PageFactures, models.ActionCreate, factureHandler.CreateFacture)).Methods("POST")
	facturesAPI.HandleFunc("/stats", can(models.PageFactures, models.ActionView, factureHandler.Stats)).Methods("GET")
	facturesAPI.HandleFunc("/recurrentes", can(models.PageFactures, models.ActionCreate, factureHandler.GenerateRecurring)).Methods("POST")
	facturesAPI.HandleFunc("/recalculer-statuts", can(models.PageFactures, models.ActionEdit, factureHandler.RecomputeAll)).Methods("POST")
	facturesAPI.HandleFunc("/{id}", can(models.PageFactures, models.ActionView, factureHandler.GetFacture)).Methods("GET")
	facturesAPI.HandleFunc("/{id}", can(models.PageFactures, models.ActionEdit, factureHandler.UpdateFacture)).Methods("PUT")
	facturesAPI.HandleFunc("/{id}", can(models.PageFactures, models.ActionDelete, factureHandler.DeleteFacture)).Methods("DELETE")
	facturesAPI.HandleFunc("/{id}/statut", can(models.PageFactures, models.ActionEdit, factureHandler.ChangeStatut)).Methods("PATCH")
	facturesAPI.HandleFunc("/{id}/paiements", can(models.PageFactures, models.ActionEdit, factureHandler.RecordPayment)).Methods("POST")
	facturesAPI.HandleFunc("/{id}/dupliquer", can(models.PageFactures, models.ActionCreate, factureHandler.DuplicateFacture)).Methods("POST")
	facturesAPI.HandleFunc("/{id}/recalculer-statut", can(models.PageFactures, models.ActionEdit, factureHandler.RecomputeStatut)).Methods("POST")
	facturesAPI.HandleFunc("/{id}/pdf", can(models.PageFactures, models.ActionExport, factureHandler.ExportPDF)).Methods("GET")

	// Documents
	documentsAPI := r.PathPrefix("/api/documents").Subrouter()
	documentsAPI.Use(authMiddleware.Authenticate)
	documentsAPI.Handle("/upload", can(models.PageDocuments, models.ActionCreate,
		uploads("document_pdf", 1, documentHandler.Upload).ServeHTTP)).Methods("POST")
	documentsAPI.Handle("/upload-multiple", can(models.PageDocuments, models.ActionCreate,
		uploads("documents", limits.MaxFiles, documentHandler.UploadMultiple).ServeHTTP)).Methods("POST")
	documentsAPI.HandleFunc("/download", can(models.PageDocuments, models.ActionView, documentHandler.Download)).Methods("GET")
	documentsAPI.HandleFunc("", can(models.PageDocuments, models.ActionDelete, documentHandler.Delete)).Methods("DELETE")

	// Health checks - no auth, used by probes
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.DetailedHealth).Methods("GET")

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	return r
}
