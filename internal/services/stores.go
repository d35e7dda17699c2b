package services

import (
	"context"
	"time"

	"voyage-backend/internal/models"
)

// The services depend on these narrow views of the repositories so they can
// run against in-memory fakes in tests. The pgx repositories satisfy them.

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, u *models.User) error
	UpdatePassword(ctx context.Context, id int, hash string) error
	SetActive(ctx context.Context, id int, active bool) error
	TouchLastLogin(ctx context.Context, id int) error
	Delete(ctx context.Context, id int) error
	CountAdmins(ctx context.Context) (int, error)
}

type PermissionStore interface {
	ListPages(ctx context.Context) ([]models.Page, error)
	GetUserPermission(ctx context.Context, userID int, page string) (*models.UserPagePermission, error)
	ListUserPermissions(ctx context.Context, userID int) ([]models.UserPagePermission, error)
	// ReplaceUserPermissions deletes every row of the user, inserts perms and
	// rewrites the legacy permissions array, all in one transaction.
	ReplaceUserPermissions(ctx context.Context, userID int, perms []models.UserPagePermission, legacy []string) error
}

type ClientStore interface {
	Create(ctx context.Context, c *models.Client) error
	Get(ctx context.Context, id int) (*models.Client, error)
	List(ctx context.Context, f models.ClientFilter) ([]*models.Client, error)
	Update(ctx context.Context, c *models.Client) error
	Delete(ctx context.Context, id int) error
	AppendDocuments(ctx context.Context, id int, docs []models.Document) ([]models.Document, error)
	RemoveDocument(ctx context.Context, id int, filename string) (*models.Document, error)
}

type DossierStore interface {
	Create(ctx context.Context, d *models.DossierVoyage) error
	Get(ctx context.Context, id int) (*models.DossierVoyage, error)
	List(ctx context.Context, f models.DossierFilter) ([]*models.DossierVoyage, error)
	Update(ctx context.Context, d *models.DossierVoyage) error
	Delete(ctx context.Context, id int) error
	ListNumerosForYear(ctx context.Context, year int) ([]string, error)
	AppendDocuments(ctx context.Context, id int, docs []models.Document) ([]models.Document, error)
	RemoveDocument(ctx context.Context, id int, filename string) (*models.Document, error)
}

type PaiementStore interface {
	Create(ctx context.Context, p *models.Paiement) error
	Get(ctx context.Context, id int) (*models.Paiement, error)
	List(ctx context.Context, f models.PaiementFilter) ([]*models.Paiement, error)
	Update(ctx context.Context, p *models.Paiement) error
	UpdateStatut(ctx context.Context, id int, statut string) error
	Delete(ctx context.Context, id int) error
}

// FactureMutation inspects and modifies a locked invoice inside a
// transaction. Returning an error rolls everything back.
type FactureMutation func(f *models.Facture) (*models.Paiement, error)

type FactureStore interface {
	Create(ctx context.Context, f *models.Facture) error
	CreateBatch(ctx context.Context, fs []*models.Facture) error
	Get(ctx context.Context, id int) (*models.Facture, error)
	List(ctx context.Context, f models.FactureFilter) ([]*models.Facture, error)
	Update(ctx context.Context, f *models.Facture) error
	UpdateStatut(ctx context.Context, id int, statut string, datePaiementComplet *time.Time) error
	Delete(ctx context.Context, id int) error
	ListNumerosForYear(ctx context.Context, year int) ([]string, error)
	// ApplyPayment locks the invoice row, runs fn, persists the amounts and
	// inserts the returned paiement (if any) in the same transaction.
	ApplyPayment(ctx context.Context, id int, fn FactureMutation) (*models.Facture, *models.Paiement, error)
	// Duplicate copies header and lines under a new number in a transaction.
	Duplicate(ctx context.Context, id int, numero string, createdBy *int) (*models.Facture, error)
	HasConfirmedPayment(ctx context.Context, f *models.Facture) (bool, error)
	// ListReferencedBy returns the invoices p points at, see PaiementReferences.
	ListReferencedBy(ctx context.Context, p *models.Paiement) ([]*models.Facture, error)
	ListForRecompute(ctx context.Context) ([]*models.Facture, error)
	Stats(ctx context.Context) ([]models.FactureStats, error)
}
