package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"voyage-backend/internal/models"
)

type ClientRepository struct {
	DB *pgxpool.Pool
	documentList
}

func NewClientRepository(db *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{
		DB:           db,
		documentList: documentList{db: db, table: "clients", resource: "client"},
	}
}

const clientColumns = `id, nom, prenom, email, telephone, date_naissance, nationalite, numero_passeport,
	adresse, pays_destination, type_visa, statut_etudiant, statut_paiement, notes,
	COALESCE(documents, '[]'::jsonb), created_by, created_at, updated_at`

func scanClient(row pgx.Row) (*models.Client, error) {
	var c models.Client
	err := row.Scan(&c.ID, &c.Nom, &c.Prenom, &c.Email, &c.Telephone, &c.DateNaissance, &c.Nationalite,
		&c.NumeroPasseport, &c.Adresse, &c.PaysDestination, &c.TypeVisa, &c.StatutEtudiant,
		&c.StatutPaiement, &c.Notes, &c.Documents, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if c.Documents == nil {
		c.Documents = []models.Document{}
	}
	return &c, nil
}

func (r *ClientRepository) Create(ctx context.Context, c *models.Client) error {
	if c.Documents == nil {
		c.Documents = []models.Document{}
	}
	err := r.DB.QueryRow(ctx,
		`INSERT INTO clients(nom, prenom, email, telephone, date_naissance, nationalite, numero_passeport,
		   adresse, pays_destination, type_visa, statut_etudiant, statut_paiement, notes, documents, created_by)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING id, created_at, updated_at`,
		c.Nom, c.Prenom, c.Email, c.Telephone, c.DateNaissance, c.Nationalite, c.NumeroPasseport,
		c.Adresse, c.PaysDestination, c.TypeVisa, c.StatutEtudiant, c.StatutPaiement, c.Notes, c.Documents, c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return translate(err, "client", 0)
}

func (r *ClientRepository) Get(ctx context.Context, id int) (*models.Client, error) {
	c, err := scanClient(r.DB.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id=$1`, id))
	return c, translate(err, "client", id)
}

// List filters by status fields and a free text search over name, email
// and phone.
func (r *ClientRepository) List(ctx context.Context, f models.ClientFilter) ([]*models.Client, error) {
	var c conditions
	if f.Search != "" {
		c.add(`(nom ILIKE $%[1]d OR prenom ILIKE $%[1]d OR email ILIKE $%[1]d OR telephone ILIKE $%[1]d
			OR (prenom || ' ' || nom) ILIKE $%[1]d OR (nom || ' ' || prenom) ILIKE $%[1]d)`, likePattern(f.Search))
	}
	if f.TypeVisa != "" {
		c.add(`type_visa = $%d`, f.TypeVisa)
	}
	if f.StatutEtudiant != "" {
		c.add(`statut_etudiant = $%d`, f.StatutEtudiant)
	}
	if f.StatutPaiement != "" {
		c.add(`statut_paiement = $%d`, f.StatutPaiement)
	}
	query := `SELECT ` + clientColumns + ` FROM clients` + c.where() + ` ORDER BY created_at DESC` + c.page(f.Limit, f.Offset)

	rows, err := r.DB.Query(ctx, query, c.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []*models.Client{}
	for rows.Next() {
		cl, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, cl)
	}
	return clients, rows.Err()
}

// Update writes every column but documents, which only change through
// AppendDocuments and RemoveDocument.
func (r *ClientRepository) Update(ctx context.Context, c *models.Client) error {
	err := r.DB.QueryRow(ctx,
		`UPDATE clients SET nom=$1, prenom=$2, email=$3, telephone=$4, date_naissance=$5, nationalite=$6,
		   numero_passeport=$7, adresse=$8, pays_destination=$9, type_visa=$10, statut_etudiant=$11,
		   statut_paiement=$12, notes=$13, updated_at=CURRENT_TIMESTAMP
		 WHERE id=$14
		 RETURNING updated_at`,
		c.Nom, c.Prenom, c.Email, c.Telephone, c.DateNaissance, c.Nationalite, c.NumeroPasseport,
		c.Adresse, c.PaysDestination, c.TypeVisa, c.StatutEtudiant, c.StatutPaiement, c.Notes, c.ID,
	).Scan(&c.UpdatedAt)
	return translate(err, "client", c.ID)
}

func (r *ClientRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM clients WHERE id=$1`, id)
	if err != nil {
		return translateDelete(err, "client", id)
	}
	return notFoundIfNone(tag, "client", id)
}

func (r *ClientRepository) AppendDocuments(ctx context.Context, id int, docs []models.Document) ([]models.Document, error) {
	return r.appendDocs(ctx, id, docs)
}

func (r *ClientRepository) RemoveDocument(ctx context.Context, id int, filename string) (*models.Document, error) {
	return r.removeDoc(ctx, id, filename)
}
