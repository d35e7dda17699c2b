package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"voyage-backend/internal/models"
)

type DossierVoyageRepository struct {
	DB *pgxpool.Pool
	documentList
}

func NewDossierVoyageRepository(db *pgxpool.Pool) *DossierVoyageRepository {
	return &DossierVoyageRepository{
		DB:           db,
		documentList: documentList{db: db, table: "dossiers_voyage", resource: "dossier_voyage"},
	}
}

const dossierColumns = `d.id, d.numero_dossier, d.client_id, COALESCE(c.prenom || ' ' || c.nom, ''), d.destination,
	d.type_voyage, d.date_depart, d.date_retour, d.nombre_personnes, d.prix_total, d.acompte, d.solde,
	d.statut, d.notes, COALESCE(d.documents, '[]'::jsonb), d.created_by, d.created_at, d.updated_at`

const dossierFrom = ` FROM dossiers_voyage d LEFT JOIN clients c ON c.id = d.client_id`

func scanDossier(row pgx.Row) (*models.DossierVoyage, error) {
	var d models.DossierVoyage
	err := row.Scan(&d.ID, &d.NumeroDossier, &d.ClientID, &d.ClientNom, &d.Destination,
		&d.TypeVoyage, &d.DateDepart, &d.DateRetour, &d.NombrePersonnes, &d.PrixTotal, &d.Acompte, &d.Solde,
		&d.Statut, &d.Notes, &d.Documents, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if d.Documents == nil {
		d.Documents = []models.Document{}
	}
	return &d, nil
}

func (r *DossierVoyageRepository) Create(ctx context.Context, d *models.DossierVoyage) error {
	if d.Documents == nil {
		d.Documents = []models.Document{}
	}
	err := r.DB.QueryRow(ctx,
		`INSERT INTO dossiers_voyage(numero_dossier, client_id, destination, type_voyage, date_depart, date_retour,
		   nombre_personnes, prix_total, acompte, solde, statut, notes, documents, created_by)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id, created_at, updated_at`,
		d.NumeroDossier, d.ClientID, d.Destination, d.TypeVoyage, d.DateDepart, d.DateRetour,
		d.NombrePersonnes, d.PrixTotal, d.Acompte, d.Solde, d.Statut, d.Notes, d.Documents, d.CreatedBy,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	return translate(err, "dossier_voyage", 0)
}

func (r *DossierVoyageRepository) Get(ctx context.Context, id int) (*models.DossierVoyage, error) {
	d, err := scanDossier(r.DB.QueryRow(ctx, `SELECT `+dossierColumns+dossierFrom+` WHERE d.id=$1`, id))
	return d, translate(err, "dossier_voyage", id)
}

func (r *DossierVoyageRepository) List(ctx context.Context, f models.DossierFilter) ([]*models.DossierVoyage, error) {
	var c conditions
	if f.ClientID != nil {
		c.add(`d.client_id = $%d`, *f.ClientID)
	}
	if f.Statut != "" {
		c.add(`d.statut = $%d`, f.Statut)
	}
	query := `SELECT ` + dossierColumns + dossierFrom + c.where() + ` ORDER BY d.created_at DESC` + c.page(f.Limit, f.Offset)

	rows, err := r.DB.Query(ctx, query, c.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dossiers := []*models.DossierVoyage{}
	for rows.Next() {
		d, err := scanDossier(rows)
		if err != nil {
			return nil, err
		}
		dossiers = append(dossiers, d)
	}
	return dossiers, rows.Err()
}

func (r *DossierVoyageRepository) Update(ctx context.Context, d *models.DossierVoyage) error {
	err := r.DB.QueryRow(ctx,
		`UPDATE dossiers_voyage SET client_id=$1, destination=$2, type_voyage=$3, date_depart=$4, date_retour=$5,
		   nombre_personnes=$6, prix_total=$7, acompte=$8, solde=$9, statut=$10, notes=$11, updated_at=CURRENT_TIMESTAMP
		 WHERE id=$12
		 RETURNING updated_at`,
		d.ClientID, d.Destination, d.TypeVoyage, d.DateDepart, d.DateRetour,
		d.NombrePersonnes, d.PrixTotal, d.Acompte, d.Solde, d.Statut, d.Notes, d.ID,
	).Scan(&d.UpdatedAt)
	return translate(err, "dossier_voyage", d.ID)
}

func (r *DossierVoyageRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM dossiers_voyage WHERE id=$1`, id)
	if err != nil {
		return translateDelete(err, "dossier_voyage", id)
	}
	return notFoundIfNone(tag, "dossier_voyage", id)
}

// ListNumerosForYear returns every DV-<year>-... number
func (r *DossierVoyageRepository) ListNumerosForYear(ctx context.Context, year int) ([]string, error) {
	return listNumeros(ctx, r.DB, `SELECT numero_dossier FROM dossiers_voyage WHERE numero_dossier LIKE $1`,
		fmt.Sprintf("DV-%d-%%", year))
}

func (r *DossierVoyageRepository) AppendDocuments(ctx context.Context, id int, docs []models.Document) ([]models.Document, error) {
	return r.appendDocs(ctx, id, docs)
}

func (r *DossierVoyageRepository) RemoveDocument(ctx context.Context, id int, filename string) (*models.Document, error) {
	return r.removeDoc(ctx, id, filename)
}

func listNumeros(ctx context.Context, q querier, query string, pattern string) ([]string, error) {
	rows, err := q.Query(ctx, query, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var numeros []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numeros = append(numeros, n)
	}
	return numeros, rows.Err()
}
