package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"voyage-backend/internal/models"
)

type PaiementRepository struct {
	DB *pgxpool.Pool
}

func NewPaiementRepository(db *pgxpool.Pool) *PaiementRepository {
	return &PaiementRepository{DB: db}
}

const paiementColumns = `p.id, p.client_id, COALESCE(c.prenom || ' ' || c.nom, ''), p.dossier_id, p.facture_id,
	p.montant, p.methode_paiement, p.reference_transaction, p.date_paiement, p.statut, p.notes,
	p.created_by, p.created_at, p.updated_at`

const paiementFrom = ` FROM paiements p LEFT JOIN clients c ON c.id = p.client_id`

func scanPaiement(row pgx.Row) (*models.Paiement, error) {
	var p models.Paiement
	err := row.Scan(&p.ID, &p.ClientID, &p.ClientNom, &p.DossierID, &p.FactureID,
		&p.Montant, &p.MethodePaiement, &p.ReferenceTransaction, &p.DatePaiement, &p.Statut, &p.Notes,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const insertPaiement = `INSERT INTO paiements(client_id, dossier_id, facture_id, montant, methode_paiement,
	  reference_transaction, date_paiement, statut, notes, created_by)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id, created_at, updated_at`

// createPaiement inserts p with q, which may be the pool or a transaction
func createPaiement(ctx context.Context, q querier, p *models.Paiement) error {
	err := q.QueryRow(ctx, insertPaiement,
		p.ClientID, p.DossierID, p.FactureID, p.Montant, p.MethodePaiement,
		p.ReferenceTransaction, p.DatePaiement, p.Statut, p.Notes, p.CreatedBy,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return translate(err, "paiement", 0)
}

func (r *PaiementRepository) Create(ctx context.Context, p *models.Paiement) error {
	return createPaiement(ctx, r.DB, p)
}

func (r *PaiementRepository) Get(ctx context.Context, id int) (*models.Paiement, error) {
	p, err := scanPaiement(r.DB.QueryRow(ctx, `SELECT `+paiementColumns+paiementFrom+` WHERE p.id=$1`, id))
	return p, translate(err, "paiement", id)
}

func (r *PaiementRepository) List(ctx context.Context, f models.PaiementFilter) ([]*models.Paiement, error) {
	var c conditions
	if f.ClientID != nil {
		c.add(`p.client_id = $%d`, *f.ClientID)
	}
	if f.DossierID != nil {
		c.add(`p.dossier_id = $%d`, *f.DossierID)
	}
	if f.FactureID != nil {
		c.add(`p.facture_id = $%d`, *f.FactureID)
	}
	if f.Statut != "" {
		c.add(`p.statut = $%d`, f.Statut)
	}
	query := `SELECT ` + paiementColumns + paiementFrom + c.where() +
		` ORDER BY p.date_paiement DESC, p.id DESC` + c.page(f.Limit, f.Offset)

	rows, err := r.DB.Query(ctx, query, c.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paiements := []*models.Paiement{}
	for rows.Next() {
		p, err := scanPaiement(rows)
		if err != nil {
			return nil, err
		}
		paiements = append(paiements, p)
	}
	return paiements, rows.Err()
}

func (r *PaiementRepository) Update(ctx context.Context, p *models.Paiement) error {
	err := r.DB.QueryRow(ctx,
		`UPDATE paiements SET client_id=$1, dossier_id=$2, facture_id=$3, montant=$4, methode_paiement=$5,
		   reference_transaction=$6, date_paiement=$7, statut=$8, notes=$9, updated_at=CURRENT_TIMESTAMP
		 WHERE id=$10
		 RETURNING updated_at`,
		p.ClientID, p.DossierID, p.FactureID, p.Montant, p.MethodePaiement,
		p.ReferenceTransaction, p.DatePaiement, p.Statut, p.Notes, p.ID,
	).Scan(&p.UpdatedAt)
	return translate(err, "paiement", p.ID)
}

func (r *PaiementRepository) UpdateStatut(ctx context.Context, id int, statut string) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE paiements SET statut=$1, updated_at=CURRENT_TIMESTAMP WHERE id=$2`, statut, id)
	if err != nil {
		return translate(err, "paiement", id)
	}
	return notFoundIfNone(tag, "paiement", id)
}

func (r *PaiementRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM paiements WHERE id=$1`, id)
	if err != nil {
		return translateDelete(err, "paiement", id)
	}
	return notFoundIfNone(tag, "paiement", id)
}
