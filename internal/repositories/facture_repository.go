package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"voyage-backend/internal/models"
	"voyage-backend/internal/services"
)

type FactureRepository struct {
	DB *pgxpool.Pool
}

func NewFactureRepository(db *pgxpool.Pool) *FactureRepository {
	return &FactureRepository{DB: db}
}

const factureColumns = `f.id, f.numero_facture, f.client_id, COALESCE(c.prenom || ' ' || c.nom, ''), f.dossier_id,
	f.type_facture, f.statut, f.date_emission, f.date_echeance, f.montant_ht, f.taux_tva, f.montant_tva,
	f.montant_ttc, f.remise, f.montant_final, f.montant_paye, f.montant_restant, f.date_paiement_complet,
	f.numero_echeance, f.nombre_echeances, f.description, f.conditions_paiement, f.notes,
	f.created_by, f.created_at, f.updated_at`

const factureFrom = ` FROM factures f LEFT JOIN clients c ON c.id = f.client_id`

func scanFacture(row pgx.Row) (*models.Facture, error) {
	var f models.Facture
	err := row.Scan(&f.ID, &f.NumeroFacture, &f.ClientID, &f.ClientNom, &f.DossierID,
		&f.TypeFacture, &f.Statut, &f.DateEmission, &f.DateEcheance, &f.MontantHT, &f.TauxTVA, &f.MontantTVA,
		&f.MontantTTC, &f.Remise, &f.MontantFinal, &f.MontantPaye, &f.MontantRestant, &f.DatePaiementComplet,
		&f.NumeroEcheance, &f.NombreEcheances, &f.Description, &f.ConditionsPaiement, &f.Notes,
		&f.CreatedBy, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func insertFacture(ctx context.Context, q querier, f *models.Facture) error {
	err := q.QueryRow(ctx,
		`INSERT INTO factures(numero_facture, client_id, dossier_id, type_facture, statut, date_emission, date_echeance,
		   montant_ht, taux_tva, montant_tva, montant_ttc, remise, montant_final, montant_paye, montant_restant,
		   date_paiement_complet, numero_echeance, nombre_echeances, description, conditions_paiement, notes, created_by)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		 RETURNING id, created_at, updated_at`,
		f.NumeroFacture, f.ClientID, f.DossierID, f.TypeFacture, f.Statut, f.DateEmission, f.DateEcheance,
		f.MontantHT, f.TauxTVA, f.MontantTVA, f.MontantTTC, f.Remise, f.MontantFinal, f.MontantPaye, f.MontantRestant,
		f.DatePaiementComplet, f.NumeroEcheance, f.NombreEcheances, f.Description, f.ConditionsPaiement, f.Notes, f.CreatedBy,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return translate(err, "facture", f.NumeroFacture)
	}
	return replaceLignes(ctx, q, f)
}

// replaceLignes rewrites the lines of f, numbering them in order
func replaceLignes(ctx context.Context, q querier, f *models.Facture) error {
	if _, err := q.Exec(ctx, `DELETE FROM facture_lignes WHERE facture_id=$1`, f.ID); err != nil {
		return err
	}
	for i := range f.Lignes {
		l := &f.Lignes[i]
		l.FactureID = f.ID
		l.Ordre = i + 1
		err := q.QueryRow(ctx,
			`INSERT INTO facture_lignes(facture_id, description, quantite, prix_unitaire, montant, ordre)
			 VALUES($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			f.ID, l.Description, l.Quantite, l.PrixUnitaire, l.Montant, l.Ordre,
		).Scan(&l.ID)
		if err != nil {
			return translate(err, "ligne_facture", f.ID)
		}
	}
	return nil
}

func (r *FactureRepository) Create(ctx context.Context, f *models.Facture) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := insertFacture(ctx, tx, f); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CreateBatch inserts all invoices or none
func (r *FactureRepository) CreateBatch(ctx context.Context, fs []*models.Facture) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, f := range fs {
		if err := insertFacture(ctx, tx, f); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Get returns the invoice with its lines
func (r *FactureRepository) Get(ctx context.Context, id int) (*models.Facture, error) {
	f, err := scanFacture(r.DB.QueryRow(ctx, `SELECT `+factureColumns+factureFrom+` WHERE f.id=$1`, id))
	if err != nil {
		return nil, translate(err, "facture", id)
	}

	rows, err := r.DB.Query(ctx,
		`SELECT id, facture_id, description, quantite, prix_unitaire, montant, ordre
		 FROM facture_lignes WHERE facture_id=$1 ORDER BY ordre, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	f.Lignes = []models.LigneFacture{}
	for rows.Next() {
		var l models.LigneFacture
		if err := rows.Scan(&l.ID, &l.FactureID, &l.Description, &l.Quantite, &l.PrixUnitaire, &l.Montant, &l.Ordre); err != nil {
			return nil, err
		}
		f.Lignes = append(f.Lignes, l)
	}
	return f, rows.Err()
}

func (r *FactureRepository) List(ctx context.Context, filter models.FactureFilter) ([]*models.Facture, error) {
	var c conditions
	if filter.Statut != "" {
		c.add(`f.statut = $%d`, filter.Statut)
	}
	if filter.TypeFacture != "" {
		c.add(`f.type_facture = $%d`, filter.TypeFacture)
	}
	if filter.ClientID != nil {
		c.add(`f.client_id = $%d`, *filter.ClientID)
	}
	if filter.DossierID != nil {
		c.add(`f.dossier_id = $%d`, *filter.DossierID)
	}
	query := `SELECT ` + factureColumns + factureFrom + c.where() +
		` ORDER BY f.date_emission DESC, f.id DESC` + c.page(filter.Limit, filter.Offset)
	return r.query(ctx, query, c.args...)
}

func (r *FactureRepository) query(ctx context.Context, query string, args ...any) ([]*models.Facture, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	factures := []*models.Facture{}
	for rows.Next() {
		f, err := scanFacture(rows)
		if err != nil {
			return nil, err
		}
		factures = append(factures, f)
	}
	return factures, rows.Err()
}

const updateFactureSQL = `UPDATE factures SET type_facture=$1, statut=$2, date_echeance=$3, montant_ht=$4, taux_tva=$5,
	  montant_tva=$6, montant_ttc=$7, remise=$8, montant_final=$9, montant_paye=$10, montant_restant=$11,
	  date_paiement_complet=$12, description=$13, conditions_paiement=$14, notes=$15, updated_at=CURRENT_TIMESTAMP
	WHERE id=$16
	RETURNING updated_at`

func updateFacture(ctx context.Context, q querier, f *models.Facture) error {
	err := q.QueryRow(ctx, updateFactureSQL,
		f.TypeFacture, f.Statut, f.DateEcheance, f.MontantHT, f.TauxTVA,
		f.MontantTVA, f.MontantTTC, f.Remise, f.MontantFinal, f.MontantPaye, f.MontantRestant,
		f.DatePaiementComplet, f.Description, f.ConditionsPaiement, f.Notes, f.ID,
	).Scan(&f.UpdatedAt)
	return translate(err, "facture", f.ID)
}

// Update saves the header and replaces the lines in one transaction
func (r *FactureRepository) Update(ctx context.Context, f *models.Facture) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := updateFacture(ctx, tx, f); err != nil {
		return err
	}
	if f.Lignes != nil {
		if err := replaceLignes(ctx, tx, f); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *FactureRepository) UpdateStatut(ctx context.Context, id int, statut string, datePaiementComplet *time.Time) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE factures SET statut=$1, date_paiement_complet=$2, updated_at=CURRENT_TIMESTAMP WHERE id=$3`,
		statut, datePaiementComplet, id)
	if err != nil {
		return translate(err, "facture", id)
	}
	return notFoundIfNone(tag, "facture", id)
}

// Delete removes the invoice; lines cascade
func (r *FactureRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM factures WHERE id=$1`, id)
	if err != nil {
		return translateDelete(err, "facture", id)
	}
	return notFoundIfNone(tag, "facture", id)
}

func (r *FactureRepository) ListNumerosForYear(ctx context.Context, year int) ([]string, error) {
	return listNumeros(ctx, r.DB, `SELECT numero_facture FROM factures WHERE numero_facture LIKE $1`,
		fmt.Sprintf("FAC-%d-%%", year))
}

// ApplyPayment locks the invoice row, lets fn validate and mutate it, then
// writes the amounts and the optional paiement before committing.
func (r *FactureRepository) ApplyPayment(ctx context.Context, id int, fn services.FactureMutation) (*models.Facture, *models.Paiement, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	f, err := scanFacture(tx.QueryRow(ctx,
		`SELECT `+factureColumns+factureFrom+` WHERE f.id=$1 FOR UPDATE OF f`, id))
	if err != nil {
		return nil, nil, translate(err, "facture", id)
	}

	p, err := fn(f)
	if err != nil {
		return nil, nil, err
	}

	if err := updateFacture(ctx, tx, f); err != nil {
		return nil, nil, err
	}
	if p != nil {
		if err := createPaiement(ctx, tx, p); err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return f, p, nil
}

// Duplicate copies header and lines of id as a fresh unpaid draft
func (r *FactureRepository) Duplicate(ctx context.Context, id int, numero string, createdBy *int) (*models.Facture, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var newID int
	err = tx.QueryRow(ctx,
		`INSERT INTO factures(numero_facture, client_id, dossier_id, type_facture, statut, date_emission, date_echeance,
		   montant_ht, taux_tva, montant_tva, montant_ttc, remise, montant_final, montant_paye, montant_restant,
		   description, conditions_paiement, notes, created_by)
		 SELECT $1, client_id, dossier_id, type_facture, 'brouillon', CURRENT_DATE, date_echeance,
		   montant_ht, taux_tva, montant_tva, montant_ttc, remise, montant_final, 0, montant_final,
		   description, conditions_paiement, notes, $2
		 FROM factures WHERE id=$3
		 RETURNING id`,
		numero, createdBy, id,
	).Scan(&newID)
	if err != nil {
		return nil, translate(err, "facture", id)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO facture_lignes(facture_id, description, quantite, prix_unitaire, montant, ordre)
		 SELECT $1, description, quantite, prix_unitaire, montant, ordre
		 FROM facture_lignes WHERE facture_id=$2`,
		newID, id,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.Get(ctx, newID)
}

// HasConfirmedPayment reports whether a confirmed paiement references f,
// directly, through its dossier, or by carrying its number in the
// transaction reference.
func (r *FactureRepository) HasConfirmedPayment(ctx context.Context, f *models.Facture) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM paiements p
		   WHERE p.statut = 'confirme'
		     AND (p.facture_id = $1
		          OR ($2::int IS NOT NULL AND p.dossier_id = $2)
		          OR p.reference_transaction ~* $3::text)
		 )`,
		f.ID, f.DossierID, referencePattern(f.NumeroFacture),
	).Scan(&exists)
	return exists, err
}

// ListReferencedBy returns the invoices p points at: its facture, the
// invoices of its dossier and those whose number appears in its reference.
func (r *FactureRepository) ListReferencedBy(ctx context.Context, p *models.Paiement) ([]*models.Facture, error) {
	return r.query(ctx, `SELECT `+factureColumns+factureFrom+`
		 WHERE f.id = $1
		    OR ($2::int IS NOT NULL AND f.dossier_id = $2)
		    OR ($3::text <> '' AND $3::text ~* ('(^|[^0-9])' || f.numero_facture || '([^0-9]|$)'))
		 ORDER BY f.id`,
		p.FactureID, p.DossierID, p.ReferenceTransaction)
}

// referencePattern is NULL for an empty number so nothing matches
func referencePattern(numero string) *string {
	if numero == "" {
		return nil
	}
	pattern := services.NumeroReferencePattern(numero)
	return &pattern
}

func (r *FactureRepository) ListForRecompute(ctx context.Context) ([]*models.Facture, error) {
	return r.query(ctx, `SELECT `+factureColumns+factureFrom+` WHERE f.statut <> 'annulee' ORDER BY f.id`)
}

// Stats sums amounts per status
func (r *FactureRepository) Stats(ctx context.Context) ([]models.FactureStats, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT statut, COUNT(*), COALESCE(SUM(montant_final), 0), COALESCE(SUM(montant_paye), 0),
		   COALESCE(SUM(montant_restant), 0)
		 FROM factures GROUP BY statut ORDER BY statut`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []models.FactureStats{}
	for rows.Next() {
		var s models.FactureStats
		if err := rows.Scan(&s.Statut, &s.Nombre, &s.MontantFinal, &s.MontantPaye, &s.MontantRestant); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
