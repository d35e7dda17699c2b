package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"voyage-backend/internal/apperr"
	"voyage-backend/internal/models"
)

// documentList manipulates the JSONB documents column shared by clients and
// dossiers_voyage. table is a trusted constant.
type documentList struct {
	db       *pgxpool.Pool
	table    string
	resource string
}

// appendDocs concatenates docs to the stored array and returns the result
func (d documentList) appendDocs(ctx context.Context, id int, docs []models.Document) ([]models.Document, error) {
	var all []models.Document
	err := d.db.QueryRow(ctx,
		`UPDATE `+d.table+`
		 SET documents = COALESCE(documents, '[]'::jsonb) || $1::jsonb, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $2
		 RETURNING documents`,
		docs, id,
	).Scan(&all)
	return all, translate(err, d.resource, id)
}

// removeDoc deletes the entry named filename under a row lock and returns it
func (d documentList) removeDoc(ctx context.Context, id int, filename string) (*models.Document, error) {
	tx, err := d.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var docs []models.Document
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(documents, '[]'::jsonb) FROM `+d.table+` WHERE id = $1 FOR UPDATE`, id,
	).Scan(&docs)
	if err != nil {
		return nil, translate(err, d.resource, id)
	}

	kept := make([]models.Document, 0, len(docs))
	var removed *models.Document
	for i := range docs {
		if removed == nil && docs[i].Filename == filename {
			removed = &docs[i]
			continue
		}
		kept = append(kept, docs[i])
	}
	if removed == nil {
		return nil, apperr.NotFound("document", filename)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE `+d.table+` SET documents = $1::jsonb, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		kept, id,
	); err != nil {
		return nil, err
	}
	return removed, tx.Commit(ctx)
}
