package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"voyage-backend/internal/models"
)

type PagePermissionRepository struct {
	DB *pgxpool.Pool
}

func NewPagePermissionRepository(db *pgxpool.Pool) *PagePermissionRepository {
	return &PagePermissionRepository{DB: db}
}

func (r *PagePermissionRepository) ListPages(ctx context.Context) ([]models.Page, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, nom, libelle, COALESCE(description, ''), ordre FROM pages ORDER BY ordre, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pages := []models.Page{}
	for rows.Next() {
		var p models.Page
		if err := rows.Scan(&p.ID, &p.Nom, &p.Libelle, &p.Description, &p.Ordre); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

const permissionColumns = `upp.id, upp.user_id, upp.page_id, p.nom, upp.can_view, upp.can_create,
	upp.can_edit, upp.can_delete, upp.can_export, upp.created_at, upp.updated_at`

func scanPermission(row pgx.Row) (models.UserPagePermission, error) {
	var p models.UserPagePermission
	err := row.Scan(&p.ID, &p.UserID, &p.PageID, &p.PageNom, &p.CanView, &p.CanCreate,
		&p.CanEdit, &p.CanDelete, &p.CanExport, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// GetUserPermission returns the unique row of (user, page name)
func (r *PagePermissionRepository) GetUserPermission(ctx context.Context, userID int, page string) (*models.UserPagePermission, error) {
	p, err := scanPermission(r.DB.QueryRow(ctx,
		`SELECT `+permissionColumns+`
		 FROM user_page_permissions upp
		 JOIN pages p ON p.id = upp.page_id
		 WHERE upp.user_id=$1 AND p.nom=$2`, userID, page))
	if err != nil {
		return nil, translate(err, "permission", page)
	}
	return &p, nil
}

func (r *PagePermissionRepository) ListUserPermissions(ctx context.Context, userID int) ([]models.UserPagePermission, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+permissionColumns+`
		 FROM user_page_permissions upp
		 JOIN pages p ON p.id = upp.page_id
		 WHERE upp.user_id=$1
		 ORDER BY p.ordre, p.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := []models.UserPagePermission{}
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// ReplaceUserPermissions swaps every row of the user and rewrites the legacy
// array in a single transaction.
func (r *PagePermissionRepository) ReplaceUserPermissions(ctx context.Context, userID int, perms []models.UserPagePermission, legacy []string) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM user_page_permissions WHERE user_id=$1`, userID); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, p := range perms {
		batch.Queue(
			`INSERT INTO user_page_permissions(user_id, page_id, can_view, can_create, can_edit, can_delete, can_export)
			 VALUES($1, $2, $3, $4, $5, $6, $7)`,
			userID, p.PageID, p.CanView, p.CanCreate, p.CanEdit, p.CanDelete, p.CanExport,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return translate(err, "permission", userID)
		}
	}

	if legacy == nil {
		legacy = []string{}
	}
	tag, err := tx.Exec(ctx,
		`UPDATE users SET permissions=$1, updated_at=CURRENT_TIMESTAMP WHERE id=$2`, legacy, userID)
	if err != nil {
		return err
	}
	if err := notFoundIfNone(tag, "user", userID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
