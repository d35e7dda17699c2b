package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"voyage-backend/internal/models"
)

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, nom, prenom, email, password_hash, role, COALESCE(permissions, '[]'::jsonb),
	is_active, last_login, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var perms models.PermissionList
	err := row.Scan(&u.ID, &u.Nom, &u.Prenom, &u.Email, &u.PasswordHash, &u.Role, &perms,
		&u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Permissions = []string(perms)
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if u.Permissions == nil {
		u.Permissions = []string{}
	}
	err := r.DB.QueryRow(ctx,
		`INSERT INTO users(nom, prenom, email, password_hash, role, permissions, is_active)
		 VALUES($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		u.Nom, u.Prenom, u.Email, u.PasswordHash, u.Role, u.Permissions, u.IsActive,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return translate(err, "user", u.Email)
}

func (r *UserRepository) Get(ctx context.Context, id int) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	return u, translate(err, "user", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email)=LOWER($1)`, email))
	return u, translate(err, "user", email)
}

// List returns all users
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update writes profile fields and the legacy permissions array. The
// password hash is only changed through UpdatePassword.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	if u.Permissions == nil {
		u.Permissions = []string{}
	}
	err := r.DB.QueryRow(ctx,
		`UPDATE users SET nom=$1, prenom=$2, email=$3, role=$4, permissions=$5, is_active=$6, updated_at=CURRENT_TIMESTAMP
		 WHERE id=$7
		 RETURNING updated_at`,
		u.Nom, u.Prenom, u.Email, u.Role, u.Permissions, u.IsActive, u.ID,
	).Scan(&u.UpdatedAt)
	return translate(err, "user", u.ID)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int, hash string) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE users SET password_hash=$1, updated_at=CURRENT_TIMESTAMP WHERE id=$2`, hash, id)
	if err != nil {
		return err
	}
	return notFoundIfNone(tag, "user", id)
}

func (r *UserRepository) SetActive(ctx context.Context, id int, active bool) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE users SET is_active=$1, updated_at=CURRENT_TIMESTAMP WHERE id=$2`, active, id)
	if err != nil {
		return err
	}
	return notFoundIfNone(tag, "user", id)
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx, `UPDATE users SET last_login=CURRENT_TIMESTAMP WHERE id=$1`, id)
	return err
}

// Delete deletes a user; page permissions cascade
func (r *UserRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return translateDelete(err, "user", id)
	}
	return notFoundIfNone(tag, "user", id)
}

func (r *UserRepository) CountAdmins(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role='admin'`).Scan(&n)
	return n, err
}
