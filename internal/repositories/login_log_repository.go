package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"voyage-backend/internal/models"
)

type LoginLogRepository struct {
	DB *pgxpool.Pool
}

func NewLoginLogRepository(db *pgxpool.Pool) *LoginLogRepository {
	return &LoginLogRepository{DB: db}
}

// RecordLogin records a new login event
func (r *LoginLogRepository) RecordLogin(ctx context.Context, userID int, ipAddress, userAgent string) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO login_logs (user_id, login_time, ip_address, user_agent)
		 VALUES ($1, CURRENT_TIMESTAMP, $2, $3)`,
		userID, ipAddress, userAgent)
	return err
}

// RecordLogout closes the most recent open session of a user
func (r *LoginLogRepository) RecordLogout(ctx context.Context, userID int) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE login_logs
		SET logout_time = CURRENT_TIMESTAMP
		WHERE id = (
			SELECT id FROM login_logs
			WHERE user_id = $1 AND logout_time IS NULL
			ORDER BY login_time DESC
			LIMIT 1
		)`, userID)
	return err
}

// List returns sessions newest first with the user's name and email
func (r *LoginLogRepository) List(ctx context.Context, f models.LoginLogFilter) ([]*models.LoginLog, error) {
	var c conditions
	if f.UserID != nil {
		c.add(`ll.user_id = $%d`, *f.UserID)
	}
	query := `
		SELECT ll.id, ll.user_id, TRIM(u.prenom || ' ' || u.nom), u.email,
		       ll.login_time, ll.logout_time, ll.ip_address, ll.user_agent
		FROM login_logs ll
		JOIN users u ON ll.user_id = u.id` + c.where() +
		` ORDER BY ll.login_time DESC, ll.id DESC` + c.page(f.Limit, f.Offset)

	rows, err := r.DB.Query(ctx, query, c.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []*models.LoginLog{}
	for rows.Next() {
		var l models.LoginLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.UserNom, &l.Email,
			&l.LoginTime, &l.LogoutTime, &l.IPAddress, &l.UserAgent); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
