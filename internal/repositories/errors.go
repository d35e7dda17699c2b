package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"voyage-backend/internal/apperr"
)

// Postgres error codes we translate
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

// querier is what pgxpool.Pool and pgx.Tx have in common
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// translate maps driver errors onto apperr kinds. resource and id only feed
// the not-found message.
func translate(err error, resource string, id any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource, id)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case uniqueViolation:
		return apperr.Conflict(conflictMessage(pgErr), err)
	case foreignKeyViolation:
		return apperr.Validation(constraintField(pgErr, "_fkey"), "référence inexistante")
	case checkViolation:
		return apperr.Validation(constraintField(pgErr, "_check"), "valeur refusée par la base")
	}
	return err
}

func conflictMessage(pgErr *pgconn.PgError) string {
	field := constraintField(pgErr, "_key")
	if field == "" {
		return "cette valeur existe déjà"
	}
	return field + " existe déjà"
}

// constraintField turns "factures_numero_facture_key" into "numero_facture".
func constraintField(pgErr *pgconn.PgError, suffix string) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	name := strings.TrimSuffix(pgErr.ConstraintName, suffix)
	return strings.TrimPrefix(name, pgErr.TableName+"_")
}

// notFoundIfNone reports a missing row for statements without RETURNING
func notFoundIfNone(tag pgconn.CommandTag, resource string, id any) error {
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(resource, id)
	}
	return nil
}

// translateDelete reports a delete blocked by a foreign key as a business
// rule violation rather than a bad reference.
func translateDelete(err error, resource string, id any) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return apperr.Business(resource + " est encore référencé par d'autres enregistrements")
	}
	return translate(err, resource, id)
}
