package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"voyage-backend/internal/apperr"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil, "facture", 1))

	err := translate(fmt.Errorf("scan: %w", pgx.ErrNoRows), "facture", 12)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	err = translate(&pgconn.PgError{Code: "23505", TableName: "factures", ConstraintName: "factures_numero_facture_key"}, "facture", 0)
	assert.True(t, errors.Is(err, apperr.ErrConflict))
	assert.Equal(t, "numero_facture existe déjà", err.Error())

	err = translate(&pgconn.PgError{Code: "23503", TableName: "factures", ConstraintName: "factures_client_id_fkey"}, "facture", 0)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	var ve *apperr.ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, "client_id", ve.Field)

	err = translate(&pgconn.PgError{Code: "23514", TableName: "factures", ConstraintName: "factures_montant_final_check"}, "facture", 0)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	other := errors.New("connection refused")
	assert.Equal(t, other, translate(other, "facture", 0))
}

func TestNotFoundIfNone(t *testing.T) {
	assert.True(t, errors.Is(notFoundIfNone(pgconn.NewCommandTag("DELETE 0"), "client", 4), apperr.ErrNotFound))
	assert.NoError(t, notFoundIfNone(pgconn.NewCommandTag("DELETE 1"), "client", 4))
}

func TestTranslateDelete(t *testing.T) {
	err := translateDelete(&pgconn.PgError{Code: "23503", TableName: "factures", ConstraintName: "factures_client_id_fkey"}, "client", 3)
	assert.True(t, errors.Is(err, apperr.ErrBusinessRule))

	err = translateDelete(pgx.ErrNoRows, "client", 3)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
