package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFound(t *testing.T) {
	err := NotFound("facture", 12)

	assert.Equal(t, "facture 12 not found", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "client not found", NotFound("client", nil).Error())
}

func TestInvalidValue(t *testing.T) {
	err := InvalidValue("statut", "perdu", []string{"en_attente", "confirme"})

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, `statut: invalid value "perdu", expected one of: en_attente, confirme`, err.Error())
	assert.Equal(t, []string{"en_attente", "confirme"}, ValidValues(err))
}

func TestBusinessWrapped(t *testing.T) {
	err := fmt.Errorf("record payment: %w", BusinessWithValid("bad transition", []string{"payee"}))

	assert.ErrorIs(t, err, ErrBusinessRule)
	assert.Equal(t, []string{"payee"}, ValidValues(err))
}

func TestConflictUnwrapsBoth(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Conflict("email already used", cause)

	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, ValidValues(err))
}
