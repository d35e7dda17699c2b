package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyage-backend/internal/models"
)

func sampleFacture() *models.Facture {
	due := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	n, total := 2, 3
	return &models.Facture{
		NumeroFacture:      "FAC-2026-0007",
		ClientNom:          "Aïcha Diallo",
		TypeFacture:        models.TypeEcheance,
		Statut:             models.FacturePayeePartiellement,
		DateEmission:       time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
		DateEcheance:       &due,
		MontantHT:          1000,
		TauxTVA:            20,
		MontantTVA:         200,
		MontantTTC:         1200,
		Remise:             100,
		MontantFinal:       1100,
		MontantPaye:        500,
		MontantRestant:     600,
		NumeroEcheance:     &n,
		NombreEcheances:    &total,
		Description:        "Frais de dossier études à Montréal",
		ConditionsPaiement: "30 jours",
		Lignes: []models.LigneFacture{
			{Description: "Inscription", Quantite: 1, PrixUnitaire: 600, Montant: 600},
			{Description: "Accompagnement visa", Quantite: 2, PrixUnitaire: 200, Montant: 400},
		},
	}
}

func TestWriteFacture(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFacture(&buf, sampleFacture(), "Agence Horizon"))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestWriteFactureWithoutLines(t *testing.T) {
	f := sampleFacture()
	f.Lignes = nil
	f.DateEcheance = nil
	f.NumeroEcheance = nil
	f.MontantRestant = 0

	var buf bytes.Buffer
	require.NoError(t, WriteFacture(&buf, f, "Agence Horizon"))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestFilenameAndLabels(t *testing.T) {
	assert.Equal(t, "facture-FAC-2026-0007.pdf", Filename(sampleFacture()))
	assert.Equal(t, "Payée", StatutLabel(models.FacturePayee))
	assert.Equal(t, "Non payée", StatutLabel(models.FactureNonPayee))
	assert.Equal(t, "inconnu", StatutLabel("inconnu"))
}
