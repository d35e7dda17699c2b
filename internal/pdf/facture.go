// Package pdf renders invoices for the export endpoint.
package pdf

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf/v2"

	"voyage-backend/internal/models"
	"voyage-backend/internal/timeutil"
)

var statutLabels = map[string]string{
	models.FactureBrouillon:          "Brouillon",
	models.FactureEnvoyee:            "Envoyée",
	models.FacturePayeePartiellement: "Payée partiellement",
	models.FacturePayee:              "Payée",
	models.FactureNonPayee:           "Non payée",
	models.FactureAnnulee:            "Annulée",
}

// StatutLabel returns the display label of an invoice status
func StatutLabel(statut string) string {
	if l, ok := statutLabels[statut]; ok {
		return l
	}
	return statut
}

// Filename is the attachment name used for f
func Filename(f *models.Facture) string {
	return fmt.Sprintf("facture-%s.pdf", f.NumeroFacture)
}

func money(v float64) string {
	return fmt.Sprintf("%.2f EUR", v)
}

// WriteFacture renders f with its lines and totals as an A4 document.
func WriteFacture(w io.Writer, f *models.Facture, agence string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(f.NumeroFacture, true)
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, tr(agence), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(190, 8, tr("Facture "+f.NumeroFacture), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, tr("Émise le "+timeutil.FormatDate(f.DateEmission)), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Informations", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, tr("Client : "+f.ClientNom), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, tr("Statut : "+StatutLabel(f.Statut)), "RB", 1, "L", false, 0, "")
	echeance := "-"
	if f.DateEcheance != nil {
		echeance = timeutil.FormatDate(*f.DateEcheance)
	}
	pdf.CellFormat(95, 7, tr("Type : "+f.TypeFacture), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, tr("Échéance : "+echeance), "RB", 1, "L", false, 0, "")
	if f.NumeroEcheance != nil && f.NombreEcheances != nil {
		pdf.CellFormat(190, 7, tr(fmt.Sprintf("Échéance %d sur %d", *f.NumeroEcheance, *f.NombreEcheances)), "LRB", 1, "L", false, 0, "")
	}
	if f.Description != "" {
		pdf.MultiCell(190, 6, tr(f.Description), "LRB", "L", false)
	}
	pdf.Ln(5)

	// Lines
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(100, 7, "Description", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, tr("Quantité"), "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Prix unitaire", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Montant", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	if len(f.Lignes) == 0 {
		pdf.CellFormat(155, 6, tr(orDefault(f.Description, "Prestation")), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, money(f.MontantHT), "1", 1, "R", false, 0, "")
	}
	for _, l := range f.Lignes {
		pdf.CellFormat(100, 6, tr(l.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.2f", l.Quantite), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, money(l.PrixUnitaire), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, money(l.Montant), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(5)

	// Totals
	totals := []struct {
		label string
		value float64
	}{
		{"Total HT", f.MontantHT},
		{fmt.Sprintf("TVA (%.2f %%)", f.TauxTVA), f.MontantTVA},
		{"Total TTC", f.MontantTTC},
		{"Remise", f.Remise},
		{"Montant final", f.MontantFinal},
		{"Déjà payé", f.MontantPaye},
	}
	pdf.SetFont("Arial", "", 11)
	for _, t := range totals {
		pdf.CellFormat(120, 7, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, tr(t.label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, money(t.value), "1", 1, "R", false, 0, "")
	}

	if f.MontantRestant > 0 {
		pdf.SetFillColor(255, 200, 200)
	} else {
		pdf.SetFillColor(200, 255, 200)
	}
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(120, 9, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(35, 9, tr("Reste à payer"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 9, money(f.MontantRestant), "1", 1, "R", true, 0, "")

	if f.ConditionsPaiement != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(190, 5, tr("Conditions de paiement : "+f.ConditionsPaiement), "", "L", false)
	}

	pdf.SetFont("Arial", "", 8)
	pdf.SetY(-20)
	pdf.CellFormat(190, 5, tr("Document généré le "+timeutil.Now().Format("02/01/2006 15:04")), "", 1, "C", false, 0, "")

	return pdf.Output(w)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
