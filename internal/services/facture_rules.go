package services

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"voyage-backend/internal/apperr"
	"voyage-backend/internal/models"
	"voyage-backend/internal/timeutil"
)

// Round2 rounds to cents.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// RecomputeAmounts derives tva, ttc, final and restant from ht, taux,
// remise and paye. It is the only place montant_restant is written.
func RecomputeAmounts(f *models.Facture) error {
	f.MontantHT = Round2(f.MontantHT)
	f.MontantTVA = Round2(f.MontantHT * f.TauxTVA / 100)
	f.MontantTTC = Round2(f.MontantHT + f.MontantTVA)
	if f.Remise > f.MontantTTC {
		return apperr.Validation("remise", "la remise dépasse le montant TTC")
	}
	f.MontantFinal = Round2(f.MontantTTC - f.Remise)
	f.MontantPaye = Round2(f.MontantPaye)
	if f.MontantPaye > f.MontantFinal {
		return apperr.Validation("montant_paye", "le montant payé dépasse le montant final")
	}
	f.MontantRestant = Round2(f.MontantFinal - f.MontantPaye)
	return nil
}

// BuildLignes computes line amounts and their HT total
func BuildLignes(inputs []models.LigneInput) ([]models.LigneFacture, float64) {
	lignes := make([]models.LigneFacture, 0, len(inputs))
	var total float64
	for i, in := range inputs {
		montant := Round2(in.Quantite * in.PrixUnitaire)
		lignes = append(lignes, models.LigneFacture{
			Description:  in.Description,
			Quantite:     in.Quantite,
			PrixUnitaire: in.PrixUnitaire,
			Montant:      montant,
			Ordre:        i + 1,
		})
		total += montant
	}
	return lignes, Round2(total)
}

var factureTransitions = map[string][]string{
	models.FactureBrouillon:          {models.FactureEnvoyee, models.FactureAnnulee},
	models.FactureEnvoyee:            {models.FacturePayeePartiellement, models.FacturePayee, models.FactureAnnulee},
	models.FacturePayeePartiellement: {models.FacturePayee, models.FactureAnnulee},
	models.FactureNonPayee:           {models.FactureEnvoyee, models.FacturePayeePartiellement, models.FacturePayee, models.FactureAnnulee},
	models.FacturePayee:              {},
	models.FactureAnnulee:            {},
}

// AllowedTransitions lists the statuses reachable from statut by hand
func AllowedTransitions(statut string) []string {
	return factureTransitions[statut]
}

func CanTransition(from, to string) bool {
	for _, s := range factureTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ApplyPayment records montant on f. It rejects non-positive amounts, fully
// paid or cancelled invoices and amounts above the remaining balance,
// leaving f untouched in every rejected case.
func ApplyPayment(f *models.Facture, montant float64, now time.Time) error {
	montant = Round2(montant)
	if montant <= 0 {
		return apperr.Validation("montant", "le montant doit être supérieur à 0")
	}
	if f.Statut == models.FactureAnnulee {
		return apperr.Business("impossible d'enregistrer un paiement sur une facture annulée")
	}
	if f.Statut == models.FacturePayee || f.MontantRestant <= 0 {
		return apperr.Business("la facture est déjà entièrement payée")
	}
	if montant > f.MontantRestant {
		return apperr.Business(fmt.Sprintf("le montant (%.2f) dépasse le reste à payer (%.2f)", montant, f.MontantRestant))
	}

	f.MontantPaye = Round2(f.MontantPaye + montant)
	f.MontantRestant = Round2(f.MontantFinal - f.MontantPaye)
	if f.MontantRestant <= 0 {
		f.MontantRestant = 0
		f.Statut = models.FacturePayee
		t := now
		f.DatePaiementComplet = &t
	} else {
		f.Statut = models.FacturePayeePartiellement
	}
	return nil
}

var numeroPattern = regexp.MustCompile(`^FAC-(\d{4})-(\d{4,})$`)

// FormatNumero renders FAC-<year>-<4 digit sequence>
func FormatNumero(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq)
}

// NextSequence returns max(sequence of numbers matching prefix-year)+1.
// Numbers written by the timestamp fallback are ignored.
func NextSequence(existing []string, prefix string, year int) int {
	pattern := numeroPattern
	if prefix != "FAC" {
		pattern = regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `-(\d{4})-(\d{4,})$`)
	}
	max := 0
	for _, n := range existing {
		m := pattern.FindStringSubmatch(n)
		if m == nil || m[1] != strconv.Itoa(year) {
			continue
		}
		// 13 digit sequences are unix-millis fallbacks, not counters
		if len(m[2]) > 6 {
			continue
		}
		seq, err := strconv.Atoi(m[2])
		if err == nil && seq > max {
			max = seq
		}
	}
	return max + 1
}

// FallbackNumero is used when the sequential number collided
func FallbackNumero(prefix string, year int, now time.Time, offset int) string {
	return fmt.Sprintf("%s-%d-%d", prefix, year, now.UnixMilli()+int64(offset))
}

// BuildRecurringPlan splits a total into n invoices due one period apart.
// Shares are equal to the cent; the last one absorbs the rounding remainder
// so the plan always sums to the total.
func BuildRecurringPlan(req *models.RecurringRequest, start time.Time, tauxTVA float64) ([]*models.Facture, error) {
	if req.MontantTotal <= 0 {
		return nil, apperr.Validation("montant_total", "le montant total doit être supérieur à 0")
	}
	if req.NombreEcheances < 2 {
		return nil, apperr.Validation("nombre_echeances", "au moins 2 échéances sont nécessaires")
	}
	var step int
	switch req.Frequence {
	case models.FrequenceMensuelle:
		step = 1
	case models.FrequenceTrimestrielle:
		step = 3
	default:
		return nil, apperr.InvalidValue("frequence", req.Frequence, models.Frequences)
	}

	n := req.NombreEcheances
	total := Round2(req.MontantTotal)
	share := math.Floor(total*100/float64(n)) / 100
	start = timeutil.StartOfDay(start)

	plan := make([]*models.Facture, 0, n)
	var allocated float64
	for i := 0; i < n; i++ {
		montant := share
		if i == n-1 {
			montant = Round2(total - allocated)
		}
		allocated = Round2(allocated + montant)

		typ := models.TypeEcheance
		switch i {
		case 0:
			typ = models.TypeAcompte
		case n - 1:
			typ = models.TypeSolde
		}

		due := timeutil.AddMonthsClamped(start, i*step)
		numero, count := i+1, n
		desc := req.Description
		if desc == "" {
			desc = "Échéance"
		}

		f := &models.Facture{
			ClientID:        req.ClientID,
			DossierID:       req.DossierID,
			TypeFacture:     typ,
			Statut:          models.FactureBrouillon,
			DateEmission:    start,
			DateEcheance:    &due,
			MontantHT:       montant,
			TauxTVA:         tauxTVA,
			NumeroEcheance:  &numero,
			NombreEcheances: &count,
			Description:     fmt.Sprintf("%s %d/%d", desc, numero, count),
		}
		if err := RecomputeAmounts(f); err != nil {
			return nil, err
		}
		plan = append(plan, f)
	}
	return plan, nil
}

// NumeroReferencePattern is the case-insensitive regular expression matching
// numero as a whole token inside a transaction reference, so FAC-2025-1000
// does not match FAC-2025-10000. The syntax is shared by Go and PostgreSQL.
func NumeroReferencePattern(numero string) string {
	return `(^|[^0-9])` + regexp.QuoteMeta(numero) + `([^0-9]|$)`
}

// ReferencesNumero reports whether ref mentions numero
func ReferencesNumero(ref, numero string) bool {
	if ref == "" || numero == "" {
		return false
	}
	return regexp.MustCompile(`(?i)` + NumeroReferencePattern(numero)).MatchString(ref)
}

// PaiementReferences reports whether p points at f: by facture_id, by the
// dossier they share, or by f's number in the transaction reference.
func PaiementReferences(p *models.Paiement, f *models.Facture) bool {
	if p.FactureID != nil && *p.FactureID == f.ID {
		return true
	}
	if p.DossierID != nil && f.DossierID != nil && *p.DossierID == *f.DossierID {
		return true
	}
	return ReferencesNumero(p.ReferenceTransaction, f.NumeroFacture)
}

// DerivedStatut is the status the automatic recompute assigns to f, given
// whether a confirmed paiement references it. Drafts and cancelled invoices
// are never touched. A confirmed paiement settles f unless f already carries
// a partial balance of its own. Without one, only a sent invoice past its due
// date with nothing paid becomes non_payee.
func DerivedStatut(f *models.Facture, confirmed bool, now time.Time) string {
	switch f.Statut {
	case models.FactureBrouillon, models.FactureAnnulee:
		return f.Statut
	}
	if confirmed {
		if f.MontantPaye > 0 && f.MontantRestant > 0 {
			return f.Statut
		}
		return models.FacturePayee
	}
	if f.Statut != models.FactureEnvoyee && f.Statut != models.FactureNonPayee {
		return f.Statut
	}
	if f.DateEcheance == nil || !f.DateEcheance.Before(timeutil.StartOfDay(now)) {
		return f.Statut
	}
	if f.MontantPaye > 0 || f.MontantRestant <= 0 {
		return f.Statut
	}
	return models.FactureNonPayee
}

func validateEnum(field, value string, valid []string) error {
	for _, v := range valid {
		if v == value {
			return nil
		}
	}
	return apperr.InvalidValue(field, value, valid)
}
