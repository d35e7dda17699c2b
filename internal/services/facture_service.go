package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"voyage-backend/internal/apperr"
	"voyage-backend/internal/logger"
	"voyage-backend/internal/metrics"
	"voyage-backend/internal/models"
	"voyage-backend/internal/timeutil"
)

const facturePrefix = "FAC"

type FactureService struct {
	Repo           FactureStore
	DefaultTauxTVA float64

	now func() time.Time
}

func NewFactureService(repo FactureStore, defaultTauxTVA float64) *FactureService {
	return &FactureService{
		Repo:           repo,
		DefaultTauxTVA: defaultTauxTVA,
		now:            timeutil.Now,
	}
}

func (s *FactureService) clock() time.Time {
	if s.now == nil {
		return timeutil.Now()
	}
	return s.now()
}

func (s *FactureService) CreateFacture(ctx context.Context, req *models.CreateFactureRequest, createdBy *int) (*models.Facture, error) {
	typ := req.TypeFacture
	if typ == "" {
		typ = models.TypeStandard
	}
	if err := validateEnum("type_facture", typ, models.TypesFacture); err != nil {
		return nil, err
	}

	now := s.clock()
	f := &models.Facture{
		ClientID:           req.ClientID,
		DossierID:          req.DossierID,
		TypeFacture:        typ,
		Statut:             models.FactureBrouillon,
		DateEmission:       timeutil.StartOfDay(now),
		MontantHT:          req.MontantHT,
		TauxTVA:            s.DefaultTauxTVA,
		Remise:             req.Remise,
		Description:        strings.TrimSpace(req.Description),
		ConditionsPaiement: req.ConditionsPaiement,
		Notes:              req.Notes,
		CreatedBy:          createdBy,
	}
	if req.TauxTVA != nil {
		f.TauxTVA = *req.TauxTVA
	}
	if req.DateEmission != nil {
		f.DateEmission = req.DateEmission.Time
	}
	if req.DateEcheance != nil {
		f.DateEcheance = req.DateEcheance.Ptr()
		if f.DateEcheance.Before(f.DateEmission) {
			return nil, apperr.Validation("date_echeance", "la date d'échéance précède la date d'émission")
		}
	}
	if len(req.Lignes) > 0 {
		f.Lignes, f.MontantHT = BuildLignes(req.Lignes)
	}
	if err := RecomputeAmounts(f); err != nil {
		return nil, err
	}

	if err := s.insertNumbered(ctx, f); err != nil {
		return nil, err
	}
	metrics.FacturesCreated.WithLabelValues(f.TypeFacture).Inc()
	return f, nil
}

// insertNumbered assigns the next yearly number and inserts f. A unique
// violation on the number falls back to a timestamp suffix once.
func (s *FactureService) insertNumbered(ctx context.Context, f *models.Facture) error {
	year := f.DateEmission.In(timeutil.Local).Year()
	existing, err := s.Repo.ListNumerosForYear(ctx, year)
	if err != nil {
		return err
	}
	f.NumeroFacture = FormatNumero(facturePrefix, year, NextSequence(existing, facturePrefix, year))

	err = s.Repo.Create(ctx, f)
	if errors.Is(err, apperr.ErrConflict) {
		f.NumeroFacture = FallbackNumero(facturePrefix, year, s.clock(), 0)
		logger.Component("factures").Warn().
			Str("numero", f.NumeroFacture).
			Msg("invoice number collision, using timestamp number")
		err = s.Repo.Create(ctx, f)
	}
	return err
}

func (s *FactureService) GetFacture(ctx context.Context, id int) (*models.Facture, error) {
	return s.Repo.Get(ctx, id)
}

func (s *FactureService) ListFactures(ctx context.Context, filter models.FactureFilter) ([]*models.Facture, error) {
	if filter.Statut != "" && filter.Statut != models.FactureNonPayee {
		if err := validateEnum("statut", filter.Statut, models.StatutsFacture); err != nil {
			return nil, err
		}
	}
	return s.Repo.List(ctx, filter)
}

// UpdateFacture applies a partial update. Amount inputs are only accepted
// while the invoice is a draft; montant_paye may be corrected at any time and
// montant_restant is always re-derived.
func (s *FactureService) UpdateFacture(ctx context.Context, id int, req *models.UpdateFactureRequest) (*models.Facture, error) {
	f, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.Statut == models.FactureAnnulee {
		return nil, apperr.Business("une facture annulée ne peut plus être modifiée")
	}
	if req.TouchesAmounts() && f.Statut != models.FactureBrouillon {
		return nil, apperr.Business("les montants ne sont modifiables que sur une facture en brouillon")
	}

	if req.TypeFacture != nil {
		if err := validateEnum("type_facture", *req.TypeFacture, models.TypesFacture); err != nil {
			return nil, err
		}
		f.TypeFacture = *req.TypeFacture
	}
	if req.DateEcheance != nil {
		f.DateEcheance = req.DateEcheance.Ptr()
	}
	if req.Description != nil {
		f.Description = strings.TrimSpace(*req.Description)
	}
	if req.ConditionsPaiement != nil {
		f.ConditionsPaiement = *req.ConditionsPaiement
	}
	if req.Notes != nil {
		f.Notes = *req.Notes
	}
	if req.MontantHT != nil {
		f.MontantHT = *req.MontantHT
	}
	if req.TauxTVA != nil {
		f.TauxTVA = *req.TauxTVA
	}
	if req.Remise != nil {
		f.Remise = *req.Remise
	}
	if req.Lignes != nil {
		f.Lignes, f.MontantHT = BuildLignes(*req.Lignes)
	}
	if req.MontantPaye != nil {
		f.MontantPaye = *req.MontantPaye
	}

	if err := RecomputeAmounts(f); err != nil {
		return nil, err
	}
	if req.MontantRestant != nil && Round2(*req.MontantRestant) != f.MontantRestant {
		return nil, apperr.Validation("montant_restant", "montant_restant doit être égal à montant_final - montant_paye")
	}
	if req.MontantPaye != nil {
		s.settleStatut(f)
	}

	if err := s.Repo.Update(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// settleStatut keeps the status coherent after a manual montant_paye fix on
// an invoice that is already out of draft.
func (s *FactureService) settleStatut(f *models.Facture) {
	if f.Statut == models.FactureBrouillon {
		return
	}
	switch {
	case f.MontantRestant == 0 && f.MontantFinal > 0:
		f.Statut = models.FacturePayee
		if f.DatePaiementComplet == nil {
			now := s.clock()
			f.DatePaiementComplet = &now
		}
	case f.MontantPaye > 0:
		f.Statut = models.FacturePayeePartiellement
		f.DatePaiementComplet = nil
	}
}

// ChangeStatut moves an invoice along the allowed transitions. Marking it
// payee by hand settles the balance.
func (s *FactureService) ChangeStatut(ctx context.Context, id int, statut string) (*models.Facture, error) {
	if err := validateEnum("statut", statut, models.StatutsFacture); err != nil {
		return nil, err
	}
	f, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(f.Statut, statut) {
		return nil, apperr.BusinessWithValid(
			"transition de statut interdite: "+f.Statut+" -> "+statut,
			AllowedTransitions(f.Statut),
		)
	}

	f.Statut = statut
	if statut == models.FacturePayee {
		f.MontantPaye = f.MontantFinal
		f.MontantRestant = 0
		now := s.clock()
		f.DatePaiementComplet = &now
	}
	if err := s.Repo.Update(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// DeleteFacture only removes drafts; lines go with the invoice.
func (s *FactureService) DeleteFacture(ctx context.Context, id int) error {
	f, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if f.Statut != models.FactureBrouillon {
		return apperr.Business("seules les factures en brouillon peuvent être supprimées")
	}
	return s.Repo.Delete(ctx, id)
}

// RecordPayment applies a payment to an invoice under a row lock and, when
// asked, records the matching confirmed paiement in the same transaction.
func (s *FactureService) RecordPayment(ctx context.Context, id int, req *models.RecordPaymentRequest, createdBy *int) (*models.PaymentResult, error) {
	if Round2(req.Montant) <= 0 {
		metrics.FacturePayments.WithLabelValues("rejected").Inc()
		return nil, apperr.Validation("montant", "le montant doit être supérieur à 0")
	}
	if req.CreerPaiement {
		if req.MethodePaiement == "" {
			return nil, apperr.Validation("methode_paiement", "methode_paiement est requis pour créer le paiement")
		}
		if err := validateEnum("methode_paiement", req.MethodePaiement, models.MethodesPaiement); err != nil {
			return nil, err
		}
	}

	now := s.clock()
	f, p, err := s.Repo.ApplyPayment(ctx, id, func(f *models.Facture) (*models.Paiement, error) {
		if err := ApplyPayment(f, req.Montant, now); err != nil {
			return nil, err
		}
		if !req.CreerPaiement {
			return nil, nil
		}

		factureID := f.ID
		ref := req.ReferenceTransaction
		if ref == "" {
			ref = f.NumeroFacture
		}
		date := now
		if req.DatePaiement != nil {
			date = req.DatePaiement.Time
		}
		return &models.Paiement{
			ClientID:             f.ClientID,
			DossierID:            f.DossierID,
			FactureID:            &factureID,
			Montant:              Round2(req.Montant),
			MethodePaiement:      req.MethodePaiement,
			ReferenceTransaction: ref,
			DatePaiement:         date,
			Statut:               models.PaiementConfirme,
			Notes:                req.Notes,
			CreatedBy:            createdBy,
		}, nil
	})
	if err != nil {
		metrics.FacturePayments.WithLabelValues("rejected").Inc()
		return nil, err
	}

	metrics.FacturePayments.WithLabelValues("accepted").Inc()
	metrics.FacturePaymentAmount.Add(Round2(req.Montant))
	logger.Component("factures").Info().
		Int("facture_id", f.ID).
		Float64("montant", req.Montant).
		Str("statut", f.Statut).
		Msg("payment recorded")
	return &models.PaymentResult{Facture: f, Paiement: p}, nil
}

// DuplicateFacture copies an invoice and its lines as a fresh draft
func (s *FactureService) DuplicateFacture(ctx context.Context, id int, createdBy *int) (*models.Facture, error) {
	if _, err := s.Repo.Get(ctx, id); err != nil {
		return nil, err
	}
	year := s.clock().In(timeutil.Local).Year()
	existing, err := s.Repo.ListNumerosForYear(ctx, year)
	if err != nil {
		return nil, err
	}
	numero := FormatNumero(facturePrefix, year, NextSequence(existing, facturePrefix, year))

	dup, err := s.Repo.Duplicate(ctx, id, numero, createdBy)
	if errors.Is(err, apperr.ErrConflict) {
		dup, err = s.Repo.Duplicate(ctx, id, FallbackNumero(facturePrefix, year, s.clock(), 0), createdBy)
	}
	if err != nil {
		return nil, err
	}
	metrics.FacturesCreated.WithLabelValues(dup.TypeFacture).Inc()
	return dup, nil
}

// GenerateRecurring creates the whole installment plan in one transaction.
func (s *FactureService) GenerateRecurring(ctx context.Context, req *models.RecurringRequest, createdBy *int) ([]*models.Facture, error) {
	start := s.clock()
	if req.DateDebut != nil {
		start = req.DateDebut.Time
	}
	taux := 0.0
	if req.TauxTVA != nil {
		taux = *req.TauxTVA
	}

	plan, err := BuildRecurringPlan(req, start, taux)
	if err != nil {
		return nil, err
	}

	year := plan[0].DateEmission.Year()
	existing, err := s.Repo.ListNumerosForYear(ctx, year)
	if err != nil {
		return nil, err
	}
	next := NextSequence(existing, facturePrefix, year)
	for i, f := range plan {
		f.NumeroFacture = FormatNumero(facturePrefix, year, next+i)
		f.CreatedBy = createdBy
	}

	err = s.Repo.CreateBatch(ctx, plan)
	if errors.Is(err, apperr.ErrConflict) {
		now := s.clock()
		for i, f := range plan {
			f.NumeroFacture = FallbackNumero(facturePrefix, year, now, i)
		}
		err = s.Repo.CreateBatch(ctx, plan)
	}
	if err != nil {
		return nil, err
	}

	for _, f := range plan {
		metrics.FacturesCreated.WithLabelValues(f.TypeFacture).Inc()
	}
	return plan, nil
}

// RecomputeStatut re-derives the status of one invoice with DerivedStatut.
// Drafts and cancelled invoices are left alone.
func (s *FactureService) RecomputeStatut(ctx context.Context, id int) (*models.Facture, error) {
	f, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.recompute(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// RecomputeAll runs RecomputeStatut over every invoice and returns how many
// changed.
func (s *FactureService) RecomputeAll(ctx context.Context) (int, error) {
	factures, err := s.Repo.ListForRecompute(ctx)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, f := range factures {
		ok, err := s.recompute(ctx, f)
		if err != nil {
			return changed, err
		}
		if ok {
			changed++
		}
	}
	return changed, nil
}

// RecomputeForPaiement is the best-effort hook run when p is confirmed.
// Only the invoices p references are re-derived.
func (s *FactureService) RecomputeForPaiement(ctx context.Context, p *models.Paiement) {
	factures, err := s.Repo.ListReferencedBy(ctx, p)
	if err == nil {
		for _, f := range factures {
			if _, err = s.recompute(ctx, f); err != nil {
				break
			}
		}
	}
	if err != nil {
		logger.Component("factures").Warn().Err(err).
			Int("paiement_id", p.ID).
			Int("client_id", p.ClientID).
			Msg("invoice status recompute failed")
	}
}

func (s *FactureService) recompute(ctx context.Context, f *models.Facture) (bool, error) {
	if f.Statut == models.FactureAnnulee || f.Statut == models.FactureBrouillon {
		return false, nil
	}
	paid, err := s.Repo.HasConfirmedPayment(ctx, f)
	if err != nil {
		return false, err
	}

	now := s.clock()
	statut := DerivedStatut(f, paid, now)
	if statut == f.Statut {
		return false, nil
	}

	if statut == models.FacturePayee {
		f.Statut = statut
		f.MontantPaye = f.MontantFinal
		f.MontantRestant = 0
		if f.DatePaiementComplet == nil {
			f.DatePaiementComplet = &now
		}
		if err := s.Repo.Update(ctx, f); err != nil {
			return false, err
		}
		return true, nil
	}

	if err := s.Repo.UpdateStatut(ctx, f.ID, statut, f.DatePaiementComplet); err != nil {
		return false, err
	}
	f.Statut = statut
	return true, nil
}

func (s *FactureService) Stats(ctx context.Context) ([]models.FactureStats, error) {
	return s.Repo.Stats(ctx)
}
