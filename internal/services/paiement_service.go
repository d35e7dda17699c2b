package services

import (
	"context"

	"voyage-backend/internal/apperr"
	"voyage-backend/internal/models"
	"voyage-backend/internal/timeutil"
)

// InvoiceRecomputer re-derives the status of the invoices a confirmed
// paiement references. FactureService implements it.
type InvoiceRecomputer interface {
	RecomputeForPaiement(ctx context.Context, p *models.Paiement)
}

type PaiementService struct {
	Repo     PaiementStore
	Factures InvoiceRecomputer
}

func NewPaiementService(repo PaiementStore, factures InvoiceRecomputer) *PaiementService {
	return &PaiementService{Repo: repo, Factures: factures}
}

func (s *PaiementService) CreatePaiement(ctx context.Context, in *models.PaiementInput, createdBy *int) (*models.Paiement, error) {
	p := &models.Paiement{
		Statut:       models.PaiementEnAttente,
		DatePaiement: timeutil.Now(),
		CreatedBy:    createdBy,
	}
	if err := applyPaiementInput(p, in); err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, p); err != nil {
		return nil, err
	}
	if p.Statut == models.PaiementConfirme {
		s.afterConfirm(ctx, p)
	}
	return p, nil
}

func (s *PaiementService) GetPaiement(ctx context.Context, id int) (*models.Paiement, error) {
	return s.Repo.Get(ctx, id)
}

func (s *PaiementService) ListPaiements(ctx context.Context, f models.PaiementFilter) ([]*models.Paiement, error) {
	if f.Statut != "" {
		if err := validateEnum("statut", f.Statut, models.StatutsPaiement); err != nil {
			return nil, err
		}
	}
	return s.Repo.List(ctx, f)
}

func (s *PaiementService) UpdatePaiement(ctx context.Context, id int, in *models.PaiementInput) (*models.Paiement, error) {
	p, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	was := p.Statut
	if err := applyPaiementInput(p, in); err != nil {
		return nil, err
	}
	if err := s.Repo.Update(ctx, p); err != nil {
		return nil, err
	}
	if p.Statut == models.PaiementConfirme && was != models.PaiementConfirme {
		s.afterConfirm(ctx, p)
	}
	return p, nil
}

// ChangeStatut sets the paiement status. Confirming triggers the status
// recompute of the invoices it references, which never fails the request.
func (s *PaiementService) ChangeStatut(ctx context.Context, id int, statut string) (*models.Paiement, error) {
	if err := validateEnum("statut", statut, models.StatutsPaiement); err != nil {
		return nil, err
	}
	p, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Statut == statut {
		return p, nil
	}
	if err := s.Repo.UpdateStatut(ctx, id, statut); err != nil {
		return nil, err
	}
	p.Statut = statut
	if statut == models.PaiementConfirme {
		s.afterConfirm(ctx, p)
	}
	return p, nil
}

func (s *PaiementService) DeletePaiement(ctx context.Context, id int) error {
	if _, err := s.Repo.Get(ctx, id); err != nil {
		return err
	}
	return s.Repo.Delete(ctx, id)
}

func (s *PaiementService) afterConfirm(ctx context.Context, p *models.Paiement) {
	if s.Factures != nil {
		s.Factures.RecomputeForPaiement(ctx, p)
	}
}

func applyPaiementInput(p *models.Paiement, in *models.PaiementInput) error {
	if Round2(in.Montant) <= 0 {
		return apperr.Validation("montant", "le montant doit être supérieur à 0")
	}
	if err := validateEnum("methode_paiement", in.MethodePaiement, models.MethodesPaiement); err != nil {
		return err
	}
	if in.Statut != "" {
		if err := validateEnum("statut", in.Statut, models.StatutsPaiement); err != nil {
			return err
		}
		p.Statut = in.Statut
	}

	p.ClientID = in.ClientID
	p.DossierID = in.DossierID
	p.FactureID = in.FactureID
	p.Montant = Round2(in.Montant)
	p.MethodePaiement = in.MethodePaiement
	p.ReferenceTransaction = in.ReferenceTransaction
	if in.DatePaiement != nil {
		p.DatePaiement = in.DatePaiement.Time
	}
	p.Notes = in.Notes
	return nil
}
