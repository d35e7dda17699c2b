package services

import (
	"context"
	"errors"
	"strings"

	"voyage-backend/internal/apperr"
	"voyage-backend/internal/models"
	"voyage-backend/internal/timeutil"
)

const dossierPrefix = "DV"

type DossierVoyageService struct {
	Repo    DossierStore
	Clients ClientStore
}

func NewDossierVoyageService(repo DossierStore, clients ClientStore) *DossierVoyageService {
	return &DossierVoyageService{Repo: repo, Clients: clients}
}

func (s *DossierVoyageService) CreateDossier(ctx context.Context, in *models.DossierVoyageInput, createdBy *int) (*models.DossierVoyage, error) {
	if _, err := s.Clients.Get(ctx, in.ClientID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Validation("client_id", "client inexistant")
		}
		return nil, err
	}

	d := &models.DossierVoyage{
		ClientID:  in.ClientID,
		Statut:    "en_preparation",
		Documents: []models.Document{},
		CreatedBy: createdBy,
	}
	if err := applyDossierInput(d, in); err != nil {
		return nil, err
	}

	year := timeutil.Now().Year()
	existing, err := s.Repo.ListNumerosForYear(ctx, year)
	if err != nil {
		return nil, err
	}
	d.NumeroDossier = FormatNumero(dossierPrefix, year, NextSequence(existing, dossierPrefix, year))

	err = s.Repo.Create(ctx, d)
	if errors.Is(err, apperr.ErrConflict) {
		d.NumeroDossier = FallbackNumero(dossierPrefix, year, timeutil.Now(), 0)
		err = s.Repo.Create(ctx, d)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DossierVoyageService) GetDossier(ctx context.Context, id int) (*models.DossierVoyage, error) {
	return s.Repo.Get(ctx, id)
}

func (s *DossierVoyageService) ListDossiers(ctx context.Context, f models.DossierFilter) ([]*models.DossierVoyage, error) {
	if f.Statut != "" {
		if err := validateEnum("statut", f.Statut, models.StatutsDossier); err != nil {
			return nil, err
		}
	}
	return s.Repo.List(ctx, f)
}

func (s *DossierVoyageService) UpdateDossier(ctx context.Context, id int, in *models.DossierVoyageInput) (*models.DossierVoyage, error) {
	d, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.ClientID != d.ClientID {
		if _, err := s.Clients.Get(ctx, in.ClientID); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, apperr.Validation("client_id", "client inexistant")
			}
			return nil, err
		}
		d.ClientID = in.ClientID
	}
	if err := applyDossierInput(d, in); err != nil {
		return nil, err
	}
	if err := s.Repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DossierVoyageService) DeleteDossier(ctx context.Context, id int) error {
	if _, err := s.Repo.Get(ctx, id); err != nil {
		return err
	}
	return s.Repo.Delete(ctx, id)
}

func applyDossierInput(d *models.DossierVoyage, in *models.DossierVoyageInput) error {
	typ := in.TypeVoyage
	if typ == "" {
		typ = "autre"
	}
	if err := validateEnum("type_voyage", typ, models.TypesVoyage); err != nil {
		return err
	}
	if in.Statut != "" {
		if err := validateEnum("statut", in.Statut, models.StatutsDossier); err != nil {
			return err
		}
		d.Statut = in.Statut
	}
	if in.Acompte > in.PrixTotal {
		return apperr.Validation("acompte", "l'acompte ne peut pas dépasser le prix total")
	}

	d.DateDepart, d.DateRetour = nil, nil
	if in.DateDepart != nil {
		d.DateDepart = in.DateDepart.Ptr()
	}
	if in.DateRetour != nil {
		d.DateRetour = in.DateRetour.Ptr()
	}
	if d.DateDepart != nil && d.DateRetour != nil && d.DateRetour.Before(*d.DateDepart) {
		return apperr.Validation("date_retour", "la date de retour précède la date de départ")
	}

	d.Destination = strings.TrimSpace(in.Destination)
	d.TypeVoyage = typ
	d.NombrePersonnes = in.NombrePersonnes
	if d.NombrePersonnes <= 0 {
		d.NombrePersonnes = 1
	}
	d.PrixTotal = Round2(in.PrixTotal)
	d.Acompte = Round2(in.Acompte)
	d.Solde = Round2(d.PrixTotal - d.Acompte)
	d.Notes = in.Notes
	return nil
}
