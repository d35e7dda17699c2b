package services

import (
	"context"
	"strings"

	"voyage-backend/internal/models"
)

type ClientService struct {
	Repo ClientStore
}

func NewClientService(repo ClientStore) *ClientService {
	return &ClientService{Repo: repo}
}

func (s *ClientService) CreateClient(ctx context.Context, in *models.ClientInput, createdBy *int) (*models.Client, error) {
	c := &models.Client{CreatedBy: createdBy, Documents: []models.Document{}}
	if err := applyClientInput(c, in); err != nil {
		return nil, err
	}
	if c.StatutEtudiant == "" {
		c.StatutEtudiant = "prospect"
	}
	if c.StatutPaiement == "" {
		c.StatutPaiement = "en_attente"
	}
	if err := s.Repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ClientService) GetClient(ctx context.Context, id int) (*models.Client, error) {
	return s.Repo.Get(ctx, id)
}

func (s *ClientService) ListClients(ctx context.Context, f models.ClientFilter) ([]*models.Client, error) {
	for field, v := range map[string]struct {
		value string
		valid []string
	}{
		"type_visa":       {f.TypeVisa, models.TypesVisa},
		"statut_etudiant": {f.StatutEtudiant, models.StatutsEtudiant},
		"statut_paiement": {f.StatutPaiement, models.StatutsPaiementClient},
	} {
		if v.value == "" {
			continue
		}
		if err := validateEnum(field, v.value, v.valid); err != nil {
			return nil, err
		}
	}
	f.Search = strings.TrimSpace(f.Search)
	return s.Repo.List(ctx, f)
}

// SearchClients matches q against name, email and phone
func (s *ClientService) SearchClients(ctx context.Context, q string, limit int) ([]*models.Client, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []*models.Client{}, nil
	}
	return s.Repo.List(ctx, models.ClientFilter{Search: q, Limit: limit})
}

func (s *ClientService) UpdateClient(ctx context.Context, id int, in *models.ClientInput) (*models.Client, error) {
	c, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyClientInput(c, in); err != nil {
		return nil, err
	}
	if err := s.Repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ClientService) DeleteClient(ctx context.Context, id int) error {
	if _, err := s.Repo.Get(ctx, id); err != nil {
		return err
	}
	return s.Repo.Delete(ctx, id)
}

func applyClientInput(c *models.Client, in *models.ClientInput) error {
	if in.TypeVisa != "" {
		if err := validateEnum("type_visa", in.TypeVisa, models.TypesVisa); err != nil {
			return err
		}
	}
	if in.StatutEtudiant != "" {
		if err := validateEnum("statut_etudiant", in.StatutEtudiant, models.StatutsEtudiant); err != nil {
			return err
		}
	}
	if in.StatutPaiement != "" {
		if err := validateEnum("statut_paiement", in.StatutPaiement, models.StatutsPaiementClient); err != nil {
			return err
		}
	}

	c.Nom = strings.TrimSpace(in.Nom)
	c.Prenom = strings.TrimSpace(in.Prenom)
	c.Email = normalizeEmail(in.Email)
	c.Telephone = strings.TrimSpace(in.Telephone)
	c.DateNaissance = nil
	if in.DateNaissance != nil {
		c.DateNaissance = in.DateNaissance.Ptr()
	}
	c.Nationalite = in.Nationalite
	c.NumeroPasseport = strings.ToUpper(strings.TrimSpace(in.NumeroPasseport))
	c.Adresse = in.Adresse
	c.PaysDestination = in.PaysDestination
	c.TypeVisa = in.TypeVisa
	if in.StatutEtudiant != "" {
		c.StatutEtudiant = in.StatutEtudiant
	}
	if in.StatutPaiement != "" {
		c.StatutPaiement = in.StatutPaiement
	}
	c.Notes = in.Notes
	return nil
}
