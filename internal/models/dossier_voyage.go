package models

import "time"

var (
	TypesVoyage = []string{"etudes", "tourisme", "affaires", "pelerinage", "autre"}

	StatutsDossier = []string{"en_preparation", "confirme", "en_cours", "termine", "annule"}
)

type DossierVoyage struct {
	ID              int        `json:"id"`
	NumeroDossier   string     `json:"numero_dossier"`
	ClientID        int        `json:"client_id"`
	ClientNom       string     `json:"client_nom,omitempty"`
	Destination     string     `json:"destination"`
	TypeVoyage      string     `json:"type_voyage"`
	DateDepart      *time.Time `json:"date_depart"`
	DateRetour      *time.Time `json:"date_retour"`
	NombrePersonnes int        `json:"nombre_personnes"`
	PrixTotal       float64    `json:"prix_total"`
	Acompte         float64    `json:"acompte"`
	Solde           float64    `json:"solde"` // prix_total - acompte
	Statut          string     `json:"statut"`
	Notes           string     `json:"notes"`
	Documents       []Document `json:"documents"`
	CreatedBy       *int       `json:"created_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type DossierVoyageInput struct {
	ClientID        int     `json:"client_id" validate:"required,gt=0"`
	Destination     string  `json:"destination" validate:"required,max=150"`
	TypeVoyage      string  `json:"type_voyage"`
	DateDepart      *Date   `json:"date_depart"`
	DateRetour      *Date   `json:"date_retour"`
	NombrePersonnes int     `json:"nombre_personnes" validate:"gte=0"`
	PrixTotal       float64 `json:"prix_total" validate:"gte=0"`
	Acompte         float64 `json:"acompte" validate:"gte=0"`
	Statut          string  `json:"statut"`
	Notes           string  `json:"notes"`
}

type DossierFilter struct {
	ClientID *int
	Statut   string
	Limit    int
	Offset   int
}
