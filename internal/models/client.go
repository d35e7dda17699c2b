package models

import "time"

var (
	TypesVisa = []string{"tourisme", "etudiant", "travail", "affaires", "transit", "regroupement_familial"}

	StatutsEtudiant = []string{"prospect", "inscrit", "admis", "en_cours", "diplome", "abandonne"}

	StatutsPaiementClient = []string{"en_attente", "partiel", "paye", "rembourse"}
)

type Client struct {
	ID              int        `json:"id"`
	Nom             string     `json:"nom"`
	Prenom          string     `json:"prenom"`
	Email           string     `json:"email"`
	Telephone       string     `json:"telephone"`
	DateNaissance   *time.Time `json:"date_naissance"`
	Nationalite     string     `json:"nationalite"`
	NumeroPasseport string     `json:"numero_passeport"`
	Adresse         string     `json:"adresse"`
	PaysDestination string     `json:"pays_destination"`
	TypeVisa        string     `json:"type_visa"`
	StatutEtudiant  string     `json:"statut_etudiant"`
	StatutPaiement  string     `json:"statut_paiement"`
	Notes           string     `json:"notes"`
	Documents       []Document `json:"documents"`
	CreatedBy       *int       `json:"created_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ClientInput is the body for both create and full update
type ClientInput struct {
	Nom             string `json:"nom" validate:"required,max=100"`
	Prenom          string `json:"prenom" validate:"required,max=100"`
	Email           string `json:"email" validate:"omitempty,email"`
	Telephone       string `json:"telephone" validate:"max=30"`
	DateNaissance   *Date  `json:"date_naissance"`
	Nationalite     string `json:"nationalite"`
	NumeroPasseport string `json:"numero_passeport"`
	Adresse         string `json:"adresse"`
	PaysDestination string `json:"pays_destination"`
	TypeVisa        string `json:"type_visa"`
	StatutEtudiant  string `json:"statut_etudiant"`
	StatutPaiement  string `json:"statut_paiement"`
	Notes           string `json:"notes"`
}

type ClientFilter struct {
	Search         string
	TypeVisa       string
	StatutEtudiant string
	StatutPaiement string
	Limit          int
	Offset         int
}
