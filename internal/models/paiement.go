package models

import "time"

const (
	PaiementEnAttente = "en_attente"
	PaiementConfirme  = "confirme"
	PaiementAnnule    = "annule"
	PaiementRembourse = "rembourse"
)

var (
	StatutsPaiement = []string{PaiementEnAttente, PaiementConfirme, PaiementAnnule, PaiementRembourse}

	MethodesPaiement = []string{"especes", "virement", "carte", "cheque", "mobile_money"}
)

type Paiement struct {
	ID                   int       `json:"id"`
	ClientID             int       `json:"client_id"`
	ClientNom            string    `json:"client_nom,omitempty"`
	DossierID            *int      `json:"dossier_id"`
	FactureID            *int      `json:"facture_id"`
	Montant              float64   `json:"montant"`
	MethodePaiement      string    `json:"methode_paiement"`
	ReferenceTransaction string    `json:"reference_transaction"`
	DatePaiement         time.Time `json:"date_paiement"`
	Statut               string    `json:"statut"`
	Notes                string    `json:"notes"`
	CreatedBy            *int      `json:"created_by,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type PaiementInput struct {
	ClientID             int     `json:"client_id" validate:"required,gt=0"`
	DossierID            *int    `json:"dossier_id"`
	FactureID            *int    `json:"facture_id"`
	Montant              float64 `json:"montant" validate:"gt=0"`
	MethodePaiement      string  `json:"methode_paiement"`
	ReferenceTransaction string  `json:"reference_transaction" validate:"max=100"`
	DatePaiement         *Date   `json:"date_paiement"`
	Statut               string  `json:"statut"`
	Notes                string  `json:"notes"`
}

type PaiementFilter struct {
	ClientID  *int
	DossierID *int
	FactureID *int
	Statut    string
	Limit     int
	Offset    int
}

type StatutRequest struct {
	Statut string `json:"statut" validate:"required"`
}
