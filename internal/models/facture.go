package models

import "time"

const (
	FactureBrouillon          = "brouillon"
	FactureEnvoyee            = "envoyee"
	FacturePayeePartiellement = "payee_partiellement"
	FacturePayee              = "payee"
	FactureAnnulee            = "annulee"
	// FactureNonPayee is only written by the confirmed-payment recompute
	FactureNonPayee = "non_payee"
)

const (
	TypeStandard = "standard"
	TypeAcompte  = "acompte"
	TypeEcheance = "echeance"
	TypeSolde    = "solde"
	TypeDevis    = "devis"
)

const (
	FrequenceMensuelle     = "mensuelle"
	FrequenceTrimestrielle = "trimestrielle"
)

var (
	StatutsFacture = []string{FactureBrouillon, FactureEnvoyee, FacturePayeePartiellement, FacturePayee, FactureAnnulee}

	TypesFacture = []string{TypeStandard, TypeAcompte, TypeEcheance, TypeSolde, TypeDevis}

	Frequences = []string{FrequenceMensuelle, FrequenceTrimestrielle}
)

type Facture struct {
	ID                  int            `json:"id"`
	NumeroFacture       string         `json:"numero_facture"`
	ClientID            int            `json:"client_id"`
	ClientNom           string         `json:"client_nom,omitempty"`
	DossierID           *int           `json:"dossier_id"`
	TypeFacture         string         `json:"type_facture"`
	Statut              string         `json:"statut"`
	DateEmission        time.Time      `json:"date_emission"`
	DateEcheance        *time.Time     `json:"date_echeance"`
	MontantHT           float64        `json:"montant_ht"`
	TauxTVA             float64        `json:"taux_tva"`
	MontantTVA          float64        `json:"montant_tva"`
	MontantTTC          float64        `json:"montant_ttc"`
	Remise              float64        `json:"remise"`
	MontantFinal        float64        `json:"montant_final"`
	MontantPaye         float64        `json:"montant_paye"`
	MontantRestant      float64        `json:"montant_restant"`
	DatePaiementComplet *time.Time     `json:"date_paiement_complet"`
	NumeroEcheance      *int           `json:"numero_echeance,omitempty"`
	NombreEcheances     *int           `json:"nombre_echeances,omitempty"`
	Description         string         `json:"description"`
	ConditionsPaiement  string         `json:"conditions_paiement"`
	Notes               string         `json:"notes"`
	CreatedBy           *int           `json:"created_by,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	Lignes              []LigneFacture `json:"lignes,omitempty"`
}

type LigneFacture struct {
	ID           int     `json:"id"`
	FactureID    int     `json:"facture_id"`
	Description  string  `json:"description"`
	Quantite     float64 `json:"quantite"`
	PrixUnitaire float64 `json:"prix_unitaire"`
	Montant      float64 `json:"montant"`
	Ordre        int     `json:"ordre"`
}

type LigneInput struct {
	Description  string  `json:"description" validate:"required,max=255"`
	Quantite     float64 `json:"quantite" validate:"gt=0"`
	PrixUnitaire float64 `json:"prix_unitaire" validate:"gte=0"`
}

type CreateFactureRequest struct {
	ClientID           int          `json:"client_id" validate:"required,gt=0"`
	DossierID          *int         `json:"dossier_id"`
	TypeFacture        string       `json:"type_facture"`
	DateEmission       *Date        `json:"date_emission"`
	DateEcheance       *Date        `json:"date_echeance"`
	MontantHT          float64      `json:"montant_ht" validate:"gte=0"`
	TauxTVA            *float64     `json:"taux_tva" validate:"omitempty,gte=0,lte=100"`
	Remise             float64      `json:"remise" validate:"gte=0"`
	Description        string       `json:"description"`
	ConditionsPaiement string       `json:"conditions_paiement"`
	Notes              string       `json:"notes"`
	Lignes             []LigneInput `json:"lignes" validate:"dive"`
}

// UpdateFactureRequest applies only the fields present. Amount fields
// (montant_ht, taux_tva, remise, lignes) are locked once the invoice leaves
// brouillon; montant_paye and montant_restant are always patchable.
type UpdateFactureRequest struct {
	TypeFacture        *string       `json:"type_facture,omitempty"`
	DateEcheance       *Date         `json:"date_echeance,omitempty"`
	MontantHT          *float64      `json:"montant_ht,omitempty" validate:"omitempty,gte=0"`
	TauxTVA            *float64      `json:"taux_tva,omitempty" validate:"omitempty,gte=0,lte=100"`
	Remise             *float64      `json:"remise,omitempty" validate:"omitempty,gte=0"`
	MontantPaye        *float64      `json:"montant_paye,omitempty" validate:"omitempty,gte=0"`
	MontantRestant     *float64      `json:"montant_restant,omitempty"`
	Description        *string       `json:"description,omitempty"`
	ConditionsPaiement *string       `json:"conditions_paiement,omitempty"`
	Notes              *string       `json:"notes,omitempty"`
	Lignes             *[]LigneInput `json:"lignes,omitempty" validate:"omitempty,dive"`
}

func (r *UpdateFactureRequest) TouchesAmounts() bool {
	return r.MontantHT != nil || r.TauxTVA != nil || r.Remise != nil || r.Lignes != nil
}

type RecordPaymentRequest struct {
	Montant              float64 `json:"montant"`
	MethodePaiement      string  `json:"methode_paiement"`
	ReferenceTransaction string  `json:"reference_transaction" validate:"max=100"`
	DatePaiement         *Date   `json:"date_paiement"`
	Notes                string  `json:"notes"`
	CreerPaiement        bool    `json:"creer_paiement"`
}

type RecurringRequest struct {
	ClientID        int      `json:"client_id" validate:"required,gt=0"`
	DossierID       *int     `json:"dossier_id"`
	MontantTotal    float64  `json:"montant_total" validate:"gt=0"`
	NombreEcheances int      `json:"nombre_echeances"`
	Frequence       string   `json:"frequence"`
	DateDebut       *Date    `json:"date_debut"`
	TauxTVA         *float64 `json:"taux_tva" validate:"omitempty,gte=0,lte=100"`
	Description     string   `json:"description"`
}

type FactureFilter struct {
	Statut      string
	TypeFacture string
	ClientID    *int
	DossierID   *int
	Limit       int
	Offset      int
}

type FactureStats struct {
	Statut         string  `json:"statut"`
	Nombre         int     `json:"nombre"`
	MontantFinal   float64 `json:"montant_final"`
	MontantPaye    float64 `json:"montant_paye"`
	MontantRestant float64 `json:"montant_restant"`
}

// PaymentResult is returned by the record-payment endpoint
type PaymentResult struct {
	Facture  *Facture  `json:"facture"`
	Paiement *Paiement `json:"paiement,omitempty"`
}
