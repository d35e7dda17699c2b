package handlers

import (
	"net/http"

	"voyage-backend/internal/models"
	"voyage-backend/internal/services"
	"voyage-backend/pkg/utils"
)

type PaiementHandler struct {
	Service *services.PaiementService
}

func NewPaiementHandler(s *services.PaiementService) *PaiementHandler {
	return &PaiementHandler{Service: s}
}

func (h *PaiementHandler) ListPaiements(w http.ResponseWriter, r *http.Request) {
	filter := models.PaiementFilter{Statut: r.URL.Query().Get("statut")}
	var err error
	if filter.ClientID, err = queryInt(r, "client_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.DossierID, err = queryInt(r, "dossier_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.FactureID, err = queryInt(r, "facture_id"); err != nil {
		writeError(w, r, err)
		return
	}
	filter.Limit, filter.Offset = pageParams(r)

	paiements, err := h.Service.ListPaiements(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "", paiements)
}

func (h *PaiementHandler) GetPaiement(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Service.GetPaiement(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "", p)
}

func (h *PaiementHandler) CreatePaiement(w http.ResponseWriter, r *http.Request) {
	var in models.PaiementInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Service.CreatePaiement(r.Context(), &in, actorID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusCreated, "Paiement enregistré", p)
}

func (h *PaiementHandler) UpdatePaiement(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in models.PaiementInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Service.UpdatePaiement(r.Context(), id, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "Paiement mis à jour", p)
}

func (h *PaiementHandler) ChangeStatut(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req models.StatutRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Service.ChangeStatut(r.Context(), id, req.Statut)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "Statut mis à jour", p)
}

func (h *PaiementHandler) DeletePaiement(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.DeletePaiement(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "Paiement supprimé", nil)
}
