package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"voyage-backend/internal/models"
	"voyage-backend/internal/pdf"
	"voyage-backend/internal/services"
	"voyage-backend/pkg/utils"
)

type FactureHandler struct {
	Service *services.FactureService
	// Agence is printed in the PDF header
	Agence string
}

func NewFactureHandler(s *services.FactureService, agence string) *FactureHandler {
	return &FactureHandler{Service: s, Agence: agence}
}

func (h *FactureHandler) ListFactures(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.FactureFilter{
		Statut:      q.Get("statut"),
		TypeFacture: q.Get("type_facture"),
	}
	if filter.TypeFacture == "" {
		filter.TypeFacture = q.Get("type")
	}
	var err error
	if filter.ClientID, err = queryInt(r, "client_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.DossierID, err = queryInt(r, "dossier_id"); err != nil {
		writeError(w, r, err)
		return
	}
	filter.Limit, filter.Offset = pageParams(r)

	factures, err := h.Service.ListFactures(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "", factures)
}

func (h *FactureHandler) GetFacture(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.Service.GetFacture(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "", f)
}

func (h *FactureHandler) CreateFacture(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFactureRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.Service.CreateFacture(r.Context(), &req, actorID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusCreated, "Facture créée", f)
}

func (h *FactureHandler) UpdateFacture(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req models.UpdateFactureRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.Service.UpdateFacture(r.Context(), id, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "Facture mise à jour", f)
}

func (h *FactureHandler) ChangeStatut(w http.ResponseWriter, r *http.Request) {
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
	f, err := h.Service.ChangeStatut(r.Context(), id, req.Statut)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "Statut mis à jour", f)
}

func (h *FactureHandler) DeleteFacture(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.DeleteFacture(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "Facture supprimée", nil)
}

// RecordPayment applies a payment to the invoice and optionally books the
// matching paiement row
func (h *FactureHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req models.RecordPaymentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Service.RecordPayment(r.Context(), id, &req, actorID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "Paiement enregistré", res)
}

func (h *FactureHandler) DuplicateFacture(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.Service.DuplicateFacture(r.Context(), id, actorID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusCreated, "Facture dupliquée", f)
}

func (h *FactureHandler) GenerateRecurring(w http.ResponseWriter, r *http.Request) {
	var req models.RecurringRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	factures, err := h.Service.GenerateRecurring(r.Context(), &req, actorID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusCreated, fmt.Sprintf("%d factures générées", len(factures)), factures)
}

func (h *FactureHandler) RecomputeStatut(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.Service.RecomputeStatut(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "Statut recalculé", f)
}

func (h *FactureHandler) RecomputeAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.RecomputeAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, fmt.Sprintf("%d factures mises à jour", n), map[string]int{"updated": n})
}

func (h *FactureHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "", stats)
}

// ExportPDF renders the invoice as a PDF attachment
func (h *FactureHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.Service.GetFacture(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := pdf.WriteFacture(&buf, f, h.Agence); err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, pdf.Filename(f)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
