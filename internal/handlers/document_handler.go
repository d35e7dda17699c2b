package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"voyage-backend/internal/apperr"
	"voyage-backend/internal/services"
	"voyage-backend/pkg/utils"
)

type DocumentHandler struct {
	Service *services.DocumentService
}

func NewDocumentHandler(s *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{Service: s}
}

// formInt parses an optional positive id from the multipart form values
func formInt(r *http.Request, name string) (*int, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return nil, apperr.Validation(name, fmt.Sprintf("identifiant invalide %q", raw))
	}
	return &n, nil
}

func (h *DocumentHandler) upload(w http.ResponseWriter, r *http.Request, field string) {
	clientID, err := formInt(r, "client_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	dossierID, err := formInt(r, "dossier_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	uploads, closeAll, err := openUploads(r, field)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer closeAll()

	stored, err := h.Service.Upload(r.Context(), clientID, dossierID, uploads)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusCreated, fmt.Sprintf("%d document(s) enregistré(s)", len(stored)), stored)
}

// Upload stores the single document_pdf part
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "document_pdf")
}

func (h *DocumentHandler) UploadMultiple(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "documents")
}

func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	rc, name, err := h.Service.Open(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, name))
	w.WriteHeader(http.StatusOK)
	io.Copy(w, rc)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), r.URL.Query().Get("path")); err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "Document supprimé", nil)
}
