package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"voyage-backend/internal/models"
	"voyage-backend/internal/services"
	"voyage-backend/pkg/utils"
)

type DossierVoyageHandler struct {
	Service   *services.DossierVoyageService
	Documents *services.DocumentService
}

func NewDossierVoyageHandler(s *services.DossierVoyageService, docs *services.DocumentService) *DossierVoyageHandler {
	return &DossierVoyageHandler{Service: s, Documents: docs}
}

func (h *DossierVoyageHandler) ListDossiers(w http.ResponseWriter, r *http.Request) {
	clientID, err := queryInt(r, "client_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, offset := pageParams(r)
	dossiers, err := h.Service.ListDossiers(r.Context(), models.DossierFilter{
		ClientID: clientID,
		Statut:   r.URL.Query().Get("statut"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "", dossiers)
}

// ListByClient is ListDossiers scoped by the {id} path segment
func (h *DossierVoyageHandler) ListByClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	dossiers, err := h.Service.ListDossiers(r.Context(), models.DossierFilter{ClientID: &id})
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "", dossiers)
}

func (h *DossierVoyageHandler) GetDossier(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.Service.GetDossier(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "", d)
}

func (h *DossierVoyageHandler) CreateDossier(w http.ResponseWriter, r *http.Request) {
	var in models.DossierVoyageInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.Service.CreateDossier(r.Context(), &in, actorID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusCreated, "Dossier créé", d)
}

func (h *DossierVoyageHandler) UpdateDossier(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in models.DossierVoyageInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.Service.UpdateDossier(r.Context(), id, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "Dossier mis à jour", d)
}

func (h *DossierVoyageHandler) DeleteDossier(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.DeleteDossier(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "Dossier supprimé", nil)
}

func (h *DossierVoyageHandler) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	uploads, closeAll, err := openUploads(r, "documents")
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer closeAll()

	docs, err := h.Documents.AttachToDossier(r.Context(), id, uploads)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusCreated, "Documents ajoutés", docs)
}

func (h *DossierVoyageHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Documents.RemoveFromDossier(r.Context(), id, mux.Vars(r)["filename"]); err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "Document supprimé", nil)
}
