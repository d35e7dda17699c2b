package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"voyage-backend/internal/models"
	"voyage-backend/internal/services"
	"voyage-backend/pkg/utils"
)

type ClientHandler struct {
	Service   *services.ClientService
	Documents *services.DocumentService
}

func NewClientHandler(s *services.ClientService, docs *services.DocumentService) *ClientHandler {
	return &ClientHandler{Service: s, Documents: docs}
}

func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := pageParams(r)
	clients, err := h.Service.ListClients(r.Context(), models.ClientFilter{
		Search:         q.Get("search"),
		TypeVisa:       q.Get("type_visa"),
		StatutEtudiant: q.Get("statut_etudiant"),
		StatutPaiement: q.Get("statut_paiement"),
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "", clients)
}

// SearchClients matches q against names, email and phone
func (h *ClientHandler) SearchClients(w http.ResponseWriter, r *http.Request) {
	limit, _ := pageParams(r)
	clients, err := h.Service.SearchClients(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "", clients)
}

func (h *ClientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	client, err := h.Service.GetClient(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "", client)
}

func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var in models.ClientInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	client, err := h.Service.CreateClient(r.Context(), &in, actorID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusCreated, "Client créé", client)
}

func (h *ClientHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in models.ClientInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	client, err := h.Service.UpdateClient(r.Context(), id, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "Client mis à jour", client)
}

func (h *ClientHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.DeleteClient(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "Client supprimé", nil)
}

// UploadDocuments appends the PDFs of the documents field to the client
func (h *ClientHandler) UploadDocuments(w http.ResponseWriter, r *http.Request) {
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

	docs, err := h.Documents.AttachToClient(r.Context(), id, uploads)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusCreated, "Documents ajoutés", docs)
}

func (h *ClientHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Documents.RemoveFromClient(r.Context(), id, mux.Vars(r)["filename"]); err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "Document supprimé", nil)
}
