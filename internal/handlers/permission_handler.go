package handlers

import (
	"net/http"

	"voyage-backend/internal/apperr"
	"voyage-backend/internal/middleware"
	"voyage-backend/internal/models"
	"voyage-backend/internal/services"
	"voyage-backend/pkg/utils"
)

type PermissionHandler struct {
	Service *services.PermissionService
}

func NewPermissionHandler(s *services.PermissionService) *PermissionHandler {
	return &PermissionHandler{Service: s}
}

func (h *PermissionHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.Service.ListPages(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "", pages)
}

// Me lists what the caller may do on every page
func (h *PermissionHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	perms, err := h.Service.Effective(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "", perms)
}

func (h *PermissionHandler) Check(w http.ResponseWriter, r *http.Request) {
	page := r.URL.Query().Get("page")
	action := r.URL.Query().Get("action")
	if page == "" {
		writeError(w, r, apperr.Validation("page", "paramètre obligatoire"))
		return
	}
	if action == "" {
		action = string(models.ActionView)
	}

	user, _ := middleware.UserFromContext(r.Context())
	a, ok := models.ParseAction(action)
	if !ok {
		writeError(w, r, apperr.InvalidValue("action", action, models.ActionNames()))
		return
	}
	allowed, err := h.Service.HasPermission(r.Context(), user, page, a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "", map[string]any{
		"page":    page,
		"action":  action,
		"allowed": allowed,
	})
}

func (h *PermissionHandler) UserPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	perms, err := h.Service.ListUserPermissions(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "", perms)
}

// Replace swaps the whole permission set of a user
func (h *PermissionHandler) Replace(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req models.ReplacePermissionsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	perms, err := h.Service.Replace(r.Context(), id, req.Permissions)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "Permissions mises à jour", perms)
}

func (h *PermissionHandler) Sync(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	perms, err := h.Service.SyncUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "Permissions synchronisées", perms)
}
