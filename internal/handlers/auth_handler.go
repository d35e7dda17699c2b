package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"voyage-backend/internal/apperr"
	"voyage-backend/internal/logger"
	"voyage-backend/internal/middleware"
	"voyage-backend/internal/models"
	"voyage-backend/internal/services"
	"voyage-backend/pkg/utils"
)

// TokenRevoker denylists a token id until it expires
type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
}

type AuthHandler struct {
	Users    *services.UserService
	Revoker  TokenRevoker
	Sessions SessionLog
}

func NewAuthHandler(users *services.UserService, revoker TokenRevoker, sessions SessionLog) *AuthHandler {
	return &AuthHandler{Users: users, Revoker: revoker, Sessions: sessions}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.Users.Login(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrUnauthorized):
			utils.Error(w, http.StatusUnauthorized, "Email ou mot de passe incorrect", err)
		case errors.Is(err, apperr.ErrForbidden):
			utils.Error(w, http.StatusForbidden, "Compte désactivé, contactez un administrateur", err)
		default:
			writeError(w, r, err)
		}
		return
	}

	if h.Sessions != nil {
		if err := h.Sessions.RecordLogin(r.Context(), resp.User.ID, clientIP(r), r.UserAgent()); err != nil {
			logger.Component("auth").Warn().Err(err).Int("user_id", resp.User.ID).Msg("failed to record login")
		}
	}
	utils.Success(w, http.StatusOK, "Connexion réussie", resp)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.Users.Register(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusCreated, "Compte créé", resp)
}

// CreateAdmin bootstraps the first administrator account
func (h *AuthHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.Users.CreateAdmin(r.Context(), &req)
	if errors.Is(err, apperr.ErrForbidden) {
		utils.Error(w, http.StatusForbidden, "Un administrateur existe déjà", err)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusCreated, "Administrateur créé", resp)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	u, perms, err := h.Users.Me(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "", map[string]any{
		"user":        u,
		"permissions": perms,
	})
}

// Logout revokes the presented token. Without Redis the token simply
// lives until it expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if ok && h.Revoker != nil && claims.ExpiresAt != nil {
		if err := h.Revoker.RevokeToken(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			logger.Component("auth").Warn().Err(err).Int("user_id", claims.UserID).Msg("token revocation failed")
		}
	}
	if ok && h.Sessions != nil {
		if err := h.Sessions.RecordLogout(r.Context(), claims.UserID); err != nil {
			logger.Component("auth").Warn().Err(err).Int("user_id", claims.UserID).Msg("failed to record logout")
		}
	}
	utils.Success(w, http.StatusOK, "Déconnexion réussie", nil)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePasswordRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, _ := middleware.UserFromContext(r.Context())
	if err := h.Users.ChangePassword(r.Context(), user.ID, &req); err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "Mot de passe modifié", nil)
}
