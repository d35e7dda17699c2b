package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"voyage-backend/internal/apperr"
	"voyage-backend/internal/auth"
	"voyage-backend/internal/logger"
	"voyage-backend/internal/metrics"
	"voyage-backend/internal/models"
	"voyage-backend/pkg/utils"
)

type contextKey string

const (
	userKey   contextKey = "user"
	claimsKey contextKey = "claims"
)

// UserLoader reloads the caller on every request so role and is_active
// changes apply immediately.
type UserLoader interface {
	Get(ctx context.Context, id int) (*models.User, error)
}

type PermissionChecker interface {
	HasPermission(ctx context.Context, user *models.User, page string, action models.Action) (bool, error)
}

type TokenDenylist interface {
	IsRevoked(ctx context.Context, jti string) bool
}

type AuthMiddleware struct {
	jwtManager  *auth.JWTManager
	users       UserLoader
	permissions PermissionChecker
	denylist    TokenDenylist
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, users UserLoader, permissions PermissionChecker, denylist TokenDenylist) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:  jwtManager,
		users:       users,
		permissions: permissions,
		denylist:    denylist,
	}
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// Authenticate is a middleware that validates JWT tokens
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "Token d'authentification requis", apperr.ErrUnauthorized)
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			utils.Error(w, http.StatusUnauthorized, "Token invalide ou expiré", apperr.ErrUnauthorized)
			return
		}
		if m.denylist != nil && m.denylist.IsRevoked(r.Context(), claims.ID) {
			utils.Error(w, http.StatusUnauthorized, "Token révoqué", apperr.ErrUnauthorized)
			return
		}

		user, err := m.users.Get(r.Context(), claims.UserID)
		if errors.Is(err, apperr.ErrNotFound) {
			utils.Error(w, http.StatusUnauthorized, "Utilisateur introuvable", apperr.ErrUnauthorized)
			return
		}
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "Erreur serveur", err)
			return
		}
		if !user.IsActive {
			utils.Error(w, http.StatusForbidden, "Compte désactivé", apperr.ErrForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin lets only admins through. Must run after Authenticate.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "Non authentifié", apperr.ErrUnauthorized)
			return
		}
		if !user.IsAdmin() {
			utils.Error(w, http.StatusForbidden, "Accès réservé aux administrateurs", apperr.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePage checks the caller may perform action on page. The 403 body
// names the missing permission.
func (m *AuthMiddleware) RequirePage(page string, action models.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				utils.Error(w, http.StatusUnauthorized, "Non authentifié", apperr.ErrUnauthorized)
				return
			}

			allowed, err := m.permissions.HasPermission(r.Context(), user, page, action)
			if err != nil {
				logger.Component("permissions").Error().Err(err).
					Int("user_id", user.ID).
					Str("page", page).
					Msg("permission lookup failed")
				utils.Error(w, http.StatusInternalServerError, "Erreur lors de la vérification des permissions", err)
				return
			}
			if !allowed {
				metrics.PermissionDenials.WithLabelValues(page, string(action)).Inc()
				utils.Error(w, http.StatusForbidden,
					fmt.Sprintf("Permission refusée: %s sur la page %s", action, page),
					fmt.Errorf("missing permission %s.%s", page, action))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser stores user in ctx the way Authenticate does
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}

// ClaimsFromContext returns the validated token claims
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// GetUserIDFromContext extracts user ID from request context
func GetUserIDFromContext(ctx context.Context) (int, bool) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return 0, false
	}
	return user.ID, true
}
