package services

import (
	"context"
	"errors"
	"strings"

	"voyage-backend/internal/apperr"
	"voyage-backend/internal/auth"
	"voyage-backend/internal/logger"
	"voyage-backend/internal/models"
)

type UserService struct {
	Repo        UserStore
	Permissions *PermissionService
	JWTManager  *auth.JWTManager
}

func NewUserService(repo UserStore, permissions *PermissionService, jwtManager *auth.JWTManager) *UserService {
	return &UserService{
		Repo:        repo,
		Permissions: permissions,
		JWTManager:  jwtManager,
	}
}

func (s *UserService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Nom:          strings.TrimSpace(req.Nom),
		Prenom:       strings.TrimSpace(req.Prenom),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		Role:         req.Role,
		Permissions:  models.CoercePermissions(req.Permissions),
		IsActive:     true,
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.Repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.Permissions.SyncBestEffort(ctx, user.ID, user.Permissions)
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	return s.Repo.Get(ctx, id)
}

// ListUsers returns all users
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.Repo.List(ctx)
}

// UpdateUser applies the present fields. A new permissions value is coerced
// and re-synchronised into the page table after the user row is saved.
func (s *UserService) UpdateUser(ctx context.Context, id int, req *models.UpdateUserRequest) (*models.User, error) {
	user, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Nom != nil {
		user.Nom = strings.TrimSpace(*req.Nom)
	}
	if req.Prenom != nil {
		user.Prenom = strings.TrimSpace(*req.Prenom)
	}
	if req.Email != nil {
		user.Email = normalizeEmail(*req.Email)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	permsChanged := len(req.Permissions) > 0
	if permsChanged {
		user.Permissions = models.CoercePermissions(req.Permissions)
	}

	if err := s.Repo.Update(ctx, user); err != nil {
		return nil, err
	}

	if req.Password != nil && *req.Password != "" {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		if err := s.Repo.UpdatePassword(ctx, id, hash); err != nil {
			return nil, err
		}
	}

	if permsChanged {
		s.Permissions.SyncBestEffort(ctx, user.ID, user.Permissions)
	}
	return user, nil
}

// DeleteUser deletes a user. Nobody may delete their own account.
func (s *UserService) DeleteUser(ctx context.Context, actorID, id int) error {
	if actorID == id {
		return apperr.Business("vous ne pouvez pas supprimer votre propre compte")
	}
	if _, err := s.Repo.Get(ctx, id); err != nil {
		return err
	}
	return s.Repo.Delete(ctx, id)
}

// ToggleActive flips is_active and returns the new value
func (s *UserService) ToggleActive(ctx context.Context, actorID, id int) (*models.User, error) {
	if actorID == id {
		return nil, apperr.Business("vous ne pouvez pas désactiver votre propre compte")
	}
	user, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user.IsActive = !user.IsActive
	if err := s.Repo.SetActive(ctx, id, user.IsActive); err != nil {
		return nil, err
	}
	return user, nil
}

// Register creates a regular user with no page access and signs them in
func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	return s.signup(ctx, req, models.RoleUser)
}

// CreateAdmin bootstraps the first administrator. Once an admin exists the
// endpoint is closed.
func (s *UserService) CreateAdmin(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	n, err := s.Repo.CountAdmins(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, apperr.ErrForbidden
	}
	return s.signup(ctx, req, models.RoleAdmin)
}

func (s *UserService) signup(ctx context.Context, req *models.RegisterRequest, role string) (*models.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("un utilisateur avec cet email existe déjà", nil)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Nom:          strings.TrimSpace(req.Nom),
		Prenom:       strings.TrimSpace(req.Prenom),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Permissions:  []string{},
		IsActive:     true,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.authResponse(ctx, user)
}

// Login authenticates a user and returns a JWT token
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.Repo.GetByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, apperr.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, apperr.ErrForbidden
	}

	if err := s.Repo.TouchLastLogin(ctx, user.ID); err != nil {
		logger.Component("auth").Warn().Err(err).Int("user_id", user.ID).Msg("could not record last login")
	}
	return s.authResponse(ctx, user)
}

func (s *UserService) ChangePassword(ctx context.Context, userID int, req *models.ChangePasswordRequest) error {
	user, err := s.Repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(user.PasswordHash, req.CurrentPassword) {
		return apperr.Validation("current_password", "mot de passe actuel incorrect")
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.Repo.UpdatePassword(ctx, userID, hash)
}

// Me returns the caller with their effective permissions
func (s *UserService) Me(ctx context.Context, userID int) (*models.User, []models.EffectivePermission, error) {
	user, err := s.Repo.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	perms, err := s.Permissions.Effective(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, perms, nil
}

func (s *UserService) authResponse(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	perms, err := s.Permissions.Effective(ctx, user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{
		Token:       token,
		User:        user,
		Permissions: perms,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
