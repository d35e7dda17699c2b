package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyage-backend/internal/apperr"
	"voyage-backend/internal/auth"
	"voyage-backend/internal/config"
	"voyage-backend/internal/models"
)

func newUserFixture(t *testing.T) (*UserService, *fakeUsers, *fakePermissions) {
	t.Helper()
	var cfg config.Config
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Issuer = "voyage-backend"
	cfg.JWT.ExpirationHours = 1

	users := newFakeUsers()
	perms := newFakePermissions(users)
	svc := NewUserService(users, NewPermissionService(perms, users), auth.NewJWTManager(&cfg))
	return svc, users, perms
}

func register(t *testing.T, svc *UserService, email string) *models.AuthResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), &models.RegisterRequest{
		Nom: "Diallo", Prenom: "Awa", Email: email, Password: "motdepasse",
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	ctx := context.Background()

	resp := register(t, svc, "  Awa@Agence.FR ")
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "awa@agence.fr", resp.User.Email)
	assert.Equal(t, models.RoleUser, resp.User.Role)
	for _, p := range resp.Permissions {
		assert.False(t, p.CanView, "new users have no page access")
	}

	_, err := svc.Register(ctx, &models.RegisterRequest{Nom: "X", Prenom: "Y", Email: "awa@agence.fr", Password: "motdepasse"})
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	login, err := svc.Login(ctx, &models.LoginRequest{Email: "AWA@agence.fr", Password: "motdepasse"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = svc.Login(ctx, &models.LoginRequest{Email: "awa@agence.fr", Password: "wrong"})
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
	_, err = svc.Login(ctx, &models.LoginRequest{Email: "nobody@agence.fr", Password: "motdepasse"})
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestLogin_InactiveUserForbidden(t *testing.T) {
	svc, users, _ := newUserFixture(t)
	resp := register(t, svc, "awa@agence.fr")
	require.NoError(t, users.SetActive(context.Background(), resp.User.ID, false))

	_, err := svc.Login(context.Background(), &models.LoginRequest{Email: "awa@agence.fr", Password: "motdepasse"})
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
}

func TestCreateAdmin_OnlyWhileNoAdmin(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	ctx := context.Background()
	req := &models.RegisterRequest{Nom: "Admin", Prenom: "Root", Email: "admin@agence.fr", Password: "motdepasse"}

	resp, err := svc.CreateAdmin(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
	for _, p := range resp.Permissions {
		assert.True(t, p.CanView && p.CanExport)
	}

	req.Email = "second@agence.fr"
	_, err = svc.CreateAdmin(ctx, req)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
}

func TestCreateUser_CoercesAndSyncsPermissions(t *testing.T) {
	svc, _, perms := newUserFixture(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, &models.CreateUserRequest{
		Nom: "Ba", Prenom: "Moussa", Email: "moussa@agence.fr", Password: "motdepasse",
		Permissions: json.RawMessage(`"clients,factures"`),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.Equal(t, []string{"clients", "factures"}, u.Permissions)

	rows, _ := perms.ListUserPermissions(ctx, u.ID)
	assert.Len(t, rows, 2)
}

func TestCreateUser_SyncFailureDoesNotFail(t *testing.T) {
	svc, _, perms := newUserFixture(t)
	perms.replaceErr = errors.New("deadlock detected")

	u, err := svc.CreateUser(context.Background(), &models.CreateUserRequest{
		Nom: "Ba", Prenom: "Moussa", Email: "moussa@agence.fr", Password: "motdepasse",
		Permissions: json.RawMessage(`["clients"]`),
	})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
}

func TestUpdateUser(t *testing.T) {
	svc, users, perms := newUserFixture(t)
	ctx := context.Background()
	resp := register(t, svc, "awa@agence.fr")
	id := resp.User.ID

	nom := "Sow"
	pw := "nouveaumotdepasse"
	u, err := svc.UpdateUser(ctx, id, &models.UpdateUserRequest{
		Nom:         &nom,
		Password:    &pw,
		Permissions: json.RawMessage(`{"paiements":true}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Sow", u.Nom)

	stored, _ := users.Get(ctx, id)
	assert.True(t, auth.VerifyPassword(stored.PasswordHash, pw))
	assert.Equal(t, []string{"paiements"}, stored.Permissions)
	rows, _ := perms.ListUserPermissions(ctx, id)
	require.Len(t, rows, 1)
	assert.Equal(t, "paiements", rows[0].PageNom)

	_, err = svc.UpdateUser(ctx, 404, &models.UpdateUserRequest{Nom: &nom})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestDeleteAndToggle_RefuseSelf(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	ctx := context.Background()
	a := register(t, svc, "a@agence.fr").User
	b := register(t, svc, "b@agence.fr").User

	assert.True(t, errors.Is(svc.DeleteUser(ctx, a.ID, a.ID), apperr.ErrBusinessRule))
	_, err := svc.ToggleActive(ctx, a.ID, a.ID)
	assert.True(t, errors.Is(err, apperr.ErrBusinessRule))

	toggled, err := svc.ToggleActive(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	require.NoError(t, svc.DeleteUser(ctx, a.ID, b.ID))
	_, err = svc.GetUser(ctx, b.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	ctx := context.Background()
	u := register(t, svc, "awa@agence.fr").User

	err := svc.ChangePassword(ctx, u.ID, &models.ChangePasswordRequest{CurrentPassword: "bad", NewPassword: "autremotdepasse"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	require.NoError(t, svc.ChangePassword(ctx, u.ID, &models.ChangePasswordRequest{CurrentPassword: "motdepasse", NewPassword: "autremotdepasse"}))
	_, err = svc.Login(ctx, &models.LoginRequest{Email: "awa@agence.fr", Password: "autremotdepasse"})
	assert.NoError(t, err)
}
