package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyage-backend/internal/apperr"
	"voyage-backend/internal/models"
)

func newPermissionFixture(t *testing.T) (*PermissionService, *fakeUsers, *fakePermissions) {
	t.Helper()
	users := newFakeUsers(
		&models.User{ID: 1, Email: "admin@agence.fr", Role: models.RoleAdmin, IsActive: true},
		&models.User{ID: 2, Email: "agent@agence.fr", Role: models.RoleUser, IsActive: true},
	)
	perms := newFakePermissions(users)
	return NewPermissionService(perms, users), users, perms
}

func TestHasPermission_AdminAlwaysPasses(t *testing.T) {
	svc, users, _ := newPermissionFixture(t)
	admin, err := users.Get(context.Background(), 1)
	require.NoError(t, err)

	for _, page := range []string{models.PageFactures, models.PageUsers, "no_such_page"} {
		for _, action := range models.Actions {
			ok, err := svc.HasPermission(context.Background(), admin, page, action)
			require.NoError(t, err)
			assert.True(t, ok, "%s/%s", page, action)
		}
	}
}

func TestHasPermission_DefaultDeny(t *testing.T) {
	svc, users, perms := newPermissionFixture(t)
	ctx := context.Background()
	agent, _ := users.Get(ctx, 2)

	ok, err := svc.HasPermission(ctx, agent, models.PageClients, models.ActionView)
	require.NoError(t, err)
	assert.False(t, ok, "no row means no access")

	perms.grant(2, models.PageClients, models.ActionView)

	ok, _ = svc.HasPermission(ctx, agent, models.PageClients, models.ActionView)
	assert.True(t, ok)
	ok, _ = svc.HasPermission(ctx, agent, models.PageClients, models.ActionDelete)
	assert.False(t, ok)
	ok, _ = svc.HasPermission(ctx, agent, "unknown", models.ActionView)
	assert.False(t, ok)
}

func TestCheck_UnknownAction(t *testing.T) {
	svc, _, _ := newPermissionFixture(t)

	_, err := svc.Check(context.Background(), 2, models.PageClients, "approve")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Equal(t, models.ActionNames(), apperr.ValidValues(err))
}

func TestSyncLegacy_ExactlyNamedPagesGetFullAccess(t *testing.T) {
	svc, users, perms := newPermissionFixture(t)
	ctx := context.Background()
	perms.grant(2, models.PageUsers, models.ActionView)

	require.NoError(t, svc.SyncLegacy(ctx, 2, []string{"clients", "factures"}))

	rows, err := perms.ListUserPermissions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Contains(t, []string{"clients", "factures"}, r.PageNom)
		assert.True(t, r.CanView && r.CanCreate && r.CanEdit && r.CanDelete && r.CanExport, r.PageNom)
	}

	agent, _ := users.Get(ctx, 2)
	ok, _ := svc.HasPermission(ctx, agent, models.PageUsers, models.ActionView)
	assert.False(t, ok, "previous rows are replaced")
	assert.Equal(t, []string{"clients", "factures"}, agent.Permissions)
}

func TestSyncLegacy_SkipsUnknownPages(t *testing.T) {
	svc, users, perms := newPermissionFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.SyncLegacy(ctx, 2, []string{"clients", "reporting"}))

	rows, _ := perms.ListUserPermissions(ctx, 2)
	require.Len(t, rows, 1)
	assert.Equal(t, "clients", rows[0].PageNom)
	agent, _ := users.Get(ctx, 2)
	assert.Equal(t, []string{"clients"}, agent.Permissions)
}

func TestSyncBestEffort_SwallowsFailure(t *testing.T) {
	svc, _, perms := newPermissionFixture(t)
	perms.replaceErr = errors.New("connection reset")

	assert.NotPanics(t, func() {
		svc.SyncBestEffort(context.Background(), 2, []string{"clients"})
	})
}

func TestReplace_RegeneratesLegacyFromViewRows(t *testing.T) {
	svc, users, _ := newPermissionFixture(t)
	ctx := context.Background()

	rows, err := svc.Replace(ctx, 2, []models.PagePermissionInput{
		{Page: "clients", CanView: true, CanEdit: true},
		{Page: "factures", CanExport: true},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	agent, _ := users.Get(ctx, 2)
	assert.Equal(t, []string{"clients"}, agent.Permissions)

	ok, _ := svc.HasPermission(ctx, agent, models.PageFactures, models.ActionExport)
	assert.True(t, ok)
	ok, _ = svc.HasPermission(ctx, agent, models.PageFactures, models.ActionView)
	assert.False(t, ok)
}

func TestReplace_Rejects(t *testing.T) {
	svc, _, perms := newPermissionFixture(t)
	ctx := context.Background()
	perms.grant(2, models.PageClients, models.ActionView)

	_, err := svc.Replace(ctx, 2, []models.PagePermissionInput{{Page: "reporting", CanView: true}})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = svc.Replace(ctx, 2, []models.PagePermissionInput{{Page: "clients"}, {Page: "clients"}})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = svc.Replace(ctx, 99, nil)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	rows, _ := perms.ListUserPermissions(ctx, 2)
	assert.Len(t, rows, 1, "rejected replacements leave the rows untouched")
}

func TestEffective(t *testing.T) {
	svc, users, perms := newPermissionFixture(t)
	ctx := context.Background()
	perms.grant(2, models.PageClients, models.ActionView, models.ActionCreate)

	admin, _ := users.Get(ctx, 1)
	all, err := svc.Effective(ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, len(catalog()))
	for _, e := range all {
		assert.True(t, e.CanView && e.CanCreate && e.CanEdit && e.CanDelete && e.CanExport)
	}

	agent, _ := users.Get(ctx, 2)
	eff, err := svc.Effective(ctx, agent)
	require.NoError(t, err)
	for _, e := range eff {
		if e.Page == models.PageClients {
			assert.True(t, e.CanView)
			assert.True(t, e.CanCreate)
			assert.False(t, e.CanDelete)
		} else {
			assert.False(t, e.CanView, e.Page)
		}
	}
}
