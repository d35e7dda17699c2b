package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"voyage-backend/internal/apperr"
	"voyage-backend/internal/logger"
	"voyage-backend/internal/models"
)

type PermissionService struct {
	Repo  PermissionStore
	Users UserStore
}

func NewPermissionService(repo PermissionStore, users UserStore) *PermissionService {
	return &PermissionService{Repo: repo, Users: users}
}

// HasPermission answers the page-permission contract. Admins always pass;
// anyone else needs a stored (user, page) row granting the action.
func (s *PermissionService) HasPermission(ctx context.Context, user *models.User, page string, action models.Action) (bool, error) {
	if user.IsAdmin() {
		return true, nil
	}
	perm, err := s.Repo.GetUserPermission(ctx, user.ID, page)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return perm.Allows(action), nil
}

// Check is HasPermission by user id with an unparsed action name
func (s *PermissionService) Check(ctx context.Context, userID int, page, action string) (bool, error) {
	a, ok := models.ParseAction(action)
	if !ok {
		return false, apperr.InvalidValue("action", action, models.ActionNames())
	}
	user, err := s.Users.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return s.HasPermission(ctx, user, page, a)
}

func (s *PermissionService) ListPages(ctx context.Context) ([]models.Page, error) {
	return s.Repo.ListPages(ctx)
}

func (s *PermissionService) ListUserPermissions(ctx context.Context, userID int) ([]models.UserPagePermission, error) {
	if _, err := s.Users.Get(ctx, userID); err != nil {
		return nil, err
	}
	return s.Repo.ListUserPermissions(ctx, userID)
}

// Effective lists every catalog page with what user may do on it.
func (s *PermissionService) Effective(ctx context.Context, user *models.User) ([]models.EffectivePermission, error) {
	pages, err := s.Repo.ListPages(ctx)
	if err != nil {
		return nil, err
	}

	byPage := map[string]models.UserPagePermission{}
	if !user.IsAdmin() {
		rows, err := s.Repo.ListUserPermissions(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			byPage[r.PageNom] = r
		}
	}

	out := make([]models.EffectivePermission, 0, len(pages))
	for _, p := range pages {
		e := models.EffectivePermission{Page: p.Nom, Libelle: p.Libelle}
		if user.IsAdmin() {
			e.CanView, e.CanCreate, e.CanEdit, e.CanDelete, e.CanExport = true, true, true, true, true
		} else if r, ok := byPage[p.Nom]; ok {
			e.CanView, e.CanCreate, e.CanEdit, e.CanDelete, e.CanExport = r.CanView, r.CanCreate, r.CanEdit, r.CanDelete, r.CanExport
		}
		out = append(out, e)
	}
	return out, nil
}

// Replace swaps the whole permission set of a user. The legacy array is
// regenerated from the rows that grant view.
func (s *PermissionService) Replace(ctx context.Context, userID int, inputs []models.PagePermissionInput) ([]models.UserPagePermission, error) {
	if _, err := s.Users.Get(ctx, userID); err != nil {
		return nil, err
	}
	pages, err := s.pagesByName(ctx)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	rows := make([]models.UserPagePermission, 0, len(inputs))
	var legacy []string
	for _, in := range inputs {
		name := strings.TrimSpace(in.Page)
		page, ok := pages[name]
		if !ok {
			return nil, apperr.InvalidValue("page", in.Page, pageNames(pages))
		}
		if seen[name] {
			return nil, apperr.Validation("page", fmt.Sprintf("page %q listed twice", name))
		}
		seen[name] = true

		rows = append(rows, models.UserPagePermission{
			UserID:    userID,
			PageID:    page.ID,
			PageNom:   page.Nom,
			CanView:   in.CanView,
			CanCreate: in.CanCreate,
			CanEdit:   in.CanEdit,
			CanDelete: in.CanDelete,
			CanExport: in.CanExport,
		})
		if in.CanView {
			legacy = append(legacy, page.Nom)
		}
	}

	if err := s.Repo.ReplaceUserPermissions(ctx, userID, rows, legacy); err != nil {
		return nil, err
	}
	return s.Repo.ListUserPermissions(ctx, userID)
}

// SyncLegacy expands a legacy page list into full-access rows, replacing
// whatever the user had. Unknown page names are dropped.
func (s *PermissionService) SyncLegacy(ctx context.Context, userID int, legacy []string) error {
	pages, err := s.pagesByName(ctx)
	if err != nil {
		return err
	}

	rows := make([]models.UserPagePermission, 0, len(legacy))
	kept := make([]string, 0, len(legacy))
	for _, name := range legacy {
		page, ok := pages[name]
		if !ok {
			logger.Component("permissions").Warn().
				Int("user_id", userID).
				Str("page", name).
				Msg("legacy permission names an unknown page, skipped")
			continue
		}
		rows = append(rows, models.FullAccess(userID, page))
		kept = append(kept, name)
	}
	return s.Repo.ReplaceUserPermissions(ctx, userID, rows, kept)
}

// SyncUser re-runs the legacy sync from the stored user record
func (s *PermissionService) SyncUser(ctx context.Context, userID int) ([]models.UserPagePermission, error) {
	user, err := s.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.SyncLegacy(ctx, userID, user.Permissions); err != nil {
		return nil, err
	}
	return s.Repo.ListUserPermissions(ctx, userID)
}

// SyncBestEffort runs SyncLegacy and only logs a failure. User CRUD must not
// fail because the permission table could not be regenerated.
func (s *PermissionService) SyncBestEffort(ctx context.Context, userID int, legacy []string) {
	if err := s.SyncLegacy(ctx, userID, legacy); err != nil {
		logger.Component("permissions").Warn().Err(err).
			Int("user_id", userID).
			Msg("page permission sync failed")
	}
}

func (s *PermissionService) pagesByName(ctx context.Context) (map[string]models.Page, error) {
	pages, err := s.Repo.ListPages(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]models.Page, len(pages))
	for _, p := range pages {
		m[p.Nom] = p
	}
	return m, nil
}

func pageNames(pages map[string]models.Page) []string {
	names := make([]string, 0, len(pages))
	for n := range pages {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
