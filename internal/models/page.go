package models

import "time"

// Page names of the static catalog seeded by migration.
const (
	PageDashboard      = "dashboard"
	PageClients        = "clients"
	PageDossiersVoyage = "dossiers_voyage"
	PagePaiements      = "paiements"
	PageFactures       = "factures"
	PageDocuments      = "documents"
	PageUsers          = "users"
	PagePermissions    = "permissions"
)

type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
)

var Actions = []Action{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport}

func ParseAction(s string) (Action, bool) {
	for _, a := range Actions {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

func ActionNames() []string {
	names := make([]string, len(Actions))
	for i, a := range Actions {
		names[i] = string(a)
	}
	return names
}

type Page struct {
	ID          int    `json:"id"`
	Nom         string `json:"nom"`
	Libelle     string `json:"libelle"`
	Description string `json:"description"`
	Ordre       int    `json:"ordre"`
}

// UserPagePermission is unique per (user_id, page_id).
type UserPagePermission struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	PageID    int       `json:"page_id"`
	PageNom   string    `json:"page"`
	CanView   bool      `json:"can_view"`
	CanCreate bool      `json:"can_create"`
	CanEdit   bool      `json:"can_edit"`
	CanDelete bool      `json:"can_delete"`
	CanExport bool      `json:"can_export"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *UserPagePermission) Allows(a Action) bool {
	switch a {
	case ActionView:
		return p.CanView
	case ActionCreate:
		return p.CanCreate
	case ActionEdit:
		return p.CanEdit
	case ActionDelete:
		return p.CanDelete
	case ActionExport:
		return p.CanExport
	}
	return false
}

// FullAccess returns a row granting every action on page.
func FullAccess(userID int, page Page) UserPagePermission {
	return UserPagePermission{
		UserID:    userID,
		PageID:    page.ID,
		PageNom:   page.Nom,
		CanView:   true,
		CanCreate: true,
		CanEdit:   true,
		CanDelete: true,
		CanExport: true,
	}
}

// EffectivePermission is what a caller may do on a page, admin included.
type EffectivePermission struct {
	Page      string `json:"page"`
	Libelle   string `json:"libelle"`
	CanView   bool   `json:"can_view"`
	CanCreate bool   `json:"can_create"`
	CanEdit   bool   `json:"can_edit"`
	CanDelete bool   `json:"can_delete"`
	CanExport bool   `json:"can_export"`
}

type PagePermissionInput struct {
	Page      string `json:"page" validate:"required"`
	CanView   bool   `json:"can_view"`
	CanCreate bool   `json:"can_create"`
	CanEdit   bool   `json:"can_edit"`
	CanDelete bool   `json:"can_delete"`
	CanExport bool   `json:"can_export"`
}

type ReplacePermissionsRequest struct {
	Permissions []PagePermissionInput `json:"permissions" validate:"dive"`
}
