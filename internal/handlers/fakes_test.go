package handlers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"voyage-backend/internal/apperr"
	"voyage-backend/internal/models"
	"voyage-backend/internal/services"
)

type fakeClients struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]*models.Client
}

func newFakeClients() *fakeClients {
	return &fakeClients{rows: map[int]*models.Client{}}
}

func (f *fakeClients) Create(_ context.Context, c *models.Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = f.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	f.rows[c.ID] = &cp
	return nil
}

func (f *fakeClients) Get(_ context.Context, id int) (*models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok {
		return nil, apperr.NotFound("client", id)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeClients) List(_ context.Context, _ models.ClientFilter) ([]*models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Client, 0, len(f.rows))
	for _, c := range f.rows {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeClients) Update(_ context.Context, c *models.Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[c.ID]; !ok {
		return apperr.NotFound("client", c.ID)
	}
	cp := *c
	f.rows[c.ID] = &cp
	return nil
}

func (f *fakeClients) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return apperr.NotFound("client", id)
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeClients) AppendDocuments(_ context.Context, id int, docs []models.Document) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok {
		return nil, apperr.NotFound("client", id)
	}
	c.Documents = append(c.Documents, docs...)
	return c.Documents, nil
}

func (f *fakeClients) RemoveDocument(_ context.Context, id int, filename string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok {
		return nil, apperr.NotFound("client", id)
	}
	for i, d := range c.Documents {
		if d.Filename == filename {
			c.Documents = append(c.Documents[:i], c.Documents[i+1:]...)
			return &d, nil
		}
	}
	return nil, apperr.NotFound("document", filename)
}

// fakePermissions grants rows keyed by page name to every user
type fakePermissions struct {
	rows map[string]models.UserPagePermission
}

func (f fakePermissions) ListPages(context.Context) ([]models.Page, error) {
	return []models.Page{{ID: 1, Nom: "clients", Libelle: "Clients"}, {ID: 2, Nom: "factures", Libelle: "Factures"}}, nil
}

func (f fakePermissions) GetUserPermission(_ context.Context, userID int, page string) (*models.UserPagePermission, error) {
	p, ok := f.rows[page]
	if !ok {
		return nil, apperr.NotFound("permission", page)
	}
	p.UserID = userID
	return &p, nil
}

func (f fakePermissions) ListUserPermissions(context.Context, int) ([]models.UserPagePermission, error) {
	out := make([]models.UserPagePermission, 0, len(f.rows))
	for _, p := range f.rows {
		out = append(out, p)
	}
	return out, nil
}

func (f fakePermissions) ReplaceUserPermissions(context.Context, int, []models.UserPagePermission, []string) error {
	return nil
}

// factureReader serves Get from a single invoice. Other methods are not
// used by the tests and panic through the nil embedded interface.
type factureReader struct {
	services.FactureStore
	f *models.Facture
}

func (r factureReader) Get(_ context.Context, id int) (*models.Facture, error) {
	if r.f == nil || r.f.ID != id {
		return nil, apperr.NotFound("facture", id)
	}
	cp := *r.f
	return &cp, nil
}

type fakeUsers struct {
	mu   sync.Mutex
	rows map[int]*models.User
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{rows: map[int]*models.User{}}
	for _, u := range users {
		f.rows[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = len(f.rows) + 1
	f.rows[u.ID] = u
	return nil
}

func (f *fakeUsers) Get(_ context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return nil, apperr.NotFound("user", id)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("user", email)
}

func (f *fakeUsers) List(context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.User, 0, len(f.rows))
	for _, u := range f.rows {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUsers) Update(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[u.ID] = u
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id int, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[id].PasswordHash = hash
	return nil
}

func (f *fakeUsers) SetActive(_ context.Context, id int, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[id].IsActive = active
	return nil
}

func (f *fakeUsers) TouchLastLogin(context.Context, int) error { return nil }

func (f *fakeUsers) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeUsers) CountAdmins(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.rows {
		if u.IsAdmin() {
			n++
		}
	}
	return n, nil
}

type fakeSessions struct {
	logins  []string
	logouts []int
}

func (f *fakeSessions) RecordLogin(_ context.Context, userID int, ip, _ string) error {
	f.logins = append(f.logins, fmt.Sprintf("%d@%s", userID, ip))
	return nil
}

func (f *fakeSessions) RecordLogout(_ context.Context, userID int) error {
	f.logouts = append(f.logouts, userID)
	return nil
}

func (f *fakeSessions) List(_ context.Context, filter models.LoginLogFilter) ([]*models.LoginLog, error) {
	out := []*models.LoginLog{}
	for i := range f.logins {
		out = append(out, &models.LoginLog{ID: i + 1})
	}
	return out, nil
}

type fakeRevoker struct {
	revoked map[string]time.Time
}

func (f *fakeRevoker) RevokeToken(_ context.Context, jti string, expiresAt time.Time) error {
	if f.revoked == nil {
		f.revoked = map[string]time.Time{}
	}
	f.revoked[jti] = expiresAt
	return nil
}
