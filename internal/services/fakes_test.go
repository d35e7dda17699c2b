package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"voyage-backend/internal/apperr"
	"voyage-backend/internal/models"
)

type fakeUsers struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*models.User
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{users: map[int]*models.User{}}
	for _, u := range users {
		f.nextID++
		if u.ID == 0 {
			u.ID = f.nextID
		}
		f.users[u.ID] = u
		if u.ID > f.nextID {
			f.nextID = u.ID
		}
	}
	return f
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.Permissions = append([]string(nil), u.Permissions...)
	return &c
}

func (f *fakeUsers) Create(ctx context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return apperr.Conflict("email already used", nil)
		}
	}
	f.nextID++
	u.ID = f.nextID
	f.users[u.ID] = copyUser(u)
	return nil
}

func (f *fakeUsers) Get(ctx context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperr.NotFound("user", id)
	}
	return copyUser(u), nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, apperr.NotFound("user", email)
}

func (f *fakeUsers) List(ctx context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, copyUser(u))
	}
	return out, nil
}

func (f *fakeUsers) Update(ctx context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.users[u.ID]
	if !ok {
		return apperr.NotFound("user", u.ID)
	}
	c := copyUser(u)
	c.PasswordHash = existing.PasswordHash
	f.users[u.ID] = c
	return nil
}

func (f *fakeUsers) UpdatePassword(ctx context.Context, id int, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperr.NotFound("user", id)
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUsers) SetActive(ctx context.Context, id int, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperr.NotFound("user", id)
	}
	u.IsActive = active
	return nil
}

func (f *fakeUsers) TouchLastLogin(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		now := time.Now()
		u.LastLogin = &now
	}
	return nil
}

func (f *fakeUsers) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return nil
}

func (f *fakeUsers) CountAdmins(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.users {
		if u.IsAdmin() {
			n++
		}
	}
	return n, nil
}

func (f *fakeUsers) setLegacy(id int, legacy []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.Permissions = append([]string{}, legacy...)
	}
}

type fakePermissions struct {
	mu         sync.Mutex
	pages      []models.Page
	rows       map[int][]models.UserPagePermission
	users      *fakeUsers
	replaceErr error
}

func catalog() []models.Page {
	names := []string{
		models.PageDashboard, models.PageClients, models.PageDossiersVoyage, models.PagePaiements,
		models.PageFactures, models.PageDocuments, models.PageUsers, models.PagePermissions,
	}
	pages := make([]models.Page, 0, len(names))
	for i, n := range names {
		pages = append(pages, models.Page{ID: i + 1, Nom: n, Libelle: strings.ToUpper(n[:1]) + n[1:], Ordre: i + 1})
	}
	return pages
}

func newFakePermissions(users *fakeUsers) *fakePermissions {
	return &fakePermissions{pages: catalog(), rows: map[int][]models.UserPagePermission{}, users: users}
}

func (f *fakePermissions) ListPages(ctx context.Context) ([]models.Page, error) {
	return append([]models.Page(nil), f.pages...), nil
}

func (f *fakePermissions) GetUserPermission(ctx context.Context, userID int, page string) (*models.UserPagePermission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows[userID] {
		if r.PageNom == page {
			r := r
			return &r, nil
		}
	}
	return nil, apperr.NotFound("permission", page)
}

func (f *fakePermissions) ListUserPermissions(ctx context.Context, userID int) ([]models.UserPagePermission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.UserPagePermission{}, f.rows[userID]...), nil
}

func (f *fakePermissions) ReplaceUserPermissions(ctx context.Context, userID int, perms []models.UserPagePermission, legacy []string) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.mu.Lock()
	f.rows[userID] = append([]models.UserPagePermission(nil), perms...)
	f.mu.Unlock()
	if f.users != nil {
		f.users.setLegacy(userID, legacy)
	}
	return nil
}

func (f *fakePermissions) grant(userID int, page string, actions ...models.Action) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := models.UserPagePermission{UserID: userID, PageNom: page}
	for _, a := range actions {
		switch a {
		case models.ActionView:
			row.CanView = true
		case models.ActionCreate:
			row.CanCreate = true
		case models.ActionEdit:
			row.CanEdit = true
		case models.ActionDelete:
			row.CanDelete = true
		case models.ActionExport:
			row.CanExport = true
		}
	}
	f.rows[userID] = append(f.rows[userID], row)
}

type fakeClients struct {
	mu      sync.Mutex
	nextID  int
	clients map[int]*models.Client
}

func newFakeClients(clients ...*models.Client) *fakeClients {
	f := &fakeClients{clients: map[int]*models.Client{}}
	for _, c := range clients {
		f.nextID++
		c.ID = f.nextID
		f.clients[c.ID] = c
	}
	return f
}

func (f *fakeClients) Create(ctx context.Context, c *models.Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = f.nextID
	cp := *c
	f.clients[c.ID] = &cp
	return nil
}

func (f *fakeClients) Get(ctx context.Context, id int) (*models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[id]
	if !ok {
		return nil, apperr.NotFound("client", id)
	}
	cp := *c
	cp.Documents = append([]models.Document{}, c.Documents...)
	return &cp, nil
}

func (f *fakeClients) List(ctx context.Context, filter models.ClientFilter) ([]*models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Client
	q := strings.ToLower(filter.Search)
	for _, c := range f.clients {
		if q != "" && !strings.Contains(strings.ToLower(c.Nom+" "+c.Prenom+" "+c.Email+" "+c.Telephone), q) {
			continue
		}
		if filter.TypeVisa != "" && c.TypeVisa != filter.TypeVisa {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeClients) Update(ctx context.Context, c *models.Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[c.ID]; !ok {
		return apperr.NotFound("client", c.ID)
	}
	cp := *c
	f.clients[c.ID] = &cp
	return nil
}

func (f *fakeClients) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.clients, id)
	return nil
}

func (f *fakeClients) AppendDocuments(ctx context.Context, id int, docs []models.Document) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[id]
	if !ok {
		return nil, apperr.NotFound("client", id)
	}
	c.Documents = append(c.Documents, docs...)
	return append([]models.Document{}, c.Documents...), nil
}

func (f *fakeClients) RemoveDocument(ctx context.Context, id int, filename string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[id]
	if !ok {
		return nil, apperr.NotFound("client", id)
	}
	for i, d := range c.Documents {
		if d.Filename == filename {
			c.Documents = append(c.Documents[:i:i], c.Documents[i+1:]...)
			return &d, nil
		}
	}
	return nil, apperr.NotFound("document", filename)
}

type fakeDossiers struct {
	mu       sync.Mutex
	nextID   int
	dossiers map[int]*models.DossierVoyage
	numeros  []string
}

func newFakeDossiers() *fakeDossiers {
	return &fakeDossiers{dossiers: map[int]*models.DossierVoyage{}}
}

func (f *fakeDossiers) Create(ctx context.Context, d *models.DossierVoyage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.numeros {
		if n == d.NumeroDossier {
			return apperr.Conflict("numero_dossier already used", nil)
		}
	}
	f.nextID++
	d.ID = f.nextID
	cp := *d
	f.dossiers[d.ID] = &cp
	f.numeros = append(f.numeros, d.NumeroDossier)
	return nil
}

func (f *fakeDossiers) Get(ctx context.Context, id int) (*models.DossierVoyage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dossiers[id]
	if !ok {
		return nil, apperr.NotFound("dossier_voyage", id)
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDossiers) List(ctx context.Context, filter models.DossierFilter) ([]*models.DossierVoyage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.DossierVoyage
	for _, d := range f.dossiers {
		if filter.ClientID != nil && d.ClientID != *filter.ClientID {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeDossiers) Update(ctx context.Context, d *models.DossierVoyage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *d
	f.dossiers[d.ID] = &cp
	return nil
}

func (f *fakeDossiers) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.dossiers, id)
	return nil
}

func (f *fakeDossiers) ListNumerosForYear(ctx context.Context, year int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.numeros...), nil
}

func (f *fakeDossiers) AppendDocuments(ctx context.Context, id int, docs []models.Document) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dossiers[id]
	if !ok {
		return nil, apperr.NotFound("dossier_voyage", id)
	}
	d.Documents = append(d.Documents, docs...)
	return append([]models.Document{}, d.Documents...), nil
}

func (f *fakeDossiers) RemoveDocument(ctx context.Context, id int, filename string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dossiers[id]
	if !ok {
		return nil, apperr.NotFound("dossier_voyage", id)
	}
	for i, doc := range d.Documents {
		if doc.Filename == filename {
			d.Documents = append(d.Documents[:i:i], d.Documents[i+1:]...)
			return &doc, nil
		}
	}
	return nil, apperr.NotFound("document", filename)
}

type fakePaiements struct {
	mu        sync.Mutex
	nextID    int
	paiements map[int]*models.Paiement
}

func newFakePaiements() *fakePaiements {
	return &fakePaiements{paiements: map[int]*models.Paiement{}}
}

func (f *fakePaiements) Create(ctx context.Context, p *models.Paiement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	cp := *p
	f.paiements[p.ID] = &cp
	return nil
}

func (f *fakePaiements) Get(ctx context.Context, id int) (*models.Paiement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.paiements[id]
	if !ok {
		return nil, apperr.NotFound("paiement", id)
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaiements) List(ctx context.Context, filter models.PaiementFilter) ([]*models.Paiement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Paiement
	for _, p := range f.paiements {
		if filter.Statut != "" && p.Statut != filter.Statut {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakePaiements) Update(ctx context.Context, p *models.Paiement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.paiements[p.ID] = &cp
	return nil
}

func (f *fakePaiements) UpdateStatut(ctx context.Context, id int, statut string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.paiements[id]
	if !ok {
		return apperr.NotFound("paiement", id)
	}
	p.Statut = statut
	return nil
}

func (f *fakePaiements) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.paiements, id)
	return nil
}

// fakeFactures mimics the transactional repository: ApplyPayment works on a
// copy and only commits when the mutation succeeds.
type fakeFactures struct {
	mu        sync.Mutex
	nextID    int
	factures  map[int]*models.Facture
	paiements []*models.Paiement
	confirmed map[int]bool
	// conflicts is the number of Create/CreateBatch calls that fail with a
	// unique violation before succeeding
	conflicts int
	creates   int
}

func newFakeFactures() *fakeFactures {
	return &fakeFactures{factures: map[int]*models.Facture{}, confirmed: map[int]bool{}}
}

func copyFacture(f *models.Facture) *models.Facture {
	c := *f
	c.Lignes = append([]models.LigneFacture(nil), f.Lignes...)
	return &c
}

func (f *fakeFactures) insert(fa *models.Facture) {
	f.nextID++
	fa.ID = f.nextID
	f.factures[fa.ID] = copyFacture(fa)
}

func (f *fakeFactures) Create(ctx context.Context, fa *models.Facture) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.conflicts > 0 {
		f.conflicts--
		return apperr.Conflict("numero_facture already used", nil)
	}
	f.insert(fa)
	return nil
}

func (f *fakeFactures) CreateBatch(ctx context.Context, fs []*models.Facture) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.conflicts > 0 {
		f.conflicts--
		return apperr.Conflict("numero_facture already used", nil)
	}
	for _, fa := range fs {
		f.insert(fa)
	}
	return nil
}

func (f *fakeFactures) Get(ctx context.Context, id int) (*models.Facture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fa, ok := f.factures[id]
	if !ok {
		return nil, apperr.NotFound("facture", id)
	}
	return copyFacture(fa), nil
}

func (f *fakeFactures) List(ctx context.Context, filter models.FactureFilter) ([]*models.Facture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Facture
	for _, fa := range f.factures {
		if filter.ClientID != nil && fa.ClientID != *filter.ClientID {
			continue
		}
		if filter.Statut != "" && fa.Statut != filter.Statut {
			continue
		}
		out = append(out, copyFacture(fa))
	}
	return out, nil
}

func (f *fakeFactures) Update(ctx context.Context, fa *models.Facture) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.factures[fa.ID]; !ok {
		return apperr.NotFound("facture", fa.ID)
	}
	f.factures[fa.ID] = copyFacture(fa)
	return nil
}

func (f *fakeFactures) UpdateStatut(ctx context.Context, id int, statut string, completed *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fa, ok := f.factures[id]
	if !ok {
		return apperr.NotFound("facture", id)
	}
	fa.Statut = statut
	fa.DatePaiementComplet = completed
	return nil
}

func (f *fakeFactures) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.factures, id)
	return nil
}

func (f *fakeFactures) ListNumerosForYear(ctx context.Context, year int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, fa := range f.factures {
		out = append(out, fa.NumeroFacture)
	}
	return out, nil
}

func (f *fakeFactures) ApplyPayment(ctx context.Context, id int, fn FactureMutation) (*models.Facture, *models.Paiement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.factures[id]
	if !ok {
		return nil, nil, apperr.NotFound("facture", id)
	}
	work := copyFacture(stored)
	p, err := fn(work)
	if err != nil {
		return nil, nil, err
	}
	f.factures[id] = copyFacture(work)
	if p != nil {
		p.ID = len(f.paiements) + 1
		f.paiements = append(f.paiements, p)
	}
	return work, p, nil
}

func (f *fakeFactures) Duplicate(ctx context.Context, id int, numero string, createdBy *int) (*models.Facture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	src, ok := f.factures[id]
	if !ok {
		return nil, apperr.NotFound("facture", id)
	}
	dup := copyFacture(src)
	dup.NumeroFacture = numero
	dup.Statut = models.FactureBrouillon
	dup.MontantPaye = 0
	dup.MontantRestant = dup.MontantFinal
	dup.DatePaiementComplet = nil
	dup.CreatedBy = createdBy
	f.insert(dup)
	return copyFacture(dup), nil
}

func (f *fakeFactures) HasConfirmedPayment(ctx context.Context, fa *models.Facture) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirmed[fa.ID], nil
}

func (f *fakeFactures) ListReferencedBy(ctx context.Context, p *models.Paiement) ([]*models.Facture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Facture
	for _, fa := range f.factures {
		if PaiementReferences(p, fa) {
			out = append(out, copyFacture(fa))
		}
	}
	return out, nil
}

func (f *fakeFactures) ListForRecompute(ctx context.Context) ([]*models.Facture, error) {
	return f.List(ctx, models.FactureFilter{})
}

func (f *fakeFactures) Stats(ctx context.Context) ([]models.FactureStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	by := map[string]*models.FactureStats{}
	for _, fa := range f.factures {
		s, ok := by[fa.Statut]
		if !ok {
			s = &models.FactureStats{Statut: fa.Statut}
			by[fa.Statut] = s
		}
		s.Nombre++
		s.MontantFinal += fa.MontantFinal
		s.MontantPaye += fa.MontantPaye
		s.MontantRestant += fa.MontantRestant
	}
	out := make([]models.FactureStats, 0, len(by))
	for _, s := range by {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeFactures) seed(fa *models.Facture) *models.Facture {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insert(fa)
	return copyFacture(f.factures[fa.ID])
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failOn  int
	saves   int
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (m *memStore) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.failOn > 0 && m.saves == m.failOn {
		return errors.New("disk full")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, apperr.NotFound("document", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return apperr.NotFound("document", key)
	}
	delete(m.objects, key)
	return nil
}
