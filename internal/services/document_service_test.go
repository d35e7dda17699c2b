package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyage-backend/internal/apperr"
	"voyage-backend/internal/models"
)

func pdfUpload(name string) Upload {
	body := "%PDF-1.7 " + name
	return Upload{OriginalName: name, Size: int64(len(body)), Body: strings.NewReader(body)}
}

func newDocumentFixture() (*DocumentService, *memStore, *fakeClients, *fakeDossiers) {
	store := newMemStore()
	clients := newFakeClients(&models.Client{Nom: "Kane", Prenom: "Ali", Documents: []models.Document{}})
	dossiers := newFakeDossiers()
	dossiers.dossiers[1] = &models.DossierVoyage{ID: 1, ClientID: 1}
	return NewDocumentService(store, clients, dossiers), store, clients, dossiers
}

func TestAttachToClient_AppendsAndNamespaces(t *testing.T) {
	svc, store, clients, _ := newDocumentFixture()
	ctx := context.Background()

	docs, err := svc.AttachToClient(ctx, 1, []Upload{pdfUpload("passeport.pdf"), pdfUpload(`C:\scans\releve.pdf`)})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.True(t, strings.HasPrefix(docs[0].Path, "clients/1/"))
	assert.Equal(t, "passeport.pdf", docs[0].OriginalName)
	assert.Equal(t, "releve.pdf", docs[1].OriginalName)
	assert.Equal(t, "application/pdf", docs[0].MimeType)
	assert.NotEqual(t, docs[0].Filename, docs[1].Filename)
	assert.Len(t, store.objects, 2)

	more, err := svc.AttachToClient(ctx, 1, []Upload{pdfUpload("visa.pdf")})
	require.NoError(t, err)
	assert.Len(t, more, 1)

	c, _ := clients.Get(ctx, 1)
	assert.Len(t, c.Documents, 3, "documents are appended, never replaced")
}

func TestAttachToClient_UnknownClientStoresNothing(t *testing.T) {
	svc, store, _, _ := newDocumentFixture()

	_, err := svc.AttachToClient(context.Background(), 42, []Upload{pdfUpload("a.pdf")})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.Empty(t, store.objects)
}

func TestAttach_PartialWriteIsRolledBack(t *testing.T) {
	svc, store, clients, _ := newDocumentFixture()
	store.failOn = 2

	_, err := svc.AttachToClient(context.Background(), 1, []Upload{pdfUpload("a.pdf"), pdfUpload("b.pdf")})
	require.Error(t, err)
	assert.Empty(t, store.objects)
	c, _ := clients.Get(context.Background(), 1)
	assert.Empty(t, c.Documents)
}

func TestRemoveFromClient(t *testing.T) {
	svc, store, clients, _ := newDocumentFixture()
	ctx := context.Background()
	docs, err := svc.AttachToClient(ctx, 1, []Upload{pdfUpload("a.pdf"), pdfUpload("b.pdf")})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveFromClient(ctx, 1, docs[0].Filename))
	c, _ := clients.Get(ctx, 1)
	require.Len(t, c.Documents, 1)
	assert.Equal(t, docs[1].Filename, c.Documents[0].Filename)
	assert.NotContains(t, store.objects, docs[0].Path)

	err = svc.RemoveFromClient(ctx, 1, "missing.pdf")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestUpload_Standalone(t *testing.T) {
	svc, _, _, dossiers := newDocumentFixture()
	ctx := context.Background()

	files, err := svc.Upload(ctx, nil, nil, []Upload{pdfUpload("a.pdf")})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.NotContains(t, files[0].Path, "/")

	dossierID := 1
	files, err = svc.Upload(ctx, nil, &dossierID, []Upload{pdfUpload("billet.pdf")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(files[0].Path, "dossiers/1/"))
	assert.Equal(t, &dossierID, files[0].DossierID)
	assert.Len(t, dossiers.dossiers[1].Documents, 1)

	_, err = svc.Upload(ctx, nil, nil, nil)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestOpenAndDelete(t *testing.T) {
	svc, _, _, _ := newDocumentFixture()
	ctx := context.Background()
	docs, err := svc.AttachToClient(ctx, 1, []Upload{pdfUpload("a.pdf")})
	require.NoError(t, err)

	rc, name, err := svc.Open(ctx, "/uploads/"+docs[0].Path)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, docs[0].Filename, name)
	assert.Equal(t, "%PDF-1.7 a.pdf", string(data))

	_, _, err = svc.Open(ctx, "../../etc/passwd")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	err = svc.Delete(ctx, docs[0].Path)
	assert.True(t, errors.Is(err, apperr.ErrBusinessRule))
	rc, _, err = svc.Open(ctx, docs[0].Path)
	require.NoError(t, err, "attached file must survive a standalone delete")
	rc.Close()

	loose, err := svc.Upload(ctx, nil, nil, []Upload{pdfUpload("b.pdf")})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, loose[0].Path))
	assert.True(t, errors.Is(svc.Delete(ctx, loose[0].Path), apperr.ErrNotFound))
}

func TestDelete_RefusesOwnedPaths(t *testing.T) {
	svc, _, clients, dossiers := newDocumentFixture()
	ctx := context.Background()
	clientDocs, err := svc.AttachToClient(ctx, 1, []Upload{pdfUpload("passeport.pdf")})
	require.NoError(t, err)
	dossierDocs, err := svc.AttachToDossier(ctx, 1, []Upload{pdfUpload("billet.pdf")})
	require.NoError(t, err)

	for _, key := range []string{clientDocs[0].Path, "/uploads/" + dossierDocs[0].Path} {
		assert.True(t, errors.Is(svc.Delete(ctx, key), apperr.ErrBusinessRule), key)
	}
	assert.Len(t, clients.clients[1].Documents, 1)
	assert.Len(t, dossiers.dossiers[1].Documents, 1)
}
