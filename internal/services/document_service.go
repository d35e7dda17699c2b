package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"voyage-backend/internal/apperr"
	"voyage-backend/internal/logger"
	"voyage-backend/internal/metrics"
	"voyage-backend/internal/models"
	"voyage-backend/internal/storage"
	"voyage-backend/internal/timeutil"
)

const pdfMimeType = "application/pdf"

// Upload is one file accepted by the upload gate
type Upload struct {
	OriginalName string
	Size         int64
	Body         io.Reader
}

// DocumentService stores PDFs and keeps the documents lists of clients and
// dossiers in step with the store.
type DocumentService struct {
	Store    storage.Store
	Clients  ClientStore
	Dossiers DossierStore
}

func NewDocumentService(store storage.Store, clients ClientStore, dossiers DossierStore) *DocumentService {
	return &DocumentService{Store: store, Clients: clients, Dossiers: dossiers}
}

// put writes the uploads under prefix with generated names. If one write
// fails the ones already written are removed.
func (s *DocumentService) put(ctx context.Context, prefix string, files []Upload) ([]models.Document, error) {
	docs := make([]models.Document, 0, len(files))
	now := timeutil.Now()
	for _, f := range files {
		name := uuid.NewString() + ".pdf"
		key := name
		if prefix != "" {
			key = prefix + "/" + name
		}
		if err := s.Store.Save(ctx, key, f.Body, f.Size, pdfMimeType); err != nil {
			s.removeAll(ctx, docs)
			return nil, fmt.Errorf("store %s: %w", f.OriginalName, err)
		}
		docs = append(docs, models.Document{
			Filename:     name,
			OriginalName: path.Base(strings.ReplaceAll(f.OriginalName, "\\", "/")),
			Path:         key,
			Size:         f.Size,
			MimeType:     pdfMimeType,
			UploadDate:   now,
		})
	}
	return docs, nil
}

func (s *DocumentService) removeAll(ctx context.Context, docs []models.Document) {
	for _, d := range docs {
		if err := s.Store.Delete(ctx, d.Path); err != nil {
			logger.Component("documents").Warn().Err(err).Str("path", d.Path).Msg("cleanup of stored document failed")
		}
	}
}

// Upload stores standalone files, namespaced under the client or dossier
// when one is given. A client_id also appends the files to that client.
func (s *DocumentService) Upload(ctx context.Context, clientID, dossierID *int, files []Upload) ([]models.StoredFile, error) {
	if len(files) == 0 {
		return nil, apperr.Validation("documents", "aucun fichier reçu")
	}

	var docs []models.Document
	var err error
	switch {
	case dossierID != nil:
		docs, err = s.AttachToDossier(ctx, *dossierID, files)
	case clientID != nil:
		docs, err = s.AttachToClient(ctx, *clientID, files)
	default:
		docs, err = s.put(ctx, "", files)
		if err == nil {
			metrics.DocumentsUploaded.WithLabelValues("none").Add(float64(len(docs)))
		}
	}
	if err != nil {
		return nil, err
	}

	out := make([]models.StoredFile, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.StoredFile{Document: d, ClientID: clientID, DossierID: dossierID})
	}
	return out, nil
}

// AttachToClient stores files under clients/<id>/ and appends them to the
// client's list. Returns only the new entries.
func (s *DocumentService) AttachToClient(ctx context.Context, clientID int, files []Upload) ([]models.Document, error) {
	if _, err := s.Clients.Get(ctx, clientID); err != nil {
		return nil, err
	}
	docs, err := s.put(ctx, fmt.Sprintf("clients/%d", clientID), files)
	if err != nil {
		return nil, err
	}
	if _, err := s.Clients.AppendDocuments(ctx, clientID, docs); err != nil {
		s.removeAll(ctx, docs)
		return nil, err
	}
	metrics.DocumentsUploaded.WithLabelValues("client").Add(float64(len(docs)))
	return docs, nil
}

func (s *DocumentService) AttachToDossier(ctx context.Context, dossierID int, files []Upload) ([]models.Document, error) {
	if _, err := s.Dossiers.Get(ctx, dossierID); err != nil {
		return nil, err
	}
	docs, err := s.put(ctx, fmt.Sprintf("dossiers/%d", dossierID), files)
	if err != nil {
		return nil, err
	}
	if _, err := s.Dossiers.AppendDocuments(ctx, dossierID, docs); err != nil {
		s.removeAll(ctx, docs)
		return nil, err
	}
	metrics.DocumentsUploaded.WithLabelValues("dossier").Add(float64(len(docs)))
	return docs, nil
}

// RemoveFromClient drops the entry from the client then deletes the object.
// A missing object is only logged.
func (s *DocumentService) RemoveFromClient(ctx context.Context, clientID int, filename string) error {
	doc, err := s.Clients.RemoveDocument(ctx, clientID, filename)
	if err != nil {
		return err
	}
	s.deleteObject(ctx, doc.Path)
	return nil
}

func (s *DocumentService) RemoveFromDossier(ctx context.Context, dossierID int, filename string) error {
	doc, err := s.Dossiers.RemoveDocument(ctx, dossierID, filename)
	if err != nil {
		return err
	}
	s.deleteObject(ctx, doc.Path)
	return nil
}

func (s *DocumentService) deleteObject(ctx context.Context, key string) {
	if err := s.Store.Delete(ctx, key); err != nil {
		logger.Component("documents").Warn().Err(err).Str("path", key).Msg("stored document could not be deleted")
	}
}

// Open returns a reader on a stored document
func (s *DocumentService) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	key, err := storage.CleanKey(key)
	if err != nil {
		return nil, "", err
	}
	rc, err := s.Store.Open(ctx, key)
	if err != nil {
		return nil, "", err
	}
	return rc, path.Base(key), nil
}

// ownedPrefixes are the namespaces whose objects are listed on a client or
// dossier. They are removed through the owner so the list stays in step.
var ownedPrefixes = []string{"clients/", "dossiers/"}

// Delete removes a standalone stored object by path. Files attached to a
// client or dossier are refused.
func (s *DocumentService) Delete(ctx context.Context, key string) error {
	key, err := storage.CleanKey(key)
	if err != nil {
		return err
	}
	for _, prefix := range ownedPrefixes {
		if strings.HasPrefix(key, prefix) {
			return apperr.Business("ce document appartient à un " + strings.TrimSuffix(prefix, "s/") +
				", supprimez-le depuis sa fiche")
		}
	}
	return s.Store.Delete(ctx, key)
}
