package middleware

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"voyage-backend/internal/apperr"
	"voyage-backend/pkg/utils"
)

var pdfMagic = []byte("%PDF")

// multipartMemory is what ParseMultipartForm keeps in memory before
// spilling parts to temp files.
const multipartMemory = 8 << 20

// UploadGate parses the multipart body and rejects it unless field holds
// between 1 and maxFiles PDF parts of at most maxSize bytes each. Oversized
// bodies or parts get 413, everything else 400. Handlers read the parsed
// r.MultipartForm.
func UploadGate(field string, maxFiles int, maxSize int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, int64(maxFiles)*maxSize+1<<20)

			if err := r.ParseMultipartForm(multipartMemory); err != nil {
				var tooBig *http.MaxBytesError
				if errors.As(err, &tooBig) {
					utils.Error(w, http.StatusRequestEntityTooLarge, "Requête trop volumineuse", err)
					return
				}
				utils.Error(w, http.StatusBadRequest, "Formulaire multipart invalide", err)
				return
			}
			defer r.MultipartForm.RemoveAll()

			files := r.MultipartForm.File[field]
			if len(files) == 0 {
				utils.Error(w, http.StatusBadRequest, "Aucun fichier reçu",
					apperr.Validation(field, "au moins un fichier PDF est requis"))
				return
			}
			if len(files) > maxFiles {
				utils.Error(w, http.StatusBadRequest, fmt.Sprintf("Maximum %d fichiers par envoi", maxFiles),
					apperr.Validation(field, fmt.Sprintf("%d fichiers reçus", len(files))))
				return
			}

			for _, fh := range files {
				if fh.Size > maxSize {
					utils.Error(w, http.StatusRequestEntityTooLarge,
						fmt.Sprintf("Le fichier %s dépasse %d Mo", fh.Filename, maxSize>>20),
						apperr.Validation(field, "fichier trop volumineux"))
					return
				}
				if err := checkPDF(fh); err != nil {
					utils.Error(w, http.StatusBadRequest, "Seuls les fichiers PDF sont acceptés", err)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// checkPDF requires a .pdf extension and the %PDF signature
func checkPDF(fh *multipart.FileHeader) error {
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
		return apperr.Validation("file", fmt.Sprintf("%s n'a pas l'extension .pdf", fh.Filename))
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, pdfMagic) {
		return apperr.Validation("file", fmt.Sprintf("%s n'est pas un PDF valide", fh.Filename))
	}
	return nil
}
