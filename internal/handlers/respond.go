package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"

	"voyage-backend/internal/apperr"
	"voyage-backend/internal/middleware"
	"voyage-backend/internal/services"
	"voyage-backend/pkg/utils"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and runs the struct validation tags
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("", "corps de requête JSON invalide: "+err.Error())
	}
	return validateStruct(dst)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validation("", err.Error())
	}
	fe := verrs[0]
	field := fe.Field()
	if ns := fe.Namespace(); strings.Count(ns, ".") > 1 {
		// keep the path below the root type: lignes[0].description
		field = ns[strings.Index(ns, ".")+1:]
	}
	return apperr.Validation(field, ruleMessage(fe))
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "champ obligatoire"
	case "email":
		return "adresse email invalide"
	case "min":
		return "doit contenir au moins " + fe.Param() + " caractères"
	case "max":
		return "ne doit pas dépasser " + fe.Param() + " caractères"
	case "gt":
		return "doit être supérieur à " + fe.Param()
	case "gte":
		return "doit être supérieur ou égal à " + fe.Param()
	case "lte":
		return "doit être inférieur ou égal à " + fe.Param()
	case "oneof":
		return "valeurs acceptées: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return "règle " + fe.Tag() + " non respectée"
}

// writeError maps an error kind to its HTTP status and envelope
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		utils.Error(w, http.StatusNotFound, "Ressource introuvable", err)
	case errors.Is(err, apperr.ErrValidation):
		utils.Error(w, http.StatusBadRequest, "Données invalides", err, apperr.ValidValues(err)...)
	case errors.Is(err, apperr.ErrBusinessRule):
		utils.Error(w, http.StatusBadRequest, err.Error(), err, apperr.ValidValues(err)...)
	case errors.Is(err, apperr.ErrConflict):
		utils.Error(w, http.StatusConflict, err.Error(), err)
	case errors.Is(err, apperr.ErrUnauthorized):
		utils.Error(w, http.StatusUnauthorized, "Identifiants invalides", err)
	case errors.Is(err, apperr.ErrForbidden):
		utils.Error(w, http.StatusForbidden, "Accès refusé", err)
	default:
		hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		utils.Error(w, http.StatusInternalServerError, "Erreur interne du serveur", err)
	}
}

func pathInt(r *http.Request, name string) (int, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(name, fmt.Sprintf("identifiant invalide %q", raw))
	}
	return id, nil
}

// queryInt parses an optional positive integer query parameter
func queryInt(r *http.Request, name string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return nil, apperr.Validation(name, fmt.Sprintf("entier positif attendu, reçu %q", raw))
	}
	return &n, nil
}

func pageParams(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// actorID is the authenticated caller id, used for created_by columns
func actorID(r *http.Request) *int {
	id, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		return nil
	}
	return &id
}

// openUploads opens the parts of field parsed by the upload gate. The
// returned func closes them all.
func openUploads(r *http.Request, field string) ([]services.Upload, func(), error) {
	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File[field]
	}
	if len(files) == 0 {
		return nil, func() {}, apperr.Validation(field, "aucun fichier reçu")
	}

	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	uploads := make([]services.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		opened = append(opened, f)
		uploads = append(uploads, services.Upload{OriginalName: fh.Filename, Size: fh.Size, Body: f})
	}
	return uploads, closeAll, nil
}
