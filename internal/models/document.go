package models

import "time"

// Document is one entry of the JSONB documents column on clients and
// dossiers. Field names keep the camelCase keys already stored in the column.
type Document struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mimeType"`
	UploadDate   time.Time `json:"uploadDate"`
}

// StoredFile is the result of a standalone upload.
type StoredFile struct {
	Document
	ClientID  *int `json:"client_id,omitempty"`
	DossierID *int `json:"dossier_id,omitempty"`
}
