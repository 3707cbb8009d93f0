package models

import (
	"time"

	"github.com/lib/pq"
)

// Resource is the view of a single uploaded document returned to clients.
type Resource struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Tags         []string  `json:"tags"`
	Regulation   string    `json:"regulation"`
	Year         int       `json:"year"`
	Semester     int       `json:"semester"`
	Branch       string    `json:"branch"`
	SubjectCode  string    `json:"subjectCode"`
	DocumentType string    `json:"documentType"`
	Unit         string    `json:"unit"`
	FileType     string    `json:"fileType"`
	MimeType     string    `json:"mimeType"`
	FileSize     int64     `json:"fileSize"`
	URL          string    `json:"url"`
	FileName     string    `json:"fileName"`
	UploadedBy   string    `json:"uploadedBy"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// ResourceRecord mirrors a row of the resources table. Columns added after the first
// release are nullable so legacy rows still scan.
type ResourceRecord struct {
	ID           string         `db:"id"`
	Title        string         `db:"title"`
	Description  *string        `db:"description"`
	Tags         pq.StringArray `db:"tags"`
	Regulation   string         `db:"regulation"`
	Year         int            `db:"year"`
	Semester     int            `db:"semester"`
	Branch       string         `db:"branch"`
	SubjectCode  string         `db:"subject_code"`
	DocumentType string         `db:"document_type"`
	Unit         *string        `db:"unit"`
	FileType     *string        `db:"file_type"`
	MimeType     *string        `db:"mime_type"`
	FileSize     *int64         `db:"file_size"`
	StorageKey   string         `db:"storage_key"`
	URL          *string        `db:"url"`
	FileName     *string        `db:"file_name"`
	UploadedBy   *string        `db:"uploaded_by"`
	UploadedAt   time.Time      `db:"uploaded_at"`
}

// ResourceMetadata is the classification supplied alongside an uploaded file.
type ResourceMetadata struct {
	Title        string   `form:"title" json:"title" validate:"required,max=200"`
	Description  string   `form:"description" json:"description" validate:"max=2000"`
	Tags         []string `form:"tags" json:"tags" validate:"max=20,dive,max=40"`
	Regulation   string   `form:"regulation" json:"regulation" validate:"required,regulation"`
	Year         int      `form:"year" json:"year" validate:"required,year"`
	Semester     int      `form:"semester" json:"semester" validate:"required,semester"`
	Branch       string   `form:"branch" json:"branch" validate:"required,branch"`
	SubjectCode  string   `form:"subjectCode" json:"subjectCode" validate:"required,subjectcode"`
	DocumentType string   `form:"documentType" json:"documentType" validate:"required,doctype"`
	Unit         string   `form:"unit" json:"unit" validate:"required,unit"`
}

// ResourceDownload is a short lived link to a stored resource file.
type ResourceDownload struct {
	URL       string    `json:"url"`
	FileName  string    `json:"fileName"`
	ExpiresAt time.Time `json:"expiresAt"`
}
