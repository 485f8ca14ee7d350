package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

type Document struct {
	ID          string          `json:"id"`
	Filename    string          `json:"filename"`
	MimeType    string          `json:"mime_type"`
	StoragePath string          `json:"storage_path"`
	SourceURL   string          `json:"source_url,omitempty"`
	PageCount   int             `json:"page_count,omitempty"`
	Profile     DocumentProfile `json:"profile,omitempty"`
	Status      DocumentStatus  `json:"status"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// DocumentProfile is produced once at ingestion time. Summary doubles as the
// enrichment context prepended to chunk text for dense embedding.
type DocumentProfile struct {
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
	Summary    string   `json:"summary"`
	Confidence float64  `json:"confidence"`
}
