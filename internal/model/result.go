package model

import "time"

// SourceDocument is one already-fetched detail page handed to the pipeline.
type SourceDocument struct {
	// Name identifies the document in logs (file name, queue id).
	Name string `json:"name"`
	// URL is the page's own address; relative document links resolve
	// against it when set.
	URL  string `json:"url,omitempty"`
	Body []byte `json:"-"`
}

// ProcessResult bundles the two outputs produced for one document.
type ProcessResult struct {
	Document string                `json:"document"`
	Record   *ProjectRecord        `json:"record"`
	Report   *ReconciliationReport `json:"report"`
}

// StoredResult is a persisted ProcessResult as returned by result sinks.
type StoredResult struct {
	ID         string                `json:"id"`
	ProjectKey string                `json:"project_key"`
	SourceURL  string                `json:"source_url,omitempty"`
	Record     *ProjectRecord        `json:"record"`
	Report     *ReconciliationReport `json:"report"`
	Counts     StatusCounts          `json:"counts"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}
