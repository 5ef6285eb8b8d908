package models

import (
	"time"

	"github.com/google/uuid"
)

// SourceKey is the reserved result key holding provenance metadata
const SourceKey = "_source"

// Trial identifies the document and metadata of a single assessment run
type Trial struct {
	PDFPath      string `json:"pdf_file" validate:"required"`
	Author       string `json:"author" validate:"required"`
	Year         string `json:"year" validate:"required"`
	Registration string `json:"registration" validate:"required"`
}

// AssessmentRequest holds everything the prompt is built from
type AssessmentRequest struct {
	Guidelines    string
	ExtractedText string
	Author        string
	Year          string
	Registration  string
	SourceName    string
}

// Source is the provenance block attached to every assessment result
type Source struct {
	PDFFile      string `json:"pdf_file"`
	Author       string `json:"author"`
	Year         string `json:"year"`
	Registration string `json:"registration"`
	TextLength   int    `json:"text_length"`
}

// AssessmentResult is the model's JSON object plus the _source block
type AssessmentResult map[string]any

// StoredArtifact is the archival form of a document and its extracted text.
// It is never sent to the remote service.
type StoredArtifact struct {
	PDFFilename         string `json:"pdf_filename"`
	PDFBase64           string `json:"pdf_base64"`
	ExtractedText       string `json:"extracted_text"`
	ExtractedTextBase64 string `json:"extracted_text_base64"`
	PageCount           int    `json:"page_count"`
}

// ArchiveRecord is one persisted assessment
type ArchiveRecord struct {
	ID        uuid.UUID        `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Backend   string           `json:"backend"`
	Model     string           `json:"model"`
	Source    Source           `json:"source"`
	Artifact  StoredArtifact   `json:"artifact"`
	Result    AssessmentResult `json:"result"`
}
