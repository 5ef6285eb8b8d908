package processor

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"rob-assessor/internal/models"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// BuildArtifact encodes a document and its extracted text for archival storage
func BuildArtifact(filePath, text string) (*models.StoredArtifact, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	return &models.StoredArtifact{
		PDFFilename:         filepath.Base(filePath),
		PDFBase64:           base64.StdEncoding.EncodeToString(data),
		ExtractedText:       text,
		ExtractedTextBase64: base64.StdEncoding.EncodeToString([]byte(text)),
		PageCount:           pageCount(filePath),
	}, nil
}

// pageCount is informational only; pdfcpu is stricter than the text parser
func pageCount(filePath string) (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()

	// keep pdfcpu from creating a config dir under $HOME
	api.DisableConfigDir()

	n, err := api.PageCountFile(filePath)
	if err != nil {
		return 0
	}
	return n
}
