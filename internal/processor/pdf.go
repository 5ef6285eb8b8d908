// internal/processor/pdf.go
package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

const (
	// Below this many characters of stripped text the OCR pass kicks in
	MIN_TEXT_FOR_NO_OCR = 500

	pdfMIME = "application/pdf"
)

var (
	ErrNotPDF         = errors.New("file is not a PDF")
	ErrNoRecognizer   = errors.New("ocr requested but no recognizer configured")
	errMalformedInput = errors.New("malformed PDF")
)

// ExtractionError wraps any failure to turn a document into text
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from PDF %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Document is an opened PDF with random access to page text
type Document interface {
	NumPage() int
	// PageText returns the plain text of a 1-based page
	PageText(n int) (string, error)
	Close() error
}

// Opener opens documents for reading
type Opener interface {
	Open(filePath string) (Document, error)
}

// Recognizer runs OCR over a whole document
type Recognizer interface {
	Recognize(ctx context.Context, document []byte) (string, error)
}

// PDFProcessor handles PDF processing
type PDFProcessor struct {
	Opener     Opener
	Recognizer Recognizer
}

// NewPDFProcessor creates a new PDF processor. recognizer may be nil.
func NewPDFProcessor(recognizer Recognizer) *PDFProcessor {
	return &PDFProcessor{
		Opener:     LedongthucOpener{},
		Recognizer: recognizer,
	}
}

// ExtractText extracts page-annotated text from a PDF file
func (p *PDFProcessor) ExtractText(ctx context.Context, filePath string, useOCR bool) (string, error) {
	text, err := p.extractPages(filePath)
	if err != nil {
		return "", &ExtractionError{Path: filePath, Err: err}
	}

	if useOCR && utf8.RuneCountInString(strings.TrimSpace(text)) < MIN_TEXT_FOR_NO_OCR {
		ocrText, err := p.recognize(ctx, filePath)
		if err != nil {
			return "", &ExtractionError{Path: filePath, Err: err}
		}
		text += ocrText
	}

	return text, nil
}

func (p *PDFProcessor) extractPages(filePath string) (string, error) {
	doc, err := p.Opener.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	for n := 1; n <= doc.NumPage(); n++ {
		pageText, err := doc.PageText(n)
		if err != nil {
			return "", fmt.Errorf("failed to extract page %d: %w", n, err)
		}
		if pageText == "" {
			continue
		}
		fmt.Fprintf(&sb, "\n--- Page %d ---\n%s\n", n, pageText)
	}

	return sb.String(), nil
}

func (p *PDFProcessor) recognize(ctx context.Context, filePath string) (string, error) {
	if p.Recognizer == nil {
		return "", ErrNoRecognizer
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF for OCR: %w", err)
	}

	text, err := p.Recognizer.Recognize(ctx, data)
	if err != nil {
		return "", fmt.Errorf("failed to run OCR: %w", err)
	}

	return text, nil
}

// LedongthucOpener opens documents with github.com/ledongthuc/pdf
type LedongthucOpener struct{}

func (LedongthucOpener) Open(filePath string) (doc Document, err error) {
	mt, err := mimetype.DetectFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if !mt.Is(pdfMIME) {
		return nil, fmt.Errorf("%w: detected %s", ErrNotPDF, mt.String())
	}

	// The parser panics on some broken cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("%w: %v", errMalformedInput, r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, err
	}

	return &ledongthucDocument{file: f, reader: r}, nil
}

type ledongthucDocument struct {
	file   *os.File
	reader *pdf.Reader
}

func (d *ledongthucDocument) NumPage() int {
	return d.reader.NumPage()
}

func (d *ledongthucDocument) PageText(n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %v", errMalformedInput, r)
		}
	}()

	page := d.reader.Page(n)
	if page.V.IsNull() {
		return "", nil
	}

	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	// every BT operator starts a new line, including the first one on the page
	return strings.TrimPrefix(text, "\n"), nil
}

func (d *ledongthucDocument) Close() error {
	return d.file.Close()
}
