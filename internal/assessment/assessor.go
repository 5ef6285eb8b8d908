//go:generate go run go.uber.org/mock/mockgen -source=assessor.go -destination=../mocks/mock_extractor.go -package=mocks
package assessment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"rob-assessor/internal/database"
	"rob-assessor/internal/llm"
	"rob-assessor/internal/models"
	"rob-assessor/internal/processor"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrInvalidResponse is returned when the model answer is not a single JSON object
var ErrInvalidResponse = errors.New("model response is not a JSON object")

var validate = validator.New()

// TextExtractor turns a document into page-annotated text
type TextExtractor interface {
	ExtractText(ctx context.Context, filePath string, useOCR bool) (string, error)
}

// Options holds the file locations and per-call settings of an Assessor
type Options struct {
	GuidelinesPath string
	TextDumpPath   string
	ResultPath     string
	UseOCR         bool
	// Timeout bounds the model call. Zero leaves it to the caller's context.
	Timeout time.Duration
	// Model is recorded in archive records only
	Model string
}

// Assessor runs extract, compose, complete and persist for one trial at a time
type Assessor struct {
	extractor TextExtractor
	completer llm.Completer
	store     database.Store
	opts      Options
	log       *slog.Logger
}

// New creates an Assessor. store may be nil to disable archiving.
func New(extractor TextExtractor, completer llm.Completer, store database.Store, opts Options, log *slog.Logger) *Assessor {
	return &Assessor{
		extractor: extractor,
		completer: completer,
		store:     store,
		opts:      opts,
		log:       log,
	}
}

// Assess extracts the trial text, asks the model for a judgment and returns it with a _source block.
// The extracted text is written to the text dump path before the model is called.
func (a *Assessor) Assess(ctx context.Context, trial models.Trial) (models.AssessmentResult, error) {
	result, _, err := a.assess(ctx, trial)
	return result, err
}

// Run assesses the trial, writes the result file and archives the run when a store is configured.
// Nothing is written to the result path on failure.
func (a *Assessor) Run(ctx context.Context, trial models.Trial) (models.AssessmentResult, error) {
	result, text, err := a.assess(ctx, trial)
	if err != nil {
		return nil, err
	}

	if err := WriteResult(a.opts.ResultPath, result); err != nil {
		return nil, fmt.Errorf("failed to write result: %w", err)
	}
	a.log.Info("Assessment saved", "path", a.opts.ResultPath)

	if a.store != nil {
		a.archive(ctx, trial, text, result)
	}

	return result, nil
}

func (a *Assessor) assess(ctx context.Context, trial models.Trial) (models.AssessmentResult, string, error) {
	if err := validate.Struct(trial); err != nil {
		return nil, "", fmt.Errorf("invalid trial: %w", err)
	}

	a.log.Info("Processing PDF", "path", trial.PDFPath)
	text, err := a.extractor.ExtractText(ctx, trial.PDFPath, a.opts.UseOCR)
	if err != nil {
		return nil, "", err
	}
	a.log.Info(fmt.Sprintf("Extracted %d characters", utf8.RuneCountInString(text)))

	if err := os.WriteFile(a.opts.TextDumpPath, []byte(text), 0o644); err != nil {
		return nil, "", fmt.Errorf("failed to write text dump: %w", err)
	}

	guidelines, err := os.ReadFile(a.opts.GuidelinesPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load guidelines: %w", err)
	}

	prompt := llm.ComposePrompt(models.AssessmentRequest{
		Guidelines:    string(guidelines),
		ExtractedText: text,
		Author:        trial.Author,
		Year:          trial.Year,
		Registration:  trial.Registration,
		SourceName:    filepath.Base(trial.PDFPath),
	})

	callCtx := ctx
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	a.log.Debug("Requesting assessment", "backend", a.completer.Name(), "prompt_length", len(prompt))
	content, err := a.completer.Complete(callCtx, prompt)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get assessment from %s: %w", a.completer.Name(), err)
	}

	result, err := ParseResult(content)
	if err != nil {
		return nil, "", err
	}

	a.attachSource(result, models.Source{
		PDFFile:      trial.PDFPath,
		Author:       trial.Author,
		Year:         trial.Year,
		Registration: trial.Registration,
		TextLength:   utf8.RuneCountInString(text),
	})

	return result, text, nil
}

// ParseResult decodes the model content as exactly one JSON object.
// Numbers are kept as json.Number so they are written back unchanged.
func ParseResult(content string) (models.AssessmentResult, error) {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()

	var result models.AssessmentResult
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if result == nil {
		return nil, fmt.Errorf("%w: null", ErrInvalidResponse)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after object", ErrInvalidResponse)
	}

	return result, nil
}

// attachSource sets the _source block. A model-provided _source is kept under _source_model.
func (a *Assessor) attachSource(result models.AssessmentResult, src models.Source) {
	if existing, ok := result[models.SourceKey]; ok {
		key := models.SourceKey + "_model"
		for i := 2; ; i++ {
			if _, taken := result[key]; !taken {
				break
			}
			key = fmt.Sprintf("%s_model_%d", models.SourceKey, i)
		}
		result[key] = existing
		a.log.Warn("Model output contained a _source key, moved", "key", key)
	}
	result[models.SourceKey] = src
}

// WriteResult writes the result as 2-space indented JSON, replacing path atomically
func WriteResult(path string, result models.AssessmentResult) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	return os.Rename(tmp.Name(), path)
}

func (a *Assessor) archive(ctx context.Context, trial models.Trial, text string, result models.AssessmentResult) {
	artifact, err := processor.BuildArtifact(trial.PDFPath, text)
	if err != nil {
		a.log.Warn("Failed to build archive artifact", "error", err)
		return
	}

	rec := &models.ArchiveRecord{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Backend:   a.completer.Name(),
		Model:     a.opts.Model,
		Source:    result[models.SourceKey].(models.Source),
		Artifact:  *artifact,
		Result:    result,
	}
	if err := a.store.SaveAssessment(ctx, rec); err != nil {
		a.log.Warn("Failed to archive assessment", "error", err)
		return
	}
	a.log.Info("Assessment archived", "id", rec.ID)
}
