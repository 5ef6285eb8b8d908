package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const DefaultRecognizeURL = "https://ocr.api.cloud.yandex.net/ocr/v1/recognizeText"

// YandexEngine recognizes text through Yandex Vision OCR
type YandexEngine struct {
	Endpoint  string
	Languages []string
	Model     string

	iamc     *IamClient
	folderID string
	httpc    *http.Client
	log      *slog.Logger
}

func NewYandexEngine(oauthToken, folderID string, log *slog.Logger) *YandexEngine {
	return &YandexEngine{
		Endpoint:  DefaultRecognizeURL,
		Languages: []string{"en"},
		Model:     "page",
		iamc:      NewIamClient(oauthToken),
		folderID:  folderID,
		httpc:     &http.Client{Timeout: 60 * time.Second},
		log:       log,
	}
}

// IAM exposes the token client so its endpoint can be pointed elsewhere
func (e *YandexEngine) IAM() *IamClient { return e.iamc }

type recognizeRequest struct {
	Content       string   `json:"content"`
	MimeType      string   `json:"mimeType,omitempty"`
	LanguageCodes []string `json:"languageCodes,omitempty"`
	Model         string   `json:"model,omitempty"`
}

type recognizeResponse struct {
	Result *struct {
		TextAnnotation *textAnnotation `json:"textAnnotation,omitempty"`
	} `json:"result,omitempty"`
}

type textAnnotation struct {
	FullText string `json:"fullText,omitempty"`
	Blocks   []struct {
		Lines []struct {
			Text string `json:"text,omitempty"`
		} `json:"lines,omitempty"`
	} `json:"blocks,omitempty"`
}

// Recognize sends the whole document and returns its recognized text
func (e *YandexEngine) Recognize(ctx context.Context, document []byte) (string, error) {
	mime := ocrMimeType(document)
	if mime == "" {
		return "", fmt.Errorf("yandex ocr: unsupported document type %s", mimetype.Detect(document).String())
	}

	payload, err := json.Marshal(recognizeRequest{
		Content:       base64.StdEncoding.EncodeToString(document),
		MimeType:      mime,
		LanguageCodes: e.Languages,
		Model:         e.Model,
	})
	if err != nil {
		return "", err
	}

	resp, err := e.do(ctx, payload)
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		e.log.Debug("IAM token rejected, refreshing")
		e.iamc.Invalidate()
		if resp, err = e.do(ctx, payload); err != nil {
			return "", err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("yandex ocr %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var out recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode ocr response: %w", err)
	}

	text := out.text()
	e.log.Info("OCR finished", "characters", len([]rune(text)))
	return text, nil
}

func (e *YandexEngine) do(ctx context.Context, payload []byte) (*http.Response, error) {
	iamToken, err := e.iamc.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+iamToken)
	req.Header.Set("x-folder-id", e.folderID)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call yandex ocr: %w", err)
	}
	return resp, nil
}

func (r *recognizeResponse) text() string {
	if r == nil || r.Result == nil || r.Result.TextAnnotation == nil {
		return ""
	}
	ta := r.Result.TextAnnotation
	if t := strings.TrimSpace(ta.FullText); t != "" {
		return t
	}

	// fallback: lines
	var lines []string
	for _, b := range ta.Blocks {
		for _, l := range b.Lines {
			if s := strings.TrimSpace(l.Text); s != "" {
				lines = append(lines, s)
			}
		}
	}
	return strings.Join(lines, "\n")
}

func ocrMimeType(b []byte) string {
	switch mimetype.Detect(b).String() {
	case "application/pdf":
		return "PDF"
	case "image/jpeg":
		return "JPEG"
	case "image/png":
		return "PNG"
	}
	return ""
}
