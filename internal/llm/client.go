//go:generate go run go.uber.org/mock/mockgen -source=client.go -destination=../mocks/mock_completer.go -package=mocks
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Temperature biases every backend toward deterministic output
const Temperature = 0.1

var (
	ErrEmptyResponse = errors.New("empty response from model")
	ErrUnauthorized  = errors.New("credential rejected by provider")
	ErrMissingAPIKey = errors.New("api key is empty")
)

// Completer sends one prompt and returns the model's raw JSON text
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// APIError is a non-2xx answer from a provider
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Provider, e.StatusCode, e.Body)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// Config selects and configures a backend
type Config struct {
	Backend string
	Model   string
	APIKey  string
	// BaseURL is the provider root, e.g. https://api.deepseek.com or http://localhost:11434
	BaseURL string
	Timeout time.Duration
}

var backends = map[string]func(Config) (Completer, error){
	"deepseek": func(c Config) (Completer, error) {
		client, err := NewChatClient(c.APIKey, c.BaseURL, c.Model, c.Timeout)
		if err != nil {
			return nil, err
		}
		return client, nil
	},
	"ollama": func(c Config) (Completer, error) {
		client, err := NewOllamaLLM(c.BaseURL, c.Model, c.Timeout)
		if err != nil {
			return nil, err
		}
		return client, nil
	},
	"gemini": func(c Config) (Completer, error) {
		client, err := NewGeminiLLM(c.APIKey, c.Model, c.Timeout)
		if err != nil {
			return nil, err
		}
		return client, nil
	},
}

// Backends lists the supported backend names
func Backends() []string {
	names := lo.Keys(backends)
	slices.Sort(names)
	return names
}

// New creates the Completer named by cfg.Backend
func New(cfg Config) (Completer, error) {
	factory, ok := backends[strings.ToLower(cfg.Backend)]
	if !ok {
		return nil, fmt.Errorf("unknown llm backend %q (supported: %s)", cfg.Backend, strings.Join(Backends(), ", "))
	}
	return factory(cfg)
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
