package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// OllamaLLM handles interactions with the Ollama chat API
type OllamaLLM struct {
	Client *api.Client
	Model  string
}

// NewOllamaLLM creates a new Ollama LLM client. An empty host falls back to OLLAMA_HOST.
func NewOllamaLLM(host string, model string, timeout time.Duration) (*OllamaLLM, error) {
	hostURL := envconfig.Host()
	if host != "" {
		parsed, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
		}
		hostURL = parsed
	}
	client := api.NewClient(hostURL, &http.Client{Timeout: timeout})

	return &OllamaLLM{
		Client: client,
		Model:  model,
	}, nil
}

func (o *OllamaLLM) Name() string { return "ollama" }

// Complete generates a JSON-formatted chat response
func (o *OllamaLLM) Complete(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := api.ChatRequest{
		Model:    o.Model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Format:   json.RawMessage(`"json"`),
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": Temperature,
		},
	}

	var responseBuilder strings.Builder

	err := o.Client.Chat(ctx, &req, func(resp api.ChatResponse) error {
		_, err := responseBuilder.WriteString(resp.Message.Content)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if responseBuilder.Len() == 0 {
		return "", fmt.Errorf("%s: %w", o.Name(), ErrEmptyResponse)
	}

	return responseBuilder.String(), nil
}
