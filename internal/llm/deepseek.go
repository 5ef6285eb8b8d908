package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultDeepSeekURL = "https://api.deepseek.com"

// ChatClient talks to an OpenAI-compatible chat completion endpoint
type ChatClient struct {
	baseURL string
	model   string
	apiKey  string
	httpc   *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewChatClient creates a chat completion client. A zero timeout leaves requests unbounded.
func NewChatClient(apiKey, baseURL, model string, timeout time.Duration) (*ChatClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("deepseek: %w", ErrMissingAPIKey)
	}
	if baseURL == "" {
		baseURL = DefaultDeepSeekURL
	}

	return &ChatClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: timeout},
	}, nil
}

func (c *ChatClient) Name() string { return "deepseek" }

func (c *ChatClient) Model() string { return c.model }

// Complete sends the prompt as a single user message and returns the message content
func (c *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:          c.model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		Temperature:    Temperature,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call %s: %w", c.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &APIError{
			Provider:   c.Name(),
			StatusCode: resp.StatusCode,
			Body:       truncate(bytes.TrimSpace(body), 512),
		}
	}

	var raw chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("failed to decode %s envelope: %w", c.Name(), err)
	}
	if len(raw.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", c.Name(), ErrEmptyResponse)
	}

	return raw.Choices[0].Message.Content, nil
}
