package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr error
	}{
		{"deepseek", Config{Backend: "deepseek", APIKey: "sk-1", Model: "deepseek-chat"}, "deepseek", nil},
		{"case insensitive", Config{Backend: "DeepSeek", APIKey: "sk-1"}, "deepseek", nil},
		{"ollama", Config{Backend: "ollama", BaseURL: "http://localhost:11434", Model: "llama3.1"}, "ollama", nil},
		{"gemini", Config{Backend: "gemini", APIKey: "g-1"}, "gemini", nil},
		{"deepseek without key", Config{Backend: "deepseek"}, "", ErrMissingAPIKey},
		{"gemini without key", Config{Backend: "gemini"}, "", ErrMissingAPIKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, c)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, c.Name())
		})
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(Config{Backend: "claude-via-fax"})
	require.ErrorContains(t, err, "deepseek, gemini, ollama")
}
