package llm

import (
	"context"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/require"
)

func TestNewGeminiLLM(t *testing.T) {
	req := require.New(t)

	g, err := NewGeminiLLM(" g-key ", "", 30*time.Second)
	req.NoError(err)
	req.Equal(DefaultGeminiModel, g.Model)
	req.Equal(30*time.Second, g.Timeout)
	req.Equal("gemini", g.Name())

	_, err = NewGeminiLLM("  ", "gemini-1.5-flash", time.Second)
	req.ErrorIs(err, ErrMissingAPIKey)
}

func TestNew_GeminiKeepsTimeout(t *testing.T) {
	c, err := New(Config{Backend: "gemini", APIKey: "g-key", Model: "gemini-1.5-flash", Timeout: time.Minute})
	require.NoError(t, err)

	g, ok := c.(*GeminiLLM)
	require.True(t, ok)
	require.Equal(t, "gemini-1.5-flash", g.Model)
	require.Equal(t, time.Minute, g.Timeout)
}

func TestGeminiLLM_CanceledContext(t *testing.T) {
	g, err := NewGeminiLLM("g-key", "", time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	text, err := g.Complete(ctx, "assess")
	require.Error(t, err)
	require.Empty(t, text)
}

func TestFirstText(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want string
	}{
		{name: "nil", resp: nil, want: ""},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, want: ""},
		{
			name: "skips empty candidate",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: nil},
				{Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"risk":"low"}`)}}},
			}},
			want: `{"risk":"low"}`,
		},
		{
			name: "first text part wins",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Text("a"), genai.Text("b")}}},
			}},
			want: "a",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, firstText(tt.resp))
		})
	}
}
