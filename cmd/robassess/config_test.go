package main

import (
	"testing"
	"time"

	"rob-assessor/internal/llm"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")

	config, err := loadConfig()
	req.NoError(err)
	req.Equal("deepseek", config.LLMBackend)
	req.Equal("deepseek-chat", config.LLMModel)
	req.Equal(120*time.Second, config.RequestTimeout)
	req.Equal("guidelines.txt", config.GuidelinesPath)
	req.Equal("t_text.txt", config.TextDumpPath)
	req.Equal("rob_assessment.json", config.ResultPath)
	req.Equal("none", config.ArchiveBackend)
	req.False(config.UseOCR)
	req.False(config.ocrEnabled())

	req.Equal(llm.Config{
		Backend: "deepseek",
		Model:   "deepseek-chat",
		APIKey:  "sk-test",
		BaseURL: "https://api.deepseek.com",
		Timeout: 120 * time.Second,
	}, config.LLM())
}

func TestLoadConfig_ArchiveWithoutKey(t *testing.T) {
	req := require.New(t)
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("ARCHIVE_BACKEND", "badger")
	t.Setenv("BADGER_PATH", t.TempDir())

	config, err := loadConfig()
	req.NoError(err)
	req.Equal("badger", config.ArchiveBackend)

	_, err = llm.New(config.LLM())
	req.ErrorIs(err, llm.ErrMissingAPIKey)
}

func TestLoadConfig_Gemini(t *testing.T) {
	req := require.New(t)
	t.Setenv("LLM_BACKEND", "Gemini")
	t.Setenv("GEMINI_API_KEY", "g-test")
	t.Setenv("DEEPSEEK_API_KEY", "sk-unused")

	config, err := loadConfig()
	req.NoError(err)
	req.Equal(llm.DefaultGeminiModel, config.LLMModel)

	cfg := config.LLM()
	req.Equal("g-test", cfg.APIKey)
	req.Empty(cfg.BaseURL)
}

func TestLoadConfig_Ollama(t *testing.T) {
	req := require.New(t)
	t.Setenv("LLM_BACKEND", "ollama")
	t.Setenv("LLM_MODEL", "qwen2.5")
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")
	t.Setenv("REQUEST_TIMEOUT", "5m")

	config, err := loadConfig()
	req.NoError(err)
	req.Equal(llm.Config{
		Backend: "ollama",
		Model:   "qwen2.5",
		BaseURL: "http://gpu-box:11434",
		Timeout: 5 * time.Minute,
	}, config.LLM())
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "unknown backend", env: map[string]string{"LLM_BACKEND": "claude"}, want: "LLMBackend"},
		{name: "unknown archive", env: map[string]string{"ARCHIVE_BACKEND": "sqlite"}, want: "ArchiveBackend"},
		{name: "postgres without url", env: map[string]string{"ARCHIVE_BACKEND": "postgres"}, want: "PostgresURL"},
		{name: "bad timeout", env: map[string]string{"REQUEST_TIMEOUT": "soon"}, want: "config error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DEEPSEEK_API_KEY", "sk-test")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := loadConfig()
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoadConfig_OCR(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	t.Setenv("USE_OCR", "true")
	t.Setenv("YANDEX_OAUTH_TOKEN", "oauth")
	t.Setenv("YANDEX_FOLDER_ID", "folder")

	config, err := loadConfig()
	require.NoError(t, err)
	require.True(t, config.UseOCR)
	require.True(t, config.ocrEnabled())
}
