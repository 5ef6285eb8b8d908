package main

import (
	"fmt"
	"strings"
	"time"

	"rob-assessor/internal/llm"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	LLMBackend      string        `env:"LLM_BACKEND,default=deepseek" validate:"oneof=deepseek ollama gemini"`
	LLMModel        string        `env:"LLM_MODEL"`
	DeepSeekAPIKey  string        `env:"DEEPSEEK_API_KEY"`
	DeepSeekBaseURL string        `env:"DEEPSEEK_BASE_URL,default=https://api.deepseek.com"`
	GeminiAPIKey    string        `env:"GEMINI_API_KEY"`
	OllamaHost      string        `env:"OLLAMA_HOST"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT,default=120s" validate:"gt=0"`

	GuidelinesPath string `env:"GUIDELINES_PATH,default=guidelines.txt" validate:"required"`
	TextDumpPath   string `env:"TEXT_DUMP_PATH,default=t_text.txt" validate:"required"`
	ResultPath     string `env:"RESULT_PATH,default=rob_assessment.json" validate:"required"`

	UseOCR           bool   `env:"USE_OCR,default=false"`
	YandexOAuthToken string `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string `env:"YANDEX_FOLDER_ID"`

	ArchiveBackend string `env:"ARCHIVE_BACKEND,default=none" validate:"oneof=none postgres badger"`
	PostgresURL    string `env:"POSTGRES_URL" validate:"required_if=ArchiveBackend postgres"`
	BadgerPath     string `env:"BADGER_PATH,default=rob_archive" validate:"required_if=ArchiveBackend badger"`

	LogLevel string `env:"LOG_LEVEL,default=INFO"`
}

var defaultModels = map[string]string{
	"deepseek": "deepseek-chat",
	"gemini":   llm.DefaultGeminiModel,
	"ollama":   "llama3.1",
}

func loadConfig() (Config, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	config.LLMBackend = strings.ToLower(config.LLMBackend)
	config.ArchiveBackend = strings.ToLower(config.ArchiveBackend)

	if err := validator.New().Struct(config); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	if config.LLMModel == "" {
		config.LLMModel = defaultModels[config.LLMBackend]
	}
	return config, nil
}

// LLM returns the backend settings; only the selected backend's key is passed on.
// A missing key is reported by llm.New, so commands that never call a model run without one.
func (c Config) LLM() llm.Config {
	cfg := llm.Config{
		Backend: c.LLMBackend,
		Model:   c.LLMModel,
		Timeout: c.RequestTimeout,
	}
	switch c.LLMBackend {
	case "deepseek":
		cfg.APIKey = c.DeepSeekAPIKey
		cfg.BaseURL = c.DeepSeekBaseURL
	case "gemini":
		cfg.APIKey = c.GeminiAPIKey
	case "ollama":
		cfg.BaseURL = c.OllamaHost
	}
	return cfg
}

func (c Config) ocrEnabled() bool {
	return c.YandexOAuthToken != "" && c.YandexFolderID != ""
}
