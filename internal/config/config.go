package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

// placeholderAPIKey is shipped in sample .env files and must not count as configured.
const placeholderAPIKey = "your-openai-api-key-here"

type Config struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"8000"`

	// LLM settings
	LLMProvider      LLMProvider   `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string        `env:"OPENAI_BASE_URL"`
	OpenAIModel      string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken string        `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string        `env:"YANDEX_FOLDER_ID"`
	LLMMaxTokens     int           `env:"LLM_MAX_TOKENS" envDefault:"500"`
	LLMTemperature   float32       `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	LLMTimeout       time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Conversation
	ContextWindowPairs int `env:"CONTEXT_WINDOW_PAIRS" envDefault:"5"`

	// Course
	CourseInfoPath string `env:"COURSE_INFO_PATH"`

	// Google Sheets
	GoogleCredentialsPath string        `env:"GOOGLE_CREDENTIALS_PATH" envDefault:"credentials.json"`
	GoogleSheetName       string        `env:"GOOGLE_SHEET_NAME" envDefault:"Course Registrations"`
	GoogleSheetID         string        `env:"GOOGLE_SHEET_ID"`
	SheetsTimeout         time.Duration `env:"SHEETS_TIMEOUT" envDefault:"15s"`

	// HTTP
	StaticDir        string   `env:"STATIC_DIR" envDefault:"static"`
	CORSAllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"*"`
	RateLimitRPS     float64  `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst   int      `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// Logging
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`
	LogFilePath string `env:"LOG_FILE_PATH" envDefault:"logs/log.jsonl"`

	// Telegram frontend and daily report (optional)
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	AdminUserID      int64  `env:"ADMIN_USER"`
	ReportCron       string `env:"REPORT_CRON" envDefault:"0 21 * * *"`
}

func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.ContextWindowPairs < 1 {
		return nil, fmt.Errorf("CONTEXT_WINDOW_PAIRS must be positive, got %d", cfg.ContextWindowPairs)
	}
	if cfg.LLMTimeout <= 0 {
		return nil, fmt.Errorf("LLM_TIMEOUT must be positive, got %s", cfg.LLMTimeout)
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LLMConfigured reports whether the selected provider has credentials.
func (c *Config) LLMConfigured() bool {
	switch c.LLMProvider {
	case ProviderYandex:
		return c.YandexOAuthToken != "" && c.YandexFolderID != ""
	default:
		return c.OpenAIAPIKey != "" && c.OpenAIAPIKey != placeholderAPIKey
	}
}
