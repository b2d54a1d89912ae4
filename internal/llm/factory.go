package llm

import (
	"errors"
	"fmt"
	"strings"

	"course-chatter/internal/config"
)

var ErrUnknownProvider = errors.New("llm: unknown provider")

// Factory builds a Client for the configured provider. The same decoding
// parameters go to every client it creates.
type Factory struct {
	openai OpenAIOptions
	yandex YandexOptions
	params Params
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		openai: OpenAIOptions{
			APIKey:   cfg.OpenAIAPIKey,
			BaseURL:  cfg.OpenAIBaseURL,
			Referrer: cfg.OpenRouterReferrer,
			Title:    cfg.OpenRouterTitle,
		},
		yandex: YandexOptions{
			OAuthToken: cfg.YandexOAuthToken,
			FolderID:   cfg.YandexFolderID,
		},
		params: Params{
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
		},
	}
}

// WithTemperature returns a copy of f that samples at t.
func (f *Factory) WithTemperature(t float32) *Factory {
	cp := *f
	cp.params.Temperature = t
	return &cp
}

func (f *Factory) Params() Params { return f.params }

func (f *Factory) CreateClient(provider config.LLMProvider, model string) (Client, error) {
	switch config.LLMProvider(strings.ToLower(strings.TrimSpace(string(provider)))) {
	case config.ProviderOpenAI, "":
		opts := f.openai
		opts.Model = model
		opts.Params = f.params
		return NewOpenAI(opts), nil
	case config.ProviderYandex:
		return NewYandex(f.yandex)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}
