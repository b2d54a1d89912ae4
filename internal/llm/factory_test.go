package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-chatter/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		OpenAIAPIKey:   "sk-test",
		LLMMaxTokens:   500,
		LLMTemperature: 0.7,
	}
}

func TestFactoryCreatesOpenAIClient(t *testing.T) {
	c, err := NewFactory(testConfig()).CreateClient(" OpenAI ", "gpt-4o-mini")
	require.NoError(t, err)
	oa, ok := c.(*OpenAIClient)
	require.True(t, ok)
	assert.Equal(t, "gpt-4o-mini", oa.model)
	assert.Equal(t, Params{MaxTokens: 500, Temperature: 0.7}, oa.params)
}

func TestFactoryWithTemperatureLeavesOriginal(t *testing.T) {
	f := NewFactory(testConfig())
	hot := f.WithTemperature(1.2)
	assert.Equal(t, float32(1.2), hot.Params().Temperature)
	assert.Equal(t, float32(0.7), f.Params().Temperature)
	assert.Equal(t, 500, hot.Params().MaxTokens)
}

func TestFactoryRejectsUnknownProvider(t *testing.T) {
	_, err := NewFactory(testConfig()).CreateClient("anthropic", "m")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestFactoryYandexWithoutCredentials(t *testing.T) {
	_, err := NewFactory(testConfig()).CreateClient(config.ProviderYandex, "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
