package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-chatter/internal/config"
)

func baseConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		LLMProvider:           config.ProviderOpenAI,
		OpenAIModel:           "gpt-4o-mini",
		LLMMaxTokens:          500,
		LLMTemperature:        0.7,
		LLMTimeout:            time.Second,
		ContextWindowPairs:    3,
		GoogleCredentialsPath: filepath.Join(dir, "missing.json"),
		GoogleSheetName:       "Course Registrations",
		SheetsTimeout:         time.Second,
		LogFilePath:           filepath.Join(dir, "logs", "log.jsonl"),
	}
}

func TestBuildWithoutOptionalCollaborators(t *testing.T) {
	deps, err := Build(context.Background(), baseConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close() })

	assert.False(t, deps.Service.ModelConfigured())
	assert.False(t, deps.Service.SinkConfigured())
	assert.NotNil(t, deps.Recorder)
	assert.Equal(t, 6, deps.Store.Limit())
}

func TestBuildWithModelKey(t *testing.T) {
	cfg := baseConfig(t)
	cfg.OpenAIAPIKey = "sk-test"
	deps, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, deps.Service.ModelConfigured())
}

func TestBuildSkipsBrokenCredentials(t *testing.T) {
	cfg := baseConfig(t)
	require.NoError(t, os.WriteFile(cfg.GoogleCredentialsPath, []byte(`{}`), 0o600))

	deps, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, deps.Service.SinkConfigured())
}

func TestBuildFailsOnMissingCourseFile(t *testing.T) {
	cfg := baseConfig(t)
	cfg.CourseInfoPath = filepath.Join(t.TempDir(), "nope.yaml")
	_, err := Build(context.Background(), cfg)
	require.Error(t, err)
}

func TestDailyReport(t *testing.T) {
	ctx := context.Background()
	deps, err := Build(ctx, baseConfig(t))
	require.NoError(t, err)
	defer deps.Close()

	_, err = deps.Service.Chat(ctx, "u1", "What is the price?")
	require.NoError(t, err)

	report, err := DailyReport(deps.Recorder, time.Now)(ctx)
	require.NoError(t, err)
	assert.Contains(t, report, "- FAQ answers: 1")
	assert.Contains(t, report, "- u1: 1 messages")

	_, err = DailyReport(nil, time.Now)(ctx)
	assert.Error(t, err)
}

func TestDepsCloseStopsRecording(t *testing.T) {
	deps, err := Build(context.Background(), baseConfig(t))
	require.NoError(t, err)
	require.NoError(t, deps.Close())

	_, err = DailyReport(deps.Recorder, time.Now)(context.Background())
	assert.Error(t, err)
}
