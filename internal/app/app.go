// Package app assembles the chat service from configuration. Optional
// collaborators that fail to initialize are logged and left out so the
// service still starts.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"course-chatter/internal/analytics"
	"course-chatter/internal/chat"
	"course-chatter/internal/config"
	"course-chatter/internal/course"
	"course-chatter/internal/history"
	"course-chatter/internal/llm"
	"course-chatter/internal/logger"
	"course-chatter/internal/registration"
	"course-chatter/internal/storage"
)

type Deps struct {
	Service  *chat.Service
	Store    *history.Manager
	Recorder storage.Recorder

	closers []io.Closer
}

// Close releases collaborators that hold files open.
func (d *Deps) Close() error {
	var errs []error
	for _, c := range d.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Build fails only on an unusable course info file.
func Build(ctx context.Context, cfg *config.Config) (*Deps, error) {
	info, err := course.Load(cfg.CourseInfoPath)
	if err != nil {
		return nil, err
	}
	store := history.NewManager(cfg.ContextWindowPairs)

	var client llm.Client
	if cfg.LLMConfigured() {
		c, err := llm.NewFactory(cfg).CreateClient(cfg.LLMProvider, cfg.OpenAIModel)
		if err != nil {
			logger.Errorf(ctx, "❌ Failed to create LLM client, model answers disabled: %v", err)
		} else {
			client = c
			logger.Infof(ctx, "🤖 LLM provider %s ready", cfg.LLMProvider)
		}
	} else {
		logger.Warnf(ctx, "⚠️ LLM provider %s has no credentials, only FAQ answers are available", cfg.LLMProvider)
	}

	var sink registration.Sink
	if _, err := os.Stat(cfg.GoogleCredentialsPath); err == nil {
		s, err := registration.NewSheetsSink(ctx, cfg.GoogleCredentialsPath, cfg.GoogleSheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Errorf(ctx, "❌ Google Sheets setup failed, registrations will not be saved: %v", err)
		} else {
			sink = s
			logger.Infof(ctx, "📊 Registrations go to sheet %q", cfg.GoogleSheetName)
		}
	} else {
		logger.Warnf(ctx, "⚠️ Google credentials not found at %s, registrations will not be saved", cfg.GoogleCredentialsPath)
	}

	deps := &Deps{Store: store}
	if cfg.LogFilePath != "" {
		fr, err := storage.NewFileRecorder(cfg.LogFilePath)
		if err != nil {
			logger.Warnf(ctx, "⚠️ Interaction log disabled: %v", err)
		} else {
			deps.Recorder = fr
			deps.closers = append(deps.closers, fr)
		}
	}

	deps.Service = chat.NewService(info, store, client, sink, deps.Recorder, chat.Options{
		LLMTimeout:  cfg.LLMTimeout,
		SinkTimeout: cfg.SheetsTimeout,
	})
	return deps, nil
}

// DailyReport returns a report generator over rec for the UTC day of now().
func DailyReport(rec storage.Recorder, now func() time.Time) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		if rec == nil {
			return "", fmt.Errorf("interaction log is disabled")
		}
		day := now().UTC()
		from, to := storage.DayBounds(day)
		events, err := rec.Events(from, to)
		if err != nil {
			return "", fmt.Errorf("load interactions: %w", err)
		}
		return analytics.AnalyzeDailyLogs(events, day).GenerateReportSummary(), nil
	}
}
