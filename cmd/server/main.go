package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"course-chatter/internal/app"
	"course-chatter/internal/config"
	"course-chatter/internal/logger"
	"course-chatter/internal/scheduler"
	"course-chatter/internal/server"
	"course-chatter/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logrus.Warnf("Warning: .env file not found: %v", err)
	}

	cfg, err := config.New()
	if err != nil {
		logrus.Fatalf("❌ %v", err)
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, cfg)
	if err != nil {
		logrus.Fatalf("❌ Failed to initialize course service: %v", err)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warnf(context.Background(), "⚠️ Closing interaction log: %v", err)
		}
	}()

	srv := server.New(deps.Service, server.Options{
		Addr:           cfg.Addr(),
		StaticDir:      cfg.StaticDir,
		AllowOrigins:   cfg.CORSAllowOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	var bot *telegram.Bot
	if cfg.TelegramBotToken != "" {
		bot, err = telegram.New(cfg.TelegramBotToken, deps.Service, cfg.AdminUserID)
		if err != nil {
			logger.Errorf(ctx, "❌ Failed to create Telegram bot, continuing without it: %v", err)
			bot = nil
		}
	}

	report := app.DailyReport(deps.Recorder, time.Now)
	sched := scheduler.New(cfg.ReportCron)
	sched.SetReportFunction(func(ctx context.Context) error {
		text, err := report(ctx)
		if err != nil {
			return err
		}
		logger.Infof(ctx, "📈 Daily report:\n%s", text)
		if bot == nil {
			return nil
		}
		if err := bot.SendReport(ctx, text); err != nil && !errors.Is(err, telegram.ErrNoAdmin) {
			return err
		}
		return nil
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if deps.Recorder != nil {
		if err := sched.Start(); err != nil {
			logger.Errorf(ctx, "❌ Failed to start scheduler: %v", err)
		} else {
			g.Go(func() error {
				<-gctx.Done()
				sched.Stop()
				return nil
			})
		}
	}

	if bot != nil {
		bot.SetReportFunction(report)
		g.Go(func() error {
			bot.Start(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Errorf(context.Background(), "❌ Server stopped with error: %v", err)
		_ = deps.Close()
		os.Exit(1)
	}
	logger.Infof(context.Background(), "👋 Shutdown complete")
}
