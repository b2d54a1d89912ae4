package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"course-chatter/internal/app"
	"course-chatter/internal/config"
	"course-chatter/internal/coursemcp"
	"course-chatter/internal/logger"
)

func main() {
	ctx := context.Background()
	if err := godotenv.Load(".env"); err != nil {
		logrus.Warnf("Warning: .env file not found: %v", err)
	}

	cfg, err := config.New()
	if err != nil {
		logrus.Fatalf("❌ %v", err)
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	// stdout carries the MCP protocol
	logger.SetOutput(os.Stderr)

	deps, err := app.Build(ctx, cfg)
	if err != nil {
		logrus.Fatalf("❌ Failed to initialize course service: %v", err)
	}

	if err := run(ctx, deps, mcp.NewStdioTransport()); err != nil {
		logrus.Fatalf("❌ Course MCP server failed: %v", err)
	}
}

// run serves the course tools on t until the session ends and then
// releases deps.
func run(ctx context.Context, deps *app.Deps, t mcp.Transport) error {
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warnf(ctx, "⚠️ Closing interaction log: %v", err)
		}
	}()

	server := coursemcp.NewServer(deps.Service)
	logger.Infof(ctx, "📋 Registered course MCP tools: get_course_info, search_faq, register_student")
	logger.Infof(ctx, "🔗 Starting course MCP server on stdin/stdout...")
	return server.Run(ctx, t)
}
