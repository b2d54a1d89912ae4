package coursemcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"course-chatter/internal/logger"
)

const defaultServerPath = "./bin/course-mcp-server"

var ErrNotConnected = errors.New("course MCP session not connected")

// Result is the flattened text of one tool call.
type Result struct {
	Success bool
	Message string
}

// Client drives a course MCP server started as a subprocess.
type Client struct {
	client  *mcp.Client
	session *mcp.ClientSession
}

func NewClient() *Client {
	return &Client{
		client: mcp.NewClient(&mcp.Implementation{
			Name:    ServerName + "-client",
			Version: ServerVersion,
		}, nil),
	}
}

// Connect starts the server binary. An empty path falls back to
// COURSE_MCP_SERVER_PATH and then to ./bin/course-mcp-server.
func (c *Client) Connect(ctx context.Context, serverPath string) error {
	if serverPath == "" {
		serverPath = os.Getenv("COURSE_MCP_SERVER_PATH")
	}
	if serverPath == "" {
		serverPath = defaultServerPath
	}
	if _, err := os.Stat(serverPath); err != nil {
		return fmt.Errorf("course MCP server binary not found at %s: %w", serverPath, err)
	}

	cmd := exec.CommandContext(ctx, serverPath)
	cmd.Env = os.Environ()

	session, err := c.client.Connect(ctx, mcp.NewCommandTransport(cmd))
	if err != nil {
		return fmt.Errorf("failed to connect to course MCP server: %w", err)
	}
	c.session = session
	logger.Infof(ctx, "✅ Connected to course MCP server at %s", serverPath)
	return nil
}

func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

func (c *Client) CourseInfo(ctx context.Context) (Result, error) {
	return c.call(ctx, "get_course_info", map[string]any{})
}

func (c *Client) SearchFAQ(ctx context.Context, query string) (Result, error) {
	return c.call(ctx, "search_faq", map[string]any{"query": query})
}

func (c *Client) RegisterStudent(ctx context.Context, p RegisterStudentParams) (Result, error) {
	args := map[string]any{
		"name":  p.Name,
		"email": p.Email,
		"phone": p.Phone,
	}
	if p.UserID != "" {
		args["user_id"] = p.UserID
	}
	return c.call(ctx, "register_student", args)
}

func (c *Client) call(ctx context.Context, tool string, args map[string]any) (Result, error) {
	if c.session == nil {
		return Result{}, ErrNotConnected
	}
	res, err := c.session.CallTool(ctx, &mcp.CallToolParams{Name: tool, Arguments: args})
	if err != nil {
		return Result{}, fmt.Errorf("call %s: %w", tool, err)
	}
	return flatten(res), nil
}

func flatten(res *mcp.CallToolResultFor[any]) Result {
	var b strings.Builder
	for _, content := range res.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			b.WriteString(text.Text)
		}
	}
	return Result{Success: !res.IsError, Message: b.String()}
}
