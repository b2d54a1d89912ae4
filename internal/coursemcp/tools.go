// Package coursemcp exposes the course assistant as MCP tools so other agents
// can look up course facts and enroll students.
package coursemcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"course-chatter/internal/chat"
	"course-chatter/internal/logger"
	"course-chatter/internal/validation"
)

const (
	ServerName    = "course-chatter-mcp"
	ServerVersion = "1.0.0"
)

type CourseInfoParams struct{}

type SearchFAQParams struct {
	Query string `json:"query" mcp:"question or keyword, e.g. 'price' or 'how long is the course'"`
}

type RegisterStudentParams struct {
	Name   string `json:"name" mcp:"student full name"`
	Email  string `json:"email" mcp:"student email address"`
	Phone  string `json:"phone" mcp:"student phone number"`
	UserID string `json:"user_id,omitempty" mcp:"optional conversation id to attach the confirmation to"`
}

// Tools implements the MCP tool handlers on top of a chat service.
type Tools struct {
	svc *chat.Service
}

func NewTools(svc *chat.Service) *Tools {
	return &Tools{svc: svc}
}

// NewServer builds an MCP server with every course tool registered.
func NewServer(svc *chat.Service) *mcp.Server {
	t := NewTools(svc)
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_course_info",
		Description: "Returns the full course description: schedule, price, instructor, benefits and prerequisites",
	}, t.GetCourseInfo)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_faq",
		Description: "Finds the canned answer for a course question by keyword",
	}, t.SearchFAQ)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "register_student",
		Description: "Registers a student for the course and stores the registration in the spreadsheet",
	}, t.RegisterStudent)

	return server
}

func (t *Tools) GetCourseInfo(ctx context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[CourseInfoParams]) (*mcp.CallToolResultFor[any], error) {
	data, err := json.MarshalIndent(t.svc.Course(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal course info: %w", err)
	}
	return textResult(string(data), false), nil
}

func (t *Tools) SearchFAQ(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[SearchFAQParams]) (*mcp.CallToolResultFor[any], error) {
	query := strings.TrimSpace(params.Arguments.Query)
	if query == "" {
		return textResult("query must not be empty", true), nil
	}
	faq := t.svc.FAQ()
	if entry, ok := faq.Lookup(query); ok {
		logger.Infof(ctx, "📚 MCP: FAQ hit on %q", entry.Topic)
		return textResult(fmt.Sprintf("[%s] %s", entry.Topic, entry.Answer), false), nil
	}

	topics := make([]string, 0, len(faq))
	for _, e := range faq {
		topics = append(topics, e.Topic)
	}
	return textResult("No FAQ entry matches. Known topics: "+strings.Join(topics, ", "), false), nil
}

func (t *Tools) RegisterStudent(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[RegisterStudentParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	res, err := t.svc.Register(ctx, chat.RegisterRequest{
		Name:   args.Name,
		Email:  args.Email,
		Phone:  args.Phone,
		UserID: args.UserID,
	})
	if err != nil {
		if validation.IsValidation(err) {
			return textResult("❌ "+err.Error(), true), nil
		}
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Registration %s created\n", res.ID)
	fmt.Fprintf(&b, "Saved to spreadsheet: %t\n\n", res.SheetsSaved)
	b.WriteString(res.Message)
	return textResult(b.String(), false), nil
}

func textResult(text string, isError bool) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: isError,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
