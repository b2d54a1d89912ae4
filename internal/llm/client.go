package llm

import (
	"context"
	"errors"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	ErrNotConfigured     = errors.New("llm: model is not configured")
	ErrTimeout           = errors.New("llm: request timed out")
	ErrQuotaExceeded     = errors.New("llm: quota exceeded")
	ErrMalformedResponse = errors.New("llm: malformed response")
)

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Params are the decoding parameters applied to every completion.
type Params struct {
	MaxTokens   int
	Temperature float32
}

type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}
