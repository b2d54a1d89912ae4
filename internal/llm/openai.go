package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIOptions configures an OpenAI-compatible endpoint. Referrer and
// Title are sent as OpenRouter attribution headers when set.
type OpenAIOptions struct {
	APIKey   string
	BaseURL  string
	Model    string
	Referrer string
	Title    string
	Params   Params
}

func (o OpenAIOptions) headers() http.Header {
	h := http.Header{}
	if o.Referrer != "" {
		h.Set("HTTP-Referer", o.Referrer)
	}
	if o.Title != "" {
		h.Set("X-Title", o.Title)
	}
	return h
}

type OpenAIClient struct {
	client *openai.Client
	model  string
	params Params
}

// headerTransport stamps fixed headers on every outgoing request.
type headerTransport struct {
	next    http.RoundTripper
	headers http.Header
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	for k, vs := range t.headers {
		for _, v := range vs {
			out.Header.Add(k, v)
		}
	}
	return t.next.RoundTrip(out)
}

func NewOpenAI(opts OpenAIOptions) *OpenAIClient {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if h := opts.headers(); len(h) > 0 {
		cfg.HTTPClient = &http.Client{Transport: headerTransport{next: http.DefaultTransport, headers: h}}
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  opts.Model,
		params: opts.Params,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	history := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		history = append(history, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    history,
		MaxTokens:   c.params.MaxTokens,
		Temperature: c.params.Temperature,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Response{}, classifyOpenAIError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return Response{}, fmt.Errorf("%w: empty completion", ErrMalformedResponse)
	}

	return Response{
		Content:          content,
		Model:            c.model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// classifyOpenAIError maps transport and API failures onto the package sentinels.
func classifyOpenAIError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.Type == "insufficient_quota" {
			return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
			return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return fmt.Errorf("chat completion: %w", err)
}
