package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Morwran/yagpt"
)

// IAM tokens are valid for at most 12 hours; refresh well before that.
const iamRefreshAfter = time.Hour

// YandexOptions holds the YandexGPT credentials. Decoding parameters are
// not forwarded because the yagpt client does not expose them.
type YandexOptions struct {
	OAuthToken string
	FolderID   string
}

type YandexClient struct {
	ya    yagpt.YaGPTFace
	token *iamCache
}

func NewYandex(opts YandexOptions) (*YandexClient, error) {
	if opts.OAuthToken == "" || opts.FolderID == "" {
		return nil, fmt.Errorf("%w: yandex needs an OAuth token and a folder id", ErrNotConfigured)
	}
	iam, err := yagpt.NewYaIam(opts.OAuthToken)
	if err != nil {
		return nil, fmt.Errorf("init yandex iam: %w", err)
	}
	token := newIAMCache(func() (string, error) {
		resp, err := iam.Create()
		if err != nil {
			return "", err
		}
		return resp.IamToken, nil
	}, time.Now)
	// Fail at startup rather than on the first question.
	if _, err := token.get(); err != nil {
		return nil, err
	}

	ya, err := yagpt.NewYagpt(opts.FolderID)
	if err != nil {
		return nil, fmt.Errorf("init yagpt: %w", err)
	}
	return &YandexClient{ya: ya, token: token}, nil
}

func (c *YandexClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	iamToken, err := c.token.get()
	if err != nil {
		return Response{}, err
	}
	resp, err := c.ya.CompletionWithCtx(ctx, iamToken, toYandexMessages(messages))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Response{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return Response{}, fmt.Errorf("yagpt completion: %w", err)
	}
	if resp == nil || len(resp.Alternatives) == 0 {
		return Response{}, fmt.Errorf("%w: yagpt returned no alternatives", ErrMalformedResponse)
	}
	content := strings.TrimSpace(resp.Alternatives[0].Message.Content)
	if content == "" {
		return Response{}, fmt.Errorf("%w: yagpt returned empty completion", ErrMalformedResponse)
	}
	return Response{
		Content:          content,
		Model:            yagpt.YaModelLite,
		PromptTokens:     int(resp.Usage.InputTextTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}, nil
}

func toYandexMessages(messages []Message) []yagpt.Message {
	out := make([]yagpt.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, yagpt.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// iamCache exchanges the OAuth token for an IAM token lazily and reuses
// it until iamRefreshAfter has passed.
type iamCache struct {
	create func() (string, error)
	now    func() time.Time

	mu       sync.Mutex
	token    string
	issuedAt time.Time
}

func newIAMCache(create func() (string, error), now func() time.Time) *iamCache {
	return &iamCache{create: create, now: now}
}

func (c *iamCache) get() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Sub(c.issuedAt) < iamRefreshAfter {
		return c.token, nil
	}
	token, err := c.create()
	if err != nil {
		if c.token != "" {
			// keep serving the old token; it is still valid for hours
			return c.token, nil
		}
		return "", fmt.Errorf("create iam token: %w", err)
	}
	c.token, c.issuedAt = token, c.now()
	return token, nil
}
