package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"course-chatter/internal/course"
	"course-chatter/internal/history"
	"course-chatter/internal/llm"
	"course-chatter/internal/logger"
	"course-chatter/internal/registration"
	"course-chatter/internal/storage"
	"course-chatter/internal/validation"
)

const (
	MaxMessageLength = 4000
	startCommand     = "/start"
)

type Options struct {
	LLMTimeout  time.Duration
	SinkTimeout time.Duration
}

// Service answers course questions for many users. It owns no state of its
// own besides the injected context store.
type Service struct {
	info         course.Info
	faq          course.FAQ
	systemPrompt string
	greeting     string
	welcome      string

	store    *history.Manager
	llm      llm.Client
	sink     registration.Sink
	recorder storage.Recorder
	opts     Options
	now      func() time.Time
}

// NewService wires the composer. client, sink and rec may be nil: a nil
// client makes every model-bound question fall back, a nil sink reports
// registrations as not saved, a nil recorder disables the transcript.
func NewService(info course.Info, store *history.Manager, client llm.Client, sink registration.Sink, rec storage.Recorder, opts Options) *Service {
	if opts.LLMTimeout <= 0 {
		opts.LLMTimeout = 30 * time.Second
	}
	if opts.SinkTimeout <= 0 {
		opts.SinkTimeout = 15 * time.Second
	}
	return &Service{
		info:         info,
		faq:          course.BuildFAQ(info),
		systemPrompt: course.SystemPrompt(info),
		greeting:     course.Greeting(info),
		welcome:      course.Welcome(info),
		store:        store,
		llm:          client,
		sink:         sink,
		recorder:     rec,
		opts:         opts,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Course() course.Info   { return s.info }
func (s *Service) FAQ() course.FAQ       { return s.faq }
func (s *Service) ModelConfigured() bool { return s.llm != nil }
func (s *Service) SinkConfigured() bool  { return s.sink != nil }

// ContextLength is the number of stored user/assistant pairs for userID.
func (s *Service) ContextLength(userID string) int { return s.store.Pairs(userID) }

// Reply is the outcome of one conversational turn.
type Reply struct {
	Text          string
	Kind          storage.Kind
	Topic         string
	ContextLength int
	Timestamp     time.Time
}

type userRequest struct {
	UserID string `json:"user_id" validate:"notblank,max=200"`
}

type chatRequest struct {
	UserID  string `json:"user_id" validate:"notblank,max=200"`
	Message string `json:"message" validate:"notblank,max=4000"`
}

// Start resets the conversation and opens it with the welcome text.
func (s *Service) Start(ctx context.Context, userID string) (Reply, error) {
	if err := validation.Struct(userRequest{UserID: userID}); err != nil {
		return Reply{}, err
	}
	now := s.now()
	reply := Reply{Text: s.welcome, Kind: storage.KindStart, Timestamp: now}
	_ = s.store.Update(userID, func(c *history.Conversation) error {
		c.Clear()
		c.Append(history.UserTurn(startCommand, now), history.AssistantTurn(s.welcome, now))
		reply.ContextLength = c.Len() / 2
		return nil
	})
	logger.Infof(ctx, "👋 Conversation started for %s", userID)
	s.record(ctx, storage.Event{Timestamp: now, UserID: userID, Kind: storage.KindStart, UserMessage: startCommand, AssistantResponse: s.welcome})
	return reply, nil
}

// Reset drops userID's context.
func (s *Service) Reset(ctx context.Context, userID string) error {
	if err := validation.Struct(userRequest{UserID: userID}); err != nil {
		return err
	}
	s.store.Clear(userID)
	logger.Infof(ctx, "🧹 Context cleared for %s", userID)
	return nil
}

// Chat answers one message. FAQ hits never reach the model. A failed model
// call yields a fallback text and leaves the context untouched.
func (s *Service) Chat(ctx context.Context, userID, message string) (Reply, error) {
	msg := strings.TrimSpace(message)
	if err := validation.Struct(chatRequest{UserID: userID, Message: msg}); err != nil {
		return Reply{}, err
	}
	ctx = logger.WithFields(ctx, logrus.Fields{"user_id": userID})

	var (
		reply Reply
		event storage.Event
	)
	_ = s.store.Update(userID, func(c *history.Conversation) error {
		prior := c.Exchanges()
		d := course.Decide(s.faq, s.greeting, msg, len(prior) > 0)

		if d.Kind == course.FAQHit {
			now := s.now()
			c.Append(history.UserTurn(msg, now), history.AssistantTurn(d.Answer, now))
			reply = Reply{Text: d.Answer, Kind: storage.KindFAQ, Topic: d.Topic, Timestamp: now}
			event = storage.Event{Kind: storage.KindFAQ, Topic: d.Topic}
			logger.Infof(ctx, "📚 FAQ hit on %q", d.Topic)
		} else {
			resp, err := s.generate(ctx, prior, msg)
			now := s.now()
			if err != nil {
				text := course.FallbackError
				if errors.Is(err, llm.ErrNotConfigured) {
					text = course.FallbackUnavailable
				}
				logger.Warnf(ctx, "⚠️ Model call failed, answering with fallback: %v", err)
				reply = Reply{Text: text, Kind: storage.KindFallback, Timestamp: now}
				event = storage.Event{Kind: storage.KindFallback, Error: err.Error()}
			} else {
				c.Append(history.UserTurn(msg, now), history.AssistantTurn(resp.Content, now))
				reply = Reply{Text: resp.Content, Kind: storage.KindModel, Timestamp: now}
				event = storage.Event{Kind: storage.KindModel, Model: resp.Model, TotalTokens: resp.TotalTokens}
				logger.Infof(ctx, "🤖 LLM response [model=%s, tokens: prompt=%d, completion=%d, total=%d]",
					resp.Model, resp.PromptTokens, resp.CompletionTokens, resp.TotalTokens)
			}
		}
		reply.ContextLength = c.Len() / 2
		return nil
	})

	event.Timestamp = reply.Timestamp
	event.UserID = userID
	event.UserMessage = msg
	event.AssistantResponse = reply.Text
	s.record(ctx, event)
	return reply, nil
}

// generate calls the model with a bounded deadline that the caller cannot cancel.
func (s *Service) generate(ctx context.Context, prior []history.Exchange, msg string) (llm.Response, error) {
	if s.llm == nil {
		return llm.Response{}, llm.ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.LLMTimeout)
	defer cancel()

	msgs := make([]llm.Message, 0, len(prior)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: s.systemPrompt})
	msgs = append(msgs, history.Messages(prior)...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: msg})

	resp, err := s.llm.Generate(ctx, msgs)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, llm.ErrTimeout) {
			err = errors.Join(llm.ErrTimeout, err)
		}
		return llm.Response{}, err
	}
	resp.Content = strings.TrimSpace(resp.Content)
	if resp.Content == "" {
		return llm.Response{}, llm.ErrMalformedResponse
	}
	return resp, nil
}

func (s *Service) record(ctx context.Context, ev storage.Event) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ev); err != nil {
		logger.Warnf(ctx, "failed to record interaction: %v", err)
	}
}
