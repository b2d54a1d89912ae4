package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-chatter/internal/chat"
	"course-chatter/internal/course"
	"course-chatter/internal/history"
	"course-chatter/internal/llm"
	"course-chatter/internal/registration"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubLLM struct {
	mu    sync.Mutex
	calls int
	reply string
}

func (s *stubLLM) Generate(_ context.Context, _ []llm.Message) (llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return llm.Response{Content: s.reply, Model: "stub"}, nil
}

type stubSink struct {
	mu   sync.Mutex
	rows []registration.Record
}

func (s *stubSink) Save(_ context.Context, rec registration.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rec)
	return nil
}

type testEnv struct {
	srv   *Server
	store *history.Manager
	model *stubLLM
	sink  *stubSink
}

func newEnv(t *testing.T, withModel, withSink bool, opts Options) *testEnv {
	t.Helper()
	env := &testEnv{store: history.NewManager(history.DefaultWindowPairs)}
	var client llm.Client
	if withModel {
		env.model = &stubLLM{reply: "The course covers Django in week 6."}
		client = env.model
	}
	var sink registration.Sink
	if withSink {
		env.sink = &stubSink{}
		sink = env.sink
	}
	svc := chat.NewService(course.Default(), env.store, client, sink, nil, chat.Options{})
	env.srv = New(svc, opts)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestChat_DurationQuestionIsAnsweredFromFAQ(t *testing.T) {
	env := newEnv(t, true, false, Options{})

	rec := env.do(t, http.MethodPost, "/chat", gin.H{"user_id": "u1", "message": "How long is the course duration?"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Contains(t, body["response"], course.Default().Duration)
	assert.EqualValues(t, 1, body["context_length"])
	assert.NotEmpty(t, body["timestamp"])
	assert.Equal(t, 0, env.model.calls)

	got := env.store.Get("u1")
	require.Len(t, got, 2)
	assert.Equal(t, "How long is the course duration?", got[0].Text)
}

func TestChat_ModelAnswerIsStored(t *testing.T) {
	env := newEnv(t, true, false, Options{})

	env.do(t, http.MethodPost, "/start", gin.H{"user_id": "u1"})
	rec := env.do(t, http.MethodPost, "/chat", gin.H{"user_id": "u1", "message": "Do we cover Django?"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "The course covers Django in week 6.", body["response"])
	assert.EqualValues(t, 2, body["context_length"])
	assert.Equal(t, 1, env.model.calls)
}

func TestChat_ValidationErrors(t *testing.T) {
	env := newEnv(t, true, false, Options{})

	cases := []struct {
		name   string
		body   interface{}
		detail string
	}{
		{"blank message", gin.H{"user_id": "u1", "message": "   "}, "message must not be empty"},
		{"missing user", gin.H{"message": "hi"}, "user_id must not be empty"},
		{"too long", gin.H{"user_id": "u1", "message": strings.Repeat("a", chat.MaxMessageLength+1)}, "message must be at most"},
		{"broken json", `{"user_id":`, "invalid request body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/chat", tc.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, decode(t, rec)["detail"], tc.detail)
		})
	}
	assert.Empty(t, env.store.Users())
	assert.Equal(t, 0, env.model.calls)
}

func TestChat_NoModelFallsBackWithoutRecording(t *testing.T) {
	env := newEnv(t, false, false, Options{})

	rec := env.do(t, http.MethodPost, "/chat", gin.H{"user_id": "u1", "message": "Tell me about decorators"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, course.FallbackUnavailable, body["response"])
	assert.EqualValues(t, 0, body["context_length"])
	assert.Empty(t, env.store.Get("u1"))
}

func TestStartAndReset(t *testing.T) {
	env := newEnv(t, false, false, Options{})

	rec := env.do(t, http.MethodPost, "/start", gin.H{"user_id": "u1", "message": "/start"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Contains(t, body["response"], course.Default().Name)
	assert.EqualValues(t, 1, body["context_length"])

	rec = env.do(t, http.MethodPost, "/reset", gin.H{"user_id": "u1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["context_length"])
	assert.Empty(t, env.store.Users())
}

func TestRegister_SavesToSink(t *testing.T) {
	env := newEnv(t, false, true, Options{})

	rec := env.do(t, http.MethodPost, "/register", gin.H{
		"name": "Ann Lee", "email": "ann@example.com", "phone": "+1 555 0100", "user_id": "u1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["sheets_saved"])
	assert.True(t, strings.HasPrefix(body["registration_id"].(string), "REG_"))
	require.Len(t, env.sink.rows, 1)
	assert.Equal(t, "ann@example.com", env.sink.rows[0].Email)
	assert.Equal(t, 1, env.store.Pairs("u1"))
}

func TestRegister_MalformedEmailNeverReachesSink(t *testing.T) {
	env := newEnv(t, false, true, Options{})

	rec := env.do(t, http.MethodPost, "/register", gin.H{"name": "Ann", "email": "ann-at-example", "phone": "123"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode(t, rec)["detail"], "email must be a valid email address")
	assert.Empty(t, env.sink.rows)
}

func TestRegister_WithoutSinkReportsNotSaved(t *testing.T) {
	env := newEnv(t, false, false, Options{})

	rec := env.do(t, http.MethodPost, "/register", gin.H{"name": "Ann", "email": "ann@example.com", "phone": "123"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["sheets_saved"])
}

func TestHealthReflectsConfiguration(t *testing.T) {
	rec := newEnv(t, false, false, Options{}).do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["openai_configured"])
	assert.Equal(t, false, body["google_sheets_configured"])

	body = decode(t, newEnv(t, true, true, Options{}).do(t, http.MethodGet, "/health", nil))
	assert.Equal(t, true, body["openai_configured"])
	assert.Equal(t, true, body["google_sheets_configured"])
}

func TestCourseInfo(t *testing.T) {
	rec := newEnv(t, false, false, Options{}).do(t, http.MethodGet, "/course-info", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)

	details := body["course_details"].(map[string]interface{})
	assert.Equal(t, course.Default().Name, details["name"])
	faqs := body["faqs"].(map[string]interface{})
	assert.Contains(t, faqs, "duration")
	assert.Contains(t, faqs, "price")
	assert.Contains(t, body, "registration_info")
}

func TestUnknownRouteAndAPIInfo(t *testing.T) {
	env := newEnv(t, false, false, Options{})

	rec := env.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode(t, rec)["message"], "Endpoint not found")

	rec = env.do(t, http.MethodGet, "/api", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, apiVersion, body["version"])
	assert.Contains(t, body["endpoints"], "/chat")
}

func TestStaticFrontendServedWhenPresent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>chat</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log('chat')"), 0o644))
	env := newEnv(t, false, false, Options{StaticDir: dir})

	rec := env.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "chat")

	rec = env.do(t, http.MethodGet, "/static/app.js", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "console.log")
}

func TestRateLimit(t *testing.T) {
	env := newEnv(t, false, false, Options{RateLimitRPS: 0.001, RateLimitBurst: 1})

	first := env.do(t, http.MethodPost, "/chat", gin.H{"user_id": "u1", "message": "price?"})
	require.Equal(t, http.StatusOK, first.Code)
	second := env.do(t, http.MethodPost, "/chat", gin.H{"user_id": "u1", "message": "price?"})
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	health := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, health.Code)

	reg := env.do(t, http.MethodPost, "/register", gin.H{"name": "Ann", "email": "ann@example.com", "phone": "123"})
	assert.Equal(t, http.StatusOK, reg.Code)
}

func TestRequestIDEchoed(t *testing.T) {
	env := newEnv(t, false, false, Options{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))

	rec = env.do(t, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	env := newEnv(t, false, false, Options{})

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "https://course.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
