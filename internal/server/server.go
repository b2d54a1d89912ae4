package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"course-chatter/internal/chat"
	"course-chatter/internal/logger"
	"course-chatter/internal/validation"
)

const apiVersion = "1.0.0"

type Options struct {
	Addr           string
	StaticDir      string
	AllowOrigins   []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server exposes the chat service over HTTP.
type Server struct {
	svc     *chat.Service
	opts    Options
	engine  *gin.Engine
	server  *http.Server
	limiter *rate.Limiter
}

var configureBinding sync.Once

func New(svc *chat.Service, opts Options) *Server {
	configureBinding.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			if err := validation.Configure(v); err != nil {
				panic(fmt.Sprintf("configure gin validator: %v", err))
			}
		}
	})

	s := &Server{svc: svc, opts: opts}
	if opts.RateLimitRPS > 0 {
		burst := opts.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), burst)
	}
	s.engine = s.routes()
	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestContext(), gin.CustomRecovery(recoverJSON))
	r.Use(cors.New(corsConfig(s.opts.AllowOrigins)))

	limited := r.Group("/", s.rateLimit())
	limited.POST("/start", s.handleStart)
	limited.POST("/chat", s.handleChat)

	r.POST("/register", s.handleRegister)
	r.POST("/reset", s.handleReset)
	r.GET("/course-info", s.handleCourseInfo)
	r.GET("/health", s.handleHealth)
	r.GET("/api", s.handleAPIInfo)

	index := filepath.Join(s.opts.StaticDir, "index.html")
	if s.opts.StaticDir != "" && fileExists(index) {
		r.Static("/static", s.opts.StaticDir)
		r.GET("/", func(c *gin.Context) { c.File(index) })
	} else {
		r.GET("/", s.handleAPIInfo)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Endpoint not found. Use /api to see available endpoints."})
	})
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// Start blocks serving HTTP until Stop is called.
func (s *Server) Start() error {
	logger.Infof(context.Background(), "🌐 Starting course chatbot API on http://%s", s.opts.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
