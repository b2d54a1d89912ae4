package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"course-chatter/internal/chat"
	"course-chatter/internal/logger"
	"course-chatter/internal/validation"
)

type startRequest struct {
	UserID  string `json:"user_id" binding:"notblank"`
	Message string `json:"message"`
}

type chatRequest struct {
	UserID  string `json:"user_id" binding:"notblank"`
	Message string `json:"message" binding:"notblank"`
}

type resetRequest struct {
	UserID string `json:"user_id" binding:"notblank"`
}

type chatResponse struct {
	Response      string `json:"response"`
	ContextLength int    `json:"context_length"`
	Timestamp     string `json:"timestamp"`
}

type resetResponse struct {
	Message       string `json:"message"`
	ContextLength int    `json:"context_length"`
}

type registerResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	RegistrationID string `json:"registration_id"`
	SheetsSaved    bool   `json:"sheets_saved"`
}

type healthResponse struct {
	Status                 string `json:"status"`
	OpenAIConfigured       bool   `json:"openai_configured"`
	GoogleSheetsConfigured bool   `json:"google_sheets_configured"`
	Timestamp              string `json:"timestamp"`
}

func (s *Server) handleStart(c *gin.Context) {
	var req startRequest
	if !bind(c, &req) {
		return
	}
	reply, err := s.svc.Start(c.Request.Context(), req.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toChatResponse(reply))
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if !bind(c, &req) {
		return
	}
	reply, err := s.svc.Chat(c.Request.Context(), req.UserID, req.Message)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toChatResponse(reply))
}

func (s *Server) handleReset(c *gin.Context) {
	var req resetRequest
	if !bind(c, &req) {
		return
	}
	if err := s.svc.Reset(c.Request.Context(), req.UserID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resetResponse{
		Message:       "Conversation context cleared",
		ContextLength: s.svc.ContextLength(req.UserID),
	})
}

// handleRegister leaves field rules to the service so the HTTP, Telegram and
// MCP entry points share them.
func (s *Server) handleRegister(c *gin.Context) {
	var req chat.RegisterRequest
	if !bind(c, &req) {
		return
	}
	res, err := s.svc.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, registerResponse{
		Success:        true,
		Message:        res.Message,
		RegistrationID: res.ID,
		SheetsSaved:    res.SheetsSaved,
	})
}

func (s *Server) handleCourseInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"course_details": s.svc.Course(),
		"faqs":           s.svc.FAQ().Map(),
		"registration_info": gin.H{
			"process":      "Use the /register endpoint with name, email, and phone",
			"requirements": []string{"Valid email address", "Phone number", "Full name"},
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:                 "healthy",
		OpenAIConfigured:       s.svc.ModelConfigured(),
		GoogleSheetsConfigured: s.svc.SinkConfigured(),
		Timestamp:              time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleAPIInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to " + s.svc.Course().Name + " Chatbot API",
		"version": apiVersion,
		"endpoints": gin.H{
			"/start":       "Start a conversation with the chatbot",
			"/chat":        "Send a message to the chatbot",
			"/reset":       "Clear the conversation context",
			"/register":    "Register for the course",
			"/course-info": "Get course information",
			"/health":      "Service health and configuration",
		},
	})
}

func toChatResponse(r chat.Reply) chatResponse {
	return chatResponse{
		Response:      r.Text,
		ContextLength: r.ContextLength,
		Timestamp:     r.Timestamp.Format(time.RFC3339),
	}
}

// bind decodes the JSON body into dst and answers 422 when it is unusable.
func bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fail(c, validation.Describe(err))
		} else {
			fail(c, validation.Errorf("invalid request body: %v", err))
		}
		return false
	}
	return true
}

func fail(c *gin.Context, err error) {
	if validation.IsValidation(err) {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	logger.Errorf(c.Request.Context(), "❌ %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error. Please try again later."})
}
