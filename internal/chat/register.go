package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"course-chatter/internal/course"
	"course-chatter/internal/history"
	"course-chatter/internal/logger"
	"course-chatter/internal/registration"
	"course-chatter/internal/storage"
	"course-chatter/internal/validation"
)

type RegisterRequest struct {
	Name   string `json:"name" validate:"notblank,max=200"`
	Email  string `json:"email" validate:"required,email,max=254"`
	Phone  string `json:"phone" validate:"notblank,max=50"`
	UserID string `json:"user_id" validate:"max=200"`
}

type RegisterResult struct {
	ID          string
	Message     string
	SheetsSaved bool
}

// Register validates the request, hands the record to the sink and confirms.
// A missing or failing sink never fails the registration itself.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (RegisterResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.UserID = strings.TrimSpace(req.UserID)
	if err := validation.Struct(req); err != nil {
		return RegisterResult{}, err
	}
	ctx = logger.WithFields(ctx, logrus.Fields{"user_id": req.UserID})

	now := s.now()
	rec := registration.Record{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		UserID:    req.UserID,
		Course:    s.info.Name,
		Timestamp: now,
	}
	saved := s.save(ctx, rec)

	res := RegisterResult{
		ID:          registration.NewID(req.Name, now),
		Message:     course.Confirmation(s.info, req.Name, req.Email, req.Phone, saved),
		SheetsSaved: saved,
	}
	logger.Infof(ctx, "🎉 Registration %s received (sheets_saved=%t)", res.ID, saved)

	if req.UserID != "" {
		summary := fmt.Sprintf("Registration: %s, %s, %s", req.Name, req.Email, req.Phone)
		s.store.Append(req.UserID, history.UserTurn(summary, now), history.AssistantTurn(res.Message, now))
	}
	s.record(ctx, storage.Event{
		Timestamp:         now,
		UserID:            req.UserID,
		Kind:              storage.KindRegister,
		UserMessage:       res.ID,
		AssistantResponse: res.Message,
		SheetsSaved:       &saved,
	})
	return res, nil
}

func (s *Service) save(ctx context.Context, rec registration.Record) bool {
	if s.sink == nil {
		logger.Warnf(ctx, "registration sink is not configured, row not saved")
		return false
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.SinkTimeout)
	defer cancel()
	if err := s.sink.Save(ctx, rec); err != nil {
		logger.Errorf(ctx, "❌ Failed to save registration to spreadsheet: %v", err)
		return false
	}
	return true
}
