// Package storage keeps the interaction log the daily report is built from.
package storage

import "time"

// Kind says which path produced an event.
type Kind string

const (
	KindStart    Kind = "start"
	KindFAQ      Kind = "faq"
	KindModel    Kind = "model"
	KindFallback Kind = "fallback"
	KindRegister Kind = "register"
)

// Event is one logged turn. SheetsSaved is set only for registrations.
type Event struct {
	Timestamp         time.Time `json:"timestamp"`
	UserID            string    `json:"user_id"`
	Kind              Kind      `json:"kind"`
	Topic             string    `json:"topic,omitempty"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response"`
	Model             string    `json:"model,omitempty"`
	TotalTokens       int       `json:"total_tokens,omitempty"`
	Error             string    `json:"error,omitempty"`
	SheetsSaved       *bool     `json:"sheets_saved,omitempty"`
}

// Recorder persists events. Implementations must be safe for concurrent use.
type Recorder interface {
	Record(ev Event) error
	// Events returns events with from <= Timestamp < to in the order they
	// were recorded. A zero bound is open.
	Events(from, to time.Time) ([]Event, error)
}

// DayBounds returns the UTC day containing t as a half-open range.
func DayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// InRange reports whether ev falls within [from, to), treating zero bounds as open.
func InRange(ev Event, from, to time.Time) bool {
	if !from.IsZero() && ev.Timestamp.Before(from) {
		return false
	}
	if !to.IsZero() && !ev.Timestamp.Before(to) {
		return false
	}
	return true
}
