package registration

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Record is one registration handed to the sink. It is not kept in memory
// after the call.
type Record struct {
	Name      string
	Email     string
	Phone     string
	UserID    string
	Course    string
	Timestamp time.Time
}

// Sink durably records registrations.
type Sink interface {
	Save(ctx context.Context, rec Record) error
}

// NewID builds REG_<date>_<time>_<name prefix>_<random suffix>.
func NewID(name string, at time.Time) string {
	prefix := strings.ToUpper(strings.TrimSpace(name))
	if utf8.RuneCountInString(prefix) > 3 {
		prefix = string([]rune(prefix)[:3])
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return "REG_" + at.Format("20060102_150405") + "_" + prefix + "_" + suffix
}

// Row is the spreadsheet representation, matching Header.
func (r Record) Row() []interface{} {
	userID := r.UserID
	if userID == "" {
		userID = "N/A"
	}
	return []interface{}{
		r.Timestamp.Format("2006-01-02 15:04:05"),
		r.Name,
		r.Email,
		r.Phone,
		userID,
		r.Course,
	}
}

var Header = []interface{}{"Timestamp", "Name", "Email", "Phone", "User ID", "Course"}
