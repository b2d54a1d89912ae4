package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"course-chatter/internal/storage"
)

// DailyStats aggregates one day of recorded interactions.
type DailyStats struct {
	Date          string               `json:"date"`
	TotalMessages int                  `json:"total_messages"`
	UniqueUsers   int                  `json:"unique_users"`
	Starts        int                  `json:"starts"`
	FAQHits       int                  `json:"faq_hits"`
	FAQByTopic    map[string]int       `json:"faq_by_topic"`
	ModelCalls    int                  `json:"model_calls"`
	ModelTokens   int                  `json:"model_tokens"`
	Fallbacks     int                  `json:"fallbacks"`
	Registrations int                  `json:"registrations"`
	SheetsSaved   int                  `json:"sheets_saved"`
	UserStats     map[string]UserStats `json:"user_stats"`
}

type UserStats struct {
	UserID        string `json:"user_id"`
	Messages      int    `json:"messages"`
	ModelCalls    int    `json:"model_calls"`
	Registrations int    `json:"registrations"`
}

// AnalyzeDailyLogs counts the events that fall on targetDate's calendar day.
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	stats := &DailyStats{
		Date:       startOfDay.Format("2006-01-02"),
		FAQByTopic: make(map[string]int),
		UserStats:  make(map[string]UserStats),
	}

	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}

		switch event.Kind {
		case storage.KindStart:
			stats.Starts++
		case storage.KindFAQ:
			stats.FAQHits++
			stats.FAQByTopic[event.Topic]++
		case storage.KindModel:
			stats.ModelCalls++
			stats.ModelTokens += event.TotalTokens
		case storage.KindFallback:
			stats.Fallbacks++
		case storage.KindRegister:
			stats.Registrations++
			if event.SheetsSaved != nil && *event.SheetsSaved {
				stats.SheetsSaved++
			}
		}

		// anonymous registrations carry no user id
		if event.UserID == "" {
			continue
		}
		userStat, ok := stats.UserStats[event.UserID]
		if !ok {
			userStat = UserStats{UserID: event.UserID}
		}
		switch event.Kind {
		case storage.KindFAQ, storage.KindModel, storage.KindFallback:
			stats.TotalMessages++
			userStat.Messages++
			if event.Kind == storage.KindModel {
				userStat.ModelCalls++
			}
		case storage.KindRegister:
			userStat.Registrations++
		}
		stats.UserStats[event.UserID] = userStat
	}

	stats.UniqueUsers = len(stats.UserStats)
	return stats
}

// GenerateReportSummary renders the stats as a plain-text report.
func (ds *DailyStats) GenerateReportSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Course assistant activity for %s:\n\n", ds.Date)
	b.WriteString("Overall:\n")
	fmt.Fprintf(&b, "- Messages: %d\n", ds.TotalMessages)
	fmt.Fprintf(&b, "- Unique users: %d\n", ds.UniqueUsers)
	fmt.Fprintf(&b, "- Conversations started: %d\n", ds.Starts)
	fmt.Fprintf(&b, "- FAQ answers: %d\n", ds.FAQHits)
	fmt.Fprintf(&b, "- Model answers: %d (%d tokens)\n", ds.ModelCalls, ds.ModelTokens)
	fmt.Fprintf(&b, "- Fallbacks: %d\n", ds.Fallbacks)
	fmt.Fprintf(&b, "- Registrations: %d (saved to sheet: %d)\n", ds.Registrations, ds.SheetsSaved)

	if len(ds.FAQByTopic) > 0 {
		b.WriteString("\nFAQ topics:\n")
		topics := make([]string, 0, len(ds.FAQByTopic))
		for topic := range ds.FAQByTopic {
			topics = append(topics, topic)
		}
		sort.Slice(topics, func(i, j int) bool {
			if ds.FAQByTopic[topics[i]] != ds.FAQByTopic[topics[j]] {
				return ds.FAQByTopic[topics[i]] > ds.FAQByTopic[topics[j]]
			}
			return topics[i] < topics[j]
		})
		for _, topic := range topics {
			fmt.Fprintf(&b, "- %s: %d\n", topic, ds.FAQByTopic[topic])
		}
	}

	if len(ds.UserStats) > 0 {
		fmt.Fprintf(&b, "\nUsers (%d):\n", len(ds.UserStats))
		ids := make([]string, 0, len(ds.UserStats))
		for id := range ds.UserStats {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			us := ds.UserStats[id]
			fmt.Fprintf(&b, "- %s: %d messages", id, us.Messages)
			if us.Registrations > 0 {
				b.WriteString(", registered")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
