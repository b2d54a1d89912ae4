package course

import (
	"fmt"
	"strings"
	"unicode"
)

// TopicGreeting marks the canned welcome for the first message of a conversation.
const TopicGreeting = "greeting"

type FAQEntry struct {
	Topic  string `json:"topic"`
	Answer string `json:"answer"`
}

// FAQ is an ordered keyword table. The first matching topic wins.
type FAQ []FAQEntry

// BuildFAQ derives the canned answers from the course record.
func BuildFAQ(info Info) FAQ {
	return FAQ{
		{"duration", fmt.Sprintf("The course duration is %s.", info.Duration)},
		{"price", fmt.Sprintf("The course price is %s. We also offer payment plans if needed.", info.Price)},
		{"benefits", fmt.Sprintf("Course benefits include: %s", strings.Join(info.Benefits, ", "))},
		{"schedule", fmt.Sprintf("Classes are held %s.", info.Schedule)},
		{"prerequisites", fmt.Sprintf("Prerequisites: %s", info.Prerequisites)},
		{"instructor", fmt.Sprintf("Your instructor will be %s, an experienced Python developer.", info.Instructor)},
		{"format", fmt.Sprintf("The course format is %s.", info.Format)},
		{"support", fmt.Sprintf("We provide %s.", info.Support)},
		{"registration", "To register, please use the /register endpoint and provide your name, email, and phone number."},
		{"certificate", "Yes, you will receive a certificate of completion after successfully finishing the course."},
	}
}

// Map returns topic -> answer for API output.
func (f FAQ) Map() map[string]string {
	out := make(map[string]string, len(f))
	for _, e := range f {
		out[e.Topic] = e.Answer
	}
	return out
}

// Lookup does a case-insensitive substring match of every topic against text.
func (f FAQ) Lookup(text string) (FAQEntry, bool) {
	lower := strings.ToLower(text)
	for _, e := range f {
		if strings.Contains(lower, strings.ToLower(e.Topic)) {
			return e, true
		}
	}
	return FAQEntry{}, false
}

type DecisionKind int

const (
	ModelCall DecisionKind = iota
	FAQHit
)

func (k DecisionKind) String() string {
	if k == FAQHit {
		return "faq"
	}
	return "model"
}

// Decision says whether a message is answered from the canned table or by the model.
type Decision struct {
	Kind   DecisionKind
	Topic  string
	Answer string
}

var greetingWords = map[string]bool{"hello": true, "hi": true, "hey": true, "start": true, "help": true}

// Decide is free of I/O: FAQ keywords always win over the model, and a
// greeting opens a conversation with the welcome text when there is no context yet.
func Decide(faq FAQ, greeting, message string, hasContext bool) Decision {
	if !hasContext && greeting != "" && isGreeting(message) {
		return Decision{Kind: FAQHit, Topic: TopicGreeting, Answer: greeting}
	}
	if e, ok := faq.Lookup(message); ok {
		return Decision{Kind: FAQHit, Topic: e.Topic, Answer: e.Answer}
	}
	return Decision{Kind: ModelCall}
}

func isGreeting(message string) bool {
	words := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if greetingWords[w] {
			return true
		}
	}
	return false
}
