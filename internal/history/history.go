package history

import (
	"sync"
	"sync/atomic"
	"time"

	"course-chatter/internal/llm"
)

// DefaultWindowPairs is the number of user/assistant pairs kept per user.
const DefaultWindowPairs = 5

// Exchange is one recorded turn. Role is llm.RoleUser or llm.RoleAssistant.
type Exchange struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

func UserTurn(text string, at time.Time) Exchange {
	return Exchange{Role: llm.RoleUser, Text: text, Timestamp: at}
}

func AssistantTurn(text string, at time.Time) Exchange {
	return Exchange{Role: llm.RoleAssistant, Text: text, Timestamp: at}
}

// Messages converts exchanges into prior turns for a model request.
func Messages(exchanges []Exchange) []llm.Message {
	out := make([]llm.Message, 0, len(exchanges))
	for _, e := range exchanges {
		out = append(out, llm.Message{Role: e.Role, Content: e.Text})
	}
	return out
}

type session struct {
	mu        sync.Mutex
	refs      int // guarded by Manager.mu
	size      atomic.Int32
	exchanges []Exchange
}

// Manager keeps a bounded window of exchanges per user. A user's sequence is
// guarded by its own mutex so callers for different users never contend;
// the map lock is held only to look up or drop a session.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session
	limit    int
}

func NewManager(windowPairs int) *Manager {
	if windowPairs < 1 {
		windowPairs = DefaultWindowPairs
	}
	return &Manager{sessions: make(map[string]*session), limit: 2 * windowPairs}
}

// Limit is the maximum number of exchanges kept for one user.
func (m *Manager) Limit() int { return m.limit }

// Conversation is the exclusive view of one user's exchanges inside Update.
type Conversation struct {
	s     *session
	limit int
}

// Exchanges returns a copy of the current sequence.
func (c *Conversation) Exchanges() []Exchange {
	return append([]Exchange(nil), c.s.exchanges...)
}

func (c *Conversation) Len() int { return len(c.s.exchanges) }

// Append adds exchanges in order and evicts the oldest beyond the window.
func (c *Conversation) Append(exchanges ...Exchange) {
	c.s.exchanges = append(c.s.exchanges, exchanges...)
	if over := len(c.s.exchanges) - c.limit; over > 0 {
		kept := make([]Exchange, c.limit)
		copy(kept, c.s.exchanges[over:])
		c.s.exchanges = kept
	}
	c.s.size.Store(int32(len(c.s.exchanges)))
}

func (c *Conversation) Clear() {
	c.s.exchanges = nil
	c.s.size.Store(0)
}

// Update runs fn with exclusive access to userID's conversation. Concurrent
// Update calls for the same user are serialized in lock order; calls for other
// users proceed in parallel.
func (m *Manager) Update(userID string, fn func(c *Conversation) error) error {
	s := m.acquire(userID)
	defer m.release(userID, s)

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Conversation{s: s, limit: m.limit})
}

func (m *Manager) acquire(userID string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		s = &session{}
		m.sessions[userID] = s
	}
	s.refs++
	return s
}

// release drops the session once nobody holds it and it has nothing recorded,
// so failed or cleared conversations leave no entry behind.
func (m *Manager) release(userID string, s *session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.refs--
	if s.refs == 0 && s.size.Load() == 0 {
		delete(m.sessions, userID)
	}
}

// Get returns a copy of userID's exchanges. It never creates an entry.
func (m *Manager) Get(userID string) []Exchange {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if ok {
		s.refs++
	}
	m.mu.Unlock()
	if !ok {
		return []Exchange{}
	}
	defer m.release(userID, s)

	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Exchange{}, s.exchanges...)
}

func (m *Manager) Append(userID string, exchanges ...Exchange) {
	_ = m.Update(userID, func(c *Conversation) error {
		c.Append(exchanges...)
		return nil
	})
}

func (m *Manager) Clear(userID string) {
	_ = m.Update(userID, func(c *Conversation) error {
		c.Clear()
		return nil
	})
}

// Pairs reports how many user/assistant pairs are stored for userID.
func (m *Manager) Pairs(userID string) int {
	return len(m.Get(userID)) / 2
}

// Users lists identifiers that currently hold at least one exchange.
func (m *Manager) Users() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sessions))
	for id, s := range m.sessions {
		if s.size.Load() > 0 {
			out = append(out, id)
		}
	}
	return out
}
