package history

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-chatter/internal/llm"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestHistoryAppendGetReset(t *testing.T) {
	h := NewManager(DefaultWindowPairs)

	h.Append("a", UserTurn("hello", t0), AssistantTurn("hi", t0))
	h.Append("b", UserTurn("foo", t0), AssistantTurn("bar", t0))

	msgsA := h.Get("a")
	msgsB := h.Get("b")

	if len(msgsA) != 2 || len(msgsB) != 2 {
		t.Fatalf("unexpected lengths: A=%d B=%d", len(msgsA), len(msgsB))
	}
	if msgsA[0].Role != llm.RoleUser || msgsA[0].Text != "hello" {
		t.Fatalf("unexpected A[0]: %+v", msgsA[0])
	}
	if msgsA[1].Role != llm.RoleAssistant || msgsA[1].Text != "hi" {
		t.Fatalf("unexpected A[1]: %+v", msgsA[1])
	}
	if msgsB[0].Text != "foo" || msgsB[1].Text != "bar" {
		t.Fatalf("unexpected B: %+v", msgsB)
	}

	// Ensure copy semantics (modifying returned slice does not affect internal state)
	msgsA[0] = UserTurn("mutated", t0)
	if h.Get("a")[0].Text != "hello" {
		t.Fatalf("internal state mutated via returned slice")
	}

	h.Clear("a")
	if len(h.Get("a")) != 0 {
		t.Fatalf("clear did not reset user a")
	}
	if len(h.Get("b")) != 2 {
		t.Fatalf("clear should not affect other users")
	}
	assert.ElementsMatch(t, []string{"b"}, h.Users())
}

func TestGetUnseenDoesNotCreateEntry(t *testing.T) {
	h := NewManager(3)
	got := h.Get("ghost")
	require.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, h.Users())
	assert.Equal(t, 0, h.Pairs("ghost"))
}

func TestWindowKeepsMostRecentInOrder(t *testing.T) {
	for _, pairs := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("W=%d", pairs), func(t *testing.T) {
			h := NewManager(pairs)
			limit := 2 * pairs
			require.Equal(t, limit, h.Limit())

			var all []Exchange
			for i := 0; i < 23; i++ {
				e := UserTurn(fmt.Sprintf("m%d", i), t0.Add(time.Duration(i)*time.Second))
				all = append(all, e)
				h.Append("u", e)

				got := h.Get("u")
				require.LessOrEqual(t, len(got), limit)
				start := 0
				if len(all) > limit {
					start = len(all) - limit
				}
				require.Equal(t, all[start:], got)
			}
		})
	}
}

func TestUpdateErrorKeepsNothingForNewUser(t *testing.T) {
	h := NewManager(DefaultWindowPairs)
	err := h.Update("u", func(c *Conversation) error {
		assert.Equal(t, 0, c.Len())
		return fmt.Errorf("boom")
	})
	require.Error(t, err)
	assert.Empty(t, h.Users())
}

func TestConcurrentDistinctUsersAreIsolated(t *testing.T) {
	h := NewManager(50)
	var wg sync.WaitGroup
	for u := 0; u < 8; u++ {
		wg.Add(1)
		go func(u int) {
			defer wg.Done()
			id := fmt.Sprintf("user-%d", u)
			for i := 0; i < 20; i++ {
				h.Append(id, UserTurn(id, t0), AssistantTurn(id, t0))
			}
		}(u)
	}
	wg.Wait()

	for u := 0; u < 8; u++ {
		id := fmt.Sprintf("user-%d", u)
		got := h.Get(id)
		require.Len(t, got, 40)
		for _, e := range got {
			require.Equal(t, id, e.Text)
		}
	}
}

func TestConcurrentUpdatesSameUserDoNotInterleave(t *testing.T) {
	h := NewManager(100)
	const workers = 10
	const turns = 5

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < turns; i++ {
				q := fmt.Sprintf("q-%d-%d", w, i)
				_ = h.Update("shared", func(c *Conversation) error {
					before := c.Len()
					c.Append(UserTurn(q, t0))
					time.Sleep(time.Millisecond)
					c.Append(AssistantTurn("a:"+q, t0))
					assert.Equal(t, before+2, c.Len())
					return nil
				})
			}
		}(w)
	}
	wg.Wait()

	got := h.Get("shared")
	require.Len(t, got, workers*turns*2)
	for i := 0; i < len(got); i += 2 {
		require.Equal(t, llm.RoleUser, got[i].Role)
		require.Equal(t, llm.RoleAssistant, got[i+1].Role)
		require.Equal(t, "a:"+got[i].Text, got[i+1].Text)
	}
	assert.Equal(t, workers*turns, h.Pairs("shared"))
}

func TestMessagesConvertsRoles(t *testing.T) {
	msgs := Messages([]Exchange{UserTurn("q", t0), AssistantTurn("a", t0)})
	assert.Equal(t, []llm.Message{{Role: llm.RoleUser, Content: "q"}, {Role: llm.RoleAssistant, Content: "a"}}, msgs)
}
