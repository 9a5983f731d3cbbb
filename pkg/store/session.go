package store

import (
	"sync"
	"time"

	"oreza-assistant-be/pkg/failure"
	"oreza-assistant-be/pkg/llm"
	"oreza-assistant-be/pkg/memory"
)

const maxThemes = 5

// Mood is the derived summary of the conversation so far.
type Mood struct {
	Emotion           string   `json:"emotion"`
	Themes            []string `json:"themes"`
	Intent            string   `json:"intent"`
	LastAnalysisCount int      `json:"last_analysis_count"` // Session.Total at the last analysis
}

// MergeThemes adds new themes after the existing ones, skipping duplicates,
// and keeps at most five.
func (m *Mood) MergeThemes(themes []string) {
	seen := make(map[string]bool, len(m.Themes))
	merged := make([]string, 0, maxThemes)
	for _, t := range append(append([]string(nil), m.Themes...), themes...) {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		merged = append(merged, t)
		if len(merged) == maxThemes {
			break
		}
	}
	m.Themes = merged
}

// Session is one conversation. The turn lock serialises turns so a session
// never has two in flight.
type Session struct {
	ID           string         `json:"id"`
	Messages     []llm.Message  `json:"messages"`
	Total        int            `json:"total_messages"` // every appended message; Trim does not lower it
	Mood         Mood           `json:"mood"`
	Memory       *memory.System `json:"-"`
	Failures     *failure.Store `json:"-"`
	LastEventID  string         `json:"last_event_id,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	LastActiveAt time.Time      `json:"last_active_at"`

	turn sync.Mutex
}

func NewSession(id string, mem *memory.System, failures *failure.Store, now time.Time) *Session {
	return &Session{
		ID:           id,
		Messages:     []llm.Message{},
		Mood:         Mood{Emotion: "neutral", Themes: []string{}},
		Memory:       mem,
		Failures:     failures,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

// BeginTurn blocks until no other turn holds the session and returns the
// release function.
func (s *Session) BeginTurn() func() {
	s.turn.Lock()
	return s.turn.Unlock
}

func (s *Session) Append(role, content string) {
	s.Messages = append(s.Messages, llm.Message{Role: role, Content: content})
	s.Total++
}

// Recent returns a copy of the last n messages.
func (s *Session) Recent(n int) []llm.Message {
	start := len(s.Messages) - n
	if start < 0 || n <= 0 {
		start = 0
	}
	out := make([]llm.Message, len(s.Messages)-start)
	copy(out, s.Messages[start:])
	return out
}

// Trim keeps the trailing window of messages.
func (s *Session) Trim(window int) {
	if window > 0 && len(s.Messages) > window {
		s.Messages = append([]llm.Message(nil), s.Messages[len(s.Messages)-window:]...)
	}
}

// LastAssistantReply returns the most recent assistant message, if any.
func (s *Session) LastAssistantReply() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == llm.RoleAssistant {
			return s.Messages[i].Content
		}
	}
	return ""
}
