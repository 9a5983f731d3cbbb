package store

import (
	"testing"
	"time"

	"oreza-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
)

func TestMergeThemes(t *testing.T) {
	m := Mood{Themes: []string{"a", "b"}}

	m.MergeThemes([]string{"b", "c", "", "d", "e", "f"})

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, m.Themes)
}

func TestSessionWindowing(t *testing.T) {
	s := NewSession("s", nil, nil, time.Now())
	for i := 0; i < 6; i++ {
		s.Append(llm.RoleUser, string(rune('a'+i)))
	}

	recent := s.Recent(2)
	assert.Equal(t, []llm.Message{{Role: llm.RoleUser, Content: "e"}, {Role: llm.RoleUser, Content: "f"}}, recent)
	recent[0].Content = "changed"
	assert.Equal(t, "e", s.Messages[4].Content)

	assert.Len(t, s.Recent(100), 6)

	s.Trim(3)
	assert.Len(t, s.Messages, 3)
	assert.Equal(t, "d", s.Messages[0].Content)
	assert.Equal(t, 6, s.Total)
}

func TestLastAssistantReply(t *testing.T) {
	s := NewSession("s", nil, nil, time.Now())
	assert.Empty(t, s.LastAssistantReply())

	s.Append(llm.RoleAssistant, "first")
	s.Append(llm.RoleUser, "q")
	assert.Equal(t, "first", s.LastAssistantReply())
}
