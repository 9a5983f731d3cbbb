package memory

import (
	"testing"
	"time"

	"oreza-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepositoryLifecycle(t *testing.T) {
	repo := NewSessionRepository(0, time.Minute)
	s := store.NewSession("s1", nil, nil, time.Now())

	repo.Save(s)
	got, ok := repo.Get("s1")
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, repo.Count())

	assert.True(t, repo.Delete("s1"))
	assert.False(t, repo.Delete("s1"))
	_, ok = repo.Get("s1")
	assert.False(t, ok)
	assert.Zero(t, repo.Count())
}

func TestSessionRepositoryIdleExpiry(t *testing.T) {
	repo := NewSessionRepository(20*time.Millisecond, time.Hour)
	repo.Save(store.NewSession("s1", nil, nil, time.Now()))

	time.Sleep(40 * time.Millisecond)

	_, ok := repo.Get("s1")
	assert.False(t, ok)
}
