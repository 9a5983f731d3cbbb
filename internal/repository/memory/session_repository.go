package memory

import (
	"time"

	"oreza-assistant-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository is the process-wide session registry. A zero idle TTL
// keeps sessions until they are cleared explicitly.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(idleTTL, cleanupInterval time.Duration) *SessionRepository {
	expiration := cache.NoExpiration
	if idleTTL > 0 {
		expiration = idleTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &SessionRepository{
		cache: cache.New(expiration, cleanupInterval),
	}
}

// Save stores the session and restarts its idle timer.
func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) bool {
	if _, found := r.cache.Get(sessionID); !found {
		return false
	}
	r.cache.Delete(sessionID)
	return true
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
