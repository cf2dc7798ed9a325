package auth

import (
	"sync"
	"time"
)

// revokedSessions is the in-process fallback used when no SessionRegistry is
// configured. Entries live until the token they revoke would expire.
type revokedSessions struct {
	mu      sync.Mutex
	until   map[string]time.Time
	nowFunc func() time.Time
}

func newRevokedSessions(now func() time.Time) *revokedSessions {
	return &revokedSessions{until: map[string]time.Time{}, nowFunc: now}
}

func (r *revokedSessions) revoke(sessionID string, expiresAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.nowFunc()
	for id, exp := range r.until {
		if !exp.After(now) {
			delete(r.until, id)
		}
	}
	r.until[sessionID] = expiresAt
}

func (r *revokedSessions) revoked(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.until[sessionID]
	return ok && exp.After(r.nowFunc())
}

func (r *revokedSessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.until)
}

