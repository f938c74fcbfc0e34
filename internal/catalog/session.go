package catalog

import (
	"sync"
	"time"
)

// SessionTracker remembers which images each session has already been served
// so random draws avoid repeats. State is process-local: entries expire after
// the TTL, and a multi-process deployment simply tolerates looser exclusion.
type SessionTracker struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]map[string]time.Time // session id -> image id -> served at
}

func NewSessionTracker(ttl time.Duration) *SessionTracker {
	t := &SessionTracker{
		ttl:      ttl,
		sessions: make(map[string]map[string]time.Time),
	}
	go t.cleanupLoop()
	return t
}

// Exclusions returns the image ids served to this session within the TTL.
// Stale entries are pruned on the way out.
func (t *SessionTracker) Exclusions(sessionID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	served, ok := t.sessions[sessionID]
	if !ok {
		return nil
	}

	cutoff := time.Now().Add(-t.ttl)
	ids := make([]string, 0, len(served))
	for imageID, at := range served {
		if at.Before(cutoff) {
			delete(served, imageID)
			continue
		}
		ids = append(ids, imageID)
	}
	if len(served) == 0 {
		delete(t.sessions, sessionID)
	}
	return ids
}

// MarkServed records that an image went out to a session.
func (t *SessionTracker) MarkServed(sessionID, imageID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	served, ok := t.sessions[sessionID]
	if !ok {
		served = make(map[string]time.Time)
		t.sessions[sessionID] = served
	}
	served[imageID] = time.Now()
}

// Reset clears a session's exclusions. Called when the catalog is exhausted
// for that session so the next draw is unconstrained.
func (t *SessionTracker) Reset(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, sessionID)
}

// cleanupLoop drops sessions whose newest entry has aged out, keeping the map
// from growing without bound.
func (t *SessionTracker) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-t.ttl)

		t.mu.Lock()
		for sessionID, served := range t.sessions {
			newest := time.Time{}
			for _, at := range served {
				if at.After(newest) {
					newest = at
				}
			}
			if newest.Before(cutoff) {
				delete(t.sessions, sessionID)
			}
		}
		t.mu.Unlock()
	}
}
