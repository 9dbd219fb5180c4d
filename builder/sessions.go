package builder

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sessions is a registry of open edit sessions keyed by session id.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	palette  *Palette
	idle     time.Duration
	now      func() time.Time
	newID    IDGenerator
}

// NewSessions creates a registry whose sessions expire after idle time
// without activity. A nil palette means DefaultPalette.
func NewSessions(palette *Palette, idle time.Duration) *Sessions {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Sessions{
		sessions: make(map[string]*Session),
		palette:  palette,
		idle:     idle,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Open starts a session on doc and returns it.
func (r *Sessions) Open(doc *Document) *Session {
	s := NewSession(r.newID(), doc, r.palette)
	s.now = r.now
	s.touched = r.now()
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session with id.
func (r *Sessions) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	return s, nil
}

// Close discards a session. Unsaved edits are lost.
func (r *Sessions) Close(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// CloseDocument discards every session editing documentID.
func (r *Sessions) CloseDocument(documentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		s.mu.Lock()
		match := s.doc.ID == documentID
		s.mu.Unlock()
		if match {
			delete(r.sessions, id)
		}
	}
}

// Len returns the number of open sessions.
func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Evict removes sessions idle for longer than the registry's idle limit
// and returns how many were removed.
func (r *Sessions) Evict() int {
	cutoff := r.now().Add(-r.idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// StartEviction runs Evict every interval until the returned stop func is
// called. onEvict, if set, is called with the count after each run that
// removed something.
func (r *Sessions) StartEviction(interval time.Duration, onEvict func(int)) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				if n := r.Evict(); n > 0 && onEvict != nil {
					onEvict(n)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
