package session

import (
	"context"
	"sync"
	"time"

	"ticketgate/pkg/logger"
)

// Store holds live sessions in memory. Sessions are per-process by
// design: a reloaded client always starts a fresh countdown, so nothing
// here survives a restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

func (st *Store) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len returns how many sessions are currently held.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep evicts finished sessions that have outlived the grace period and
// any session well past its own window. Returns how many were evicted.
func (st *Store) Sweep(grace time.Duration) int {
	now := st.now()

	st.mu.Lock()
	defer st.mu.Unlock()

	evicted := 0
	for id, s := range st.sessions {
		age := now.Sub(s.StartedAt)
		stale := s.State().Terminal() && age > grace
		overdue := age > s.Duration+grace
		if stale || overdue {
			delete(st.sessions, id)
			evicted++
		}
	}
	return evicted
}

// StartJanitor sweeps the store on an interval until ctx is cancelled.
func StartJanitor(ctx context.Context, store *Store, interval, grace time.Duration, log *logger.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if evicted := store.Sweep(grace); evicted > 0 {
					log.InfoWithContext(ctx, "evicted finished sessions", map[string]interface{}{
						"evicted":   evicted,
						"remaining": store.Len(),
					})
				}
			}
		}
	}()
}
