package server

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/handler"
)

// registry tracks live sessions so shutdown can close and wait for them.
type registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*handler.Session
	closed   bool
	wg       sync.WaitGroup
}

func newRegistry() *registry {
	return &registry{sessions: make(map[uuid.UUID]*handler.Session)}
}

// Add registers sess and arranges for it to deregister itself when it ends.
// It reports false once the registry has been closed.
func (r *registry) Add(sess *handler.Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.sessions[sess.ID()] = sess
	r.wg.Add(1)
	sess.OnClose(r.remove)
	return true
}

func (r *registry) remove(sess *handler.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sess.ID()]; ok {
		delete(r.sessions, sess.ID())
		r.wg.Done()
	}
}

func (r *registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll refuses new sessions and closes the live ones.
func (r *registry) CloseAll() {
	r.mu.Lock()
	r.closed = true
	live := make([]*handler.Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		live = append(live, sess)
	}
	r.mu.Unlock()

	for _, sess := range live {
		sess.Close()
	}
}

// Wait blocks until every registered session has finished or ctx is done.
func (r *registry) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
