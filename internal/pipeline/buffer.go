package pipeline

import (
	"sync"
	"time"

	"github.com/crimson-sun/cronica/internal/model"
)

// sessionBuffer coalesces bursts of session updates: within one window
// only the newest update per session id is kept, in first-seen order.
type sessionBuffer struct {
	window time.Duration

	mu      sync.Mutex
	order   []string
	pending map[string]model.Session
	timer   *time.Timer
}

func newSessionBuffer(window time.Duration) *sessionBuffer {
	return &sessionBuffer{
		window:  window,
		pending: make(map[string]model.Session),
	}
}

// add records s, replacing any pending update for the same session. The
// first pending update starts the flush timer.
func (b *sessionBuffer) add(s model.Session) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.pending[s.ID]; !ok {
		b.order = append(b.order, s.ID)
	}
	b.pending[s.ID] = s
	if b.timer == nil {
		b.timer = time.NewTimer(b.window)
	}
}

// flushCh returns the timer's channel, or nil if nothing is pending.
func (b *sessionBuffer) flushCh() <-chan time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer == nil {
		return nil
	}
	return b.timer.C
}

// take empties the buffer and returns the pending sessions.
func (b *sessionBuffer) take() []model.Session {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	out := make([]model.Session, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.pending[id])
	}
	b.order = nil
	clear(b.pending)
	return out
}
