// ============================================================================
// External Job Inbox
// ============================================================================
//
// Package: internal/inbox
// Purpose: The only thread-safe entry point into the scheduler. Any
//          goroutine — a background I/O completion, a finalizer, a
//          signal handler — submits work here. The scheduler core
//          itself runs single-threaded and only ever drains the inbox
//          at cycle boundaries; nothing inside a cycle touches it
//          concurrently, so the mutex here is the only lock contention
//          point in the whole engine.
//
// Concurrency: Submit may be called from any goroutine at any time,
// including after the scheduler has started shutting down (Submit
// returns ErrClosed rather than blocking or panicking, matching
// worker_pool.go's closed-pool behavior). Drain must only be called by
// the scheduler's own goroutine, between cycles.
//
// ============================================================================

package inbox

import (
	"errors"
	"sync"

	"github.com/ChuLiYu/async-sched/internal/exectx"
	"github.com/ChuLiYu/async-sched/pkg/types"
)

// ErrClosed is returned by Submit once the inbox has been closed.
var ErrClosed = errors.New("inbox: closed")

// Entry pairs a thunk with the context it should run under and the
// band it should be enqueued into.
type Entry struct {
	Context  exectx.Context
	Priority types.Priority
	Thunk    types.Thunk
}

// Inbox is a thread-safe multi-producer, single-consumer mailbox.
type Inbox struct {
	mu     sync.Mutex
	items  []Entry
	closed bool
}

// New returns an empty Inbox.
func New() *Inbox {
	return &Inbox{}
}

// Submit enqueues entry for pickup at the next cycle boundary. It never
// blocks.
func (ib *Inbox) Submit(entry Entry) error {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	if ib.closed {
		return ErrClosed
	}
	ib.items = append(ib.items, entry)
	return nil
}

// Drain removes and returns everything currently queued, in submission
// order. Safe to call on a closed inbox (returns whatever is left).
func (ib *Inbox) Drain() []Entry {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	if len(ib.items) == 0 {
		return nil
	}
	out := ib.items
	ib.items = nil
	return out
}

// Len reports how many entries are currently queued, for observability
// only — it is stale the instant it's read.
func (ib *Inbox) Len() int {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	return len(ib.items)
}

// Close marks the inbox closed; further Submit calls fail with
// ErrClosed. Already-queued entries remain available via Drain.
func (ib *Inbox) Close() {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	ib.closed = true
}
