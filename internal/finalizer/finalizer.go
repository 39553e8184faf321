// ============================================================================
// Finalizer Bridge
// ============================================================================
//
// Package: internal/finalizer
// Purpose: Lets a job run when an object becomes unreachable and the Go
//          runtime finalizes it. The bridge's only contract: the
//          runtime finalization callback may do nothing but submit to
//          the external inbox — it is running on a GC worker goroutine
//          with no scheduler invariants held, so touching scheduler
//          state directly would be unsafe. The context captured is the
//          one in effect when Attach was called, never whatever happens
//          to be live at finalization time.
//
// Grounded on the weak-pointer registry idiom from eventloop/registry.go:
// registration itself goes through runtime.SetFinalizer, and the bridge
// keeps a map of weak pointers to its live registrations, used only to
// report Pending. An entry leaves the map when its finalizer fires or
// its cancel function runs.
//
// ============================================================================

package finalizer

import (
	"errors"
	"reflect"
	"runtime"
	"sync"
	"weak"

	"github.com/ChuLiYu/async-sched/internal/exectx"
	"github.com/ChuLiYu/async-sched/internal/inbox"
	"github.com/ChuLiYu/async-sched/pkg/types"
)

// ErrNotFinalizable is returned by AttachExn when obj's dynamic type is
// not one the runtime can ever finalize (it holds no pointer the
// garbage collector can track unreachability through).
var ErrNotFinalizable = errors.New("finalizer: obj is not a pointer-like, heap-allocated value")

// Submitter is the subset of *inbox.Inbox the bridge needs — narrowed
// to Submit so tests can fake it without constructing a real inbox.
type Submitter interface {
	Submit(inbox.Entry) error
}

// Bridge attaches finalizers to objects and submits a job to an inbox
// when the Go runtime collects them.
type Bridge struct {
	inbox Submitter

	mu      sync.Mutex
	pending map[uint64]weak.Pointer[finalizee]
	nextID  uint64
}

// finalizee is the object runtime.SetFinalizer is actually attached to;
// it carries the caller's payload plus what's needed to submit the job.
type finalizee struct {
	id       uint64
	ctx      exectx.Context
	priority types.Priority
	onFinal  func() error
	bridge   *Bridge
}

// New returns a Bridge that submits finalized jobs to ib.
func New(ib Submitter) *Bridge {
	return &Bridge{inbox: ib, pending: make(map[uint64]weak.Pointer[finalizee])}
}

// Attach arranges for onFinal to be submitted to the bridge's inbox,
// under ctx and priority, once obj becomes unreachable. obj is the
// value whose lifetime triggers the callback; it is not modified. The
// returned cancel function detaches the finalizer if the caller no
// longer wants the callback (e.g. because obj's owner is shutting down
// cleanly and doesn't want a finalizer race with explicit cleanup).
func Attach(b *Bridge, obj any, ctx exectx.Context, priority types.Priority, onFinal func() error) (cancel func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.mu.Unlock()

	f := &finalizee{id: id, ctx: ctx, priority: priority, onFinal: onFinal, bridge: b}

	b.mu.Lock()
	b.pending[id] = weak.Make(f)
	b.mu.Unlock()

	runtime.SetFinalizer(obj, func(any) {
		f.run()
	})

	return func() {
		runtime.SetFinalizer(obj, nil)
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}
}

// AttachExn is Attach's checked sibling: it validates that obj is a
// kind of value the runtime can actually attach a finalizer to before
// registering one, returning ErrNotFinalizable instead of silently
// installing a finalizer the garbage collector will never invoke.
func AttachExn(b *Bridge, obj any, ctx exectx.Context, priority types.Priority, onFinal func() error) (cancel func(), err error) {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return nil, ErrNotFinalizable
	}
	return Attach(b, obj, ctx, priority, onFinal), nil
}

// run is invoked by the Go runtime on a finalizer goroutine. It must
// only submit to the inbox, per the bridge's contract.
func (f *finalizee) run() {
	f.bridge.mu.Lock()
	delete(f.bridge.pending, f.id)
	f.bridge.mu.Unlock()

	_ = f.bridge.inbox.Submit(inbox.Entry{
		Context:  f.ctx,
		Priority: f.priority,
		Thunk:    f.onFinal,
	})
}

// Pending returns the number of finalizers still attached (neither
// fired nor canceled). Approximate and for observability only.
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
