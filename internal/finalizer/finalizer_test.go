package finalizer

import (
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/async-sched/internal/exectx"
	"github.com/ChuLiYu/async-sched/internal/inbox"
	"github.com/ChuLiYu/async-sched/pkg/types"
)

type fakeSubmitter struct {
	mu      sync.Mutex
	entries []inbox.Entry
}

func (f *fakeSubmitter) Submit(e inbox.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func TestAttachRunsSubmitsOnFinalize(t *testing.T) {
	sub := &fakeSubmitter{}
	b := New(sub)
	ctx := exectx.New(nil)

	// Exercise run() directly: the runtime-finalizer path can't be
	// driven deterministically in a test (GC timing is not
	// controllable), but run() is exactly what the finalizer callback
	// invokes, so this covers the bridge's actual submission logic.
	obj := new(int)
	Attach(b, obj, ctx, types.Low, func() error { return nil })
	require.Equal(t, 1, b.Pending())

	var f *finalizee
	for _, wp := range b.pending {
		f = wp.Value()
	}
	require.NotNil(t, f)
	f.run()
	runtime.KeepAlive(obj)

	assert.Equal(t, 0, b.Pending())
	require.Equal(t, 1, sub.count())
	assert.Equal(t, types.Low, sub.entries[0].Priority)
}

func TestCancelPreventsFinalizeSubmission(t *testing.T) {
	sub := &fakeSubmitter{}
	b := New(sub)
	ctx := exectx.New(nil)

	obj := new(int)
	cancel := Attach(b, obj, ctx, types.Low, func() error { return nil })
	cancel()
	assert.Equal(t, 0, b.Pending())
	assert.Equal(t, 0, sub.count())
}

func TestAttachExnAcceptsPointerLikeValues(t *testing.T) {
	sub := &fakeSubmitter{}
	b := New(sub)
	ctx := exectx.New(nil)

	cancel, err := AttachExn(b, new(int), ctx, types.Low, func() error { return nil })
	require.NoError(t, err)
	require.Equal(t, 1, b.Pending())
	cancel()
}

func TestAttachExnRejectsNonHeapValues(t *testing.T) {
	sub := &fakeSubmitter{}
	b := New(sub)
	ctx := exectx.New(nil)

	_, err := AttachExn(b, 42, ctx, types.Low, func() error { return nil })
	assert.ErrorIs(t, err, ErrNotFinalizable)
	assert.Equal(t, 0, b.Pending())
}
