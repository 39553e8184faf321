package inbox

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/async-sched/pkg/types"
)

func TestDrainReturnsSubmissionOrder(t *testing.T) {
	ib := New()
	for i := 0; i < 3; i++ {
		require.NoError(t, ib.Submit(Entry{Priority: types.Priority(i)}))
	}
	entries := ib.Drain()
	assert.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, types.Priority(i), e.Priority)
	}
	assert.Empty(t, ib.Drain())
}

func TestSubmitAfterCloseFails(t *testing.T) {
	ib := New()
	ib.Close()
	err := ib.Submit(Entry{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDrainAfterCloseStillReturnsQueued(t *testing.T) {
	ib := New()
	require.NoError(t, ib.Submit(Entry{Priority: types.High}))
	ib.Close()
	entries := ib.Drain()
	assert.Len(t, entries, 1)
}

func TestConcurrentSubmitIsSafe(t *testing.T) {
	ib := New()
	var wg sync.WaitGroup
	const n = 200
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_ = ib.Submit(Entry{Priority: types.Normal})
		}()
	}
	wg.Wait()
	assert.Equal(t, n, ib.Len())
}
