// ============================================================================
// Priority-Banded Job Queue
// ============================================================================
//
// Package: internal/queue
// Purpose: Three FIFO bands (High, Normal, Low). A cycle processes a
//          band's jobs up to that band's jobsLeftThisCycle count, which
//          is snapshotted from the band's length at the moment the band
//          starts being serviced this cycle — jobs enqueued while the
//          band is being drained run next cycle, not this one. This
//          bounds a single cycle's work even under a job that keeps
//          re-enqueueing itself, and is what ForceCurrentCycleToEnd
//          (see internal/scheduler) zeroes out to cut a band short.
//
// Grounded on internal/jobmanager/job_manager.go's map-plus-index
// bookkeeping style and per-method Concurrency-comment density; the
// three-band FIFO-with-a-per-cycle-budget structure itself is new —
// job_manager.go has a single priority-less queue with no notion of
// bands.
//
// ============================================================================

package queue

import (
	"sync"

	"github.com/ChuLiYu/async-sched/internal/exectx"
	"github.com/ChuLiYu/async-sched/pkg/types"
)

// Job is one entry in a band: the thunk to run and the context it runs
// under.
type Job struct {
	Context exectx.Context
	Thunk   types.Thunk
}

// band is a single priority's FIFO, plus the per-cycle budget counter.
type band struct {
	items           []Job
	jobsLeftThisCycle int
}

// Queues holds the three priority bands. The zero value is ready to
// use.
type Queues struct {
	mu    sync.Mutex
	bands [3]band // indexed by types.Priority
}

// New returns an empty set of priority bands.
func New() *Queues {
	return &Queues{}
}

// Push appends job to the back of priority's FIFO. Safe to call
// mid-cycle: once BeginCycle has run for priority this cycle, the job
// lands after whatever jobsLeftThisCycle already captured, so it is
// serviced next cycle at the earliest; a band whose BeginCycle has not
// yet run this cycle counts the job into its snapshot.
func (q *Queues) Push(priority types.Priority, job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.bands[priority].items = append(q.bands[priority].items, job)
}

// Len reports how many jobs are currently queued in priority, including
// ones not yet counted into this cycle's budget.
func (q *Queues) Len(priority types.Priority) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.bands[priority].items)
}

// TotalLen reports the combined length of all three bands.
func (q *Queues) TotalLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for i := range q.bands {
		n += len(q.bands[i].items)
	}
	return n
}

// BeginCycle snapshots priority's current length into
// jobsLeftThisCycle, so PopForCycle below will service exactly that
// many jobs (or fewer, if force-ended) regardless of how many more get
// pushed while it runs. If maxPerCycle is positive, the snapshot is
// additionally capped at that value, deferring any excess to the next
// cycle.
func (q *Queues) BeginCycle(priority types.Priority, maxPerCycle int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.bands[priority].items)
	if maxPerCycle > 0 && n > maxPerCycle {
		n = maxPerCycle
	}
	q.bands[priority].jobsLeftThisCycle = n
}

// JobsLeftThisCycle returns the remaining budget for priority in the
// current cycle.
func (q *Queues) JobsLeftThisCycle(priority types.Priority) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.bands[priority].jobsLeftThisCycle
}

// ForceCurrentCycleToEnd zeroes priority's remaining budget, so the
// next PopForCycle call returns false immediately — cutting a runaway
// band short without discarding jobs that are still queued for future
// cycles.
func (q *Queues) ForceCurrentCycleToEnd(priority types.Priority) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.bands[priority].jobsLeftThisCycle = 0
}

// PopForCycle removes and returns the next job in priority's FIFO if
// the band still has budget remaining this cycle. The second return is
// false once the budget (or the queue itself) is exhausted.
func (q *Queues) PopForCycle(priority types.Priority) (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	b := &q.bands[priority]
	if b.jobsLeftThisCycle <= 0 || len(b.items) == 0 {
		return Job{}, false
	}

	job := b.items[0]
	b.items = b.items[1:]
	b.jobsLeftThisCycle--
	return job, true
}
