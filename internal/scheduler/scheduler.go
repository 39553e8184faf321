// ============================================================================
// Scheduler Core
// ============================================================================
//
// Package: internal/scheduler
// File: scheduler.go
// Purpose: Owns every other component (queues, monitor tree, bvar,
//          inbox, clock, very-low-priority pool) and drives cycles.
//
// A cycle:
//   1. Run on_start_of_cycle, if registered.
//   2. Drain the external inbox into the priority queues.
//   3. Run every run_every_cycle_start hook, in registration order.
//   4. Advance the clock to wall-clock now, enqueuing any alarm that
//      became due as a High-priority job (timers preempt ordinary work).
//   5. BeginCycle on each band (High, then Normal, then Low) and run
//      its jobs up to budget, in order — a band is fully drained (or
//      force-ended) before the next lower band starts.
//   6. Spend the very-low-priority pool's step budget.
//   7. Fill the cycle's Bvar, waking anything waiting on yield, then
//      allocate a fresh one for the next cycle.
//   8. If yield_until_no_jobs_remain has waiters and the Normal and Low
//      bands are both empty, fill it too.
//   9. Run on_end_of_cycle, if registered.
//
// A hook that returns an error is a programmer mistake, not a job
// error: it is delivered to the root monitor unconditionally (never
// caught by an OnError handler) and kills the scheduler.
//
// Re-architected from internal/controller/controller.go's four
// concurrent goroutines (dispatch/result/timeout/snapshot loops) down
// to this single-thread cooperative driver: there is no WAL or
// snapshot here, so recovery and persistence loops have no analog;
// what's kept from controller.go is its overall shape (owns subsystems
// under a Config, structured slog logging) and its config-struct idiom.
//
// ============================================================================

package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ChuLiYu/async-sched/internal/bvar"
	"github.com/ChuLiYu/async-sched/internal/clock"
	"github.com/ChuLiYu/async-sched/internal/config"
	"github.com/ChuLiYu/async-sched/internal/exectx"
	"github.com/ChuLiYu/async-sched/internal/inbox"
	"github.com/ChuLiYu/async-sched/internal/metrics"
	"github.com/ChuLiYu/async-sched/internal/monitor"
	"github.com/ChuLiYu/async-sched/internal/queue"
	"github.com/ChuLiYu/async-sched/internal/vlpool"
	"github.com/ChuLiYu/async-sched/pkg/types"
)

var log = slog.Default()

// Errors returned by the scheduler's public operations.
var (
	// ErrInvalidYieldEvery is a misuse error: YieldEvery requires n > 0.
	ErrInvalidYieldEvery = errors.New("scheduler: YieldEvery requires n > 0")
	// ErrAccessDenied is returned by Enqueue once MakeAsyncUnusable has
	// been called.
	ErrAccessDenied = errors.New("scheduler: access denied, scheduler made unusable")
	// ErrSchedulerDead is returned by RunCycle once an error has gone
	// uncaught at the root monitor.
	ErrSchedulerDead = errors.New("scheduler: dead, uncaught error at root monitor")
)

// CycleStats summarizes one completed cycle, the scheduler's pull- and
// push-based observable payload.
type CycleStats struct {
	CycleNum  uint64
	JobsRun   map[types.Priority]int
	Duration  time.Duration
	Timestamp time.Time
}

// Scheduler is the cooperative asynchronous job engine core.
type Scheduler struct {
	queues  *queue.Queues
	root    *monitor.Monitor
	inbox   *inbox.Inbox
	clock   *clock.HeapWheel
	vlpool  *vlpool.Pool
	metrics *metrics.Collector
	cfg     config.Config

	mu             sync.Mutex
	unusable       bool
	cycleNum       uint64
	lastAdvance    time.Time
	cycleBvar      *bvar.Bvar[CycleStats] // backs Yield / YieldEvery
	quiescenceBvar *bvar.Bvar[CycleStats] // backs YieldUntilNoJobsRemain
	subscribers    []func(CycleStats)
	statsLog       []CycleStats // bounded ring for the pull-based iterator
	statsCursor    int

	// Settings — the scheduler core's tunable surface beyond the
	// operations above. Single-callback slots are nil until registered
	// with the matching Option; runEveryCycleStart is a list, newest
	// registration first, invoked in registration order (oldest first)
	// every cycle.
	onStartOfCycle            func() error
	onEndOfCycle              func(CycleStats) error
	runEveryCycleStart        []func() error
	threadSafeExternalJobHook func()
	eventAddedHook            func()
	jobQueuedHook             func()
}

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithMetrics attaches a metrics collector; without this option,
// RecordX calls are simply skipped.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Scheduler) { s.metrics = c }
}

// WithOnStartOfCycle registers the hook run_cycle invokes first, before
// anything else in the cycle. A returned error is a programmer contract
// violation: it kills the scheduler rather than being caught like a job
// error.
func WithOnStartOfCycle(fn func() error) Option {
	return func(s *Scheduler) { s.onStartOfCycle = fn }
}

// WithOnEndOfCycle registers the hook run_cycle invokes last, after the
// cycle's stats have been computed and recorded.
func WithOnEndOfCycle(fn func(CycleStats) error) Option {
	return func(s *Scheduler) { s.onEndOfCycle = fn }
}

// WithThreadSafeExternalJobHook registers a callback invoked, on the
// caller's goroutine, each time ExternalEnqueue has placed a job in the
// inbox — useful for waking an
// external event loop that's blocked waiting for the scheduler to have
// work.
func WithThreadSafeExternalJobHook(fn func()) Option {
	return func(s *Scheduler) { s.threadSafeExternalJobHook = fn }
}

// WithEventAddedHook registers a callback invoked whenever an alarm is
// scheduled via ScheduleAlarm.
func WithEventAddedHook(fn func()) Option {
	return func(s *Scheduler) { s.eventAddedHook = fn }
}

// WithJobQueuedHook registers a callback invoked whenever a job lands in
// a priority band, from Enqueue, the inbox drain, or a fired alarm.
func WithJobQueuedHook(fn func()) Option {
	return func(s *Scheduler) { s.jobQueuedHook = fn }
}

// New constructs a Scheduler using cfg, with a fresh root monitor, inbox,
// queues, and a heap-backed clock seeded at t0.
func New(cfg config.Config, t0 time.Time, opts ...Option) *Scheduler {
	s := &Scheduler{
		queues:         queue.New(),
		root:           monitor.NewRoot("root"),
		inbox:          inbox.New(),
		clock:          clock.NewHeapWheel(t0, cfg.Clock.AlarmPrecision),
		cfg:            cfg,
		lastAdvance:    t0,
		cycleBvar:      bvar.New[CycleStats](),
		quiescenceBvar: bvar.New[CycleStats](),
	}
	s.vlpool = vlpool.New(func(err error) {
		s.root.Send(fmt.Errorf("vlpool worker error: %w", err))
	})
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddRunEveryCycleStart registers fn to run at every cycle's step 3, in
// addition to whatever was registered before it. Registrations are
// stored newest-first but invoked in registration order (oldest first)
// every cycle, so later registrations never reorder earlier ones'
// execution.
func (s *Scheduler) AddRunEveryCycleStart(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runEveryCycleStart = append([]func() error{fn}, s.runEveryCycleStart...)
}

// RootMonitor returns the scheduler's root supervisor.
func (s *Scheduler) RootMonitor() *monitor.Monitor { return s.root }

// Clock returns the scheduler's time source / timing wheel.
func (s *Scheduler) Clock() *clock.HeapWheel { return s.clock }

// VLPool returns the scheduler's very-low-priority worker pool.
func (s *Scheduler) VLPool() *vlpool.Pool { return s.vlpool }

// RootContext returns a fresh Context attached to the root monitor at
// Normal priority, the usual starting point for top-level work.
func (s *Scheduler) RootContext() exectx.Context {
	return exectx.New(s.root)
}

// Enqueue submits a job for a future cycle. It is the Go-side
// equivalent of scheduling a deferred computation: Enqueue never runs
// thunk inline, even if called from within a running cycle.
func (s *Scheduler) Enqueue(ctx exectx.Context, priority types.Priority, thunk types.Thunk) error {
	s.mu.Lock()
	unusable := s.unusable
	s.mu.Unlock()
	if unusable {
		return ErrAccessDenied
	}
	if !priority.Valid() {
		priority = types.Normal
	}
	s.pushJob(priority, queue.Job{Context: ctx, Thunk: thunk})
	return nil
}

// ExternalEnqueue submits a job from any goroutine via the inbox,
// picked up at the next cycle boundary. This is the only thread-safe
// entry point — Enqueue above must only be called from the
// scheduler's own goroutine (typically from within a running job).
func (s *Scheduler) ExternalEnqueue(ctx exectx.Context, priority types.Priority, thunk types.Thunk) error {
	s.mu.Lock()
	unusable := s.unusable
	hook := s.threadSafeExternalJobHook
	s.mu.Unlock()
	if unusable {
		return ErrAccessDenied
	}
	if err := s.inbox.Submit(inbox.Entry{Context: ctx, Priority: priority, Thunk: thunk}); err != nil {
		return err
	}
	if hook != nil {
		hook()
	}
	return nil
}

// Inbox exposes the external inbox directly, e.g. for wiring to
// internal/finalizer.
func (s *Scheduler) Inbox() *inbox.Inbox { return s.inbox }

// ScheduleAlarm registers fn to run at t and invokes event_added_hook.
// Prefer this to Clock().ScheduleAt so the hook stays wired.
func (s *Scheduler) ScheduleAlarm(t time.Time, fn func()) (cancel func()) {
	s.mu.Lock()
	hook := s.eventAddedHook
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return s.clock.ScheduleAt(t, fn)
}

// pushJob pushes job onto priority's band and invokes job_queued_hook.
// Every internal path that enqueues a job — Enqueue, the inbox drain,
// and fired alarms — must go through this rather than s.queues.Push
// directly so the hook fires consistently.
func (s *Scheduler) pushJob(priority types.Priority, job queue.Job) {
	s.queues.Push(priority, job)
	s.mu.Lock()
	hook := s.jobQueuedHook
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
}

// YieldEvery returns a wrapped thunk that invokes inner directly on
// every call except every n-th, where it instead defers inner to run
// after the current cycle's Bvar fills (i.e. next cycle). n must be
// positive.
func (s *Scheduler) YieldEvery(n int, ctx exectx.Context, priority types.Priority, inner types.Thunk) (types.Thunk, error) {
	if n <= 0 {
		return nil, ErrInvalidYieldEvery
	}
	count := 0
	return func() error {
		count++
		if count%n != 0 {
			return inner()
		}
		s.cycleBvar.OnFill(func(CycleStats) {
			_ = s.Enqueue(ctx, priority, inner)
		})
		return nil
	}, nil
}

// Yield returns a thunk that, when submitted, defers onResume to run
// at the start of the cycle after the current one finishes.
func (s *Scheduler) Yield(ctx exectx.Context, priority types.Priority, onResume types.Thunk) types.Thunk {
	return func() error {
		s.cycleBvar.OnFill(func(CycleStats) {
			_ = s.Enqueue(ctx, priority, onResume)
		})
		return nil
	}
}

// YieldUntilNoJobsRemain returns a thunk that, when submitted, defers
// onResume to run once the scheduler reaches quiescence — a cycle
// boundary where both the Normal and Low bands are empty. Unlike Yield,
// which always resumes on the very next cycle, this may wait across
// many cycles if Normal/Low work keeps arriving in the meantime.
func (s *Scheduler) YieldUntilNoJobsRemain(ctx exectx.Context, priority types.Priority, onResume types.Thunk) types.Thunk {
	return func() error {
		s.mu.Lock()
		qb := s.quiescenceBvar
		s.mu.Unlock()
		qb.OnFill(func(CycleStats) {
			_ = s.Enqueue(ctx, priority, onResume)
		})
		return nil
	}
}

// ForceCurrentCycleToEnd zeroes every band's remaining budget for the
// cycle in progress, so the band being serviced stops once the running
// job returns, without discarding anything still queued for future
// cycles. Bands RunCycle has not yet begun this cycle take their budget
// from BeginCycle as usual and still run.
func (s *Scheduler) ForceCurrentCycleToEnd() {
	s.queues.ForceCurrentCycleToEnd(types.High)
	s.queues.ForceCurrentCycleToEnd(types.Normal)
	s.queues.ForceCurrentCycleToEnd(types.Low)
}

// MakeAsyncUnusable permanently disables further Enqueue/ExternalEnqueue
// calls; any already-queued jobs are still run out by a subsequent
// RunCycle, but nothing new may be scheduled afterward.
func (s *Scheduler) MakeAsyncUnusable() {
	s.mu.Lock()
	s.unusable = true
	s.mu.Unlock()
	s.inbox.Close()
}

// ResetInForkedProcess discards all queued work, subscribers, and the
// monitor's recorded uncaught errors, and installs a fresh root
// monitor and inbox — the state a freshly-forked child process should
// start from, since it must not share its parent's half-drained queues
// or an inbox a sibling thread might still be writing to.
func (s *Scheduler) ResetInForkedProcess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues = queue.New()
	s.root = monitor.NewRoot("root")
	s.inbox = inbox.New()
	s.vlpool = vlpool.New(func(err error) {
		s.root.Send(fmt.Errorf("vlpool worker error: %w", err))
	})
	s.unusable = false
	s.cycleNum = 0
	s.lastAdvance = s.clock.Now()
	s.cycleBvar = bvar.New[CycleStats]()
	s.quiescenceBvar = bvar.New[CycleStats]()
	s.subscribers = nil
	s.statsLog = nil
	s.statsCursor = 0
}

// Subscribe registers fn to be called, synchronously, with every
// cycle's stats as soon as that cycle completes — the push-based
// counterpart to NextCompletedCycle below.
func (s *Scheduler) Subscribe(fn func(CycleStats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// NextCompletedCycle is a pull-based, non-restartable iterator over
// completed cycles: each call returns the next not-yet-consumed
// CycleStats, advancing an internal cursor. The second return is false
// once there is nothing new to return yet.
func (s *Scheduler) NextCompletedCycle() (CycleStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statsCursor >= len(s.statsLog) {
		return CycleStats{}, false
	}
	stats := s.statsLog[s.statsCursor]
	s.statsCursor++
	return stats, true
}

// maxStatsLog bounds the pull-based iterator's backlog so a caller
// that never calls NextCompletedCycle doesn't leak memory forever.
const maxStatsLog = 4096

// RunCycle drains the inbox, fires due alarms, services each priority
// band to its per-cycle budget, spends the very-low-priority pool's
// step budget, and fills the cycle's Bvar. It returns ErrSchedulerDead
// if an error has reached the root monitor unhandled, in this cycle or
// an earlier one (a job error does not cut the cycle short; a failing
// cycle hook returns at once; the caller decides whether to keep going).
func (s *Scheduler) RunCycle() (CycleStats, error) {
	start := time.Now()

	// Step 1: on_start_of_cycle.
	if err := s.invokeCycleHook("on_start_of_cycle", s.onStartOfCycle); err != nil {
		return CycleStats{}, ErrSchedulerDead
	}

	s.mu.Lock()
	s.cycleNum++
	cycleNum := s.cycleNum
	prevCycleNum := cycleNum - 1
	// currentBvar is deliberately NOT swapped out yet: Yield/YieldEvery
	// register on s.cycleBvar from inside a running job's thunk, and
	// that registration must land on the bvar that fills at the end of
	// *this* cycle, not one allocated for some future cycle. The swap
	// happens only after Fill below, once nothing still executing this
	// cycle could possibly register on it.
	currentBvar := s.cycleBvar
	everyCycleStart := append([]func() error{}, s.runEveryCycleStart...)
	s.mu.Unlock()

	s.drainInbox()

	// Step 3: run_every_cycle_start hooks, oldest registration first
	// (the list itself is stored newest-first, see AddRunEveryCycleStart).
	for i := len(everyCycleStart) - 1; i >= 0; i-- {
		if err := s.invokeCycleHook("run_every_cycle_start", everyCycleStart[i]); err != nil {
			return CycleStats{}, ErrSchedulerDead
		}
	}

	// Step 4: advance_clock — move the time source up to wall-clock now,
	// firing anything that became due along the way.
	s.advanceClock()

	jobsRun := map[types.Priority]int{}
	for _, p := range []types.Priority{types.High, types.Normal, types.Low} {
		jobsRun[p] = s.runBand(p)
	}

	vlSpent := s.vlpool.Drive(s.cfg.VLPool.StepBudget)
	_ = vlSpent

	if s.metrics != nil {
		for p, n := range jobsRun {
			for i := 0; i < n; i++ {
				s.metrics.RecordJobRun(p)
			}
		}
		s.metrics.SetQueueDepth(types.High, s.queues.Len(types.High))
		s.metrics.SetQueueDepth(types.Normal, s.queues.Len(types.Normal))
		s.metrics.SetQueueDepth(types.Low, s.queues.Len(types.Low))
		s.metrics.SetVLPoolDepth(s.vlpool.Len())
	}

	stats := CycleStats{
		CycleNum:  cycleNum,
		JobsRun:   jobsRun,
		Duration:  time.Since(start),
		Timestamp: start,
	}

	if s.metrics != nil {
		s.metrics.RecordCycle(stats.Duration.Seconds())
	}

	s.recordStats(stats)
	currentBvar.Fill(stats)

	// Only now, after every waiter registered during this cycle has been
	// notified, does a fresh bvar take over for the next cycle.
	s.mu.Lock()
	s.cycleBvar = bvar.New[CycleStats]()
	s.mu.Unlock()

	// Step 8: if yield_until_no_jobs_remain has waiters and both the
	// Normal and Low bands are empty, broadcast it.
	s.mu.Lock()
	qb := s.quiescenceBvar
	s.mu.Unlock()
	if qb.HasAnyWaiters() && s.queues.Len(types.Normal) == 0 && s.queues.Len(types.Low) == 0 {
		qb.Fill(stats)
		s.mu.Lock()
		s.quiescenceBvar = bvar.New[CycleStats]()
		s.mu.Unlock()
	}

	s.checkInvariants(prevCycleNum, cycleNum)

	log.Debug("cycle complete", "cycle", cycleNum, "jobs_run", jobsRun, "duration", stats.Duration)

	// Step 9: on_end_of_cycle.
	if err := s.invokeCycleHook("on_end_of_cycle", func() error {
		if s.onEndOfCycle == nil {
			return nil
		}
		return s.onEndOfCycle(stats)
	}); err != nil {
		return stats, ErrSchedulerDead
	}

	if dead, reason := s.root.Dead(); dead {
		if s.metrics != nil {
			s.metrics.RecordUncaughtError()
		}
		log.Error("scheduler dead", "reason", reason)
		return stats, ErrSchedulerDead
	}
	return stats, nil
}

// invokeCycleHook runs fn (skipping a nil hook) and, on error, delivers
// it to the root monitor unconditionally. Per the hook-error contract,
// a failing hook is a programmer mistake, not a job error: it is never
// caught by a monitor's OnError handler, it always kills the scheduler.
func (s *Scheduler) invokeCycleHook(name string, fn func() error) error {
	if fn == nil {
		return nil
	}
	if err := fn(); err != nil {
		s.root.Send(fmt.Errorf("%s hook error: %w", name, err))
		return err
	}
	return nil
}

// checkInvariants performs a small set of internal consistency checks
// when cfg.CheckInvariants is set. A violation is treated the same way
// as a hook error: delivered to the root monitor unconditionally, which
// kills the scheduler.
func (s *Scheduler) checkInvariants(prevCycleNum, cycleNum uint64) {
	if !s.cfg.CheckInvariants {
		return
	}
	if cycleNum != prevCycleNum+1 {
		s.root.Send(fmt.Errorf("invariant violated: cycle_count must increase by exactly 1, went %d -> %d", prevCycleNum, cycleNum))
		return
	}
	for _, p := range []types.Priority{types.High, types.Normal, types.Low} {
		if s.queues.JobsLeftThisCycle(p) < 0 {
			s.root.Send(fmt.Errorf("invariant violated: jobs_left_this_cycle went negative for %v", p))
			return
		}
	}
}

func (s *Scheduler) recordStats(stats CycleStats) {
	s.mu.Lock()
	s.statsLog = append(s.statsLog, stats)
	if len(s.statsLog) > maxStatsLog {
		drop := len(s.statsLog) - maxStatsLog
		s.statsLog = s.statsLog[drop:]
		s.statsCursor -= drop
		if s.statsCursor < 0 {
			s.statsCursor = 0
		}
	}
	subs := append([]func(CycleStats){}, s.subscribers...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(stats)
	}
}

func (s *Scheduler) drainInbox() {
	for _, entry := range s.inbox.Drain() {
		priority := entry.Priority
		if !priority.Valid() {
			priority = types.Normal
		}
		s.pushJob(priority, queue.Job{Context: entry.Context, Thunk: entry.Thunk})
	}
}

// advanceClock moves the time source's notion of "now" up to the real
// wall clock, pushing every alarm that becomes due along the way as a
// High-priority job — timers preempt ordinary work. This is what
// actually lets ScheduleAt/ScheduleAlarm deadlines fire through normal
// cycling; FirePastAlarms alone only catches what was already due.
func (s *Scheduler) advanceClock() {
	now := time.Now()
	delta := now.Sub(s.lastAdvance)
	if delta < 0 {
		delta = 0
	}
	s.lastAdvance = now
	s.pushDueAlarms(s.clock.Advance(delta))
}

// firePastAlarms fires (without advancing the clock) anything already
// due at the clock's current notion of "now".
func (s *Scheduler) firePastAlarms() {
	s.pushDueAlarms(s.clock.FirePastAlarms())
}

func (s *Scheduler) pushDueAlarms(fns []func()) {
	for _, fn := range fns {
		fn := fn
		s.pushJob(types.High, queue.Job{Context: s.RootContext(), Thunk: func() error { fn(); return nil }})
	}
}

// runBand snapshots priority's budget and drains it, running each
// job's thunk under its own context and delivering any error (or
// recovered panic) to that job's monitor. It returns the number of
// jobs actually run.
func (s *Scheduler) runBand(priority types.Priority) int {
	s.queues.BeginCycle(priority, s.cfg.Queue.MaxJobsPerCycle)
	ran := 0
	for {
		job, ok := s.queues.PopForCycle(priority)
		if !ok {
			return ran
		}
		s.runJob(job)
		ran++
	}
}

func (s *Scheduler) runJob(job queue.Job) {
	outcome := s.invoke(job.Context, job.Thunk)
	if !outcome.Ok() {
		mon := job.Context.Monitor()
		if mon == nil {
			mon = s.root
		}
		mon.Send(&monitor.JobFailure{
			Monitor:   mon.Name(),
			Err:       outcome.Err,
			Backtrace: outcome.Backtrace,
		})
	}
}

// invoke runs thunk, recovering a panic into an exectx.Outcome rather
// than letting it unwind across the cycle driver — a single
// misbehaving job must not take the rest of the cycle down with it.
func (s *Scheduler) invoke(ctx exectx.Context, thunk types.Thunk) (outcome exectx.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome.Panicked = true
			outcome.Err = fmt.Errorf("job panicked: %v", r)
			if ctx.RecordBacktraces() {
				outcome.Backtrace = capturedStack()
			}
		}
	}()
	if err := thunk(); err != nil {
		outcome.Err = err
	}
	return outcome
}

// RunCyclesUntilNoJobsRemain repeatedly calls RunCycle, then advances
// the clock and fires any now-past alarms between cycles, stopping once
// canRunAJob reports nothing is left to do, or a cycle reports
// ErrSchedulerDead.
func (s *Scheduler) RunCyclesUntilNoJobsRemain() error {
	for {
		_, err := s.RunCycle()
		if err != nil {
			return err
		}
		s.advanceClock()
		s.firePastAlarms()
		if !s.canRunAJob() {
			return nil
		}
	}
}

// canRunAJob implements can_run_a_job: true when there is a pending job
// anywhere (inbox, any band, the very-low-priority pool, or a due
// alarm), or when yield_until_no_jobs_remain still has a registered
// waiter — a waiter that only resolves once a future cycle finds both
// the Normal and Low bands empty, so its mere presence must keep
// RunCyclesUntilNoJobsRemain looping even though nothing else is
// pending right now. The plain Yield Bvar doesn't belong in this
// check: it fills unconditionally every cycle, so a waiter on it never
// needs an extra cycle manufactured on its behalf.
func (s *Scheduler) canRunAJob() bool {
	s.mu.Lock()
	qb := s.quiescenceBvar
	s.mu.Unlock()
	next, hasAlarm := s.clock.NextAlarmFiresAt()
	alarmDue := hasAlarm && !next.After(s.clock.Now())
	return s.inbox.Len() > 0 ||
		s.queues.TotalLen() > 0 ||
		s.vlpool.Len() > 0 ||
		alarmDue ||
		qb.HasAnyWaiters()
}

// WithContext runs fn with ctx, recovering any panic into an error
// return instead of letting it unwind through the caller. Because
// Context is an immutable value threaded explicitly through every
// call rather than held in mutable package state, there is nothing to
// save or restore here — this is the full replacement for what a
// mutable context stack's push/pop pair used to do.
func (s *Scheduler) WithContext(ctx exectx.Context, fn func(exectx.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in WithContext: %v", r)
		}
	}()
	return fn(ctx)
}

// String returns a one-line debug summary suitable for a log line or
// an operator dump.
func (s *Scheduler) String() string {
	dead, _ := s.root.Dead()
	return fmt.Sprintf(
		"Scheduler{cycle=%d high=%d normal=%d low=%d vlpool=%d dead=%v}",
		s.cycleNum, s.queues.Len(types.High), s.queues.Len(types.Normal), s.queues.Len(types.Low),
		s.vlpool.Len(), dead,
	)
}

// Stats returns a snapshot map suitable for a status command or a
// debug endpoint.
func (s *Scheduler) Stats() map[string]int {
	dead, _ := s.root.Dead()
	deadInt := 0
	if dead {
		deadInt = 1
	}
	return map[string]int{
		"cycle":  int(s.cycleNum),
		"high":   s.queues.Len(types.High),
		"normal": s.queues.Len(types.Normal),
		"low":    s.queues.Len(types.Low),
		"vlpool": s.vlpool.Len(),
		"dead":   deadInt,
	}
}
