// ============================================================================
// Execution Context
// ============================================================================
//
// Package: internal/exectx
// Purpose: Immutable per-job execution context: which monitor a job's
//          errors bubble to, which priority band it re-enqueues at by
//          default, and a small set of caller-defined locals.
//
// Redesign note: the original scheduler kept a single mutable "current
// context" stack that jobs pushed onto and popped off of around nested
// calls. That pattern doesn't translate cleanly to Go, where a panic
// mid-job can skip pop calls entirely. Context is a plain immutable
// value here instead: deriving a child context never mutates the
// parent, and callers thread the Context they want explicitly through
// every call rather than reading it back off shared state.
//
// ============================================================================

package exectx

import "github.com/ChuLiYu/async-sched/pkg/types"

// Monitor is the subset of internal/monitor.Monitor that a context needs
// to reference. Defined here (not imported) to avoid a dependency cycle:
// internal/monitor does not need to know about contexts, but contexts
// need to carry a monitor handle.
type Monitor interface {
	Name() string
	Send(err error)
}

// Context is an immutable bundle of ambient state threaded through job
// execution. Zero value is not useful; construct with New.
type Context struct {
	monitor          Monitor
	priority         types.Priority
	locals           localsMap
	recordBacktraces bool
}

// localsMap is a small copy-on-write map. WithLocal copies the parent's
// bindings into a fresh map, so deriving never mutates the parent;
// derivations that don't touch locals share the parent's map. Lookup is
// a plain map index.
type localsMap map[any]any

// New returns a root context attached to the given monitor at Normal
// priority with no locals set.
func New(root Monitor) Context {
	return Context{monitor: root, priority: types.Normal}
}

// Monitor returns the context's monitor.
func (c Context) Monitor() Monitor { return c.monitor }

// Priority returns the context's scheduling band.
func (c Context) Priority() types.Priority { return c.priority }

// RecordBacktraces reports whether the scheduler should capture a
// backtrace when a job running under this context panics. A job that
// returns an error gets no backtrace.
func (c Context) RecordBacktraces() bool { return c.recordBacktraces }

// Local looks up a value stored with WithLocal. A derived context
// carries every local its parent held when it was derived; bindings
// added to a context later are not seen by contexts derived before.
func (c Context) Local(key any) (any, bool) {
	v, ok := c.locals[key]
	return v, ok
}

// WithLocal returns a derived context with key bound to value. The
// receiver is unchanged.
func (c Context) WithLocal(key, value any) Context {
	next := make(localsMap, len(c.locals)+1)
	for k, v := range c.locals {
		next[k] = v
	}
	next[key] = value
	c.locals = next
	return c
}

// WithMonitor returns a derived context whose errors bubble to m instead
// of the receiver's monitor.
func (c Context) WithMonitor(m Monitor) Context {
	c.monitor = m
	return c
}

// WithPriority returns a derived context that re-enqueues at p by
// default.
func (c Context) WithPriority(p types.Priority) Context {
	c.priority = p
	return c
}

// WithBacktraceRecording returns a derived context with backtrace
// capture toggled.
func (c Context) WithBacktraceRecording(enabled bool) Context {
	c.recordBacktraces = enabled
	return c
}

// Outcome is the explicit result of running a job's thunk, used instead
// of relying on panic/recover as a control-flow channel. A panic inside
// a thunk is still recovered at the scheduler boundary (Go code panics
// for real bugs too, and a misbehaving job must not take the whole
// cycle down) but it is converted into an Outcome rather than
// re-panicking.
type Outcome struct {
	Err       error
	Backtrace []byte
	Panicked  bool
}

// Ok reports whether the job completed without error or panic.
func (o Outcome) Ok() bool { return o.Err == nil && !o.Panicked }
