package scheduler

import "runtime/debug"

// capturedStack returns the current goroutine's stack trace, used when
// a job's context has backtrace recording enabled.
func capturedStack() []byte {
	return debug.Stack()
}
