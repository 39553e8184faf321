// ============================================================================
// Bundled Demo Workload
// ============================================================================
//
// Package: internal/demo
// Purpose: A small, self-contained workload that exercises every major
//          component of the scheduler core — priority bands, the
//          supervisor tree, yield-based cycle separation, the very-
//          low-priority pool, the finalizer bridge, and the clock —
//          then prints a summary. Grounded on cmd/demo's pattern of a
//          runnable illustration program rather than a test, re-
//          purposed from a Raft leader-election demo into a scheduler-
//          cycle walkthrough.
//
// ============================================================================

package demo

import (
	"fmt"
	"time"

	"github.com/ChuLiYu/async-sched/internal/config"
	"github.com/ChuLiYu/async-sched/internal/finalizer"
	"github.com/ChuLiYu/async-sched/internal/monitor"
	"github.com/ChuLiYu/async-sched/internal/scheduler"
	"github.com/ChuLiYu/async-sched/internal/vlpool"
	"github.com/ChuLiYu/async-sched/pkg/types"
)

// chunkedWorker is a vlpool.Worker that simulates processing a large
// item in fixed-size chunks, stepping one chunk per call.
type chunkedWorker struct {
	name        string
	remaining   int
	chunkSize   int
	onStep      func(name string, remaining int)
}

func (w *chunkedWorker) Step() (vlpool.Finished, error) {
	if w.remaining <= 0 {
		return vlpool.Done, nil
	}
	w.remaining -= w.chunkSize
	if w.remaining < 0 {
		w.remaining = 0
	}
	if w.onStep != nil {
		w.onStep(w.name, w.remaining)
	}
	if w.remaining == 0 {
		return vlpool.Done, nil
	}
	return vlpool.NotDone, nil
}

// Run drives the demo workload to completion and prints a summary.
func Run() error {
	cfg := config.Default()
	sched := scheduler.New(cfg, time.Now())
	ctx := sched.RootContext()

	fmt.Println("=== async-sched demo ===")

	// 1. Priority ordering: High, Normal, and Low jobs enqueued out of
	// order still run High-first within the cycle.
	var order []string
	_ = sched.Enqueue(ctx, types.Low, func() error { order = append(order, "low-report"); return nil })
	_ = sched.Enqueue(ctx, types.Normal, func() error { order = append(order, "normal-compute"); return nil })
	_ = sched.Enqueue(ctx, types.High, func() error { order = append(order, "high-ack"); return nil })

	// 2. A supervised job that fails; its monitor logs and swallows
	// the failure instead of letting it reach the root.
	child := sched.RootMonitor().NewChild("demo-worker")
	handledCount := 0
	child.OnError(func(f *monitor.JobFailure) bool {
		handledCount++
		fmt.Printf("handled job failure in %s: %v\n", f.Monitor, f.Err)
		return true
	})
	failingCtx := ctx.WithMonitor(child)
	_ = sched.Enqueue(failingCtx, types.Normal, func() error { return fmt.Errorf("simulated failure") })

	// 3. Yield: resumes on the cycle after this one.
	resumed := false
	_ = sched.Enqueue(ctx, types.Normal, sched.Yield(ctx, types.Normal, func() error {
		resumed = true
		fmt.Println("resumed after yield")
		return nil
	}))

	// 4. Very-low-priority pool: a chunked worker stepped across
	// multiple cycles.
	sched.VLPool().Submit(&chunkedWorker{
		name: "bulk-copy", remaining: 3, chunkSize: 1,
		onStep: func(name string, remaining int) {
			fmt.Printf("vlpool step: %s, %d remaining\n", name, remaining)
		},
	})

	// 5. Finalizer bridge: attach to a scratch object and drop it,
	// letting GC (eventually) submit the bridged job. The demo doesn't
	// wait for GC — this just demonstrates wiring, not timing.
	bridge := finalizer.New(sched.Inbox())
	scratch := new(struct{ _ int })
	finalizer.Attach(bridge, scratch, ctx, types.Low, func() error {
		fmt.Println("finalizer-bridged job ran")
		return nil
	})

	if err := sched.RunCyclesUntilNoJobsRemain(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("priority order this cycle:", order)
	fmt.Println("resumed after yield:", resumed)
	fmt.Println("handled failures:", handledCount)
	fmt.Println(sched.String())
	return nil
}
