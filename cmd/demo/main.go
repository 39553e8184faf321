// ============================================================================
// async-sched demo — standalone entry point
// ============================================================================
//
// File: cmd/demo/main.go
// Purpose: Runs the bundled demo workload directly, without going
//          through the full CLI command tree — useful for a quick
//          `go run ./cmd/demo` during development.
//
// ============================================================================

package main

import (
	"fmt"
	"os"

	"github.com/ChuLiYu/async-sched/internal/demo"
)

func main() {
	if err := demo.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "demo failed: %v\n", err)
		os.Exit(1)
	}
}
