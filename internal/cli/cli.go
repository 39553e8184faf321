// ============================================================================
// Async Scheduler CLI - Command Line Interface
// ============================================================================
//
// Package: internal/cli
// File: cli.go
// Purpose: Cobra-based command line interface for running the
//          scheduler core as a standalone process.
//
// Command Structure:
//   async-sched                    # Root command
//   ├── run                        # Run the scheduler until quiescent
//   │   └── --config, -c          # Specify config file
//   ├── demo                       # Run the bundled demo workload
//   └── status                     # Print a one-shot stats dump
//
// Grounded on internal/cli/cli.go's BuildCLI/subcommand/signal-handling
// shape; run's WAL/snapshot/gRPC bootstrap has no analog here (there is
// no persistence layer or wire protocol in this core) so run instead
// bootstraps the metrics server and drives the scheduler to
// quiescence, which is this system's equivalent "main loop".
//
// ============================================================================

package cli

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChuLiYu/async-sched/internal/config"
	"github.com/ChuLiYu/async-sched/internal/demo"
	"github.com/ChuLiYu/async-sched/internal/metrics"
	"github.com/ChuLiYu/async-sched/internal/scheduler"
)

var configFile string

// BuildCLI constructs the root Cobra command.
func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "async-sched",
		Short: "async-sched: a cooperative single-threaded job scheduler",
		Long: `async-sched is a cooperative asynchronous job scheduler:
- Priority-banded job queues (High/Normal/Low)
- A supervisor tree for job error isolation
- A very-low-priority cooperative worker pool
- Prometheus metrics`,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional, defaults built in)")

	rootCmd.AddCommand(buildRunCommand())
	rootCmd.AddCommand(buildDemoCommand())
	rootCmd.AddCommand(buildStatusCommand())

	return rootCmd
}

func loadConfig() (config.Config, error) {
	if configFile == "" {
		return config.Default(), nil
	}
	return config.Load(configFile)
}

func buildRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler until all queued and external work is quiescent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSystem()
		},
	}
	return cmd
}

func runSystem() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var opts []scheduler.Option
	if cfg.Metrics.Enabled {
		collector := metrics.NewCollector(prometheusDefaultRegisterer())
		opts = append(opts, scheduler.WithMetrics(collector))

		go func() {
			log.Printf("Starting metrics server on :%d\n", cfg.Metrics.Port)
			if err := metrics.StartServer(cfg.Metrics.Port); err != nil {
				log.Printf("metrics server error: %v\n", err)
			}
		}()
	}

	sched := scheduler.New(cfg, time.Now(), opts...)
	scheduler.SetDefault(sched)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() {
		done <- sched.RunCyclesUntilNoJobsRemain()
	}()

	select {
	case <-sigChan:
		log.Println("received shutdown signal, stopping gracefully...")
		sched.MakeAsyncUnusable()
		sched.ForceCurrentCycleToEnd()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("scheduler stopped: %w", err)
		}
	}

	log.Println("scheduler stopped. goodbye!")
	return nil
}

func buildDemoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the bundled demo workload and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return demo.Run()
		},
	}
	return cmd
}

func buildStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show scheduler status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showStatus()
		},
	}
	return cmd
}

func showStatus() error {
	sched := scheduler.Default()
	if sched == nil {
		fmt.Println("scheduler not running (run 'async-sched run' to start)")
		return nil
	}
	fmt.Println(sched.String())
	return nil
}
