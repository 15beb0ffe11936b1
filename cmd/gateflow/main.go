// Package main is the entry point for the gateflow CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gateflow-tech/gateflow/internal/cli"
)

// Version information set by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// shutdownTimeout is the maximum time to wait for graceful shutdown.
const shutdownTimeout = 30 * time.Second

func main() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	cli.SetVersionInfo(version, commit, date)

	os.Exit(run(context.Background(), sigChan, cli.ExecuteContext, cli.Cleanup, os.Stderr, os.Exit))
}

// run executes the CLI under signal handling and returns the exit code. The
// first signal cancels the context so commands can finish cleanly; the
// shutdown timeout or a second signal forces exit through exitFn.
func run(ctx context.Context, sigChan <-chan os.Signal, execute func(context.Context) error, cleanup func(), stderr io.Writer, exitFn func(int)) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})

	go func() {
		var sig os.Signal
		select {
		case <-done:
			return
		case sig = <-sigChan:
		}

		fmt.Fprintf(stderr, "\nReceived signal %v, initiating graceful shutdown...\n", sig)
		cancel()

		// A second signal already queued means the user wants out now.
		select {
		case sig = <-sigChan:
			fmt.Fprintf(stderr, "\nReceived second signal %v, forcing exit\n", sig)
			exitFn(1)
			return
		default:
		}

		shutdownTimer := time.NewTimer(shutdownTimeout)
		defer shutdownTimer.Stop()

		select {
		case <-done:
		case <-shutdownTimer.C:
			fmt.Fprintf(stderr, "\nShutdown timeout (%v) exceeded, forcing exit\n", shutdownTimeout)
			exitFn(1)
		case sig = <-sigChan:
			fmt.Fprintf(stderr, "\nReceived second signal %v, forcing exit\n", sig)
			exitFn(1)
		}
	}()

	var exitCode int
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := execute(ctx); err != nil {
			if ctx.Err() != nil {
				// The user interrupted; 130 is the conventional SIGINT code.
				fmt.Fprintln(stderr, "Operation canceled")
				exitCode = 130
				return
			}
			// Cobra runs with SilenceErrors, so the error surfaces here.
			fmt.Fprintf(stderr, "Error: %v\n", err)
			exitCode = 1
		}
	}()

	wg.Wait()
	close(done)
	cancel()

	// Release CLI resources such as log file handles.
	cleanup()

	return exitCode
}
