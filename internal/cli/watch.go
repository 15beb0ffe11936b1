package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/gateflow-tech/gateflow/internal/workflows"
)

var watchCmd = &cobra.Command{
	Use:   "watch <definition.yaml>...",
	Short: "Re-validate workflow definition files on change",
	Long: `Watch workflow definition files and re-validate them whenever they
change.

Useful while authoring a definition: keep this running in a terminal
and every save reports immediately whether the file still compiles.

Examples:
  # Watch a single definition
  gateflow watch workflows/invoice.yaml

  # Watch several at once
  gateflow watch workflows/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// runWatch implements the watch command.
func runWatch(cmd *cobra.Command, args []string) error {
	reg := workflows.NewGuardRegistry()

	// Initial pass
	watched := make(map[string]bool, len(args))
	for _, path := range args {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve path: %w", err)
		}
		watched[abs] = true
		if err := validateDefinitionFile(abs, reg); err != nil {
			printError(fmt.Sprintf("%s: %v", path, err))
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the parent directories: editors often replace files on save,
	// which drops a watch held on the file itself.
	dirs := make(map[string]bool)
	for path := range watched {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	fmt.Println()
	fmt.Println("Watching for changes... (press Ctrl+C to stop)")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Debounce re-validation
	var lastRun time.Time
	const debounceInterval = 500 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			abs, err := filepath.Abs(event.Name)
			if err != nil || !watched[abs] {
				continue
			}
			if !strings.HasSuffix(abs, ".yaml") && !strings.HasSuffix(abs, ".yml") {
				continue
			}

			if time.Since(lastRun) < debounceInterval {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				lastRun = time.Now()
				fmt.Printf("\n[%s] Change detected: %s\n", time.Now().Format("15:04:05"), filepath.Base(abs))
				if err := validateDefinitionFile(abs, reg); err != nil {
					printError(fmt.Sprintf("%s: %v", filepath.Base(abs), err))
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)

		case <-sigCh:
			fmt.Println("\nStopping watch mode...")
			return nil

		case <-cmd.Context().Done():
			return nil
		}
	}
}
