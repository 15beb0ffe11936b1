package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gateflow-tech/gateflow/internal/pending"
)

var (
	pendingActor  string
	pendingCounts []string
	pendingWatch  bool
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List the approvals waiting on a principal",
	Long: `List every chain step currently awaiting a principal's decision.

With --watch the queue is polled at the configured interval and each
change is printed as it lands. With --counts, only the number of
pending items is reported, for one or more principals at once.

Fetches go through the configured retry and circuit-breaker policy, so
a flaky storage backend degrades to stale-but-served results instead of
errors.

Examples:
  # One-shot listing
  gateflow pending --as manager-1

  # Keep watching the queue
  gateflow pending --as manager-1 --watch

  # Badge counts for a whole team
  gateflow pending --counts manager-1,director-1,executive-1`,
	RunE: runPending,
}

func init() {
	rootCmd.AddCommand(pendingCmd)
	pendingCmd.Flags().StringVar(&pendingActor, "as", "", "principal whose queue to list (default: $USER)")
	pendingCmd.Flags().StringSliceVar(&pendingCounts, "counts", nil, "report only pending counts for these principals")
	pendingCmd.Flags().BoolVarP(&pendingWatch, "watch", "w", false, "poll the queue at the configured interval")
}

// PendingItemOutput is one pending approval in a principal's queue.
type PendingItemOutput struct {
	ChainID    string    `json:"chain_id"`
	RevisionID string    `json:"revision_id"`
	StepID     string    `json:"step_id"`
	Level      int       `json:"level"`
	Approver   string    `json:"approver"`
	StartedAt  time.Time `json:"started_at"`
}

// PendingOutput is the pending command result for one principal.
type PendingOutput struct {
	Principal string              `json:"principal"`
	Count     int                 `json:"count"`
	Items     []PendingItemOutput `json:"items"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// runPending implements the pending command.
func runPending(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newContainerApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer closeApp(app)

	fetcher := app.PendingFetcher()

	if len(pendingCounts) > 0 {
		return runPendingCounts(cmd, fetcher)
	}

	principal := getPrincipal(pendingActor)
	if pendingWatch {
		return runPendingWatch(cmd, fetcher, principal)
	}

	svc, err := pending.NewService(fetcher, principal)
	if err != nil {
		return fmt.Errorf("failed to create pending service: %w", err)
	}
	snap := svc.Refetch(ctx)
	if snap.Err != nil {
		return fmt.Errorf("failed to fetch pending approvals: %w", snap.Err)
	}

	return emitPendingSnapshot(principal, snap)
}

// runPendingCounts reports only the queue sizes for several principals.
func runPendingCounts(cmd *cobra.Command, fetcher pending.Fetcher) error {
	counts, err := pending.Counts(cmd.Context(), fetcher, pendingCounts, int64(cfg.Pending.CountConcurrency))
	if err != nil {
		return fmt.Errorf("failed to count pending approvals: %w", err)
	}

	if outputJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]any{"counts": counts})
	}

	principals := make([]string, 0, len(counts))
	for principal := range counts {
		principals = append(principals, principal)
	}
	sort.Strings(principals)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  PRINCIPAL\tPENDING")
	for _, principal := range principals {
		fmt.Fprintf(w, "  %s\t%d\n", principal, counts[principal])
	}
	return w.Flush()
}

// runPendingWatch polls the principal's queue until interrupted.
func runPendingWatch(cmd *cobra.Command, fetcher pending.Fetcher, principal string) error {
	svc, err := pending.NewService(fetcher, principal,
		pending.WithInterval(cfg.Pending.PollInterval),
		pending.WithOnUpdate(func(snap pending.Snapshot) {
			// Loading snapshots are interim; only settled ones are printed.
			if snap.Loading {
				return
			}
			if snap.Err != nil {
				printWarning(fmt.Sprintf("Fetch failed, showing last known queue: %v", snap.Err))
			}
			_ = emitPendingSnapshot(principal, snap)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create pending service: %w", err)
	}

	// First fetch immediately; the poll loop only fires after one interval.
	snap := svc.Refetch(cmd.Context())
	if snap.Err != nil {
		return fmt.Errorf("failed to fetch pending approvals: %w", snap.Err)
	}
	if err := emitPendingSnapshot(principal, snap); err != nil {
		return err
	}

	if err := svc.Start(cmd.Context()); err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}
	defer svc.Stop()

	if !outputJSON {
		fmt.Println()
		fmt.Printf("Polling every %s... (press Ctrl+C to stop)\n", cfg.Pending.PollInterval)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		if !outputJSON {
			fmt.Println("\nStopping watch mode...")
		}
	case <-cmd.Context().Done():
	}
	return nil
}

func buildPendingOutput(principal string, snap pending.Snapshot) *PendingOutput {
	output := &PendingOutput{
		Principal: principal,
		Count:     snap.Count(),
		UpdatedAt: snap.LastUpdated,
	}
	for _, item := range snap.Items {
		output.Items = append(output.Items, PendingItemOutput{
			ChainID:    item.ChainID,
			RevisionID: item.RevisionID,
			StepID:     item.StepID,
			Level:      item.Level,
			Approver:   item.Approver.ID,
			StartedAt:  item.StartedAt,
		})
	}
	return output
}

func emitPendingSnapshot(principal string, snap pending.Snapshot) error {
	output := buildPendingOutput(principal, snap)

	if outputJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(output)
	}
	return outputPendingText(output)
}

func outputPendingText(output *PendingOutput) error {
	if output.Count == 0 {
		printInfo(fmt.Sprintf("No approvals pending for %s", output.Principal))
		return nil
	}

	printTitle(fmt.Sprintf("Pending Approvals for %s (%d)", output.Principal, output.Count))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  CHAIN\tREVISION\tLEVEL\tWAITING SINCE")
	for _, item := range output.Items {
		fmt.Fprintf(w, "  %s\t%s\t%d\t%s\n",
			item.ChainID, item.RevisionID, item.Level, item.StartedAt.Format(time.RFC3339))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	printSubtle("Decide with 'gateflow approve <chain-id>' or 'gateflow reject <chain-id>'")
	return nil
}
