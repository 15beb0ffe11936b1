package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gateflow-tech/gateflow/internal/infrastructure/events"
)

var (
	historyAll   bool
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history [revision-id]",
	Short: "Show the audit trail of a revision",
	Long: `Show the domain events recorded for a revision: submissions, version
bumps, chain openings, approver decisions, and review cycle outcomes,
in the order they happened.

With --all, events across every revision are shown instead, ordered by
occurrence. The audit trail is only written by the file storage
backend.

Examples:
  # One revision's trail
  gateflow history rev_9f8e7d6c

  # The last 20 events across all revisions
  gateflow history --all --limit 20`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolVar(&historyAll, "all", false, "show events across all revisions")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 50, "maximum number of events to show")
}

// HistoryEventOutput is one audit trail record.
type HistoryEventOutput struct {
	Sequence   int64           `json:"sequence"`
	SubjectID  string          `json:"subject_id"`
	EventName  string          `json:"event_name"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// runHistory implements the history command.
func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if !historyAll && len(args) == 0 {
		printInfo("Pass a revision id, or --all for every revision")
		return fmt.Errorf("revision id required")
	}

	app, err := newContainerApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer closeApp(app)

	eventLog := app.EventLog()
	if eventLog == nil {
		printWarning("The audit trail requires the file storage backend")
		return fmt.Errorf("no event log with storage backend %q", cfg.Storage.Backend)
	}

	var records []events.StoredEvent
	if historyAll {
		records, err = eventLog.LoadAll(ctx)
	} else {
		records, err = eventLog.Load(ctx, args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}

	if historyLimit > 0 && len(records) > historyLimit {
		records = records[len(records)-historyLimit:]
	}

	outputs := make([]HistoryEventOutput, 0, len(records))
	for _, rec := range records {
		outputs = append(outputs, HistoryEventOutput{
			Sequence:   rec.SequenceNum,
			SubjectID:  rec.SubjectID,
			EventName:  rec.EventName,
			OccurredAt: rec.OccurredAt,
			Payload:    rec.Payload,
		})
	}

	if outputJSON {
		return outputHistoryJSON(outputs)
	}
	return outputHistoryText(outputs)
}

func outputHistoryJSON(outputs []HistoryEventOutput) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(outputs)
}

func outputHistoryText(outputs []HistoryEventOutput) error {
	if len(outputs) == 0 {
		printInfo("No events recorded")
		return nil
	}

	printTitle(fmt.Sprintf("Audit Trail (%d events)", len(outputs)))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  OCCURRED\tREVISION\tSEQ\tEVENT")
	for _, out := range outputs {
		fmt.Fprintf(w, "  %s\t%s\t%d\t%s\n",
			out.OccurredAt.Format("2006-01-02 15:04:05"), out.SubjectID, out.Sequence, out.EventName)
	}
	return w.Flush()
}
