package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gateflow-tech/gateflow/internal/fsm"
)

var exportOutputPath string

var exportCmd = &cobra.Command{
	Use:   "export <definition-id>",
	Short: "Export a workflow definition as XState JSON",
	Long: `Export one of the predefined workflow definitions in XState's JSON
format, for rendering in a statechart visualizer.

Guard conditions appear as 'cond' labels on the exported transitions.

Examples:
  # Print the purchase order workflow to stdout
  gateflow export purchase-order-status

  # Write the RMA workflow to a file
  gateflow export rma-status -o rma.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutputPath, "output", "o", "", "write to file instead of stdout")
}

// runExport implements the export command.
func runExport(cmd *cobra.Command, args []string) error {
	catalog := catalogFromConfig()

	def, ok := catalog.ByID(args[0])
	if !ok {
		printError(fmt.Sprintf("Unknown definition %q", args[0]))
		printInfo("Run 'gateflow definitions' to list the available definitions")
		return fmt.Errorf("unknown definition %q", args[0])
	}

	data, err := fsm.ExportXState(def)
	if err != nil {
		return fmt.Errorf("failed to export definition: %w", err)
	}

	if exportOutputPath == "" {
		fmt.Println(string(data))
		return nil
	}

	if err := os.WriteFile(exportOutputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportOutputPath, err)
	}
	printSuccess(fmt.Sprintf("Exported %s to %s", def.ID, exportOutputPath))
	return nil
}
