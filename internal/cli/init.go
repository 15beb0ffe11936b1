package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gateflow-tech/gateflow/internal/config"
)

var (
	initForce  bool
	initFormat string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new GateFlow configuration",
	Long: `Initialize a new GateFlow configuration in the current directory.

This command creates a .gateflow.yaml file with default thresholds,
a placeholder approver ladder for each document type, and file-backed
storage under .gateflow/.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing config file")
	initCmd.Flags().StringVar(&initFormat, "format", "yaml", "config file format (yaml, json)")
}

// runInit implements the init command.
func runInit(cmd *cobra.Command, args []string) error {
	// Check for existing config
	existingConfig, _ := config.FindConfigFile(".")
	if existingConfig != "" && !initForce {
		printWarning(fmt.Sprintf("Config file already exists: %s", existingConfig))
		printInfo("Use --force to overwrite")
		return nil
	}

	printTitle("GateFlow Setup")
	fmt.Println()

	configFile := ".gateflow.yaml"
	if initFormat == "json" {
		configFile = ".gateflow.json"
	}

	if err := config.WriteDefaultConfig(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	printSuccess(fmt.Sprintf("Created %s", configFile))
	fmt.Println()

	printTitle("Next Steps")
	fmt.Println()
	fmt.Println("  1. Replace the placeholder approver ladders with your own people")
	fmt.Println("  2. Adjust thresholds.percent and thresholds.absolute to your limits")
	fmt.Println("  3. Submit a first revision:")
	fmt.Println()
	printSubtle("     gateflow submit PO-1001 --type purchase_order --original 10000 --proposed 12500 --as alice")
	fmt.Println()

	return nil
}
