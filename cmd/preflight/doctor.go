package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Inspect the pre-flight environment without modifying it",
	Long: `Doctor prints the resolved run context and the on-disk sandbox state
(primary and hidden directories, stray-file anomaly, active sandbox) as
JSON. It is strictly read-only: nothing is removed, created, or activated.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	report, err := app.orchestrator.InspectEnvironment(cmd.Context())
	if err != nil {
		return fmt.Errorf("doctor failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
