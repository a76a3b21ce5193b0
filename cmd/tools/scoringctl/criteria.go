package main

import (
	"encoding/json"
	"fmt"

	"coach-selection-workers/internal/models"
	"coach-selection-workers/internal/scoring"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var criteriaCmd = &cobra.Command{
	Use:   "criteria",
	Short: "Work with scoring criteria",
}

//nolint:gochecknoglobals // Cobra boilerplate
var criteriaValidateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Compile a JSON array of scoring criteria and report broken rows",
	Args:  cobra.ExactArgs(1),
	RunE:  runCriteriaValidate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	criteriaCmd.AddCommand(criteriaValidateCmd)
	rootCmd.AddCommand(criteriaCmd)
}

func runCriteriaValidate(cmd *cobra.Command, args []string) error {
	data, err := readDocument(args[0])
	if err != nil {
		return err
	}
	var raws []models.ScoringCriteria
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("parse criteria: %w", err)
	}

	out := cmd.OutOrStdout()
	broken := 0
	for _, raw := range raws {
		c, err := scoring.Compile(raw)
		if err != nil {
			broken++
			fmt.Fprintf(out, "FAIL %s: %v\n", raw.ID, err)
			continue
		}
		fmt.Fprintf(out, "ok   %s (max %.2f)\n", raw.ID, c.MaxScore())
	}
	if broken > 0 {
		return fmt.Errorf("%d of %d criteria failed to compile", broken, len(raws))
	}
	return nil
}
