package main

import (
	"encoding/json"
	"fmt"

	"coach-selection-workers/internal/survey"

	"github.com/spf13/cobra"
)

type surveyFile struct {
	Snapshot survey.Snapshot          `json:"snapshot"`
	Commands []survey.CommandEnvelope `json:"commands"`
}

//nolint:gochecknoglobals // Cobra boilerplate
var surveyCmd = &cobra.Command{
	Use:   "survey",
	Short: "Work with survey snapshots",
}

//nolint:gochecknoglobals // Cobra boilerplate
var surveyValidateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Apply edit commands to a snapshot and check the 100 point total",
	Long: `Reads {"snapshot": {...}, "commands": [...]} and prints the resulting total.
Exits non-zero when the total is not 100.`,
	Args: cobra.ExactArgs(1),
	RunE: runSurveyValidate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	surveyCmd.AddCommand(surveyValidateCmd)
	rootCmd.AddCommand(surveyCmd)
}

func runSurveyValidate(cmd *cobra.Command, args []string) error {
	data, err := readDocument(args[0])
	if err != nil {
		return err
	}
	var in surveyFile
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("parse survey: %w", err)
	}

	cmds := make([]survey.Command, 0, len(in.Commands))
	for i, env := range in.Commands {
		c, err := env.Decode()
		if err != nil {
			return fmt.Errorf("commands.%d: %w", i, err)
		}
		cmds = append(cmds, c)
	}
	snapshot, err := survey.ApplyAll(in.Snapshot, cmds...)
	if err != nil {
		return err
	}

	res := survey.Validate(snapshot)
	fmt.Fprintln(cmd.OutOrStdout(), res.Message)
	if !res.IsValid {
		return fmt.Errorf("survey total is %d", res.Total)
	}
	return nil
}
