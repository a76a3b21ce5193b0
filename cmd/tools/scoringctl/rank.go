package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"coach-selection-workers/internal/models"
	"coach-selection-workers/internal/selection"

	"github.com/spf13/cobra"
)

type candidateRow struct {
	ApplicationID string                      `json:"applicationId"`
	UserID        string                      `json:"userId"`
	SubmittedAt   time.Time                   `json:"submittedAt"`
	AutoScore     float64                     `json:"autoScore"`
	Evaluations   []models.ReviewerEvaluation `json:"evaluations"`
}

//nolint:gochecknoglobals // Cobra boilerplate
var (
	rankQuantitative int
	rankQualitative  int
	rankSeats        int
	rankJSON         bool
)

//nolint:gochecknoglobals // Cobra boilerplate
var rankCmd = &cobra.Command{
	Use:   "rank FILE",
	Short: "Rank a JSON array of candidates with the given weights",
	Args:  cobra.ExactArgs(1),
	RunE:  runRank,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rankCmd.Flags().IntVar(&rankQuantitative, "quantitative", 70, "quantitative weight in percent")
	rankCmd.Flags().IntVar(&rankQualitative, "qualitative", 30, "qualitative weight in percent")
	rankCmd.Flags().IntVar(&rankSeats, "seats", 0, "max participants, 0 for no limit")
	rankCmd.Flags().BoolVar(&rankJSON, "json", false, "print the ranked list as JSON")
	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	w := selection.Weights{Quantitative: rankQuantitative, Qualitative: rankQualitative}
	if err := w.Validate(); err != nil {
		return err
	}

	data, err := readDocument(args[0])
	if err != nil {
		return err
	}
	var rows []candidateRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("parse candidates: %w", err)
	}
	candidates := make([]selection.Candidate, 0, len(rows))
	for _, r := range rows {
		candidates = append(candidates, selection.Candidate(r))
	}

	list := selection.Rank(candidates, w, rankSeats)
	if rankJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tAPPLICATION\tAUTO\tQUALITATIVE\tFINAL\tRECOMMENDED")
	for _, a := range list.Applications {
		qual := "-"
		if a.QualitativeAvg != nil {
			qual = fmt.Sprintf("%.2f", *a.QualitativeAvg)
		}
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%.2f\t%t\n", a.Rank, a.ApplicationID, a.AutoScore, qual, a.FinalScore, a.IsRecommended)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d applicants, %d recommended, cutoff %.2f\n",
		list.TotalApplicants, list.RecommendedCount, list.CutoffScore)
	return nil
}
