// Command scoringctl checks scoring configuration, survey totals and rankings
// offline from JSON files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

//nolint:gochecknoglobals // Cobra boilerplate
var jsonPath string

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "scoringctl",
	Short: "Offline tooling for coach selection scoring",
	Long: `scoringctl runs the scoring engine against JSON exports so project managers
can check criteria, survey totals and rankings before touching a live project.

Every file argument may hold a larger document; --path selects the part to
read using gjson path syntax.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().StringVar(&jsonPath, "path", "", "gjson path of the document inside the file")
}

// readDocument loads a file and narrows it to --path when set.
func readDocument(file string) ([]byte, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	if jsonPath == "" {
		return data, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%s is not valid JSON", file)
	}
	res := gjson.GetBytes(data, jsonPath)
	if !res.Exists() {
		return nil, fmt.Errorf("path %q not found in %s", jsonPath, file)
	}
	return []byte(res.Raw), nil
}
