package main

import (
	"fmt"

	"coach-selection-workers/pkg/registry"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var registryFile string

//nolint:gochecknoglobals // Cobra boilerplate
var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect the activity registry",
}

//nolint:gochecknoglobals // Cobra boilerplate
var registryCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report naming, duplicate and schema problems",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := registry.LoadRegistry(registryFile)
		if err != nil {
			return err
		}
		problems := reg.Check()
		for _, p := range problems {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		if len(problems) > 0 {
			return fmt.Errorf("%d registry problems", len(problems))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d activities ok\n", len(reg.Activities))
		return nil
	},
}

//nolint:gochecknoglobals // Cobra boilerplate
var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered activities",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := registry.LoadRegistry(registryFile)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), reg.Summary())
		return nil
	},
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	registryCmd.PersistentFlags().StringVar(&registryFile, "registry", "", "registry file (default is the embedded registry)")
	registryCmd.AddCommand(registryCheckCmd, registryListCmd)
	rootCmd.AddCommand(registryCmd)
}
