package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracegen/tracegen/pkg/scenario"
)

func validateCmd() *cobra.Command {
	var scenariosDir string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Parse and validate a scenario directory without generating any traces",
		RunE: func(cmd *cobra.Command, args []string) error {
			set, errs := scenario.LoadDirectory(scenariosDir)
			if len(errs) > 0 {
				for _, e := range errs {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", e)
				}
				return fmt.Errorf("%d validation error(s)", len(errs))
			}
			cmd.Printf("scenarios valid: %d service(s), %d scenario(s)\n", len(set.Services), len(set.Scenarios))
			return nil
		},
	}

	cmd.Flags().StringVar(&scenariosDir, "scenarios-dir", scenario.DefaultConfig().ScenariosDir, "directory containing _base.yaml and scenario definitions")

	return cmd
}
