package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"citadel-sec/citadel/pkg/bulk"
)

var bulkDeleteFlags struct {
	file string
}

var bulkDeleteCmd = &cobra.Command{
	Use:   "bulk-delete",
	Short: "Execute a bulk deletion manifest",
	Long: `Execute a YAML deletion manifest against the configured store.

The manifest holds an ordered list of policies to delete. Entries are
drained one at a time; a failed entry is reported and execution continues
with the next one.

Manifest format:
  delpolicy:
    - name: Test1
    - name: Test2

Examples:
  citadel bulk-delete --file delpolicy.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			loader := bulk.NewLoader(a.manager, a.logger)
			result, err := loader.RunFile(cmd.Context(), bulkDeleteFlags.file)
			if err != nil {
				return err
			}

			for _, o := range result.Outcomes {
				if o.Err != nil {
					fmt.Printf("✗ %s: %v\n", o.Name, o.Err)
				} else {
					fmt.Printf("✓ %s deleted\n", o.Name)
				}
			}
			if result.Failed() > 0 {
				return fmt.Errorf("%d of %d deletions failed", result.Failed(), len(result.Outcomes))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(bulkDeleteCmd)

	bulkDeleteCmd.Flags().StringVarP(&bulkDeleteFlags.file, "file", "f", "", "manifest file path (required)")
	_ = bulkDeleteCmd.MarkFlagRequired("file")
}
