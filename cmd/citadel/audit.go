package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"citadel-sec/citadel/pkg/audit"
)

var auditFlags struct {
	op     string
	policy string
	limit  int
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the mutation audit trail",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit records, newest first",
	Long: `List audit records, newest first.

Examples:
  # Last 20 mutations
  citadel audit list

  # Deletions of one policy
  citadel audit list --op delete --policy safe1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			if a.auditSink == nil {
				return fmt.Errorf("audit is disabled in configuration")
			}

			records, err := a.auditSink.List(cmd.Context(), audit.Filter{
				Op:         auditFlags.op,
				PolicyName: auditFlags.policy,
				Limit:      auditFlags.limit,
			})
			if err != nil {
				return err
			}
			return printJSON(records)
		})
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditListCmd)

	auditListCmd.Flags().StringVar(&auditFlags.op, "op", "", "filter by mutation (add, update, delete)")
	auditListCmd.Flags().StringVar(&auditFlags.policy, "policy", "", "filter by policy name")
	auditListCmd.Flags().IntVar(&auditFlags.limit, "limit", 20, "maximum number of records")
}
