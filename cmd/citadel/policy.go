package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"citadel-sec/citadel/pkg/policy"
)

var policyFlags struct {
	prefix string
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage password policies",
	Long: `Manage password policies directly against the configured store.

Subcommands:
  add     - Create a new policy
  get     - Show a policy
  update  - Update attributes of an existing policy
  delete  - Delete a policy
  search  - List policies by name prefix
  check   - Check whether a name is a currently valid policy

Examples:
  # Create a policy
  citadel policy add --name safe1 --min-length 8 --max-failure 5

  # Show it
  citadel policy get safe1

  # Tighten the lockout window
  citadel policy update --name safe1 --lockout-duration 1800

  # Search case-insensitively by prefix
  citadel policy search --prefix safe

  # Membership check against the name cache
  citadel policy check safe1

  # Delete it
  citadel policy delete safe1`,
}

var policyAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a new policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			p := policyFromFlags(cmd)
			if err := a.manager.Add(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Printf("✓ Policy %q created\n", p.Name)
			return nil
		})
	},
}

var policyGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show a policy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			p, err := a.manager.Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(p)
		})
	},
}

var policyUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update attributes of an existing policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			p := policyFromFlags(cmd)
			if err := a.manager.Update(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Printf("✓ Policy %q updated\n", p.Name)
			return nil
		})
	},
}

var policyDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a policy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			if err := a.manager.Delete(cmd.Context(), &policy.PasswordPolicy{Name: args[0]}); err != nil {
				return err
			}
			fmt.Printf("✓ Policy %q deleted\n", args[0])
			return nil
		})
	},
}

var policySearchCmd = &cobra.Command{
	Use:   "search",
	Short: "List policies by name prefix",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			matches, err := a.manager.Search(cmd.Context(), policyFlags.prefix)
			if err != nil {
				return err
			}
			return printJSON(matches)
		})
	},
}

var policyCheckCmd = &cobra.Command{
	Use:   "check <name>",
	Short: "Check whether a name is a currently valid policy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			if a.manager.IsValid(args[0]) {
				fmt.Printf("✓ %q is a valid policy\n", args[0])
				return nil
			}
			fmt.Printf("✗ %q is not a valid policy\n", args[0])
			os.Exit(1)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyAddCmd, policyGetCmd, policyUpdateCmd,
		policyDeleteCmd, policySearchCmd, policyCheckCmd)

	for _, cmd := range []*cobra.Command{policyAddCmd, policyUpdateCmd} {
		cmd.Flags().String("name", "", "policy name (required)")
		cmd.Flags().Int("check-quality", 0, "quality checking mode (0, 1, or 2)")
		cmd.Flags().Int("max-age", 0, "maximum password age in seconds")
		cmd.Flags().Int("min-age", 0, "minimum password age in seconds")
		cmd.Flags().Int("min-length", 0, "minimum password length")
		cmd.Flags().Int("failure-count-interval", 0, "failure counter reset window in seconds")
		cmd.Flags().Int("max-failure", 0, "consecutive failures before lockout")
		cmd.Flags().Int("in-history", 0, "previous passwords kept in history")
		cmd.Flags().Int("grace-login-limit", 0, "logins allowed after expiration")
		cmd.Flags().Int("lockout-duration", 0, "lockout duration in seconds")
		cmd.Flags().Int("expire-warning", 0, "expiration warning lead time in seconds")
		_ = cmd.MarkFlagRequired("name")
	}

	policySearchCmd.Flags().StringVar(&policyFlags.prefix, "prefix", "", "name prefix to match (empty matches all)")
}

// withApp wires the application, runs fn, and tears down.
func withApp(cmd *cobra.Command, fn func(a *app) error) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// policyFromFlags builds a record from the command's flags. Only flags the
// user actually set become present attributes, so update semantics are
// preserved.
func policyFromFlags(cmd *cobra.Command) *policy.PasswordPolicy {
	name, _ := cmd.Flags().GetString("name")
	return &policy.PasswordPolicy{
		Name:                 name,
		CheckQuality:         intFlag(cmd, "check-quality"),
		MaxAge:               intFlag(cmd, "max-age"),
		MinAge:               intFlag(cmd, "min-age"),
		MinLength:            intFlag(cmd, "min-length"),
		FailureCountInterval: intFlag(cmd, "failure-count-interval"),
		MaxFailure:           intFlag(cmd, "max-failure"),
		InHistory:            intFlag(cmd, "in-history"),
		GraceLoginLimit:      intFlag(cmd, "grace-login-limit"),
		LockoutDuration:      intFlag(cmd, "lockout-duration"),
		ExpireWarning:        intFlag(cmd, "expire-warning"),
	}
}

// intFlag returns a pointer to the flag value when the user set it, nil
// otherwise.
func intFlag(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetInt(name)
	return &v
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
