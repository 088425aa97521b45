package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"evidence-hub/domain"
	"evidence-hub/infrastructure"
)

func init() {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := infrastructure.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg.Redacted())
		},
	})
	rootCmd.AddCommand(configCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "grant-role <user-id> <admin|reviewer|submitter>",
		Short: "Grant a role to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			return grantRole(cmd.Context(), a.roles, args[0], domain.Role(args[1]), cmd)
		},
	})
}

func grantRole(ctx context.Context, roles *infrastructure.RoleRepository, userID string, role domain.Role, cmd *cobra.Command) error {
	if err := roles.GrantRole(ctx, userID, role); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "granted %s to %s\n", role, userID)
	return nil
}
