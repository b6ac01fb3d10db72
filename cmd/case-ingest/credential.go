package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/case-ingest/internal/credential"
	"github.com/nhle/case-ingest/internal/theme"
)

func newCredentialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage secrets referenced as keyring:<key> in the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key>",
		Short: "Store a secret in the system keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := credential.Prompt(fmt.Sprintf("Secret for %s", args[0]))
			if err != nil {
				return err
			}
			if err := credential.Set(args[0], secret); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), theme.SuccessStyle.Render("stored "+args[0]))
			fmt.Fprintln(cmd.OutOrStdout(), theme.HintStyle.Render("reference it as "+credential.KeyringPrefix+args[0]))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a secret from the system keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := credential.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), theme.SuccessStyle.Render("deleted "+args[0]))
			return nil
		},
	})

	return cmd
}
