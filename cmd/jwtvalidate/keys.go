package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newKeysCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Fetch the key set and list its key IDs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, _, err := setup(cmd, *configPath)
			if err != nil {
				return err
			}

			if err := v.Refresh(cmd.Context()); err != nil {
				return fmt.Errorf("failed to fetch keys: %w", err)
			}

			for _, kid := range v.Keys() {
				fmt.Fprintln(cmd.OutOrStdout(), kid)
			}
			return nil
		},
	}
}
