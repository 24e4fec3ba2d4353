package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the configured credential against the remote API.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := commandContext()
		defer stop()

		svc, _, err := buildService(ctx, cmd.CommandPath(), true)
		if err != nil {
			return err
		}

		groups, err := svc.ListGroups(ctx)
		if err != nil {
			return fmt.Errorf("credential check failed: %w", err)
		}

		fmt.Printf("credentials ok (%d groups visible)\n", len(groups))
		return nil
	},
}
