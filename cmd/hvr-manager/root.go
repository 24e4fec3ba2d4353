package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:           "hvr-manager",
	Short:         "Manage Fivetran HVR 6.0 connectors from the command line.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(groupsCmd, connectorsCmd, checkCmd, serveCmd)
}
