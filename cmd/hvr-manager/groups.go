package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Inspect connector groups.",
}

var groupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all groups.",
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
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCREATED")
		for _, group := range groups {
			created := "-"
			if group.CreatedAt != nil {
				created = group.CreatedAt.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", group.ID, group.Name, created)
		}
		return w.Flush()
	},
}

var groupsShowCmd = &cobra.Command{
	Use:   "show <group-id>",
	Short: "Show one group.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := commandContext()
		defer stop()

		svc, _, err := buildService(ctx, cmd.CommandPath(), true)
		if err != nil {
			return err
		}

		group, err := svc.GetGroup(ctx, args[0])
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "ID\t%s\n", group.ID)
		fmt.Fprintf(w, "Name\t%s\n", group.Name)
		created := "-"
		if group.CreatedAt != nil {
			created = group.CreatedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "Created\t%s\n", created)
		return w.Flush()
	},
}

func init() {
	groupsCmd.AddCommand(groupsListCmd, groupsShowCmd)
}
