package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hvr-ops/hvr-manager/internal/manager"
)

var connectorsCmd = &cobra.Command{
	Use:   "connectors",
	Short: "Inspect and control data-sync connectors.",
}

var connectorsListGroupID string

var connectorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List connectors, optionally scoped to one group.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := commandContext()
		defer stop()

		svc, _, err := buildService(ctx, cmd.CommandPath(), true)
		if err != nil {
			return err
		}

		connectors, err := svc.ListConnectors(ctx, connectorsListGroupID)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSERVICE\tSTATUS\tSYNC STATE\tLAST SYNC")
		for _, connector := range connectors {
			lastSync := "-"
			if connector.LastSync != nil {
				lastSync = connector.LastSync.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				connector.ID, connector.Name, connector.Service, connector.Status, connector.SyncState, lastSync)
		}
		return w.Flush()
	},
}

var connectorsShowCmd = &cobra.Command{
	Use:   "show <connector-id>",
	Short: "Show the detail projection of one connector.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := commandContext()
		defer stop()

		svc, _, err := buildService(ctx, cmd.CommandPath(), true)
		if err != nil {
			return err
		}

		detail, err := svc.GetConnector(ctx, args[0])
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "ID\t%s\n", detail.ID)
		fmt.Fprintf(w, "Name\t%s\n", detail.Name)
		fmt.Fprintf(w, "Service\t%s\n", detail.Service)
		fmt.Fprintf(w, "Status\t%s\n", detail.Status)
		fmt.Fprintf(w, "Group\t%s\n", detail.GroupID)
		fmt.Fprintf(w, "Schedule\t%s\n", orDash(detail.ScheduleType))
		if detail.SyncFrequency > 0 {
			fmt.Fprintf(w, "Sync frequency\t%d min\n", detail.SyncFrequency)
		}
		if detail.DailySyncTime != "" {
			fmt.Fprintf(w, "Daily sync time\t%s\n", detail.DailySyncTime)
		}
		fmt.Fprintf(w, "Setup state\t%s\n", orDash(detail.SetupState))
		fmt.Fprintf(w, "Sync state\t%s\n", orDash(detail.SyncState))
		fmt.Fprintf(w, "Update state\t%s\n", orDash(detail.UpdateState))
		fmt.Fprintf(w, "Succeeded at\t%s\n", formatTime(detail.SucceededAt))
		fmt.Fprintf(w, "Failed at\t%s\n", formatTime(detail.FailedAt))
		return w.Flush()
	},
}

var connectorsActivateCmd = &cobra.Command{
	Use:   "activate <connector-id>",
	Short: "Resume a paused connector.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := commandContext()
		defer stop()

		svc, _, err := buildService(ctx, cmd.CommandPath(), true)
		if err != nil {
			return err
		}
		return operationExit(svc.Activate(ctx, args[0]))
	},
}

var connectorsPauseCmd = &cobra.Command{
	Use:   "pause <connector-id>",
	Short: "Pause a connector.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := commandContext()
		defer stop()

		svc, _, err := buildService(ctx, cmd.CommandPath(), true)
		if err != nil {
			return err
		}
		return operationExit(svc.Pause(ctx, args[0]))
	},
}

var connectorsSyncForce bool

var connectorsSyncCmd = &cobra.Command{
	Use:   "sync <connector-id>",
	Short: "Trigger a sync, or a full historical resync with --force.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := commandContext()
		defer stop()

		svc, _, err := buildService(ctx, cmd.CommandPath(), true)
		if err != nil {
			return err
		}
		return operationExit(svc.Sync(ctx, args[0], connectorsSyncForce))
	},
}

var connectorsTestCmd = &cobra.Command{
	Use:   "test <connector-id>",
	Short: "Run the remote connection test.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := commandContext()
		defer stop()

		svc, _, err := buildService(ctx, cmd.CommandPath(), true)
		if err != nil {
			return err
		}
		return operationExit(svc.TestConnection(ctx, args[0]))
	},
}

var connectorsSchemasCmd = &cobra.Command{
	Use:   "schemas <connector-id>",
	Short: "Show the schema/table map of a connector.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := commandContext()
		defer stop()

		svc, _, err := buildService(ctx, cmd.CommandPath(), true)
		if err != nil {
			return err
		}

		result := svc.GetSchemas(ctx, args[0])
		if !result.Success {
			fmt.Println(result.Message)
			return &exitError{code: 1, err: errors.New(result.Message), silent: true}
		}

		schemas, err := manager.DecodeSchemas(result.Data)
		if err != nil {
			return fmt.Errorf("decode schemas: %w", err)
		}
		if len(schemas) == 0 {
			fmt.Println("no schemas found")
			return nil
		}

		schemaNames := make([]string, 0, len(schemas))
		for name := range schemas {
			schemaNames = append(schemaNames, name)
		}
		sort.Strings(schemaNames)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SCHEMA\tTABLE\tENABLED\tSYNC MODE")
		for _, schemaName := range schemaNames {
			tables := schemas[schemaName].Tables
			tableNames := make([]string, 0, len(tables))
			for name := range tables {
				tableNames = append(tableNames, name)
			}
			sort.Strings(tableNames)
			for _, tableName := range tableNames {
				table := tables[tableName]
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", schemaName, tableName, table.Enabled, orDash(table.SyncMode))
			}
		}
		return w.Flush()
	},
}

var connectorsResyncTableCmd = &cobra.Command{
	Use:   "resync-table <connector-id> <schema> <table>",
	Short: "Resync one table.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := commandContext()
		defer stop()

		svc, _, err := buildService(ctx, cmd.CommandPath(), true)
		if err != nil {
			return err
		}
		return operationExit(svc.ResyncTable(ctx, args[0], args[1], args[2]))
	},
}

var connectorsToggleEnabled bool

var connectorsToggleTableCmd = &cobra.Command{
	Use:   "toggle-table <connector-id> <schema> <table>",
	Short: "Enable or disable one table.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := commandContext()
		defer stop()

		svc, _, err := buildService(ctx, cmd.CommandPath(), true)
		if err != nil {
			return err
		}
		return operationExit(svc.ToggleTable(ctx, args[0], args[1], args[2], connectorsToggleEnabled))
	},
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func init() {
	connectorsListCmd.Flags().StringVar(&connectorsListGroupID, "group", "", "restrict the listing to one group id")
	connectorsSyncCmd.Flags().BoolVar(&connectorsSyncForce, "force", false, "request a full historical resync")
	connectorsToggleTableCmd.Flags().BoolVar(&connectorsToggleEnabled, "enabled", true, "enable (true) or disable (false) the table")

	connectorsCmd.AddCommand(
		connectorsListCmd,
		connectorsShowCmd,
		connectorsActivateCmd,
		connectorsPauseCmd,
		connectorsSyncCmd,
		connectorsTestCmd,
		connectorsSchemasCmd,
		connectorsResyncTableCmd,
		connectorsToggleTableCmd,
	)
}
