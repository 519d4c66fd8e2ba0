package main

import (
	"github.com/spf13/cobra"

	"github.com/whatsbot/whatsbot-go/cmd/whatsbot/commands"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View and analyze session event logs",
	Long: `Reads event logs written with "whatsbot run --event-log <file>".`,
}

var logViewCmd = &cobra.Command{
	Use:   "view <file.wlog>",
	Short: "View log file in human-readable format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		var filter commands.ViewFilter

		if s, _ := flags.GetString("component"); s != "" {
			c, err := commands.ParseComponentFlag(s)
			if err != nil {
				return err
			}
			filter.Component = &c
		}
		if s, _ := flags.GetString("category"); s != "" {
			c, err := commands.ParseCategoryFlag(s)
			if err != nil {
				return err
			}
			filter.Category = &c
		}
		filter.AttemptID, _ = flags.GetString("attempt")

		return commands.RunView(args[0], filter, cmd.OutOrStdout())
	},
}

var logStatsCmd = &cobra.Command{
	Use:   "stats <file.wlog>",
	Short: "Show statistics about the log file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commands.RunStats(args[0], cmd.OutOrStdout())
	},
}

var logExportCmd = &cobra.Command{
	Use:   "export <file.wlog>",
	Short: "Export log file to JSON lines or CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		return commands.RunExport(args[0], format, output, cmd.OutOrStdout())
	},
}

var logFilterCmd = &cobra.Command{
	Use:   "filter <file.wlog>",
	Short: "Filter log file and write to new file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		var opts commands.FilterOptions
		opts.Output, _ = flags.GetString("output")
		opts.AttemptID, _ = flags.GetString("attempt")
		opts.Account, _ = flags.GetString("account")
		opts.TimeStart, _ = flags.GetString("time-start")
		opts.TimeEnd, _ = flags.GetString("time-end")
		opts.Component, _ = flags.GetString("component")
		opts.Category, _ = flags.GetString("category")
		return commands.RunFilter(args[0], opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.AddCommand(logViewCmd, logStatsCmd, logExportCmd, logFilterCmd)

	view := logViewCmd.Flags()
	view.String("component", "", "Filter by component (connection, session, pairing, command, engine)")
	view.String("category", "", "Filter by category (state, pairing, disconnect, command, credentials, error)")
	view.String("attempt", "", "Filter by attempt ID")

	export := logExportCmd.Flags()
	export.String("format", "jsonl", "Output format (jsonl, csv)")
	export.StringP("output", "o", "", "Output file (default: stdout)")

	filter := logFilterCmd.Flags()
	filter.StringP("output", "o", "", "Output file (required)")
	filter.String("attempt", "", "Filter by attempt ID")
	filter.String("account", "", "Filter by linked account JID")
	filter.String("time-start", "", "Filter events at or after this time (RFC3339)")
	filter.String("time-end", "", "Filter events before this time (RFC3339)")
	filter.String("component", "", "Filter by component")
	filter.String("category", "", "Filter by category")
	_ = logFilterCmd.MarkFlagRequired("output")
}
