package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/whatsbot/whatsbot-go/pkg/connection"
	"github.com/whatsbot/whatsbot-go/pkg/persistence"
	"github.com/whatsbot/whatsbot-go/pkg/whatsapp"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted bot state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return printStatus(cfg.AuthDir, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func printStatus(dir string, w io.Writer) error {
	state, err := persistence.NewStateStoreInDir(dir).Load()
	if err != nil {
		return fmt.Errorf("read bot state: %w", err)
	}

	fmt.Fprintf(w, "Auth directory: %s\n", dir)
	fmt.Fprintf(w, "Credentials:    %s\n", yesNo(whatsapp.Exists(dir), "stored", "none"))
	if state == nil {
		fmt.Fprintln(w, "No run recorded yet.")
		return nil
	}

	account := state.Account
	if account == "" {
		account = "not linked"
	}
	fmt.Fprintf(w, "Account:        %s\n", account)
	fmt.Fprintf(w, "Last run:       %s\n", formatTime(state.StartedAt))
	fmt.Fprintf(w, "Last open:      %s\n", formatTime(state.LastOpenAt))
	fmt.Fprintf(w, "Attempts:       %d (%d reconnects)\n", state.Attempts, state.Reconnects)
	fmt.Fprintf(w, "Commands:       %d answered\n", state.CommandsHandled)

	if d := state.LastDisconnect; d != nil {
		fmt.Fprintf(w, "Last close:     %s at %s (%s)\n",
			connection.Reason(d.Reason), formatTime(d.At), d.Class)
		if d.WipeCredentials {
			fmt.Fprintf(w, "                credentials should be reset: whatsbot reset\n")
		}
	}
	if state.Terminated {
		fmt.Fprintln(w, "Session ended, no reconnection scheduled.")
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}

func yesNo(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}
