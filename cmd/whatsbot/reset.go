package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/whatsbot/whatsbot-go/pkg/console"
	"github.com/whatsbot/whatsbot-go/pkg/session"
	"github.com/whatsbot/whatsbot-go/pkg/version"
	"github.com/whatsbot/whatsbot-go/pkg/whatsapp"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the stored credentials and bot state",
	Long: `Deletes the credential directory so that the next run starts the pairing
flow again. Use it after a logout or an invalid session.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		yes, _ := cmd.Flags().GetBool("yes")
		prompter := console.NewPrompter()
		defer prompter.Close()
		return reset(cmd.Context(), cfg.AuthDir, yes, prompter, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}

func reset(ctx context.Context, dir string, yes bool, p session.Prompter, out io.Writer) error {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(out, "Nothing to reset: %s does not exist\n", dir)
		return nil
	}

	if !yes {
		what := "bot state"
		if whatsapp.Exists(dir) {
			what = "linked session"
		}
		answer, err := p.Prompt(ctx, fmt.Sprintf("Delete %s and the %s in it? [y/N] ", dir, what))
		if err != nil {
			return err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
		default:
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	if err := whatsapp.Wipe(dir); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	fmt.Fprintf(out, "Removed %s. Run \"%s run\" to pair again.\n", dir, version.Name)
	return nil
}
