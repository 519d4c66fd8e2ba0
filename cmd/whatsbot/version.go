package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/whatsbot/whatsbot-go/pkg/version"
	"github.com/whatsbot/whatsbot-go/pkg/whatsapp"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of whatsbot",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		// The lookup is disabled, so this never touches the network.
		info, _ := whatsapp.NewEngine(whatsapp.Config{}).Version(context.Background())
		fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", version.Name, version.Current)
		fmt.Fprintf(cmd.OutOrStdout(), "built-in WhatsApp Web version %s\n", info.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
