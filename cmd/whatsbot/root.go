package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/whatsbot/whatsbot-go/pkg/command"
	"github.com/whatsbot/whatsbot-go/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:           "whatsbot",
	Short:         "WhatsApp command bot",
	Long:          rootLong(command.Default().Names()),
	SilenceErrors: true,
	SilenceUsage:  true,
}

func rootLong(names []string) string {
	list := strings.Join(names, ", ")
	if n := len(names); n > 1 {
		list = strings.Join(names[:n-1], ", ") + " and " + names[n-1]
	}
	return "whatsbot links to a WhatsApp account with a pairing code and answers\n" +
		list + " in private and group chats."
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil && !isReported(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return exitCode(err)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "YAML configuration file")
	flags.String("env-file", ".env", "Environment file loaded before WHATSBOT_* variables are read")
	flags.String("auth-dir", "", "Credential directory (default "+config.DefaultAuthDir+")")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
}

// loadConfig resolves the configuration: defaults, YAML file, .env file,
// environment, then flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()

	envFile, _ := flags.GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return config.Config{}, err
	}

	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return config.Config{}, err
	}

	if flags.Changed("auth-dir") {
		cfg.AuthDir, _ = flags.GetString("auth-dir")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if f := flags.Lookup("event-log"); f != nil && f.Changed {
		cfg.EventLog = f.Value.String()
	}
	if f := flags.Lookup("metrics-addr"); f != nil && f.Changed {
		cfg.Metrics.Addr = f.Value.String()
	}
	if f := flags.Lookup("phone"); f != nil && f.Changed {
		cfg.Pairing.Phone = f.Value.String()
	}
	if flags.Lookup("exit-on-terminal") != nil && flags.Changed("exit-on-terminal") {
		cfg.ExitOnTerminal, _ = flags.GetBool("exit-on-terminal")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
