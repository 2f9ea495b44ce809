package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/pushrelay/internal/config"
)

// NewRootCmd returns the root command with every subcommand attached.
func NewRootCmd(cfg *config.AppConfig) *cobra.Command {
	root := &cobra.Command{
		Use:   "pushrelay",
		Short: "Relay production downtime inserts to a push notification topic",
		Long: `pushrelay receives database change webhooks for the downtime table and
publishes a push notification to a Firebase Cloud Messaging topic for every
inserted row.`,
		SilenceUsage: true,
	}

	root.AddCommand(NewServeCmd(cfg))
	root.AddCommand(NewSendCmd(cfg))
	root.AddCommand(NewVersionCmd())
	return root
}

// Execute loads configuration from the environment and runs the root command.
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := NewRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
