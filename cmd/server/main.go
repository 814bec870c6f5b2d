package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "governor",
		Short:         "SCF tier governance bot and admin API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the bot, scheduled jobs, workers and HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "sync [guild-id...]",
			Short: "Sync roles and members once, for the given guilds or every stored guild",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSync(cmd.Context(), args)
			},
		},
		&cobra.Command{
			Use:   "sweep",
			Short: "Close expired voting sessions once",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSweep(cmd.Context())
			},
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "governor:", err)
		os.Exit(1)
	}
}
