// Command lmsctl runs operator tasks against the circulation database:
// migrations, sweeps, notification delivery and credential helpers.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	root := &cobra.Command{
		Use:           "lmsctl",
		Short:         "Operator tools for the circulation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCmd(logger),
		newSweepStaleCmd(logger),
		newMarkOverdueCmd(logger),
		newDispatchCmd(logger),
		newHashPasswordCmd(),
		newTokenCmd(logger),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
