package main

import (
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-herd-keeper/internal/config"
)

var version = "dev"

type rootFlags struct {
	address string
	timeout time.Duration
	noColor bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "herdctl",
		Short:         "Operate a herd client",
		Long:          "herdctl talks to the local diagnostics API of a running herd client.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if flags.noColor {
				color.NoColor = true
			}
		},
	}

	cmd.PersistentFlags().StringVar(&flags.address, "addr", config.DefaultDiagnosticsAddress, "diagnostics API address")
	cmd.PersistentFlags().DurationVar(&flags.timeout, "timeout", 10*time.Second, "request timeout")
	cmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "disable colored output")

	api := func() *apiClient { return newAPIClient(flags.address, flags.timeout) }

	cmd.AddCommand(
		newStatsCmd(api),
		newSyncCmd(api),
		newResumeCmd(api),
		newQueueCmd(api),
		newDeadLettersCmd(api),
		newTransferCmd(api),
	)

	return cmd
}
