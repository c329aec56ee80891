package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var versionFlag bool

	rootCmd := &cobra.Command{
		Use:           "dlmaster",
		Short:         "Media download front end for yt-dlp",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if versionFlag {
				fmt.Fprintf(cmd.OutOrStdout(), "dlmaster %s (built %s)\n", Version, BuildTime)
				return nil
			}
			return runServer(cmd.Context(), configFlag)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to config file")
	rootCmd.Flags().BoolVar(&versionFlag, "version", false, "Show version and exit")

	rootCmd.AddCommand(newFormatsCommand(&configFlag))

	return rootCmd
}
