package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/iconidentify/dlmaster/internal/config"
	"github.com/iconidentify/dlmaster/internal/extractor"
	"github.com/iconidentify/dlmaster/internal/service"
)

func newFormatsCommand(configFlag *string) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "formats <url>",
		Short: "Look up a URL and print its download offers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configFlag)
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: slog.LevelWarn,
			}))

			ext := extractor.New(cfg.Extractor, extractor.ExecRunner{}, logger)
			svc := service.NewMediaService(newInfoRouter(cfg, ext, logger), ext, nil, nil, nil, logger)

			result, err := svc.FetchInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, result)
			}
			printInfo(out, result, isTerminal(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printInfo(w io.Writer, info *service.InfoResult, pretty bool) {
	fmt.Fprintf(w, "Title:    %s\n", info.Title)
	fmt.Fprintf(w, "Uploader: %s\n", info.Uploader)
	fmt.Fprintf(w, "Duration: %s\n", info.Duration)
	fmt.Fprintf(w, "URL:      %s\n\n", info.OriginalURL)

	if len(info.Formats) == 0 {
		fmt.Fprintln(w, "No downloadable formats.")
		return
	}
	fmt.Fprintln(w, renderOffers(info, pretty))
}
