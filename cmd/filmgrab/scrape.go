package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/filmgrab/models"
)

var showLogs bool

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Scrape one movie page and print the result as JSON",
	Example: `  filmgrab scrape https://example.com/movie/sample.html
  filmgrab scrape --logs https://example.com/movie/sample.html`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		sc, _, release, err := buildScraper(cfg)
		if err != nil {
			return err
		}
		defer release()

		result, log, err := sc.DoScrape(ctx, args[0])

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)

		if err != nil {
			out := models.ErrorResponse{Error: err.Error()}
			if showLogs {
				out.Logs = log.Strings()
			}
			_ = enc.Encode(out)
			return err
		}

		if showLogs {
			result.Logs = log.Strings()
		}
		return enc.Encode(result)
	},
}

func init() {
	scrapeCmd.Flags().BoolVarP(&showLogs, "logs", "l", false, "include the diagnostic trace in the output")
	scrapeCmd.SetErr(os.Stderr)
}
