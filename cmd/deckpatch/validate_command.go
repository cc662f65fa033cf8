package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"deckpatch/internal/deck"
	"deckpatch/internal/deck/ooxml"
	"deckpatch/internal/logging"
	"deckpatch/internal/rowstore"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var (
		checkSources bool
		strict       bool
	)

	cmd := &cobra.Command{
		Use:   "validate <csv>",
		Short: "Validate a slide index CSV",
		Long: `Validate recomputes each row's identity columns from its stored
texts and checks locator consistency. With --check-sources it also
verifies source files exist; with --strict it re-opens each source
deck and requires recorded hashes to match the live content.

Errors fail the run with a non-zero exit; warnings print but do not
affect the exit status.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := ctx.loggerFor("validate")

			csvPath := args[0]
			rows, err := rowstore.Read(csvPath)
			if err != nil {
				return err
			}

			opts := rowstore.ValidateOptions{
				CheckSources: checkSources,
				Strict:       strict,
				CSVDir:       filepath.Dir(csvPath),
			}
			if strict {
				cache := rowstore.NewSourceCache(func(path string) (deck.Document, error) {
					return ooxml.Open(path)
				})
				defer cache.Close()
				opts.Sources = cache
			}

			report := rowstore.Validate(rows, opts)

			for _, warning := range report.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
			}
			for _, failure := range report.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", failure)
			}

			logger.Info("csv validated",
				logging.String("csv", csvPath),
				logging.Int("rows", report.RowCount),
				logging.Int("errors", len(report.Errors)),
				logging.Int("warnings", len(report.Warnings)))

			if len(report.Errors) > 0 {
				return fmt.Errorf("%s: %d validation errors in %d rows",
					csvPath, len(report.Errors), report.RowCount)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows valid", csvPath, report.RowCount)
			if len(report.Warnings) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), " (%d warnings)", len(report.Warnings))
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkSources, "check-sources", false, "Verify that each row's source file exists")
	cmd.Flags().BoolVar(&strict, "strict", false, "Re-open sources and cross-check recorded hashes")

	return cmd
}
