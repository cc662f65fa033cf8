package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"deckpatch/internal/logging"
	"deckpatch/internal/rowstore"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var (
		outputPath string
		sortBy     string
		dedupe     bool
	)

	cmd := &cobra.Command{
		Use:   "merge <csv>...",
		Short: "Merge slide index CSVs into one",
		Long: `Merge concatenates slide index CSVs in argument order, optionally
sorts by a column, and optionally drops duplicate slide_uid rows
keeping the first occurrence. Arguments may be glob patterns.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := ctx.loggerFor("merge")

			paths, err := expandInputGlobs(args)
			if err != nil {
				return err
			}

			rows, err := rowstore.Merge(paths)
			if err != nil {
				return err
			}
			if sortBy != "" {
				rows, err = rowstore.SortRows(rows, sortBy)
				if err != nil {
					return err
				}
			}
			dropped := 0
			if dedupe {
				rows, dropped = rowstore.Dedupe(rows)
			}
			if err := rowstore.Write(outputPath, rows); err != nil {
				return err
			}

			logger.Info("csv files merged",
				logging.Int("inputs", len(paths)),
				logging.Int("rows", len(rows)),
				logging.Int("dropped", dropped),
				logging.String("output", outputPath))
			fmt.Fprintf(cmd.OutOrStdout(), "Merged %d files into %s (%d rows", len(paths), outputPath, len(rows))
			if dropped > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), ", %d duplicates dropped", dropped)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ")")
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "merged.csv", "Merged CSV output path")
	cmd.Flags().StringVar(&sortBy, "sort-by", "", "Column to sort by (numeric when all values parse)")
	cmd.Flags().BoolVar(&dedupe, "dedupe", false, "Drop duplicate slide_uid rows, keeping the first")

	return cmd
}
