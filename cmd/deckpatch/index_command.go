package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"deckpatch/internal/logging"
	"deckpatch/internal/rowstore"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	var (
		inputPath  string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Write a content-addressed CSV index of a presentation",
		Long: `Index writes one CSV row per slide: its texts, layout hint, asset
types, image locators and hashes, and the derived identity columns
(text_hash, slide_fingerprint, slide_uid).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := ctx.loggerFor("index")

			if outputPath == "" {
				outputPath = inputPath + ".csv"
			}

			doc, sourceName, err := ctx.openDeck(cmd.Context(), inputPath)
			if err != nil {
				return err
			}
			defer doc.Close()

			rows, err := rowstore.IndexDocument(doc, sourceName)
			if err != nil {
				return err
			}
			if err := rowstore.Write(outputPath, rows); err != nil {
				return err
			}

			logger.Info("index written",
				logging.String("output", outputPath),
				logging.Int("rows", len(rows)))
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d slides to %s\n", len(rows), outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Presentation to index")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "CSV output path (default <input>.csv)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
