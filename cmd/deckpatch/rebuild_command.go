package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"deckpatch/internal/deck"
	"deckpatch/internal/deck/ooxml"
	"deckpatch/internal/logging"
	"deckpatch/internal/rowstore"
	"deckpatch/internal/textnorm"
)

func newRebuildCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "rebuild <csv>",
		Short: "Compose a new presentation from a slide index CSV",
		Long: `Rebuild composes a fresh deck with one slide per CSV row: title,
body bullets, notes, and the row's images pulled from its source
documents. Images are matched by recorded shape id first and by
content hash when the id no longer resolves.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := ctx.loggerFor("rebuild")

			csvPath := args[0]
			if outputPath == "" {
				outputPath = replaceExtension(csvPath, ".pptx")
			}

			rows, err := rowstore.Read(csvPath)
			if err != nil {
				return err
			}

			cache := rowstore.NewSourceCache(func(path string) (deck.Document, error) {
				return ooxml.Open(path)
			})
			defer cache.Close()

			writer := ooxml.NewWriter()
			opts := rowstore.RebuildOptions{
				CSVDir:  filepath.Dir(csvPath),
				Sources: cache,
			}
			err = rowstore.Rebuild(rows, opts, func(content rowstore.SlideContent) error {
				var body []deck.Paragraph
				for _, line := range textnorm.ParseTabIndented(content.Row.BodyText, false) {
					body = append(body, deck.Paragraph{Level: line.Level, Text: line.Text})
				}
				var blobs [][]byte
				for _, image := range content.Images {
					blobs = append(blobs, image.Blob)
				}
				writer.AddSlide(ooxml.SlideSpec{
					Title:  content.Row.TitleText,
					Body:   body,
					Notes:  content.Row.NotesText,
					Images: blobs,
					Layout: content.Row.LayoutHint,
				})
				return nil
			})
			if err != nil {
				return err
			}
			if err := ctx.writeDeckOutput(cmd.Context(), writer.Save, outputPath); err != nil {
				return err
			}

			logger.Info("deck rebuilt",
				logging.String("csv", csvPath),
				logging.String("output", outputPath),
				logging.Int("slides", writer.SlideCount()))
			fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt %d slides to %s\n", writer.SlideCount(), outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output deck path (default <csv>.pptx)")

	return cmd
}
