package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"deckpatch/internal/logging"
	"deckpatch/internal/patch"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		inputPath  string
		outputPath string

		includeNotes    bool
		excludeNotes    bool
		includeSubtitle bool
		excludeSubtitle bool
		includeFooter   bool
		excludeFooter   bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export slide text to an editable patch file",
		Long: `Export walks every slide of a presentation and writes a YAML patch
file containing each addressable text box, its current text, and the
precondition hashes a later apply run checks against.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.loggerFor("export")

			if outputPath == "" {
				outputPath = replaceExtension(inputPath, ".patch.yaml")
			}

			doc, sourceName, err := ctx.openDeck(cmd.Context(), inputPath)
			if err != nil {
				return err
			}
			defer doc.Close()

			opts := patch.ExportOptions{
				IncludeNotes:    resolvePair(includeNotes, excludeNotes, cfg.Export.IncludeNotes),
				IncludeSubtitle: resolvePair(includeSubtitle, excludeSubtitle, cfg.Export.IncludeSubtitle),
				IncludeFooter:   resolvePair(includeFooter, excludeFooter, cfg.Export.IncludeFooter),
			}
			result, err := patch.Export(doc, sourceName, opts)
			if err != nil {
				return err
			}
			if err := result.File.Save(outputPath); err != nil {
				return err
			}

			logger.Info("patch exported",
				logging.String("output", outputPath),
				logging.Int("slides", result.SlideCount),
				logging.Int("boxes", result.BoxCount))
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d slides (%d boxes) to %s\n",
				result.SlideCount, result.BoxCount, outputPath)
			if len(result.FallbackSlides) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(),
					"Warning: slides %s use fallback box ids; re-export after any structural edit\n",
					joinInts(result.FallbackSlides))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Presentation to export (pptx, odp, ppt)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Patch file path (default <input>.patch.yaml)")
	cmd.Flags().BoolVarP(&includeNotes, "include-notes", "n", false, "Include speaker notes")
	cmd.Flags().BoolVarP(&excludeNotes, "no-notes", "N", false, "Exclude speaker notes")
	cmd.Flags().BoolVarP(&includeSubtitle, "include-subtitle", "s", false, "Include subtitle placeholders")
	cmd.Flags().BoolVarP(&excludeSubtitle, "no-subtitle", "S", false, "Exclude subtitle placeholders")
	cmd.Flags().BoolVarP(&includeFooter, "include-footer", "r", false, "Include footer placeholders")
	cmd.Flags().BoolVarP(&excludeFooter, "no-footer", "R", false, "Exclude footer placeholders")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}
