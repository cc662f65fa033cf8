package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"deckpatch/internal/deck"
	"deckpatch/internal/logging"
	"deckpatch/internal/patch"
)

func newApplyCommand(ctx *commandContext) *cobra.Command {
	var (
		patchPath  string
		outputPath string
		inplace    bool
		force      bool
		noForce    bool

		includeSubtitle bool
		excludeSubtitle bool
		includeFooter   bool
		excludeFooter   bool
	)

	cmd := &cobra.Command{
		Use:   "apply [deck]",
		Short: "Apply an edited patch file back to a presentation",
		Long: `Apply reads an edited patch file and writes its box texts into the
presentation under a two-level precondition: the slide signature must
match first, then each box's recorded text hash. Boxes whose slide or
text changed since export are counted and skipped, never overwritten,
unless --force is given.

The deck path defaults to the patch file's recorded source; pass an
explicit path to apply against a copy.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.loggerFor("apply")

			file, err := patch.Load(patchPath)
			if err != nil {
				return err
			}

			deckPath := file.SourcePPTX
			if len(args) == 1 {
				deckPath = args[0]
				// The recorded source is advisory only.
				if file.SourcePPTX != "" && filepath.Base(deckPath) != filepath.Base(file.SourcePPTX) {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: patch was exported from %s, applying to %s\n",
						file.SourcePPTX, filepath.Base(deckPath))
				}
			}
			if deckPath == "" {
				return fmt.Errorf("no deck path: patch file records no source_pptx, pass one as an argument")
			}
			if !filepath.IsAbs(deckPath) {
				if _, err := os.Stat(deckPath); err != nil {
					// The recorded source is advisory; try next to the patch file.
					sibling := filepath.Join(filepath.Dir(patchPath), filepath.Base(deckPath))
					if _, err := os.Stat(sibling); err == nil {
						deckPath = sibling
					}
				}
			}

			if inplace && outputPath != "" {
				return fmt.Errorf("--inplace and --output are mutually exclusive")
			}
			if inplace {
				outputPath = deckPath
			} else if outputPath == "" {
				outputPath = derivedOutputPath(deckPath, "_edited")
			}

			if inplace {
				lock := flock.New(deckPath + ".lock")
				locked, err := lock.TryLock()
				if err != nil {
					return fmt.Errorf("lock %s: %w", deckPath, err)
				}
				if !locked {
					return fmt.Errorf("%s is locked by another process", deckPath)
				}
				defer func() {
					_ = lock.Unlock()
					_ = os.Remove(lock.Path())
				}()
			}

			doc, _, err := ctx.openDeck(cmd.Context(), deckPath)
			if err != nil {
				return err
			}
			defer doc.Close()

			opts := patch.ApplyOptions{
				Force:           resolvePair(force, noForce, false),
				IncludeSubtitle: resolvePair(includeSubtitle, excludeSubtitle, cfg.Export.IncludeSubtitle),
				IncludeFooter:   resolvePair(includeFooter, excludeFooter, cfg.Export.IncludeFooter),
			}
			counters, results, err := patch.Apply(doc, file, opts)
			if err != nil {
				return err
			}

			err = ctx.writeDeckOutput(cmd.Context(), func(path string) error {
				return saveDeck(doc, path, inplace)
			}, outputPath)
			if err != nil {
				return err
			}

			logger.Info("patch applied",
				logging.String("deck", deckPath),
				logging.String("output", outputPath),
				logging.Int("updated", counters.Updated),
				logging.Int("skipped_locked", counters.SkippedLocked),
				logging.Int("missing_target", counters.MissingTarget),
				logging.Int("text_mismatch", counters.TextMismatch),
				logging.Int("slide_mismatch", counters.SlideMismatch))

			printApplyReport(cmd, counters, results, outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&patchPath, "input", "i", "", "Patch file to apply")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output deck path (default <deck>_edited.pptx)")
	cmd.Flags().BoolVar(&inplace, "inplace", false, "Overwrite the deck in place under a file lock")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Apply even when slide or text hashes disagree")
	cmd.Flags().BoolVarP(&noForce, "no-force", "F", false, "Enforce preconditions (default)")
	cmd.Flags().BoolVarP(&includeSubtitle, "include-subtitle", "s", false, "Resolve subtitle placeholders")
	cmd.Flags().BoolVarP(&excludeSubtitle, "no-subtitle", "S", false, "Skip subtitle placeholders")
	cmd.Flags().BoolVarP(&includeFooter, "include-footer", "r", false, "Resolve footer placeholders")
	cmd.Flags().BoolVarP(&excludeFooter, "no-footer", "R", false, "Skip footer placeholders")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// saveDeck writes the document. In-place saves go through a sibling temp
// file and a rename so a crash never leaves a truncated deck.
func saveDeck(doc deck.Document, outputPath string, inplace bool) error {
	if !inplace {
		return doc.SaveAs(outputPath)
	}
	tmp := outputPath + ".tmp"
	if err := doc.SaveAs(tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, outputPath); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func printApplyReport(cmd *cobra.Command, counters patch.Counters, results []patch.BoxResult, outputPath string) {
	rows := [][]string{
		{"updated", fmt.Sprintf("%d", counters.Updated)},
		{"skipped_locked", fmt.Sprintf("%d", counters.SkippedLocked)},
		{"missing_target", fmt.Sprintf("%d", counters.MissingTarget)},
		{"text_mismatch", fmt.Sprintf("%d", counters.TextMismatch)},
		{"slide_mismatch", fmt.Sprintf("%d", counters.SlideMismatch)},
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Outcome", "Count"}, rows,
		[]columnAlignment{alignLeft, alignRight}))
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outputPath)

	if counters.Clean() {
		return
	}
	for _, result := range results {
		if result.Outcome == patch.Applied || result.Outcome == patch.SkippedLocked {
			continue
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "  slide %d box %s: %s\n",
			result.SlideIndex, result.BoxID, result.Outcome)
	}
}
