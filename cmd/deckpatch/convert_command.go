package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"deckpatch/internal/logging"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		outDir       string
		targetFormat string
	)

	cmd := &cobra.Command{
		Use:   "convert <file>...",
		Short: "Convert presentations between formats via LibreOffice",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := ctx.loggerFor("convert")

			converter, err := ctx.converter()
			if err != nil {
				return err
			}

			paths, err := expandInputGlobs(args)
			if err != nil {
				return err
			}

			for _, inputPath := range paths {
				dest := outDir
				if dest == "" {
					dest = filepath.Dir(inputPath)
				}
				produced, err := converter.Convert(cmd.Context(), inputPath, targetFormat, dest)
				if err != nil {
					return fmt.Errorf("convert %s: %w", inputPath, err)
				}
				logger.Info("converted",
					logging.String("input", inputPath),
					logging.String("output", produced))
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", inputPath, produced)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "outdir", "d", "", "Output directory (default alongside each input)")
	cmd.Flags().StringVarP(&targetFormat, "to", "t", "pptx", "Target format (pptx, odp)")

	return cmd
}
