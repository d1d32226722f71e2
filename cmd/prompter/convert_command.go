package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"prompter/internal/logging"
	"prompter/internal/pipeline"
)

// newConvertCommand runs a conversion in-process without the daemon. Useful
// for single decks and for scripting.
func newConvertCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "convert <file.pptx>",
		Short: "Convert a presentation locally without the daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			inputPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve input path: %w", err)
			}

			target := strings.TrimSpace(outputPath)
			if target == "" {
				base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
				target = filepath.Join(filepath.Dir(inputPath), base+"_script.pptx")
			}

			level := "warn"
			if verbose {
				level = "debug"
			}
			logger, err := logging.New(logging.Options{Level: level, Format: cfg.Logging.Format})
			if err != nil {
				return err
			}

			scratchDir, err := os.MkdirTemp("", "prompter-convert-*")
			if err != nil {
				return fmt.Errorf("create scratch directory: %w", err)
			}
			defer os.RemoveAll(scratchDir)

			converter := pipeline.New(cfg, logger)
			result, err := converter.Convert(cmd.Context(), inputPath, target, scratchDir)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d slides from %d source slides)\n",
				result.OutputPath, result.OutputSlides, result.SourceSlides)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination path for the generated deck")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	return cmd
}
