// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ugc/internal/convert"
	"github.com/pdiddy/ugc/internal/raster"
	"github.com/pdiddy/ugc/internal/render"
	"github.com/pdiddy/ugc/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert local images, HEIC photos and PDFs",
	Long: `Convert processes the given files one at a time, in order. Each output
is written as {name}_converted.{format} next to its source, or into
--output-dir when given. PDFs contribute their first page only.

A file that fails is reported and skipped; the command exits non-zero when
any file failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringP("format", "f", "", "target format: png, jpg, jpeg, webp, avif, tiff, pdf (default png)")
	convertCmd.Flags().StringP("output-dir", "o", "", "directory for converted files (default: next to each source)")
	convertCmd.Flags().Bool("no-progress", false, "do not draw the progress bar")
	viper.BindPFlag("convert.format", convertCmd.Flags().Lookup("format"))
	viper.BindPFlag("convert.output_dir", convertCmd.Flags().Lookup("output-dir"))

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	format, err := types.ParseTargetFormat(cfg.Convert.Format)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	// The page renderer answers the broker's requests until the job ends.
	renderCtx, cancelRender := context.WithCancel(ctx)
	defer cancelRender()
	broker := render.NewBroker(cfg.Convert.RenderTimeout, logger)
	go render.NewPageRenderer(cfg.Convert.RenderScale, logger).Serve(renderCtx, broker)

	noProgress, _ := cmd.Flags().GetBool("no-progress")
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	sink := newBarSink(out, errOut, !noProgress && isatty.IsTerminal(os.Stderr.Fd()))

	d := convert.New(convert.Options{
		Renderer: broker,
		Sink:     sink,
		Logger:   logger,
		Naming:   convert.NamingSuffixed,
		Encode:   raster.OptionsFromConfig(cfg.Convert),
	})

	summary, results, err := d.RunPaths(ctx, args, format, cfg.Convert.OutputDir)
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.Succeeded {
			success(out, "%s -> %s", r.SourcePath, r.OutputPath)
		}
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d of %d file(s) failed to convert", summary.Errors, summary.Total)
	}
	return nil
}
