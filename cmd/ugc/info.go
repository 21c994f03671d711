// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ugc/internal/ghostscript"
	"github.com/pdiddy/ugc/pkg/types"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show library versions and supported formats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "%-12s %s\n", "ugc", version)
		fmt.Fprintf(out, "%-12s %s\n", "go", runtime.Version())
		fmt.Fprintf(out, "%-12s %s\n", "go-fitz", moduleVersion("github.com/gen2brain/go-fitz"))
		fmt.Fprintf(out, "%-12s %s\n", "heic", moduleVersion("github.com/gen2brain/heic"))

		gs := ghostscript.New(cfg.Ghostscript, logger)
		if v, err := gs.Version(cmd.Context()); err != nil {
			fmt.Fprintf(out, "%-12s not available (%s)\n", "ghostscript", gs.Name())
		} else {
			fmt.Fprintf(out, "%-12s %s\n", "ghostscript", v)
		}

		formats := make([]string, 0, len(types.SupportedFormats()))
		for _, f := range types.SupportedFormats() {
			formats = append(formats, string(f))
		}
		fmt.Fprintf(out, "%-12s %s\n", "inputs", "png, jpg, gif, bmp, tiff, webp, avif, heic, pdf")
		fmt.Fprintf(out, "%-12s %s\n", "outputs", strings.Join(formats, ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

// moduleVersion reports the version of a dependency compiled into the
// binary, or "unknown" when build info is missing.
func moduleVersion(path string) string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, dep := range bi.Deps {
		if dep.Path == path {
			return dep.Version
		}
	}
	return "unknown"
}
