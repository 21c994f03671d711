// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the ugc CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ugc/internal/observability"
	"github.com/pdiddy/ugc/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built from the log.* settings before any command runs.
var logger = zerolog.Nop()

// rootCmd is the base command for the ugc CLI.
var rootCmd = &cobra.Command{
	Use:   "ugc",
	Short: "Universal Graphics Converter",
	Long: `ugc converts images, HEIC photos and PDFs between png, jpg, webp, avif,
tiff and pdf.

Use convert to process local files, serve to run the HTTP conversion
service, and remote to send files to a running service.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger = observability.NewLogger(cfg.Log, os.Stderr)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./ugc.yaml or ~/.config/ugc/ugc.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: console or json")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	// A .env file is optional; its values become UGC_* environment variables.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "warning: reading .env:", err)
	}

	setDefaults(types.DefaultConfig())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ugc")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "ugc"))
		}
	}

	viper.SetEnvPrefix("UGC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every configuration key so environment variables
// and Unmarshal see it.
func setDefaults(d types.Config) {
	viper.SetDefault("convert.format", d.Convert.Format)
	viper.SetDefault("convert.output_dir", d.Convert.OutputDir)
	viper.SetDefault("convert.jpeg_quality", d.Convert.JPEGQuality)
	viper.SetDefault("convert.webp_quality", d.Convert.WebPQuality)
	viper.SetDefault("convert.avif_quality", d.Convert.AVIFQuality)
	viper.SetDefault("convert.render_scale", d.Convert.RenderScale)
	viper.SetDefault("convert.render_timeout", d.Convert.RenderTimeout)

	viper.SetDefault("ghostscript.binary", d.Ghostscript.Binary)
	viper.SetDefault("ghostscript.dpi", d.Ghostscript.DPI)

	viper.SetDefault("server.addr", d.Server.Addr)
	viper.SetDefault("server.upload_dir", d.Server.UploadDir)
	viper.SetDefault("server.download_dir", d.Server.DownloadDir)
	viper.SetDefault("server.catalog_path", d.Server.CatalogPath)
	viper.SetDefault("server.max_upload_bytes", d.Server.MaxUploadBytes)
	viper.SetDefault("server.retention", d.Server.Retention)
	viper.SetDefault("server.request_timeout", d.Server.RequestTimeout)

	viper.SetDefault("log.level", d.Log.Level)
	viper.SetDefault("log.format", d.Log.Format)
}

// loadConfig decodes the merged settings (flags, env, file, defaults).
func loadConfig() (types.Config, error) {
	var cfg types.Config
	err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	})
	if err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
