// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ugc/internal/catalog"
	"github.com/pdiddy/ugc/internal/ghostscript"
	"github.com/pdiddy/ugc/internal/raster"
	"github.com/pdiddy/ugc/internal/secrets"
	"github.com/pdiddy/ugc/internal/server"
	"github.com/pdiddy/ugc/internal/service"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP conversion service",
	Long: `Serve accepts multipart uploads on POST /api/convert, converts them into
the downloads directory and serves the results from
GET /api/download/{filename}. PDFs are rasterized with Ghostscript.

When .secrets/ugc-api-token exists (or --token is given) every /api
request must carry it as a bearer token. Converted files older than
server.retention are pruned at startup and then periodically.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :3000)")
	serveCmd.Flags().String("token", "", "require this bearer token on /api routes")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	for _, dir := range []string{cfg.Server.UploadDir, cfg.Server.DownloadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	flagToken, _ := cmd.Flags().GetString("token")
	token, err := secrets.APIToken(secrets.DefaultDir, flagToken)
	if err != nil {
		return err
	}

	store, err := catalog.NewStore(cfg.Server.CatalogPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gs := ghostscript.New(cfg.Ghostscript, logger)
	if v, err := gs.Version(ctx); err != nil {
		logger.Warn().Err(err).Msg("ghostscript unavailable, PDF uploads will fail")
	} else {
		logger.Info().Str("version", v).Msg("using ghostscript")
	}

	svc := service.New(service.Options{
		Rasterizer:  gs,
		Catalog:     store,
		DownloadDir: cfg.Server.DownloadDir,
		Encode:      raster.OptionsFromConfig(cfg.Convert),
		Logger:      logger,
	})

	srv := server.New(server.Config{
		UploadDir:      cfg.Server.UploadDir,
		DownloadDir:    cfg.Server.DownloadDir,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		RequestTimeout: cfg.Server.RequestTimeout,
		Token:          token,
	}, svc, store, logger)

	if cfg.Server.Retention > 0 {
		go pruneLoop(ctx, store, cfg.Server.Retention, logger)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Bool("auth", token != "").Msg("server running")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// pruneLoop removes expired downloads now and then every retention/4.
func pruneLoop(ctx context.Context, store *catalog.Store, retention time.Duration, log zerolog.Logger) {
	prune := func() {
		n, err := store.Prune(ctx, time.Now().Add(-retention))
		if err != nil {
			log.Error().Err(err).Msg("pruning downloads")
			return
		}
		if n > 0 {
			log.Info().Int("removed", n).Msg("pruned expired downloads")
		}
	}

	prune()
	ticker := time.NewTicker(max(retention/4, time.Minute))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}
