package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/choiway/photoguess/internal/config"
	"github.com/choiway/photoguess/internal/game"
	"github.com/choiway/photoguess/internal/manifest"
	"github.com/choiway/photoguess/internal/photo"
	"github.com/choiway/photoguess/internal/server"
	"github.com/choiway/photoguess/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the game over HTTP",
	Long: `Loads the photo manifest and serves the game API, the photos and
Prometheus metrics on HTTP_ADDR. The game in progress is saved to the
configured storage backend after every move and resumed on restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTPAddr = addr
		}
		return run(cmd.Context(), cfg, log)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default from HTTP_ADDR)")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	photos := loadPhotos(cfg, logger)

	g := game.New(nil)
	g.Logger = logger
	g.LoadPhotos(photos)
	logger.Info("photos loaded",
		"total", len(photos),
		"date_mode", g.EligibleCount(photo.ModeDate),
		"location_mode", g.EligibleCount(photo.ModeLocation),
	)

	// --- Storage ---
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening %s storage: %w", cfg.StorageBackend, err)
	}
	defer store.Close()
	logger.Info("connected to storage", "backend", cfg.StorageBackend)

	session := server.NewSession(ctx, g, store, logger)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, session, server.Options{
		PhotosDir: cfg.PhotosDir,
		Store:     store,
	})

	// --- Run ---
	eg, gctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	eg.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return eg.Wait()
}

// loadPhotos reads the manifest. A missing or unreadable manifest leaves
// the game with no photos rather than failing startup.
func loadPhotos(cfg *config.Config, logger *slog.Logger) []photo.Photo {
	m, err := manifest.Read(cfg.Manifest())
	if err != nil {
		logger.Warn("no usable manifest, run `photoguess manifest` first", "path", cfg.Manifest(), "error", err)
		return nil
	}
	return m.PhotoList("/photos")
}
