package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/choiway/photoguess/internal/config"
	"github.com/choiway/photoguess/internal/logger"
)

var (
	// Used for flags.
	logLevel  string
	logFormat string

	// Set by the root command before any subcommand runs.
	cfg *config.Config
	log *slog.Logger

	rootCmd = &cobra.Command{
		Use:   "photoguess",
		Short: "Two-player photo date and location guessing game",
		Long: `Photoguess turns a folder of your own photos into a two-player game.
Players take turns guessing when or where each photo was taken, scoring
more for the year, month and day (or country, state and city) they get right.

Build the photo manifest first, then serve the game:

  photoguess manifest public/photos
  photoguess serve
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load()
			if err != nil {
				return err
			}
			level := c.LogLevel
			if logLevel != "" {
				level = logger.ParseLevel(logLevel)
			}
			format := c.LogFormat
			if logFormat != "" {
				format = logFormat
			}
			cfg = c
			log = logger.Init(os.Stderr, level, format)
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default from LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "text or json (default from LOG_FORMAT)")
}

// Execute executes the root command. SIGINT and SIGTERM cancel the
// command's context.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return fmt.Errorf("photoguess: %w", err)
	}
	return nil
}
