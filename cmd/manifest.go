/*
Copyright © 2021 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/choiway/photoguess/internal/config"
	"github.com/choiway/photoguess/internal/geocode"
	"github.com/choiway/photoguess/internal/manifest"
)

type manifestOptions struct {
	dir     string
	out     string
	cache   string
	force   bool
	dryrun  bool
	delay   time.Duration
	workers int
}

// manifestCmd represents the manifest command
var manifestCmd = &cobra.Command{
	Use:   "manifest [photos dir]",
	Short: "Builds the photo manifest the game plays from",
	Long: `Reads the capture date and GPS position of every photo in a directory,
looks up the country, state and city for each position and writes the
result to manifest.json.

photoguess manifest public/photos

Results are cached per file by modification time, so only new or changed
photos are read again and locations are only looked up once. Lookups are
spaced at least 1.1 seconds apart to respect the geocoding service's
usage policy.

The command always exits 0. Unreadable photos, failed lookups and a missing
directory are logged and leave the affected photos out of the manifest.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := manifestOptions{dir: cfg.PhotosDir}
		if len(args) > 0 {
			opts.dir = args[0]
		}

		opts.force, _ = cmd.Flags().GetBool("force")
		opts.dryrun, _ = cmd.Flags().GetBool("dryrun")
		opts.out, _ = cmd.Flags().GetString("out")
		opts.cache, _ = cmd.Flags().GetString("cache")

		opts.delay = cfg.GeocodeDelay
		if cmd.Flags().Changed("delay") {
			opts.delay, _ = cmd.Flags().GetDuration("delay")
		}
		opts.workers = cfg.ExtractWorkers
		if cmd.Flags().Changed("workers") {
			opts.workers, _ = cmd.Flags().GetInt("workers")
		}

		geo := geocode.NewClient(cfg.GeocodeURL, cfg.GeocodeUserAgent, cfg.GeocodeTimeout, log)

		if err := runManifest(cmd.Context(), cfg, opts, geo, log, cmd.OutOrStdout()); err != nil {
			log.Error("manifest not written", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(manifestCmd)

	manifestCmd.Flags().BoolP("force", "f", false, "Ignore the metadata cache and re-read every photo")
	manifestCmd.Flags().BoolP("dryrun", "d", false, "List the photos that would be read without reading them")
	manifestCmd.Flags().Duration("delay", geocode.DefaultDelay, "Pause between geocoding requests (default from GEOCODE_DELAY)")
	manifestCmd.Flags().Int("workers", 4, "Photos read in parallel (default from EXTRACT_WORKERS)")
	manifestCmd.Flags().StringP("out", "o", "", "Manifest path (default <dir>/manifest.json)")
	manifestCmd.Flags().String("cache", "", "Cache path (default <dir>/.manifest-cache.json)")
}

// runManifest builds and writes the manifest for opts.dir. Paths not given
// in opts come from cfg when it names them, else they sit inside opts.dir.
func runManifest(ctx context.Context, cfg *config.Config, opts manifestOptions, geo manifest.Geocoder, logger *slog.Logger, w io.Writer) error {
	paths := *cfg
	paths.PhotosDir = opts.dir

	out := opts.out
	if out == "" {
		out = paths.Manifest()
	}
	cachePath := opts.cache
	if cachePath == "" {
		cachePath = paths.Cache()
	}

	b := manifest.NewBuilder(cachePath, geo, logger)
	b.Delay = opts.delay
	b.Workers = opts.workers

	if opts.dryrun {
		logger.Info("doing dry run", "dir", opts.dir)
		stale, err := b.Stale(opts.dir, opts.force)
		if err != nil {
			return fmt.Errorf("listing %s: %w", opts.dir, err)
		}
		for _, name := range stale {
			fmt.Fprintf(w, "New: %s\n", name)
		}
		fmt.Fprintf(w, "%d photos to read\n", len(stale))
		return nil
	}

	m, err := b.Build(ctx, opts.dir, manifest.Options{Force: opts.force})
	if err != nil {
		return err
	}
	if err := m.WriteFile(out); err != nil {
		return err
	}

	s := m.Summary
	fmt.Fprintf(w, "Wrote %s: %d photos with dates, %d with locations (%d scanned, %d cached, %d skipped)\n",
		out, m.PhotoCount, m.LocationCount, s.Scanned, s.CacheHits, s.Skipped)
	return nil
}
