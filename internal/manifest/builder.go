package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/choiway/photoguess/internal/exifmeta"
	"github.com/choiway/photoguess/internal/game"
	"github.com/choiway/photoguess/internal/geocode"
	"github.com/choiway/photoguess/internal/metrics"
	"github.com/choiway/photoguess/internal/photo"
)

// SupportedExtensions are matched case-insensitively.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".heic", ".heif", ".tiff", ".tif"}

// Geocoder resolves a coordinate, returning nil when it can't.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, latitude, longitude float64) *photo.Location
}

// Options control a single build.
type Options struct {
	// Force ignores the previous cache entirely.
	Force bool
}

// Builder turns a directory of images into a Manifest.
type Builder struct {
	CachePath string
	Geocoder  Geocoder
	// Delay is the pause between consecutive geocoding calls. It encodes the
	// provider's usage policy, not a tuning knob.
	Delay   time.Duration
	Workers int
	Logger  *slog.Logger

	Extract func(path string) *exifmeta.Metadata
	Now     func() time.Time
	Sleep   func(ctx context.Context, d time.Duration) error
}

// NewBuilder returns a Builder with the default delay, extractor and clock.
func NewBuilder(cachePath string, geo Geocoder, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		CachePath: cachePath,
		Geocoder:  geo,
		Delay:     geocode.DefaultDelay,
		Workers:   4,
		Logger:    logger,
		Extract:   exifmeta.ExtractFile,
		Now:       time.Now,
		Sleep:     sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// ListImages returns the supported, non-hidden image files directly inside
// dir, sorted by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if IsSupported(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// IsSupported reports whether name has a supported image extension.
func IsSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

type scanned struct {
	name  string
	mtime float64
}

// Stale lists the files a build would re-extract: new files, files whose
// modification time changed, and everything when force is set.
func (b *Builder) Stale(dir string, force bool) ([]string, error) {
	files, err := b.scan(dir)
	if err != nil {
		return nil, err
	}

	prev := newCache()
	if !force {
		prev = LoadCache(b.CachePath, b.Logger)
	}

	var stale []string
	for _, f := range files {
		if cached, ok := prev.Files[f.name]; !ok || cached.MTime != f.mtime {
			stale = append(stale, f.name)
		}
	}
	return stale, nil
}

func (b *Builder) scan(dir string) ([]scanned, error) {
	names, err := ListImages(dir)
	if err != nil {
		return nil, err
	}

	files := make([]scanned, 0, len(names))
	for _, name := range names {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			b.Logger.Warn("skipping unreadable file", "file", name, "error", err)
			continue
		}
		files = append(files, scanned{name: name, mtime: modTime(info)})
	}
	return files, nil
}

// Build scans dir and returns the manifest. Per-file, geocoding and cache
// problems are logged and never fail the build; an unlistable directory
// yields an empty manifest. The only error is ctx being done, in which case
// the previous cache file is left untouched.
func (b *Builder) Build(ctx context.Context, dir string, opts Options) (*Manifest, error) {
	files, err := b.scan(dir)
	if err != nil {
		b.Logger.Warn("cannot list photo directory, emitting empty manifest", "dir", dir, "error", err)
		return empty(b.Now()), nil
	}

	prev := newCache()
	if !opts.Force {
		prev = LoadCache(b.CachePath, b.Logger)
	}

	next := newCache()
	var sum Summary
	sum.Scanned = len(files)

	var fresh []scanned
	for _, f := range files {
		cached, ok := prev.Files[f.name]
		if ok && cached.MTime == f.mtime {
			next.Files[f.name] = cached
			sum.CacheHits++
			metrics.ManifestFiles.WithLabelValues("cache_hit").Inc()
			continue
		}
		fresh = append(fresh, f)
	}

	extracted, err := b.extractAll(ctx, dir, fresh)
	if err != nil {
		return nil, err
	}
	for _, f := range fresh {
		// Any stale location is dropped with the old entry.
		e, _ := extracted.Get(f.name)
		next.Files[f.name] = e
		sum.Extracted++
		metrics.ManifestFiles.WithLabelValues("extracted").Inc()
	}

	var queue []string
	for _, f := range files {
		e := next.Files[f.name]
		if e.GPS != nil && e.Location == nil {
			queue = append(queue, f.name)
		}
	}

	if err := b.geocodeQueue(ctx, next, queue, &sum); err != nil {
		return nil, err
	}

	m := empty(b.Now())
	for _, f := range files {
		e := next.Files[f.name]
		if e.Date == nil && e.GPS == nil {
			sum.Skipped++
			metrics.ManifestFiles.WithLabelValues("skipped").Inc()
			continue
		}
		m.Photos[f.name] = Entry{Date: e.Date, GPS: e.GPS, Location: e.Location}
		if e.Date != nil {
			m.PhotoCount++
		}
		if e.Location != nil {
			m.LocationCount++
		}
	}
	m.Summary = sum

	if err := next.Save(b.CachePath); err != nil {
		b.Logger.Warn("saving metadata cache failed", "path", b.CachePath, "error", err)
	}

	b.report(m)
	return m, nil
}

func (b *Builder) extractAll(ctx context.Context, dir string, files []scanned) (*entryMap, error) {
	results := newEntryMap()

	workers := b.Workers
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			e := CacheEntry{MTime: f.mtime}
			if md := b.Extract(filepath.Join(dir, f.name)); md != nil {
				e.Date = md.Date
				e.GPS = md.GPS
			}
			results.Insert(f.name, e)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extracting metadata: %w", err)
	}
	return results, nil
}

// geocodeQueue resolves locations one at a time, pausing Delay between
// calls. A failed lookup is not retried in the same run.
func (b *Builder) geocodeQueue(ctx context.Context, c *Cache, queue []string, sum *Summary) error {
	if len(queue) == 0 || b.Geocoder == nil {
		return nil
	}

	b.Logger.Info("geocoding photo locations", "count", len(queue))

	for i, name := range queue {
		if err := ctx.Err(); err != nil {
			return err
		}

		e := c.Files[name]
		loc := b.Geocoder.ReverseGeocode(ctx, e.GPS.Latitude, e.GPS.Longitude)
		if loc != nil {
			e.Location = loc
			c.Files[name] = e
			sum.Geocoded++
			b.Logger.Debug("geocoded photo", "file", name, "location", loc.String())
		} else {
			sum.GeocodeFailed++
		}

		if i < len(queue)-1 {
			if err := b.Sleep(ctx, b.Delay); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Builder) report(m *Manifest) {
	s := m.Summary
	b.Logger.Info("photo manifest built",
		"dated", m.PhotoCount,
		"located", m.LocationCount,
		"scanned", s.Scanned,
		"cached", s.CacheHits,
		"skipped", s.Skipped,
		"geocode_failed", s.GeocodeFailed,
	)

	if m.PhotoCount > 0 && m.PhotoCount < game.MinPhotosToStart {
		b.Logger.Warn(fmt.Sprintf("need at least %d photos with dates for date mode", game.MinPhotosToStart), "have", m.PhotoCount)
	}
	if m.LocationCount > 0 && m.LocationCount < game.MinPhotosToStart {
		b.Logger.Warn(fmt.Sprintf("need at least %d photos with locations for location mode", game.MinPhotosToStart), "have", m.LocationCount)
	}
}
