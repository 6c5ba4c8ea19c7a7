// Package manifest scans a photo directory into a manifest of dates,
// coordinates and reverse geocoded locations, caching per-file results
// between runs.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"sort"
	"time"

	"github.com/choiway/photoguess/internal/photo"
)

// Entry is the manifest record for one file.
type Entry struct {
	Date     *photo.Date     `json:"date,omitempty"`
	GPS      *photo.GPS      `json:"gps,omitempty"`
	Location *photo.Location `json:"location,omitempty"`
}

// Manifest is the consolidated output of a build.
type Manifest struct {
	GeneratedAt   time.Time        `json:"generatedAt"`
	PhotoCount    int              `json:"photoCount"`
	LocationCount int              `json:"locationCount"`
	Photos        map[string]Entry `json:"photos"`

	Summary Summary `json:"-"`
}

// Summary counts what happened during a build.
type Summary struct {
	Scanned       int
	CacheHits     int
	Extracted     int
	Skipped       int
	Geocoded      int
	GeocodeFailed int
}

func empty(now time.Time) *Manifest {
	return &Manifest{
		GeneratedAt: now.UTC(),
		Photos:      make(map[string]Entry),
	}
}

// WriteFile writes m as indented JSON, replacing path in one step.
func (m *Manifest) WriteFile(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return writeFileAtomic(path, append(data, '\n'))
}

// Read loads a manifest written by WriteFile.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest %s: %w", path, err)
	}
	if m.Photos == nil {
		m.Photos = make(map[string]Entry)
	}
	return &m, nil
}

// PhotoList converts the manifest to game photos ordered by filename. IDs are
// filenames; URLs are the filename under urlPrefix when one is given.
func (m *Manifest) PhotoList(urlPrefix string) []photo.Photo {
	names := make([]string, 0, len(m.Photos))
	for name := range m.Photos {
		names = append(names, name)
	}
	sort.Strings(names)

	photos := make([]photo.Photo, 0, len(names))
	for _, name := range names {
		e := m.Photos[name]
		p := photo.Photo{
			ID:       name,
			Date:     e.Date,
			GPS:      e.GPS,
			Location: e.Location,
		}
		if urlPrefix != "" {
			p.URL = path.Join(urlPrefix, name)
		}
		photos = append(photos, p)
	}
	return photos
}
