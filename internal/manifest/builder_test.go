package manifest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/choiway/photoguess/internal/exifmeta"
	"github.com/choiway/photoguess/internal/photo"
)

type fakeGeocoder struct {
	mu      sync.Mutex
	calls   int
	results map[photo.GPS]*photo.Location
	onCall  func(n int)
}

func (g *fakeGeocoder) ReverseGeocode(_ context.Context, lat, lng float64) *photo.Location {
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.mu.Unlock()
	if g.onCall != nil {
		g.onCall(n)
	}
	return g.results[photo.GPS{Latitude: lat, Longitude: lng}]
}

type fakeExtractor struct {
	mu    sync.Mutex
	calls map[string]int
	data  map[string]*exifmeta.Metadata
}

func (e *fakeExtractor) Extract(path string) *exifmeta.Metadata {
	name := filepath.Base(path)
	e.mu.Lock()
	e.calls[name]++
	e.mu.Unlock()
	return e.data[name]
}

func (e *fakeExtractor) total() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.calls {
		n += c
	}
	return n
}

var (
	paris  = photo.GPS{Latitude: 48.8566, Longitude: 2.3522}
	lima   = photo.GPS{Latitude: -12.0464, Longitude: -77.0428}
	sydney = photo.GPS{Latitude: -33.8688, Longitude: 151.2093}
)

type fixture struct {
	dir     string
	cache   string
	geo     *fakeGeocoder
	ext     *fakeExtractor
	sleeps  []time.Duration
	builder *Builder
}

func newFixture(t *testing.T, files ...string) *fixture {
	t.Helper()

	dir := t.TempDir()
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("img"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	f := &fixture{
		dir:   dir,
		cache: filepath.Join(dir, ".manifest-cache.json"),
		geo: &fakeGeocoder{results: map[photo.GPS]*photo.Location{
			paris:  {Country: "France", State: "Île-de-France", City: "Paris"},
			sydney: {Country: "Australia", State: "New South Wales", City: "Sydney"},
		}},
		ext: &fakeExtractor{
			calls: map[string]int{},
			data: map[string]*exifmeta.Metadata{
				"a.jpg":  {Date: &photo.Date{Year: 2015, Month: 6, Day: 1}, GPS: &paris},
				"b.PNG":  {Date: &photo.Date{Year: 2009, Month: 12, Day: 24}},
				"d.heic": {GPS: &sydney},
			},
		},
	}

	b := NewBuilder(f.cache, f.geo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	b.Extract = f.ext.Extract
	b.Now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	b.Sleep = func(ctx context.Context, d time.Duration) error {
		f.sleeps = append(f.sleeps, d)
		return ctx.Err()
	}
	f.builder = b
	return f
}

func TestListImages(t *testing.T) {
	f := newFixture(t, "a.jpg", "b.PNG", "c.txt", ".hidden.jpg", "e.TIF", "f.jpeg")
	if err := os.Mkdir(filepath.Join(f.dir, "sub.jpg"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := ListImages(f.dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a.jpg", "b.PNG", "e.TIF", "f.jpeg"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ListImages = %v, want %v", got, want)
	}
}

func TestBuild(t *testing.T) {
	f := newFixture(t, "a.jpg", "b.PNG", "c.jpg", "d.heic", "notes.txt", ".hidden.jpg")

	m, err := f.builder.Build(context.Background(), f.dir, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if m.PhotoCount != 2 {
		t.Errorf("PhotoCount = %d, want 2", m.PhotoCount)
	}
	if m.LocationCount != 2 {
		t.Errorf("LocationCount = %d, want 2", m.LocationCount)
	}
	if _, ok := m.Photos["c.jpg"]; ok {
		t.Error("c.jpg has no metadata and should be skipped")
	}
	if got := m.Photos["a.jpg"].Location; got == nil || got.City != "Paris" {
		t.Errorf("a.jpg location = %+v", got)
	}
	if m.Photos["b.PNG"].Location != nil {
		t.Error("b.PNG has no gps and should have no location")
	}
	if f.geo.calls != 2 {
		t.Errorf("geocode calls = %d, want 2", f.geo.calls)
	}
	if len(f.sleeps) != 1 || f.sleeps[0] != 1100*time.Millisecond {
		t.Errorf("sleeps = %v, want one 1.1s pause between two calls", f.sleeps)
	}
	if m.Summary.Skipped != 1 || m.Summary.Scanned != 4 || m.Summary.Extracted != 4 {
		t.Errorf("summary = %+v", m.Summary)
	}

	raw, err := os.ReadFile(f.cache)
	if err != nil {
		t.Fatalf("cache not written: %v", err)
	}
	var onDisk struct {
		Files map[string]map[string]any `json:"files"`
	}
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		t.Fatal(err)
	}
	if len(onDisk.Files) != 4 {
		t.Fatalf("cache has %d entries, want one per scanned file", len(onDisk.Files))
	}
	if _, ok := onDisk.Files["c.jpg"]["mtime"]; !ok {
		t.Error("cache entry without metadata should still record mtime")
	}
}

func TestBuildCacheRoundTrip(t *testing.T) {
	f := newFixture(t, "a.jpg", "b.PNG", "c.jpg", "d.heic")

	first, err := f.builder.Build(context.Background(), f.dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	extractions, geocodes := f.ext.total(), f.geo.calls

	second, err := f.builder.Build(context.Background(), f.dir, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if f.geo.calls != geocodes {
		t.Errorf("second run made %d geocoding calls", f.geo.calls-geocodes)
	}
	if f.ext.total() != extractions {
		t.Errorf("second run re-extracted %d files", f.ext.total()-extractions)
	}
	if !reflect.DeepEqual(first.Photos, second.Photos) ||
		first.PhotoCount != second.PhotoCount ||
		first.LocationCount != second.LocationCount {
		t.Fatalf("manifests differ:\n%+v\n%+v", first, second)
	}
	if second.Summary.CacheHits != 4 {
		t.Errorf("CacheHits = %d, want 4", second.Summary.CacheHits)
	}
}

func TestBuildRetriesUnresolvedLocationOnCacheHit(t *testing.T) {
	f := newFixture(t, "lima.jpg")
	f.ext.data["lima.jpg"] = &exifmeta.Metadata{GPS: &lima}

	m, err := f.builder.Build(context.Background(), f.dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if m.LocationCount != 0 || m.Photos["lima.jpg"].Location != nil {
		t.Fatalf("failed geocode should leave location absent: %+v", m.Photos["lima.jpg"])
	}
	if f.geo.calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry within a run)", f.geo.calls)
	}

	f.geo.results[lima] = &photo.Location{Country: "Peru", State: "Lima", City: "Lima"}
	m, err = f.builder.Build(context.Background(), f.dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if f.ext.calls["lima.jpg"] != 1 {
		t.Errorf("cache hit should not re-extract")
	}
	if m.LocationCount != 1 || m.Photos["lima.jpg"].Location.Country != "Peru" {
		t.Fatalf("location not resolved on second run: %+v", m.Photos["lima.jpg"])
	}
}

func TestBuildModifiedFileDropsStaleLocation(t *testing.T) {
	f := newFixture(t, "a.jpg")
	if _, err := f.builder.Build(context.Background(), f.dir, Options{}); err != nil {
		t.Fatal(err)
	}

	// The photo was re-saved without GPS.
	f.ext.data["a.jpg"] = &exifmeta.Metadata{Date: &photo.Date{Year: 2015, Month: 6, Day: 1}}
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(f.dir, "a.jpg"), later, later); err != nil {
		t.Fatal(err)
	}

	m, err := f.builder.Build(context.Background(), f.dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if f.ext.calls["a.jpg"] != 2 {
		t.Errorf("modified file extracted %d times, want 2", f.ext.calls["a.jpg"])
	}
	if e := m.Photos["a.jpg"]; e.Location != nil || e.GPS != nil {
		t.Fatalf("stale gps/location kept: %+v", e)
	}
}

func TestBuildForceIgnoresCache(t *testing.T) {
	f := newFixture(t, "a.jpg", "b.PNG")
	if _, err := f.builder.Build(context.Background(), f.dir, Options{}); err != nil {
		t.Fatal(err)
	}

	m, err := f.builder.Build(context.Background(), f.dir, Options{Force: true})
	if err != nil {
		t.Fatal(err)
	}
	if f.ext.calls["a.jpg"] != 2 || f.ext.calls["b.PNG"] != 2 {
		t.Errorf("force should re-extract everything: %v", f.ext.calls)
	}
	if f.geo.calls != 2 {
		t.Errorf("force should re-geocode: calls = %d", f.geo.calls)
	}
	if m.Summary.CacheHits != 0 {
		t.Errorf("CacheHits = %d with force", m.Summary.CacheHits)
	}
}

func TestBuildCorruptCache(t *testing.T) {
	f := newFixture(t, "a.jpg")
	if err := os.WriteFile(f.cache, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := f.builder.Build(context.Background(), f.dir, Options{})
	if err != nil {
		t.Fatalf("corrupt cache must not fail the build: %v", err)
	}
	if m.PhotoCount != 1 {
		t.Errorf("PhotoCount = %d", m.PhotoCount)
	}
	if LoadCache(f.cache, f.builder.Logger).Files["a.jpg"].Date == nil {
		t.Error("cache should be rewritten after a corrupt read")
	}
}

func TestBuildMissingDirectory(t *testing.T) {
	f := newFixture(t)
	m, err := f.builder.Build(context.Background(), filepath.Join(f.dir, "nope"), Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.PhotoCount != 0 || m.LocationCount != 0 || len(m.Photos) != 0 || m.Photos == nil {
		t.Fatalf("expected empty manifest, got %+v", m)
	}
}

func TestBuildCancelledKeepsPreviousCache(t *testing.T) {
	f := newFixture(t, "a.jpg", "d.heic")
	if _, err := f.builder.Build(context.Background(), f.dir, Options{}); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(f.cache)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	f.geo.onCall = func(int) { cancel() }

	if _, err := f.builder.Build(ctx, f.dir, Options{Force: true}); err == nil {
		t.Fatal("expected cancellation error")
	}

	after, err := os.ReadFile(f.cache)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Fatal("cancelled build must not replace the cache")
	}
}

func TestStale(t *testing.T) {
	f := newFixture(t, "a.jpg", "b.PNG")
	if _, err := f.builder.Build(context.Background(), f.dir, Options{}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(f.dir, "new.jpg"), []byte("img"), 0644); err != nil {
		t.Fatal(err)
	}

	stale, err := f.builder.Stale(f.dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(stale, []string{"new.jpg"}) {
		t.Fatalf("Stale = %v", stale)
	}

	stale, err = f.builder.Stale(f.dir, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(stale) != 3 {
		t.Fatalf("forced Stale = %v", stale)
	}
}

func TestManifestWriteReadPhotoList(t *testing.T) {
	f := newFixture(t, "b.PNG", "a.jpg")
	m, err := f.builder.Build(context.Background(), f.dir, Options{})
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(f.dir, "manifest.json")
	if err := m.WriteFile(out); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"generatedAt", "photoCount", "locationCount", "photos"} {
		if _, ok := generic[key]; !ok {
			t.Errorf("manifest missing %q", key)
		}
	}
	if generic["generatedAt"] != "2024-01-02T03:04:05Z" {
		t.Errorf("generatedAt = %v", generic["generatedAt"])
	}

	back, err := Read(out)
	if err != nil {
		t.Fatal(err)
	}
	photos := back.PhotoList("/photos")
	if len(photos) != 2 || photos[0].ID != "a.jpg" || photos[1].ID != "b.PNG" {
		t.Fatalf("PhotoList = %+v", photos)
	}
	if photos[0].URL != "/photos/a.jpg" || photos[0].Location == nil {
		t.Fatalf("photo a = %+v", photos[0])
	}
}
