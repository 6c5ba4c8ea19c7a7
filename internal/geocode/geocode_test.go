package geocode

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/choiway/photoguess/internal/photo"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReverseGeocodeRequest(t *testing.T) {
	reqs := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs <- r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"address":{"country":"France","state":"Île-de-France","city":"Paris"}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-agent/1.0", time.Second, quietLogger())
	loc := c.ReverseGeocode(context.Background(), 48.8566, -2.5)

	if loc == nil || *loc != (photo.Location{Country: "France", State: "Île-de-France", City: "Paris"}) {
		t.Fatalf("location = %+v", loc)
	}

	got := <-reqs
	q := got.URL.Query()
	checks := map[string]string{
		"lat":            "48.8566",
		"lon":            "-2.5",
		"zoom":           "10",
		"addressdetails": "1",
		"format":         "json",
	}
	for k, want := range checks {
		if q.Get(k) != want {
			t.Errorf("query %s = %q, want %q", k, q.Get(k), want)
		}
	}
	if ua := got.Header.Get("User-Agent"); ua != "test-agent/1.0" {
		t.Errorf("User-Agent = %q", ua)
	}
}

func TestReverseGeocodeFallbacks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *photo.Location
	}{
		{
			name: "province and town",
			body: `{"address":{"country":"Canada","province":"Quebec","town":"Magog"}}`,
			want: &photo.Location{Country: "Canada", State: "Quebec", City: "Magog"},
		},
		{
			name: "region and village",
			body: `{"address":{"country":"Italy","region":"Umbria","village":"Spello","county":"Perugia"}}`,
			want: &photo.Location{Country: "Italy", State: "Umbria", City: "Spello"},
		},
		{
			name: "state wins over province",
			body: `{"address":{"country":"X","state":"S","province":"P","municipality":"M","county":"C"}}`,
			want: &photo.Location{Country: "X", State: "S", City: "M"},
		},
		{
			name: "county last",
			body: `{"address":{"country":"Ireland","county":"County Kerry"}}`,
			want: &photo.Location{Country: "Ireland", City: "County Kerry"},
		},
		{
			name: "no address",
			body: `{"error":"Unable to geocode"}`,
			want: nil,
		},
		{
			name: "empty address",
			body: `{"address":{}}`,
			want: nil,
		},
		{
			name: "malformed json",
			body: `{"address":`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			got := NewClient(srv.URL, "", time.Second, quietLogger()).ReverseGeocode(context.Background(), 1, 2)
			switch {
			case tt.want == nil && got != nil:
				t.Fatalf("got %+v, want nil", got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReverseGeocodeFailuresAreNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second, quietLogger())
	if loc := c.ReverseGeocode(context.Background(), 1, 2); loc != nil {
		t.Fatalf("429 should yield nil, got %+v", loc)
	}

	srv.Close()
	if loc := c.ReverseGeocode(context.Background(), 1, 2); loc != nil {
		t.Fatalf("closed server should yield nil, got %+v", loc)
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("", "", 0, nil)
	if c.baseURL != DefaultURL || c.userAgent != DefaultUserAgent {
		t.Fatalf("defaults not applied: %+v", c)
	}
}
