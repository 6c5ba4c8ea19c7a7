// Package geocode resolves coordinates to a country, state and city using a
// Nominatim compatible reverse geocoding endpoint.
//
// The client does not throttle. Nominatim allows one request per second per
// client, so callers must space calls at least DefaultDelay apart.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/choiway/photoguess/internal/metrics"
	"github.com/choiway/photoguess/internal/photo"
)

const (
	DefaultURL       = "https://nominatim.openstreetmap.org/reverse"
	DefaultUserAgent = "PhotoDateGuessingGame/1.0 (personal project)"
	DefaultDelay     = 1100 * time.Millisecond

	zoomLevel = "10"
)

// Client is a reverse geocoding client.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for baseURL that identifies itself with
// userAgent on every request.
func NewClient(baseURL, userAgent string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		logger:    logger,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// address is the subset of Nominatim's addressdetails we map.
type address struct {
	Country      string `json:"country"`
	State        string `json:"state"`
	Province     string `json:"province"`
	Region       string `json:"region"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	County       string `json:"county"`
}

type reverseResponse struct {
	Address *address `json:"address"`
	Error   string   `json:"error"`
}

// ReverseGeocode performs one lookup. Any transport error, non-2xx status or
// malformed payload is logged and reported as nil.
func (c *Client) ReverseGeocode(ctx context.Context, latitude, longitude float64) *photo.Location {
	loc, err := c.reverse(ctx, latitude, longitude)
	if err != nil {
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
		c.logger.Warn("reverse geocoding failed", "lat", latitude, "lng", longitude, "error", err)
		return nil
	}
	if loc == nil {
		metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return nil
	}

	metrics.GeocodeRequests.WithLabelValues("ok").Inc()
	return loc
}

func (c *Client) reverse(ctx context.Context, latitude, longitude float64) (*photo.Location, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(longitude, 'f', -1, 64))
	q.Set("zoom", zoomLevel)
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	var data reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if data.Error != "" {
		return nil, fmt.Errorf("API error: %s", data.Error)
	}
	if data.Address == nil {
		return nil, nil
	}

	return data.Address.location(), nil
}

// location applies the fallback order for each part. It returns nil when
// nothing usable came back.
func (a *address) location() *photo.Location {
	loc := &photo.Location{
		Country: a.Country,
		State:   firstOf(a.State, a.Province, a.Region),
		City:    firstOf(a.City, a.Town, a.Village, a.Municipality, a.County),
	}
	if *loc == (photo.Location{}) {
		return nil
	}
	return loc
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
