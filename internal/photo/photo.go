// Package photo holds the photo records the game is played against.
package photo

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects what players guess about a photo.
type Mode string

const (
	ModeDate     Mode = "date"
	ModeLocation Mode = "location"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeDate || m == ModeLocation
}

// Date is the calendar day a photo was taken.
type Date struct {
	Year  int `json:"year" yaml:"year"`
	Month int `json:"month" yaml:"month"`
	Day   int `json:"day" yaml:"day"`
}

// FromTime returns the calendar date of t in its own location.
func FromTime(t time.Time) Date {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

func (d Date) String() string {
	if d.Month < 1 || d.Month > 12 {
		return ""
	}
	return fmt.Sprintf("%s %d, %d", time.Month(d.Month), d.Day, d.Year)
}

// GPS is a coordinate in signed decimal degrees. Southern latitudes and
// western longitudes are negative.
type GPS struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Location is a reverse geocoded address. Any part may be empty.
type Location struct {
	Country string `json:"country,omitempty" yaml:"country,omitempty"`
	State   string `json:"state,omitempty" yaml:"state,omitempty"`
	City    string `json:"city,omitempty" yaml:"city,omitempty"`
}

func (l Location) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.City, l.State, l.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Photo is one playable image. ID is the source filename for photos coming
// from a manifest.
type Photo struct {
	ID       string    `json:"id"`
	URL      string    `json:"url,omitempty"`
	Date     *Date     `json:"date,omitempty"`
	Location *Location `json:"location,omitempty"`
	GPS      *GPS      `json:"gps,omitempty"`
}

// Eligible reports whether p can be played in mode m.
func (p Photo) Eligible(m Mode) bool {
	switch m {
	case ModeDate:
		return p.Date != nil
	case ModeLocation:
		return p.Location != nil && p.Location.Country != ""
	}
	return false
}

// Filter returns the photos eligible for m, keeping their order.
func Filter(photos []Photo, m Mode) []Photo {
	var out []Photo
	for _, p := range photos {
		if p.Eligible(m) {
			out = append(out, p)
		}
	}
	return out
}

// DaysInMonth returns the number of days in month of year. Month is 1-based.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
