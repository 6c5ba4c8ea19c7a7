// Package exifmeta reads capture dates and GPS coordinates from the EXIF
// block embedded in an image.
package exifmeta

import (
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/choiway/photoguess/internal/photo"
)

func init() {
	// Optionally register camera makenote data parsing - currently Nikon and
	// Canon are supported.
	exif.RegisterParsers(mknote.All...)
}

// Metadata is whatever could be recovered from an image. Either field may be
// nil, but Extract never returns a Metadata with both nil.
type Metadata struct {
	Date *photo.Date `json:"date,omitempty" yaml:"date,omitempty"`
	GPS  *photo.GPS  `json:"gps,omitempty" yaml:"gps,omitempty"`
}

// dateFields are tried in order; the first parseable value wins.
var dateFields = []exif.FieldName{
	exif.DateTimeOriginal,
	exif.DateTimeDigitized,
	exif.DateTime,
}

var dateLayouts = []string{
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006:01:02 15:04",
	"2006:01:02",
	"2006-01-02",
}

type tagSource interface {
	Get(exif.FieldName) (*tiff.Tag, error)
}

// ExtractFile opens path and extracts its metadata. It returns nil if the
// file can't be read or carries neither a date nor a coordinate.
func ExtractFile(path string) *Metadata {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	return Extract(f)
}

// Extract decodes the EXIF block in r. Decoding problems are never returned:
// a missing or corrupt field is simply absent and a file with nothing
// usable yields nil.
func Extract(r io.Reader) (md *Metadata) {
	defer func() {
		// goexif panics on some truncated maker notes.
		if recover() != nil {
			md = nil
		}
	}()

	// A sub-directory parse error still returns the tags read so far.
	x, _ := exif.Decode(r)
	if x == nil {
		return nil
	}

	return fromTags(x)
}

func fromTags(x tagSource) *Metadata {
	md := &Metadata{
		Date: dateFrom(x),
		GPS:  gpsFrom(x),
	}
	if md.Date == nil && md.GPS == nil {
		return nil
	}
	return md
}

func dateFrom(x tagSource) *photo.Date {
	for _, field := range dateFields {
		s, ok := tagString(x, field)
		if !ok {
			continue
		}
		if d := ParseDate(s); d != nil {
			return d
		}
	}
	return nil
}

// ParseDate parses an EXIF date string such as "2019:07:04 18:30:00". It
// returns nil for blank or impossible dates ("0000:00:00 00:00:00",
// "2021:02:30 ...").
func ParseDate(s string) *photo.Date {
	s = strings.TrimSpace(strings.Trim(s, "\x00"))
	if len(s) > 19 {
		// sub-seconds and zone offsets don't change the calendar day
		s = s[:19]
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		d := photo.FromTime(t)
		return &d
	}
	return nil
}

func gpsFrom(x tagSource) *photo.GPS {
	lat, ok := coordinate(x, exif.GPSLatitude, exif.GPSLatitudeRef)
	if !ok {
		return nil
	}
	lng, ok := coordinate(x, exif.GPSLongitude, exif.GPSLongitudeRef)
	if !ok {
		return nil
	}
	return &photo.GPS{Latitude: lat, Longitude: lng}
}

func coordinate(x tagSource, valueField, refField exif.FieldName) (float64, bool) {
	tag, err := x.Get(valueField)
	if err != nil || tag.Count == 0 {
		return 0, false
	}

	var dms [3]float64
	for i := 0; i < int(tag.Count) && i < len(dms); i++ {
		num, den, err := tag.Rat2(i)
		if err != nil {
			return 0, false
		}
		if den == 0 {
			if i == 0 {
				return 0, false
			}
			continue
		}
		dms[i] = float64(num) / float64(den)
	}

	ref, _ := tagString(x, refField)
	v := SignedDegrees(dms[0], dms[1], dms[2], ref)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// SignedDegrees converts degrees, minutes and seconds to decimal degrees,
// negated for the "S" and "W" hemisphere references.
func SignedDegrees(deg, min, sec float64, ref string) float64 {
	v := deg + min/60 + sec/3600

	switch strings.ToUpper(strings.TrimSpace(ref)) {
	case "S", "W":
		return -math.Abs(v)
	case "N", "E":
		return math.Abs(v)
	}
	return v
}

func tagString(x tagSource, field exif.FieldName) (string, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return "", false
	}
	s, err := tag.StringVal()
	if err != nil {
		return "", false
	}
	return s, true
}
