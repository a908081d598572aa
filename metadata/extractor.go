package metadata

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"photo-vault/model"
)

// Geocoder resolves coordinates to a place label. It reports absence
// instead of failing.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, bool)
}

var dateLayouts = []string{
	"2006:01:02 15:04:05",
	"2006:01:02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Extractor turns image bytes into PhotoMetadata.
type Extractor struct {
	parser   Parser
	geocoder Geocoder
	location *time.Location
	logger   *zap.Logger
}

type Option func(*Extractor)

// WithLocation sets the zone used for EXIF timestamps, which carry no offset.
func WithLocation(loc *time.Location) Option {
	return func(e *Extractor) {
		if loc != nil {
			e.location = loc
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor returns an Extractor. A nil geocoder disables place lookup.
func NewExtractor(parser Parser, geocoder Geocoder, opts ...Option) *Extractor {
	if parser == nil {
		parser = ExifParser{}
	}
	e := &Extractor{
		parser:   parser,
		geocoder: geocoder,
		location: time.UTC,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("component", "metadata"))
	return e
}

// Extract reads the capture date and coordinates from data and, when both
// coordinates are present, looks up the place name. A missing or broken
// metadata block yields an empty result.
func (e *Extractor) Extract(ctx context.Context, data []byte) model.PhotoMetadata {
	var meta model.PhotoMetadata

	tags, err := e.parser.Parse(data)
	if err != nil || tags == nil {
		if err != nil {
			e.logger.Debug("no embedded metadata", zap.Error(err))
		}
		return meta
	}

	if ts, ok := e.captureDate(tags); ok {
		meta.CaptureDate = &ts
	}

	lat, lon, ok := Coordinates(tags)
	if !ok {
		return meta
	}
	meta.Latitude = &lat
	meta.Longitude = &lon

	if e.geocoder != nil {
		if place, ok := e.geocoder.ReverseGeocode(ctx, lat, lon); ok {
			meta.PlaceName = &place
		}
	}
	return meta
}

// captureDate prefers DateTimeOriginal and falls back to CreateDate.
func (e *Extractor) captureDate(tags *Tags) (time.Time, bool) {
	for _, raw := range []string{tags.DateTimeOriginal, tags.CreateDate} {
		if ts, ok := parseDate(raw, e.location); ok {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseDate(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Coordinates returns signed decimal degrees. Each axis prefers the decoded
// value and falls back to the raw degree fields with their reference.
func Coordinates(tags *Tags) (lat, lon float64, ok bool) {
	lat, latOK := axis(tags.Latitude, tags.GPSLatitude, tags.GPSLatitudeRef, "S", 90)
	lon, lonOK := axis(tags.Longitude, tags.GPSLongitude, tags.GPSLongitudeRef, "W", 180)
	if !latOK || !lonOK {
		return 0, 0, false
	}
	return lat, lon, true
}

func axis(decoded *float64, dms []float64, ref, negative string, limit float64) (float64, bool) {
	var v float64
	switch {
	case decoded != nil:
		v = *decoded
	case len(dms) > 0:
		v = DMSToDecimal(dms)
		if strings.EqualFold(strings.TrimSpace(ref), negative) {
			v = -v
		}
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > limit {
		return 0, false
	}
	return v, true
}

// DMSToDecimal converts a degree, minute, second slice to decimal degrees.
// Missing trailing components count as zero.
func DMSToDecimal(dms []float64) float64 {
	var v float64
	for i, div := range []float64{1, 60, 3600} {
		if i >= len(dms) {
			break
		}
		v += dms[i] / div
	}
	return v
}
