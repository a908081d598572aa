package metadata

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// Tags holds the raw values of the fields the extractor reads. Empty
// strings and nil slices mean the tag was not present.
type Tags struct {
	DateTimeOriginal string
	CreateDate       string

	// Latitude and Longitude are already decoded to signed decimal degrees.
	Latitude  *float64
	Longitude *float64

	// GPSLatitude and GPSLongitude are degree, minute, second triples as stored.
	GPSLatitude     []float64
	GPSLatitudeRef  string
	GPSLongitude    []float64
	GPSLongitudeRef string
}

// Parser reads embedded metadata from image bytes. It returns an error when
// no metadata block can be decoded.
type Parser interface {
	Parse(data []byte) (*Tags, error)
}

// ExifParser decodes EXIF blocks from JPEG and TIFF content.
type ExifParser struct{}

var _ Parser = ExifParser{}

func (ExifParser) Parse(data []byte) (tags *Tags, err error) {
	defer func() {
		if r := recover(); r != nil {
			tags, err = nil, fmt.Errorf("exif: decoder panic: %v", r)
		}
	}()

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		// sub-IFD errors still leave the main directory usable
		if x == nil || exif.IsCriticalError(err) {
			return nil, err
		}
	}

	tags = &Tags{
		DateTimeOriginal: stringTag(x, exif.DateTimeOriginal),
		CreateDate:       stringTag(x, exif.DateTimeDigitized),
		GPSLatitude:      ratTag(x, exif.GPSLatitude),
		GPSLatitudeRef:   stringTag(x, exif.GPSLatitudeRef),
		GPSLongitude:     ratTag(x, exif.GPSLongitude),
		GPSLongitudeRef:  stringTag(x, exif.GPSLongitudeRef),
	}
	if lat, long, err := x.LatLong(); err == nil {
		tags.Latitude = &lat
		tags.Longitude = &long
	}
	return tags, nil
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil || tag.Format() != tiff.StringVal {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

func ratTag(x *exif.Exif, name exif.FieldName) []float64 {
	tag, err := x.Get(name)
	if err != nil || tag.Format() != tiff.RatVal {
		return nil
	}
	vals := make([]float64, 0, tag.Count)
	for i := 0; i < int(tag.Count); i++ {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return nil
		}
		vals = append(vals, float64(num)/float64(den))
	}
	return vals
}
