package model

import "time"

// PhotoMetadata is what could be read from a photo's embedded EXIF block.
// Every field is optional; PlaceName is only set when both coordinates are.
type PhotoMetadata struct {
	CaptureDate *time.Time `json:"capture_date,omitempty"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	PlaceName   *string    `json:"place_name,omitempty"`
}

// Empty reports whether nothing was extracted.
func (m PhotoMetadata) Empty() bool {
	return m.CaptureDate == nil && m.Latitude == nil && m.Longitude == nil && m.PlaceName == nil
}

// HasCoordinates reports whether both latitude and longitude are present.
func (m PhotoMetadata) HasCoordinates() bool {
	return m.Latitude != nil && m.Longitude != nil
}

// ISODate renders CaptureDate as an RFC 3339 UTC timestamp, or "" when absent.
func (m PhotoMetadata) ISODate() string {
	if m.CaptureDate == nil {
		return ""
	}
	return m.CaptureDate.UTC().Format(time.RFC3339)
}
