package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Memory struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Caption       string             `bson:"caption" json:"caption"`
	FilePath      string             `bson:"file_path" json:"file_path"`
	ThumbnailPath string             `bson:"thumbnail_path,omitempty" json:"thumbnail_path,omitempty"`
	ContentType   string             `bson:"content_type" json:"content_type"`
	Size          int64              `bson:"size" json:"size"`
	Landscape     bool               `bson:"landscape" json:"landscape"`
	IsDailyPick   bool               `bson:"is_daily_pick" json:"is_daily_pick"`
	IsFavorite    bool               `bson:"is_favorite" json:"is_favorite"`
	PhotoDate     *time.Time         `bson:"photo_date,omitempty" json:"photo_date,omitempty"`
	PhotoLocation string             `bson:"photo_location,omitempty" json:"photo_location,omitempty"`
	LonLat        *GeoPoint          `bson:"lonlat,omitempty" json:"lonlat,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

// PhotoDay returns the YYYY-MM-DD part of the photo date in UTC, or "" if unknown.
func (m Memory) PhotoDay() string {
	if m.PhotoDate == nil {
		return ""
	}
	return m.PhotoDate.UTC().Format("2006-01-02")
}

type GeoPoint struct {
	Type        string    `bson:"type,omitempty" json:"type,omitempty"`
	Coordinates []float64 `bson:"coordinates,omitempty" json:"coordinates,omitempty"` // [longitude, latitude]
}

func NewGeoPoint(lat, long float64) *GeoPoint {
	return &GeoPoint{
		Type:        "Point",
		Coordinates: []float64{long, lat},
	}
}
