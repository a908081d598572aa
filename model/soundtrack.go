package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SoundtrackType string

const (
	SoundtrackMP3     SoundtrackType = "mp3"
	SoundtrackYouTube SoundtrackType = "youtube"
)

type Soundtrack struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Artist      string             `bson:"artist" json:"artist"`
	Type        SoundtrackType     `bson:"type" json:"type"`
	SrcURL      string             `bson:"src_url" json:"src_url"`
	IsDailyPick bool               `bson:"is_daily_pick" json:"is_daily_pick"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
