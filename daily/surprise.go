package daily

import "photo-vault/model"

// Origin tells how a daily item was chosen.
type Origin string

const (
	OriginManual Origin = "manual"
	OriginSeeded Origin = "seeded"
)

// Choose returns override when set, otherwise the item src picks from items.
// It returns nil when there is no override and items is empty.
func Choose[T any](override *T, items []T, src Source) (*T, Origin) {
	if override != nil {
		return override, OriginManual
	}
	item, _, err := Pick(items, src)
	if err != nil {
		return nil, ""
	}
	return &item, OriginSeeded
}

// Inputs is the state the daily surprise is derived from. Memories and
// Soundtracks must be in their stored list order.
type Inputs struct {
	Memories      []model.Memory
	Soundtracks   []model.Soundtrack
	PhotoOverride *model.Memory
	SongOverride  *model.Soundtrack
}

// Surprise is the photo and song shown for one day, with how each was chosen.
type Surprise struct {
	Date        string            `json:"date"`
	Photo       *model.Memory     `json:"photo,omitempty"`
	PhotoOrigin Origin            `json:"photo_origin,omitempty"`
	Song        *model.Soundtrack `json:"song,omitempty"`
	SongOrigin  Origin            `json:"song_origin,omitempty"`
}

// Resolve computes the photo and song for the day identified by key.
func Resolve(key string, in Inputs) Surprise {
	gens := PairForDate(key)
	s := Surprise{Date: key}
	s.Photo, s.PhotoOrigin = Choose(in.PhotoOverride, in.Memories, gens.Photo)
	s.Song, s.SongOrigin = Choose(in.SongOverride, in.Soundtracks, gens.Song)
	return s
}
