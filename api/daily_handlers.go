package api

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"photo-vault/daily"
	"photo-vault/model"
	"photo-vault/storage"
)

var errBadDate = errors.New("date must be YYYY-MM-DD")

type SurpriseResponse struct {
	Date        string            `json:"date"`
	Photo       *PhotoResponse    `json:"photo,omitempty"`
	PhotoOrigin daily.Origin      `json:"photo_origin,omitempty"`
	Song        *model.Soundtrack `json:"song,omitempty"`
	SongOrigin  daily.Origin      `json:"song_origin,omitempty"`
}

// dateKey is today's key in the pinned zone, or the ?date= override.
func (h *Handlers) dateKey(r *http.Request) (string, error) {
	if raw := r.URL.Query().Get("date"); raw != "" {
		if _, err := time.Parse(daily.DateLayout, raw); err != nil {
			return "", errBadDate
		}
		return raw, nil
	}
	return daily.DateKey(h.now(), h.DailyZone), nil
}

// handleDaily returns the photo and song for the day. A manual pick wins;
// otherwise both are derived from the date key.
func (h *Handlers) handleDaily(w http.ResponseWriter, r *http.Request) {
	key, err := h.dateKey(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	var in daily.Inputs
	if in.PhotoOverride, err = h.Photos.DailyPick(ctx); err != nil {
		h.storageError(w, err, "failed to load daily photo")
		return
	}
	if in.SongOverride, err = h.Songs.DailyPick(ctx); err != nil {
		h.storageError(w, err, "failed to load daily song")
		return
	}
	if in.PhotoOverride == nil {
		if in.Memories, err = h.Photos.ListPhotos(ctx, storage.PhotoFilter{}); err != nil {
			h.storageError(w, err, "failed to list photos")
			return
		}
	}
	if in.SongOverride == nil {
		if in.Soundtracks, err = h.Songs.ListSoundtracks(ctx); err != nil {
			h.storageError(w, err, "failed to list soundtracks")
			return
		}
	}

	s := daily.Resolve(key, in)
	resp := SurpriseResponse{Date: s.Date, PhotoOrigin: s.PhotoOrigin, Song: s.Song, SongOrigin: s.SongOrigin}
	if s.Photo != nil {
		p := photoResponse(*s.Photo)
		resp.Photo = &p
	}
	h.Log.Debug("daily surprise resolved",
		zap.String("date", key),
		zap.String("photo_origin", string(s.PhotoOrigin)),
		zap.String("song_origin", string(s.SongOrigin)),
	)
	writeJSON(w, http.StatusOK, resp)
}
