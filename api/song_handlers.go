package api

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"photo-vault/model"
	"photo-vault/youtube"
)

type AddSoundtrackRequest struct {
	URL    string `json:"url"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Daily  bool   `json:"daily"`
}

type SoundtrackResult struct {
	Soundtrack       model.Soundtrack `json:"soundtrack"`
	DuplicateWarning string           `json:"duplicate_warning,omitempty"`
}

func (h *Handlers) handleListSoundtracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.Songs.ListSoundtracks(r.Context())
	if err != nil {
		h.storageError(w, err, "failed to list soundtracks")
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// handleAddSoundtrack accepts a JSON body for YouTube links and a multipart
// form for mp3 uploads.
func (h *Handlers) handleAddSoundtrack(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		track *model.Soundtrack
		ok    bool
	)
	if mediaType == "multipart/form-data" {
		track, ok = h.soundtrackFromUpload(w, r)
	} else {
		track, ok = h.soundtrackFromLink(w, r)
	}
	if !ok {
		return
	}

	existing, err := h.Songs.ListSoundtracks(r.Context())
	if err != nil {
		h.storageError(w, err, "failed to list soundtracks")
		return
	}
	warning := soundtrackDuplicate(*track, existing)

	if err := h.Songs.SaveSoundtrack(r.Context(), track); err != nil {
		h.Log.Error("failed to save soundtrack", zap.String("title", track.Title), zap.Error(err))
		if track.Type == model.SoundtrackMP3 {
			_ = h.Files.DeleteFiles(strings.TrimPrefix(track.SrcURL, filesPrefix))
		}
		http.Error(w, "Failed to save soundtrack", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, SoundtrackResult{Soundtrack: *track, DuplicateWarning: warning})
}

func (h *Handlers) soundtrackFromLink(w http.ResponseWriter, r *http.Request) (*model.Soundtrack, bool) {
	var req AddSoundtrackRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return nil, false
	}
	videoID, err := youtube.ExtractID(req.URL)
	if err != nil {
		http.Error(w, "Invalid YouTube URL", http.StatusBadRequest)
		return nil, false
	}

	title, artist := strings.TrimSpace(req.Title), strings.TrimSpace(req.Artist)
	if title == "" && artist == "" && h.Videos != nil {
		info, err := h.Videos.Lookup(r.Context(), videoID)
		if err != nil {
			h.Log.Warn("youtube metadata lookup failed", zap.String("video_id", videoID), zap.Error(err))
		} else {
			title, artist = strings.TrimSpace(info.Title), strings.TrimSpace(info.AuthorName)
		}
	}
	if title == "" {
		http.Error(w, "Please add a song title", http.StatusBadRequest)
		return nil, false
	}

	return &model.Soundtrack{
		Title:       title,
		Artist:      artist,
		Type:        model.SoundtrackYouTube,
		SrcURL:      strings.TrimSpace(req.URL),
		IsDailyPick: req.Daily,
	}, true
}

func (h *Handlers) soundtrackFromUpload(w http.ResponseWriter, r *http.Request) (*model.Soundtrack, bool) {
	headers, ok := h.readUpload(w, r, "file")
	if !ok {
		return nil, false
	}
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		http.Error(w, "Please add a song title", http.StatusBadRequest)
		return nil, false
	}
	data, err := readPart(headers[0])
	if err != nil {
		http.Error(w, "Error opening file", http.StatusBadRequest)
		return nil, false
	}
	stored, err := h.Files.SaveAudio(headers[0].Filename, data)
	if err != nil {
		h.Log.Error("failed to store audio", zap.String("filename", headers[0].Filename), zap.Error(err))
		http.Error(w, "Failed to store audio", http.StatusInternalServerError)
		return nil, false
	}
	daily, _ := strconv.ParseBool(r.FormValue("daily"))
	return &model.Soundtrack{
		Title:       title,
		Artist:      strings.TrimSpace(r.FormValue("artist")),
		Type:        model.SoundtrackMP3,
		SrcURL:      fileURL(stored.FilePath),
		IsDailyPick: daily,
	}, true
}

// soundtrackDuplicate warns about the same YouTube video or a similar title.
func soundtrackDuplicate(track model.Soundtrack, existing []model.Soundtrack) string {
	if track.Type == model.SoundtrackYouTube {
		id, _ := youtube.ExtractID(track.SrcURL)
		for _, s := range existing {
			if s.Type != model.SoundtrackYouTube {
				continue
			}
			if other, err := youtube.ExtractID(s.SrcURL); err == nil && other == id {
				return fmt.Sprintf("This song is already in the vault: %q by %s", s.Title, s.Artist)
			}
		}
	}
	for _, s := range existing {
		if youtube.SimilarTitles(track.Title, s.Title) {
			return fmt.Sprintf("A similar title already exists: %q by %s (%s)", s.Title, s.Artist, s.Type)
		}
	}
	return ""
}

func (h *Handlers) handleDeleteSoundtrack(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	track, err := h.Songs.DeleteSoundtrack(r.Context(), id)
	if err != nil {
		h.storageError(w, err, "failed to delete soundtrack", zap.String("id", id))
		return
	}
	if track.Type == model.SoundtrackMP3 && strings.HasPrefix(track.SrcURL, filesPrefix) {
		if err := h.Files.DeleteFiles(strings.TrimPrefix(track.SrcURL, filesPrefix)); err != nil {
			h.Log.Warn("failed to delete audio file", zap.String("id", id), zap.Error(err))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) handleSetDailySong(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Songs.SetDailyPick(r.Context(), id); err != nil {
		h.storageError(w, err, "failed to set daily song", zap.String("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) handleClearDailySong(w http.ResponseWriter, r *http.Request) {
	if err := h.Songs.ClearDailyPick(r.Context()); err != nil {
		h.storageError(w, err, "failed to clear daily song")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
