package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"photo-vault/model"
	"photo-vault/storage"
	"photo-vault/youtube"
)

const filesPrefix = "/files/"

type MetadataExtractor interface {
	Extract(ctx context.Context, data []byte) model.PhotoMetadata
}

type VideoLookup interface {
	Lookup(ctx context.Context, videoID string) (*youtube.OEmbed, error)
}

// Handlers serves the vault API.
type Handlers struct {
	Photos    storage.PhotoDB
	Songs     storage.SoundtrackDB
	Files     storage.PhotoStorage
	Extractor MetadataExtractor
	Videos    VideoLookup

	// UploadDir is served read-only under /files/.
	UploadDir      string
	MaxUploadBytes int64
	DailyZone      *time.Location

	SecretKey    string
	PasswordHash string

	Log *zap.Logger
	Now func() time.Time
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Router registers every route and wraps them in logging and recovery.
func (h *Handlers) Router() http.Handler {
	if h.Log == nil {
		h.Log = zap.NewNop()
	}
	r := mux.NewRouter()
	auth := h.authMiddleware

	r.HandleFunc("/login", h.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/daily", auth(h.handleDaily)).Methods(http.MethodGet)
	r.HandleFunc("/slideshow", auth(h.handleSlideshow)).Methods(http.MethodGet)
	r.HandleFunc("/metadata", auth(h.handlePreviewMetadata)).Methods(http.MethodPost)
	r.HandleFunc("/maintenance/captions", auth(h.handleCleanCaptions)).Methods(http.MethodPost)

	r.HandleFunc("/memories", auth(h.handleListPhotos)).Methods(http.MethodGet)
	r.HandleFunc("/memories", auth(h.handleUploadPhoto)).Methods(http.MethodPost)
	r.HandleFunc("/memories/near", auth(h.handlePhotosNear)).Methods(http.MethodGet)
	r.HandleFunc("/memories/daily", auth(h.handleClearDailyPhoto)).Methods(http.MethodDelete)
	r.HandleFunc("/memories/{id}", auth(h.handleGetPhoto)).Methods(http.MethodGet)
	r.HandleFunc("/memories/{id}", auth(h.handleDeletePhoto)).Methods(http.MethodDelete)
	r.HandleFunc("/memories/{id}/caption", auth(h.handleUpdateCaption)).Methods(http.MethodPatch)
	r.HandleFunc("/memories/{id}/favorite", auth(h.handleSetFavorite)).Methods(http.MethodPut)
	r.HandleFunc("/memories/{id}/daily", auth(h.handleSetDailyPhoto)).Methods(http.MethodPut)

	r.HandleFunc("/soundtracks", auth(h.handleListSoundtracks)).Methods(http.MethodGet)
	r.HandleFunc("/soundtracks", auth(h.handleAddSoundtrack)).Methods(http.MethodPost)
	r.HandleFunc("/soundtracks/daily", auth(h.handleClearDailySong)).Methods(http.MethodDelete)
	r.HandleFunc("/soundtracks/{id}", auth(h.handleDeleteSoundtrack)).Methods(http.MethodDelete)
	r.HandleFunc("/soundtracks/{id}/daily", auth(h.handleSetDailySong)).Methods(http.MethodPut)

	if h.UploadDir != "" {
		r.PathPrefix(filesPrefix).Handler(http.StripPrefix(filesPrefix, http.FileServer(filesOnly{http.Dir(h.UploadDir)})))
	}

	return RecoveryMiddleware(h.Log, RequestLoggerMiddleware(h.Log, r.ServeHTTP))
}

// filesOnly hides directories so stored names cannot be listed.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// storageError maps repository errors onto HTTP responses.
func (h *Handlers) storageError(w http.ResponseWriter, err error, msg string, fields ...zap.Field) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrInvalidID):
		http.Error(w, "Invalid id", http.StatusBadRequest)
	default:
		h.Log.Error(msg, append(fields, zap.Error(err))...)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// fileURL is where a stored file is served from.
func fileURL(rel string) string {
	if rel == "" {
		return ""
	}
	return filesPrefix + rel
}
