package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"photo-vault/model"
	"photo-vault/storage"
)

const (
	defaultNearDistance = 5000 // meters
	slideshowInterval   = 6000 // milliseconds
	multipartMemory     = 32 << 20
)

type PhotoResponse struct {
	model.Memory
	ImageURL     string `json:"image_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

func photoResponse(m model.Memory) PhotoResponse {
	return PhotoResponse{Memory: m, ImageURL: fileURL(m.FilePath), ThumbnailURL: fileURL(m.ThumbnailPath)}
}

func photoResponses(ms []model.Memory) []PhotoResponse {
	out := make([]PhotoResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, photoResponse(m))
	}
	return out
}

type UploadResult struct {
	Photo            PhotoResponse       `json:"photo"`
	Metadata         model.PhotoMetadata `json:"metadata"`
	DuplicateWarning string              `json:"duplicate_warning,omitempty"`
}

type MetadataPreview struct {
	Metadata         model.PhotoMetadata `json:"metadata"`
	DuplicateWarning string              `json:"duplicate_warning,omitempty"`
}

type CaptionRequest struct {
	Caption string `json:"caption"`
}

type FavoriteRequest struct {
	IsFavorite bool `json:"is_favorite"`
}

func (h *Handlers) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	photos, err := h.Photos.ListPhotos(r.Context(), storage.PhotoFilter{
		Search:        q.Get("q"),
		FavoritesOnly: q.Get("favorites") == "true",
	})
	if err != nil {
		h.storageError(w, err, "failed to list photos")
		return
	}
	writeJSON(w, http.StatusOK, photoResponses(photos))
}

func (h *Handlers) handleSlideshow(w http.ResponseWriter, r *http.Request) {
	photos, err := h.Photos.ListPhotos(r.Context(), storage.PhotoFilter{
		FavoritesOnly: r.URL.Query().Get("favorites") == "true",
	})
	if err != nil {
		h.storageError(w, err, "failed to list slideshow photos")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"interval_ms": slideshowInterval,
		"photos":      photoResponses(photos),
	})
}

func (h *Handlers) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	photo, err := h.Photos.GetPhoto(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.storageError(w, err, "failed to get photo")
		return
	}
	writeJSON(w, http.StatusOK, photoResponse(*photo))
}

func (h *Handlers) handlePhotosNear(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		http.Error(w, "lat and lon are required", http.StatusBadRequest)
		return
	}
	dist := defaultNearDistance
	if raw := q.Get("dist"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d <= 0 {
			http.Error(w, "Invalid dist", http.StatusBadRequest)
			return
		}
		dist = d
	}
	photos, err := h.Photos.SearchPhotosByLocation(r.Context(), lon, lat, dist)
	if err != nil {
		h.storageError(w, err, "failed to search photos by location")
		return
	}
	writeJSON(w, http.StatusOK, photoResponses(photos))
}

// readUpload parses a bounded multipart body and returns the parts named field.
func (h *Handlers) readUpload(w http.ResponseWriter, r *http.Request, field string) ([]*multipart.FileHeader, bool) {
	if h.MaxUploadBytes > 0 {
		if r.ContentLength > h.MaxUploadBytes {
			h.Log.Warn("file size exceeds limit",
				zap.Int64("content_length", r.ContentLength),
				zap.Int64("limit", h.MaxUploadBytes),
			)
			http.Error(w, "File size exceeds limit", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "File size exceeds limit", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return nil, false
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		http.Error(w, "No file found in the request", http.StatusBadRequest)
		return nil, false
	}
	return headers, true
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// duplicateWarning names an existing memory taken on the same day, if any.
func (h *Handlers) duplicateWarning(r *http.Request, meta model.PhotoMetadata) string {
	if meta.CaptureDate == nil {
		return ""
	}
	dup, err := h.Photos.FindByPhotoDay(r.Context(), *meta.CaptureDate)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			h.Log.Warn("duplicate lookup failed", zap.Error(err))
		}
		return ""
	}
	msg := fmt.Sprintf("A photo from the same day (%s) is already in the vault", dup.PhotoDay())
	if dup.Caption != "" {
		msg += fmt.Sprintf(": %q", dup.Caption)
	}
	return msg
}

func (h *Handlers) handlePreviewMetadata(w http.ResponseWriter, r *http.Request) {
	headers, ok := h.readUpload(w, r, "file")
	if !ok {
		return
	}
	data, err := readPart(headers[0])
	if err != nil {
		http.Error(w, "Error opening file", http.StatusBadRequest)
		return
	}
	meta := h.Extractor.Extract(r.Context(), data)
	writeJSON(w, http.StatusOK, MetadataPreview{
		Metadata:         meta,
		DuplicateWarning: h.duplicateWarning(r, meta),
	})
}

// handleUploadPhoto stores each uploaded file as a memory. Metadata
// extraction never blocks the upload.
func (h *Handlers) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	headers, ok := h.readUpload(w, r, "file")
	if !ok {
		return
	}
	caption := r.FormValue("caption")
	daily, _ := strconv.ParseBool(r.FormValue("daily"))

	results := make([]UploadResult, 0, len(headers))
	for i, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			http.Error(w, "Error opening file: "+err.Error(), http.StatusBadRequest)
			return
		}

		meta := h.Extractor.Extract(r.Context(), data)
		warning := h.duplicateWarning(r, meta)

		stored, err := h.Files.SavePhoto(fh.Filename, data)
		if err != nil {
			h.Log.Error("failed to store photo", zap.String("filename", fh.Filename), zap.Error(err))
			http.Error(w, "Failed to store photo", http.StatusInternalServerError)
			return
		}

		photo := model.Memory{
			Caption:       caption,
			FilePath:      stored.FilePath,
			ThumbnailPath: stored.ThumbnailPath,
			ContentType:   stored.ContentType,
			Size:          stored.Size,
			Landscape:     stored.Landscape,
			// only the first file of a batch can be the daily pick
			IsDailyPick: daily && i == 0,
			PhotoDate:   meta.CaptureDate,
		}
		if meta.PlaceName != nil {
			photo.PhotoLocation = *meta.PlaceName
		}
		if meta.HasCoordinates() {
			photo.LonLat = model.NewGeoPoint(*meta.Latitude, *meta.Longitude)
		}

		if err := h.Photos.SavePhoto(r.Context(), &photo); err != nil {
			h.Log.Error("failed to save photo record", zap.String("file_path", stored.FilePath), zap.Error(err))
			if derr := h.Files.DeleteFiles(stored.FilePath, stored.ThumbnailPath); derr != nil {
				h.Log.Warn("failed to remove orphaned upload", zap.Error(derr))
			}
			http.Error(w, "Failed to save photo", http.StatusInternalServerError)
			return
		}

		h.Log.Info("photo uploaded",
			zap.String("id", photo.ID.Hex()),
			zap.String("filename", fh.Filename),
			zap.String("photo_date", meta.ISODate()),
			zap.String("photo_location", photo.PhotoLocation),
		)
		results = append(results, UploadResult{
			Photo:            photoResponse(photo),
			Metadata:         meta,
			DuplicateWarning: warning,
		})
	}

	writeJSON(w, http.StatusCreated, results)
}

func (h *Handlers) handleUpdateCaption(w http.ResponseWriter, r *http.Request) {
	var req CaptionRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.Photos.UpdateCaption(r.Context(), id, req.Caption); err != nil {
		h.storageError(w, err, "failed to update caption", zap.String("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) handleSetFavorite(w http.ResponseWriter, r *http.Request) {
	var req FavoriteRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.Photos.SetFavorite(r.Context(), id, req.IsFavorite); err != nil {
		h.storageError(w, err, "failed to set favorite", zap.String("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	photo, err := h.Photos.DeletePhoto(r.Context(), id)
	if err != nil {
		h.storageError(w, err, "failed to delete photo", zap.String("id", id))
		return
	}
	if err := h.Files.DeleteFiles(photo.FilePath, photo.ThumbnailPath); err != nil {
		h.Log.Warn("failed to delete photo files", zap.String("id", id), zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) handleSetDailyPhoto(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Photos.SetDailyPick(r.Context(), id); err != nil {
		h.storageError(w, err, "failed to set daily photo", zap.String("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) handleClearDailyPhoto(w http.ResponseWriter, r *http.Request) {
	if err := h.Photos.ClearDailyPick(r.Context()); err != nil {
		h.storageError(w, err, "failed to clear daily photo")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) handleCleanCaptions(w http.ResponseWriter, r *http.Request) {
	n, err := h.Photos.ClearFilenameCaptions(r.Context())
	if err != nil {
		h.storageError(w, err, "failed to clean captions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"cleared": n})
}
