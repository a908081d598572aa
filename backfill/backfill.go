package backfill

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"photo-vault/model"
	"photo-vault/storage"
)

type Store interface {
	ListPhotos(ctx context.Context, filter storage.PhotoFilter) ([]model.Memory, error)
	UpdateMetadata(ctx context.Context, id string, meta model.PhotoMetadata) error
}

type FileReader interface {
	ReadFile(relPath string) ([]byte, error)
}

type Extractor interface {
	Extract(ctx context.Context, data []byte) model.PhotoMetadata
}

type Result struct {
	Total   int `json:"total"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Runner fills in metadata for memories stored without a photo date.
// Memories are handled one at a time; the geocoder behind the extractor
// paces its own requests.
type Runner struct {
	Store     Store
	Files     FileReader
	Extractor Extractor
	Log       *zap.Logger
}

func (r *Runner) Run(ctx context.Context) (Result, error) {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "backfill"))

	memories, err := r.Store.ListPhotos(ctx, storage.PhotoFilter{MissingDate: true})
	if err != nil {
		return Result{}, fmt.Errorf("list memories without photo date: %w", err)
	}
	// oldest first
	for i, j := 0, len(memories)-1; i < j; i, j = i+1, j-1 {
		memories[i], memories[j] = memories[j], memories[i]
	}

	res := Result{Total: len(memories)}
	log.Info("backfill started", zap.Int("memories", len(memories)))

	for _, mem := range memories {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		id := mem.ID.Hex()
		fields := []zap.Field{zap.String("id", id), zap.String("file_path", mem.FilePath)}

		data, err := r.Files.ReadFile(mem.FilePath)
		if err != nil {
			log.Warn("could not read stored photo", append(fields, zap.Error(err))...)
			res.Failed++
			continue
		}

		meta := r.Extractor.Extract(ctx, data)
		if meta.CaptureDate == nil && meta.PlaceName == nil && !meta.HasCoordinates() {
			log.Info("no EXIF data found", fields...)
			res.Skipped++
			continue
		}

		if err := r.Store.UpdateMetadata(ctx, id, meta); err != nil {
			log.Error("metadata update failed", append(fields, zap.Error(err))...)
			res.Failed++
			continue
		}
		res.Updated++

		place := ""
		if meta.PlaceName != nil {
			place = *meta.PlaceName
		}
		log.Info("memory updated", append(fields,
			zap.String("photo_date", meta.ISODate()),
			zap.String("photo_location", place),
		)...)
	}

	log.Info("backfill finished",
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Int("total", res.Total),
	)
	return res, nil
}
