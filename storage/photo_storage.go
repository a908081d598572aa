package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultThumbnailSize = 480

	// photos wider than this ratio are shown as panoramas
	LandscapeRatio = 1.2

	photosDir = "photos"
	thumbsDir = "thumbs"
	audioDir  = "audio"
)

var ErrUnsafePath = errors.New("storage: path escapes upload directory")

type StoredFile struct {
	FilePath      string
	ThumbnailPath string
	ContentType   string
	Size          int64
	Landscape     bool
}

type PhotoStorage interface {
	SavePhoto(filename string, data []byte) (*StoredFile, error)
	SaveAudio(filename string, data []byte) (*StoredFile, error)
	ReadFile(relPath string) ([]byte, error)
	DeleteFiles(relPaths ...string) error
}

// LocalPhotoStorage keeps uploads under Directory. Stored paths are slash
// separated and relative to it.
type LocalPhotoStorage struct {
	Directory     string
	ThumbnailSize int
	Log           *zap.Logger
}

var _ PhotoStorage = (*LocalPhotoStorage)(nil)

func (s *LocalPhotoStorage) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// SavePhoto writes the original under a fresh name and, when the image can
// be decoded, a JPEG thumbnail. Thumbnail failures are not fatal.
func (s *LocalPhotoStorage) SavePhoto(filename string, data []byte) (*StoredFile, error) {
	stored, err := s.write(photosDir, filename, ".jpg", data)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		s.logger().Warn("could not decode image for thumbnail",
			zap.String("file_path", stored.FilePath),
			zap.Error(err),
		)
		return stored, nil
	}
	stored.Landscape = IsLandscape(img.Bounds())

	size := s.ThumbnailSize
	if size <= 0 {
		size = DefaultThumbnailSize
	}
	thumbRel := path.Join(thumbsDir, strings.TrimSuffix(path.Base(stored.FilePath), path.Ext(stored.FilePath))+".jpg")
	thumbAbs, err := s.abs(thumbRel)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(thumbAbs), 0o755); err != nil {
		return nil, err
	}
	thumb := imaging.Fit(img, size, size, imaging.Lanczos)
	if err := imaging.Save(thumb, thumbAbs, imaging.JPEGQuality(80)); err != nil {
		s.logger().Warn("failed to save thumbnail", zap.String("path", thumbRel), zap.Error(err))
		return stored, nil
	}
	stored.ThumbnailPath = thumbRel
	return stored, nil
}

func (s *LocalPhotoStorage) SaveAudio(filename string, data []byte) (*StoredFile, error) {
	return s.write(audioDir, filename, ".mp3", data)
}

func (s *LocalPhotoStorage) ReadFile(relPath string) ([]byte, error) {
	p, err := s.abs(relPath)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func (s *LocalPhotoStorage) DeleteFiles(relPaths ...string) error {
	var errs []error
	for _, rel := range relPaths {
		if rel == "" {
			continue
		}
		p, err := s.abs(rel)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *LocalPhotoStorage) write(dir, filename, defaultExt string, data []byte) (*StoredFile, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = defaultExt
	}
	rel := path.Join(dir, uuid.NewString()+ext)
	p, err := s.abs(rel)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", rel, err)
	}
	return &StoredFile{
		FilePath:    rel,
		ContentType: http.DetectContentType(data),
		Size:        int64(len(data)),
	}, nil
}

func (s *LocalPhotoStorage) abs(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, rel)
	}
	return filepath.Join(s.Directory, clean), nil
}

// IsLandscape reports whether width/height exceeds LandscapeRatio.
func IsLandscape(b image.Rectangle) bool {
	if b.Dy() == 0 {
		return false
	}
	return float64(b.Dx())/float64(b.Dy()) > LandscapeRatio
}
