package backfill

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"

	"photo-vault/model"
	"photo-vault/storage"
)

type fakeStore struct {
	memories []model.Memory
	filter   storage.PhotoFilter
	updates  map[string]model.PhotoMetadata
	failID   string
}

func (s *fakeStore) ListPhotos(_ context.Context, f storage.PhotoFilter) ([]model.Memory, error) {
	s.filter = f
	return append([]model.Memory(nil), s.memories...), nil
}

func (s *fakeStore) UpdateMetadata(_ context.Context, id string, meta model.PhotoMetadata) error {
	if id == s.failID {
		return errors.New("write conflict")
	}
	if s.updates == nil {
		s.updates = make(map[string]model.PhotoMetadata)
	}
	s.updates[id] = meta
	return nil
}

type fakeFiles map[string][]byte

func (f fakeFiles) ReadFile(p string) ([]byte, error) {
	data, ok := f[p]
	if !ok {
		return nil, errors.New("missing")
	}
	return data, nil
}

// fakeExtractor returns metadata keyed by file content and records call order.
type fakeExtractor struct {
	results map[string]model.PhotoMetadata
	order   []string
}

func (e *fakeExtractor) Extract(_ context.Context, data []byte) model.PhotoMetadata {
	e.order = append(e.order, string(data))
	return e.results[string(data)]
}

func TestRun(t *testing.T) {
	when := time.Date(2019, 6, 14, 10, 0, 0, 0, time.UTC)
	place := "Nice, France"
	ids := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()}

	store := &fakeStore{
		// newest first, as the store lists them
		memories: []model.Memory{
			{ID: ids[3], FilePath: "photos/d.jpg"},
			{ID: ids[2], FilePath: "photos/missing.jpg"},
			{ID: ids[1], FilePath: "photos/b.jpg"},
			{ID: ids[0], FilePath: "photos/a.jpg"},
		},
	}
	files := fakeFiles{
		"photos/a.jpg": []byte("a"),
		"photos/b.jpg": []byte("b"),
		"photos/d.jpg": []byte("d"),
	}
	ext := &fakeExtractor{results: map[string]model.PhotoMetadata{
		"a": {CaptureDate: &when, PlaceName: &place},
		"d": {CaptureDate: &when},
	}}

	r := &Runner{Store: store, Files: files, Extractor: ext, Log: zaptest.NewLogger(t)}
	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, store.filter.MissingDate)
	assert.Equal(t, Result{Total: 4, Updated: 2, Skipped: 1, Failed: 1}, res)
	assert.Equal(t, []string{"a", "b", "d"}, ext.order)
	require.Contains(t, store.updates, ids[0].Hex())
	assert.Equal(t, "Nice, France", *store.updates[ids[0].Hex()].PlaceName)
	assert.NotContains(t, store.updates, ids[1].Hex())
}

func TestRunUpdateFailure(t *testing.T) {
	when := time.Date(2019, 6, 14, 10, 0, 0, 0, time.UTC)
	id := primitive.NewObjectID()
	store := &fakeStore{memories: []model.Memory{{ID: id, FilePath: "x"}}, failID: id.Hex()}
	ext := &fakeExtractor{results: map[string]model.PhotoMetadata{"x": {CaptureDate: &when}}}

	r := &Runner{Store: store, Files: fakeFiles{"x": []byte("x")}, Extractor: ext}
	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Total: 1, Failed: 1}, res)
}

func TestRunCancelled(t *testing.T) {
	store := &fakeStore{memories: []model.Memory{{ID: primitive.NewObjectID(), FilePath: "x"}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{Store: store, Files: fakeFiles{}, Extractor: &fakeExtractor{}}
	_, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
