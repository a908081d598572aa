package api

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"photo-vault/model"
	"photo-vault/storage"
	"photo-vault/youtube"
)

type fakePhotoDB struct {
	mu     sync.Mutex
	photos []model.Memory
	// dailyErr fails saves flagged as the daily pick, leaving nothing stored.
	dailyErr error
}

var _ storage.PhotoDB = (*fakePhotoDB)(nil)

func (f *fakePhotoDB) index(id string) (int, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return -1, storage.ErrInvalidID
	}
	for i := range f.photos {
		if f.photos[i].ID == oid {
			return i, nil
		}
	}
	return -1, storage.ErrNotFound
}

func (f *fakePhotoDB) SavePhoto(_ context.Context, photo *model.Memory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if photo.IsDailyPick && f.dailyErr != nil {
		return f.dailyErr
	}
	photo.ID = primitive.NewObjectID()
	photo.CreatedAt = time.Now().UTC()
	if photo.IsDailyPick {
		for i := range f.photos {
			f.photos[i].IsDailyPick = false
		}
	}
	f.photos = append(f.photos, *photo)
	return nil
}

func (f *fakePhotoDB) GetPhoto(_ context.Context, id string) (*model.Memory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, err := f.index(id)
	if err != nil {
		return nil, err
	}
	p := f.photos[i]
	return &p, nil
}

func (f *fakePhotoDB) ListPhotos(_ context.Context, filter storage.PhotoFilter) ([]model.Memory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Memory{}
	for _, p := range f.photos {
		if filter.FavoritesOnly && !p.IsFavorite {
			continue
		}
		if filter.MissingDate && p.PhotoDate != nil {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Caption), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePhotoDB) FindByPhotoDay(_ context.Context, day time.Time) (*model.Memory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := day.UTC().Format("2006-01-02")
	for _, p := range f.photos {
		if p.PhotoDay() == want {
			return &p, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakePhotoDB) SearchPhotosByLocation(_ context.Context, long, lat float64, _ int) ([]model.Memory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Memory{}
	for _, p := range f.photos {
		if p.LonLat != nil && p.LonLat.Coordinates[0] == long && p.LonLat.Coordinates[1] == lat {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePhotoDB) update(id string, fn func(*model.Memory)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, err := f.index(id)
	if err != nil {
		return err
	}
	fn(&f.photos[i])
	return nil
}

func (f *fakePhotoDB) UpdateCaption(_ context.Context, id, caption string) error {
	return f.update(id, func(m *model.Memory) { m.Caption = caption })
}

func (f *fakePhotoDB) SetFavorite(_ context.Context, id string, favorite bool) error {
	return f.update(id, func(m *model.Memory) { m.IsFavorite = favorite })
}

func (f *fakePhotoDB) UpdateMetadata(_ context.Context, id string, meta model.PhotoMetadata) error {
	return f.update(id, func(m *model.Memory) { m.PhotoDate = meta.CaptureDate })
}

func (f *fakePhotoDB) DeletePhoto(_ context.Context, id string) (*model.Memory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, err := f.index(id)
	if err != nil {
		return nil, err
	}
	p := f.photos[i]
	f.photos = append(f.photos[:i], f.photos[i+1:]...)
	return &p, nil
}

func (f *fakePhotoDB) DailyPick(_ context.Context) (*model.Memory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.photos {
		if p.IsDailyPick {
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakePhotoDB) SetDailyPick(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, err := f.index(id)
	if err != nil {
		return err
	}
	for j := range f.photos {
		f.photos[j].IsDailyPick = j == i
	}
	return nil
}

func (f *fakePhotoDB) ClearDailyPick(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.photos {
		f.photos[i].IsDailyPick = false
	}
	return nil
}

func (f *fakePhotoDB) ClearFilenameCaptions(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.photos {
		if strings.HasSuffix(strings.ToLower(f.photos[i].Caption), ".jpg") {
			f.photos[i].Caption = ""
			n++
		}
	}
	return n, nil
}

type fakeSoundtrackDB struct {
	mu     sync.Mutex
	tracks []model.Soundtrack
}

var _ storage.SoundtrackDB = (*fakeSoundtrackDB)(nil)

func (f *fakeSoundtrackDB) index(id string) (int, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return -1, storage.ErrInvalidID
	}
	for i := range f.tracks {
		if f.tracks[i].ID == oid {
			return i, nil
		}
	}
	return -1, storage.ErrNotFound
}

func (f *fakeSoundtrackDB) SaveSoundtrack(_ context.Context, track *model.Soundtrack) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	track.ID = primitive.NewObjectID()
	if track.IsDailyPick {
		for i := range f.tracks {
			f.tracks[i].IsDailyPick = false
		}
	}
	f.tracks = append(f.tracks, *track)
	return nil
}

func (f *fakeSoundtrackDB) ListSoundtracks(_ context.Context) ([]model.Soundtrack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Soundtrack{}, f.tracks...), nil
}

func (f *fakeSoundtrackDB) DeleteSoundtrack(_ context.Context, id string) (*model.Soundtrack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, err := f.index(id)
	if err != nil {
		return nil, err
	}
	t := f.tracks[i]
	f.tracks = append(f.tracks[:i], f.tracks[i+1:]...)
	return &t, nil
}

func (f *fakeSoundtrackDB) DailyPick(_ context.Context) (*model.Soundtrack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tracks {
		if t.IsDailyPick {
			return &t, nil
		}
	}
	return nil, nil
}

func (f *fakeSoundtrackDB) SetDailyPick(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, err := f.index(id)
	if err != nil {
		return err
	}
	for j := range f.tracks {
		f.tracks[j].IsDailyPick = j == i
	}
	return nil
}

func (f *fakeSoundtrackDB) ClearDailyPick(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tracks {
		f.tracks[i].IsDailyPick = false
	}
	return nil
}

type fakeExtractor struct {
	meta model.PhotoMetadata
}

func (f fakeExtractor) Extract(context.Context, []byte) model.PhotoMetadata {
	return f.meta
}

type fakeVideos struct {
	info  *youtube.OEmbed
	err   error
	calls int
}

func (f *fakeVideos) Lookup(context.Context, string) (*youtube.OEmbed, error) {
	f.calls++
	return f.info, f.err
}

func primitiveID() primitive.ObjectID {
	return primitive.NewObjectID()
}
