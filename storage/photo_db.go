package storage

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"photo-vault/model"
)

// filenameCaption matches captions that are nothing but an image file name.
const filenameCaption = `.*\.(jpe?g|png|heic|webp|gif)$`

type PhotoFilter struct {
	Search        string // case-insensitive caption substring
	FavoritesOnly bool
	MissingDate   bool
}

type PhotoDB interface {
	SavePhoto(ctx context.Context, photo *model.Memory) error
	GetPhoto(ctx context.Context, id string) (*model.Memory, error)
	ListPhotos(ctx context.Context, filter PhotoFilter) ([]model.Memory, error)
	FindByPhotoDay(ctx context.Context, day time.Time) (*model.Memory, error)
	SearchPhotosByLocation(ctx context.Context, long, lat float64, dist int) ([]model.Memory, error)
	UpdateCaption(ctx context.Context, id, caption string) error
	SetFavorite(ctx context.Context, id string, favorite bool) error
	UpdateMetadata(ctx context.Context, id string, meta model.PhotoMetadata) error
	DeletePhoto(ctx context.Context, id string) (*model.Memory, error)
	DailyPick(ctx context.Context) (*model.Memory, error)
	SetDailyPick(ctx context.Context, id string) error
	ClearDailyPick(ctx context.Context) error
	ClearFilenameCaptions(ctx context.Context) (int64, error)
}

type MongoPhotoDB struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

var _ PhotoDB = (*MongoPhotoDB)(nil)

// EnsureIndexes creates the geo index used by SearchPhotosByLocation.
func (db *MongoPhotoDB) EnsureIndexes(ctx context.Context) error {
	_, err := db.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "lonlat", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "photo_date", Value: 1}}},
	})
	return err
}

// SavePhoto inserts photo and fills in its ID. A photo saved as the daily
// pick replaces the previous one.
func (db *MongoPhotoDB) SavePhoto(ctx context.Context, photo *model.Memory) error {
	if photo.CreatedAt.IsZero() {
		photo.CreatedAt = time.Now().UTC()
	}
	pick := photo.IsDailyPick
	photo.IsDailyPick = false
	id, err := insertDocument(ctx, db.collection, photo, pick)
	if err != nil {
		return err
	}
	photo.ID = id
	photo.IsDailyPick = pick
	db.logger.Info("photo saved", zap.String("id", id.Hex()), zap.String("file_path", photo.FilePath))
	return nil
}

func (db *MongoPhotoDB) GetPhoto(ctx context.Context, id string) (*model.Memory, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var photo model.Memory
	err = db.collection.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&photo)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		db.logger.Error("error getting photo", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return &photo, nil
}

func photoFilter(f PhotoFilter) bson.D {
	filter := bson.D{}
	if q := strings.TrimSpace(f.Search); q != "" {
		filter = append(filter, bson.E{Key: "caption", Value: primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}})
	}
	if f.FavoritesOnly {
		filter = append(filter, bson.E{Key: "is_favorite", Value: true})
	}
	if f.MissingDate {
		filter = append(filter, bson.E{Key: "photo_date", Value: nil})
	}
	return filter
}

// ListPhotos returns memories newest first, ties broken by id.
func (db *MongoPhotoDB) ListPhotos(ctx context.Context, f PhotoFilter) ([]model.Memory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := db.collection.Find(ctx, photoFilter(f), opts)
	if err != nil {
		return nil, err
	}
	photos := []model.Memory{}
	if err := cur.All(ctx, &photos); err != nil {
		return nil, err
	}
	return photos, nil
}

// FindByPhotoDay returns a memory whose photo date falls on the same UTC day.
func (db *MongoPhotoDB) FindByPhotoDay(ctx context.Context, day time.Time) (*model.Memory, error) {
	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	filter := bson.D{{Key: "photo_date", Value: bson.D{
		{Key: "$gte", Value: start},
		{Key: "$lt", Value: start.AddDate(0, 0, 1)},
	}}}
	var photo model.Memory
	err := db.collection.FindOne(ctx, filter).Decode(&photo)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

func (db *MongoPhotoDB) SearchPhotosByLocation(ctx context.Context, long, lat float64, dist int) ([]model.Memory, error) {
	geoPoint := model.NewGeoPoint(lat, long)
	filter := bson.D{
		{Key: "lonlat", Value: bson.D{
			{Key: "$near", Value: bson.D{
				{Key: "$geometry", Value: geoPoint},
				{Key: "$maxDistance", Value: dist},
			}},
		}},
	}
	cur, err := db.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	photos := []model.Memory{}
	if err = cur.All(ctx, &photos); err != nil {
		return nil, err
	}
	return photos, nil
}

func (db *MongoPhotoDB) UpdateCaption(ctx context.Context, id, caption string) error {
	return updateByID(ctx, db.collection, id, bson.D{{Key: "caption", Value: caption}})
}

func (db *MongoPhotoDB) SetFavorite(ctx context.Context, id string, favorite bool) error {
	return updateByID(ctx, db.collection, id, bson.D{{Key: "is_favorite", Value: favorite}})
}

// UpdateMetadata stores whatever fields meta carries and leaves the rest untouched.
func (db *MongoPhotoDB) UpdateMetadata(ctx context.Context, id string, meta model.PhotoMetadata) error {
	set := bson.D{}
	if meta.CaptureDate != nil {
		set = append(set, bson.E{Key: "photo_date", Value: meta.CaptureDate.UTC()})
	}
	if meta.PlaceName != nil {
		set = append(set, bson.E{Key: "photo_location", Value: *meta.PlaceName})
	}
	if meta.HasCoordinates() {
		set = append(set, bson.E{Key: "lonlat", Value: model.NewGeoPoint(*meta.Latitude, *meta.Longitude)})
	}
	if len(set) == 0 {
		return nil
	}
	return updateByID(ctx, db.collection, id, set)
}

func (db *MongoPhotoDB) DeletePhoto(ctx context.Context, id string) (*model.Memory, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var photo model.Memory
	err = db.collection.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&photo)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// DailyPick returns the manually chosen memory, or nil when none is set.
func (db *MongoPhotoDB) DailyPick(ctx context.Context) (*model.Memory, error) {
	var photo model.Memory
	found, err := findDailyPick(ctx, db.collection, &photo)
	if err != nil || !found {
		return nil, err
	}
	return &photo, nil
}

func (db *MongoPhotoDB) SetDailyPick(ctx context.Context, id string) error {
	return setDailyPick(ctx, db.collection, id)
}

func (db *MongoPhotoDB) ClearDailyPick(ctx context.Context) error {
	return clearDailyPick(ctx, db.collection)
}

// ClearFilenameCaptions blanks captions that are only an image file name.
func (db *MongoPhotoDB) ClearFilenameCaptions(ctx context.Context) (int64, error) {
	res, err := db.collection.UpdateMany(ctx,
		bson.D{{Key: "caption", Value: primitive.Regex{Pattern: filenameCaption, Options: "i"}}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "caption", Value: ""}}}},
	)
	if err != nil {
		return 0, err
	}
	db.logger.Info("cleared filename captions", zap.Int64("count", res.ModifiedCount))
	return res.ModifiedCount, nil
}
