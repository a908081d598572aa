package storage

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"photo-vault/model"
)

type SoundtrackDB interface {
	SaveSoundtrack(ctx context.Context, track *model.Soundtrack) error
	ListSoundtracks(ctx context.Context) ([]model.Soundtrack, error)
	DeleteSoundtrack(ctx context.Context, id string) (*model.Soundtrack, error)
	DailyPick(ctx context.Context) (*model.Soundtrack, error)
	SetDailyPick(ctx context.Context, id string) error
	ClearDailyPick(ctx context.Context) error
}

type MongoSoundtrackDB struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

var _ SoundtrackDB = (*MongoSoundtrackDB)(nil)

func (db *MongoSoundtrackDB) SaveSoundtrack(ctx context.Context, track *model.Soundtrack) error {
	if track.CreatedAt.IsZero() {
		track.CreatedAt = time.Now().UTC()
	}
	pick := track.IsDailyPick
	track.IsDailyPick = false
	id, err := insertDocument(ctx, db.collection, track, pick)
	if err != nil {
		return err
	}
	track.ID = id
	track.IsDailyPick = pick
	db.logger.Info("soundtrack saved", zap.String("id", id.Hex()), zap.String("title", track.Title))
	return nil
}

// ListSoundtracks returns every track ordered by title, ties broken by id.
func (db *MongoSoundtrackDB) ListSoundtracks(ctx context.Context) ([]model.Soundtrack, error) {
	opts := options.Find().SetSort(bson.D{{Key: "title", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := db.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	tracks := []model.Soundtrack{}
	if err := cur.All(ctx, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

func (db *MongoSoundtrackDB) DeleteSoundtrack(ctx context.Context, id string) (*model.Soundtrack, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var track model.Soundtrack
	err = db.collection.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&track)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &track, nil
}

func (db *MongoSoundtrackDB) DailyPick(ctx context.Context) (*model.Soundtrack, error) {
	var track model.Soundtrack
	found, err := findDailyPick(ctx, db.collection, &track)
	if err != nil || !found {
		return nil, err
	}
	return &track, nil
}

func (db *MongoSoundtrackDB) SetDailyPick(ctx context.Context, id string) error {
	return setDailyPick(ctx, db.collection, id)
}

func (db *MongoSoundtrackDB) ClearDailyPick(ctx context.Context) error {
	return clearDailyPick(ctx, db.collection)
}
