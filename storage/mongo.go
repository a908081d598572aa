package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	ErrNotFound  = errors.New("storage: not found")
	ErrInvalidID = errors.New("storage: invalid id")
)

const (
	memoriesCollection    = "memories"
	soundtracksCollection = "soundtracks"
)

// Mongo owns the client shared by the repositories.
type Mongo struct {
	client   *mongo.Client
	database *mongo.Database
	logger   *zap.Logger
}

func Connect(ctx context.Context, uri, databaseName string, logger *zap.Logger) (*Mongo, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", databaseName))
	return &Mongo{
		client:   client,
		database: client.Database(databaseName),
		logger:   logger,
	}, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	if err := m.client.Disconnect(ctx); err != nil {
		return err
	}
	m.logger.Info("disconnected from MongoDB")
	return nil
}

func (m *Mongo) Photos() *MongoPhotoDB {
	return &MongoPhotoDB{
		collection: m.database.Collection(memoriesCollection),
		logger:     m.logger.With(zap.String("collection", memoriesCollection)),
	}
}

func (m *Mongo) Soundtracks() *MongoSoundtrackDB {
	return &MongoSoundtrackDB{
		collection: m.database.Collection(soundtracksCollection),
		logger:     m.logger.With(zap.String("collection", soundtracksCollection)),
	}
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

// setDailyPick flags id and then unflags every other document, so at most
// one document carries the flag once it returns.
func setDailyPick(ctx context.Context, coll *mongo.Collection, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "is_daily_pick", Value: true}}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	_, err = coll.UpdateMany(ctx,
		bson.D{
			{Key: "is_daily_pick", Value: true},
			{Key: "_id", Value: bson.D{{Key: "$ne", Value: oid}}},
		},
		bson.D{{Key: "$set", Value: bson.D{{Key: "is_daily_pick", Value: false}}}},
	)
	return err
}

// insertDocument inserts doc and, when pick is set, makes it the daily pick.
// Nothing stays stored if it returns an error.
func insertDocument(ctx context.Context, coll *mongo.Collection, doc any, pick bool) (primitive.ObjectID, error) {
	return saveWithDailyPick(ctx, pick,
		func(ctx context.Context) (primitive.ObjectID, error) {
			res, err := coll.InsertOne(ctx, doc)
			if err != nil {
				return primitive.NilObjectID, err
			}
			oid, ok := res.InsertedID.(primitive.ObjectID)
			if !ok {
				return primitive.NilObjectID, fmt.Errorf("unexpected inserted id %v", res.InsertedID)
			}
			return oid, nil
		},
		func(ctx context.Context, oid primitive.ObjectID) error {
			return setDailyPick(ctx, coll, oid.Hex())
		},
		func(ctx context.Context, oid primitive.ObjectID) error {
			_, err := coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
			return err
		},
	)
}

// saveWithDailyPick runs insert, then markDaily when pick is set. A failed
// markDaily removes the inserted document again so callers can discard
// anything that referenced it.
func saveWithDailyPick(
	ctx context.Context,
	pick bool,
	insert func(context.Context) (primitive.ObjectID, error),
	markDaily func(context.Context, primitive.ObjectID) error,
	remove func(context.Context, primitive.ObjectID) error,
) (primitive.ObjectID, error) {
	oid, err := insert(ctx)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if !pick {
		return oid, nil
	}
	if err := markDaily(ctx, oid); err != nil {
		// the rollback must run even when ctx is what failed
		if rerr := remove(context.WithoutCancel(ctx), oid); rerr != nil {
			return primitive.NilObjectID, errors.Join(
				fmt.Errorf("set daily pick: %w", err),
				fmt.Errorf("remove %s: %w", oid.Hex(), rerr),
			)
		}
		return primitive.NilObjectID, fmt.Errorf("set daily pick: %w", err)
	}
	return oid, nil
}

func clearDailyPick(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.UpdateMany(ctx,
		bson.D{{Key: "is_daily_pick", Value: true}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "is_daily_pick", Value: false}}}},
	)
	return err
}

// findDailyPick decodes the flagged document into out. It reports false when
// no document is flagged.
func findDailyPick(ctx context.Context, coll *mongo.Collection, out any) (bool, error) {
	err := coll.FindOne(ctx, bson.D{{Key: "is_daily_pick", Value: true}}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func updateByID(ctx context.Context, coll *mongo.Collection, id string, set bson.D) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
