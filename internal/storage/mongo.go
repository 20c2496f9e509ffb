package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

const (
	profilesCollection    = "profiles"
	journalistsCollection = "journalists"
)

// MongoStore writes profiles to MongoDB with a unique index on profileUrl and
// mirrors (name, outlet) into the journalists collection.
type MongoStore struct {
	client      *mongo.Client
	profiles    *mongo.Collection
	journalists *mongo.Collection
	ownsClient  bool
	logger      *slog.Logger
}

// Connect dials MongoDB and verifies the connection.
func Connect(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}
	return client, nil
}

// NewMongoStore connects to uri and prepares the collections of database.
func NewMongoStore(uri, database string, logger *slog.Logger) (*MongoStore, error) {
	client, err := Connect(uri)
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Op: "connect", Err: err}
	}
	s, err := NewMongoStoreWithClient(client, database, logger)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	s.ownsClient = true
	return s, nil
}

// NewMongoStoreWithClient uses an existing client; Close leaves it connected.
func NewMongoStoreWithClient(client *mongo.Client, database string, logger *slog.Logger) (*MongoStore, error) {
	db := client.Database(database)
	s := &MongoStore{
		client:      client,
		profiles:    db.Collection(profilesCollection),
		journalists: db.Collection(journalistsCollection),
		logger:      logger.With("component", "mongo_storage"),
	}
	if err := s.ensureIndexes(); err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "indexes", Err: err}
	}
	return s, nil
}

func (s *MongoStore) Name() string { return "mongodb" }

func (s *MongoStore) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.profiles.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "profileUrl", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "outlet", Value: 1}, {Key: "updatedAt", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("profiles indexes: %w", err)
	}
	if _, err := s.journalists.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}, {Key: "outlet", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("journalists index: %w", err)
	}
	return nil
}

func (s *MongoStore) UpsertProfile(ctx context.Context, p *types.AuthorProfile) error {
	if err := validate(p); err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "upsert", Err: err}
	}
	rec := *p
	normalize(&rec)
	ts := now()
	rec.UpdatedAt = ts

	fields, err := toDocument(&rec)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "encode", Err: err}
	}
	delete(fields, "createdAt")

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	update := bson.M{"$set": fields, "$setOnInsert": bson.M{"createdAt": ts}}
	var stored types.AuthorProfile
	err = s.profiles.FindOneAndUpdate(ctx, bson.M{"profileUrl": rec.ProfileURL}, update, opts).Decode(&stored)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "upsert", Err: err}
	}

	_, err = s.journalists.UpdateOne(ctx,
		bson.M{"name": rec.Name, "outlet": rec.Outlet},
		bson.M{
			"$set":         bson.M{"profileUrl": rec.ProfileURL, "updatedAt": ts},
			"$setOnInsert": bson.M{"createdAt": ts},
		},
		options.Update().SetUpsert(true))
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "mirror", Err: err}
	}

	p.CreatedAt, p.UpdatedAt = stored.CreatedAt, ts
	return nil
}

func toDocument(p *types.AuthorProfile) (bson.M, error) {
	raw, err := bson.Marshal(p)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *MongoStore) ListProfiles(ctx context.Context, q ProfileQuery) ([]types.AuthorProfile, error) {
	filter := bson.M{}
	if q.Outlet != "" {
		filter["outlet"] = q.Outlet
	}
	sort := bson.D{{Key: "updatedAt", Value: -1}}
	if q.SortBy == SortArticles {
		sort = bson.D{{Key: "totalArticles", Value: -1}, {Key: "updatedAt", Value: -1}}
	}
	opts := options.Find().SetSort(sort)
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := s.profiles.Find(ctx, filter, opts)
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "list", Err: err}
	}
	out := []types.AuthorProfile{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "decode", Err: err}
	}
	for i := range out {
		normalize(&out[i])
	}
	return out, nil
}

func (s *MongoStore) CountProfiles(ctx context.Context, outlet string) (int, error) {
	filter := bson.M{}
	if outlet != "" {
		filter["outlet"] = outlet
	}
	n, err := s.profiles.CountDocuments(ctx, filter)
	if err != nil {
		return 0, &types.StorageError{Backend: s.Name(), Op: "count", Err: err}
	}
	return int(n), nil
}

// Client exposes the connection for sharing with the job store.
func (s *MongoStore) Client() *mongo.Client { return s.client }

func (s *MongoStore) Close() error {
	if !s.ownsClient {
		return nil
	}
	s.logger.Info("mongodb storage closing")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
