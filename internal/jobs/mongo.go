package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

const jobsCollection = "jobs"

// mongoJob is the stored form: the job plus its expiry time.
type mongoJob struct {
	types.DiscoveryJob `bson:",inline"`
	ExpireAt           *time.Time `bson:"expireAt,omitempty"`
}

// MongoStore keeps jobs in MongoDB. A TTL index on expireAt lets the server
// delete expired records; Get also hides records past their expiry because
// the TTL monitor only runs periodically.
type MongoStore struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

// NewMongoStore prepares the jobs collection of database.
func NewMongoStore(client *mongo.Client, database string, logger *slog.Logger) (*MongoStore, error) {
	s := &MongoStore{
		coll:   client.Database(database).Collection(jobsCollection),
		logger: logger.With("component", "mongo_jobs"),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expireAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Op: "ttl index", Err: err}
	}
	return s, nil
}

func (s *MongoStore) Create(ctx context.Context, job *types.DiscoveryJob) error {
	if _, err := s.coll.InsertOne(ctx, mongoJob{DiscoveryJob: *job}); err != nil {
		return &types.StorageError{Backend: "mongodb", Op: "create job", Err: err}
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, job *types.DiscoveryJob) error {
	filter := bson.M{
		"_id":    job.ID,
		"status": bson.M{"$nin": []types.JobStatus{types.JobStatusCompleted, types.JobStatusFailed}},
	}
	res, err := s.coll.ReplaceOne(ctx, filter, mongoJob{DiscoveryJob: *job})
	if err != nil {
		return &types.StorageError{Backend: "mongodb", Op: "update job", Err: err}
	}
	if res.MatchedCount == 0 {
		if _, err := s.Get(ctx, job.ID); err != nil {
			return err
		}
		return ErrTerminal
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*types.DiscoveryJob, error) {
	var doc mongoJob
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, types.ErrJobNotFound
	}
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Op: "get job", Err: err}
	}
	if doc.ExpireAt != nil && !time.Now().Before(*doc.ExpireAt) {
		return nil, types.ErrJobNotFound
	}
	return &doc.DiscoveryJob, nil
}

func (s *MongoStore) Expire(ctx context.Context, id string, at time.Time) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"expireAt": at.UTC()}})
	if err != nil {
		return &types.StorageError{Backend: "mongodb", Op: "expire job", Err: err}
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("expire %s: %w", id, types.ErrJobNotFound)
	}
	return nil
}

// Close is a no-op; the client belongs to the caller.
func (s *MongoStore) Close() error { return nil }
