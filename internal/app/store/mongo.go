// internal/app/store/mongo.go
package store

import (
	"context"

	"github.com/dalemusser/formdrop/internal/app/intake"
	"github.com/dalemusser/formdrop/internal/domain/models"
	mongodb "github.com/dalemusser/formdrop/pantry/db/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	mongoSubmissions = "submissions"
	mongoCounters    = "counters"
	mongoCounterID   = "submissions"
)

// submissionDoc is the stored document shape.
type submissionDoc struct {
	ID          int    `bson:"id"`
	Name        string `bson:"name"`
	Email       string `bson:"email"`
	Phone       string `bson:"phone"`
	Message     string `bson:"message"`
	SubmittedAt string `bson:"timestamp"`
}

// MongoStore keeps submissions in a collection; ids come from a counter
// document incremented with $inc.
type MongoStore struct {
	client   *mongo.Client
	subs     *mongo.Collection
	counters *mongo.Collection
	degraded DegradedFunc
}

var (
	_ Store         = (*MongoStore)(nil)
	_ SchemaEnsurer = (*MongoStore)(nil)
)

// OpenMongo connects to cfg.MongoURI and uses cfg.MongoDatabase (default
// "formdrop").
func OpenMongo(ctx context.Context, cfg Config, degraded DegradedFunc) (*MongoStore, error) {
	client, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, connectError("mongo.connect", "", err)
	}
	dbName := cfg.MongoDatabase
	if dbName == "" {
		dbName = "formdrop"
	}
	if degraded == nil {
		degraded = func(error) {}
	}
	db := client.Database(dbName)
	return &MongoStore{
		client:   client,
		subs:     db.Collection(mongoSubmissions),
		counters: db.Collection(mongoCounters),
		degraded: degraded,
	}, nil
}

// EnsureSchema creates a unique index on id.
func (s *MongoStore) EnsureSchema(ctx context.Context) error {
	_, err := s.subs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("id_unique"),
	})
	if err != nil {
		return &intake.StoreError{Op: "mongo.schema", Kind: intake.KindWrite, Err: err}
	}
	return nil
}

func (s *MongoStore) nextID(ctx context.Context) (int, error) {
	var counter struct {
		Seq int `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": mongoCounterID},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	return counter.Seq, err
}

// Append implements Store.
func (s *MongoStore) Append(ctx context.Context, sub models.Submission) (models.Submission, error) {
	id, err := s.nextID(ctx)
	if err != nil {
		return models.Submission{}, &intake.StoreError{Op: "mongo.seq", Kind: intake.KindWrite, Err: err}
	}
	sub.ID = id
	doc := submissionDoc{
		ID:          sub.ID,
		Name:        sub.Name,
		Email:       sub.Email,
		Phone:       sub.Phone,
		Message:     sub.Message,
		SubmittedAt: sub.Timestamp,
	}
	if _, err := s.subs.InsertOne(ctx, doc); err != nil {
		return models.Submission{}, &intake.StoreError{Op: "mongo.insert", Kind: intake.KindWrite, Err: err}
	}
	return sub, nil
}

// List implements Store.
func (s *MongoStore) List(ctx context.Context) ([]models.Submission, error) {
	cur, err := s.subs.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, &intake.StoreError{Op: "mongo.list", Kind: intake.KindRead, Err: err}
	}
	defer cur.Close(ctx)

	subs := []models.Submission{}
	for cur.Next(ctx) {
		var doc submissionDoc
		if err := cur.Decode(&doc); err != nil {
			s.degraded(&intake.StoreError{Op: "mongo.decode", Kind: intake.KindCorrupt, Err: err})
			continue
		}
		subs = append(subs, models.Submission{
			ID:        doc.ID,
			Name:      doc.Name,
			Email:     doc.Email,
			Phone:     doc.Phone,
			Message:   doc.Message,
			Timestamp: doc.SubmittedAt,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, &intake.StoreError{Op: "mongo.list", Kind: intake.KindRead, Err: err}
	}
	return subs, nil
}

// Count implements Store.
func (s *MongoStore) Count(ctx context.Context) (int, error) {
	n, err := s.subs.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, &intake.StoreError{Op: "mongo.count", Kind: intake.KindRead, Err: err}
	}
	return int(n), nil
}

// Ping implements Store.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close implements Store.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
