package featuregate

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/gatekit/pkg/condition"
	mongoconn "github.com/dmitrymomot/gatekit/pkg/mongo"
)

// MongoStore persists feature flags in a MongoDB collection keyed by
// slug. It offers the same semantics as PostgresStore for deployments
// already running on MongoDB.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a flag store over the given database using the
// "feature_flags" collection and ensures the slug unique index exists.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*MongoStore, error) {
	coll := db.Collection("feature_flags")

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}

	return &MongoStore{coll: coll}, nil
}

// NewMongoStoreFromConfig connects with the settings from cfg and
// builds the store over the named database. This is the env-driven
// path: load mongoconn.Config through the config package and pass it
// here.
func NewMongoStoreFromConfig(ctx context.Context, cfg mongoconn.Config, database string) (*MongoStore, error) {
	db, err := mongoconn.NewWithDatabase(ctx, cfg, database)
	if err != nil {
		return nil, err
	}
	return NewMongoStore(ctx, db)
}

// flagDoc is the BSON shape of a flag document.
type flagDoc struct {
	Slug              string                `bson:"slug"`
	Name              string                `bson:"name"`
	Description       string                `bson:"description,omitempty"`
	Enabled           bool                  `bson:"enabled"`
	Conditions        []condition.Condition `bson:"conditions,omitempty"`
	Segments          []string              `bson:"segments,omitempty"`
	RolloutPercentage int                   `bson:"rollout_percentage"`
	StartsAt          *time.Time            `bson:"starts_at,omitempty"`
	EndsAt            *time.Time            `bson:"ends_at,omitempty"`
	CreatedAt         time.Time             `bson:"created_at"`
	UpdatedAt         time.Time             `bson:"updated_at"`
}

func toDoc(flag *Flag) flagDoc {
	return flagDoc{
		Slug:              flag.Slug,
		Name:              flag.Name,
		Description:       flag.Description,
		Enabled:           flag.Enabled,
		Conditions:        flag.Conditions,
		Segments:          flag.Segments,
		RolloutPercentage: flag.RolloutPercentage,
		StartsAt:          flag.StartsAt,
		EndsAt:            flag.EndsAt,
		CreatedAt:         flag.CreatedAt,
		UpdatedAt:         flag.UpdatedAt,
	}
}

func (d flagDoc) toFlag() *Flag {
	return &Flag{
		Slug:              d.Slug,
		Name:              d.Name,
		Description:       d.Description,
		Enabled:           d.Enabled,
		Conditions:        d.Conditions,
		Segments:          d.Segments,
		RolloutPercentage: d.RolloutPercentage,
		StartsAt:          d.StartsAt,
		EndsAt:            d.EndsAt,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// GetFlag returns the flag with the given slug.
func (s *MongoStore) GetFlag(ctx context.Context, slug string) (*Flag, error) {
	var doc flagDoc
	err := s.coll.FindOne(ctx, bson.M{"slug": slug}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrFlagNotFound
		}
		return nil, err
	}
	return doc.toFlag(), nil
}

// ListFlags returns all flags ordered by slug.
func (s *MongoStore) ListFlags(ctx context.Context) ([]*Flag, error) {
	cursor, err := s.coll.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "slug", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var flags []*Flag
	for cursor.Next(ctx) {
		var doc flagDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		flags = append(flags, doc.toFlag())
	}
	return flags, cursor.Err()
}

// CreateFlag inserts a new flag.
func (s *MongoStore) CreateFlag(ctx context.Context, flag *Flag) error {
	if err := flag.Validate(); err != nil {
		return err
	}

	now := time.Now()
	flag.CreatedAt = now
	flag.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, toDoc(flag)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrFlagExists
		}
		return err
	}
	return nil
}

// UpdateFlag replaces an existing flag document, preserving its
// original creation time.
func (s *MongoStore) UpdateFlag(ctx context.Context, flag *Flag) error {
	if err := flag.Validate(); err != nil {
		return err
	}

	var existing flagDoc
	err := s.coll.FindOne(ctx, bson.M{"slug": flag.Slug}).Decode(&existing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrFlagNotFound
		}
		return err
	}

	flag.CreatedAt = existing.CreatedAt
	flag.UpdatedAt = time.Now()

	_, err = s.coll.ReplaceOne(ctx, bson.M{"slug": flag.Slug}, toDoc(flag))
	return err
}

// DeleteFlag removes a flag by slug.
func (s *MongoStore) DeleteFlag(ctx context.Context, slug string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"slug": slug})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrFlagNotFound
	}
	return nil
}
