// Package mongo serves the donor directory from a MongoDB collection, for
// deployments where profiles are owned by another system.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/donoralert/pkg/clock"
	"github.com/dmitrymomot/donoralert/svc/donor"
)

// DefaultCollection holds donor profile documents.
const DefaultCollection = "donor_profiles"

type profileDoc struct {
	ID           string    `bson:"_id"`
	UserID       string    `bson:"user_id"`
	BloodType    string    `bson:"blood_type"`
	Municipality string    `bson:"municipality"`
	Availability string    `bson:"availability"`
	Age          int       `bson:"age"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d profileDoc) profile() (donor.Profile, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return donor.Profile{}, fmt.Errorf("profile id %q: %w", d.ID, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return donor.Profile{}, fmt.Errorf("profile user id %q: %w", d.UserID, err)
	}
	return donor.Profile{
		ID:           id,
		UserID:       userID,
		BloodType:    donor.BloodType(d.BloodType),
		Municipality: d.Municipality,
		Availability: donor.Availability(d.Availability),
		Age:          d.Age,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}, nil
}

// Directory implements donor.Registry. Reads are not transactional with the
// relational stores; a send sees whatever the collection holds at query time.
type Directory struct {
	coll  *mongo.Collection
	clock clock.Clock
}

type Option func(*Directory)

func WithClock(c clock.Clock) Option {
	return func(d *Directory) {
		if c != nil {
			d.clock = c
		}
	}
}

func NewDirectory(coll *mongo.Collection, opts ...Option) *Directory {
	d := &Directory{coll: coll, clock: clock.System()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// EnsureIndexes creates the indexes recipient queries rely on.
func (d *Directory) EnsureIndexes(ctx context.Context) error {
	_, err := d.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "blood_type", Value: 1}, {Key: "municipality", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create donor indexes: %w", err)
	}
	return nil
}

// filterDoc mirrors donor.Filter: exact match per present field, ANDed.
func filterDoc(f donor.Filter) bson.D {
	doc := bson.D{}
	if f.BloodType != nil {
		doc = append(doc, bson.E{Key: "blood_type", Value: string(*f.BloodType)})
	}
	if f.Municipality != nil {
		doc = append(doc, bson.E{Key: "municipality", Value: *f.Municipality})
	}
	if f.Availability != nil {
		doc = append(doc, bson.E{Key: "availability", Value: string(*f.Availability)})
	}
	return doc
}

func (d *Directory) Query(ctx context.Context, filter donor.Filter) ([]donor.Profile, error) {
	cur, err := d.coll.Find(ctx, filterDoc(filter),
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find donors: %w", err)
	}
	var docs []profileDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode donors: %w", err)
	}

	profiles := make([]donor.Profile, 0, len(docs))
	for _, doc := range docs {
		p, err := doc.profile()
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (d *Directory) Get(ctx context.Context, userID uuid.UUID) (donor.Profile, error) {
	var doc profileDoc
	err := d.coll.FindOne(ctx, bson.D{{Key: "user_id", Value: userID.String()}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return donor.Profile{}, donor.ErrProfileNotFound
		}
		return donor.Profile{}, fmt.Errorf("find donor: %w", err)
	}
	return doc.profile()
}

func (d *Directory) Upsert(ctx context.Context, p donor.Profile) (donor.Profile, error) {
	if !p.BloodType.Valid() {
		return donor.Profile{}, fmt.Errorf("%w: %q", donor.ErrInvalidBloodType, p.BloodType)
	}
	if !p.Availability.Valid() {
		return donor.Profile{}, fmt.Errorf("%w: %q", donor.ErrInvalidAvailability, p.Availability)
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := d.clock.Now()

	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "blood_type", Value: string(p.BloodType)},
			{Key: "municipality", Value: p.Municipality},
			{Key: "availability", Value: string(p.Availability)},
			{Key: "age", Value: p.Age},
			{Key: "updated_at", Value: now},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "_id", Value: p.ID.String()},
			{Key: "created_at", Value: now},
		}},
	}

	var doc profileDoc
	err := d.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "user_id", Value: p.UserID.String()}},
		update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return donor.Profile{}, fmt.Errorf("upsert donor: %w", err)
	}
	return doc.profile()
}

func (d *Directory) SetAvailability(ctx context.Context, userID uuid.UUID, a donor.Availability) error {
	if !a.Valid() {
		return fmt.Errorf("%w: %q", donor.ErrInvalidAvailability, a)
	}
	res, err := d.coll.UpdateOne(ctx,
		bson.D{{Key: "user_id", Value: userID.String()}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "availability", Value: string(a)},
			{Key: "updated_at", Value: d.clock.Now()},
		}}},
	)
	if err != nil {
		return fmt.Errorf("set availability: %w", err)
	}
	if res.MatchedCount == 0 {
		return donor.ErrProfileNotFound
	}
	return nil
}
