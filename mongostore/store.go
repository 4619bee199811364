// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/danielhkuo/quickly-decide/lifecycle"
	"github.com/danielhkuo/quickly-decide/models"
)

const (
	pollsCollection       = "polls"
	usersCollection       = "users"
	restaurantsCollection = "restaurants"
)

var sortFields = map[string]string{
	models.SortByID:        "_id",
	models.SortByName:      "name",
	models.SortByStartTime: "startTime",
	models.SortByStatus:    "status",
}

type opinionDoc struct {
	Member  string   `bson:"member"`
	Options []string `bson:"options"`
}

type pollDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Members   []string           `bson:"members"`
	Options   []string           `bson:"options"`
	Status    string             `bson:"status"`
	StartTime time.Time          `bson:"startTime"`
	LimitTime *int               `bson:"limitTime,omitempty"`
	Opinions  []opinionDoc       `bson:"opinions"`
	Result    *string            `bson:"result"`
	Version   int64              `bson:"version"`
}

// Store keeps polls, users and restaurants in MongoDB collections.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to uri, pings the server and ensures indexes on database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(pollsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "startTime", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create poll indexes: %w", err)
	}
	return nil
}

func (s *Store) polls() *mongo.Collection {
	return s.db.Collection(pollsCollection)
}

func (s *Store) InsertPoll(ctx context.Context, poll models.Poll) (models.Poll, error) {
	doc := toPollDoc(poll)
	doc.ID = primitive.NewObjectID()
	doc.Version = 1

	if _, err := s.polls().InsertOne(ctx, doc); err != nil {
		return models.Poll{}, fmt.Errorf("insert poll: %w", err)
	}
	return fromPollDoc(doc), nil
}

func (s *Store) GetPoll(ctx context.Context, id string) (models.Poll, error) {
	oid, err := parseID(id)
	if err != nil {
		return models.Poll{}, fmt.Errorf("%w: poll %s", models.ErrNotFound, id)
	}

	var doc pollDoc
	err = s.polls().FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Poll{}, fmt.Errorf("%w: poll %s", models.ErrNotFound, id)
	}
	if err != nil {
		return models.Poll{}, fmt.Errorf("get poll: %w", err)
	}
	return fromPollDoc(doc), nil
}

func (s *Store) ListPolls(ctx context.Context, q models.PollQuery) ([]models.Poll, int, error) {
	filter := bson.M{}
	if q.Name != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(q.Name)}
	}
	if q.Status != "" {
		filter["status"] = string(q.Status)
	}
	if q.Result != "" {
		filter["result"] = q.Result
	}
	if q.IsTimeLimit != nil {
		if *q.IsTimeLimit {
			filter["limitTime"] = bson.M{"$exists": true, "$ne": nil}
		} else {
			filter["limitTime"] = nil
		}
	}

	total, err := s.polls().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count polls: %w", err)
	}

	field, ok := sortFields[q.Sort]
	if !ok {
		field = "_id"
	}
	sort := bson.D{{Key: field, Value: 1}}
	if field != "_id" {
		sort = append(sort, bson.E{Key: "_id", Value: 1})
	}
	opts := options.Find().SetSort(sort)
	if q.Limit > 0 {
		opts.SetSkip(int64(max(q.Offset(), 0))).SetLimit(int64(q.Limit))
	}

	cur, err := s.polls().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list polls: %w", err)
	}
	var docs []pollDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode polls: %w", err)
	}

	polls := make([]models.Poll, 0, len(docs))
	for _, d := range docs {
		polls = append(polls, fromPollDoc(d))
	}
	return polls, int(total), nil
}

// ReplacePoll sets the mutable fields of poll if the stored version still
// matches, incrementing it in the same update.
func (s *Store) ReplacePoll(ctx context.Context, poll models.Poll) (models.Poll, error) {
	oid, err := parseID(poll.ID)
	if err != nil {
		return models.Poll{}, fmt.Errorf("%w: poll %s", models.ErrNotFound, poll.ID)
	}
	doc := toPollDoc(poll)

	res, err := s.polls().UpdateOne(ctx,
		bson.M{"_id": oid, "version": poll.Version},
		bson.M{
			"$set": bson.M{
				"name":     doc.Name,
				"members":  doc.Members,
				"options":  doc.Options,
				"status":   doc.Status,
				"opinions": doc.Opinions,
				"result":   doc.Result,
			},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return models.Poll{}, fmt.Errorf("update poll: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := s.polls().CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return models.Poll{}, fmt.Errorf("check poll: %w", err)
		}
		if n == 0 {
			return models.Poll{}, fmt.Errorf("%w: poll %s", models.ErrNotFound, poll.ID)
		}
		return models.Poll{}, fmt.Errorf("%w: poll %s changed since version %d",
			models.ErrConflict, poll.ID, poll.Version)
	}

	saved := poll.Clone()
	saved.Version++
	return saved, nil
}

func (s *Store) DeletePoll(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return fmt.Errorf("%w: poll %s", models.ErrNotFound, id)
	}
	res, err := s.polls().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete poll: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: poll %s", models.ErrNotFound, id)
	}
	return nil
}

func toPollDoc(p models.Poll) pollDoc {
	doc := pollDoc{
		Name:      p.Name,
		Members:   nonNil(p.Members),
		Options:   nonNil(p.Options),
		Status:    string(p.Status),
		StartTime: p.StartTime.UTC(),
		LimitTime: p.LimitTime,
		Opinions:  make([]opinionDoc, 0, len(p.Opinions)),
		Result:    p.Result,
		Version:   p.Version,
	}
	if oid, err := parseID(p.ID); err == nil {
		doc.ID = oid
	}
	for _, op := range p.Opinions {
		doc.Opinions = append(doc.Opinions, opinionDoc{Member: op.Member, Options: nonNil(op.Options)})
	}
	return doc
}

func fromPollDoc(d pollDoc) models.Poll {
	p := models.Poll{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Members:   nonNil(d.Members),
		Options:   nonNil(d.Options),
		Status:    models.PollStatus(d.Status),
		StartTime: d.StartTime.UTC(),
		LimitTime: d.LimitTime,
		Opinions:  make([]models.Opinion, 0, len(d.Opinions)),
		Result:    d.Result,
		Version:   d.Version,
	}
	for _, op := range d.Opinions {
		p.Opinions = append(p.Opinions, models.Opinion{Member: op.Member, Options: nonNil(op.Options)})
	}
	return p.Clone()
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

var _ lifecycle.Store = (*Store)(nil)
