// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/danielhkuo/quickly-decide/lifecycle"
	"github.com/danielhkuo/quickly-decide/models"
)

type userDoc struct {
	ID   primitive.ObjectID `bson:"_id,omitempty"`
	Name string             `bson:"name"`
}

type restaurantDoc struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	Name    string             `bson:"name"`
	Address string             `bson:"address"`
}

func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	doc := userDoc{ID: primitive.NewObjectID(), Name: user.Name}
	if _, err := s.db.Collection(usersCollection).InsertOne(ctx, doc); err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return models.User{ID: doc.ID.Hex(), Name: doc.Name}, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	var doc userDoc
	if err := s.findByID(ctx, usersCollection, id, &doc); err != nil {
		return models.User{}, fmt.Errorf("user %s: %w", id, err)
	}
	return models.User{ID: doc.ID.Hex(), Name: doc.Name}, nil
}

func (s *Store) CreateRestaurant(ctx context.Context, r models.Restaurant) (models.Restaurant, error) {
	doc := restaurantDoc{ID: primitive.NewObjectID(), Name: r.Name, Address: r.Address}
	if _, err := s.db.Collection(restaurantsCollection).InsertOne(ctx, doc); err != nil {
		return models.Restaurant{}, fmt.Errorf("insert restaurant: %w", err)
	}
	return models.Restaurant{ID: doc.ID.Hex(), Name: doc.Name, Address: doc.Address}, nil
}

func (s *Store) GetRestaurant(ctx context.Context, id string) (models.Restaurant, error) {
	var doc restaurantDoc
	if err := s.findByID(ctx, restaurantsCollection, id, &doc); err != nil {
		return models.Restaurant{}, fmt.Errorf("restaurant %s: %w", id, err)
	}
	return models.Restaurant{ID: doc.ID.Hex(), Name: doc.Name, Address: doc.Address}, nil
}

func (s *Store) UsersExist(ctx context.Context, ids []string) (bool, error) {
	return s.allExist(ctx, usersCollection, ids)
}

func (s *Store) RestaurantsExist(ctx context.Context, ids []string) (bool, error) {
	return s.allExist(ctx, restaurantsCollection, ids)
}

func (s *Store) GetUsers(ctx context.Context, ids []string) ([]models.User, error) {
	var docs []userDoc
	order, err := s.findMany(ctx, usersCollection, ids, &docs)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	byID := make(map[string]models.User, len(docs))
	for _, d := range docs {
		byID[d.ID.Hex()] = models.User{ID: d.ID.Hex(), Name: d.Name}
	}
	out := make([]models.User, 0, len(byID))
	for _, id := range order {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) GetRestaurants(ctx context.Context, ids []string) ([]models.Restaurant, error) {
	var docs []restaurantDoc
	order, err := s.findMany(ctx, restaurantsCollection, ids, &docs)
	if err != nil {
		return nil, fmt.Errorf("get restaurants: %w", err)
	}
	byID := make(map[string]models.Restaurant, len(docs))
	for _, d := range docs {
		byID[d.ID.Hex()] = models.Restaurant{ID: d.ID.Hex(), Name: d.Name, Address: d.Address}
	}
	out := make([]models.Restaurant, 0, len(byID))
	for _, id := range order {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) findByID(ctx context.Context, collection, id string, out any) error {
	oid, err := parseID(id)
	if err != nil {
		return models.ErrNotFound
	}
	err = s.db.Collection(collection).FindOne(ctx, bson.M{"_id": oid}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrNotFound
	}
	return err
}

// findMany decodes the documents whose ids are listed. It returns the
// valid, de-duplicated hex ids in request order.
func (s *Store) findMany(ctx context.Context, collection string, ids []string, out any) ([]string, error) {
	hexes, oids := objectIDs(ids)
	if len(oids) == 0 {
		return hexes, nil
	}
	cur, err := s.db.Collection(collection).Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	if err := cur.All(ctx, out); err != nil {
		return nil, err
	}
	return hexes, nil
}

func (s *Store) allExist(ctx context.Context, collection string, ids []string) (bool, error) {
	hexes, oids := objectIDs(ids)
	if len(hexes) != len(unique(ids)) {
		// a malformed id cannot exist
		return false, nil
	}
	if len(oids) == 0 {
		return true, nil
	}
	n, err := s.db.Collection(collection).CountDocuments(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return false, fmt.Errorf("check %s: %w", collection, err)
	}
	return int(n) == len(oids), nil
}

func objectIDs(ids []string) ([]string, []primitive.ObjectID) {
	hexes := make([]string, 0, len(ids))
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range unique(ids) {
		oid, err := parseID(id)
		if err != nil {
			continue
		}
		hexes = append(hexes, id)
		oids = append(oids, oid)
	}
	return hexes, oids
}

// parseID accepts only the lowercase hex that ObjectID.Hex produces, so
// every reference is stored and looked up under one spelling.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if oid.Hex() != id {
		return primitive.NilObjectID, fmt.Errorf("object id %q is not in canonical form", id)
	}
	return oid, nil
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

var _ lifecycle.Directory = (*Store)(nil)
