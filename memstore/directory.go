// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package memstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-decide/lifecycle"
	"github.com/danielhkuo/quickly-decide/models"
)

func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	user.ID = uuid.NewString()
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("%w: user %s", models.ErrNotFound, id)
	}
	return user, nil
}

func (s *Store) CreateRestaurant(ctx context.Context, restaurant models.Restaurant) (models.Restaurant, error) {
	if err := ctx.Err(); err != nil {
		return models.Restaurant{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	restaurant.ID = uuid.NewString()
	s.restaurants[restaurant.ID] = restaurant
	return restaurant, nil
}

func (s *Store) GetRestaurant(ctx context.Context, id string) (models.Restaurant, error) {
	if err := ctx.Err(); err != nil {
		return models.Restaurant{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	restaurant, ok := s.restaurants[id]
	if !ok {
		return models.Restaurant{}, fmt.Errorf("%w: restaurant %s", models.ErrNotFound, id)
	}
	return restaurant, nil
}

func (s *Store) UsersExist(ctx context.Context, ids []string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range ids {
		if _, ok := s.users[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func (s *Store) RestaurantsExist(ctx context.Context, ids []string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range ids {
		if _, ok := s.restaurants[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func (s *Store) GetUsers(ctx context.Context, ids []string) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) GetRestaurants(ctx context.Context, ids []string) ([]models.Restaurant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Restaurant, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.restaurants[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

var _ lifecycle.Directory = (*Store)(nil)
