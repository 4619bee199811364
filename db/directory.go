// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-decide/lifecycle"
	"github.com/danielhkuo/quickly-decide/models"
)

func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	user.ID = uuid.NewString()
	_, err := s.conn.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO users (id, name) VALUES (?, ?)
	`), user.ID, user.Name)
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := s.conn.QueryRowContext(ctx, s.dialect.rebind(`
		SELECT id, name FROM users WHERE id = ?
	`), id).Scan(&u.ID, &u.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("%w: user %s", models.ErrNotFound, id)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) CreateRestaurant(ctx context.Context, r models.Restaurant) (models.Restaurant, error) {
	r.ID = uuid.NewString()
	_, err := s.conn.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO restaurants (id, name, address) VALUES (?, ?, ?)
	`), r.ID, r.Name, r.Address)
	if err != nil {
		return models.Restaurant{}, fmt.Errorf("insert restaurant: %w", err)
	}
	return r, nil
}

func (s *Store) GetRestaurant(ctx context.Context, id string) (models.Restaurant, error) {
	var r models.Restaurant
	err := s.conn.QueryRowContext(ctx, s.dialect.rebind(`
		SELECT id, name, address FROM restaurants WHERE id = ?
	`), id).Scan(&r.ID, &r.Name, &r.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Restaurant{}, fmt.Errorf("%w: restaurant %s", models.ErrNotFound, id)
	}
	if err != nil {
		return models.Restaurant{}, fmt.Errorf("get restaurant: %w", err)
	}
	return r, nil
}

func (s *Store) UsersExist(ctx context.Context, ids []string) (bool, error) {
	return s.allExist(ctx, "users", ids)
}

func (s *Store) RestaurantsExist(ctx context.Context, ids []string) (bool, error) {
	return s.allExist(ctx, "restaurants", ids)
}

func (s *Store) GetUsers(ctx context.Context, ids []string) ([]models.User, error) {
	ids = unique(ids)
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	rows, err := s.conn.QueryContext(ctx, s.dialect.rebind(`
		SELECT id, name FROM users WHERE id IN (`+placeholders(len(ids))+`)
	`), toArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]models.User, len(ids))
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		byID[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}

	out := make([]models.User, 0, len(byID))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) GetRestaurants(ctx context.Context, ids []string) ([]models.Restaurant, error) {
	ids = unique(ids)
	if len(ids) == 0 {
		return []models.Restaurant{}, nil
	}
	rows, err := s.conn.QueryContext(ctx, s.dialect.rebind(`
		SELECT id, name, address FROM restaurants WHERE id IN (`+placeholders(len(ids))+`)
	`), toArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("get restaurants: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]models.Restaurant, len(ids))
	for rows.Next() {
		var r models.Restaurant
		if err := rows.Scan(&r.ID, &r.Name, &r.Address); err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		byID[r.ID] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get restaurants: %w", err)
	}

	out := make([]models.Restaurant, 0, len(byID))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// allExist is true when every id in ids has a row in table. table is
// always a constant from this package.
func (s *Store) allExist(ctx context.Context, table string, ids []string) (bool, error) {
	ids = unique(ids)
	if len(ids) == 0 {
		return true, nil
	}
	var n int
	err := s.conn.QueryRowContext(ctx, s.dialect.rebind(`
		SELECT COUNT(*) FROM `+table+` WHERE id IN (`+placeholders(len(ids))+`)
	`), toArgs(ids)...).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", table, err)
	}
	return n == len(ids), nil
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

func toArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

var _ lifecycle.Directory = (*Store)(nil)
