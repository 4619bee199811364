// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"context"
	"fmt"

	"github.com/danielhkuo/quickly-decide/models"
)

// View resolves a poll's member, option and result ids against the
// directory. Ids the directory no longer knows are left out.
func (l *Lifecycle) View(ctx context.Context, p models.Poll) (models.PollView, error) {
	userIDs := append([]string(nil), p.Members...)
	restaurantIDs := append([]string(nil), p.Options...)
	for _, op := range p.Opinions {
		userIDs = append(userIDs, op.Member)
		restaurantIDs = append(restaurantIDs, op.Options...)
	}
	if p.Result != nil {
		restaurantIDs = append(restaurantIDs, *p.Result)
	}

	users, err := l.dir.GetUsers(ctx, dedupe(userIDs))
	if err != nil {
		return models.PollView{}, fmt.Errorf("resolve members: %w", err)
	}
	restaurants, err := l.dir.GetRestaurants(ctx, dedupe(restaurantIDs))
	if err != nil {
		return models.PollView{}, fmt.Errorf("resolve options: %w", err)
	}

	userByID := make(map[string]models.User, len(users))
	for _, u := range users {
		userByID[u.ID] = u
	}
	restaurantByID := make(map[string]models.Restaurant, len(restaurants))
	for _, r := range restaurants {
		restaurantByID[r.ID] = r
	}
	pickRestaurants := func(ids []string) []models.Restaurant {
		out := make([]models.Restaurant, 0, len(ids))
		for _, id := range ids {
			if r, ok := restaurantByID[id]; ok {
				out = append(out, r)
			}
		}
		return out
	}

	view := models.PollView{
		ID:        p.ID,
		Name:      p.Name,
		Members:   make([]models.User, 0, len(p.Members)),
		Options:   pickRestaurants(p.Options),
		Status:    p.Status,
		StartTime: p.StartTime,
		LimitTime: p.LimitTime,
		Opinions:  make([]models.OpinionView, 0, len(p.Opinions)),
	}
	for _, id := range p.Members {
		if u, ok := userByID[id]; ok {
			view.Members = append(view.Members, u)
		}
	}
	for _, op := range p.Opinions {
		ov := models.OpinionView{Options: pickRestaurants(op.Options)}
		if u, ok := userByID[op.Member]; ok {
			ov.Member = &u
		}
		view.Opinions = append(view.Opinions, ov)
	}
	if p.Result != nil {
		if r, ok := restaurantByID[*p.Result]; ok {
			view.Result = &r
		}
	}
	return view, nil
}

func dedupe(ids []string) []string {
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
