// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-decide/lifecycle"
	"github.com/danielhkuo/quickly-decide/models"
)

// Store keeps polls, users and restaurants in process memory.
type Store struct {
	mu          sync.RWMutex
	polls       map[string]models.Poll
	users       map[string]models.User
	restaurants map[string]models.Restaurant
}

func New() *Store {
	return &Store{
		polls:       make(map[string]models.Poll),
		users:       make(map[string]models.User),
		restaurants: make(map[string]models.Restaurant),
	}
}

func (s *Store) InsertPoll(ctx context.Context, poll models.Poll) (models.Poll, error) {
	if err := ctx.Err(); err != nil {
		return models.Poll{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	poll = poll.Clone()
	poll.ID = uuid.NewString()
	poll.Version = 1
	s.polls[poll.ID] = poll
	return poll.Clone(), nil
}

func (s *Store) GetPoll(ctx context.Context, id string) (models.Poll, error) {
	if err := ctx.Err(); err != nil {
		return models.Poll{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	poll, ok := s.polls[id]
	if !ok {
		return models.Poll{}, fmt.Errorf("%w: poll %s", models.ErrNotFound, id)
	}
	return poll.Clone(), nil
}

func (s *Store) ListPolls(ctx context.Context, q models.PollQuery) ([]models.Poll, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	matches := make([]models.Poll, 0, len(s.polls))
	for _, p := range s.polls {
		if matchesQuery(p, q) {
			matches = append(matches, p.Clone())
		}
	}
	s.mu.RUnlock()

	sortPolls(matches, q.Sort)

	total := len(matches)
	start := min(max(q.Offset(), 0), total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}
	return matches[start:end], total, nil
}

func (s *Store) ReplacePoll(ctx context.Context, poll models.Poll) (models.Poll, error) {
	if err := ctx.Err(); err != nil {
		return models.Poll{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.polls[poll.ID]
	if !ok {
		return models.Poll{}, fmt.Errorf("%w: poll %s", models.ErrNotFound, poll.ID)
	}
	if stored.Version != poll.Version {
		return models.Poll{}, fmt.Errorf("%w: poll %s at version %d, write based on %d",
			models.ErrConflict, poll.ID, stored.Version, poll.Version)
	}

	poll = poll.Clone()
	poll.Version++
	s.polls[poll.ID] = poll
	return poll.Clone(), nil
}

func (s *Store) DeletePoll(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.polls[id]; !ok {
		return fmt.Errorf("%w: poll %s", models.ErrNotFound, id)
	}
	delete(s.polls, id)
	return nil
}

func matchesQuery(p models.Poll, q models.PollQuery) bool {
	if q.Name != "" && !strings.Contains(p.Name, q.Name) {
		return false
	}
	if q.Status != "" && p.Status != q.Status {
		return false
	}
	if q.Result != "" && (p.Result == nil || *p.Result != q.Result) {
		return false
	}
	if q.IsTimeLimit != nil && (p.LimitTime != nil) != *q.IsTimeLimit {
		return false
	}
	return true
}

func sortPolls(polls []models.Poll, key string) {
	less := func(a, b models.Poll) bool { return a.ID < b.ID }
	switch key {
	case models.SortByName:
		less = func(a, b models.Poll) bool { return a.Name < b.Name }
	case models.SortByStartTime:
		less = func(a, b models.Poll) bool { return a.StartTime.Before(b.StartTime) }
	case models.SortByStatus:
		less = func(a, b models.Poll) bool { return a.Status < b.Status }
	}
	sort.SliceStable(polls, func(i, j int) bool {
		if less(polls[i], polls[j]) {
			return true
		}
		if less(polls[j], polls[i]) {
			return false
		}
		return polls[i].ID < polls[j].ID
	})
}

var _ lifecycle.Store = (*Store)(nil)
