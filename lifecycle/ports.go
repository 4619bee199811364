// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"context"

	"github.com/danielhkuo/quickly-decide/models"
)

// Store persists poll records. Implementations return models.ErrNotFound
// for unknown ids.
type Store interface {
	// InsertPoll assigns an id and version to poll and stores it.
	InsertPoll(ctx context.Context, poll models.Poll) (models.Poll, error)
	GetPoll(ctx context.Context, id string) (models.Poll, error)
	// ListPolls returns one page of matches and the total match count.
	ListPolls(ctx context.Context, query models.PollQuery) ([]models.Poll, int, error)
	// ReplacePoll writes poll only if the stored version still equals
	// poll.Version, returning models.ErrConflict otherwise. The saved
	// record carries the next version.
	ReplacePoll(ctx context.Context, poll models.Poll) (models.Poll, error)
	DeletePoll(ctx context.Context, id string) error
}

// Directory answers existence and lookup questions about the users and
// restaurants a poll refers to.
type Directory interface {
	UsersExist(ctx context.Context, ids []string) (bool, error)
	RestaurantsExist(ctx context.Context, ids []string) (bool, error)
	// GetUsers and GetRestaurants skip ids they do not know.
	GetUsers(ctx context.Context, ids []string) ([]models.User, error)
	GetRestaurants(ctx context.Context, ids []string) ([]models.Restaurant, error)
}
