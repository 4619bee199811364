// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/quickly-decide/models"
)

const (
	maxUpdateAttempts = 5

	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Lifecycle is the only writer of poll status, opinions and results.
type Lifecycle struct {
	store Store
	dir   Directory
	now   func() time.Time
}

func New(store Store, dir Directory) *Lifecycle {
	return &Lifecycle{store: store, dir: dir, now: time.Now}
}

type CreateInput struct {
	Name      string
	Members   []string
	Options   []string
	LimitTime *int
}

type UpdateInput struct {
	Name    *string
	Members []string
	Options []string
}

// Create stores a new poll in POLLING with no opinions.
func (l *Lifecycle) Create(ctx context.Context, in CreateInput) (models.Poll, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Poll{}, fmt.Errorf("%w: name is required", models.ErrValidation)
	}
	if err := checkIDs("members", in.Members); err != nil {
		return models.Poll{}, err
	}
	if err := checkIDs("options", in.Options); err != nil {
		return models.Poll{}, err
	}
	if err := l.checkDirectory(ctx, in.Members, in.Options); err != nil {
		return models.Poll{}, err
	}

	var limit *int
	if in.LimitTime != nil {
		if *in.LimitTime < 0 {
			return models.Poll{}, fmt.Errorf("%w: limit_time must not be negative", models.ErrValidation)
		}
		if *in.LimitTime > 0 {
			v := *in.LimitTime
			limit = &v
		}
	}

	poll, err := l.store.InsertPoll(ctx, models.Poll{
		Name:      name,
		Members:   append([]string(nil), in.Members...),
		Options:   append([]string(nil), in.Options...),
		Status:    models.StatusPolling,
		StartTime: l.now().UTC().Truncate(time.Millisecond),
		LimitTime: limit,
		Opinions:  []models.Opinion{},
	})
	if err != nil {
		return models.Poll{}, fmt.Errorf("insert poll: %w", err)
	}

	slog.Info("poll created", "poll_id", poll.ID, "members", len(poll.Members), "options", len(poll.Options))
	return poll, nil
}

func (l *Lifecycle) Get(ctx context.Context, id string) (models.Poll, error) {
	return l.store.GetPoll(ctx, id)
}

// List normalizes paging and returns one page of polls.
func (l *Lifecycle) List(ctx context.Context, q models.PollQuery) (models.PollPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	switch q.Sort {
	case "":
		q.Sort = models.SortByID
	case models.SortByID, models.SortByName, models.SortByStartTime, models.SortByStatus:
	default:
		return models.PollPage{}, fmt.Errorf("%w: unknown sort key %q", models.ErrValidation, q.Sort)
	}
	if q.Status != "" && !q.Status.Valid() {
		return models.PollPage{}, fmt.Errorf("%w: unknown status %q", models.ErrValidation, q.Status)
	}

	polls, total, err := l.store.ListPolls(ctx, q)
	if err != nil {
		return models.PollPage{}, fmt.Errorf("list polls: %w", err)
	}
	if polls == nil {
		polls = []models.Poll{}
	}
	return models.PollPage{Docs: polls, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

// Update edits the descriptive fields of a polling poll. Opinions from
// removed members are dropped and removed options are struck from the rest.
func (l *Lifecycle) Update(ctx context.Context, id string, in UpdateInput) (models.Poll, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return models.Poll{}, fmt.Errorf("%w: name must not be empty", models.ErrValidation)
	}
	if in.Members != nil {
		if err := checkIDs("members", in.Members); err != nil {
			return models.Poll{}, err
		}
	}
	if in.Options != nil {
		if err := checkIDs("options", in.Options); err != nil {
			return models.Poll{}, err
		}
	}
	if err := l.checkDirectory(ctx, in.Members, in.Options); err != nil {
		return models.Poll{}, err
	}

	poll, err := l.mutate(ctx, id, func(p *models.Poll) error {
		if p.Status.Terminal() {
			return fmt.Errorf("%w: cannot update poll in status %s", models.ErrInvalidState, p.Status)
		}
		if in.Name != nil {
			p.Name = strings.TrimSpace(*in.Name)
		}
		if in.Members != nil {
			p.Members = append([]string(nil), in.Members...)
		}
		if in.Options != nil {
			p.Options = append([]string(nil), in.Options...)
		}
		p.Opinions = pruneOpinions(*p)
		return nil
	})
	if err != nil {
		return models.Poll{}, err
	}

	slog.Info("poll updated", "poll_id", id)
	return poll, nil
}

func (l *Lifecycle) Remove(ctx context.Context, id string) error {
	if err := l.store.DeletePoll(ctx, id); err != nil {
		return err
	}
	slog.Info("poll removed", "poll_id", id)
	return nil
}

// SubmitOpinion records member's selection, replacing any earlier one.
func (l *Lifecycle) SubmitOpinion(ctx context.Context, id, member string, options []string) (models.Poll, error) {
	member = strings.TrimSpace(member)
	if member == "" {
		return models.Poll{}, fmt.Errorf("%w: member is required", models.ErrValidation)
	}
	if err := checkIDs("options", options); err != nil {
		return models.Poll{}, err
	}
	if err := l.checkDirectory(ctx, []string{member}, options); err != nil {
		return models.Poll{}, err
	}

	poll, err := l.mutate(ctx, id, func(p *models.Poll) error {
		if p.Status.Terminal() {
			return fmt.Errorf("%w: cannot give opinion on poll in status %s", models.ErrInvalidState, p.Status)
		}
		if !p.HasMember(member) {
			return fmt.Errorf("%w: %s is not a member of poll %s", models.ErrValidation, member, p.ID)
		}
		for _, o := range options {
			if !p.HasOption(o) {
				return fmt.Errorf("%w: %s is not an option of poll %s", models.ErrValidation, o, p.ID)
			}
		}
		p.Opinions = upsertOpinion(p.Opinions, member, options)
		return nil
	})
	if err != nil {
		return models.Poll{}, err
	}

	slog.Info("opinion recorded", "poll_id", id, "member", member, "options", len(options))
	return poll, nil
}

// Decide completes a polling poll with result, which must be one of its options.
func (l *Lifecycle) Decide(ctx context.Context, id, result string) (models.Poll, error) {
	poll, err := l.mutate(ctx, id, func(p *models.Poll) error {
		if p.Status.Terminal() {
			return fmt.Errorf("%w: cannot decide poll in status %s", models.ErrInvalidState, p.Status)
		}
		if !p.HasOption(result) {
			return fmt.Errorf("%w: %q is not an option of poll %s", models.ErrValidation, result, p.ID)
		}
		r := result
		p.Status = models.StatusCompleted
		p.Result = &r
		return nil
	})
	if err != nil {
		return models.Poll{}, err
	}

	slog.Info("poll decided", "poll_id", id, "result", result)
	return poll, nil
}

// Abandon ends a polling poll without a result.
func (l *Lifecycle) Abandon(ctx context.Context, id string) (models.Poll, error) {
	poll, err := l.mutate(ctx, id, func(p *models.Poll) error {
		if p.Status.Terminal() {
			return fmt.Errorf("%w: cannot abandon poll in status %s", models.ErrInvalidState, p.Status)
		}
		p.Status = models.StatusAbandoned
		return nil
	})
	if err != nil {
		return models.Poll{}, err
	}

	slog.Info("poll abandoned", "poll_id", id)
	return poll, nil
}

// mutate applies fn to the latest stored poll and commits it with a
// version check, retrying when another writer got there first. An error
// from fn aborts without writing.
func (l *Lifecycle) mutate(ctx context.Context, id string, fn func(*models.Poll) error) (models.Poll, error) {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		current, err := l.store.GetPoll(ctx, id)
		if err != nil {
			return models.Poll{}, err
		}

		next := current.Clone()
		if err := fn(&next); err != nil {
			return models.Poll{}, err
		}

		saved, err := l.store.ReplacePoll(ctx, next)
		if errors.Is(err, models.ErrConflict) {
			slog.Debug("poll update conflict, retrying", "poll_id", id, "attempt", attempt)
			continue
		}
		if err != nil {
			return models.Poll{}, err
		}
		return saved, nil
	}
	return models.Poll{}, fmt.Errorf("%w: poll %s changed %d times during update", models.ErrConflict, id, maxUpdateAttempts)
}

func (l *Lifecycle) checkDirectory(ctx context.Context, members, options []string) error {
	if len(members) > 0 {
		ok, err := l.dir.UsersExist(ctx, members)
		if err != nil {
			return fmt.Errorf("look up members: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: unknown member id", models.ErrValidation)
		}
	}
	if len(options) > 0 {
		ok, err := l.dir.RestaurantsExist(ctx, options)
		if err != nil {
			return fmt.Errorf("look up options: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: unknown option id", models.ErrValidation)
		}
	}
	return nil
}

// checkIDs rejects blank and repeated ids.
func checkIDs(field string, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: %s must not be empty", models.ErrValidation, field)
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: %s contains a blank id", models.ErrValidation, field)
		}
		if seen[id] {
			return fmt.Errorf("%w: %s contains %s twice", models.ErrValidation, field, id)
		}
		seen[id] = true
	}
	return nil
}
