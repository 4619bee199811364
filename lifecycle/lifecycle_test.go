// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/quickly-decide/lifecycle"
	"github.com/danielhkuo/quickly-decide/memstore"
	"github.com/danielhkuo/quickly-decide/models"
)

type fixture struct {
	store *memstore.Store
	lc    *lifecycle.Lifecycle
	users []string
	opts  []string
}

// newFixture seeds two users and three restaurants.
func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()

	f := fixture{store: store, lc: lifecycle.New(store, store)}
	for _, name := range []string{"Ada", "Grace"} {
		u, err := store.CreateUser(ctx, models.User{Name: name})
		if err != nil {
			t.Fatalf("create user: %v", err)
		}
		f.users = append(f.users, u.ID)
	}
	for _, name := range []string{"Noodle Bar", "Taqueria", "Deli"} {
		r, err := store.CreateRestaurant(ctx, models.Restaurant{Name: name, Address: "Main St"})
		if err != nil {
			t.Fatalf("create restaurant: %v", err)
		}
		f.opts = append(f.opts, r.ID)
	}
	return f
}

func (f fixture) createPoll(t *testing.T) models.Poll {
	t.Helper()
	poll, err := f.lc.Create(context.Background(), lifecycle.CreateInput{
		Name:    "lunch",
		Members: f.users,
		Options: f.opts[:2],
	})
	if err != nil {
		t.Fatalf("create poll: %v", err)
	}
	return poll
}

func TestCreateDefaults(t *testing.T) {
	f := newFixture(t)
	limit := 15

	poll, err := f.lc.Create(context.Background(), lifecycle.CreateInput{
		Name:      "  lunch  ",
		Members:   f.users,
		Options:   f.opts,
		LimitTime: &limit,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if poll.ID == "" {
		t.Error("expected an id to be assigned")
	}
	if poll.Name != "lunch" {
		t.Errorf("expected trimmed name, got %q", poll.Name)
	}
	if poll.Status != models.StatusPolling {
		t.Errorf("expected POLLING, got %s", poll.Status)
	}
	if poll.StartTime.IsZero() {
		t.Error("expected start time to be set")
	}
	if len(poll.Opinions) != 0 || poll.Result != nil {
		t.Errorf("expected no opinions and no result, got %+v", poll)
	}
	if poll.LimitTime == nil || *poll.LimitTime != 15 {
		t.Errorf("expected limit 15, got %v", poll.LimitTime)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	negative := -1

	tests := []struct {
		name string
		in   lifecycle.CreateInput
	}{
		{"missing name", lifecycle.CreateInput{Members: f.users, Options: f.opts}},
		{"no options", lifecycle.CreateInput{Name: "x", Members: f.users}},
		{"no members", lifecycle.CreateInput{Name: "x", Options: f.opts}},
		{"duplicate option", lifecycle.CreateInput{Name: "x", Members: f.users, Options: []string{f.opts[0], f.opts[0]}}},
		{"unknown member", lifecycle.CreateInput{Name: "x", Members: []string{"ghost"}, Options: f.opts}},
		{"unknown option", lifecycle.CreateInput{Name: "x", Members: f.users, Options: []string{"nowhere"}}},
		{"negative limit", lifecycle.CreateInput{Name: "x", Members: f.users, Options: f.opts, LimitTime: &negative}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.lc.Create(context.Background(), tt.in)
			if !errors.Is(err, models.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateZeroLimitMeansNoLimit(t *testing.T) {
	f := newFixture(t)
	zero := 0

	poll, err := f.lc.Create(context.Background(), lifecycle.CreateInput{
		Name: "x", Members: f.users, Options: f.opts, LimitTime: &zero,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if poll.LimitTime != nil {
		t.Errorf("expected no limit, got %d", *poll.LimitTime)
	}
}

func TestSubmitOpinionReplacesPreviousEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	poll := f.createPoll(t)

	if _, err := f.lc.SubmitOpinion(ctx, poll.ID, f.users[0], []string{f.opts[0], f.opts[1]}); err != nil {
		t.Fatalf("first opinion: %v", err)
	}
	if _, err := f.lc.SubmitOpinion(ctx, poll.ID, f.users[1], []string{f.opts[0]}); err != nil {
		t.Fatalf("other member opinion: %v", err)
	}
	got, err := f.lc.SubmitOpinion(ctx, poll.ID, f.users[0], []string{f.opts[1]})
	if err != nil {
		t.Fatalf("second opinion: %v", err)
	}

	if len(got.Opinions) != 2 {
		t.Fatalf("expected 2 opinion entries, got %d", len(got.Opinions))
	}
	count := 0
	for _, op := range got.Opinions {
		if op.Member != f.users[0] {
			continue
		}
		count++
		if len(op.Options) != 1 || op.Options[0] != f.opts[1] {
			t.Errorf("expected only the latest selection, got %v", op.Options)
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one entry for member, got %d", count)
	}

	// the other member's entry is untouched and keeps its position
	if got.Opinions[1].Member != f.users[1] || got.Opinions[1].Options[0] != f.opts[0] {
		t.Errorf("other member's opinion changed: %+v", got.Opinions[1])
	}
}

func TestSubmitOpinionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	poll := f.createPoll(t)

	outsider, err := f.store.CreateUser(ctx, models.User{Name: "Outsider"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	tests := []struct {
		name    string
		member  string
		options []string
	}{
		{"unknown member", "ghost", []string{f.opts[0]}},
		{"known user outside poll", outsider.ID, []string{f.opts[0]}},
		{"unknown option", f.users[0], []string{"nowhere"}},
		{"restaurant not offered by poll", f.users[0], []string{f.opts[2]}},
		{"empty selection", f.users[0], nil},
		{"duplicate selection", f.users[0], []string{f.opts[0], f.opts[0]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.lc.SubmitOpinion(ctx, poll.ID, tt.member, tt.options)
			if !errors.Is(err, models.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}

	stored, _ := f.lc.Get(ctx, poll.ID)
	if len(stored.Opinions) != 0 {
		t.Errorf("failed submissions wrote opinions: %+v", stored.Opinions)
	}
}

func TestDecideThenAbandonFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	poll, err := f.lc.Create(ctx, lifecycle.CreateInput{
		Name: "lunch", Members: f.users[:1], Options: f.opts[:2],
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	a := f.opts[0]

	if _, err := f.lc.SubmitOpinion(ctx, poll.ID, f.users[0], []string{a}); err != nil {
		t.Fatalf("opinion: %v", err)
	}
	decided, err := f.lc.Decide(ctx, poll.ID, a)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if decided.Status != models.StatusCompleted || decided.Result == nil || *decided.Result != a {
		t.Errorf("expected COMPLETED with result %s, got %s %v", a, decided.Status, decided.Result)
	}

	if _, err := f.lc.Abandon(ctx, poll.ID); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("expected invalid state on abandon, got %v", err)
	}
	if _, err := f.lc.Decide(ctx, poll.ID, a); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("expected invalid state on second decide, got %v", err)
	}
	if _, err := f.lc.SubmitOpinion(ctx, poll.ID, f.users[0], []string{a}); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("expected invalid state on late opinion, got %v", err)
	}
}

func TestAbandonThenDecideFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	poll := f.createPoll(t)

	abandoned, err := f.lc.Abandon(ctx, poll.ID)
	if err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if abandoned.Status != models.StatusAbandoned || abandoned.Result != nil {
		t.Errorf("expected ABANDONED without result, got %s %v", abandoned.Status, abandoned.Result)
	}

	for _, option := range poll.Options {
		if _, err := f.lc.Decide(ctx, poll.ID, option); !errors.Is(err, models.ErrInvalidState) {
			t.Errorf("expected invalid state deciding %s, got %v", option, err)
		}
	}
	if _, err := f.lc.Abandon(ctx, poll.ID); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("expected invalid state on second abandon, got %v", err)
	}
}

func TestDecideOutsideOptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	poll := f.createPoll(t)

	_, err := f.lc.Decide(ctx, poll.ID, f.opts[2])
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	stored, err := f.lc.Get(ctx, poll.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != models.StatusPolling || stored.Result != nil {
		t.Errorf("failed decide changed the poll: %s %v", stored.Status, stored.Result)
	}
}

func TestUnknownPoll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	checks := map[string]func() error{
		"get":     func() error { _, err := f.lc.Get(ctx, "missing"); return err },
		"decide":  func() error { _, err := f.lc.Decide(ctx, "missing", f.opts[0]); return err },
		"abandon": func() error { _, err := f.lc.Abandon(ctx, "missing"); return err },
		"opinion": func() error { _, err := f.lc.SubmitOpinion(ctx, "missing", f.users[0], f.opts[:1]); return err },
		"remove":  func() error { return f.lc.Remove(ctx, "missing") },
	}
	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			if err := check(); !errors.Is(err, models.ErrNotFound) {
				t.Errorf("expected not found, got %v", err)
			}
		})
	}
}

func TestConcurrentDecideSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	poll := f.createPoll(t)

	const attempts = 20
	var wins, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.lc.Decide(ctx, poll.ID, poll.Options[i%2])
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, models.ErrInvalidState), errors.Is(err, models.ErrConflict):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("expected exactly one successful decide, got %d", wins.Load())
	}
	if wins.Load()+rejected.Load() != attempts {
		t.Errorf("expected every call to resolve, got %d wins and %d rejections", wins.Load(), rejected.Load())
	}
}

// flakyStore reports a conflict on the first n replaces.
type flakyStore struct {
	*memstore.Store
	conflicts int
}

func (s *flakyStore) ReplacePoll(ctx context.Context, p models.Poll) (models.Poll, error) {
	if s.conflicts > 0 {
		s.conflicts--
		return models.Poll{}, fmt.Errorf("%w: injected", models.ErrConflict)
	}
	return s.Store.ReplacePoll(ctx, p)
}

func TestMutationRetriesOnConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	poll := f.createPoll(t)

	flaky := &flakyStore{Store: f.store, conflicts: 2}
	lc := lifecycle.New(flaky, f.store)
	if _, err := lc.Abandon(ctx, poll.ID); err != nil {
		t.Fatalf("expected abandon to succeed after retries, got %v", err)
	}

	flaky.conflicts = 100
	poll = f.createPoll(t)
	if _, err := lc.Abandon(ctx, poll.ID); !errors.Is(err, models.ErrConflict) {
		t.Errorf("expected conflict once retries run out, got %v", err)
	}
	stored, _ := f.lc.Get(ctx, poll.ID)
	if stored.Status != models.StatusPolling {
		t.Errorf("expected poll untouched, got %s", stored.Status)
	}
}

func TestUpdatePrunesOpinions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	poll := f.createPoll(t)

	if _, err := f.lc.SubmitOpinion(ctx, poll.ID, f.users[0], []string{f.opts[0], f.opts[1]}); err != nil {
		t.Fatalf("opinion: %v", err)
	}
	if _, err := f.lc.SubmitOpinion(ctx, poll.ID, f.users[1], []string{f.opts[1]}); err != nil {
		t.Fatalf("opinion: %v", err)
	}

	name := "dinner"
	updated, err := f.lc.Update(ctx, poll.ID, lifecycle.UpdateInput{
		Name:    &name,
		Options: []string{f.opts[0], f.opts[2]},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Name != "dinner" {
		t.Errorf("expected renamed poll, got %q", updated.Name)
	}
	if len(updated.Opinions) != 1 {
		t.Fatalf("expected one surviving opinion, got %+v", updated.Opinions)
	}
	if op := updated.Opinions[0]; op.Member != f.users[0] || len(op.Options) != 1 || op.Options[0] != f.opts[0] {
		t.Errorf("unexpected surviving opinion %+v", op)
	}
	if updated.Status != models.StatusPolling || !updated.StartTime.Equal(poll.StartTime) {
		t.Error("update must not touch status or start time")
	}
}

func TestUpdateRejectedWhenTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	poll := f.createPoll(t)

	if _, err := f.lc.Abandon(ctx, poll.ID); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	name := "again"
	if _, err := f.lc.Update(ctx, poll.ID, lifecycle.UpdateInput{Name: &name}); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("expected invalid state, got %v", err)
	}
}

func TestListPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		p := f.createPoll(t)
		if i%2 == 0 {
			if _, err := f.lc.Abandon(ctx, p.ID); err != nil {
				t.Fatalf("abandon: %v", err)
			}
		}
	}

	page, err := f.lc.List(ctx, models.PollQuery{Status: models.StatusAbandoned, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 3 || len(page.Docs) != 2 || page.Page != 1 || page.Limit != 2 {
		t.Errorf("unexpected first page: total=%d docs=%d page=%d limit=%d", page.Total, len(page.Docs), page.Page, page.Limit)
	}

	page, err = f.lc.List(ctx, models.PollQuery{Status: models.StatusAbandoned, Limit: 2, Page: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Docs) != 1 {
		t.Errorf("expected 1 poll on the second page, got %d", len(page.Docs))
	}

	if _, err := f.lc.List(ctx, models.PollQuery{Sort: "votes"}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("expected validation error for bad sort, got %v", err)
	}
}

func TestViewResolvesReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	poll := f.createPoll(t)

	poll, err := f.lc.SubmitOpinion(ctx, poll.ID, f.users[1], []string{f.opts[1]})
	if err != nil {
		t.Fatalf("opinion: %v", err)
	}
	poll, err = f.lc.Decide(ctx, poll.ID, f.opts[1])
	if err != nil {
		t.Fatalf("decide: %v", err)
	}

	view, err := f.lc.View(ctx, poll)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(view.Members) != 2 || view.Members[0].Name != "Ada" {
		t.Errorf("unexpected members %+v", view.Members)
	}
	if len(view.Options) != 2 || view.Options[1].Name != "Taqueria" {
		t.Errorf("unexpected options %+v", view.Options)
	}
	if len(view.Opinions) != 1 || view.Opinions[0].Member == nil || view.Opinions[0].Member.Name != "Grace" {
		t.Errorf("unexpected opinions %+v", view.Opinions)
	}
	if view.Result == nil || view.Result.Name != "Taqueria" {
		t.Errorf("unexpected result %+v", view.Result)
	}
}
