// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-decide/auth"
	"github.com/danielhkuo/quickly-decide/cliparse"
	"github.com/danielhkuo/quickly-decide/db"
	"github.com/danielhkuo/quickly-decide/expiry"
	"github.com/danielhkuo/quickly-decide/lifecycle"
	"github.com/danielhkuo/quickly-decide/models"
	"github.com/danielhkuo/quickly-decide/router"
	"github.com/danielhkuo/quickly-decide/testutil"
)

// testEnv is the full API over an in-memory SQLite store, seeded with
// three users and three restaurants.
type testEnv struct {
	mux   http.Handler
	store *db.Store
	lc    *lifecycle.Lifecycle
	sched *expiry.Scheduler
	cfg   cliparse.Config
	users []string
	opts  []string
}

func setupEnv(t *testing.T, tick time.Duration) testEnv {
	t.Helper()

	store := db.NewStore(testutil.SetupTestDB(t), db.DialectSQLite)
	lc := lifecycle.New(store, store)
	sched := expiry.NewScheduler(lc, tick)
	t.Cleanup(sched.Close)

	cfg := testutil.GetTestConfig()
	cfg.TickInterval = tick

	return testEnv{
		mux: router.NewRouter(router.Deps{
			Lifecycle: lc,
			Directory: store,
			Scheduler: sched,
			Config:    cfg,
		}),
		store: store,
		lc:    lc,
		sched: sched,
		cfg:   cfg,
		users: testutil.SeedUsers(t, store, "Alice", "Bob", "Charlie"),
		opts:  testutil.SeedRestaurants(t, store, "Pizza", "Sushi", "Tacos"),
	}
}

// do serves one request; a non-empty adminKey is sent as X-Admin-Key.
func (e testEnv) do(method, path string, body any, adminKey string) *httptest.ResponseRecorder {
	headers := map[string]string{}
	if adminKey != "" {
		headers[auth.AdminKeyHeader] = adminKey
	}
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, testutil.MakeRequest(method, path, body, headers))
	return w
}

func (e testEnv) createPoll(t *testing.T, limit *int) models.CreatePollResponse {
	t.Helper()

	w := e.do("POST", "/polls", models.CreatePollRequest{
		Name:      "Lunch",
		Members:   e.users,
		Options:   e.opts,
		LimitTime: limit,
	}, "")
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.CreatePollResponse
	testutil.AssertJSON(t, w, &resp)
	return resp
}

// testContext stands in for t.Context (Go 1.24+): a context cancelled when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
