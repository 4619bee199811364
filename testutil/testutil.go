// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-decide/cliparse"
	"github.com/danielhkuo/quickly-decide/db"
	"github.com/danielhkuo/quickly-decide/models"
)

// PostgresURLEnv names the variable that enables Postgres-backed tests.
const PostgresURLEnv = "TEST_POSTGRES_URL"

// SetupTestDB opens a private in-memory SQLite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	conn, err := db.Open(context.Background(), db.DialectSQLite, dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

// SetupPostgresDB connects to TEST_POSTGRES_URL with a clean schema, or
// skips the test when it is unset.
func SetupPostgresDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv(PostgresURLEnv)
	if url == "" {
		t.Skipf("%s not set", PostgresURLEnv)
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, db.DialectPostgres, url)
	if err != nil {
		t.Fatalf("Failed to open postgres: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// Clean up tables before each test
	if _, err := conn.ExecContext(ctx, `DROP TABLE IF EXISTS polls, users, restaurants CASCADE`); err != nil {
		t.Fatalf("Failed to clean database: %v", err)
	}
	if err := db.CreateSchema(ctx, conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseURL:   "file::memory:",
		DatabaseType:  cliparse.DatabaseSQLite,
		MongoDatabase: "quickly_decide_test",
		AdminKeySalt:  "test-admin-salt",
		LogLevel:      "debug",
		LogFormat:     "text",
		TickInterval:  time.Millisecond,
	}
}

// DirectoryWriter registers users and restaurants. Every store implements it.
type DirectoryWriter interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	CreateRestaurant(ctx context.Context, r models.Restaurant) (models.Restaurant, error)
}

// SeedUsers registers one user per name and returns their ids in order
func SeedUsers(t *testing.T, dir DirectoryWriter, names ...string) []string {
	t.Helper()

	ids := make([]string, 0, len(names))
	for _, name := range names {
		u, err := dir.CreateUser(context.Background(), models.User{Name: name})
		if err != nil {
			t.Fatalf("Failed to create test user: %v", err)
		}
		ids = append(ids, u.ID)
	}
	return ids
}

// SeedRestaurants registers one restaurant per name and returns their ids in order
func SeedRestaurants(t *testing.T, dir DirectoryWriter, names ...string) []string {
	t.Helper()

	ids := make([]string, 0, len(names))
	for _, name := range names {
		r, err := dir.CreateRestaurant(context.Background(), models.Restaurant{Name: name, Address: name + " St"})
		if err != nil {
			t.Fatalf("Failed to create test restaurant: %v", err)
		}
		ids = append(ids, r.ID)
	}
	return ids
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
