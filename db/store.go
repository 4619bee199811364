// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-decide/lifecycle"
	"github.com/danielhkuo/quickly-decide/models"
)

// Store keeps polls, users and restaurants in a SQL database.
type Store struct {
	conn    *sql.DB
	dialect Dialect
}

func NewStore(conn *sql.DB, dialect Dialect) *Store {
	return &Store{conn: conn, dialect: dialect}
}

const pollColumns = `id, name, members, options, status, start_time, limit_time, opinions, result, version`

var sortColumns = map[string]string{
	models.SortByID:        "id",
	models.SortByName:      "name",
	models.SortByStartTime: "start_time",
	models.SortByStatus:    "status",
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func (s *Store) InsertPoll(ctx context.Context, poll models.Poll) (models.Poll, error) {
	poll = poll.Clone()
	poll.ID = uuid.NewString()
	poll.Version = 1

	row, err := encodePoll(poll)
	if err != nil {
		return models.Poll{}, err
	}

	_, err = s.conn.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO polls (`+pollColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), poll.ID, poll.Name, row.members, row.options, string(poll.Status),
		toMillis(poll.StartTime), row.limitTime, row.opinions, row.result, poll.Version)
	if err != nil {
		return models.Poll{}, fmt.Errorf("insert poll: %w", err)
	}
	return poll, nil
}

func (s *Store) GetPoll(ctx context.Context, id string) (models.Poll, error) {
	row := s.conn.QueryRowContext(ctx, s.dialect.rebind(`
		SELECT `+pollColumns+` FROM polls WHERE id = ?
	`), id)

	poll, err := scanPoll(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Poll{}, fmt.Errorf("%w: poll %s", models.ErrNotFound, id)
	}
	if err != nil {
		return models.Poll{}, fmt.Errorf("get poll: %w", err)
	}
	return poll, nil
}

func (s *Store) ListPolls(ctx context.Context, q models.PollQuery) ([]models.Poll, int, error) {
	var (
		where []string
		args  []any
	)
	if q.Name != "" {
		where = append(where, s.dialect.containsExpr("name"))
		args = append(args, q.Name)
	}
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(q.Status))
	}
	if q.Result != "" {
		where = append(where, "result = ?")
		args = append(args, q.Result)
	}
	if q.IsTimeLimit != nil {
		if *q.IsTimeLimit {
			where = append(where, "limit_time IS NOT NULL")
		} else {
			where = append(where, "limit_time IS NULL")
		}
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	err := s.conn.QueryRowContext(ctx, s.dialect.rebind(`SELECT COUNT(*) FROM polls`+clause), args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count polls: %w", err)
	}

	order, ok := sortColumns[q.Sort]
	if !ok {
		order = "id"
	}
	query := `SELECT ` + pollColumns + ` FROM polls` + clause + ` ORDER BY ` + order + `, id`
	if q.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.Limit, max(q.Offset(), 0))
	}

	rows, err := s.conn.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list polls: %w", err)
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan poll: %w", err)
		}
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list polls: %w", err)
	}
	return polls, total, nil
}

// ReplacePoll rewrites the mutable columns of poll with a compare-and-set
// on version. start_time and limit_time are never rewritten.
func (s *Store) ReplacePoll(ctx context.Context, poll models.Poll) (models.Poll, error) {
	row, err := encodePoll(poll)
	if err != nil {
		return models.Poll{}, err
	}

	res, err := s.conn.ExecContext(ctx, s.dialect.rebind(`
		UPDATE polls
		SET name = ?, members = ?, options = ?, status = ?, opinions = ?, result = ?, version = version + 1
		WHERE id = ? AND version = ?
	`), poll.Name, row.members, row.options, string(poll.Status), row.opinions, row.result, poll.ID, poll.Version)
	if err != nil {
		return models.Poll{}, fmt.Errorf("update poll: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return models.Poll{}, fmt.Errorf("update poll: %w", err)
	}
	if n == 0 {
		var current int64
		err := s.conn.QueryRowContext(ctx, s.dialect.rebind(`SELECT version FROM polls WHERE id = ?`), poll.ID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return models.Poll{}, fmt.Errorf("%w: poll %s", models.ErrNotFound, poll.ID)
		}
		if err != nil {
			return models.Poll{}, fmt.Errorf("check poll version: %w", err)
		}
		return models.Poll{}, fmt.Errorf("%w: poll %s at version %d, write based on %d",
			models.ErrConflict, poll.ID, current, poll.Version)
	}

	saved := poll.Clone()
	saved.Version++
	return saved, nil
}

func (s *Store) DeletePoll(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, s.dialect.rebind(`DELETE FROM polls WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete poll: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete poll: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: poll %s", models.ErrNotFound, id)
	}
	return nil
}

type pollRow struct {
	members   string
	options   string
	opinions  string
	limitTime sql.NullInt64
	result    sql.NullString
}

func encodePoll(p models.Poll) (pollRow, error) {
	var row pollRow
	for _, f := range []struct {
		dst *string
		v   any
	}{
		{&row.members, nonNil(p.Members)},
		{&row.options, nonNil(p.Options)},
		{&row.opinions, nonNilOpinions(p.Opinions)},
	} {
		b, err := json.Marshal(f.v)
		if err != nil {
			return pollRow{}, fmt.Errorf("encode poll: %w", err)
		}
		*f.dst = string(b)
	}
	if p.LimitTime != nil {
		row.limitTime = sql.NullInt64{Int64: int64(*p.LimitTime), Valid: true}
	}
	if p.Result != nil {
		row.result = sql.NullString{String: *p.Result, Valid: true}
	}
	return row, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPoll(sc scanner) (models.Poll, error) {
	var (
		p         models.Poll
		status    string
		startTime int64
		row       pollRow
	)
	err := sc.Scan(&p.ID, &p.Name, &row.members, &row.options, &status, &startTime,
		&row.limitTime, &row.opinions, &row.result, &p.Version)
	if err != nil {
		return models.Poll{}, err
	}

	p.Status = models.PollStatus(status)
	p.StartTime = fromMillis(startTime)
	if err := json.Unmarshal([]byte(row.members), &p.Members); err != nil {
		return models.Poll{}, fmt.Errorf("decode members: %w", err)
	}
	if err := json.Unmarshal([]byte(row.options), &p.Options); err != nil {
		return models.Poll{}, fmt.Errorf("decode options: %w", err)
	}
	if err := json.Unmarshal([]byte(row.opinions), &p.Opinions); err != nil {
		return models.Poll{}, fmt.Errorf("decode opinions: %w", err)
	}
	if row.limitTime.Valid {
		v := int(row.limitTime.Int64)
		p.LimitTime = &v
	}
	if row.result.Valid {
		v := row.result.String
		p.Result = &v
	}
	return p, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func nonNilOpinions(ops []models.Opinion) []models.Opinion {
	if ops == nil {
		return []models.Opinion{}
	}
	return ops
}

var _ lifecycle.Store = (*Store)(nil)
