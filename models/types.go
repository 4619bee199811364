// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

type PollStatus string

// Poll status constants
const (
	StatusPolling   PollStatus = "POLLING"
	StatusCompleted PollStatus = "COMPLETED"
	StatusAbandoned PollStatus = "ABANDONED"
)

// Valid reports whether s is one of the known statuses.
func (s PollStatus) Valid() bool {
	switch s {
	case StatusPolling, StatusCompleted, StatusAbandoned:
		return true
	}
	return false
}

// Terminal reports whether no further mutation is accepted in status s.
func (s PollStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// Sort keys accepted by the poll listing
const (
	SortByID        = "id"
	SortByName      = "name"
	SortByStartTime = "start_time"
	SortByStatus    = "status"
)

// Request types

type CreatePollRequest struct {
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	Options   []string `json:"options"`
	LimitTime *int     `json:"limit_time,omitempty"`
}

// Nil fields are left untouched
type UpdatePollRequest struct {
	Name    *string  `json:"name,omitempty"`
	Members []string `json:"members,omitempty"`
	Options []string `json:"options,omitempty"`
}

type GiveOpinionRequest struct {
	Member  string   `json:"member"`
	Options []string `json:"options"`
}

type DecideRequest struct {
	Result string `json:"result"`
}

type TimerControlRequest struct {
	Event string `json:"event"`
}

type CreateUserRequest struct {
	Name string `json:"name"`
}

type CreateRestaurantRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Response types

type CreatePollResponse struct {
	Poll     Poll   `json:"poll"`
	AdminKey string `json:"admin_key"`
}

type PollPage struct {
	Docs  []Poll `json:"docs"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

type RemovePollResponse struct {
	Message string `json:"message"`
}

// Domain types

type Opinion struct {
	Member  string   `json:"member"`
	Options []string `json:"options"`
}

type Poll struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Members   []string   `json:"members"`
	Options   []string   `json:"options"`
	Status    PollStatus `json:"status"`
	StartTime time.Time  `json:"start_time"`
	LimitTime *int       `json:"limit_time,omitempty"` // minutes
	Opinions  []Opinion  `json:"opinions"`
	Result    *string    `json:"result,omitempty"`
	Version   int64      `json:"-"`
}

// HasOption reports whether id is one of the poll's options.
func (p Poll) HasOption(id string) bool {
	for _, o := range p.Options {
		if o == id {
			return true
		}
	}
	return false
}

// HasMember reports whether id is one of the poll's members.
func (p Poll) HasMember(id string) bool {
	for _, m := range p.Members {
		if m == id {
			return true
		}
	}
	return false
}

// Deadline returns when a time-limited poll runs out, or false if it has no limit.
func (p Poll) Deadline() (time.Time, bool) {
	if p.LimitTime == nil || *p.LimitTime <= 0 {
		return time.Time{}, false
	}
	return p.StartTime.Add(time.Duration(*p.LimitTime) * time.Minute), true
}

// Clone returns a deep copy so callers can mutate without aliasing the store.
func (p Poll) Clone() Poll {
	c := p
	c.Members = append([]string(nil), p.Members...)
	c.Options = append([]string(nil), p.Options...)
	if p.LimitTime != nil {
		v := *p.LimitTime
		c.LimitTime = &v
	}
	if p.Result != nil {
		v := *p.Result
		c.Result = &v
	}
	c.Opinions = make([]Opinion, len(p.Opinions))
	for i, op := range p.Opinions {
		c.Opinions[i] = Opinion{Member: op.Member, Options: append([]string(nil), op.Options...)}
	}
	return c
}

// PollQuery filters and pages the poll listing. Zero values mean "any".
type PollQuery struct {
	Name        string
	Status      PollStatus
	Result      string
	IsTimeLimit *bool
	Page        int
	Limit       int
	Sort        string
}

// Offset returns how many matching polls precede the requested page.
func (q PollQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Restaurant struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// PollView is a poll with its references resolved for display.
type PollView struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Members   []User        `json:"members"`
	Options   []Restaurant  `json:"options"`
	Status    PollStatus    `json:"status"`
	StartTime time.Time     `json:"start_time"`
	LimitTime *int          `json:"limit_time,omitempty"`
	Opinions  []OpinionView `json:"opinions"`
	Result    *Restaurant   `json:"result,omitempty"`
}

type OpinionView struct {
	Member  *User        `json:"member"`
	Options []Restaurant `json:"options"`
}

// Tally types

type OptionTally struct {
	OptionID string `json:"option_id"`
	Count    int    `json:"count"`
	Rank     int    `json:"rank"` // 1-indexed ranking
}

type TallyResponse struct {
	PollID   string        `json:"poll_id"`
	Status   PollStatus    `json:"status"`
	Opinions int           `json:"opinions"`
	Rankings []OptionTally `json:"rankings"`
}

// Timer types

type TimerResponse struct {
	PollID   string     `json:"poll_id"`
	State    string     `json:"state"`
	Current  int        `json:"current"`
	Limit    int        `json:"limit"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
