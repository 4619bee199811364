// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

  - CreatePollRequest: name, members, options, limit_time
  - UpdatePollRequest: name, members, options (omitted fields unchanged)
  - GiveOpinionRequest: member, options
  - DecideRequest: result
  - TimerControlRequest: event
  - CreateUserRequest, CreateRestaurantRequest

# Response Types

  - CreatePollResponse: poll, admin_key
  - PollPage: docs, total, page, limit
  - PollView: a poll with members, options and result resolved
  - TallyResponse: per-option opinion counts, ranked
  - TimerResponse: countdown state, current, limit, deadline
  - ErrorResponse: error, message

# Domain Types

  - Poll: members, options, opinions and lifecycle state
  - Opinion: one member's selected options
  - User, Restaurant: directory entries referenced by id

# Errors

ErrValidation, ErrNotFound, ErrInvalidState and ErrConflict are wrapped by
every store and by the lifecycle; match them with errors.Is.
*/
package models
