// Package calendar holds the calendar domain types, the store contract the
// assistant dispatches into, and the keyword predictors used to fill in
// missing event details.
package calendar

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("calendar: not found")

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

type Calendar struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Visible   bool      `json:"is_visible"`
	CreatedAt time.Time `json:"created_at"`
}

type Event struct {
	ID              string    `json:"id"`
	CalendarID      string    `json:"calendar_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Start           time.Time `json:"start_datetime"`
	End             time.Time `json:"end_datetime"`
	Location        string    `json:"location"`
	URL             string    `json:"url"`
	AllDay          bool      `json:"is_all_day"`
	Recurrence      string    `json:"recurrence,omitempty"`
	ReminderMinutes int       `json:"reminder_minutes"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

type Task struct {
	ID         string     `json:"id"`
	CalendarID string     `json:"calendar_id"`
	Title      string     `json:"title"`
	Due        *time.Time `json:"due,omitempty"`
	Notes      string     `json:"notes"`
	Importance string     `json:"importance"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
}

// EventPatch carries the fields to change; nil means unchanged.
type EventPatch struct {
	Title       *string
	Description *string
	Start       *time.Time
	End         *time.Time
	Location    *string
	Status      *string
}

type TaskPatch struct {
	Title      *string
	Due        *time.Time
	Notes      *string
	Importance *string
	Status     *string
}

// Store is the calendar backend. Range queries include events whose start
// falls within [from, to].
type Store interface {
	Calendars(ctx context.Context) ([]Calendar, error)
	CalendarName(ctx context.Context, id string) (string, bool)

	CreateEvent(ctx context.Context, e Event) (Event, error)
	UpdateEvent(ctx context.Context, id string, patch EventPatch) (Event, error)
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context, from, to time.Time) ([]Event, error)

	CreateTask(ctx context.Context, t Task) (Task, error)
	UpdateTask(ctx context.Context, id string, patch TaskPatch) (Task, error)
}
