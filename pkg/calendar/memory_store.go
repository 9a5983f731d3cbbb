package calendar

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCalendars are seeded into every new MemoryStore.
var DefaultCalendars = []Calendar{
	{ID: "cal_self", Name: "自分", Color: "#E91E63", Visible: true},
	{ID: "cal_child", Name: "子供", Color: "#F48FB1", Visible: true},
	{ID: "cal_work", Name: "仕事", Color: "#2196F3", Visible: true},
	{ID: "cal_health", Name: "健康", Color: "#4CAF50", Visible: true},
	{ID: "cal_pension", Name: "年金", Color: "#FF9800", Visible: true},
	{ID: "cal_live", Name: "ライブ", Color: "#9C27B0", Visible: true},
}

// MemoryStore keeps calendars, events and tasks in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	calendars []Calendar
	events    map[string]Event
	tasks     map[string]Task
	now       func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		events: make(map[string]Event),
		tasks:  make(map[string]Task),
		now:    time.Now,
	}
	created := s.now()
	for _, c := range DefaultCalendars {
		c.CreatedAt = created
		s.calendars = append(s.calendars, c)
	}
	return s
}

func (s *MemoryStore) Calendars(_ context.Context) ([]Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Calendar(nil), s.calendars...), nil
}

func (s *MemoryStore) CalendarName(_ context.Context, id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.calendars {
		if c.ID == id {
			return c.Name, true
		}
	}
	return "", false
}

func (s *MemoryStore) CreateEvent(_ context.Context, e Event) (Event, error) {
	if e.Title == "" {
		return Event{}, fmt.Errorf("calendar: event title is required")
	}
	if e.End.Before(e.Start) {
		return Event{}, fmt.Errorf("calendar: event ends before it starts")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = "evt_" + uuid.NewString()
	if e.Status == "" {
		e.Status = StatusPending
	}
	e.CreatedAt = s.now()
	s.events[e.ID] = e
	return e, nil
}

func (s *MemoryStore) UpdateEvent(_ context.Context, id string, p EventPatch) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return Event{}, fmt.Errorf("%w: event %s", ErrNotFound, id)
	}
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Start != nil {
		e.Start = *p.Start
	}
	if p.End != nil {
		e.End = *p.End
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	s.events[id] = e
	return e, nil
}

func (s *MemoryStore) DeleteEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("%w: event %s", ErrNotFound, id)
	}
	delete(s.events, id)
	return nil
}

func (s *MemoryStore) ListEvents(_ context.Context, from, to time.Time) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Event{}
	for _, e := range s.events {
		if e.Start.Before(from) || e.Start.After(to) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

func (s *MemoryStore) CreateTask(_ context.Context, t Task) (Task, error) {
	if t.Title == "" {
		return Task{}, fmt.Errorf("calendar: task title is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = "task_" + uuid.NewString()
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Importance == "" {
		t.Importance = "normal"
	}
	t.CreatedAt = s.now()
	s.tasks[t.ID] = t
	return t, nil
}

func (s *MemoryStore) UpdateTask(_ context.Context, id string, p TaskPatch) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Due != nil {
		due := *p.Due
		t.Due = &due
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Importance != nil {
		t.Importance = *p.Importance
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	s.tasks[id] = t
	return t, nil
}
