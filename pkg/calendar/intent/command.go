// Package intent compiles free-form Japanese calendar requests into typed
// commands.
package intent

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownIntent = errors.New("intent: unknown intent")
	// ErrAmbiguousDate marks a create command whose date could not be resolved.
	ErrAmbiguousDate = errors.New("intent: date could not be resolved")
)

type Kind string

const (
	CreateEvent Kind = "CREATE_EVENT"
	UpdateEvent Kind = "UPDATE_EVENT"
	DeleteEvent Kind = "DELETE_EVENT"
	ListAgenda  Kind = "LIST_AGENDA"
	CreateTask  Kind = "CREATE_TASK"
	UpdateTask  Kind = "UPDATE_TASK"
	Unknown     Kind = "UNKNOWN"
)

// ContextRequired is the placeholder id the model emits when the target
// event must come from the conversation.
const ContextRequired = "CONTEXT_REQUIRED"

// Payload is implemented by every intent payload, RawPayload included.
type Payload interface {
	Kind() Kind
}

// Command is a parsed calendar instruction.
type Command struct {
	Intent    Kind    `json:"intent"`
	RequestID string  `json:"request_id"`
	Payload   Payload `json:"payload"`
}

type Reminder struct {
	OffsetMinutes int    `json:"offset_minutes"`
	Channel       string `json:"channel"`
}

// Times are ISO 8601 strings as they travel on the wire; empty means unset.
type CreateEventPayload struct {
	Title              string     `json:"title"`
	CalendarHint       string     `json:"calendar_hint,omitempty"`
	Start              string     `json:"start,omitempty"`
	End                string     `json:"end,omitempty"`
	AllDay             bool       `json:"all_day"`
	Location           string     `json:"location,omitempty"`
	SourceURL          string     `json:"source_url,omitempty"`
	Recurrence         string     `json:"recurrence,omitempty"`
	Reminders          []Reminder `json:"reminders,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	Importance         string     `json:"importance,omitempty"`
	RelativeExpression string     `json:"relative_expression,omitempty"`
	DateIsAmbiguous    bool       `json:"date_is_ambiguous"`
}

type UpdateEventPayload struct {
	EventID string         `json:"event_id"`
	Patch   map[string]any `json:"patch"`
}

type DeleteEventPayload struct {
	EventID string `json:"event_id"`
}

type ListAgendaPayload struct {
	From               string   `json:"from_dt,omitempty"`
	To                 string   `json:"to_dt,omitempty"`
	CalendarFilters    []string `json:"calendar_filters,omitempty"`
	View               string   `json:"view,omitempty"`
	RelativeExpression string   `json:"relative_expression,omitempty"`
}

type CreateTaskPayload struct {
	Title              string `json:"title"`
	CalendarHint       string `json:"calendar_hint,omitempty"`
	Due                string `json:"due,omitempty"`
	Notes              string `json:"notes,omitempty"`
	Importance         string `json:"importance,omitempty"`
	RelativeExpression string `json:"relative_expression,omitempty"`
	DateIsAmbiguous    bool   `json:"date_is_ambiguous"`
}

type UpdateTaskPayload struct {
	TaskID string         `json:"task_id"`
	Patch  map[string]any `json:"patch"`
}

// RawPayload keeps an unrecognised intent with its decoded payload.
type RawPayload struct {
	Intent string         `json:"-"`
	Fields map[string]any `json:"fields"`
}

func (*CreateEventPayload) Kind() Kind { return CreateEvent }
func (*UpdateEventPayload) Kind() Kind { return UpdateEvent }
func (*DeleteEventPayload) Kind() Kind { return DeleteEvent }
func (*ListAgendaPayload) Kind() Kind  { return ListAgenda }
func (*CreateTaskPayload) Kind() Kind  { return CreateTask }
func (*UpdateTaskPayload) Kind() Kind  { return UpdateTask }
func (*RawPayload) Kind() Kind         { return Unknown }

// MarshalJSON writes the raw fields flat so the payload looks as received.
func (p *RawPayload) MarshalJSON() ([]byte, error) {
	if p.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.Fields)
}

type envelope struct {
	Intent    string          `json:"intent"`
	RequestID string          `json:"request_id"`
	Payload   json.RawMessage `json:"payload"`
}

// Decode parses a model reply into a Command. Unrecognised intents decode
// into a RawPayload and return ErrUnknownIntent alongside the command.
func Decode(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		env.Payload = json.RawMessage("{}")
	}

	var payload Payload
	switch Kind(env.Intent) {
	case CreateEvent:
		payload = &CreateEventPayload{}
	case UpdateEvent:
		payload = &UpdateEventPayload{}
	case DeleteEvent:
		payload = &DeleteEventPayload{}
	case ListAgenda:
		payload = &ListAgendaPayload{}
	case CreateTask:
		payload = &CreateTaskPayload{}
	case UpdateTask:
		payload = &UpdateTaskPayload{}
	default:
		raw := &RawPayload{Intent: env.Intent}
		_ = json.Unmarshal(env.Payload, &raw.Fields)
		cmd := Command{Intent: Unknown, RequestID: env.RequestID, Payload: raw}
		return cmd, fmt.Errorf("%w: %s", ErrUnknownIntent, env.Intent)
	}

	if err := json.Unmarshal(env.Payload, payload); err != nil {
		return Command{}, fmt.Errorf("decode %s payload: %w", env.Intent, err)
	}
	return Command{Intent: payload.Kind(), RequestID: env.RequestID, Payload: payload}, nil
}
