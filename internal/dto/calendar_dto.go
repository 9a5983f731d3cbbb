package dto

import "oreza-assistant-be/pkg/calendar/intent"

type CalendarDispatchRequest struct {
	UserInput string          `json:"user_input" validate:"required"`
	SessionID string          `json:"session_id"`
	Context   CalendarContext `json:"context"`
}

type CalendarContext struct {
	LastEventID string `json:"last_event_id"`
}

// CalendarDispatchResponse is the structured outcome of one dispatch. On
// failure Error is set and Result is empty.
type CalendarDispatchResponse struct {
	Success             bool            `json:"success"`
	Intent              intent.Kind     `json:"intent,omitempty"`
	Result              interface{}     `json:"result,omitempty"`
	Parsed              *intent.Command `json:"parsed,omitempty"`
	Message             string          `json:"message,omitempty"`
	Error               string          `json:"error,omitempty"`
	NeedsDisambiguation bool            `json:"needs_disambiguation,omitempty"`
}

type AgendaResult struct {
	Events     interface{} `json:"events"`
	AgendaText string      `json:"agenda_text"`
}

// CalendarSyncResult is what the chat side-channel created.
type CalendarSyncResult struct {
	EventID      string
	Confirmation string
}
