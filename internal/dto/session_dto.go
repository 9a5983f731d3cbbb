package dto

import (
	"time"

	"oreza-assistant-be/pkg/failure"
	"oreza-assistant-be/pkg/memory"
	"oreza-assistant-be/pkg/store"
)

type SessionResponse struct {
	SessionID    string    `json:"session_id"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

type SessionMemoryResponse struct {
	SessionID string          `json:"session_id"`
	Mood      store.Mood      `json:"mood"`
	Summary   memory.Summary  `json:"summary"`
	Insights  memory.Insights `json:"insights"`
}

type SessionFailuresResponse struct {
	SessionID string            `json:"session_id"`
	Summary   failure.Summary   `json:"summary"`
	Lessons   []string          `json:"lessons"`
	Patterns  []failure.Pattern `json:"patterns"`
}

type CorrectFailureRequest struct {
	CorrectResponse string `json:"correct_response" validate:"required"`
}

type CorrectFailureResponse struct {
	FailureID string `json:"failure_id"`
	Message   string `json:"message"`
}
