package dto

import (
	"oreza-assistant-be/pkg/ai/orchestrator"
	"oreza-assistant-be/pkg/memory"
)

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" validate:"required,max=8000"`
	// Strategy overrides the configured orchestration strategy for this turn.
	Strategy string `json:"strategy" validate:"omitempty,oneof=concurrent-race sequential-fallback judge-merge parallel sequential meta_select"`
}

type MemorySnapshot struct {
	Emotion      string         `json:"emotion"`
	Themes       []string       `json:"themes"`
	Intent       string         `json:"intent,omitempty"`
	MessageCount int            `json:"message_count"`
	Tiers        memory.Summary `json:"tiers"`
}

type ChatResponse struct {
	Response   string                `json:"response"`
	SessionID  string                `json:"session_id"`
	Memory     MemorySnapshot        `json:"memory"`
	Metadata   orchestrator.Metadata `json:"metadata"`
	SearchUsed bool                  `json:"search_used"`
	EventID    string                `json:"calendar_event_id,omitempty"`
	FailureID  string                `json:"failure_id,omitempty"`
}
