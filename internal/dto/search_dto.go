package dto

import "oreza-assistant-be/pkg/search"

type SearchRequest struct {
	Query      string `json:"query" validate:"required,max=500"`
	SessionID  string `json:"session_id"`
	SearchType string `json:"search_type" validate:"omitempty,oneof=web image"`
}

type SearchResponse struct {
	Results    []search.Result `json:"results"`
	SessionID  string          `json:"session_id"`
	Query      string          `json:"query"`
	SearchType string          `json:"search_type"`
}

type SearchAnalysisRequest struct {
	Query      string          `json:"query" validate:"required"`
	Results    []search.Result `json:"results" validate:"required,min=1"`
	SessionID  string          `json:"session_id"`
	SearchType string          `json:"search_type" validate:"omitempty,oneof=web image"`
}

type SearchAnalysisResponse struct {
	Analysis  string `json:"analysis"`
	SessionID string `json:"session_id"`
}
