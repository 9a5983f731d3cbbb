package dto

import "time"

// Log ids are MD5 hashes of the raw line, not UUIDs.
type LogListResponse struct {
	Id        string    `json:"id"`
	Level     string    `json:"level"`
	Module    string    `json:"module"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type LogDetailResponse struct {
	LogListResponse
	Details map[string]interface{} `json:"details"`
}

type HealthResponse struct {
	Status         string    `json:"status"`
	PID            int       `json:"pid"`
	UptimeSeconds  int64     `json:"uptime_seconds"`
	ActiveSessions int       `json:"active_sessions"`
	Generators     []string  `json:"generators"`
	Timestamp      time.Time `json:"timestamp"`
}
