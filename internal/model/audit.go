package model

import "time"

// AuditEvent records one request handled by the CMS router
type AuditEvent struct {
	ID         int64     `json:"id,omitempty"`
	Time       time.Time `json:"time"`
	RequestID  string    `json:"request_id"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Action     string    `json:"action"`
	Target     string    `json:"target,omitempty"`
	Status     int       `json:"status"`
	DurationMS int64     `json:"duration_ms"`
	Cached     bool      `json:"cached"`
}
