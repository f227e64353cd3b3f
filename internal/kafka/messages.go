package kafka

import (
	"encoding/json"
	"time"
)

// Report kinds accepted on the requests topic
const (
	KindBusinessAnalytics = "business_analytics"
	KindTrackingLinks     = "tracking_links"
	KindPageViews         = "page_views"
)

// Result statuses
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ReportRequest asks for one report. From and To use the same formats as
// the HTTP query parameters.
type ReportRequest struct {
	RequestID  string `json:"request_id"`
	Kind       string `json:"kind"`
	BusinessID string `json:"business_id"`
	EventID    string `json:"event_id,omitempty"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
}

// ReportResult answers one ReportRequest. Payload holds the report JSON
// when Status is completed.
type ReportResult struct {
	RequestID   string          `json:"request_id"`
	Kind        string          `json:"kind"`
	BusinessID  string          `json:"business_id"`
	Status      string          `json:"status"`
	Error       string          `json:"error,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
}
