package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID         string    `bun:"id,pk" json:"id"`
	BusinessID string    `bun:"business_id,notnull" json:"business_id"`
	Title      string    `bun:"title,notnull" json:"title"`
	EventDate  time.Time `bun:"event_date,nullzero" json:"event_date"`
	Status     string    `bun:"status" json:"status"`
}

type Business struct {
	bun.BaseModel `bun:"table:businesses,alias:b"`

	ID            string   `bun:"id,pk" json:"id"`
	Name          string   `bun:"name,notnull" json:"name"`
	TaxPercentage *float64 `bun:"tax_percentage" json:"tax_percentage"`
}

// TrackingLink maps a shareable ref code to a display name
type TrackingLink struct {
	bun.BaseModel `bun:"table:tracking_links,alias:tl"`

	ID         string    `bun:"id,pk" json:"id"`
	BusinessID string    `bun:"business_id,notnull" json:"business_id"`
	RefCode    string    `bun:"ref_code,notnull" json:"ref_code"`
	Name       string    `bun:"name,notnull" json:"name"`
	CreatedAt  time.Time `bun:"created_at,nullzero" json:"created_at"`
}

type PageView struct {
	bun.BaseModel `bun:"table:page_views,alias:pv"`

	ID         string    `bun:"id,pk" json:"id"`
	BusinessID string    `bun:"business_id,notnull" json:"business_id"`
	EventID    string    `bun:"event_id,nullzero" json:"event_id,omitempty"`
	PageType   string    `bun:"page_type,notnull" json:"page_type"`
	VisitorID  string    `bun:"visitor_id,nullzero" json:"visitor_id,omitempty"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at"`
}
