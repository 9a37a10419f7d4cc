package domain

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// StoreZone is where the store's calendar day starts. Returning-visitor counters and
// the daily report series both cut days here.
var StoreZone = time.FixedZone("BRT", -3*60*60)

// VisitorAnalytics is an append-only page-view fact row.
type VisitorAnalytics struct {
	ID          string `db:"id" json:"id"`
	VisitorID   string `db:"visitor_id" json:"visitor_id"`
	SessionID   string `db:"session_id" json:"session_id"`
	UserID      string `db:"user_id" json:"user_id,omitempty"`
	PagePath    string `db:"page_path" json:"page_path"`
	PageTitle   string `db:"page_title" json:"page_title"`
	Referrer    string `db:"referrer" json:"referrer"`
	DeviceType  string `db:"device_type" json:"device_type"`
	Browser     string `db:"browser" json:"browser"`
	OS          string `db:"os" json:"os"`
	IPAddress   string `db:"ip_address" json:"-"`
	Country     string `db:"country" json:"country"`
	CountryCode string `db:"country_code" json:"country_code"`
	Region      string `db:"region" json:"region"`
	City        string `db:"city" json:"city"`
	CreatedAt   string `db:"created_at" json:"created_at"`
}

type AnalyticsEvent struct {
	ID        string         `db:"id" json:"id"`
	VisitorID string         `db:"visitor_id" json:"visitor_id"`
	SessionID string         `db:"session_id" json:"session_id"`
	EventType string         `db:"event_type" json:"event_type"`
	PagePath  string         `db:"page_path" json:"page_path"`
	EventData types.JSONText `db:"event_data" json:"event_data"`
	CreatedAt string         `db:"created_at" json:"created_at"`
}

const (
	EventPageView     = "page_view"
	EventPageDuration = "page_duration"
)
