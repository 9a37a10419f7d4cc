package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"superloja/internal/domain"
)

type AnalyticsRepo struct{ db Querier }

func NewAnalyticsRepo(db *sqlx.DB) *AnalyticsRepo { return &AnalyticsRepo{db: db} }

func (r *AnalyticsRepo) WithTx(tx *sqlx.Tx) *AnalyticsRepo { return &AnalyticsRepo{db: tx} }

func (r *AnalyticsRepo) InsertVisit(ctx context.Context, v domain.VisitorAnalytics) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO visitor_analytics(id, visitor_id, session_id, user_id, page_path, page_title, referrer,
	    device_type, browser, os, ip_address, country, country_code, region, city, created_at)
	  VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.VisitorID, v.SessionID, v.UserID, v.PagePath, v.PageTitle, v.Referrer,
		v.DeviceType, v.Browser, v.OS, v.IPAddress, v.Country, v.CountryCode, v.Region, v.City, v.CreatedAt)
	return err
}

func (r *AnalyticsRepo) InsertEvent(ctx context.Context, e domain.AnalyticsEvent) error {
	data := e.EventData
	if len(data) == 0 {
		data = []byte("{}")
	}
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO analytics_events(id, visitor_id, session_id, event_type, page_path, event_data, created_at)
	  VALUES(?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.VisitorID, e.SessionID, e.EventType, e.PagePath, string(data), e.CreatedAt)
	return err
}

// Visits returns the fact rows in [from, to).
func (r *AnalyticsRepo) Visits(ctx context.Context, from, to time.Time) ([]domain.VisitorAnalytics, error) {
	out := []domain.VisitorAnalytics{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, visitor_id, session_id, user_id, page_path, page_title, referrer, device_type, browser, os,
	         ip_address, country, country_code, region, city, created_at
	  FROM visitor_analytics
	  WHERE created_at >= ? AND created_at < ?
	  ORDER BY created_at`, TS(from), TS(to))
	return out, err
}

func (r *AnalyticsRepo) Events(ctx context.Context, eventType string, from, to time.Time) ([]domain.AnalyticsEvent, error) {
	out := []domain.AnalyticsEvent{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, visitor_id, session_id, event_type, page_path, event_data, created_at
	  FROM analytics_events
	  WHERE event_type = ? AND created_at >= ? AND created_at < ?
	  ORDER BY created_at`, eventType, TS(from), TS(to))
	return out, err
}
