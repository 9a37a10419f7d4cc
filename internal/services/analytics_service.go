package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"superloja/internal/analytics"
	"superloja/internal/domain"
	"superloja/internal/geoip"
	"superloja/internal/metrics"
	"superloja/internal/repos"
	"superloja/internal/visitor"
)

// MinDwellSeconds is the shortest stay that is worth a page_duration event.
const MinDwellSeconds = 5

const maxEventData = 4 << 10

var reEventType = regexp.MustCompile(`^[a-z][a-z0-9_]{0,39}$`)

type Geo interface {
	Lookup(ctx context.Context, ip string) geoip.Location
}

type AnalyticsService struct {
	DB   *sqlx.DB
	Repo *repos.AnalyticsRepo
	Geo  Geo
	Now  func() time.Time
}

func NewAnalyticsService(db *sqlx.DB, geo Geo) *AnalyticsService {
	return &AnalyticsService{DB: db, Repo: repos.NewAnalyticsRepo(db), Geo: geo, Now: time.Now}
}

func (s *AnalyticsService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

type PageView struct {
	VisitorID string
	SessionID string
	UserID    string
	Path      string
	Title     string
	Referrer  string
	UserAgent string
	IP        string
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}

// RecordPageView writes the visitor_analytics fact row and its page_view event together.
func (s *AnalyticsService) RecordPageView(ctx context.Context, pv PageView) error {
	if pv.VisitorID == "" || pv.SessionID == "" {
		return fmt.Errorf("%w: visitor and session ids required", ErrInvalidInput)
	}
	path := clip(pv.Path, 300)
	if path == "" || !strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: path", ErrInvalidInput)
	}
	ua := visitor.ParseUserAgent(pv.UserAgent)
	loc := geoip.Fallback
	if s.Geo != nil {
		loc = s.Geo.Lookup(ctx, pv.IP)
	}
	now := repos.TS(s.now())
	title, ref := clip(pv.Title, 200), clip(pv.Referrer, 300)
	data, err := json.Marshal(map[string]string{"title": title, "referrer": ref})
	if err != nil {
		return err
	}

	err = repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		r := s.Repo.WithTx(tx)
		if err := r.InsertVisit(ctx, domain.VisitorAnalytics{
			ID:          uuid.NewString(),
			VisitorID:   pv.VisitorID,
			SessionID:   pv.SessionID,
			UserID:      pv.UserID,
			PagePath:    path,
			PageTitle:   title,
			Referrer:    ref,
			DeviceType:  ua.Device,
			Browser:     ua.Browser,
			OS:          ua.OS,
			IPAddress:   pv.IP,
			Country:     loc.Country,
			CountryCode: loc.CountryCode,
			Region:      loc.Region,
			City:        loc.City,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		return r.InsertEvent(ctx, domain.AnalyticsEvent{
			ID:        uuid.NewString(),
			VisitorID: pv.VisitorID,
			SessionID: pv.SessionID,
			EventType: domain.EventPageView,
			PagePath:  path,
			EventData: data,
			CreatedAt: now,
		})
	})
	if err != nil {
		return err
	}
	metrics.PageViews.Inc()
	return nil
}

// RecordEvent stores a custom event. data must be a JSON object.
func (s *AnalyticsService) RecordEvent(ctx context.Context, visitorID, sessionID, eventType, path string, data []byte) error {
	if visitorID == "" || sessionID == "" {
		return fmt.Errorf("%w: visitor and session ids required", ErrInvalidInput)
	}
	if !reEventType.MatchString(eventType) || eventType == domain.EventPageView {
		return fmt.Errorf("%w: event type %q", ErrInvalidInput, eventType)
	}
	if len(data) == 0 {
		data = []byte("{}")
	}
	if len(data) > maxEventData || !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return fmt.Errorf("%w: event_data must be a JSON object", ErrInvalidInput)
	}
	return s.Repo.InsertEvent(ctx, domain.AnalyticsEvent{
		ID:        uuid.NewString(),
		VisitorID: visitorID,
		SessionID: sessionID,
		EventType: eventType,
		PagePath:  clip(path, 300),
		EventData: data,
		CreatedAt: repos.TS(s.now()),
	})
}

// RecordLeave stores the dwell time of a page, skipping stays of MinDwellSeconds or less.
func (s *AnalyticsService) RecordLeave(ctx context.Context, visitorID, sessionID, path string, seconds float64) (bool, error) {
	if seconds <= MinDwellSeconds {
		return false, nil
	}
	if seconds > 24*60*60 {
		return false, fmt.Errorf("%w: duration", ErrInvalidInput)
	}
	data, err := json.Marshal(map[string]float64{"duration_seconds": seconds})
	if err != nil {
		return false, err
	}
	err = s.Repo.InsertEvent(ctx, domain.AnalyticsEvent{
		ID:        uuid.NewString(),
		VisitorID: visitorID,
		SessionID: sessionID,
		EventType: domain.EventPageDuration,
		PagePath:  clip(path, 300),
		EventData: data,
		CreatedAt: repos.TS(s.now()),
	})
	return err == nil, err
}

// Report loads the range concurrently and aggregates it.
func (s *AnalyticsService) Report(ctx context.Context, fromStr, toStr string) (analytics.Report, error) {
	started := time.Now()
	defer func() { metrics.ReportLatency.Observe(time.Since(started).Seconds()) }()

	from, to, err := analytics.ParseRange(fromStr, toStr, s.now(), domain.StoreZone)
	if err != nil {
		if errors.Is(err, analytics.ErrBadRange) {
			return analytics.Report{}, errors.Join(ErrInvalidInput, err)
		}
		return analytics.Report{}, err
	}

	var visits []domain.VisitorAnalytics
	var durations []domain.AnalyticsEvent
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		visits, err = s.Repo.Visits(gctx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		durations, err = s.Repo.Events(gctx, domain.EventPageDuration, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return analytics.Report{}, err
	}
	return analytics.Aggregate(visits, durations, from, to), nil
}
