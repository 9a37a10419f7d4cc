// Package visitor allocates anonymous visitor and session identifiers and
// keeps the returning-visitor counters.
package visitor

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"superloja/internal/domain"
)

const (
	KeyVisitor = "sl_vid"
	KeySession = "sl_sid"
	KeyState   = "sl_visit"
)

// Storage is where identifiers persist between requests: cookies on the
// server, a map in tests.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string, session bool)
}

// MapStorage is an in-memory Storage.
type MapStorage map[string]string

func (m MapStorage) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok && v != ""
}

func (m MapStorage) Set(key, value string, _ bool) { m[key] = value }

// State is the returning-visitor record.
type State struct {
	VisitorID      string `json:"visitor_id"`
	FirstVisit     string `json:"first_visit"`
	LastVisitDate  string `json:"last_visit_date"`
	VisitCount     int    `json:"visit_count"`
	TodayPageViews int    `json:"today_page_views"`
}

type Tracker struct {
	NewID func() string
	// Zone decides where a calendar day starts.
	Zone *time.Location
}

func NewTracker() *Tracker {
	return &Tracker{NewID: uuid.NewString, Zone: domain.StoreZone}
}

func (t *Tracker) id() string {
	if t.NewID != nil {
		return t.NewID()
	}
	return uuid.NewString()
}

// VisitorID returns the persisted visitor id, allocating one only when absent.
func (t *Tracker) VisitorID(s Storage) string {
	if v, ok := s.Get(KeyVisitor); ok {
		return v
	}
	v := t.id()
	s.Set(KeyVisitor, v, false)
	return v
}

// SessionID is VisitorID for the browser session scope.
func (t *Tracker) SessionID(s Storage) string {
	if v, ok := s.Get(KeySession); ok {
		return v
	}
	v := t.id()
	s.Set(KeySession, v, true)
	return v
}

// Touch records one page load at now and returns the updated state.
func (t *Tracker) Touch(s Storage, now time.Time) State {
	vid := t.VisitorID(s)
	zone := t.Zone
	if zone == nil {
		zone = time.UTC
	}
	today := now.In(zone).Format("2006-01-02")

	st, ok := load(s)
	switch {
	case !ok || st.VisitorID != vid:
		st = State{
			VisitorID:      vid,
			FirstVisit:     now.UTC().Format(time.RFC3339),
			LastVisitDate:  today,
			VisitCount:     1,
			TodayPageViews: 1,
		}
	case st.LastVisitDate != today:
		st.VisitCount++
		st.TodayPageViews = 1
		st.LastVisitDate = today
	default:
		st.TodayPageViews++
	}
	save(s, st)
	return st
}

func load(s Storage) (State, bool) {
	raw, ok := s.Get(KeyState)
	if !ok {
		return State{}, false
	}
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return State{}, false
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil || st.VisitCount < 1 {
		return State{}, false
	}
	return st, true
}

func save(s Storage, st State) {
	b, _ := json.Marshal(st)
	s.Set(KeyState, base64.RawURLEncoding.EncodeToString(b), false)
}
