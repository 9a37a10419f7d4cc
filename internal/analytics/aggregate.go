// Package analytics turns raw page-view and event rows into report series.
package analytics

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/tidwall/gjson"

	"superloja/internal/domain"
)

const (
	MaxRangeDays     = 366
	DefaultRangeDays = 30
	topPagesLimit    = 10
	dayLayout        = "2006-01-02"
	tsLayout         = "2006-01-02 15:04:05"
)

var ErrBadRange = errors.New("invalid date range")

type DayCount struct {
	Date     string `json:"date"`
	Visitors int    `json:"visitors"`
}

type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Share struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type Report struct {
	From               string     `json:"from"`
	To                 string     `json:"to"`
	DailyVisitors      []DayCount `json:"daily_visitors"`
	TopCountries       []Count    `json:"top_countries"`
	DeviceMix          []Share    `json:"device_mix"`
	TopPages           []Count    `json:"top_pages"`
	TotalPageViews     int        `json:"total_page_views"`
	UniqueVisitors     int        `json:"unique_visitors"`
	AvgDurationSeconds float64    `json:"avg_duration_seconds"`
}

// ParseRange reads YYYY-MM-DD bounds (to is inclusive) as calendar days in loc and
// returns the half-open interval [from, to+1d). Empty values default to the last
// DefaultRangeDays days ending today.
func ParseRange(fromStr, toStr string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	y, m, d := now.In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	to := today
	if toStr != "" {
		t, err := time.ParseInLocation(dayLayout, toStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, ErrBadRange
		}
		to = t
	}
	from := to.AddDate(0, 0, -(DefaultRangeDays - 1))
	if fromStr != "" {
		f, err := time.ParseInLocation(dayLayout, fromStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, ErrBadRange
		}
		from = f
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, ErrBadRange
	}
	if int(to.Sub(from).Hours()/24)+1 > MaxRangeDays {
		return time.Time{}, time.Time{}, ErrBadRange
	}
	return from, to.AddDate(0, 0, 1), nil
}

// Aggregate groups rows in [from, to), cutting days in from's location. durations are
// page_duration events carrying duration_seconds in event_data.
func Aggregate(visits []domain.VisitorAnalytics, durations []domain.AnalyticsEvent, from, to time.Time) Report {
	r := Report{
		From:           from.Format(dayLayout),
		To:             to.AddDate(0, 0, -1).Format(dayLayout),
		TotalPageViews: len(visits),
	}

	loc := from.Location()
	perDay := map[string]map[string]struct{}{}
	visitors := map[string]struct{}{}
	countries := map[string]int{}
	devices := map[string]int{}
	pages := map[string]int{}
	for _, v := range visits {
		day := dayOf(v.CreatedAt, loc)
		if perDay[day] == nil {
			perDay[day] = map[string]struct{}{}
		}
		perDay[day][v.VisitorID] = struct{}{}
		visitors[v.VisitorID] = struct{}{}
		countries[v.Country]++
		devices[v.DeviceType]++
		pages[v.PagePath]++
	}

	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(dayLayout)
		r.DailyVisitors = append(r.DailyVisitors, DayCount{Date: key, Visitors: len(perDay[key])})
	}
	r.UniqueVisitors = len(visitors)
	r.TopCountries = ranked(countries, 0)
	r.TopPages = ranked(pages, topPagesLimit)

	r.DeviceMix = []Share{}
	for _, c := range ranked(devices, 0) {
		pct := 0.0
		if len(visits) > 0 {
			pct = math.Round(float64(c.Count)*1000/float64(len(visits))) / 10
		}
		r.DeviceMix = append(r.DeviceMix, Share{Name: c.Name, Count: c.Count, Percent: pct})
	}

	var total float64
	var n int
	for _, e := range durations {
		s := gjson.GetBytes(e.EventData, "duration_seconds")
		if !s.Exists() || s.Float() <= 0 {
			continue
		}
		total += s.Float()
		n++
	}
	if n > 0 {
		r.AvgDurationSeconds = math.Round(total/float64(n)*10) / 10
	}
	return r
}

// dayOf maps a stored UTC timestamp to its calendar day in loc.
func dayOf(ts string, loc *time.Location) string {
	if t, err := time.Parse(tsLayout, ts); err == nil {
		return t.In(loc).Format(dayLayout)
	}
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t.In(loc).Format(dayLayout)
	}
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}

// ranked sorts by count desc, then name, keeping at most limit entries (0 keeps all).
func ranked(m map[string]int, limit int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Name: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
