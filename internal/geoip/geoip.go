// Package geoip resolves a visitor IP to a coarse location.
package geoip

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"superloja/internal/cache"
	applog "superloja/internal/log"
	"superloja/internal/metrics"
)

type Location struct {
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	Region      string `json:"region"`
	City        string `json:"city"`
}

// Fallback is returned whenever the lookup cannot produce an answer.
var Fallback = Location{Country: "Brasil", CountryCode: "BR", Region: "", City: "Desconhecida"}

type Client struct {
	// URL is a format string with one %s for the IP.
	URL     string
	HTTP    *http.Client
	Timeout time.Duration
	Cache   cache.Store
	TTL     time.Duration
}

func New(url string, timeout, ttl time.Duration, store cache.Store) *Client {
	return &Client{
		URL:     url,
		HTTP:    &http.Client{},
		Timeout: timeout,
		Cache:   store,
		TTL:     ttl,
	}
}

// Lookup makes at most one request. It never returns an error: any failure yields Fallback.
func (c *Client) Lookup(ctx context.Context, ip string) Location {
	ip = strings.TrimSpace(ip)
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() || parsed.IsLinkLocalUnicast() {
		metrics.GeoLookups.WithLabelValues("fallback").Inc()
		return Fallback
	}

	key := "geoip:" + ip
	if c.Cache != nil {
		var loc Location
		if hit, err := cache.GetJSON(c.Cache, key, &loc); err == nil && hit {
			metrics.GeoLookups.WithLabelValues("cached").Inc()
			return loc
		}
	}

	loc, err := c.fetch(ctx, ip)
	if err != nil {
		applog.Std().WithError(err).WithField("ip", ip).Warn("geoip.lookup.fail")
		metrics.GeoLookups.WithLabelValues("error").Inc()
		return Fallback
	}
	metrics.GeoLookups.WithLabelValues("ok").Inc()
	if c.Cache != nil {
		_ = cache.SetJSON(c.Cache, key, loc, c.TTL)
	}
	return loc
}

func (c *Client) fetch(ctx context.Context, ip string) (Location, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(c.URL, ip), nil)
	if err != nil {
		return Location{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Location{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("geoip: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return Location{}, err
	}
	return parse(body)
}

func parse(body []byte) (Location, error) {
	if !gjson.ValidBytes(body) {
		return Location{}, fmt.Errorf("geoip: invalid json")
	}
	res := gjson.ParseBytes(body)
	if res.Get("error").Bool() {
		return Location{}, fmt.Errorf("geoip: %s", res.Get("reason").String())
	}
	loc := Location{
		Country:     res.Get("country_name").String(),
		CountryCode: res.Get("country_code").String(),
		Region:      res.Get("region").String(),
		City:        res.Get("city").String(),
	}
	if loc.CountryCode == "" {
		return Location{}, fmt.Errorf("geoip: missing country")
	}
	if loc.Country == "" {
		loc.Country = loc.CountryCode
	}
	if loc.City == "" {
		loc.City = Fallback.City
	}
	return loc, nil
}
