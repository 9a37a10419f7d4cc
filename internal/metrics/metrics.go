package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	LabelResult  = "result"
	LabelChannel = "channel"
)

var (
	Registry = prometheus.NewRegistry()

	Bids = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "superloja_auction_bids_total",
			Help: "Bid submissions by outcome.",
		},
		[]string{LabelResult},
	)
	Orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "superloja_orders_total",
			Help: "Orders placed by sales channel.",
		},
		[]string{LabelChannel},
	)
	PageViews = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "superloja_page_views_total",
			Help: "Page views recorded by the analytics beacon.",
		},
	)
	GeoLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "superloja_geoip_lookups_total",
			Help: "Geo-IP lookups by outcome (ok, cached, fallback, error).",
		},
		[]string{LabelResult},
	)
	ChatAnswers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "superloja_chatbot_answers_total",
			Help: "Chatbot replies, matched against the knowledge base or fallback.",
		},
		[]string{LabelResult},
	)
	ReportLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "superloja_analytics_report_seconds",
			Help:    "Time spent loading and aggregating an analytics report.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		Bids, Orders, PageViews, GeoLookups, ChatAnswers, ReportLatency,
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
