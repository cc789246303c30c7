package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "roomfinder", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "roomfinder", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	SearchTiers = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "roomfinder", Name: "search_tier_total", Help: "Search tier executions by outcome."},
		[]string{"tier", "outcome"}, // outcome: hit|empty|error
	)
	Bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "roomfinder", Name: "bookings_total", Help: "Booking attempts by result."},
		[]string{"result"},
	)
	RealtimeSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "roomfinder", Name: "realtime_subscribers", Help: "Open realtime subscriptions."},
	)
	RealtimeEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "roomfinder", Name: "realtime_events_total", Help: "Realtime events pushed or dropped."},
		[]string{"event", "outcome"}, // outcome: sent|dropped
	)
	InventoryEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "roomfinder", Name: "inventory_events_total", Help: "Inventory change events over Kafka."},
		[]string{"direction", "outcome"}, // direction: out|in
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "roomfinder", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
)

// Serve exposes reg on a dedicated listener. An empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, SearchTiers, Bookings,
		RealtimeSubscribers, RealtimeEvents, InventoryEvents, CacheEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveTier(tier, outcome string) { SearchTiers.WithLabelValues(tier, outcome).Inc() }

func ObserveBooking(result string) { Bookings.WithLabelValues(result).Inc() }

func ObserveRealtime(event, outcome string) { RealtimeEvents.WithLabelValues(event, outcome).Inc() }

func ObserveInventoryEvent(direction, outcome string) {
	InventoryEvents.WithLabelValues(direction, outcome).Inc()
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}
