package metrics

import (
	"net/http"
	"strconv"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "aphro_ws_connections",
		Help: "Current number of active websocket connections",
	})
	MessagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aphro_messages_total",
		Help: "Total number of chat messages persisted",
	})
	CrossingsDetected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aphro_crossings_detected_total",
		Help: "Total number of proximity pairs emitted by crossing scans",
	})
	PushNotificationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aphro_push_notifications_total",
		Help: "Total number of push notifications sent",
	})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aphro_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter",
	})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aphro_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "status"})
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aphro_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)

func init() {
	prometheus.MustRegister(
		WsConnections,
		MessagesTotal,
		CrossingsDetected,
		PushNotificationsTotal,
		RateLimitedTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// Middleware records basic request metrics for Prometheus scraping
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		labels := prometheus.Labels{
			"method": r.Method,
			"status": strconv.Itoa(ww.Status()),
		}
		HTTPRequestsTotal.With(labels).Inc()
		HTTPRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	})
}
