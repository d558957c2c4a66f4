package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Agent metrics
	AgentRuns        *prometheus.CounterVec
	SMSSentTotal     *prometheus.CounterVec
	SocialLeadsFound *prometheus.CounterVec
	JobRuns          *prometheus.CounterVec
}

// New creates a new Metrics instance registered on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Agent metrics
		AgentRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_runs_total",
				Help: "Total number of agent invocations",
			},
			[]string{"agent", "outcome"}, // ok, error
		),
		SMSSentTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sms_sent_total",
				Help: "Total number of SMS messages handed to a provider",
			},
			[]string{"provider"}, // twilio, console
		),
		SocialLeadsFound: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "social_leads_found_total",
				Help: "Total number of relevant social leads saved",
			},
			[]string{"platform"},
		),
		JobRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduled_job_runs_total",
				Help: "Total number of scheduled job runs",
			},
			[]string{"job", "outcome"},
		),
	}

	return m
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := c.Path() // route pattern, e.g. /api/services/:id

			if req.ContentLength > 0 {
				m.HTTPRequestSize.WithLabelValues(req.Method, path).Observe(float64(req.ContentLength))
			}

			err := next(c)

			status := c.Response().Status
			duration := time.Since(start).Seconds()

			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, strconv.Itoa(status)).Observe(duration)
			m.HTTPResponseSize.WithLabelValues(req.Method, path).Observe(float64(c.Response().Size))

			return err
		}
	}
}

// RecordAgentRun counts one agent invocation
func (m *Metrics) RecordAgentRun(agent string, err error) {
	m.AgentRuns.WithLabelValues(agent, outcome(err)).Inc()
}

// RecordJobRun counts one scheduled job run
func (m *Metrics) RecordJobRun(job string, err error) {
	m.JobRuns.WithLabelValues(job, outcome(err)).Inc()
}

// SMSSent implements sms.Observer
func (m *Metrics) SMSSent(provider string) {
	m.SMSSentTotal.WithLabelValues(provider).Inc()
}

// SocialLeadFound implements socialhunter.LeadRecorder
func (m *Metrics) SocialLeadFound(platform string) {
	m.SocialLeadsFound.WithLabelValues(platform).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
