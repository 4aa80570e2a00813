package middleware

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig configures the request latency histogram and the /metrics endpoint.
type MetricsConfig struct {
	Skipper   Skipper
	Namespace string
	Subsystem string
	Buckets   []float64
	// NormalizeHTTPStatus collapses status codes into 2xx, 4xx, ...
	NormalizeHTTPStatus bool
	// MetricsPath serves the Prometheus handler. Empty disables it.
	MetricsPath string
}

const (
	httpRequestsDuration = "request_duration_seconds"
	httpRequestsInFlight = "requests_in_flight"
	// every unmatched URL shares one label value
	notFoundPath = "/not-found"
)

var DefaultMetricsConfig = MetricsConfig{
	Skipper: DefaultSkipper,
	Buckets: []float64{
		0.001, // 1ms
		0.005,
		0.01,
		0.025,
		0.05,
		0.1, // 100ms
		0.25,
		0.5,
		1, // 1s
		2.5,
		5,
		10,
		30, // worst case of 3 upstream attempts
	},
	MetricsPath: "/metrics",
}

type httpMetrics struct {
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// Metrics returns an echo middleware with default config for instrumentation.
func Metrics() echo.MiddlewareFunc {
	return MetricsWithConfig(DefaultMetricsConfig)
}

// MetricsWithConfig observes every request into a histogram labelled by status code,
// method and route, and answers MetricsPath with the Prometheus exposition.
func MetricsWithConfig(config MetricsConfig) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = DefaultMetricsConfig.Skipper
	}
	if len(config.Buckets) == 0 {
		config.Buckets = DefaultMetricsConfig.Buckets
	}

	m, err := registerHttpMetrics(config)
	if err != nil {
		panic(err)
	}

	var expose echo.HandlerFunc
	if config.MetricsPath != "" {
		expose = echo.WrapHandler(promhttp.Handler())
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if expose != nil && req.URL.Path == config.MetricsPath {
				return expose(c)
			}
			if config.Skipper(c) {
				return next(c)
			}

			m.inFlight.Inc()
			defer m.inFlight.Dec()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if isNotFoundHandler(c.Handler()) {
				path = notFoundPath
			}
			code := c.Response().Status
			m.duration.
				WithLabelValues(statusLabel(code, config.NormalizeHTTPStatus), req.Method, path).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func registerHttpMetrics(config MetricsConfig) (*httpMetrics, error) {
	duration, err := util.Register(prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: config.Namespace,
		Subsystem: config.Subsystem,
		Name:      httpRequestsDuration,
		Help:      "Time spent serving a route",
		Buckets:   config.Buckets,
	}, []string{"code", "method", "path"}))
	if err != nil {
		return nil, fmt.Errorf("request duration metric: %w", err)
	}

	inFlight, err := util.Register(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: config.Namespace,
		Subsystem: config.Subsystem,
		Name:      httpRequestsInFlight,
		Help:      "Requests currently being served",
	}))
	if err != nil {
		return nil, fmt.Errorf("in-flight metric: %w", err)
	}

	return &httpMetrics{duration: duration, inFlight: inFlight}, nil
}

func statusLabel(code int, normalize bool) string {
	if !normalize {
		return strconv.Itoa(code)
	}
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	}
	return "5xx"
}

func isNotFoundHandler(handler echo.HandlerFunc) bool {
	return reflect.ValueOf(handler).Pointer() == reflect.ValueOf(echo.NotFoundHandler).Pointer()
}
