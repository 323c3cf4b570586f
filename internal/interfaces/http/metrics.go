package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contadores Prometheus de la API.
type Metrics struct {
	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	txCounter      *prometheus.CounterVec
}

// NewMetrics registra los colectores en el registry por defecto.
func NewMetrics() *Metrics {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_ledger_requests_total",
			Help: "Total de peticiones HTTP a la API",
		},
		[]string{"method", "route", "status"},
	)
	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stock_ledger_request_duration_seconds",
			Help:    "Duración de las peticiones HTTP en segundos",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	txCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_ledger_transactions_total",
			Help: "Transacciones de stock registradas, por tipo",
		},
		[]string{"type"},
	)
	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)
	prometheus.MustRegister(txCounter)
	return &Metrics{
		requestCounter: requestCounter,
		requestLatency: requestLatency,
		txCounter:      txCounter,
	}
}

// Middleware instrumenta cada petición con contador y latencia por ruta.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		method := c.Method()
		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			}
		}
		m.requestCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.requestLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}

// CountTransaction incrementa el contador de transacciones confirmadas.
func (m *Metrics) CountTransaction(txType string) {
	m.txCounter.WithLabelValues(txType).Inc()
}

// MetricsHandler expone /metrics en formato Prometheus.
func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
