package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const MetricsRoute = http.MethodGet + " " + "/metrics"

type Metrics struct {
	gatherer prometheus.Gatherer
}

func NewMetrics(gatherer prometheus.Gatherer) *Metrics {
	return &Metrics{gatherer: gatherer}
}

func (h *Metrics) AddRoutes(m *http.ServeMux) {
	m.Handle(MetricsRoute, promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
}
