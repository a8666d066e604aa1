// Package web serves the polling scheduler and the vault aggregator over HTTP.
package web

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/screwyprof/stakesync/pkg/logger"
	"github.com/screwyprof/stakesync/web/handler"
)

// NewHandler registers every route and wraps the mux with request logging
func NewHandler(log *slog.Logger, poller handler.Poller, aggregator handler.Aggregator, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()

	handler.NewPolling(poller).AddRoutes(mux)
	handler.NewVaults(aggregator).AddRoutes(mux)
	handler.NewMetrics(gatherer).AddRoutes(mux)

	return logger.NewMiddleware(log)(mux)
}
