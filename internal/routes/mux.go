// Package routes
package routes

import (
	"net/http"

	"github.com/khetsense/khetsense-api/pkg/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewMux(app *App) http.Handler {
	mux := http.NewServeMux()

	// health check
	mux.HandleFunc("/healthz", healthHandler)

	// metrics
	mux.Handle("/metrics", promhttp.Handler())

	// reports
	mux.HandleFunc("/dashboard", app.dashboardHandler)
	mux.HandleFunc("/monitoring", app.monitoringHandler)
	mux.HandleFunc("/farm", app.farmHandler)

	// records
	mux.HandleFunc("/farms", app.farmsHandler)
	mux.HandleFunc("/logs", app.logsHandler)
	mux.HandleFunc("/expenses", app.expensesHandler)
	mux.HandleFunc("/harvests", app.harvestsHandler)
	mux.HandleFunc("/readings", app.readingsHandler)

	// cached recent values for a single device
	mux.HandleFunc("/latest", app.latestHandler)

	return utils.WithCORS(mux)
}
