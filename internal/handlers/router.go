package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the HTTP routes. Middlewares wrap the API subrouter only.
func NewRouter(reports *ReportHandler, middlewares ...mux.MiddlewareFunc) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middlewares...)
	api.HandleFunc("/reports/maintenance", reports.MaintenanceReport).Methods(http.MethodGet)
	return r
}
