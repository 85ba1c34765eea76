package handlers

import "net/http"

// NewRouter assembles the service mux. metricsHandler is mounted at
// /metrics when non-nil.
func NewRouter(wh *WorkflowHandler, hh *HealthHandler, metricsHandler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/workflows", wh.HandleCreate)
	mux.HandleFunc("GET /v1/workflows", wh.HandleList)
	mux.HandleFunc("GET /v1/workflows/{id}", wh.HandleGet)
	mux.HandleFunc("PUT /v1/workflows/{id}", wh.HandleUpdate)
	mux.HandleFunc("DELETE /v1/workflows/{id}", wh.HandleDelete)
	mux.HandleFunc("POST /v1/workflows/{id}/run", wh.HandleRun)
	mux.HandleFunc("GET /v1/workflows/{id}/stream", wh.HandleStream)

	mux.HandleFunc("GET /healthz", hh.HandleHealthz)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}
	return mux
}
