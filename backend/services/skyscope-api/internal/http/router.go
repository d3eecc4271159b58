package httpserver

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Routes aggregates handlers for HTTP server. Nil entries are not mounted.
type Routes struct {
	Register    http.HandlerFunc
	Ingest      http.HandlerFunc
	Sensors     http.HandlerFunc
	Latest      http.HandlerFunc
	Last12Hours http.HandlerFunc
	Filter      http.HandlerFunc
	Live        http.HandlerFunc
	Health      http.HandlerFunc
	Metrics     http.Handler
	Static      http.Handler
}

// NewRouter wires all HTTP routes. Middlewares run only for matched routes.
func NewRouter(routes Routes, middlewares ...mux.MiddlewareFunc) *mux.Router {
	router := mux.NewRouter()
	router.Use(middlewares...)

	post := func(path string, h http.HandlerFunc) {
		if h != nil {
			router.Handle(path, h).Methods(http.MethodPost)
		}
	}
	get := func(path string, h http.Handler) {
		if h != nil {
			router.Handle(path, h).Methods(http.MethodGet)
		}
	}

	post("/sensor-auth", routes.Register)
	post("/sensor-data", routes.Ingest)
	get("/sensors", handlerOrNil(routes.Sensors))
	get("/sensorData/latest", handlerOrNil(routes.Latest))
	get("/sensorData/last12hours", handlerOrNil(routes.Last12Hours))
	get("/sensorData/filter", handlerOrNil(routes.Filter))
	get("/sensorData/live", handlerOrNil(routes.Live))
	get("/health", handlerOrNil(routes.Health))
	get("/metrics", routes.Metrics)

	if routes.Static != nil {
		router.PathPrefix("/").Handler(routes.Static).Methods(http.MethodGet, http.MethodHead)
	}
	return router
}

// handlerOrNil avoids wrapping a nil func into a non-nil interface.
func handlerOrNil(h http.HandlerFunc) http.Handler {
	if h == nil {
		return nil
	}
	return h
}
