package controller

import (
	"log/slog"
	"net/http"

	"climate-server/internal/modules/climate/service"
)

type ClimateController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type climateControllerImpl struct {
	service *service.Service
	logger  *slog.Logger
}

func NewClimateController(svc *service.Service, logger *slog.Logger) ClimateController {
	if logger == nil {
		logger = slog.Default()
	}
	return &climateControllerImpl{service: svc, logger: logger}
}

func (c *climateControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleIndex)
	mux.HandleFunc("GET /api/v1.0/precipitation", c.handlePrecipitation)
	mux.HandleFunc("GET /api/v1.0/stations", c.handleStations)
	mux.HandleFunc("GET /api/v1.0/tobs", c.handleTobs)
	mux.HandleFunc("GET /api/v1.0/{start}", c.handleStatsFrom)
	mux.HandleFunc("GET /api/v1.0/{start}/{end}", c.handleStatsRange)
}
