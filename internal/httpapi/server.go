package httpapi

import (
	"net/http"
	"time"

	"climate-server/internal/config"
)

func NewServer(cfg config.Config, mux *http.ServeMux, metrics *Metrics) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestID(requestLogger(metrics.instrument(mux))),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
