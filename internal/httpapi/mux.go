package httpapi

import (
	"database/sql"
	"net/http"
)

// NewMux returns a mux with the operational endpoints registered. Feature
// modules add their own routes to it.
func NewMux(db *sql.DB, metrics *Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db)
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}
