package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"climate-server/internal/config"
	db "climate-server/internal/db"
	httpapi "climate-server/internal/httpapi"
	climate "climate-server/internal/modules/climate"
	"climate-server/internal/modules/climate/fixture"
	"climate-server/internal/modules/climate/repository"
	climateviews "climate-server/internal/modules/climate/views"
)

const shutdownTimeout = 10 * time.Second

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"driver", cfg.Driver,
		"path", cfg.Path,
		"maxOpenConns", cfg.MaxOpenConns,
		"maxIdleConns", cfg.MaxIdleConns,
		"connMaxLifetime", cfg.ConnMaxLifetime,
		"logSQL", cfg.LogSQL,
	)

	srv, closeDataset, err := buildServer(cfg)
	if err != nil {
		return err
	}
	defer closeDataset()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

// buildServer opens the dataset and wires every route. The returned func
// releases the dataset and is safe to call when nothing was opened.
func buildServer(cfg config.Config) (*http.Server, func(), error) {
	dbConn, repo, err := openDataset(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeDataset := func() {
		if err := db.Close(dbConn); err != nil {
			slog.Error("db close", "error", err)
		}
	}

	if err := climateviews.LoadTemplates(); err != nil {
		closeDataset()
		return nil, nil, err
	}

	metrics := httpapi.NewMetrics()
	mux := httpapi.NewMux(dbConn, metrics)
	climate.RegisterFeature(mux, repo, slog.Default())

	return httpapi.NewServer(cfg, mux, metrics), closeDataset, nil
}

// openDataset returns a nil *sql.DB for the fixture driver, whose
// observations live in memory.
func openDataset(cfg config.Config) (*sql.DB, repository.ClimateRepository, error) {
	if cfg.Driver == config.DriverFixture {
		d, err := fixture.LoadFile(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("load fixture dataset: %w", err)
		}
		slog.Info("fixture dataset loaded", "stations", len(d.Stations), "observations", len(d.Observations))
		return nil, d, nil
	}

	dbConn, err := db.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("database connection successful", "driver", cfg.Driver)
	return dbConn, repository.NewRepository(dbConn), nil
}
