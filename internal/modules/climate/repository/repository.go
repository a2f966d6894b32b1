package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"

	"climate-server/internal/modules/climate/types"
)

//go:embed sql/get-most-recent-date.sql
var getMostRecentDateSQL string

//go:embed sql/get-precipitation-since.sql
var getPrecipitationSinceSQL string

//go:embed sql/get-station-names.sql
var getStationNamesSQL string

//go:embed sql/get-most-active-station.sql
var getMostActiveStationSQL string

//go:embed sql/get-temperatures-since.sql
var getTemperaturesSinceSQL string

//go:embed sql/get-temperature-stats-from.sql
var getTemperatureStatsFromSQL string

//go:embed sql/get-temperature-stats-range.sql
var getTemperatureStatsRangeSQL string

// ClimateRepository is the read-only view of the observation dataset. Dates
// are ISO strings and every bound is inclusive.
type ClimateRepository interface {
	// MostRecentDate returns MAX(date); ok is false when there are no observations.
	MostRecentDate(ctx context.Context) (date string, ok bool, err error)
	// PrecipitationSince returns (date, prcp) for date >= from, ordered by
	// date then station id.
	PrecipitationSince(ctx context.Context, from string) ([]types.PrecipitationReading, error)
	// StationNames returns station names in the dataset's natural order.
	StationNames(ctx context.Context) ([]string, error)
	// MostActiveStation returns the station with the most observations. Ties
	// go to the smallest station id. ok is false when there are no observations.
	MostActiveStation(ctx context.Context) (stationID string, count int, ok bool, err error)
	// TemperaturesSince returns a station's temperatures for date >= from in
	// the dataset's natural order.
	TemperaturesSince(ctx context.Context, stationID string, from string) ([]types.TemperatureObservation, error)
	// TemperatureStats aggregates temperatures for from <= date <= to. An
	// empty to leaves the range open-ended. n is the number of rows aggregated;
	// stats are meaningless when n is zero.
	TemperatureStats(ctx context.Context, from string, to string) (stats types.TemperatureStats, n int, err error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ClimateRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) MostRecentDate(ctx context.Context) (string, bool, error) {
	var date sql.NullString
	if err := r.db.QueryRowContext(ctx, getMostRecentDateSQL).Scan(&date); err != nil {
		return "", false, fmt.Errorf("most recent date: %w", err)
	}
	return date.String, date.Valid, nil
}

func (r *repositoryImpl) PrecipitationSince(ctx context.Context, from string) ([]types.PrecipitationReading, error) {
	rows, err := r.db.QueryContext(ctx, getPrecipitationSinceSQL, from)
	if err != nil {
		return nil, fmt.Errorf("precipitation since %s: %w", from, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close precipitation rows", "error", err)
		}
	}()

	var out []types.PrecipitationReading
	for rows.Next() {
		var rec types.PrecipitationReading
		var prcp sql.NullFloat64
		if err := rows.Scan(&rec.Date, &prcp); err != nil {
			return nil, err
		}
		if prcp.Valid {
			v := prcp.Float64
			rec.Precipitation = &v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) StationNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, getStationNamesSQL)
	if err != nil {
		return nil, fmt.Errorf("station names: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close station rows", "error", err)
		}
	}()

	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) MostActiveStation(ctx context.Context) (string, int, bool, error) {
	var stationID string
	var count int
	err := r.db.QueryRowContext(ctx, getMostActiveStationSQL).Scan(&stationID, &count)
	if err == sql.ErrNoRows {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, fmt.Errorf("most active station: %w", err)
	}
	return stationID, count, true, nil
}

func (r *repositoryImpl) TemperaturesSince(ctx context.Context, stationID string, from string) ([]types.TemperatureObservation, error) {
	rows, err := r.db.QueryContext(ctx, getTemperaturesSinceSQL, stationID, from)
	if err != nil {
		return nil, fmt.Errorf("temperatures for %s since %s: %w", stationID, from, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close temperature rows", "error", err)
		}
	}()

	out := []types.TemperatureObservation{}
	for rows.Next() {
		var rec types.TemperatureObservation
		if err := rows.Scan(&rec.Date, &rec.Temperature); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) TemperatureStats(ctx context.Context, from string, to string) (types.TemperatureStats, int, error) {
	var row *sql.Row
	if to == "" {
		row = r.db.QueryRowContext(ctx, getTemperatureStatsFromSQL, from)
	} else {
		row = r.db.QueryRowContext(ctx, getTemperatureStatsRangeSQL, from, to)
	}

	var minT, avgT, maxT sql.NullFloat64
	var n int
	if err := row.Scan(&minT, &avgT, &maxT, &n); err != nil {
		return types.TemperatureStats{}, 0, fmt.Errorf("temperature stats [%s, %s]: %w", from, to, err)
	}
	if n == 0 {
		return types.TemperatureStats{}, 0, nil
	}
	return types.TemperatureStats{Min: minT.Float64, Avg: avgT.Float64, Max: maxT.Float64}, n, nil
}
