package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"climate-server/internal/modules/climate/repository"
	"climate-server/internal/modules/climate/types"
)

// windowDays is the length of the rolling window, in calendar days, ending at
// the most recent observation. It is a fixed day count, not "one year".
const windowDays = 365

var (
	ErrInvalidDateFormat = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidRange      = errors.New("end date precedes start date")
	ErrDataUnavailable   = errors.New("dataset contains no observations")
	ErrNoMatchingData    = errors.New("no observations match the requested dates")
)

type Route struct {
	Path        string
	Description string
}

var routes = []Route{
	{Path: "/api/v1.0/precipitation", Description: "Precipitation by date for the last 365 days of data"},
	{Path: "/api/v1.0/stations", Description: "Names of all stations"},
	{Path: "/api/v1.0/tobs", Description: "Temperature observations of the most active station for the last 365 days of data"},
	{Path: "/api/v1.0/{start}", Description: "[min, avg, max] temperature from start (YYYY-MM-DD) onwards"},
	{Path: "/api/v1.0/{start}/{end}", Description: "[min, avg, max] temperature from start to end inclusive (YYYY-MM-DD)"},
}

// Service answers the climate reports. It holds no state between calls: the
// most recent date and the most active station are recomputed on every call.
type Service struct {
	repository repository.ClimateRepository
	logger     *slog.Logger
}

func NewService(repository repository.ClimateRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repository: repository, logger: logger}
}

// Routes lists the data endpoints for discovery.
func (s *Service) Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// PrecipitationLastYear maps each date in the rolling window to its
// precipitation. Readings from several stations on the same date collapse to
// one entry: rows arrive ordered by date then station id and the last one
// wins, so the station with the greatest id on that date is reported, even
// when its reading is null.
func (s *Service) PrecipitationLastYear(ctx context.Context) (map[string]*float64, error) {
	start, err := s.windowStart(ctx)
	if err != nil {
		return nil, err
	}

	readings, err := s.repository.PrecipitationSince(ctx, start)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*float64, len(readings))
	for _, r := range readings {
		out[r.Date] = r.Precipitation
	}
	s.logger.Debug("precipitation window", "from", start, "rows", len(readings), "dates", len(out))
	return out, nil
}

// StationNames returns every station name, unsorted, duplicates included.
func (s *Service) StationNames(ctx context.Context) ([]string, error) {
	return s.repository.StationNames(ctx)
}

// MostActiveStationObservations returns the rolling window's temperature
// observations for the station with the most observations overall.
func (s *Service) MostActiveStationObservations(ctx context.Context) ([]types.TemperatureObservation, error) {
	stationID, count, ok, err := s.repository.MostActiveStation(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDataUnavailable
	}

	start, err := s.windowStart(ctx)
	if err != nil {
		return nil, err
	}

	obs, err := s.repository.TemperaturesSince(ctx, stationID, start)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("most active station", "station", stationID, "observations", count, "from", start, "rows", len(obs))
	return obs, nil
}

// TemperatureStatsFrom aggregates temperatures on or after start.
func (s *Service) TemperatureStatsFrom(ctx context.Context, start string) (types.TemperatureStats, error) {
	if _, err := ParseDate(start); err != nil {
		return types.TemperatureStats{}, err
	}
	return s.temperatureStats(ctx, start, "")
}

// TemperatureStatsRange aggregates temperatures between start and end inclusive.
func (s *Service) TemperatureStatsRange(ctx context.Context, start string, end string) (types.TemperatureStats, error) {
	from, err := ParseDate(start)
	if err != nil {
		return types.TemperatureStats{}, err
	}
	to, err := ParseDate(end)
	if err != nil {
		return types.TemperatureStats{}, err
	}
	if to.Before(from) {
		return types.TemperatureStats{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, end)
	}
	return s.temperatureStats(ctx, start, end)
}

func (s *Service) temperatureStats(ctx context.Context, from string, to string) (types.TemperatureStats, error) {
	stats, n, err := s.repository.TemperatureStats(ctx, from, to)
	if err != nil {
		return types.TemperatureStats{}, err
	}
	if n == 0 {
		return types.TemperatureStats{}, ErrNoMatchingData
	}
	s.logger.Debug("temperature stats", "from", from, "to", to, "rows", n)
	return stats, nil
}

// windowStart returns the first date of the rolling window ending at the most
// recent observation.
func (s *Service) windowStart(ctx context.Context) (string, error) {
	latest, ok, err := s.repository.MostRecentDate(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrDataUnavailable
	}
	return WindowStart(latest)
}

// WindowStart returns mostRecent minus 365 days, formatted as YYYY-MM-DD.
func WindowStart(mostRecent string) (string, error) {
	t, err := time.Parse(types.DateLayout, mostRecent)
	if err != nil {
		return "", fmt.Errorf("stored date %q: %w", mostRecent, err)
	}
	return t.AddDate(0, 0, -windowDays).Format(types.DateLayout), nil
}

// ParseDate accepts only canonical YYYY-MM-DD calendar dates.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(types.DateLayout, s)
	if err != nil || t.Format(types.DateLayout) != s {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	return t, nil
}
