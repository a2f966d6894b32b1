// Package fixture is an in-memory observation dataset. It satisfies the same
// read contract as the SQL repository, including ordering and tie-break rules,
// so handlers and the query service can run without a database file.
package fixture

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"climate-server/internal/modules/climate/repository"
	"climate-server/internal/modules/climate/types"
)

// Dataset holds stations and observations in insertion order, which is its
// natural iteration order.
type Dataset struct {
	Stations     []types.Station     `yaml:"stations"`
	Observations []types.Observation `yaml:"observations"`
}

var _ repository.ClimateRepository = (*Dataset)(nil)

func New(stations []types.Station, observations []types.Observation) *Dataset {
	return &Dataset{Stations: stations, Observations: observations}
}

func LoadYAML(r io.Reader) (*Dataset, error) {
	var d Dataset
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &d, nil
}

func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadYAML(f)
}

func (d *Dataset) MostRecentDate(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if len(d.Observations) == 0 {
		return "", false, nil
	}
	latest := d.Observations[0].Date
	for _, o := range d.Observations[1:] {
		if o.Date > latest {
			latest = o.Date
		}
	}
	return latest, true, nil
}

func (d *Dataset) PrecipitationSince(ctx context.Context, from string) ([]types.PrecipitationReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var matched []types.Observation
	for _, o := range d.Observations {
		if o.Date >= from {
			matched = append(matched, o)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Date != matched[j].Date {
			return matched[i].Date < matched[j].Date
		}
		return matched[i].StationID < matched[j].StationID
	})

	out := make([]types.PrecipitationReading, 0, len(matched))
	for _, o := range matched {
		out = append(out, types.PrecipitationReading{Date: o.Date, Precipitation: o.Precipitation})
	}
	return out, nil
}

func (d *Dataset) StationNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(d.Stations))
	for _, s := range d.Stations {
		out = append(out, s.Name)
	}
	return out, nil
}

func (d *Dataset) MostActiveStation(ctx context.Context) (string, int, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, false, err
	}
	counts := make(map[string]int)
	for _, o := range d.Observations {
		counts[o.StationID]++
	}

	var best string
	bestCount := 0
	for id, n := range counts {
		if n > bestCount || (n == bestCount && id < best) {
			best, bestCount = id, n
		}
	}
	return best, bestCount, bestCount > 0, nil
}

func (d *Dataset) TemperaturesSince(ctx context.Context, stationID string, from string) ([]types.TemperatureObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := []types.TemperatureObservation{}
	for _, o := range d.Observations {
		if o.StationID == stationID && o.Date >= from {
			out = append(out, types.TemperatureObservation{Date: o.Date, Temperature: o.Temperature})
		}
	}
	return out, nil
}

func (d *Dataset) TemperatureStats(ctx context.Context, from string, to string) (types.TemperatureStats, int, error) {
	if err := ctx.Err(); err != nil {
		return types.TemperatureStats{}, 0, err
	}
	var temps []float64
	for _, o := range d.Observations {
		if o.Date < from || (to != "" && o.Date > to) {
			continue
		}
		temps = append(temps, o.Temperature)
	}
	if len(temps) == 0 {
		return types.TemperatureStats{}, 0, nil
	}
	return types.TemperatureStats{
		Min: floats.Min(temps),
		Avg: stat.Mean(temps, nil),
		Max: floats.Max(temps),
	}, len(temps), nil
}
