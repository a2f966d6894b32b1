package types

import "encoding/json"

// DateLayout is the ISO form every observation date is stored in. Dates in
// this layout sort lexically in chronological order.
const DateLayout = "2006-01-02"

type Station struct {
	StationID string  `json:"station" yaml:"station"`
	Name      string  `json:"name" yaml:"name"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Elevation float64 `json:"elevation" yaml:"elevation"`
}

// Observation is one station's reading for one day. Precipitation is nil when
// the station did not report it.
type Observation struct {
	StationID     string   `json:"station" yaml:"station"`
	Date          string   `json:"date" yaml:"date"`
	Precipitation *float64 `json:"prcp" yaml:"prcp"`
	Temperature   float64  `json:"tobs" yaml:"tobs"`
}

type PrecipitationReading struct {
	Date          string
	Precipitation *float64
}

type TemperatureObservation struct {
	Date        string  `json:"date"`
	Temperature float64 `json:"temperature"`
}

type TemperatureStats struct {
	Min float64
	Avg float64
	Max float64
}

// MarshalJSON encodes the stats as [min, avg, max].
func (s TemperatureStats) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{s.Min, s.Avg, s.Max})
}
