// Package environment simulates a disaster-prone zone: a set of continuously
// drifting environmental readings plus threshold rules that surface disaster
// events when conditions cross them.
package environment

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"disaster-sim/internal/model"
)

// Condition is a snapshot of the six environmental readings.
type Condition struct {
	Timestamp       string  `json:"timestamp"`
	Temperature     float64 `json:"temperature"`      // Celsius
	Humidity        float64 `json:"humidity"`         // percent
	WindSpeed       float64 `json:"wind_speed"`       // km/h
	AirQuality      int     `json:"air_quality"`      // AQI 0-500
	WaterLevel      float64 `json:"water_level"`      // meters
	SeismicActivity float64 `json:"seismic_activity"` // Richter scale
}

// CSVHeader is the column set for conditions exports.
var CSVHeader = []string{
	"Timestamp", "Temperature(C)", "Humidity(%)", "Wind Speed(km/h)",
	"Air Quality", "Water Level(m)", "Seismic Activity",
}

// Physical clamp ranges. Every reading stays inside its range after Update;
// seismic activity has no clamp beyond its draw range.
const (
	TempMin, TempMax         = -10.0, 45.0
	HumidityMin, HumidityMax = 0.0, 100.0
	WindMin, WindMax         = 0.0, 150.0
	AQIMin, AQIMax           = 0, 500
	WaterMin, WaterMax       = 0.0, 20.0
)

// randomEventChance is the per-tick probability of an unconditional random
// disaster, independent of every threshold rule.
const randomEventChance = 0.10

// Environment holds the mutable condition state and produces disaster
// events. It owns its random source; uniqueness of event ids is scoped to
// one Environment's lifetime.
type Environment struct {
	location      string
	rng           *rand.Rand
	current       Condition
	active        []model.DisasterEvent
	history       []model.DisasterEvent
	conditions    []Condition
	eventCounter  int
	recordHistory bool
}

// New creates an environment at baseline conditions. rng must not be nil;
// callers seed it for reproducible runs.
func New(location string, rng *rand.Rand) *Environment {
	return &Environment{
		location:      location,
		rng:           rng,
		recordHistory: true,
		current: Condition{
			Timestamp:       time.Now().Format(time.RFC3339),
			Temperature:     22.0,
			Humidity:        60.0,
			WindSpeed:       15.0,
			AirQuality:      50,
			WaterLevel:      2.0,
			SeismicActivity: 0.0,
		},
	}
}

// SetRecordHistory toggles per-tick snapshotting of conditions. Long
// unbounded runs can switch it off; it is on by default.
func (e *Environment) SetRecordHistory(on bool) {
	e.recordHistory = on
}

// SetCurrent overrides the condition snapshot. Scenario setup hook; during a
// run only Update mutates conditions.
func (e *Environment) SetCurrent(c Condition) {
	e.current = c
}

// Current returns the latest condition snapshot.
func (e *Environment) Current() Condition {
	return e.current
}

// Update perturbs each reading by a bounded uniform delta and clamps the
// result to its physical range. Seismic activity is replaced by a fresh
// draw in [0,2) rather than perturbed; quiet faults do not accumulate
// stress between ticks in this model.
func (e *Environment) Update() {
	e.current.Temperature = clamp(e.current.Temperature+e.uniform(-2, 2), TempMin, TempMax)
	e.current.Humidity = clamp(e.current.Humidity+e.uniform(-5, 5), HumidityMin, HumidityMax)
	e.current.WindSpeed = clamp(e.current.WindSpeed+e.uniform(-3, 3), WindMin, WindMax)
	e.current.AirQuality = clampInt(e.current.AirQuality+e.randInt(-10, 10), AQIMin, AQIMax)
	e.current.WaterLevel = clamp(e.current.WaterLevel+e.uniform(-0.5, 0.5), WaterMin, WaterMax)
	e.current.SeismicActivity = e.uniform(0, 2)

	e.current.Timestamp = time.Now().Format(time.RFC3339)
	if e.recordHistory {
		e.conditions = append(e.conditions, e.current)
	}
}

// CheckForDisasters evaluates the four threshold rules plus the random-event
// roll. The rules are independent and non-exclusive: several can fire on one
// tick. Every new event is appended to the active list and the permanent
// history and returned.
func (e *Environment) CheckForDisasters() []model.DisasterEvent {
	var events []model.DisasterEvent

	if e.current.SeismicActivity > 4.0 {
		events = append(events, e.newEvent(model.Earthquake, EarthquakeSeverity(e.current.SeismicActivity)))
	}
	if e.current.WaterLevel > 10.0 {
		events = append(events, e.newEvent(model.Flood, FloodSeverity(e.current.WaterLevel)))
	}
	if e.current.Temperature > 35 && e.current.Humidity < 20 {
		events = append(events, e.newEvent(model.Fire, FireSeverity(e.current.Temperature)))
	}
	if e.current.WindSpeed > 120 {
		events = append(events, e.newEvent(model.Hurricane, HurricaneSeverity(e.current.WindSpeed)))
	}

	if e.rng.Float64() < randomEventChance {
		t := model.AllDisasterTypes[e.rng.Intn(len(model.AllDisasterTypes))]
		s := model.AllSeverityLevels[e.rng.Intn(len(model.AllSeverityLevels))]
		events = append(events, e.newEvent(t, s))
	}

	e.active = append(e.active, events...)
	e.history = append(e.history, events...)
	return events
}

// newEvent builds one event with severity-scaled derived figures.
func (e *Environment) newEvent(t model.DisasterType, s model.SeverityLevel) model.DisasterEvent {
	e.eventCounter++
	sev := float64(s)
	return model.DisasterEvent{
		EventID:             eventID(e.eventCounter),
		Type:                t,
		Severity:            s,
		Location:            e.location,
		Timestamp:           time.Now().Format(time.RFC3339),
		AffectedAreaKm2:     round2(sev * e.uniform(10, 50)),
		CasualtiesEstimated: int(s) * e.randInt(0, 100),
		DamageCostUSD:       round2(sev * e.uniform(1_000_000, 100_000_000)),
		Description:         model.Describe(t, s),
	}
}

// EarthquakeSeverity bands Richter magnitude into a severity level. Each
// boundary belongs to the upper band.
func EarthquakeSeverity(magnitude float64) model.SeverityLevel {
	switch {
	case magnitude < 4.5:
		return model.Minimal
	case magnitude < 5.5:
		return model.Low
	case magnitude < 6.5:
		return model.Moderate
	case magnitude < 7.5:
		return model.High
	default:
		return model.Critical
	}
}

// FloodSeverity bands water level (meters) into a severity level.
func FloodSeverity(waterLevel float64) model.SeverityLevel {
	switch {
	case waterLevel < 12:
		return model.Moderate
	case waterLevel < 15:
		return model.High
	default:
		return model.Critical
	}
}

// FireSeverity bands temperature (Celsius) into a severity level.
func FireSeverity(temperature float64) model.SeverityLevel {
	switch {
	case temperature < 38:
		return model.Low
	case temperature < 42:
		return model.Moderate
	default:
		return model.High
	}
}

// HurricaneSeverity bands wind speed (km/h) into a severity level.
func HurricaneSeverity(windSpeed float64) model.SeverityLevel {
	switch {
	case windSpeed < 130:
		return model.Moderate
	case windSpeed < 140:
		return model.High
	default:
		return model.Critical
	}
}

// Location returns the zone name stamped on every event.
func (e *Environment) Location() string {
	return e.location
}

// ActiveDisasters returns the unexpired event list. Nothing evicts from it;
// a simulation run is bounded.
func (e *Environment) ActiveDisasters() []model.DisasterEvent {
	return e.active
}

// EventHistory returns every event this environment ever produced.
func (e *Environment) EventHistory() []model.DisasterEvent {
	return e.history
}

// ConditionsHistory returns the per-tick condition snapshots.
func (e *Environment) ConditionsHistory() []Condition {
	return e.conditions
}

// State summarizes the environment for logging.
type State struct {
	Location        string    `json:"location"`
	Conditions      Condition `json:"conditions"`
	ActiveDisasters int       `json:"active_disasters"`
	TotalEvents     int       `json:"total_events"`
}

// CurrentState returns a logging summary of the environment.
func (e *Environment) CurrentState() State {
	return State{
		Location:        e.location,
		Conditions:      e.current,
		ActiveDisasters: len(e.active),
		TotalEvents:     len(e.history),
	}
}

func (e *Environment) uniform(lo, hi float64) float64 {
	return lo + e.rng.Float64()*(hi-lo)
}

// randInt draws uniformly from [lo, hi] inclusive.
func (e *Environment) randInt(lo, hi int) int {
	return lo + e.rng.Intn(hi-lo+1)
}

func eventID(n int) string {
	return fmt.Sprintf("EVENT-%04d", n)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
