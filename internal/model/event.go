// Package model defines the value records shared by the environment,
// response, and coordination layers: disaster events, severity levels,
// rescue goals, and the resource quantities exchanged over the wire.
package model

import (
	"encoding/json"
	"fmt"
)

// DisasterType is the closed set of disaster categories the simulation
// recognizes.
type DisasterType string

const (
	Earthquake DisasterType = "Earthquake"
	Flood      DisasterType = "Flood"
	Fire       DisasterType = "Fire"
	Hurricane  DisasterType = "Hurricane"
	Tornado    DisasterType = "Tornado"
	Tsunami    DisasterType = "Tsunami"
)

// AllDisasterTypes lists every type in declaration order, used for uniform
// random draws.
var AllDisasterTypes = []DisasterType{
	Earthquake, Flood, Fire, Hurricane, Tornado, Tsunami,
}

// CoordinationDisasterTypes is the reduced set used by the coordination
// protocol's sensor role.
var CoordinationDisasterTypes = []DisasterType{
	Earthquake, Flood, Fire, Hurricane,
}

// SeverityLevel is an ordinal 1..5 scale. The numeric value is meaningful:
// it scales resource demand and derived event figures linearly.
type SeverityLevel int

const (
	Minimal SeverityLevel = iota + 1
	Low
	Moderate
	High
	Critical
)

// AllSeverityLevels lists every level in ascending order.
var AllSeverityLevels = []SeverityLevel{Minimal, Low, Moderate, High, Critical}

func (s SeverityLevel) String() string {
	switch s {
	case Minimal:
		return "MINIMAL"
	case Low:
		return "LOW"
	case Moderate:
		return "MODERATE"
	case High:
		return "HIGH"
	case Critical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("SEVERITY(%d)", int(s))
	}
}

// Valid reports whether the level is inside the closed 1..5 range.
func (s SeverityLevel) Valid() bool {
	return s >= Minimal && s <= Critical
}

// DisasterEvent is an immutable record of one detected disaster. Events are
// created only by the environment model and never mutated afterwards.
type DisasterEvent struct {
	EventID             string        `json:"event_id"`
	Type                DisasterType  `json:"disaster_type"`
	Severity            SeverityLevel `json:"severity"`
	Location            string        `json:"location"`
	Timestamp           string        `json:"timestamp"`
	AffectedAreaKm2     float64       `json:"affected_area_km2"`
	CasualtiesEstimated int           `json:"casualties_estimated"`
	DamageCostUSD       float64       `json:"damage_cost_usd"`
	Description         string        `json:"description"`
}

// MarshalJSON emits the event with both the numeric severity and its name,
// matching the exported artifact format.
func (e DisasterEvent) MarshalJSON() ([]byte, error) {
	type alias DisasterEvent
	return json.Marshal(struct {
		alias
		SeverityName string `json:"severity_name"`
	}{alias(e), e.Severity.String()})
}

// CSVHeader is the fixed ten-column header for disaster event exports.
var CSVHeader = []string{
	"Event ID", "Disaster Type", "Severity Name", "Severity Level",
	"Location", "Timestamp", "Affected Area (km2)", "Casualties",
	"Damage Cost (USD)", "Description",
}

// CSVRow projects the event onto the ten-column export format.
func (e DisasterEvent) CSVRow() []string {
	return []string{
		e.EventID,
		string(e.Type),
		e.Severity.String(),
		fmt.Sprintf("%d", int(e.Severity)),
		e.Location,
		e.Timestamp,
		fmt.Sprintf("%.2f", e.AffectedAreaKm2),
		fmt.Sprintf("%d", e.CasualtiesEstimated),
		fmt.Sprintf("%.2f", e.DamageCostUSD),
		e.Description,
	}
}

// Describe synthesizes the human-readable event description. The switch is
// exhaustive over DisasterType so new types cannot silently fall through.
func Describe(t DisasterType, s SeverityLevel) string {
	switch t {
	case Earthquake:
		return fmt.Sprintf("%s earthquake detected with significant ground shaking", s)
	case Flood:
		return fmt.Sprintf("%s flooding detected with rising water levels", s)
	case Fire:
		return fmt.Sprintf("%s wildfire detected with rapid spread", s)
	case Hurricane:
		return fmt.Sprintf("%s hurricane detected with extreme winds", s)
	case Tornado:
		return fmt.Sprintf("%s tornado detected with severe damage potential", s)
	case Tsunami:
		return fmt.Sprintf("%s tsunami warning with potential coastal impact", s)
	default:
		return fmt.Sprintf("%s disaster event", s)
	}
}
