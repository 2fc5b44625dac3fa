package model

// ResourceSet holds the three depletable resource counters exchanged between
// the command center and rescue agents.
type ResourceSet struct {
	RescueTeams  int `json:"rescue_teams"`
	MedicalUnits int `json:"medical_units"`
	Equipment    int `json:"equipment"`
}

// DemandForSeverity computes resource demand as a direct linear function of
// severity: teams scale by 2, medical by 1, equipment by 3.
func DemandForSeverity(s SeverityLevel) ResourceSet {
	return ResourceSet{
		RescueTeams:  int(s) * 2,
		MedicalUnits: int(s) * 1,
		Equipment:    int(s) * 3,
	}
}

// Clamp returns the grantable portion of a request against this set:
// min(requested, held) per resource. A shortfall is not an error; it shows
// up as a partial grant.
func (r ResourceSet) Clamp(requested ResourceSet) ResourceSet {
	return ResourceSet{
		RescueTeams:  minInt(requested.RescueTeams, r.RescueTeams),
		MedicalUnits: minInt(requested.MedicalUnits, r.MedicalUnits),
		Equipment:    minInt(requested.Equipment, r.Equipment),
	}
}

// Minus returns the set with granted amounts removed.
func (r ResourceSet) Minus(granted ResourceSet) ResourceSet {
	return ResourceSet{
		RescueTeams:  r.RescueTeams - granted.RescueTeams,
		MedicalUnits: r.MedicalUnits - granted.MedicalUnits,
		Equipment:    r.Equipment - granted.Equipment,
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// DisasterAlert is the body of an inform/disaster_alert message.
type DisasterAlert struct {
	EventID             string  `json:"event_id"`
	DisasterType        string  `json:"disaster_type"`
	Severity            int     `json:"severity"`
	SeverityName        string  `json:"severity_name"`
	Location            string  `json:"location"`
	Timestamp           string  `json:"timestamp"`
	AffectedAreaKm2     float64 `json:"affected_area_km2,omitempty"`
	CasualtiesEstimated int     `json:"casualties_estimated,omitempty"`
}

// NewAlert projects a disaster event onto the alert wire shape.
func NewAlert(e DisasterEvent) DisasterAlert {
	return DisasterAlert{
		EventID:             e.EventID,
		DisasterType:        string(e.Type),
		Severity:            int(e.Severity),
		SeverityName:        e.Severity.String(),
		Location:            e.Location,
		Timestamp:           e.Timestamp,
		AffectedAreaKm2:     e.AffectedAreaKm2,
		CasualtiesEstimated: e.CasualtiesEstimated,
	}
}

// ResourceRequestBody is the body of a request/resource_request message.
type ResourceRequestBody struct {
	EventID            string      `json:"event_id"`
	DisasterType       string      `json:"disaster_type"`
	Severity           int         `json:"severity"`
	ResourcesRequested ResourceSet `json:"resources_requested"`
}

// StatusResourcesAllocated tags every resource response a rescue agent sends.
const StatusResourcesAllocated = "resources_allocated"

// ResourceResponseBody is the body of an inform/resource_response message.
type ResourceResponseBody struct {
	EventID            string      `json:"event_id"`
	AgentID            string      `json:"agent_id"`
	Status             string      `json:"status"`
	ResourcesAvailable ResourceSet `json:"resources_available"`
}
