package environment

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disaster-sim/internal/model"
)

func newTestEnv(seed int64) *Environment {
	return New("Test Zone", rand.New(rand.NewSource(seed)))
}

func TestUpdateKeepsReadingsInRange(t *testing.T) {
	env := newTestEnv(1)
	env.SetRecordHistory(false)

	for i := 0; i < 10_000; i++ {
		env.Update()
		c := env.Current()
		require.GreaterOrEqual(t, c.Temperature, TempMin)
		require.LessOrEqual(t, c.Temperature, TempMax)
		require.GreaterOrEqual(t, c.Humidity, HumidityMin)
		require.LessOrEqual(t, c.Humidity, HumidityMax)
		require.GreaterOrEqual(t, c.WindSpeed, WindMin)
		require.LessOrEqual(t, c.WindSpeed, WindMax)
		require.GreaterOrEqual(t, c.AirQuality, AQIMin)
		require.LessOrEqual(t, c.AirQuality, AQIMax)
		require.GreaterOrEqual(t, c.WaterLevel, WaterMin)
		require.LessOrEqual(t, c.WaterLevel, WaterMax)
		require.GreaterOrEqual(t, c.SeismicActivity, 0.0)
		require.Less(t, c.SeismicActivity, 2.0)
	}
	assert.Empty(t, env.ConditionsHistory())
}

func TestUpdateRecordsHistoryByDefault(t *testing.T) {
	env := newTestEnv(2)
	env.Update()
	env.Update()
	env.Update()
	assert.Len(t, env.ConditionsHistory(), 3)
}

func TestEarthquakeSeverityBands(t *testing.T) {
	cases := []struct {
		magnitude float64
		want      model.SeverityLevel
	}{
		{4.0, model.Minimal},
		{4.4, model.Minimal},
		{4.5, model.Low},
		{5.4, model.Low},
		{5.5, model.Moderate},
		{6.4, model.Moderate},
		{6.5, model.High},
		{7.4, model.High},
		{7.5, model.Critical},
		{8.0, model.Critical},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, EarthquakeSeverity(tc.magnitude), "magnitude %.1f", tc.magnitude)
	}
}

func TestFloodSeverityBands(t *testing.T) {
	assert.Equal(t, model.Moderate, FloodSeverity(10.5))
	assert.Equal(t, model.Moderate, FloodSeverity(11.9))
	assert.Equal(t, model.High, FloodSeverity(12.0))
	assert.Equal(t, model.High, FloodSeverity(14.9))
	assert.Equal(t, model.Critical, FloodSeverity(15.0))
	assert.Equal(t, model.Critical, FloodSeverity(20.0))
}

func TestFireSeverityBands(t *testing.T) {
	assert.Equal(t, model.Low, FireSeverity(36.0))
	assert.Equal(t, model.Low, FireSeverity(37.9))
	assert.Equal(t, model.Moderate, FireSeverity(38.0))
	assert.Equal(t, model.Moderate, FireSeverity(41.9))
	assert.Equal(t, model.High, FireSeverity(42.0))
}

func TestHurricaneSeverityBands(t *testing.T) {
	assert.Equal(t, model.Moderate, HurricaneSeverity(121.0))
	assert.Equal(t, model.Moderate, HurricaneSeverity(129.9))
	assert.Equal(t, model.High, HurricaneSeverity(130.0))
	assert.Equal(t, model.High, HurricaneSeverity(139.9))
	assert.Equal(t, model.Critical, HurricaneSeverity(140.0))
}

func TestCheckForDisastersThresholdRules(t *testing.T) {
	env := newTestEnv(3)
	env.SetCurrent(Condition{
		Temperature:     40.0,
		Humidity:        15.0,
		WindSpeed:       125.0,
		AirQuality:      50,
		WaterLevel:      16.0,
		SeismicActivity: 6.0,
	})

	events := env.CheckForDisasters()
	// All four rules fire; a fifth random event may or may not join them.
	require.GreaterOrEqual(t, len(events), 4)

	assert.Equal(t, model.Earthquake, events[0].Type)
	assert.Equal(t, model.Moderate, events[0].Severity)
	assert.Equal(t, model.Flood, events[1].Type)
	assert.Equal(t, model.Critical, events[1].Severity)
	assert.Equal(t, model.Fire, events[2].Type)
	assert.Equal(t, model.Moderate, events[2].Severity)
	assert.Equal(t, model.Hurricane, events[3].Type)
	assert.Equal(t, model.Moderate, events[3].Severity)

	assert.Len(t, env.ActiveDisasters(), len(events))
	assert.Len(t, env.EventHistory(), len(events))
}

func TestCheckForDisastersQuietConditions(t *testing.T) {
	env := newTestEnv(4)
	env.SetCurrent(Condition{
		Temperature:     22.0,
		Humidity:        60.0,
		WindSpeed:       15.0,
		AirQuality:      50,
		WaterLevel:      2.0,
		SeismicActivity: 0.5,
	})

	// Only the 10% random roll can produce events here. Over many ticks the
	// count must land well inside a loose binomial envelope.
	random := 0
	for i := 0; i < 1000; i++ {
		random += len(env.CheckForDisasters())
	}
	assert.Greater(t, random, 50)
	assert.Less(t, random, 160)
}

func TestNewEventDerivedFields(t *testing.T) {
	env := newTestEnv(5)
	env.SetCurrent(Condition{WaterLevel: 16.0})

	var flood model.DisasterEvent
	for {
		events := env.CheckForDisasters()
		require.NotEmpty(t, events)
		if events[0].Type == model.Flood {
			flood = events[0]
			break
		}
	}

	assert.Regexp(t, `^EVENT-\d{4}$`, flood.EventID)
	assert.Equal(t, model.Critical, flood.Severity)
	assert.Equal(t, "Test Zone", flood.Location)
	assert.NotEmpty(t, flood.Timestamp)
	// Severity 5 scales area into [50, 250) and damage into [5M, 500M).
	assert.GreaterOrEqual(t, flood.AffectedAreaKm2, 50.0)
	assert.Less(t, flood.AffectedAreaKm2, 250.0)
	assert.GreaterOrEqual(t, flood.CasualtiesEstimated, 0)
	assert.LessOrEqual(t, flood.CasualtiesEstimated, 500)
	assert.GreaterOrEqual(t, flood.DamageCostUSD, 5_000_000.0)
	assert.Less(t, flood.DamageCostUSD, 500_000_000.0)
	assert.Equal(t, model.Describe(model.Flood, model.Critical), flood.Description)
}

func TestEventIDsAreSequential(t *testing.T) {
	env := newTestEnv(6)
	env.SetCurrent(Condition{SeismicActivity: 8.0})

	first := env.CheckForDisasters()
	second := env.CheckForDisasters()
	require.NotEmpty(t, first)
	require.NotEmpty(t, second)

	assert.Equal(t, "EVENT-0001", first[0].EventID)
	wantNext := len(first) + 1
	assert.Equal(t, eventID(wantNext), second[0].EventID)
}

func TestSeededRunsAreReproducible(t *testing.T) {
	a := newTestEnv(7)
	b := newTestEnv(7)
	for i := 0; i < 50; i++ {
		a.Update()
		b.Update()
		require.Equal(t, a.Current().Temperature, b.Current().Temperature)
		require.Equal(t, a.Current().SeismicActivity, b.Current().SeismicActivity)

		ea := a.CheckForDisasters()
		eb := b.CheckForDisasters()
		require.Equal(t, len(ea), len(eb))
		for j := range ea {
			require.Equal(t, ea[j].EventID, eb[j].EventID)
			require.Equal(t, ea[j].Type, eb[j].Type)
			require.Equal(t, ea[j].Severity, eb[j].Severity)
			require.Equal(t, ea[j].AffectedAreaKm2, eb[j].AffectedAreaKm2)
			require.Equal(t, ea[j].CasualtiesEstimated, eb[j].CasualtiesEstimated)
		}
	}
}

func TestCurrentState(t *testing.T) {
	env := newTestEnv(8)
	env.SetCurrent(Condition{SeismicActivity: 5.0})
	env.CheckForDisasters()

	s := env.CurrentState()
	assert.Equal(t, "Test Zone", s.Location)
	assert.Equal(t, len(env.ActiveDisasters()), s.ActiveDisasters)
	assert.Equal(t, len(env.EventHistory()), s.TotalEvents)
}
