package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadWithoutFileReturnsDefaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Location, s.Location)
	assert.Equal(t, 3*time.Second, s.TickInterval.Std())
	assert.Equal(t, TransportMemory, s.Transport)
}

func TestLoadOverlaysFileOverDefaults(t *testing.T) {
	path := writeScenario(t, `
location: Harbor District
tick_interval: 250ms
run_duration: 10s
responders: 4
transport: memory
`)
	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Harbor District", s.Location)
	assert.Equal(t, 250*time.Millisecond, s.TickInterval.Std())
	assert.Equal(t, 10*time.Second, s.RunDuration.Std())
	assert.Equal(t, 4, s.Responders)
	// Untouched keys keep their defaults.
	assert.Equal(t, Default().ReceiveTimeout, s.ReceiveTimeout)
	assert.Equal(t, Default().LogsDir, s.LogsDir)
}

func TestLoadEnvOverridesNATSURL(t *testing.T) {
	t.Setenv("NATS_URL", "nats://env-host:4222")
	path := writeScenario(t, `
transport: nats
nats_url: nats://file-host:4222
`)
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nats://env-host:4222", s.NATSURL)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeScenario(t, "tick_interval: not-a-duration\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse duration")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Scenario)
		wantErr string
	}{
		{"empty location", func(s *Scenario) { s.Location = "" }, "location"},
		{"zero tick", func(s *Scenario) { s.TickInterval = 0 }, "tick_interval"},
		{"zero duration", func(s *Scenario) { s.RunDuration = 0 }, "run_duration"},
		{"zero receive timeout", func(s *Scenario) { s.ReceiveTimeout = 0 }, "receive_timeout"},
		{"no responders", func(s *Scenario) { s.Responders = 0 }, "responder"},
		{"unknown transport", func(s *Scenario) { s.Transport = "carrier-pigeon" }, "unknown transport"},
		{"nats without url", func(s *Scenario) { s.Transport = TransportNATS; s.NATSURL = "" }, "nats_url"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Default()
			tc.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestDurationRoundTrip(t *testing.T) {
	d := Duration(1500 * time.Millisecond)
	out, err := d.MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "1.5s", out)
	assert.Equal(t, 1500*time.Millisecond, d.Std())
}
