// Package coordination implements the resource-brokering protocol: a sensor
// produces disaster alerts, a command center turns alerts into resource
// requests, and rescue agents answer with what they can spare.
package coordination

import (
	"log"
	"sync"
	"time"

	"disaster-sim/internal/core/agent"
	"disaster-sim/internal/core/bus"
	"disaster-sim/internal/environment"
	"disaster-sim/internal/model"
)

// SensorAgent owns an environment model, scans it on a fixed cadence, and
// informs its recipients of every detected disaster.
type SensorAgent struct {
	id         string
	bus        bus.Bus
	env        *environment.Environment
	recipients []string

	period   time.Duration
	periodCh chan time.Duration
	done     chan struct{}

	mu     sync.RWMutex
	msgLog []bus.LogEntry
	scans  int
}

// NewSensor creates a sensor scanning every period and alerting recipients.
func NewSensor(id string, b bus.Bus, env *environment.Environment, period time.Duration, recipients []string) *SensorAgent {
	return &SensorAgent{
		id:         id,
		bus:        b,
		env:        env,
		recipients: recipients,
		period:     period,
		periodCh:   make(chan time.Duration, 1),
		done:       make(chan struct{}),
	}
}

func (s *SensorAgent) ID() string { return s.id }

func (s *SensorAgent) Role() agent.Role { return agent.Sensor }

// OnMessage is a no-op: the sensor is a pure producer.
func (s *SensorAgent) OnMessage(bus.Message) {}

// Stop ends the scan loop.
func (s *SensorAgent) Stop() {
	close(s.done)
}

// SetPeriod adjusts the scan cadence of a running sensor (scenario hot
// reload). Non-positive periods are ignored.
func (s *SensorAgent) SetPeriod(d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case s.periodCh <- d:
	default:
	}
}

// Run ticks the environment forward and publishes an alert for every event
// the tick produced.
func (s *SensorAgent) Run() error {
	log.Printf("[%s] Online. Monitoring %s every %v", s.id, s.env.Location(), s.period)

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.scan()
		case d := <-s.periodCh:
			s.period = d
			ticker.Reset(d)
			log.Printf("[%s] Scan interval now %v", s.id, d)
		case <-s.done:
			return nil
		}
	}
}

func (s *SensorAgent) scan() {
	s.mu.Lock()
	s.scans++
	n := s.scans
	s.mu.Unlock()

	s.env.Update()
	c := s.env.Current()
	log.Printf("[%s] Scan #%d: temp %.1fC, humidity %.1f%%, wind %.1f km/h, AQI %d, water %.1fm, seismic %.2f",
		s.id, n, c.Temperature, c.Humidity, c.WindSpeed, c.AirQuality, c.WaterLevel, c.SeismicActivity)

	events := s.env.CheckForDisasters()
	if len(events) == 0 {
		return
	}

	log.Printf("[%s] DISASTER ALERT: %d new event(s)", s.id, len(events))
	for _, e := range events {
		log.Printf("[%s]   %s %s severity %s, area %.2f km2, casualties %d, damage $%.2f",
			s.id, e.EventID, e.Type, e.Severity, e.AffectedAreaKm2, e.CasualtiesEstimated, e.DamageCostUSD)
		s.publishAlert(e)
	}
}

func (s *SensorAgent) publishAlert(e model.DisasterEvent) {
	alert := model.NewAlert(e)
	for _, to := range s.recipients {
		msg, err := bus.NewMessage(s.id, to, bus.Inform, bus.DisasterAlert, e.EventID, alert)
		if err != nil {
			log.Printf("[%s] Build alert for %s: %v", s.id, to, err)
			continue
		}
		if err := s.bus.Publish(to, msg); err != nil {
			// Fire and forget; a dropped alert is the transport's loss.
			log.Printf("[%s] Publish alert to %s: %v", s.id, to, err)
			continue
		}
		s.logMessage(msg)
	}
}

func (s *SensorAgent) logMessage(msg bus.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgLog = append(s.msgLog, bus.EntryFor(msg))
}

// MessageLog returns this agent's observed-message log.
func (s *SensorAgent) MessageLog() []bus.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]bus.LogEntry, len(s.msgLog))
	copy(out, s.msgLog)
	return out
}

// Environment exposes the owned environment for reporting after a run.
func (s *SensorAgent) Environment() *environment.Environment {
	return s.env
}
