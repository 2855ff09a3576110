package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

type MonitorID string

// NewMonitorID returns a fresh random identifier.
func NewMonitorID() MonitorID { return MonitorID(uuid.NewString()) }

// MonitorType selects which prober runs for a monitor.
type MonitorType string

const (
	TypeHTTP MonitorType = "http"
	TypeTCP  MonitorType = "tcp"
	TypePing MonitorType = "ping"
)

// Monitor is a user-declared probe target. The engine treats it as
// read-only input; CRUD is driven by the host application.
type Monitor struct {
	ID       MonitorID   `json:"id"`
	OwnerID  string      `json:"owner_id"`
	Name     string      `json:"name"`
	Type     MonitorType `json:"type"`
	Target   string      `json:"target"` // URL for http, host:port for tcp, host for ping
	Enabled  bool        `json:"enabled"`
	Order    int         `json:"order"` // display ordering only

	IntervalSeconds     int     `json:"interval_seconds"`
	TimeoutSeconds      int     `json:"timeout_seconds"`
	RetriesBeforeDown   int     `json:"retries_before_down"`
	DegradedThresholdMS float64 `json:"degraded_threshold_ms"`

	// ExpectedStatusCodes applies to http monitors only, e.g. "200-299" or
	// "200,301,404". Empty means the default spec from config.
	ExpectedStatusCodes string `json:"expected_status_codes,omitempty"`

	Maintenance *MaintenanceSchedule `json:"maintenance,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Defaults supplies fallback probe settings for monitors that omit them.
// The host application hands these in once at startup.
type Defaults struct {
	IntervalSeconds     int
	TimeoutSeconds      int
	RetriesBeforeDown   int
	DegradedThresholdMS float64
	ExpectedStatusCodes string
}

// Normalize fills omitted tunables from the defaults provider. It does not
// validate; call Validate afterwards.
func (m *Monitor) Normalize(d Defaults) {
	if m.ID == "" {
		m.ID = NewMonitorID()
	}
	if m.IntervalSeconds <= 0 {
		m.IntervalSeconds = d.IntervalSeconds
	}
	if m.TimeoutSeconds <= 0 {
		m.TimeoutSeconds = d.TimeoutSeconds
	}
	if m.RetriesBeforeDown < 0 {
		m.RetriesBeforeDown = d.RetriesBeforeDown
	}
	if m.DegradedThresholdMS <= 0 {
		m.DegradedThresholdMS = d.DegradedThresholdMS
	}
	if m.Type == TypeHTTP && strings.TrimSpace(m.ExpectedStatusCodes) == "" {
		m.ExpectedStatusCodes = d.ExpectedStatusCodes
	}
}

// Interval and Timeout expose the cadence settings as durations.
func (m Monitor) Interval() time.Duration { return time.Duration(m.IntervalSeconds) * time.Second }
func (m Monitor) Timeout() time.Duration  { return time.Duration(m.TimeoutSeconds) * time.Second }

// ConfigurationError marks a monitor definition the engine cannot run.
// It is surfaced to the host application; the monitor stays unscheduled
// until corrected.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("monitor configuration: %s: %s", e.Field, e.Reason)
}

// Validate checks the definition after Normalize. A nil return means the
// scheduler can arm a timer for it.
func (m Monitor) Validate() error {
	switch m.Type {
	case TypeHTTP, TypeTCP, TypePing:
	default:
		return &ConfigurationError{Field: "type", Reason: fmt.Sprintf("unknown monitor type %q", m.Type)}
	}
	if m.IntervalSeconds <= 0 {
		return &ConfigurationError{Field: "interval_seconds", Reason: "must be positive"}
	}
	if m.TimeoutSeconds <= 0 {
		return &ConfigurationError{Field: "timeout_seconds", Reason: "must be positive"}
	}
	if m.RetriesBeforeDown < 0 {
		return &ConfigurationError{Field: "retries_before_down", Reason: "must be >= 0"}
	}
	if strings.TrimSpace(m.Target) == "" {
		return &ConfigurationError{Field: "target", Reason: "empty"}
	}
	switch m.Type {
	case TypeHTTP:
		u, err := url.Parse(m.Target)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return &ConfigurationError{Field: "target", Reason: "not a valid URL"}
		}
		if _, err := ParseCodeSpec(m.ExpectedStatusCodes); err != nil {
			return &ConfigurationError{Field: "expected_status_codes", Reason: err.Error()}
		}
	case TypeTCP:
		if !strings.Contains(m.Target, ":") {
			return &ConfigurationError{Field: "target", Reason: "want host:port"}
		}
	}
	if m.Maintenance != nil {
		if err := m.Maintenance.Validate(); err != nil {
			return err
		}
	}
	return nil
}
