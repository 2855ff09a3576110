package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Frequency is the recurrence of a maintenance window.
type Frequency string

const (
	FreqDaily   Frequency = "daily"
	FreqWeekly  Frequency = "weekly"
	FreqMonthly Frequency = "monthly"
)

// ClockTime is a wall-clock time of day, HH:MM.
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseClockTime parses "HH:MM" (24h).
func ParseClockTime(s string) (ClockTime, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return ClockTime{}, fmt.Errorf("clock time %q: want HH:MM", s)
	}
	hh, err1 := strconv.Atoi(h)
	mm, err2 := strconv.Atoi(m)
	if err1 != nil || err2 != nil || hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return ClockTime{}, fmt.Errorf("clock time %q: want HH:MM", s)
	}
	return ClockTime{Hour: hh, Minute: mm}, nil
}

func (c ClockTime) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// MinuteOfDay is the offset from midnight in minutes.
func (c ClockTime) MinuteOfDay() int { return c.Hour*60 + c.Minute }

func (c ClockTime) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *ClockTime) UnmarshalText(b []byte) error {
	ct, err := ParseClockTime(string(b))
	if err != nil {
		return err
	}
	*c = ct
	return nil
}

// MaintenanceSchedule is a recurring window during which down/degraded
// classification is suppressed. Times are local wall clock; a window whose
// End is earlier than Start wraps past midnight into the next day.
type MaintenanceSchedule struct {
	Enabled bool      `json:"enabled"`
	Freq    Frequency `json:"frequency"`

	// Weekdays applies to weekly schedules: 0=Sunday .. 6=Saturday.
	Weekdays []time.Weekday `json:"weekdays,omitempty"`

	// MonthDay applies to monthly schedules. If the day does not exist in
	// the current month the window falls on the month's last day.
	MonthDay int `json:"month_day,omitempty"`

	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

func (s *MaintenanceSchedule) Validate() error {
	switch s.Freq {
	case FreqDaily:
	case FreqWeekly:
		if len(s.Weekdays) == 0 {
			return &ConfigurationError{Field: "maintenance.weekdays", Reason: "weekly schedule needs at least one weekday"}
		}
		for _, d := range s.Weekdays {
			if d < time.Sunday || d > time.Saturday {
				return &ConfigurationError{Field: "maintenance.weekdays", Reason: fmt.Sprintf("weekday %d out of range", int(d))}
			}
		}
	case FreqMonthly:
		if s.MonthDay < 1 || s.MonthDay > 31 {
			return &ConfigurationError{Field: "maintenance.month_day", Reason: "want 1..31"}
		}
	default:
		return &ConfigurationError{Field: "maintenance.frequency", Reason: fmt.Sprintf("unknown frequency %q", s.Freq)}
	}
	if s.Start == s.End {
		return &ConfigurationError{Field: "maintenance", Reason: "start and end are equal"}
	}
	return nil
}
