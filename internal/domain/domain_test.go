package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseCodeSpec(t *testing.T) {
	set, err := ParseCodeSpec("200-299")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !set.Matches(200) || !set.Matches(299) || !set.Matches(204) {
		t.Fatalf("range should match 200..299 inclusive")
	}
	if set.Matches(304) || set.Matches(199) {
		t.Fatalf("range should reject codes outside 200..299")
	}

	set, err = ParseCodeSpec("200, 301,404")
	if err != nil {
		t.Fatalf("parse list: %v", err)
	}
	for _, c := range []int{200, 301, 404} {
		if !set.Matches(c) {
			t.Fatalf("want %d accepted", c)
		}
	}
	if set.Matches(302) {
		t.Fatalf("302 not in list, should be rejected")
	}

	set, err = ParseCodeSpec("200-299,304")
	if err != nil {
		t.Fatalf("parse mixed: %v", err)
	}
	if !set.Matches(304) || !set.Matches(250) {
		t.Fatalf("mixed spec should accept both entries")
	}

	for _, bad := range []string{"", "abc", "299-200", "200-", "-299", "200,,301", "700", "99"} {
		if _, err := ParseCodeSpec(bad); err == nil {
			t.Fatalf("want error for %q", bad)
		}
	}
}

func TestMonitor_NormalizeAndValidate(t *testing.T) {
	d := Defaults{
		IntervalSeconds:     60,
		TimeoutSeconds:      10,
		RetriesBeforeDown:   3,
		DegradedThresholdMS: 1500,
		ExpectedStatusCodes: "200-299",
	}

	m := Monitor{Type: TypeHTTP, Target: "https://example.com/health"}
	m.Normalize(d)
	if m.ID == "" {
		t.Fatalf("Normalize should assign an ID")
	}
	if m.IntervalSeconds != 60 || m.TimeoutSeconds != 10 || m.ExpectedStatusCodes != "200-299" {
		t.Fatalf("defaults not applied: %+v", m)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("valid monitor rejected: %v", err)
	}

	// explicit settings survive Normalize
	m2 := Monitor{Type: TypeTCP, Target: "db:5432", IntervalSeconds: 30, TimeoutSeconds: 5}
	m2.Normalize(d)
	if m2.IntervalSeconds != 30 || m2.TimeoutSeconds != 5 {
		t.Fatalf("explicit settings overwritten: %+v", m2)
	}
	if err := m2.Validate(); err != nil {
		t.Fatalf("valid tcp monitor rejected: %v", err)
	}
}

func TestMonitor_ValidateRejectsBadConfig(t *testing.T) {
	cases := []Monitor{
		{Type: "dns", Target: "example.com", IntervalSeconds: 60, TimeoutSeconds: 5},
		{Type: TypeHTTP, Target: "not a url", IntervalSeconds: 60, TimeoutSeconds: 5, ExpectedStatusCodes: "200"},
		{Type: TypeHTTP, Target: "https://example.com", IntervalSeconds: 60, TimeoutSeconds: 5, ExpectedStatusCodes: "nope"},
		{Type: TypeTCP, Target: "missing-port", IntervalSeconds: 60, TimeoutSeconds: 5},
		{Type: TypePing, Target: "", IntervalSeconds: 60, TimeoutSeconds: 5},
		{Type: TypePing, Target: "host", IntervalSeconds: 0, TimeoutSeconds: 5},
	}
	for i, m := range cases {
		err := m.Validate()
		if err == nil {
			t.Fatalf("case %d: want ConfigurationError, got nil (%+v)", i, m)
		}
		var ce *ConfigurationError
		if !errors.As(err, &ce) {
			t.Fatalf("case %d: want *ConfigurationError, got %T", i, err)
		}
	}
}

func TestParseClockTime(t *testing.T) {
	ct, err := ParseClockTime("23:05")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ct.Hour != 23 || ct.Minute != 5 || ct.MinuteOfDay() != 23*60+5 {
		t.Fatalf("unexpected clock time: %+v", ct)
	}
	for _, bad := range []string{"24:00", "12:60", "1200", "a:b", ""} {
		if _, err := ParseClockTime(bad); err == nil {
			t.Fatalf("want error for %q", bad)
		}
	}
}

func TestMaintenanceSchedule_Validate(t *testing.T) {
	good := MaintenanceSchedule{
		Enabled:  true,
		Freq:     FreqWeekly,
		Weekdays: []time.Weekday{time.Friday},
		Start:    ClockTime{Hour: 23},
		End:      ClockTime{Hour: 1},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid schedule rejected: %v", err)
	}

	bad := []MaintenanceSchedule{
		{Freq: FreqWeekly, Start: ClockTime{Hour: 1}, End: ClockTime{Hour: 2}},               // no weekdays
		{Freq: FreqMonthly, MonthDay: 0, Start: ClockTime{Hour: 1}, End: ClockTime{Hour: 2}}, // day out of range
		{Freq: "yearly", Start: ClockTime{Hour: 1}, End: ClockTime{Hour: 2}},
		{Freq: FreqDaily, Start: ClockTime{Hour: 1}, End: ClockTime{Hour: 1}}, // zero-length
	}
	for i, s := range bad {
		if err := s.Validate(); err == nil {
			t.Fatalf("case %d: want error", i)
		}
	}
}

func TestStatus_JSONRoundTrip(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusUp, StatusDegraded, StatusDown, StatusMaintenance} {
		b, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("marshal %v: %v", s, err)
		}
		var got Status
		if err := json.Unmarshal(b, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", b, err)
		}
		if got != s {
			t.Fatalf("round-trip mismatch: want %v got %v", s, got)
		}
	}
	b, _ := json.Marshal(StatusDegraded)
	if string(b) != `"degraded"` {
		t.Fatalf("status should serialize as its name, got %s", b)
	}
}

func TestHourBucket(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	at := time.Date(2025, 3, 9, 14, 42, 31, 0, loc)
	b := HourBucket(at)
	want := time.Date(2025, 3, 9, 13, 0, 0, 0, time.UTC)
	if !b.Equal(want) {
		t.Fatalf("want %v, got %v", want, b)
	}
	if b.Location() != time.UTC {
		t.Fatalf("bucket must be UTC")
	}
}
