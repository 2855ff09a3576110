package domain

import "fmt"

// Status is the classified health of a monitor. The set is closed: the
// engine only ever produces one of the five values below, and transitions
// between them go through the state machine.
type Status int

const (
	StatusPending Status = iota
	StatusUp
	StatusDegraded
	StatusDown
	StatusMaintenance
)

var statusNames = map[Status]string{
	StatusPending:     "pending",
	StatusUp:          "up",
	StatusDegraded:    "degraded",
	StatusDown:        "down",
	StatusMaintenance: "maintenance",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText makes Status render as its name in JSON payloads.
func (s Status) MarshalText() ([]byte, error) {
	n, ok := statusNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown status %d", int(s))
	}
	return []byte(n), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for v, n := range statusNames {
		if n == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", string(b))
}
