package probe

import (
	"context"
	"fmt"

	"github.com/Framerrr/framerr-monitor/internal/domain"
)

// FailureKind distinguishes probe failures for display. All kinds count
// identically toward the retry budget; only Detail/Kind differ.
type FailureKind string

const (
	KindNone             FailureKind = ""
	KindTimeout          FailureKind = "timeout"
	KindTransportError   FailureKind = "transport_error"
	KindUnexpectedResult FailureKind = "unexpected_result"
)

// Outcome is the result of one probe attempt.
type Outcome struct {
	Success    bool        `json:"success"`
	LatencyMS  float64     `json:"latency_ms"`
	Detail     string      `json:"detail,omitempty"`
	Kind       FailureKind `json:"kind,omitempty"`
	HTTPStatus int         `json:"http_status,omitempty"`
}

// Prober runs a single protocol-specific check. Implementations must
// respect the context deadline and leak nothing when it elapses.
type Prober interface {
	Probe(ctx context.Context, m domain.Monitor) Outcome
}

// Mux routes a monitor to the prober for its type.
type Mux struct {
	probers map[domain.MonitorType]Prober
}

// NewMux builds the default routing table.
func NewMux() *Mux {
	return &Mux{probers: map[domain.MonitorType]Prober{
		domain.TypeHTTP: NewHTTPProber(),
		domain.TypeTCP:  &TCPProber{},
		domain.TypePing: &PingProber{},
	}}
}

func (x *Mux) Probe(ctx context.Context, m domain.Monitor) Outcome {
	p, ok := x.probers[m.Type]
	if !ok {
		// Validate rejects unknown types before scheduling; only ad-hoc
		// test requests can reach here.
		return Outcome{
			Success: false,
			Kind:    KindTransportError,
			Detail:  fmt.Sprintf("no prober for type %q", m.Type),
		}
	}
	return p.Probe(ctx, m)
}

var _ Prober = (*Mux)(nil)
