package probe

import (
	"context"
	"net"
	"time"

	"github.com/Framerrr/framerr-monitor/internal/domain"
)

// TCPProber checks that a TCP connection to host:port completes before the
// deadline. No data is exchanged; the connection is closed immediately.
type TCPProber struct {
	Dialer net.Dialer
}

func (p *TCPProber) Probe(ctx context.Context, m domain.Monitor) Outcome {
	start := time.Now()
	conn, err := p.Dialer.DialContext(ctx, "tcp", m.Target)
	latency := time.Since(start).Seconds() * 1000
	if err != nil {
		return failureFromErr(err, latency)
	}
	_ = conn.Close()
	return Outcome{Success: true, LatencyMS: latency, Detail: "connected"}
}
