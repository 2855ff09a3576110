package probe

import (
	"context"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"github.com/Framerrr/framerr-monitor/internal/domain"
)

// PingProber sends a short burst of echo requests to the host. The probe
// succeeds if at least one reply arrives before the deadline; latency is
// the fastest round trip observed.
//
// Privileged raw-socket mode is off, so this works as an unprivileged
// process (UDP echo on Linux requires the ping_group_range sysctl).
type PingProber struct {
	Privileged bool
	Count      int
}

func (p *PingProber) Probe(ctx context.Context, m domain.Monitor) Outcome {
	pinger, err := probing.NewPinger(m.Target)
	if err != nil {
		return Outcome{Success: false, Kind: KindTransportError, Detail: err.Error()}
	}
	count := p.Count
	if count <= 0 {
		count = 3
	}
	pinger.Count = count
	pinger.SetPrivileged(p.Privileged)
	if deadline, ok := ctx.Deadline(); ok {
		pinger.Timeout = time.Until(deadline)
	}

	start := time.Now()
	if err := pinger.RunWithContext(ctx); err != nil {
		return failureFromErr(err, time.Since(start).Seconds()*1000)
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return Outcome{
			Success:   false,
			LatencyMS: time.Since(start).Seconds() * 1000,
			Kind:      KindTimeout,
			Detail:    "timeout",
		}
	}
	return Outcome{
		Success:   true,
		LatencyMS: float64(stats.MinRtt) / float64(time.Millisecond),
		Detail:    "reply received",
	}
}
