package probe

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/Framerrr/framerr-monitor/internal/domain"
)

func TestTCPProber_OpenPortSucceeds(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			_ = c.Close()
		}
	}()

	m := domain.Monitor{Type: domain.TypeTCP, Target: ln.Addr().String()}
	out := (&TCPProber{}).Probe(context.Background(), m)
	if !out.Success {
		t.Fatalf("want success, got %+v", out)
	}
}

func TestTCPProber_ClosedPortFailsWithinDeadline(t *testing.T) {
	// Grab a port and close it so nothing listens there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	start := time.Now()
	out := (&TCPProber{}).Probe(ctx, domain.Monitor{Type: domain.TypeTCP, Target: addr})
	if out.Success {
		t.Fatalf("want failure on closed port, got %+v", out)
	}
	if out.Kind != KindTransportError && out.Kind != KindTimeout {
		t.Fatalf("want transport/timeout kind, got %q", out.Kind)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("probe overran its deadline: %v", time.Since(start))
	}
}
