package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Framerrr/framerr-monitor/internal/domain"
)

type HTTPProber struct {
	Client *http.Client
}

func NewHTTPProber() *HTTPProber {
	return &HTTPProber{
		// Per-probe deadlines come from the context; no client-level timeout
		// so one prober can serve monitors with different settings.
		Client: &http.Client{},
	}
}

func (h *HTTPProber) Probe(ctx context.Context, m domain.Monitor) Outcome {
	codes, err := domain.ParseCodeSpec(m.ExpectedStatusCodes)
	if err != nil {
		return Outcome{Success: false, Kind: KindUnexpectedResult, Detail: err.Error()}
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.Target, nil)
	if err != nil {
		return Outcome{Success: false, Kind: KindTransportError, Detail: err.Error()}
	}

	resp, err := h.Client.Do(req)
	latency := time.Since(start).Seconds() * 1000 // ms
	if err != nil {
		return failureFromErr(err, latency)
	}
	defer resp.Body.Close()

	if !codes.Matches(resp.StatusCode) {
		return Outcome{
			Success:    false,
			LatencyMS:  latency,
			Kind:       KindUnexpectedResult,
			Detail:     fmt.Sprintf("unexpected status %s", resp.Status),
			HTTPStatus: resp.StatusCode,
		}
	}
	return Outcome{
		Success:    true,
		LatencyMS:  latency,
		Detail:     resp.Status,
		HTTPStatus: resp.StatusCode,
	}
}

// failureFromErr maps a transport error to an Outcome, folding context
// deadline expiry into the timeout kind.
func failureFromErr(err error, latency float64) Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return Outcome{Success: false, LatencyMS: latency, Kind: KindTimeout, Detail: "timeout"}
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		return Outcome{Success: false, LatencyMS: latency, Kind: KindTimeout, Detail: "timeout"}
	}
	return Outcome{Success: false, LatencyMS: latency, Kind: KindTransportError, Detail: err.Error()}
}
