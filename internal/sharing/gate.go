// Package sharing decides who may see a monitor's live status and history.
// It is a pure lookup over data the host application maintains; the engine
// never mutates shares.
package sharing

import (
	"context"
	"fmt"

	"github.com/Framerrr/framerr-monitor/internal/domain"
	"github.com/Framerrr/framerr-monitor/internal/repo"
)

// Viewer is the pre-resolved identity of the requesting user. Resolving it
// (sessions, tokens) happens upstream in the host application.
type Viewer struct {
	ID    string
	Admin bool
}

type Gate struct {
	Monitors repo.MonitorStore
	Shares   repo.ShareStore
}

func NewGate(monitors repo.MonitorStore, shares repo.ShareStore) *Gate {
	return &Gate{Monitors: monitors, Shares: shares}
}

// CanView reports whether the viewer owns the monitor, is an administrator,
// or appears in the monitor's share set. Unknown monitors are not viewable.
func (g *Gate) CanView(ctx context.Context, id domain.MonitorID, v Viewer) (bool, error) {
	if v.Admin {
		return true, nil
	}
	m, err := g.Monitors.Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("lookup monitor: %w", err)
	}
	if m == nil {
		return false, nil
	}
	if v.ID != "" && m.OwnerID == v.ID {
		return true, nil
	}
	ok, err := g.Shares.Allowed(ctx, id, v.ID)
	if err != nil {
		return false, fmt.Errorf("lookup share: %w", err)
	}
	return ok, nil
}
