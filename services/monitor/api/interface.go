package api

import (
	"context"

	"github.com/iulianpascalau/alerts-monitoring/services/monitor/common"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/perspective"
)

// Session defines the perspective operations exposed to the presentation layer
type Session interface {
	// SwitchPerspective cancels the loops of the previous perspective and starts the ones of the new perspective
	SwitchPerspective(id perspective.ID, namespace string) perspective.Context

	// ActiveContext returns the active context, its namespace and false if no perspective was selected
	ActiveContext() (perspective.Context, string, bool)

	IsInterfaceNil() bool
}

// StateReader defines the read access to the alert state store
type StateReader interface {
	Get(key string) (common.PollState, bool)
	IsInterfaceNil() bool
}

// IncidentStorage defines the read access to the persisted incident snapshots
type IncidentStorage interface {
	// GetIncidents returns the last snapshot of the perspective and its timestamp, 0 if none exists
	GetIncidents(ctx context.Context, perspective string) ([]common.Incident, int64, error)

	IsInterfaceNil() bool
}
