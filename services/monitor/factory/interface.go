package factory

import (
	"context"

	"github.com/iulianpascalau/alerts-monitoring/services/monitor/common"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/perspective"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/store"
)

// Server defines the operation of an entity able to serve requests
type Server interface {
	Start()
	Close() error
	Address() string
}

// Session defines the operations of the component owning the active perspective
type Session interface {
	SwitchPerspective(id perspective.ID, namespace string) perspective.Context
	ActiveContext() (perspective.Context, string, bool)
	Close()
	IsInterfaceNil() bool
}

// Storage defines the incident snapshot storage owned by the components handler
type Storage interface {
	SaveIncidents(ctx context.Context, perspective string, incidents []common.Incident, recordedAt int64) error
	GetIncidents(ctx context.Context, perspective string) ([]common.Incident, int64, error)
	Close() error
	IsInterfaceNil() bool
}

// StateStore defines the alert state store operations used outside the session
type StateStore interface {
	Get(key string) (common.PollState, bool)
	Subscribe(key string, listener store.Listener) func()
	IsInterfaceNil() bool
}
