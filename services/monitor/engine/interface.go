package engine

import (
	"context"
	"time"

	"github.com/iulianpascalau/alerts-monitoring/services/monitor/common"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/poller"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/store"
)

// Fetcher defines the remote endpoints queried by the poll loops
type Fetcher interface {
	FetchRules(ctx context.Context, url string) (common.RulesSnapshot, error)
	FetchSilences(ctx context.Context, url string) ([]common.Silence, error)
	FetchIncidentSeries(ctx context.Context, url string) ([]common.MetricRecord, error)
	IsInterfaceNil() bool
}

// StateStore defines the owned writes on the alert state store
type StateStore interface {
	Claim(key string) store.Generation
	Publish(key string, generation store.Generation, state common.PollState) bool
	IsInterfaceNil() bool
}

// PollerRegistry defines the registry of the running poll loops
type PollerRegistry interface {
	Start(key string, fetch poller.FetchFunc, interval time.Duration, onUpdate poller.UpdateFunc) poller.CancelHandle
	CancelAll()
	Len() int
	IsInterfaceNil() bool
}

// IncidentStorage persists the incident snapshots
type IncidentStorage interface {
	SaveIncidents(ctx context.Context, perspective string, incidents []common.Incident, recordedAt int64) error
	IsInterfaceNil() bool
}

// Metrics defines the poll metrics recorded by the session
type Metrics interface {
	ObservePollState(key string, status common.PollStatus)
	SetIncidents(perspective string, incidents []common.Incident)
	SetActiveLoops(num int)
	IsInterfaceNil() bool
}
