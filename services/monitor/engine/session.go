package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iulianpascalau/alerts-monitoring/services/monitor/common"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/config"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/incidents"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/perspective"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/store"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("engine")

const saveSnapshotTimeout = 10 * time.Second

// ArgsSession defines the session arguments
type ArgsSession struct {
	Config   config.Config
	Fetcher  Fetcher
	Store    StateStore
	Registry PollerRegistry
	Storage  IncidentStorage
	Metrics  Metrics
	// Clock defaults to time.Now
	Clock func() time.Time
}

// session owns the active perspective and the poll loops running for it
type session struct {
	config   config.Config
	fetcher  Fetcher
	store    StateStore
	registry PollerRegistry
	storage  IncidentStorage
	metrics  Metrics
	clock    func() time.Time

	mut       sync.RWMutex
	active    perspective.Context
	namespace string
	started   bool
}

// NewSession creates a new session. No loop runs until SwitchPerspective is called.
func NewSession(args ArgsSession) (*session, error) {
	if check.IfNil(args.Fetcher) {
		return nil, errors.New("nil fetcher")
	}
	if check.IfNil(args.Store) {
		return nil, errors.New("nil state store")
	}
	if check.IfNil(args.Registry) {
		return nil, errors.New("nil poller registry")
	}
	if check.IfNil(args.Storage) {
		return nil, errors.New("nil incident storage")
	}
	if check.IfNil(args.Metrics) {
		return nil, errors.New("nil metrics")
	}

	clock := args.Clock
	if clock == nil {
		clock = time.Now
	}

	return &session{
		config:   args.Config,
		fetcher:  args.Fetcher,
		store:    args.Store,
		registry: args.Registry,
		storage:  args.Storage,
		metrics:  args.Metrics,
		clock:    clock,
	}, nil
}

// SwitchPerspective cancels every loop of the previous perspective and starts the loops of the new one.
// Unknown perspectives resolve to the multi-cluster context.
func (s *session) SwitchPerspective(id perspective.ID, namespace string) perspective.Context {
	s.mut.Lock()
	defer s.mut.Unlock()

	ctx := perspective.Resolve(id)
	if !perspective.IsKnown(id) {
		log.Warn("unknown perspective, using the multi-cluster context", "perspective", id)
	}
	if ctx.ID == perspective.DeveloperNamespaced && len(namespace) == 0 {
		log.Warn("developer perspective without a namespace")
	}

	s.fenceActiveKeys()
	s.registry.CancelAll()

	s.active = ctx
	s.namespace = namespace
	s.started = true

	s.startRulesLoop(ctx, namespace)
	s.startSilencesLoop(ctx, namespace)
	if s.config.Incidents.Enabled {
		s.startIncidentsLoop(ctx, namespace)
	}

	s.metrics.SetActiveLoops(s.registry.Len())
	log.Info("switched perspective", "perspective", ctx.ID, "namespace", namespace, "polling context", ctx.PollingContextID)

	return ctx
}

// ActiveContext returns the active context, its namespace and false if no perspective was selected yet
func (s *session) ActiveContext() (perspective.Context, string, bool) {
	s.mut.RLock()
	defer s.mut.RUnlock()

	return s.active, s.namespace, s.started
}

// the rules loop owns both the rules and the alerts keys
func (s *session) startRulesLoop(ctx perspective.Context, namespace string) {
	url := perspective.RulesURL(ctx, s.config.Endpoints, namespace)
	rulesGen := s.store.Claim(ctx.RulesKey)
	alertsGen := s.store.Claim(ctx.AlertsKey)

	fetch := func(fetchCtx context.Context) (interface{}, error) {
		return s.fetcher.FetchRules(fetchCtx, url)
	}

	onUpdate := func(state common.PollState) {
		rulesState := state
		alertsState := state
		snapshot, isSnapshot := state.Payload.(common.RulesSnapshot)
		if isSnapshot {
			rulesState.Payload = snapshot.Rules
			alertsState.Payload = snapshot.Alerts
		}

		s.publish(ctx.RulesKey, rulesGen, rulesState)
		s.publish(ctx.AlertsKey, alertsGen, alertsState)
	}

	s.registry.Start(ctx.RulesKey, fetch, s.pollInterval(), onUpdate)
}

func (s *session) startSilencesLoop(ctx perspective.Context, namespace string) {
	url := perspective.SilencesURL(ctx, s.config.Endpoints, namespace)
	gen := s.store.Claim(ctx.SilencesKey)

	fetch := func(fetchCtx context.Context) (interface{}, error) {
		return s.fetcher.FetchSilences(fetchCtx, url)
	}

	onUpdate := func(state common.PollState) {
		s.publish(ctx.SilencesKey, gen, state)
	}

	s.registry.Start(ctx.SilencesKey, fetch, s.pollInterval(), onUpdate)
}

type classifiedBatch struct {
	incidents  []common.Incident
	recordedAt time.Time
}

func (s *session) startIncidentsLoop(ctx perspective.Context, namespace string) {
	cfg := s.config.Incidents
	rangeDuration := time.Duration(cfg.RangeInHours) * time.Hour
	step := time.Duration(cfg.StepInSeconds) * time.Second
	gen := s.store.Claim(ctx.IncidentsKey)

	fetch := func(fetchCtx context.Context) (interface{}, error) {
		now := s.clock()
		url := perspective.IncidentsURL(ctx, s.config.Endpoints, namespace, now, rangeDuration, step)

		records, err := s.fetcher.FetchIncidentSeries(fetchCtx, url)
		if err != nil {
			return nil, err
		}

		return classifiedBatch{
			incidents:  incidents.Classify(incidents.Group(records), now),
			recordedAt: now,
		}, nil
	}

	onUpdate := func(state common.PollState) {
		batch, isBatch := state.Payload.(classifiedBatch)
		if isBatch {
			state.Payload = batch.incidents
		}

		published := s.publish(ctx.IncidentsKey, gen, state)
		if !published || !isBatch {
			return
		}

		s.metrics.SetIncidents(string(ctx.ID), batch.incidents)
		s.saveSnapshot(ctx.ID, batch)
	}

	s.registry.Start(ctx.IncidentsKey, fetch, millis(cfg.PollIntervalInMillis), onUpdate)
}

func (s *session) saveSnapshot(id perspective.ID, batch classifiedBatch) {
	ctx, cancel := context.WithTimeout(context.Background(), saveSnapshotTimeout)
	defer cancel()

	err := s.storage.SaveIncidents(ctx, string(id), batch.incidents, batch.recordedAt.Unix())
	if err != nil {
		log.Warn("failed to save incident snapshot", "perspective", id, "error", err)
	}
}

func (s *session) publish(key string, gen store.Generation, state common.PollState) bool {
	published := s.store.Publish(key, gen, state)
	if !published {
		return false
	}

	s.metrics.ObservePollState(key, state.Status)
	if state.Status == common.StatusErrored {
		log.Debug("poll cycle errored", "key", key, "error", state.Error)
	}

	return true
}

func (s *session) pollInterval() time.Duration {
	return millis(s.config.PollIntervalInMillis)
}

func millis(value uint32) time.Duration {
	return time.Duration(value) * time.Millisecond
}

// Close cancels every running loop
func (s *session) Close() {
	s.mut.Lock()
	defer s.mut.Unlock()

	s.fenceActiveKeys()
	s.registry.CancelAll()
	s.metrics.SetActiveLoops(0)
}

// fenceActiveKeys claims the keys of the active perspective so late results of its loops are dropped.
// Must be called under the write lock.
func (s *session) fenceActiveKeys() {
	if !s.started {
		return
	}

	for _, key := range s.active.Keys() {
		s.store.Claim(key)
	}
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *session) IsInterfaceNil() bool {
	return s == nil
}
