package factory

import (
	"time"

	"github.com/iulianpascalau/alerts-monitoring/services/monitor/api"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/config"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/engine"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/fetcher"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/metrics"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/perspective"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/poller"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/storage"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/store"
)

type componentsHandler struct {
	cfg      config.Config
	store    StateStore
	registry engine.PollerRegistry
	storage  Storage
	session  Session
	server   Server
}

// NewComponentsHandler creates a new components handler
func NewComponentsHandler(
	sqlitePath string,
	serviceKeyApi string,
	bearerToken string,
	cfg config.Config,
) (*componentsHandler, error) {
	stateStore := store.NewAlertStateStore()
	registry := poller.NewRegistry()
	httpFetcher := fetcher.NewHTTPFetcher(time.Duration(cfg.RequestTimeoutInSeconds)*time.Second, bearerToken)
	pollMetrics := metrics.NewPollMetrics()

	sqlite, err := storage.NewSQLiteStorage(sqlitePath, cfg.Incidents.SnapshotRetentionSeconds)
	if err != nil {
		return nil, err
	}

	sess, err := engine.NewSession(engine.ArgsSession{
		Config:   cfg,
		Fetcher:  httpFetcher,
		Store:    stateStore,
		Registry: registry,
		Storage:  sqlite,
		Metrics:  pollMetrics,
	})
	if err != nil {
		_ = sqlite.Close()
		return nil, err
	}

	serverArgs := api.ArgsWebServer{
		ServiceKeyApi:  serviceKeyApi,
		ListenAddress:  cfg.ListenAddress,
		Session:        sess,
		States:         stateStore,
		Storage:        sqlite,
		MetricsHandler: pollMetrics.Handler(),
		GeneralHandler: api.CORSMiddleware,
	}

	server, err := api.NewServer(serverArgs)
	if err != nil {
		_ = sqlite.Close()
		return nil, err
	}

	return &componentsHandler{
		cfg:      cfg,
		store:    stateStore,
		registry: registry,
		storage:  sqlite,
		session:  sess,
		server:   server,
	}, nil
}

// GetStore returns the alert state store
func (ch *componentsHandler) GetStore() StateStore {
	return ch.store
}

// GetRegistry returns the poller registry
func (ch *componentsHandler) GetRegistry() engine.PollerRegistry {
	return ch.registry
}

// GetStorage returns the incident snapshot storage
func (ch *componentsHandler) GetStorage() Storage {
	return ch.storage
}

// GetSession returns the session component
func (ch *componentsHandler) GetSession() Session {
	return ch.session
}

// GetServer returns the server component
func (ch *componentsHandler) GetServer() Server {
	return ch.server
}

// Start activates the configured perspective and starts serving requests
func (ch *componentsHandler) Start() {
	ch.session.SwitchPerspective(perspective.ID(ch.cfg.Perspective), ch.cfg.Namespace)
	ch.server.Start()
}

// Close closes the inner components
func (ch *componentsHandler) Close() {
	_ = ch.server.Close()
	ch.session.Close()
	_ = ch.storage.Close()
}
