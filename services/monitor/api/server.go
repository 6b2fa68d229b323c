package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/common"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/fetcher"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/perspective"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("api")

const sourceQueryParam = "source"

type server struct {
	router         *gin.Engine
	httpServer     *http.Server
	session        Session
	states         StateReader
	storage        IncidentStorage
	serviceKey     string
	listenAddr     string
	generalHandler func(http.Handler) http.Handler
	wg             sync.WaitGroup
}

// ArgsWebServer defines the web server arguments
type ArgsWebServer struct {
	ServiceKeyApi  string
	ListenAddress  string
	Session        Session
	States         StateReader
	Storage        IncidentStorage
	MetricsHandler http.Handler
	GeneralHandler func(http.Handler) http.Handler
}

// SwitchPerspectiveRequest is the body of PUT /api/perspective
type SwitchPerspectiveRequest struct {
	Perspective string `json:"perspective"`
	Namespace   string `json:"namespace"`
}

type stateResponse struct {
	Key     string            `json:"key"`
	Status  common.PollStatus `json:"status"`
	Payload interface{}       `json:"payload,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// NewServer initializes the Gin engine and mounts all routes
func NewServer(args ArgsWebServer) (*server, error) {
	if check.IfNil(args.Session) {
		return nil, errors.New("session is required")
	}
	if check.IfNil(args.States) {
		return nil, errors.New("state reader is required")
	}
	if check.IfNil(args.Storage) {
		return nil, errors.New("storage is required")
	}
	if args.MetricsHandler == nil {
		return nil, errors.New("nil metrics handler")
	}
	if args.GeneralHandler == nil {
		return nil, errors.New("nil http handler")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())

	s := &server{
		router:         router,
		session:        args.Session,
		states:         args.States,
		storage:        args.Storage,
		serviceKey:     args.ServiceKeyApi,
		listenAddr:     args.ListenAddress,
		generalHandler: args.GeneralHandler,
	}

	s.setupRoutes(args.MetricsHandler)
	return s, nil
}

func (s *server) setupRoutes(metricsHandler http.Handler) {
	s.router.GET("/metrics", gin.WrapH(metricsHandler))

	api := s.router.Group("/api")
	api.Use(s.authAPIKey())
	{
		api.GET("/perspective", s.handleGetPerspective)
		api.PUT("/perspective", s.handleSwitchPerspective)
		api.GET("/state/:key", s.handleGetState)
		api.GET("/alerts", s.handleGetAlerts)
		api.GET("/incidents", s.handleGetIncidents)
		api.GET("/incidents/history", s.handleGetIncidentsHistory)
	}
}

// Start listens and serves connections
func (s *server) Start() {
	handler := s.generalHandler(s.router)

	s.httpServer = &http.Server{
		Addr:    s.listenAddr,
		Handler: handler,
	}

	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		log.Error("failed to listen", "error", err)
		return
	}
	s.listenAddr = ln.Addr().String()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info("starting HTTP server", "address", s.listenAddr)

		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
		}
	}()
}

// Address returns the actual listen address
func (s *server) Address() string {
	return s.listenAddr
}

// Close gracefully stops the server
func (s *server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	s.wg.Wait()

	return nil
}

// --- Middlewares ---

func (s *server) authAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Api-Key")
		if key != s.serviceKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// --- Handlers ---

func (s *server) activeContext(c *gin.Context) (perspective.Context, bool) {
	ctx, _, started := s.session.ActiveContext()
	if !started {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no active perspective"})
		return perspective.Context{}, false
	}

	return ctx, true
}

func (s *server) handleGetPerspective(c *gin.Context) {
	ctx, namespace, started := s.session.ActiveContext()
	if !started {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no active perspective"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"context": ctx, "namespace": namespace})
}

func (s *server) handleSwitchPerspective(c *gin.Context) {
	var req SwitchPerspectiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	id := perspective.ID(req.Perspective)
	if id == perspective.DeveloperNamespaced && len(req.Namespace) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "namespace is required for the developer perspective"})
		return
	}

	log.Debug("switching perspective", "sender", c.Request.RemoteAddr, "perspective", req.Perspective, "namespace", req.Namespace)

	ctx := s.session.SwitchPerspective(id, req.Namespace)
	c.JSON(http.StatusOK, gin.H{"context": ctx, "namespace": req.Namespace})
}

func (s *server) handleGetState(c *gin.Context) {
	key := c.Param("key")
	state, found := s.states.Get(key)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "state not found"})
		return
	}

	c.JSON(http.StatusOK, newStateResponse(key, state))
}

func (s *server) handleGetAlerts(c *gin.Context) {
	ctx, ok := s.activeContext(c)
	if !ok {
		return
	}

	source, provided := c.GetQuery(sourceQueryParam)
	if !provided {
		source = ctx.DefaultSource
	}

	state, found := s.states.Get(ctx.AlertsKey)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "state not found"})
		return
	}

	alerts, isAlerts := state.Payload.([]common.Alert)
	if isAlerts {
		state.Payload = fetcher.FilterAlertsBySource(alerts, source)
	}

	c.JSON(http.StatusOK, newStateResponse(ctx.AlertsKey, state))
}

func (s *server) handleGetIncidents(c *gin.Context) {
	ctx, ok := s.activeContext(c)
	if !ok {
		return
	}

	state, found := s.states.Get(ctx.IncidentsKey)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "state not found"})
		return
	}

	c.JSON(http.StatusOK, newStateResponse(ctx.IncidentsKey, state))
}

func (s *server) handleGetIncidentsHistory(c *gin.Context) {
	ctx, ok := s.activeContext(c)
	if !ok {
		return
	}

	incidents, recordedAt, err := s.storage.GetIncidents(c.Request.Context(), string(ctx.ID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"incidents": incidents, "recordedAt": recordedAt})
}

func newStateResponse(key string, state common.PollState) stateResponse {
	return stateResponse{
		Key:     key,
		Status:  state.Status,
		Payload: state.Payload,
		Error:   state.ErrorMessage(),
	}
}
