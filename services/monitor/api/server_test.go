package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iulianpascalau/alerts-monitoring/services/monitor/common"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/perspective"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/store"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/testsCommon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServiceKey = "test-secret"

type stateWriter interface {
	Put(key string, state common.PollState)
}

func createArgs() ArgsWebServer {
	return ArgsWebServer{
		ServiceKeyApi:  testServiceKey,
		ListenAddress:  "127.0.0.1:0",
		Session:        &testsCommon.SessionStub{},
		States:         store.NewAlertStateStore(),
		Storage:        &testsCommon.StorageStub{},
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("metrics")) }),
		GeneralHandler: func(h http.Handler) http.Handler { return h },
	}
}

func doRequest(serv *server, method string, path string, body []byte) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewBuffer(body))
	req.Header.Set("X-Api-Key", testServiceKey)
	w := httptest.NewRecorder()
	serv.router.ServeHTTP(w, req)

	return w
}

func TestNewServer(t *testing.T) {
	t.Parallel()

	t.Run("nil session should error", func(t *testing.T) {
		args := createArgs()
		args.Session = nil
		serv, err := NewServer(args)
		assert.Nil(t, serv)
		assert.EqualError(t, err, "session is required")
	})
	t.Run("nil states should error", func(t *testing.T) {
		args := createArgs()
		args.States = nil
		serv, err := NewServer(args)
		assert.Nil(t, serv)
		assert.EqualError(t, err, "state reader is required")
	})
	t.Run("nil storage should error", func(t *testing.T) {
		args := createArgs()
		args.Storage = nil
		serv, err := NewServer(args)
		assert.Nil(t, serv)
		assert.EqualError(t, err, "storage is required")
	})
	t.Run("nil metrics handler should error", func(t *testing.T) {
		args := createArgs()
		args.MetricsHandler = nil
		serv, err := NewServer(args)
		assert.Nil(t, serv)
		assert.EqualError(t, err, "nil metrics handler")
	})
	t.Run("nil general handler should error", func(t *testing.T) {
		args := createArgs()
		args.GeneralHandler = nil
		serv, err := NewServer(args)
		assert.Nil(t, serv)
		assert.EqualError(t, err, "nil http handler")
	})
}

func TestAuth(t *testing.T) {
	t.Parallel()

	serv, err := NewServer(createArgs())
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/api/perspective", nil)
	w := httptest.NewRecorder()
	serv.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req, _ = http.NewRequest(http.MethodGet, "/api/perspective", nil)
	req.Header.Set("X-Api-Key", "wrong")
	w = httptest.NewRecorder()
	serv.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// metrics are public
	req, _ = http.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	serv.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "metrics", w.Body.String())
}

func TestPerspectiveEndpoints(t *testing.T) {
	t.Parallel()

	var switchedTo perspective.ID
	var switchedNamespace string
	args := createArgs()
	args.Session = &testsCommon.SessionStub{
		SwitchPerspectiveHandler: func(id perspective.ID, namespace string) perspective.Context {
			switchedTo = id
			switchedNamespace = namespace
			return perspective.Resolve(id)
		},
		ActiveContextHandler: func() (perspective.Context, string, bool) {
			return perspective.Resolve(perspective.DeveloperNamespaced), "ns1", true
		},
	}
	serv, err := NewServer(args)
	require.NoError(t, err)

	w := doRequest(serv, http.MethodGet, "/api/perspective", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"alertsKey":"devAlerts"`)
	require.Contains(t, w.Body.String(), `"namespace":"ns1"`)

	w = doRequest(serv, http.MethodPut, "/api/perspective", []byte(`{"perspective": "dev"}`))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(serv, http.MethodPut, "/api/perspective", []byte(`{bad json`))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(serv, http.MethodPut, "/api/perspective", []byte(`{"perspective": "dev", "namespace": "ns2"}`))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, perspective.DeveloperNamespaced, switchedTo)
	require.Equal(t, "ns2", switchedNamespace)

	w = doRequest(serv, http.MethodPut, "/api/perspective", []byte(`{"perspective": "unknown"}`))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"id":"acm"`)
}

func TestNoActivePerspective(t *testing.T) {
	t.Parallel()

	args := createArgs()
	args.Session = &testsCommon.SessionStub{
		ActiveContextHandler: func() (perspective.Context, string, bool) {
			return perspective.Context{}, "", false
		},
	}
	serv, err := NewServer(args)
	require.NoError(t, err)

	for _, path := range []string{"/api/perspective", "/api/alerts", "/api/incidents", "/api/incidents/history"} {
		w := doRequest(serv, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}
}

func TestGetState(t *testing.T) {
	t.Parallel()

	args := createArgs()
	states := args.States.(stateWriter)
	serv, err := NewServer(args)
	require.NoError(t, err)

	w := doRequest(serv, http.MethodGet, "/api/state/silences", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	states.Put("silences", common.PollState{Status: common.StatusErrored, Error: errors.New("alertmanager unreachable")})
	w = doRequest(serv, http.MethodGet, "/api/state/silences", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp stateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "silences", resp.Key)
	assert.Equal(t, common.StatusErrored, resp.Status)
	assert.Equal(t, "alertmanager unreachable", resp.Error)
	assert.Nil(t, resp.Payload)

	states.Put("silences", common.PollState{Status: common.StatusLoaded, Payload: []common.Silence{{ID: "s1", DerivedName: "KubeAPIDown"}}})
	w = doRequest(serv, http.MethodGet, "/api/state/silences", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"loaded"`)
	require.Contains(t, w.Body.String(), `"name":"KubeAPIDown"`)
}

func TestGetAlerts(t *testing.T) {
	t.Parallel()

	args := createArgs()
	states := args.States.(stateWriter)
	serv, err := NewServer(args)
	require.NoError(t, err)

	w := doRequest(serv, http.MethodGet, "/api/alerts", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	states.Put("alerts", common.PollState{
		Status: common.StatusLoaded,
		Payload: []common.Alert{
			{RuleName: "PlatformAlert", Source: perspective.SourcePlatform},
			{RuleName: "UserAlert", Source: perspective.SourceUser},
		},
	})

	type alertsResponse struct {
		Status  common.PollStatus `json:"status"`
		Payload []common.Alert    `json:"payload"`
	}

	// admin defaults to the platform source
	w = doRequest(serv, http.MethodGet, "/api/alerts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp alertsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Payload, 1)
	assert.Equal(t, "PlatformAlert", resp.Payload[0].RuleName)

	w = doRequest(serv, http.MethodGet, "/api/alerts?source=user", nil)
	resp = alertsResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Payload, 1)
	assert.Equal(t, "UserAlert", resp.Payload[0].RuleName)

	w = doRequest(serv, http.MethodGet, "/api/alerts?source=", nil)
	resp = alertsResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Payload, 2)

	states.Put("alerts", common.PollState{Status: common.StatusLoading})
	w = doRequest(serv, http.MethodGet, "/api/alerts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"loading"`)
}

func TestGetIncidents(t *testing.T) {
	t.Parallel()

	args := createArgs()
	states := args.States.(stateWriter)
	args.Storage = &testsCommon.StorageStub{
		GetIncidentsHandler: func(ctx context.Context, perspective string) ([]common.Incident, int64, error) {
			if perspective != "admin" {
				return nil, 0, errors.New("unexpected perspective")
			}
			return []common.Incident{{CorrelationKey: "persisted", Rank: 1}}, 1700000000, nil
		},
	}
	serv, err := NewServer(args)
	require.NoError(t, err)

	w := doRequest(serv, http.MethodGet, "/api/incidents", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	states.Put("incidents", common.PollState{Status: common.StatusLoaded, Payload: []common.Incident{{CorrelationKey: "live", Rank: 1}}})
	w = doRequest(serv, http.MethodGet, "/api/incidents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"correlationKey":"live"`)

	w = doRequest(serv, http.MethodGet, "/api/incidents/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"correlationKey":"persisted"`)
	require.Contains(t, w.Body.String(), `"recordedAt":1700000000`)
}

func TestGetIncidentsHistory_StorageError(t *testing.T) {
	t.Parallel()

	args := createArgs()
	args.Storage = &testsCommon.StorageStub{
		GetIncidentsHandler: func(ctx context.Context, perspective string) ([]common.Incident, int64, error) {
			return nil, 0, errors.New("database is locked")
		},
	}
	serv, err := NewServer(args)
	require.NoError(t, err)

	w := doRequest(serv, http.MethodGet, "/api/incidents/history", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "database is locked")
}

func TestServer_StartAndClose(t *testing.T) {
	t.Parallel()

	args := createArgs()
	args.GeneralHandler = CORSMiddleware
	serv, err := NewServer(args)
	require.NoError(t, err)

	serv.Start()
	defer func() {
		require.NoError(t, serv.Close())
	}()

	resp, err := http.Get("http://" + serv.Address() + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	req, _ := http.NewRequest(http.MethodOptions, "http://"+serv.Address()+"/api/alerts", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}
