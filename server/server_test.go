package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kbukum/pushhub/auth/apikey"
	"github.com/kbukum/pushhub/auth/jwt"
	"github.com/kbukum/pushhub/component"
	"github.com/kbukum/pushhub/logger"
	"github.com/kbukum/pushhub/server"
	"github.com/kbukum/pushhub/sse"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	hub *sse.Hub
	srv *server.Server
	ts  *httptest.Server
}

func newFixture(t *testing.T, mutate func(*server.Routes)) *fixture {
	t.Helper()
	hub := sse.NewHub(sse.Config{}, sse.WithLogger(logger.NewNop()))
	t.Cleanup(hub.Destroy)

	cfg := server.Config{Host: "127.0.0.1"}
	cfg.ApplyDefaults()
	srv := server.New(cfg, logger.NewNop())
	srv.ApplyMiddleware()

	routes := server.Routes{ServiceName: "pushhub-test", Hub: hub}
	if mutate != nil {
		mutate(&routes)
	}
	srv.RegisterRoutes(routes)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &fixture{hub: hub, srv: srv, ts: ts}
}

func (f *fixture) do(t *testing.T, method, path string, body any, header map[string]string) (*http.Response, []byte) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, f.ts.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

// openStream connects to the stream endpoint and consumes the connected
// frame.
func (f *fixture) openStream(t *testing.T, query string, header map[string]string) (string, *sse.Decoder) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.ts.URL+server.PathStream+query, nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/event-stream")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)

	dec := sse.NewDecoder(resp.Body)
	ev, err := dec.Next()
	require.NoError(t, err)
	require.Equal(t, sse.EventTypeConnected, ev.Type)
	return resp.Header.Get("X-Client-ID"), dec
}

type nopSink struct {
	mu     sync.Mutex
	frames int
}

func (s *nopSink) Write([]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	return nil
}

func (s *nopSink) Close() error { return nil }

func attach(t *testing.T, hub *sse.Hub, opts ...sse.ClientOption) string {
	t.Helper()
	id, err := hub.Attach(context.Background(), &nopSink{}, opts...)
	require.NoError(t, err)
	return id
}

type sendResponse struct {
	Success   bool   `json:"success"`
	SentCount *int   `json:"sent_count"`
	Error     string `json:"error"`
	Code      string `json:"code"`
}

func TestStreamAndSend(t *testing.T) {
	f := newFixture(t, nil)
	clientID, dec := f.openStream(t, "?user_id=u1&session_id=s1", nil)
	require.NotEmpty(t, clientID)

	resp, body := f.do(t, http.MethodPost, "/api/v1/events/send", map[string]any{
		"event":     map[string]any{"id": "42", "type": "update", "data": map[string]int{"a": 1}},
		"target":    "user",
		"target_id": "u1",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var sr sendResponse
	require.NoError(t, json.Unmarshal(body, &sr))
	assert.True(t, sr.Success)
	require.NotNil(t, sr.SentCount)
	assert.Equal(t, 1, *sr.SentCount)

	ev, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "42", ev.ID)
	assert.Equal(t, "update", ev.Type)
	assert.JSONEq(t, `{"a":1}`, string(ev.Data.(json.RawMessage)))

	info := f.hub.GetConnectionInfo()
	require.Len(t, info, 1)
	assert.Equal(t, "u1", info[0].UserID)
	assert.Equal(t, "s1", info[0].SessionID)
	assert.Contains(t, info[0].Metadata, "user_agent")
}

func TestSend_Errors(t *testing.T) {
	f := newFixture(t, nil)
	attach(t, f.hub, sse.WithUserID("u1"))

	tests := []struct {
		name string
		body any
		code string
	}{
		{
			name: "missing target id",
			body: map[string]any{"event": map[string]any{"type": "x"}, "target": "user"},
			code: "MISSING_TARGET_ID",
		},
		{
			name: "missing event type",
			body: map[string]any{"event": map[string]any{"id": "1"}, "target": "all"},
			code: "INVALID_INPUT",
		},
		{
			name: "malformed body",
			body: "not an object",
			code: "INVALID_INPUT",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.do(t, http.MethodPost, "/api/v1/events/send", tt.body, nil)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

			var sr sendResponse
			require.NoError(t, json.Unmarshal(body, &sr))
			assert.False(t, sr.Success)
			assert.Equal(t, tt.code, sr.Code)
			assert.NotEmpty(t, sr.Error)
			assert.Nil(t, sr.SentCount)
		})
	}

	// Only the missing target id reached the hub and was counted.
	assert.Equal(t, int64(1), f.hub.GetStats().TotalErrors)
}

func TestSend_Broadcast(t *testing.T) {
	f := newFixture(t, nil)
	attach(t, f.hub, sse.WithUserID("u1"))
	attach(t, f.hub, sse.WithUserID("u2"))

	resp, body := f.do(t, http.MethodPost, "/api/v1/events/send", map[string]any{
		"event":  map[string]any{"type": "notice"},
		"target": "all",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sr sendResponse
	require.NoError(t, json.Unmarshal(body, &sr))
	assert.Equal(t, 2, *sr.SentCount)
}

func TestStatsAndConnections(t *testing.T) {
	f := newFixture(t, nil)
	attach(t, f.hub, sse.WithUserID("u1"))
	attach(t, f.hub, sse.WithUserID("u1"))

	resp, body := f.do(t, http.MethodGet, "/api/v1/events/stats", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.EqualValues(t, 2, stats["active_connections"])
	assert.EqualValues(t, 2, stats["total_connections"])
	assert.Contains(t, stats, "uptime_seconds")

	resp, body = f.do(t, http.MethodGet, "/api/v1/events/connections", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var conns struct {
		Connections []sse.ConnectionInfo `json:"connections"`
		Total       int                  `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &conns))
	assert.Equal(t, 2, conns.Total)
	assert.Len(t, conns.Connections, 2)
}

func TestDisconnectEndpoints(t *testing.T) {
	f := newFixture(t, nil)
	c1 := attach(t, f.hub, sse.WithUserID("u1"), sse.WithSessionID("s1"))
	attach(t, f.hub, sse.WithUserID("u2"))
	attach(t, f.hub, sse.WithUserID("u2"))
	attach(t, f.hub, sse.WithSessionID("s9"))

	resp, _ := f.do(t, http.MethodDelete, "/api/v1/events/connections/"+c1, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.do(t, http.MethodDelete, "/api/v1/events/connections/"+c1, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "NOT_FOUND")

	resp, body = f.do(t, http.MethodDelete, "/api/v1/events/users/u2", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"disconnected":2}`, string(body))

	resp, body = f.do(t, http.MethodDelete, "/api/v1/events/sessions/s9", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"disconnected":1}`, string(body))

	assert.Equal(t, 0, f.hub.ClientCount())
}

func TestStream_JWTAuth(t *testing.T) {
	svc, err := jwt.NewStreamService(&jwt.Config{Secret: testSecret})
	require.NoError(t, err)

	f := newFixture(t, func(r *server.Routes) {
		r.StreamAuth = svc
		r.AllowQueryToken = true
	})

	resp, body := f.do(t, http.MethodGet, server.PathStream, nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "UNAUTHORIZED")

	token, err := svc.GenerateAccess(&jwt.StreamClaims{UserID: "u7", SessionID: "s7"})
	require.NoError(t, err)

	// Claims win over query parameters.
	clientID, _ := f.openStream(t, "?access_token="+token+"&user_id=spoofed", nil)
	c := f.hub.GetClient(clientID)
	require.NotNil(t, c)
	assert.Equal(t, "u7", c.UserID())
	assert.Equal(t, "s7", c.SessionID())
}

func TestAPIKeyProtectsEventsAPI(t *testing.T) {
	const key = "publisher-key-0123456789"
	hash, err := apikey.Hash(key, bcrypt.MinCost)
	require.NoError(t, err)
	verifier, err := apikey.NewVerifier(&apikey.Config{Hashes: []string{hash}})
	require.NoError(t, err)

	f := newFixture(t, func(r *server.Routes) { r.APIKeys = verifier })

	resp, _ := f.do(t, http.MethodGet, "/api/v1/events/stats", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/events/stats", nil, map[string]string{apikey.HeaderName: key})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The stream endpoint is not behind the API key.
	f.openStream(t, "", nil)
}

func TestHealthAndNoRoute(t *testing.T) {
	f := newFixture(t, func(r *server.Routes) {
		r.Health = func(context.Context) []component.Health {
			return []component.Health{{Name: "sse", Status: component.StatusDegraded}}
		}
	})

	resp, body := f.do(t, http.MethodGet, server.PathHealth, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"degraded"`)

	resp, _ = f.do(t, http.MethodGet, server.PathReady, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = f.do(t, http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "NOT_FOUND")

	resp, _ = f.do(t, http.MethodGet, server.PathVersion, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestHealth_Unhealthy(t *testing.T) {
	f := newFixture(t, func(r *server.Routes) {
		r.Health = func(context.Context) []component.Health {
			return []component.Health{{Name: "sse", Status: component.StatusUnhealthy}}
		}
	})
	resp, _ := f.do(t, http.MethodGet, server.PathHealth, nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp, _ = f.do(t, http.MethodGet, server.PathReady, nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, func(r *server.Routes) {
		r.Metrics = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics\n"))
		})
	})
	resp, body := f.do(t, http.MethodGet, server.PathMetrics, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "# metrics\n", string(body))
}

func TestComponent_Lifecycle(t *testing.T) {
	hub := sse.NewHub(sse.Config{}, sse.WithLogger(logger.NewNop()))
	cfg := server.Config{Host: "127.0.0.1"}
	cfg.ApplyDefaults()
	cfg.Port = 0
	srv := server.New(cfg, logger.NewNop())
	srv.ApplyMiddleware()
	srv.RegisterRoutes(server.Routes{ServiceName: "pushhub-test", Hub: hub})
	srv.OnShutdown(hub.Destroy)

	comp := server.NewComponent(srv)
	ctx := context.Background()
	assert.Equal(t, component.StatusUnhealthy, comp.Health(ctx).Status)

	require.NoError(t, comp.Start(ctx))
	assert.Equal(t, component.StatusHealthy, comp.Health(ctx).Status)
	addr := srv.Addr()
	require.False(t, strings.HasSuffix(addr, ":0"), addr)

	resp, err := http.Get("http://" + addr + server.PathHealth)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// An open stream must not hold up shutdown.
	req, err := http.NewRequest(http.MethodGet, "http://"+addr+server.PathStream, nil)
	require.NoError(t, err)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()

	start := time.Now()
	require.NoError(t, comp.Stop(ctx))
	assert.Less(t, time.Since(start), 4*time.Second)
	assert.Equal(t, component.StatusUnhealthy, comp.Health(ctx).Status)

	routes := comp.Routes()
	require.NotEmpty(t, routes)
	assert.Equal(t, "/api/v1/events/connections", routes[0].Path)
	assert.Equal(t, "GET", routes[0].Method)
	assert.Equal(t, "Connections", routes[0].Handler)
	assert.Equal(t, "server", comp.Describe().Type)
}

func TestConfig_Validate(t *testing.T) {
	cfg := server.Config{}
	cfg.ApplyDefaults()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 0, cfg.WriteTimeout)

	cfg.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg = server.Config{}
	cfg.ApplyDefaults()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Burst = -1
	assert.Error(t, cfg.Validate())
}
