package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.jester/pkg/report"
)

func newTestServer(t *testing.T, opts ...ServerOption) (*Server, *EventCollector, *httptest.Server) {
	t.Helper()
	collector := NewEventCollector()
	s := NewServer("", collector, NewDashboardData("run-1"), opts...)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		_ = s.Stop(context.Background())
		srv.Close()
	})
	return s, collector, srv
}

func readEvent(t *testing.T, conn *websocket.Conn) cloudevents.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var ce cloudevents.Event
	require.NoError(t, json.Unmarshal(data, &ce))
	return ce
}

func TestServer_Health(t *testing.T) {
	_, _, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestServer_Dashboard(t *testing.T) {
	_, collector, srv := newTestServer(t)
	collector.ModuleStarted("mod-a")

	resp, err := http.Get(srv.URL + "/dashboard")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var snap Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, "run-1", snap.RunID)
	assert.Equal(t, "running", snap.Modules["mod-a"].Status)
}

func TestServer_Metrics(t *testing.T) {
	_, _, srv := newTestServer(t, WithMetricsHandler(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("jester_runs_total 1\n"))
		},
	)))

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "jester_runs_total")
}

func TestServer_Metrics_NotMounted(t *testing.T) {
	_, _, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_WebSocket_StreamsEvents(t *testing.T) {
	s, collector, srv := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	snap := readEvent(t, conn)
	assert.Equal(t, snapshotType, snap.Type())
	require.Eventually(t, func() bool { return s.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	collector.ModuleStarted("mod-a")
	collector.AssertionRecorded("mod-a", "works", true, false)
	collector.ModuleFinished(report.ModuleResult{ID: "mod-a", Total: 1})

	started := readEvent(t, conn)
	assert.Equal(t, "jester.module.started", started.Type())
	assert.Equal(t, "mod-a", started.Subject())

	asserted := readEvent(t, conn)
	var ev ModuleEvent
	require.NoError(t, asserted.DataAs(&ev))
	assert.Equal(t, "works", ev.Description)
	assert.Equal(t, "passed", ev.Status)

	completed := readEvent(t, conn)
	assert.Equal(t, "jester.module.completed", completed.Type())
}

func TestServer_WebSocket_ClientDisconnect(t *testing.T) {
	s, _, srv := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	readEvent(t, conn)
	require.Eventually(t, func() bool { return s.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return s.ClientCount() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestServer_Start_PortInUse(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	s := NewServer(listener.Addr().String(), NewEventCollector(), NewDashboardData("r"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.ErrorContains(t, s.Start(ctx), "monitor server")
}

func TestServer_Start_StopsOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	s := NewServer(fmt.Sprintf("127.0.0.1:%d", port), NewEventCollector(), NewDashboardData("r"))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", port))
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_Stop_NotStarted(t *testing.T) {
	s := NewServer(":0", NewEventCollector(), NewDashboardData("r"))
	assert.NoError(t, s.Stop(context.Background()))
}
