package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/careers-crawler/internal/metrics"
	"github.com/JakeFAU/careers-crawler/internal/orchestrator"
)

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	rec := serve(newTestServer(orchestrator.Summary{}, nil), http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_Readyz(t *testing.T) {
	t.Parallel()

	rec := serve(newTestServer(orchestrator.Summary{}, nil), http.MethodGet, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(NewServer(nil, nil, zap.NewNop()), http.MethodGet, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_GetRun_ReturnsSummary(t *testing.T) {
	t.Parallel()

	summary := orchestrator.Summary{
		RunID:     "run-1",
		Total:     3,
		Persisted: 2,
		Failed:    1,
		StartedAt: time.Unix(100, 0).UTC(),
	}
	rec := serve(newTestServer(summary, nil), http.MethodGet, "/v1/run")
	require.Equal(t, http.StatusOK, rec.Code)

	var got orchestrator.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, summary, got)
}

func TestServer_GetRun_NoRunYet(t *testing.T) {
	t.Parallel()

	rec := serve(newTestServer(orchestrator.Summary{}, nil), http.MethodGet, "/v1/run")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_StartRun(t *testing.T) {
	t.Parallel()

	calls := 0
	started := newTestServer(orchestrator.Summary{}, func() error {
		calls++
		return nil
	})
	rec := serve(started, http.MethodPost, "/v1/run")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, 1, calls)

	busy := newTestServer(orchestrator.Summary{}, func() error { return orchestrator.ErrRunning })
	rec = serve(busy, http.MethodPost, "/v1/run")
	require.Equal(t, http.StatusConflict, rec.Code)

	broken := newTestServer(orchestrator.Summary{}, func() error { return errors.New("store down") })
	rec = serve(broken, http.MethodPost, "/v1/run")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	disabled := newTestServer(orchestrator.Summary{}, nil)
	rec = serve(disabled, http.MethodPost, "/v1/run")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_MetricsExposesCollectors(t *testing.T) {
	t.Parallel()

	metrics.ObserveSite("persisted")
	rec := serve(newTestServer(orchestrator.Summary{}, nil), http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "careers_sites_total")
}

func TestServer_RecoversFromPanics(t *testing.T) {
	t.Parallel()

	s := newTestServer(orchestrator.Summary{}, func() error { panic("boom") })
	rec := serve(s, http.MethodPost, "/v1/run")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_ListenAndServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- newTestServer(orchestrator.Summary{}, nil).ListenAndServe(ctx, "127.0.0.1:0")
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRequestIDMiddlewareSetsHeader(t *testing.T) {
	t.Parallel()

	rec := serve(newTestServer(orchestrator.Summary{}, nil), http.MethodGet, "/healthz")
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestResponseWriterHijackBehavior(t *testing.T) {
	t.Parallel()

	rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}
	_, _, err := rw.Hijack()
	require.EqualError(t, err, "hijacker not supported")

	h := &hijackableRecorder{ResponseRecorder: httptest.NewRecorder()}
	rw = &responseWriter{ResponseWriter: h}
	conn, buf, err := rw.Hijack()
	require.NoError(t, err)
	require.NotNil(t, buf)
	require.NoError(t, conn.Close())
	require.NoError(t, h.CloseClient())
}

// --- helpers/fakes ---

type fixedStatus orchestrator.Summary

func (f fixedStatus) Status() orchestrator.Summary {
	return orchestrator.Summary(f)
}

func newTestServer(summary orchestrator.Summary, trigger Trigger) *Server {
	return NewServer(fixedStatus(summary), trigger, zap.NewNop())
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

type hijackableRecorder struct {
	*httptest.ResponseRecorder
	client net.Conn
}

func (h *hijackableRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	server, client := net.Pipe()
	h.client = client
	return server, bufio.NewReadWriter(bufio.NewReader(client), bufio.NewWriter(client)), nil
}

func (h *hijackableRecorder) CloseClient() error {
	if h.client != nil {
		if err := h.client.Close(); err != nil {
			return fmt.Errorf("close hijacker client: %w", err)
		}
	}
	return nil
}
