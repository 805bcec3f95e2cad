package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Black-And-White-Club/discord-event-bot/app/shared/testutils"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	h := NewHandler("v1.2.3", nil, nil, testutils.NoOpLogger())

	rec := serve(h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var got HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Equal(t, "healthy", got.Status)
	require.Equal(t, "v1.2.3", got.Version)
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		storeErr   error
		wantStatus int
		wantCheck  string
	}{
		{name: "store reachable", wantStatus: http.StatusOK, wantCheck: "ok"},
		{name: "store down", storeErr: errors.New("database is closed"), wantStatus: http.StatusServiceUnavailable, wantCheck: "database is closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler("dev", map[string]Pinger{
				"store": pingFunc(func(context.Context) error { return tt.storeErr }),
			}, nil, testutils.NoOpLogger())

			rec := serve(h, "/ready")
			require.Equal(t, tt.wantStatus, rec.Code)
			var got ReadyResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			require.Equal(t, tt.wantCheck, got.Checks["store"])
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	without := NewHandler("dev", nil, nil, testutils.NoOpLogger())
	require.Equal(t, http.StatusNotFound, serve(without, "/metrics").Code)

	with := NewHandler("dev", nil, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	}), testutils.NoOpLogger())
	rec := serve(with, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "# metrics", rec.Body.String())
}

func TestRun_StopsOnCancel(t *testing.T) {
	h := NewHandler("dev", nil, nil, testutils.NoOpLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx, "127.0.0.1:0") }()
	cancel()
	require.NoError(t, <-done)
}
