package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestRouter(origins []string) http.Handler {
	mux := NewChiRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), origins)
	mux.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func TestNewChiRouter_CORS(t *testing.T) {
	testCases := []struct {
		name          string
		origins       []string
		origin        string
		expectAllowed string
	}{
		{name: "allowed origin", origins: []string{"https://bank.example"}, origin: "https://bank.example", expectAllowed: "https://bank.example"},
		{name: "foreign origin", origins: []string{"https://bank.example"}, origin: "https://evil.example", expectAllowed: ""},
		{name: "cors disabled", origins: nil, origin: "https://bank.example", expectAllowed: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			router := newTestRouter(tc.origins)
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.Header.Set("Origin", tc.origin)
			rr := httptest.NewRecorder()
			// when
			router.ServeHTTP(rr, req)
			// then
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tc.expectAllowed, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
		})
	}
}

func TestNewHTTPServer(t *testing.T) {
	cfg := HTTPConfig{
		Port:           8080,
		MaxHeaderBytes: 1 << 20,
		ReadTimeout:    time.Second,
		WriteTimeout:   2 * time.Second,
		IdleTimeout:    3 * time.Second,
		ReadHeader:     4 * time.Second,
	}

	srv := NewHTTPServer(cfg, http.NotFoundHandler())

	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, 1<<20, srv.MaxHeaderBytes)
	assert.Equal(t, time.Second, srv.ReadTimeout)
	assert.Equal(t, 2*time.Second, srv.WriteTimeout)
	assert.Equal(t, 3*time.Second, srv.IdleTimeout)
	assert.Equal(t, 4*time.Second, srv.ReadHeaderTimeout)
}
